package service

import (
	"errors"

	"formflow_backend/internal/model"
	"formflow_backend/internal/util"

	"gorm.io/gorm"
)

// IssueService 维护面向提交人的 Issue 跟踪记录
// 提交只产生一张工单时，Issue 镜像该工单；否则镜像提交本身
type IssueService struct {
	Issues  IssueStore
	Tickets TicketStore
}

func NewIssueService(issues IssueStore, tickets TicketStore) *IssueService {
	return &IssueService{Issues: issues, Tickets: tickets}
}

// mirror 根据提交与其存活工单计算 Issue 应有的镜像内容
func (s *IssueService) mirror(submission *model.Submission) (*model.Issue, error) {
	tickets, err := s.Tickets.LiveForSubmission(submission.ID)
	if err != nil {
		return nil, err
	}

	issue := &model.Issue{
		SubmissionID: submission.ID,
		RequesterID:  submission.RequesterID,
	}
	requestDate := submission.CreatedAt
	issue.RequestDate = &requestDate

	if len(tickets) == 1 {
		t, err := s.Tickets.FindByID(tickets[0].ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrReferentialInconsistency
			}
			return nil, err
		}
		issue.ItemType = model.ItemTicket
		issue.ItemID = t.ID
		issue.Name = t.Title
		issue.Status = t.Status
		issue.RequesterID = t.RequesterID
		if t.Status >= model.TicketSolved {
			solveDate := t.UpdatedAt
			issue.SolveDate = &solveDate
		}
		return issue, nil
	}

	issue.ItemType = model.ItemSubmission
	issue.ItemID = submission.ID
	issue.Name = submission.Name
	issue.Status = submission.Status
	issue.Comment = submission.Comment
	return issue, nil
}

// CreateForSubmission 在提交创建后建立对应的 Issue
func (s *IssueService) CreateForSubmission(submission *model.Submission) error {
	issue, err := s.mirror(submission)
	if err != nil {
		return err
	}
	return s.Issues.Create(issue)
}

// UpdateForSubmission 提交状态变化后同步 Issue
// 提交被拒绝时只缩窄更新状态与意见，其余字段保持不动
func (s *IssueService) UpdateForSubmission(submission *model.Submission) error {
	existing, err := s.Issues.FindBySubmission(submission.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.CreateForSubmission(submission)
		}
		return err
	}

	if submission.Status == model.StatusRefused {
		existing.Status = model.StatusRefused
		existing.Comment = submission.Comment
		return s.Issues.Update(existing)
	}

	issue, err := s.mirror(submission)
	if err != nil {
		return err
	}
	issue.ID = existing.ID
	issue.CreatedAt = existing.CreatedAt
	return s.Issues.Update(issue)
}

// ListForRequester 提交人视角的 Issue 列表
func (s *IssueService) ListForRequester(requesterID uint, page, limit int) ([]model.Issue, int64, error) {
	return s.Issues.ListForRequester(requesterID, page, limit)
}

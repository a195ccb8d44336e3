package service

import (
	"formflow_backend/internal/model"

	"go.uber.org/zap"
)

// AggregatorService 汇总提交产生的下游工单状态，回写到提交与 Issue 上
type AggregatorService struct {
	Tickets     TicketStore
	Targets     TargetStore
	Submissions SubmissionStore
	Issues      IssueStore
	Logger      *zap.Logger
}

func NewAggregatorService(
	tickets TicketStore,
	targets TargetStore,
	submissions SubmissionStore,
	issues IssueStore,
	logger *zap.Logger,
) *AggregatorService {
	return &AggregatorService{
		Tickets:     tickets,
		Targets:     targets,
		Submissions: submissions,
		Issues:      issues,
		Logger:      logger,
	}
}

// AggregateTicketStatus 计算一组工单的聚合状态
//
// 基准为全部工单中的最小状态值（即推进最慢者）。
// 若存在已指派 / 已排期 / 等待请求人 的工单，按此优先级强制覆盖。
// 无工单时返回 nil，表示没有可聚合的对象。
func AggregateTicketStatus(tickets []model.Ticket) *int {
	if len(tickets) == 0 {
		return nil
	}

	status := 0
	anyAssigned := false
	anyPlanned := false
	anyWaiting := false
	for _, t := range tickets {
		if status == 0 || t.Status < status {
			status = t.Status
		}
		switch t.Status {
		case model.TicketAssigned:
			anyAssigned = true
		case model.TicketPlanned:
			anyPlanned = true
		case model.TicketWaiting:
			anyWaiting = true
		}
	}

	switch {
	case anyAssigned:
		status = model.TicketAssigned
	case anyPlanned:
		status = model.TicketPlanned
	case anyWaiting:
		status = model.TicketWaiting
	}
	return &status
}

// Refresh 重新计算某提交的聚合状态并落盘
func (s *AggregatorService) Refresh(submissionID uint) (*int, error) {
	tickets, err := s.Tickets.LiveForSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	aggregated := AggregateTicketStatus(tickets)

	if err := s.Submissions.UpdateAggregatedStatus(submissionID, aggregated); err != nil {
		return nil, err
	}
	if aggregated != nil {
		if err := s.Issues.UpdateStatusBySubmission(submissionID, *aggregated); err != nil {
			s.Logger.Warn("更新 Issue 聚合状态失败",
				zap.Uint("submission_id", submissionID),
				zap.Error(err))
		}
	}
	return aggregated, nil
}

// UpdateTicketStatus 变更工单状态并刷新其所属提交的聚合视图
func (s *AggregatorService) UpdateTicketStatus(ticketID uint, status int) error {
	if err := s.Tickets.UpdateStatus(ticketID, status); err != nil {
		return err
	}
	submissionIDs, err := s.Targets.SubmissionsForTicket(ticketID)
	if err != nil {
		return err
	}
	for _, id := range submissionIDs {
		if _, err := s.Refresh(id); err != nil {
			s.Logger.Warn("刷新聚合状态失败",
				zap.Uint("submission_id", id),
				zap.Error(err))
		}
	}
	return nil
}

package service

import (
	"errors"
	"time"

	"formflow_backend/internal/model"
	"formflow_backend/internal/util"
	"formflow_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// ApprovalService 多级审批状态机：记录表态、计算整体结果、鉴别审批资格
type ApprovalService struct {
	Validations ValidationStore
	Users       UserStore
}

func NewApprovalService(validations ValidationStore, users UserStore) *ApprovalService {
	return &ApprovalService{Validations: validations, Users: users}
}

// ComputeValidationStatus 按阈值比例计算审批整体状态
//
// 以级为单位归并表态：某级存在拒绝即该级拒绝，否则存在同意即该级同意。
// validationPercent > 0 时以最高级数为分母计算同意/拒绝比例：
// 同意比例达到阈值即通过；拒绝比例使阈值在数学上不可达即拒绝。
// validationPercent == 0 为单人审批模式，任意一票直接定结果。
func ComputeValidationStatus(entries []model.ValidationEntry, validationPercent int) int {
	if len(entries) == 0 {
		return model.StatusWaiting
	}

	levelStatus := make(map[int]int)
	maxLevel := 0
	anyAccepted := false
	anyRefused := false
	for _, e := range entries {
		if e.Level > maxLevel {
			maxLevel = e.Level
		}
		switch e.Status {
		case model.StatusRefused:
			anyRefused = true
			levelStatus[e.Level] = model.StatusRefused
		case model.StatusAccepted:
			anyAccepted = true
			if levelStatus[e.Level] != model.StatusRefused {
				levelStatus[e.Level] = model.StatusAccepted
			}
		default:
			if levelStatus[e.Level] == 0 {
				levelStatus[e.Level] = model.StatusWaiting
			}
		}
	}

	if validationPercent > 0 && maxLevel > 0 {
		acceptedCount := 0
		refusedCount := 0
		for _, status := range levelStatus {
			switch status {
			case model.StatusAccepted:
				acceptedCount++
			case model.StatusRefused:
				refusedCount++
			}
		}
		acceptedRatio := acceptedCount * 100 / maxLevel
		refusedRatio := refusedCount * 100 / maxLevel
		if acceptedRatio >= validationPercent {
			return model.StatusAccepted
		}
		if refusedRatio+validationPercent > 100 {
			// 同意阈值已不可达
			return model.StatusRefused
		}
		return model.StatusWaiting
	}

	// 无阈值：一票定结果
	if anyAccepted {
		return model.StatusAccepted
	}
	if anyRefused {
		return model.StatusRefused
	}
	return model.StatusWaiting
}

// CurrentLevel 当前审批级：最低的仍有未决表态的级；全部已决时返回最高级
func CurrentLevel(entries []model.ValidationEntry) int {
	if len(entries) == 0 {
		return 1
	}
	maxLevel := 0
	waiting := 0
	for _, e := range entries {
		if e.Level > maxLevel {
			maxLevel = e.Level
		}
		if e.Status == model.StatusWaiting {
			if waiting == 0 || e.Level < waiting {
				waiting = e.Level
			}
		}
	}
	if waiting > 0 {
		return waiting
	}
	return maxLevel
}

// authorizedEntry 在给定级的表态记录中找出 actor 有权代表的那一条：
// 本人、组成员、或处于有效期内的代理人
func (s *ApprovalService) authorizedEntry(actorID uint, entries []model.ValidationEntry) (*model.ValidationEntry, error) {
	now := time.Now()
	for i := range entries {
		e := &entries[i]
		switch e.ValidatorType {
		case model.ValidatorUser:
			if e.ValidatorID == actorID {
				return e, nil
			}
			ok, err := s.Users.IsSubstituteOf(actorID, e.ValidatorID, now)
			if err != nil {
				return nil, err
			}
			if ok {
				return e, nil
			}
		case model.ValidatorGroup:
			ok, err := s.Users.IsGroupMember(actorID, e.ValidatorID)
			if err != nil {
				return nil, err
			}
			if ok {
				return e, nil
			}
		}
	}
	return nil, nil
}

// CanValidate actor 是否是该提交当前级的有效审批人
func (s *ApprovalService) CanValidate(actorID uint, submission *model.Submission) (bool, error) {
	entries, err := s.Validations.FindBySubmission(submission.ID)
	if err != nil {
		return false, err
	}
	level := CurrentLevel(entries)
	atLevel := make([]model.ValidationEntry, 0, len(entries))
	for _, e := range entries {
		if e.Level == level {
			atLevel = append(atLevel, e)
		}
	}
	entry, err := s.authorizedEntry(actorID, atLevel)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// RecordVote 记录一次表态并返回重新计算后的整体状态
// 仅在提交处于等待状态、且 actor 是当前级审批人时接受
func (s *ApprovalService) RecordVote(actorID uint, submission *model.Submission, vote int) (int, error) {
	if submission.Status != model.StatusWaiting {
		return submission.Status, util.ErrSubmissionNotWaiting
	}

	entries, err := s.Validations.FindBySubmission(submission.ID)
	if err != nil {
		return submission.Status, err
	}
	level := CurrentLevel(entries)
	atLevel := make([]model.ValidationEntry, 0, len(entries))
	for _, e := range entries {
		if e.Level == level {
			atLevel = append(atLevel, e)
		}
	}

	entry, err := s.authorizedEntry(actorID, atLevel)
	if err != nil {
		return submission.Status, err
	}
	if entry == nil {
		return submission.Status, util.ErrAuthorizationDenied
	}

	if err := s.Validations.UpdateStatus(entry.ID, vote); err != nil {
		return submission.Status, err
	}
	entry.Status = vote
	monitoring.ValidationVotes.WithLabelValues(model.StatusLabel(vote)).Inc()

	// 全量重扫计算，不做增量
	refreshed, err := s.Validations.FindBySubmission(submission.ID)
	if err != nil {
		return submission.Status, err
	}
	return ComputeValidationStatus(refreshed, submission.ValidationPercent), nil
}

// Approvers 返回某提交当前级（或全部级）的表态记录
func (s *ApprovalService) Approvers(submissionID uint, currentOnly bool) ([]model.ValidationEntry, error) {
	entries, err := s.Validations.FindBySubmission(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !currentOnly {
		return entries, nil
	}
	return s.Validations.EntriesAtLevel(submissionID, CurrentLevel(entries))
}

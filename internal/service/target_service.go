package service

import (
	"formflow_backend/internal/engine"
	"formflow_backend/internal/model"
	"formflow_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// TargetService 提交通过审批后生成下游对象（工单 / 通知）
type TargetService struct {
	Targets  TargetStore
	Tickets  TicketStore
	Notifier *NotificationService
	Logger   *zap.Logger
}

func NewTargetService(targets TargetStore, tickets TicketStore, notifier *NotificationService, logger *zap.Logger) *TargetService {
	return &TargetService{Targets: targets, Tickets: tickets, Notifier: notifier, Logger: logger}
}

// Generate 按表单的目标模板为提交生成下游对象
//
// 不可见模板与已生成过的模板直接跳过，因此重复调用是幂等的。
// 单个模板失败不中断其余模板，整体成功与否由返回值第二项表达；
// 已生成的对象保留，调用方负责把提交退回等待态后重试。
func (s *TargetService) Generate(submission *model.Submission, set *engine.AnswerSet, vis engine.VisibilityMap) ([]model.GeneratedTarget, bool) {
	templates, err := s.Targets.TemplatesForForm(submission.FormID)
	if err != nil {
		s.Logger.Error("读取目标模板失败",
			zap.Uint("submission_id", submission.ID),
			zap.Uint("form_id", submission.FormID),
			zap.Error(err))
		return nil, false
	}
	generated := make([]model.GeneratedTarget, 0, len(templates))
	success := true

	for i := range templates {
		tpl := &templates[i]
		if !vis.Target(tpl.ID) {
			continue
		}
		exists, err := s.Targets.HasGenerated(submission.ID, tpl.ID)
		if err != nil {
			s.Logger.Error("查询生成记录失败",
				zap.Uint("submission_id", submission.ID),
				zap.Uint("template_id", tpl.ID),
				zap.Error(err))
			success = false
			continue
		}
		if exists {
			continue
		}

		record, err := s.generateOne(submission, tpl, set, vis)
		if err != nil {
			s.Logger.Error("生成下游对象失败",
				zap.Uint("submission_id", submission.ID),
				zap.Uint("template_id", tpl.ID),
				zap.String("kind", tpl.Kind),
				zap.Error(err))
			monitoring.TargetGenerationFailures.Inc()
			success = false
			continue
		}
		generated = append(generated, *record)
	}

	s.linkGeneratedTickets(submission.ID)
	return generated, success
}

func (s *TargetService) generateOne(submission *model.Submission, tpl *model.TargetTemplate, set *engine.AnswerSet, vis engine.VisibilityMap) (*model.GeneratedTarget, error) {
	title := engine.RenderTags(tpl.TitleTemplate, set, vis, false)
	if title == "" {
		title = submission.Name
	}

	record := &model.GeneratedTarget{
		SubmissionID:     submission.ID,
		TargetTemplateID: tpl.ID,
	}

	switch tpl.Kind {
	case model.TargetKindNotification:
		// 副作用类模板：只发事件，不生成对象
		s.Notifier.Notify(model.EventTargetGenerated, submission, submission.RequesterID)
		record.ItemType = model.TargetKindNotification
	default:
		content := engine.RenderTags(tpl.ContentTemplate, set, vis, true)
		ticket := &model.Ticket{
			Title:       title,
			Content:     content,
			Status:      model.TicketIncoming,
			RequesterID: submission.RequesterID,
		}
		if err := s.Tickets.Create(ticket); err != nil {
			return nil, err
		}
		record.ItemType = model.ItemTicket
		record.ItemID = ticket.ID
	}

	if err := s.Targets.CreateGenerated(record); err != nil {
		return nil, err
	}
	return record, nil
}

// linkGeneratedTickets 同一提交生成的工单两两互联
// 基于全部生成记录而非本次新增：部分失败重试后，早先批次的工单也要与新工单关联。
// 已存在的关联跳过，因此重复调用不产生重复行
func (s *TargetService) linkGeneratedTickets(submissionID uint) {
	generated, err := s.Targets.GeneratedFor(submissionID)
	if err != nil {
		s.Logger.Warn("读取生成记录失败", zap.Uint("submission_id", submissionID), zap.Error(err))
		return
	}
	ticketIDs := make([]uint, 0, len(generated))
	for _, g := range generated {
		if g.ItemType == model.ItemTicket {
			ticketIDs = append(ticketIDs, g.ItemID)
		}
	}
	for i := 0; i < len(ticketIDs); i++ {
		for j := i + 1; j < len(ticketIDs); j++ {
			exists, err := s.Tickets.LinkExists(ticketIDs[i], ticketIDs[j])
			if err != nil {
				s.Logger.Warn("查询工单关联失败",
					zap.Uint("ticket_id", ticketIDs[i]),
					zap.Uint("linked_ticket_id", ticketIDs[j]),
					zap.Error(err))
				continue
			}
			if exists {
				continue
			}
			if err := s.Tickets.CreateLink(&model.TicketLink{
				TicketID:       ticketIDs[i],
				LinkedTicketID: ticketIDs[j],
			}); err != nil {
				s.Logger.Warn("关联工单失败",
					zap.Uint("ticket_id", ticketIDs[i]),
					zap.Uint("linked_ticket_id", ticketIDs[j]),
					zap.Error(err))
			}
		}
	}
}

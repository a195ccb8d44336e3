package service

import (
	"time"

	"formflow_backend/internal/model"
)

// 服务层对持久化的依赖按实际用到的方法收窄成接口，
// *repository.XxxRepository 均满足对应接口，测试时可替换为内存实现。

type FormStore interface {
	FindByID(id uint) (*model.Form, error)
	ConditionsForForm(form *model.Form) ([]model.Condition, error)
}

type SubmissionStore interface {
	Create(s *model.Submission) error
	FindByID(id uint) (*model.Submission, error)
	List(page, limit int, formID uint, status int) ([]model.Submission, int64, error)
	UpdateStatus(id uint, status int) error
	UpdateFields(id uint, fields map[string]interface{}) error
	UpdateAggregatedStatus(id uint, status *int) error
	UpsertAnswer(answer *model.Answer) error
	AnswersFor(submissionID uint) ([]model.Answer, error)
	Purge(id uint) error
}

type ValidationStore interface {
	BulkCreate(entries []model.ValidationEntry) error
	FindBySubmission(submissionID uint) ([]model.ValidationEntry, error)
	EntriesAtLevel(submissionID uint, level int) ([]model.ValidationEntry, error)
	UpdateStatus(entryID uint, status int) error
}

type UserStore interface {
	FindByID(id uint) (*model.User, error)
	IsSubstituteOf(actorID, validatorID uint, at time.Time) (bool, error)
	IsGroupMember(userID, groupID uint) (bool, error)
}

type TargetStore interface {
	TemplatesForForm(formID uint) ([]model.TargetTemplate, error)
	HasGenerated(submissionID, templateID uint) (bool, error)
	CreateGenerated(g *model.GeneratedTarget) error
	GeneratedFor(submissionID uint) ([]model.GeneratedTarget, error)
	SubmissionsForTicket(ticketID uint) ([]uint, error)
}

type TicketStore interface {
	Create(t *model.Ticket) error
	FindByID(id uint) (*model.Ticket, error)
	UpdateStatus(id uint, status int) error
	CreateLink(link *model.TicketLink) error
	LinkExists(ticketID, linkedTicketID uint) (bool, error)
	LiveForSubmission(submissionID uint) ([]model.Ticket, error)
}

type IssueStore interface {
	Create(issue *model.Issue) error
	Update(issue *model.Issue) error
	FindBySubmission(submissionID uint) (*model.Issue, error)
	UpdateStatusBySubmission(submissionID uint, status int) error
	ListForRequester(requesterID uint, page, limit int) ([]model.Issue, int64, error)
}

type NotificationStore interface {
	Create(log *model.NotificationLog) error
	ListBySubmission(submissionID uint) ([]model.NotificationLog, error)
}

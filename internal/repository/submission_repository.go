package repository

import (
	"formflow_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(s *model.Submission) error {
	return r.DB.Create(s).Error
}

func (r *SubmissionRepository) FindByID(id uint) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.
		Preload("Form").
		Preload("Form.Sections", func(db *gorm.DB) *gorm.DB { return db.Order("display_order asc") }).
		Preload("Form.Sections.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("row asc, col asc") }).
		Preload("Form.Validators", func(db *gorm.DB) *gorm.DB { return db.Order("level asc") }).
		Preload("Form.Targets").
		Preload("Requester").
		First(&s, id).Error
	return &s, err
}

func (r *SubmissionRepository) List(page, limit int, formID uint, status int) ([]model.Submission, int64, error) {
	var subs []model.Submission
	var total int64
	query := r.DB.Model(&model.Submission{})
	if formID > 0 {
		query = query.Where("form_id = ?", formID)
	}
	if status > 0 {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, total, err
}

func (r *SubmissionRepository) UpdateStatus(id uint, status int) error {
	return r.DB.Model(&model.Submission{}).Where("id = ?", id).Update("status", status).Error
}

// UpdateFields 只更新给定列，拒绝时用于收窄到 {status, comment}
func (r *SubmissionRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.DB.Model(&model.Submission{}).Where("id = ?", id).Updates(fields).Error
}

func (r *SubmissionRepository) UpdateAggregatedStatus(id uint, status *int) error {
	return r.DB.Model(&model.Submission{}).Where("id = ?", id).Update("aggregated_status", status).Error
}

// UpsertAnswer 以 (submission, question) 为键原子写入一条答案
func (r *SubmissionRepository) UpsertAnswer(answer *model.Answer) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(answer).Error
}

func (r *SubmissionRepository) AnswersFor(submissionID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.Where("submission_id = ?", submissionID).Find(&answers).Error
	return answers, err
}

// Purge 删除提交并级联清理其答案、审批记录与生成物关联，保证事后无法反查到该提交
func (r *SubmissionRepository) Purge(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("submission_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("submission_id = ?", id).Delete(&model.ValidationEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("submission_id = ?", id).Delete(&model.Issue{}).Error; err != nil {
			return err
		}
		var ticketIDs []uint
		if err := tx.Model(&model.GeneratedTarget{}).
			Where("submission_id = ? AND item_type = ?", id, model.ItemTicket).
			Pluck("item_id", &ticketIDs).Error; err != nil {
			return err
		}
		if len(ticketIDs) > 0 {
			if err := tx.Unscoped().
				Where("ticket_id IN ? OR linked_ticket_id IN ?", ticketIDs, ticketIDs).
				Delete(&model.TicketLink{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("submission_id = ?", id).Delete(&model.GeneratedTarget{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Submission{}, id).Error
	})
}

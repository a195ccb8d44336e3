package repository

import (
	"formflow_backend/internal/model"

	"gorm.io/gorm"
)

type TargetRepository struct {
	DB *gorm.DB
}

func NewTargetRepository(db *gorm.DB) *TargetRepository {
	return &TargetRepository{DB: db}
}

func (r *TargetRepository) TemplatesForForm(formID uint) ([]model.TargetTemplate, error) {
	var templates []model.TargetTemplate
	err := r.DB.Where("form_id = ?", formID).Find(&templates).Error
	return templates, err
}

func (r *TargetRepository) CreateGenerated(g *model.GeneratedTarget) error {
	return r.DB.Create(g).Error
}

func (r *TargetRepository) GeneratedFor(submissionID uint) ([]model.GeneratedTarget, error) {
	var generated []model.GeneratedTarget
	err := r.DB.Where("submission_id = ?", submissionID).Order("id asc").Find(&generated).Error
	return generated, err
}

// HasGenerated 幂等保护：同一 (submission, template) 只生成一次
func (r *TargetRepository) HasGenerated(submissionID, templateID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.GeneratedTarget{}).
		Where("submission_id = ? AND target_template_id = ?", submissionID, templateID).
		Count(&count).Error
	return count > 0, err
}

// SubmissionsForTicket 反查某工单由哪些提交生成
func (r *TargetRepository) SubmissionsForTicket(ticketID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.GeneratedTarget{}).
		Where("item_type = ? AND item_id = ?", model.ItemTicket, ticketID).
		Distinct().
		Pluck("submission_id", &ids).Error
	return ids, err
}

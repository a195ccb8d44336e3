package repository

import (
	"formflow_backend/internal/model"

	"gorm.io/gorm"
)

type ValidationRepository struct {
	DB *gorm.DB
}

func NewValidationRepository(db *gorm.DB) *ValidationRepository {
	return &ValidationRepository{DB: db}
}

// BulkCreate 在提交创建时整体拷贝表单审批链
func (r *ValidationRepository) BulkCreate(entries []model.ValidationEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.DB.Create(&entries).Error
}

func (r *ValidationRepository) FindBySubmission(submissionID uint) ([]model.ValidationEntry, error) {
	var entries []model.ValidationEntry
	err := r.DB.Where("submission_id = ?", submissionID).Order("level asc").Find(&entries).Error
	return entries, err
}

func (r *ValidationRepository) EntriesAtLevel(submissionID uint, level int) ([]model.ValidationEntry, error) {
	var entries []model.ValidationEntry
	err := r.DB.Where("submission_id = ? AND level = ?", submissionID, level).Find(&entries).Error
	return entries, err
}

func (r *ValidationRepository) UpdateStatus(entryID uint, status int) error {
	return r.DB.Model(&model.ValidationEntry{}).Where("id = ?", entryID).Update("status", status).Error
}

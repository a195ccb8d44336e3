package repository

import (
	"formflow_backend/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(log *model.NotificationLog) error {
	return r.DB.Create(log).Error
}

func (r *NotificationRepository) ListBySubmission(submissionID uint) ([]model.NotificationLog, error) {
	var logs []model.NotificationLog
	err := r.DB.Where("submission_id = ?", submissionID).Order("created_at asc").Find(&logs).Error
	return logs, err
}

package repository

import (
	"formflow_backend/internal/model"

	"gorm.io/gorm"
)

type IssueRepository struct {
	DB *gorm.DB
}

func NewIssueRepository(db *gorm.DB) *IssueRepository {
	return &IssueRepository{DB: db}
}

func (r *IssueRepository) Create(issue *model.Issue) error {
	return r.DB.Create(issue).Error
}

func (r *IssueRepository) Update(issue *model.Issue) error {
	return r.DB.Save(issue).Error
}

func (r *IssueRepository) FindBySubmission(submissionID uint) (*model.Issue, error) {
	var issue model.Issue
	err := r.DB.Where("submission_id = ?", submissionID).First(&issue).Error
	return &issue, err
}

func (r *IssueRepository) UpdateStatusBySubmission(submissionID uint, status int) error {
	return r.DB.Model(&model.Issue{}).Where("submission_id = ?", submissionID).Update("status", status).Error
}

func (r *IssueRepository) ListForRequester(requesterID uint, page, limit int) ([]model.Issue, int64, error) {
	var issues []model.Issue
	var total int64
	query := r.DB.Model(&model.Issue{}).Where("requester_id = ?", requesterID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&issues).Error
	return issues, total, err
}

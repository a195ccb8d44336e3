package model

// ValidationEntry 一条审批记录：某次提交在某一级上某个审批人（用户或组）的表态
// 在提交创建时从表单审批链整体拷贝生成，终态后不再变更
type ValidationEntry struct {
	BaseModel
	SubmissionID  uint          `gorm:"index;type:bigint unsigned" json:"submissionId"`
	Level         int           `json:"level"`
	ValidatorType ValidatorType `gorm:"size:20" json:"validatorType"`
	ValidatorID   uint          `gorm:"type:bigint unsigned" json:"validatorId"`
	Status        int           `gorm:"default:101" json:"status"`
}

func (ValidationEntry) TableName() string {
	return "submission_validations"
}

package model

import "time"

// Issue 面向提交人的统一跟踪记录
// 提交只生成了一张工单时从工单镜像，否则从提交本身镜像
type Issue struct {
	BaseModel
	ItemType     string     `gorm:"size:30;index:idx_issue_item" json:"itemType"` // submission | ticket
	ItemID       uint       `gorm:"type:bigint unsigned;index:idx_issue_item" json:"itemId"`
	SubmissionID uint       `gorm:"uniqueIndex;type:bigint unsigned" json:"submissionId"`
	Name         string     `gorm:"size:255" json:"name"`
	Status       int        `json:"status"`
	RequesterID  uint       `gorm:"index;type:bigint unsigned" json:"requesterId"`
	Comment      string     `gorm:"type:text" json:"comment"`
	RequestDate  *time.Time `json:"requestDate"`
	SolveDate    *time.Time `json:"solveDate"`
}

func (Issue) TableName() string {
	return "issues"
}

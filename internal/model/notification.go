package model

// 通知事件类型
const (
	EventSubmissionCreated = "submission_created"
	EventNeedsApproval     = "needs_approval"
	EventRefused           = "refused"
	EventAccepted          = "accepted"
	EventDeleted           = "deleted"
	EventTargetGenerated   = "target_generated"
)

// NotificationLog 通知/审计落库记录，发送失败不影响业务事务
type NotificationLog struct {
	UUIDBase
	Event        string `gorm:"size:40;index" json:"event"`
	SubmissionID uint   `gorm:"index;type:bigint unsigned" json:"submissionId"`
	RecipientID  uint   `gorm:"type:bigint unsigned" json:"recipientId"` // 0 = 广播
	Payload      string `gorm:"type:text" json:"payload"`
	Delivered    bool   `gorm:"default:false" json:"delivered"`
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}

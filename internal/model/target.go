package model

// 目标模板的类别
const (
	TargetKindTicket       = "ticket"       // 生成工单对象
	TargetKindNotification = "notification" // 仅产生通知副作用，不生成对象
)

// 生成记录与 Issue 指向的对象类型
const (
	ItemSubmission = "submission"
	ItemTicket     = "ticket"
)

// TargetTemplate 表单配置的下游对象生成规则，内容支持 ##question_N## / ##answer_N## / ##FULLFORM## 标签
type TargetTemplate struct {
	BaseModel
	FormID          uint   `gorm:"index;type:bigint unsigned" json:"formId"`
	Name            string `gorm:"size:255" json:"name"`
	Kind            string `gorm:"size:20;default:'ticket'" json:"kind"`
	TitleTemplate   string `gorm:"size:255" json:"titleTemplate"`
	ContentTemplate string `gorm:"type:text" json:"contentTemplate"`
	ShowRule        string `gorm:"size:20;default:'always'" json:"showRule"`
}

func (TargetTemplate) TableName() string {
	return "target_templates"
}

// GeneratedTarget 提交与生成结果的关联记录
// (submission, template) 唯一，重复生成时据此跳过
type GeneratedTarget struct {
	BaseModel
	SubmissionID     uint   `gorm:"type:bigint unsigned;uniqueIndex:idx_submission_template" json:"submissionId"`
	TargetTemplateID uint   `gorm:"type:bigint unsigned;uniqueIndex:idx_submission_template" json:"targetTemplateId"`
	ItemType         string `gorm:"size:30" json:"itemType"`
	ItemID           uint   `gorm:"type:bigint unsigned" json:"itemId"` // 副作用类模板为 0
}

func (GeneratedTarget) TableName() string {
	return "generated_targets"
}

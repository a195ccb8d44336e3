package model

// 提交与审批的生命周期状态
// 取值避开工单状态区间，便于 Issue 在同一个状态空间内聚合
const (
	StatusWaiting  = 101
	StatusRefused  = 102
	StatusAccepted = 103
)

func StatusLabel(status int) string {
	switch status {
	case StatusWaiting:
		return "waiting"
	case StatusRefused:
		return "refused"
	case StatusAccepted:
		return "accepted"
	case TicketIncoming:
		return "incoming"
	case TicketAssigned:
		return "assigned"
	case TicketPlanned:
		return "planned"
	case TicketWaiting:
		return "pending"
	case TicketSolved:
		return "solved"
	case TicketClosed:
		return "closed"
	}
	return "unknown"
}

// swagger:model Submission
type Submission struct {
	BaseModel
	FormID            uint   `gorm:"index;type:bigint unsigned" json:"formId"`
	Form              *Form  `gorm:"foreignKey:FormID" json:"form,omitempty"`
	Name              string `gorm:"size:255" json:"name"`
	RequesterID       uint   `gorm:"index;type:bigint unsigned" json:"requesterId"`
	Requester         *User  `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Comment           string `gorm:"type:text" json:"comment"`
	Status            int    `gorm:"default:101" json:"status"`
	ValidationPercent int    `gorm:"default:0" json:"validationPercent"`
	// 至多设置其一：指定的审批用户或审批组
	UserValidatorID  uint `gorm:"type:bigint unsigned;default:0" json:"userValidatorId"`
	GroupValidatorID uint `gorm:"type:bigint unsigned;default:0" json:"groupValidatorId"`
	// 下游工单状态的聚合缓存，无工单时为 nil
	AggregatedStatus *int `json:"aggregatedStatus"`

	Answers []Answer `gorm:"foreignKey:SubmissionID" json:"answers,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// swagger:model Answer
type Answer struct {
	BaseModel
	SubmissionID uint   `gorm:"type:bigint unsigned;uniqueIndex:idx_submission_question" json:"submissionId"`
	QuestionID   uint   `gorm:"type:bigint unsigned;uniqueIndex:idx_submission_question" json:"questionId"`
	Value        string `gorm:"type:text" json:"value"`
}

func (Answer) TableName() string {
	return "submission_answers"
}

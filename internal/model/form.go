package model

import "encoding/json"

type ValidatorType string

const (
	ValidatorUser       ValidatorType = "user"
	ValidatorGroup      ValidatorType = "group"
	ValidatorSupervisor ValidatorType = "supervisor" // 解析为提交人的上级
)

// swagger:model Form
type Form struct {
	BaseModel
	Name          string `gorm:"size:255" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	Content       string `gorm:"type:text" json:"content"` // 表单头部说明，展示用
	AnswerTitle   string `gorm:"size:255" json:"answerTitle"` // 提交记录标题模板，支持 ##answer_N## 标签
	ValidationPercent int `gorm:"default:0" json:"validationPercent"` // 0 = 单人审批模式
	IsActive      bool   `gorm:"default:true" json:"isActive"`

	Sections   []Section        `gorm:"foreignKey:FormID" json:"sections,omitempty"`
	Validators []FormValidator  `gorm:"foreignKey:FormID" json:"validators,omitempty"`
	Targets    []TargetTemplate `gorm:"foreignKey:FormID" json:"targets,omitempty"`
}

func (Form) TableName() string {
	return "forms"
}

// ValidationRequired 表单是否配置了审批链
func (f *Form) ValidationRequired() bool {
	return len(f.Validators) > 0
}

// swagger:model Section
type Section struct {
	BaseModel
	FormID   uint   `gorm:"index;type:bigint unsigned" json:"formId"`
	Name     string `gorm:"size:255" json:"name"`
	Order    int    `gorm:"column:display_order" json:"order"`
	ShowRule string `gorm:"size:20;default:'always'" json:"showRule"`

	Questions []Question `gorm:"foreignKey:SectionID" json:"questions,omitempty"`
}

func (Section) TableName() string {
	return "form_sections"
}

// swagger:model Question
type Question struct {
	BaseModel
	SectionID    uint            `gorm:"index;type:bigint unsigned" json:"sectionId"`
	Name         string          `gorm:"size:255" json:"name"`
	FieldType    string          `gorm:"size:30" json:"fieldType"` // text, textarea, integer, float, date, select, checkboxes, file, description
	Required     bool            `gorm:"default:false" json:"required"`
	DefaultValue string          `gorm:"type:text" json:"defaultValue"`
	Values       json.RawMessage `gorm:"type:json" json:"values"` // 选项类字段的可选值列表
	Description  string          `gorm:"type:text" json:"description"`
	Row          int             `json:"row"`
	Col          int             `json:"col"`
	Width        int             `gorm:"default:4" json:"width"`
	ShowRule     string          `gorm:"size:20;default:'always'" json:"showRule"`
}

func (Question) TableName() string {
	return "form_questions"
}

// FormValidator 表单配置的审批链，按 level 升序构成多级审批
type FormValidator struct {
	BaseModel
	FormID        uint          `gorm:"index;type:bigint unsigned" json:"formId"`
	Level         int           `gorm:"default:1" json:"level"`
	ValidatorType ValidatorType `gorm:"size:20" json:"validatorType"`
	ValidatorID   uint          `gorm:"type:bigint unsigned" json:"validatorId"` // supervisor 类型时为 0
}

func (FormValidator) TableName() string {
	return "form_validators"
}

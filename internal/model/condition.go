package model

// 条件作用对象的类型
const (
	ItemQuestion = "question"
	ItemSection  = "section"
	ItemTarget   = "target"
)

// 实体的显示规则
const (
	ShowRuleAlways = "always"  // 无条件可见
	ShowRuleShowIf = "show-if" // 默认隐藏，条件满足时可见
	ShowRuleHideIf = "hide-if" // 默认可见，条件满足时隐藏
)

// 条件之间的组合逻辑
const (
	LogicAnd = "and"
	LogicOr  = "or"
)

// Condition 一条可见性规则：对某个实体，比较某个问题的当前答案与字面值
type Condition struct {
	BaseModel
	ItemType   string `gorm:"size:20;index:idx_condition_item" json:"itemType"`
	ItemID     uint   `gorm:"type:bigint unsigned;index:idx_condition_item" json:"itemId"`
	QuestionID uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Operator   string `gorm:"size:10" json:"operator"` // ==, !=, <, >, <=, >=
	Value      string `gorm:"size:255" json:"value"`
	Logic      string `gorm:"size:10;default:'and'" json:"logic"`
	Order      int    `gorm:"column:display_order" json:"order"`
}

func (Condition) TableName() string {
	return "form_conditions"
}

package field

import (
	"encoding/json"
	"fmt"

	"formflow_backend/internal/model"
)

// Input 一次提交的原始输入，question ID -> 原始 JSON 值
// 字符串、数值、字符串数组都可能出现，由各字段类型自行解析
type Input map[uint]json.RawMessage

type Operator string

const (
	OpEqual     Operator = "=="
	OpNotEqual  Operator = "!="
	OpLess      Operator = "<"
	OpGreater   Operator = ">"
	OpLessEq    Operator = "<="
	OpGreaterEq Operator = ">="
)

// Field 一个问题答案的多态单元，负责解析、校验、序列化、比较与渲染
type Field interface {
	Question() *model.Question

	// HasInput 输入中是否带有本字段的键
	HasInput(in Input) bool
	// Parse 从原始输入解析值，缺失自身键视为"无输入"而非错误
	Parse(in Input) error
	// IsValid 最近一次解析/反序列化的值是否满足字段自身约束
	// 必填与可见性由调用方结合可见性结果判断
	IsValid() bool
	IsEmpty() bool

	// Serialize 持久化形式；Deserialize 为其逆操作
	Serialize() string
	Deserialize(raw string)

	// Compare 可见性规则的原语，按字段类型语义比较
	Compare(op Operator, value string) (bool, error)

	// RenderText 渲染为目标内容中的替换值，richText 时做 HTML 转义
	RenderText(richText bool) string

	// IsInput 是否承载数据；纯展示类字段不参与校验与标签替换
	IsInput() bool
}

// New 按问题定义的类型标签构造字段实例
func New(q *model.Question) (Field, error) {
	switch q.FieldType {
	case "text":
		return newTextField(q, false), nil
	case "textarea":
		return newTextField(q, true), nil
	case "integer":
		return newNumberField(q, true), nil
	case "float":
		return newNumberField(q, false), nil
	case "date":
		return newDateField(q, false), nil
	case "datetime":
		return newDateField(q, true), nil
	case "select", "radio":
		return newSelectField(q), nil
	case "checkboxes", "multiselect":
		return newCheckboxField(q), nil
	case "file":
		return newFileField(q), nil
	case "description":
		return newDescriptionField(q), nil
	}
	return nil, fmt.Errorf("unknown field type %q for question %d", q.FieldType, q.ID)
}

// decodeString 接受 JSON 字符串或数值字面量，返回文本形式
func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("expected a scalar value")
}

// decodeStrings 接受 JSON 数组或单个标量
func decodeStrings(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	s, err := decodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("expected a string or an array of strings")
	}
	if s == "" {
		return nil, nil
	}
	return []string{s}, nil
}

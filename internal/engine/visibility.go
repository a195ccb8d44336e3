package engine

import (
	"sort"

	"formflow_backend/internal/field"
	"formflow_backend/internal/model"
)

type EntityRef struct {
	Kind string // model.ItemQuestion | model.ItemSection | model.ItemTarget
	ID   uint
}

// VisibilityMap 派生结果，不持久化；答案变化后整体重算
type VisibilityMap map[EntityRef]bool

func (m VisibilityMap) Question(id uint) bool { return m.visible(model.ItemQuestion, id) }
func (m VisibilityMap) Section(id uint) bool  { return m.visible(model.ItemSection, id) }
func (m VisibilityMap) Target(id uint) bool   { return m.visible(model.ItemTarget, id) }

func (m VisibilityMap) visible(kind string, id uint) bool {
	v, ok := m[EntityRef{Kind: kind, ID: id}]
	if !ok {
		// 未声明规则的实体默认可见
		return true
	}
	return v
}

// EvaluateVisibility 对表单的每个实体求值其条件组合
// 条件只引用答案值，不引用其他实体的可见性，因此单趟求值即是不动点：
// 对同一答案集连续求值两次得到相同结果
func EvaluateVisibility(set *AnswerSet, conditions []model.Condition, targets []model.TargetTemplate) VisibilityMap {
	grouped := make(map[EntityRef][]model.Condition)
	for _, c := range conditions {
		ref := EntityRef{Kind: c.ItemType, ID: c.ItemID}
		grouped[ref] = append(grouped[ref], c)
	}

	vis := make(VisibilityMap)
	for _, section := range set.Sections() {
		ref := EntityRef{Kind: model.ItemSection, ID: section.ID}
		vis[ref] = evaluateEntity(set, section.ShowRule, grouped[ref])
	}
	for _, q := range set.Questions() {
		ref := EntityRef{Kind: model.ItemQuestion, ID: q.ID}
		vis[ref] = evaluateEntity(set, q.ShowRule, grouped[ref])
	}
	for _, target := range targets {
		ref := EntityRef{Kind: model.ItemTarget, ID: target.ID}
		vis[ref] = evaluateEntity(set, target.ShowRule, grouped[ref])
	}
	return vis
}

func evaluateEntity(set *AnswerSet, showRule string, conditions []model.Condition) bool {
	if showRule == "" || showRule == model.ShowRuleAlways || len(conditions) == 0 {
		return true
	}

	sort.Slice(conditions, func(i, j int) bool { return conditions[i].Order < conditions[j].Order })

	matched := false
	for i, c := range conditions {
		value := evaluateCondition(set, c)
		if i == 0 {
			matched = value
			continue
		}
		if c.Logic == model.LogicOr {
			matched = matched || value
		} else {
			matched = matched && value
		}
	}

	if showRule == model.ShowRuleHideIf {
		return !matched
	}
	return matched
}

func evaluateCondition(set *AnswerSet, c model.Condition) bool {
	f, ok := set.Field(c.QuestionID)
	if !ok {
		return false
	}
	result, err := f.Compare(field.Operator(c.Operator), c.Value)
	if err != nil {
		return false
	}
	return result
}

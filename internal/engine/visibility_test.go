package engine

import (
	"encoding/json"
	"testing"

	"formflow_backend/internal/field"
	"formflow_backend/internal/model"
)

// buildForm 一个分区两道题：q1 选择题驱动 q2 的可见性
func buildForm() *model.Form {
	return &model.Form{
		BaseModel: model.BaseModel{ID: 1},
		Name:      "装机申请",
		Sections: []model.Section{
			{
				BaseModel: model.BaseModel{ID: 10},
				Name:      "基本信息",
				Order:     1,
				Questions: []model.Question{
					{
						BaseModel: model.BaseModel{ID: 1},
						Name:      "设备类型",
						FieldType: "select",
						Values:    json.RawMessage(`["laptop","desktop"]`),
						Row:       1,
					},
					{
						BaseModel: model.BaseModel{ID: 2},
						Name:      "显示器数量",
						FieldType: "integer",
						Row:       2,
						ShowRule:  model.ShowRuleShowIf,
					},
				},
			},
		},
	}
}

func parse(t *testing.T, set *AnswerSet, in field.Input) {
	t.Helper()
	if err := set.ParseInput(in); err != nil {
		t.Fatalf("解析输入失败: %v", err)
	}
}

func TestShowIfCondition(t *testing.T) {
	form := buildForm()
	conditions := []model.Condition{
		{
			ItemType:   model.ItemQuestion,
			ItemID:     2,
			QuestionID: 1,
			Operator:   "==",
			Value:      "desktop",
		},
	}

	set, err := NewAnswerSet(form)
	if err != nil {
		t.Fatalf("构建字段集失败: %v", err)
	}
	parse(t, set, field.Input{1: json.RawMessage(`"laptop"`)})

	vis := EvaluateVisibility(set, conditions, nil)
	if vis.Question(2) {
		t.Fatalf("条件不满足时 show-if 问题应隐藏")
	}

	parse(t, set, field.Input{1: json.RawMessage(`"desktop"`)})
	vis = EvaluateVisibility(set, conditions, nil)
	if !vis.Question(2) {
		t.Fatalf("条件满足时 show-if 问题应可见")
	}
}

func TestHideIfCondition(t *testing.T) {
	form := buildForm()
	form.Sections[0].Questions[1].ShowRule = model.ShowRuleHideIf
	conditions := []model.Condition{
		{
			ItemType:   model.ItemQuestion,
			ItemID:     2,
			QuestionID: 1,
			Operator:   "==",
			Value:      "laptop",
		},
	}

	set, _ := NewAnswerSet(form)
	parse(t, set, field.Input{1: json.RawMessage(`"laptop"`)})

	vis := EvaluateVisibility(set, conditions, nil)
	if vis.Question(2) {
		t.Fatalf("hide-if 条件满足时问题应隐藏")
	}
}

func TestRuleLessEntityVisible(t *testing.T) {
	form := buildForm()
	set, _ := NewAnswerSet(form)
	vis := EvaluateVisibility(set, nil, nil)

	if !vis.Question(1) {
		t.Fatalf("无规则问题应可见")
	}
	if !vis.Section(10) {
		t.Fatalf("无规则分区应可见")
	}
	if !vis.Question(999) {
		t.Fatalf("未声明的实体默认可见")
	}
}

func TestOrLogicCombination(t *testing.T) {
	form := buildForm()
	conditions := []model.Condition{
		{
			ItemType:   model.ItemQuestion,
			ItemID:     2,
			QuestionID: 1,
			Operator:   "==",
			Value:      "desktop",
			Order:      1,
		},
		{
			ItemType:   model.ItemQuestion,
			ItemID:     2,
			QuestionID: 1,
			Operator:   "==",
			Value:      "laptop",
			Logic:      model.LogicOr,
			Order:      2,
		},
	}

	set, _ := NewAnswerSet(form)
	parse(t, set, field.Input{1: json.RawMessage(`"laptop"`)})

	vis := EvaluateVisibility(set, conditions, nil)
	if !vis.Question(2) {
		t.Fatalf("or 组合任一条件满足即应可见")
	}
}

func TestTargetVisibility(t *testing.T) {
	form := buildForm()
	targets := []model.TargetTemplate{
		{BaseModel: model.BaseModel{ID: 30}, ShowRule: model.ShowRuleShowIf},
	}
	conditions := []model.Condition{
		{
			ItemType:   model.ItemTarget,
			ItemID:     30,
			QuestionID: 1,
			Operator:   "==",
			Value:      "desktop",
		},
	}

	set, _ := NewAnswerSet(form)
	parse(t, set, field.Input{1: json.RawMessage(`"laptop"`)})

	vis := EvaluateVisibility(set, conditions, targets)
	if vis.Target(30) {
		t.Fatalf("条件不满足时目标模板应隐藏")
	}
}

func TestEvaluationIsDeterministic(t *testing.T) {
	form := buildForm()
	conditions := []model.Condition{
		{
			ItemType:   model.ItemQuestion,
			ItemID:     2,
			QuestionID: 1,
			Operator:   "==",
			Value:      "desktop",
		},
	}

	set, _ := NewAnswerSet(form)
	parse(t, set, field.Input{1: json.RawMessage(`"desktop"`)})

	first := EvaluateVisibility(set, conditions, nil)
	second := EvaluateVisibility(set, conditions, nil)
	if len(first) != len(second) {
		t.Fatalf("两次求值实体数不一致: %d vs %d", len(first), len(second))
	}
	for ref, v := range first {
		if second[ref] != v {
			t.Fatalf("同一答案集两次求值结果应一致, %v: %v vs %v", ref, v, second[ref])
		}
	}
}

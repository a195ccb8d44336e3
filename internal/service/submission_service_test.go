package service

import (
	"encoding/json"
	"errors"
	"testing"

	"formflow_backend/internal/engine"
	"formflow_backend/internal/field"
	"formflow_backend/internal/model"
	"formflow_backend/internal/util"
)

func validationForm(validators ...model.FormValidator) *model.Form {
	return &model.Form{
		BaseModel:  model.BaseModel{ID: 1},
		Name:       "报障",
		Validators: validators,
	}
}

func TestResolveValidatorAutoSelect(t *testing.T) {
	s := &SubmissionService{}
	form := validationForm(
		model.FormValidator{Level: 1, ValidatorType: model.ValidatorUser, ValidatorID: 7},
		model.FormValidator{Level: 2, ValidatorType: model.ValidatorUser, ValidatorID: 8},
	)
	requester := &model.User{BaseModel: model.BaseModel{ID: 3}}

	userID, groupID, err := s.resolveValidatorRef(form, requester, nil)
	if err != nil {
		t.Fatalf("一级唯一审批人应自动选择: %v", err)
	}
	if userID != 7 || groupID != 0 {
		t.Fatalf("应选中用户 7, got user=%d group=%d", userID, groupID)
	}
}

func TestResolveValidatorAmbiguousRequiresChoice(t *testing.T) {
	s := &SubmissionService{}
	form := validationForm(
		model.FormValidator{Level: 1, ValidatorType: model.ValidatorUser, ValidatorID: 7},
		model.FormValidator{Level: 1, ValidatorType: model.ValidatorGroup, ValidatorID: 20},
	)
	requester := &model.User{BaseModel: model.BaseModel{ID: 3}}

	if _, _, err := s.resolveValidatorRef(form, requester, nil); !errors.Is(err, util.ErrMissingValidator) {
		t.Fatalf("一级多审批人且未指定时应报缺少审批人, got %v", err)
	}

	userID, groupID, err := s.resolveValidatorRef(form, requester, &ValidatorRef{Type: model.ValidatorGroup, ID: 20})
	if err != nil {
		t.Fatalf("显式指定合法组应成功: %v", err)
	}
	if userID != 0 || groupID != 20 {
		t.Fatalf("应选中组 20, got user=%d group=%d", userID, groupID)
	}

	if _, _, err := s.resolveValidatorRef(form, requester, &ValidatorRef{Type: model.ValidatorUser, ID: 99}); !errors.Is(err, util.ErrMissingValidator) {
		t.Fatalf("指定不在审批链中的人应报错, got %v", err)
	}
}

func TestResolveValidatorSupervisor(t *testing.T) {
	s := &SubmissionService{}
	form := validationForm(
		model.FormValidator{Level: 1, ValidatorType: model.ValidatorSupervisor},
	)

	requester := &model.User{BaseModel: model.BaseModel{ID: 3}, SupervisorID: 11}
	userID, _, err := s.resolveValidatorRef(form, requester, nil)
	if err != nil {
		t.Fatalf("supervisor 应解析为提交人上级: %v", err)
	}
	if userID != 11 {
		t.Fatalf("应选中上级用户 11, got %d", userID)
	}

	orphan := &model.User{BaseModel: model.BaseModel{ID: 4}}
	if _, _, err := s.resolveValidatorRef(form, orphan, nil); !errors.Is(err, util.ErrMissingValidator) {
		t.Fatalf("无上级时 supervisor 应报缺少审批人, got %v", err)
	}
}

func TestBuildValidationChainResolvesSupervisor(t *testing.T) {
	s := &SubmissionService{}
	form := validationForm(
		model.FormValidator{Level: 1, ValidatorType: model.ValidatorSupervisor},
		model.FormValidator{Level: 2, ValidatorType: model.ValidatorGroup, ValidatorID: 20},
	)
	requester := &model.User{BaseModel: model.BaseModel{ID: 3}, SupervisorID: 11}
	submission := &model.Submission{BaseModel: model.BaseModel{ID: 5}}

	entries, err := s.buildValidationChain(submission, form, requester)
	if err != nil {
		t.Fatalf("拷贝审批链失败: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("应生成 2 条表态记录, got %d", len(entries))
	}
	if entries[0].ValidatorType != model.ValidatorUser || entries[0].ValidatorID != 11 {
		t.Fatalf("supervisor 记录应落为具体用户, got %s/%d", entries[0].ValidatorType, entries[0].ValidatorID)
	}
	if entries[0].Status != model.StatusWaiting || entries[1].Status != model.StatusWaiting {
		t.Fatalf("初始状态应为等待")
	}
	if entries[1].Level != 2 {
		t.Fatalf("级数应保留, got %d", entries[1].Level)
	}
}

func TestRequiredCheckRespectsVisibility(t *testing.T) {
	form := &model.Form{
		BaseModel: model.BaseModel{ID: 1},
		Sections: []model.Section{
			{
				BaseModel: model.BaseModel{ID: 10},
				Questions: []model.Question{
					{
						BaseModel: model.BaseModel{ID: 1},
						Name:      "类型",
						FieldType: "select",
						Values:    json.RawMessage(`["a","b"]`),
					},
					{
						BaseModel: model.BaseModel{ID: 2},
						Name:      "补充说明",
						FieldType: "text",
						Required:  true,
						ShowRule:  model.ShowRuleShowIf,
					},
				},
			},
		},
	}
	conditions := []model.Condition{
		{
			ItemType:   model.ItemQuestion,
			ItemID:     2,
			QuestionID: 1,
			Operator:   "==",
			Value:      "b",
		},
	}

	set, err := engine.NewAnswerSet(form)
	if err != nil {
		t.Fatalf("构建字段集失败: %v", err)
	}

	// 条件不满足：必填题隐藏，缺答案也应放行
	if err := set.ParseInput(field.Input{1: json.RawMessage(`"a"`)}); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	vis := engine.EvaluateVisibility(set, conditions, nil)
	if err := requiredCheck(set, vis); err != nil {
		t.Fatalf("隐藏的必填题不应拦截提交: %v", err)
	}

	// 条件满足：必填题可见且为空，应拦截
	if err := set.ParseInput(field.Input{1: json.RawMessage(`"b"`)}); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	vis = engine.EvaluateVisibility(set, conditions, nil)
	err = requiredCheck(set, vis)
	if err == nil {
		t.Fatalf("可见的必填题为空时应拦截提交")
	}
	invalid, ok := util.AsInvalidInput(err)
	if !ok {
		t.Fatalf("应返回字段级错误, got %v", err)
	}
	if _, exists := invalid.Fields[2]; !exists {
		t.Fatalf("错误应定位到问题 2, got %v", invalid.Fields)
	}
}

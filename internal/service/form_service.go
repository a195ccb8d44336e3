package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"formflow_backend/internal/field"
	"formflow_backend/internal/model"
	"formflow_backend/internal/repository"
	"formflow_backend/internal/util"

	"gorm.io/gorm"
)

// FormService 表单定义的管理：结构、审批链、目标模板与可见性规则
type FormService struct {
	Forms *repository.FormRepository
}

func NewFormService(forms *repository.FormRepository) *FormService {
	return &FormService{Forms: forms}
}

type ConditionInput struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Operator   string `json:"operator" binding:"required,oneof=== != < > <= >="`
	Value      string `json:"value"`
	Logic      string `json:"logic" binding:"omitempty,oneof=and or"`
	Order      int    `json:"order"`
}

type QuestionInput struct {
	Name         string           `json:"name" binding:"required"`
	FieldType    string           `json:"fieldType" binding:"required"`
	Required     bool             `json:"required"`
	DefaultValue string           `json:"defaultValue"`
	Values       json.RawMessage  `json:"values"`
	Description  string           `json:"description"`
	Row          int              `json:"row"`
	Col          int              `json:"col"`
	Width        int              `json:"width"`
	ShowRule     string           `json:"showRule" binding:"omitempty,oneof=always show-if hide-if"`
	Conditions   []ConditionInput `json:"conditions"`
}

type SectionInput struct {
	Name       string           `json:"name" binding:"required"`
	Order      int              `json:"order"`
	ShowRule   string           `json:"showRule" binding:"omitempty,oneof=always show-if hide-if"`
	Questions  []QuestionInput  `json:"questions"`
	Conditions []ConditionInput `json:"conditions"`
}

type ValidatorInput struct {
	Level int                 `json:"level" binding:"required,min=1"`
	Type  model.ValidatorType `json:"type" binding:"required,oneof=user group supervisor"`
	ID    uint                `json:"id"`
}

type TargetInput struct {
	Name            string           `json:"name" binding:"required"`
	Kind            string           `json:"kind" binding:"omitempty,oneof=ticket notification"`
	TitleTemplate   string           `json:"titleTemplate"`
	ContentTemplate string           `json:"contentTemplate"`
	ShowRule        string           `json:"showRule" binding:"omitempty,oneof=always show-if hide-if"`
	Conditions      []ConditionInput `json:"conditions"`
}

type FormInput struct {
	Name              string           `json:"name" binding:"required"`
	Description       string           `json:"description"`
	Content           string           `json:"content"`
	AnswerTitle       string           `json:"answerTitle"`
	ValidationPercent int              `json:"validationPercent" binding:"min=0,max=100"`
	IsActive          bool             `json:"isActive"`
	Sections          []SectionInput   `json:"sections" binding:"required,min=1"`
	Validators        []ValidatorInput `json:"validators"`
	Targets           []TargetInput    `json:"targets"`
}

// Create 建立完整的表单定义，可见性规则在结构落库取得 ID 后再落
func (s *FormService) Create(input FormInput) (*model.Form, error) {
	form := &model.Form{
		Name:              input.Name,
		Description:       input.Description,
		Content:           input.Content,
		AnswerTitle:       input.AnswerTitle,
		ValidationPercent: input.ValidationPercent,
		IsActive:          input.IsActive,
	}

	for _, sec := range input.Sections {
		section := model.Section{
			Name:     sec.Name,
			Order:    sec.Order,
			ShowRule: defaultShowRule(sec.ShowRule),
		}
		for _, q := range sec.Questions {
			question := model.Question{
				Name:         q.Name,
				FieldType:    q.FieldType,
				Required:     q.Required,
				DefaultValue: q.DefaultValue,
				Values:       q.Values,
				Description:  q.Description,
				Row:          q.Row,
				Col:          q.Col,
				Width:        q.Width,
				ShowRule:     defaultShowRule(q.ShowRule),
			}
			// 提前验证字段类型，避免落库后提交时才报错
			if _, err := field.New(&question); err != nil {
				return nil, fmt.Errorf("question %q: %w", q.Name, err)
			}
			section.Questions = append(section.Questions, question)
		}
		form.Sections = append(form.Sections, section)
	}

	for _, v := range input.Validators {
		form.Validators = append(form.Validators, model.FormValidator{
			Level:         v.Level,
			ValidatorType: v.Type,
			ValidatorID:   v.ID,
		})
	}

	for _, t := range input.Targets {
		kind := t.Kind
		if kind == "" {
			kind = model.TargetKindTicket
		}
		form.Targets = append(form.Targets, model.TargetTemplate{
			Name:            t.Name,
			Kind:            kind,
			TitleTemplate:   t.TitleTemplate,
			ContentTemplate: t.ContentTemplate,
			ShowRule:        defaultShowRule(t.ShowRule),
		})
	}

	if err := s.Forms.Create(form); err != nil {
		return nil, err
	}
	if err := s.createConditions(form, input); err != nil {
		return nil, err
	}
	return s.Forms.FindByID(form.ID)
}

// createConditions 结构落库后按位置对应回各实体的 ID
func (s *FormService) createConditions(form *model.Form, input FormInput) error {
	for i, sec := range input.Sections {
		section := form.Sections[i]
		for _, c := range sec.Conditions {
			if err := s.createCondition(model.ItemSection, section.ID, c); err != nil {
				return err
			}
		}
		for j, q := range sec.Questions {
			for _, c := range q.Conditions {
				if err := s.createCondition(model.ItemQuestion, section.Questions[j].ID, c); err != nil {
					return err
				}
			}
		}
	}
	for i, t := range input.Targets {
		for _, c := range t.Conditions {
			if err := s.createCondition(model.ItemTarget, form.Targets[i].ID, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *FormService) createCondition(itemType string, itemID uint, c ConditionInput) error {
	logic := c.Logic
	if logic == "" {
		logic = model.LogicAnd
	}
	return s.Forms.CreateCondition(&model.Condition{
		ItemType:   itemType,
		ItemID:     itemID,
		QuestionID: c.QuestionID,
		Operator:   c.Operator,
		Value:      c.Value,
		Logic:      logic,
		Order:      c.Order,
	})
}

func (s *FormService) Get(id uint) (*model.Form, error) {
	form, err := s.Forms.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrFormNotFound
		}
		return nil, err
	}
	return form, nil
}

func (s *FormService) List(page, limit int) ([]model.Form, int64, error) {
	return s.Forms.List(page, limit)
}

type FormMetaInput struct {
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	Content           string `json:"content"`
	AnswerTitle       string `json:"answerTitle"`
	ValidationPercent int    `json:"validationPercent" binding:"min=0,max=100"`
}

// Update 修改表单的元信息与审批阈值
// 结构性修改（分区/问题/条件）通过新建表单完成，已有答案按问题 ID 关联，不做原地重写
func (s *FormService) Update(id uint, input FormMetaInput) (*model.Form, error) {
	form, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	form.Name = input.Name
	form.Description = input.Description
	form.Content = input.Content
	form.AnswerTitle = input.AnswerTitle
	form.ValidationPercent = input.ValidationPercent
	if err := s.Forms.Update(form); err != nil {
		return nil, err
	}
	return form, nil
}

// SetActive 上下架表单，不影响已有提交
func (s *FormService) SetActive(id uint, active bool) error {
	form, err := s.Get(id)
	if err != nil {
		return err
	}
	form.IsActive = active
	return s.Forms.Update(form)
}

func (s *FormService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.Forms.Delete(id)
}

func defaultShowRule(rule string) string {
	if rule == "" {
		return model.ShowRuleAlways
	}
	return rule
}

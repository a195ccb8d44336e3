package engine

import (
	"sort"

	"formflow_backend/internal/field"
	"formflow_backend/internal/model"
	"formflow_backend/internal/util"
)

// AnswerSet 一次提交的全部字段实例
// 由表单定义构建，Load 之后不再变化；需要重读时调用 Reset
type AnswerSet struct {
	form      *model.Form
	sections  []model.Section
	questions []model.Question
	fields    map[uint]field.Field
	sectionOf map[uint]uint
	loaded    bool
}

// NewAnswerSet 从带有 Sections 与 Questions 的表单定义构建字段集
func NewAnswerSet(form *model.Form) (*AnswerSet, error) {
	set := &AnswerSet{
		form:      form,
		fields:    make(map[uint]field.Field),
		sectionOf: make(map[uint]uint),
	}

	sections := make([]model.Section, len(form.Sections))
	copy(sections, form.Sections)
	sort.Slice(sections, func(i, j int) bool { return sections[i].Order < sections[j].Order })
	set.sections = sections

	for _, section := range sections {
		questions := make([]model.Question, len(section.Questions))
		copy(questions, section.Questions)
		sort.Slice(questions, func(i, j int) bool {
			if questions[i].Row != questions[j].Row {
				return questions[i].Row < questions[j].Row
			}
			return questions[i].Col < questions[j].Col
		})
		for _, q := range questions {
			q := q
			f, err := field.New(&q)
			if err != nil {
				return nil, err
			}
			set.fields[q.ID] = f
			set.sectionOf[q.ID] = section.ID
			set.questions = append(set.questions, q)
		}
	}

	return set, nil
}

func (s *AnswerSet) Form() *model.Form { return s.form }

func (s *AnswerSet) Sections() []model.Section { return s.sections }

// Questions 按版面顺序（分区、行、列）返回问题
func (s *AnswerSet) Questions() []model.Question { return s.questions }

func (s *AnswerSet) Field(questionID uint) (field.Field, bool) {
	f, ok := s.fields[questionID]
	return f, ok
}

func (s *AnswerSet) Fields() map[uint]field.Field { return s.fields }

func (s *AnswerSet) SectionIDOf(questionID uint) uint { return s.sectionOf[questionID] }

// Load 反序列化持久化的答案，幂等：加载过即不再重复
func (s *AnswerSet) Load(answers []model.Answer) {
	if s.loaded {
		return
	}
	for _, answer := range answers {
		if f, ok := s.fields[answer.QuestionID]; ok {
			f.Deserialize(answer.Value)
		}
	}
	s.loaded = true
}

func (s *AnswerSet) Loaded() bool { return s.loaded }

// Reset 清除加载标记，下一次 Load 重新生效
func (s *AnswerSet) Reset() {
	s.loaded = false
}

// ParseInput 将原始输入解析进各字段，任何一个字段失败都会使整批失败
func (s *AnswerSet) ParseInput(in field.Input) error {
	invalid := &util.InvalidInputError{}
	for _, q := range s.questions {
		f := s.fields[q.ID]
		if !f.IsInput() {
			continue
		}
		if err := f.Parse(in); err != nil {
			invalid.Add(q.ID, err.Error())
		}
	}
	if invalid.HasErrors() {
		return invalid
	}
	return nil
}

package field

import "formflow_backend/internal/model"

// descriptionField 纯展示内容，不接受输入，不参与校验与标签替换
type descriptionField struct {
	question *model.Question
}

func newDescriptionField(q *model.Question) *descriptionField {
	return &descriptionField{question: q}
}

func (f *descriptionField) Question() *model.Question { return f.question }

func (f *descriptionField) HasInput(in Input) bool { return false }

func (f *descriptionField) Parse(in Input) error { return nil }

func (f *descriptionField) IsValid() bool { return true }

func (f *descriptionField) IsEmpty() bool { return true }

func (f *descriptionField) Serialize() string { return "" }

func (f *descriptionField) Deserialize(raw string) {}

func (f *descriptionField) Compare(op Operator, value string) (bool, error) {
	return false, nil
}

func (f *descriptionField) RenderText(richText bool) string { return "" }

func (f *descriptionField) IsInput() bool { return false }

package field

import (
	"fmt"
	"html"
	"strings"

	"formflow_backend/internal/model"
)

type textField struct {
	question  *model.Question
	multiline bool
	value     string
	parsed    bool
}

func newTextField(q *model.Question, multiline bool) *textField {
	return &textField{question: q, multiline: multiline, value: q.DefaultValue, parsed: true}
}

func (f *textField) Question() *model.Question { return f.question }

func (f *textField) HasInput(in Input) bool {
	_, ok := in[f.question.ID]
	return ok
}

func (f *textField) Parse(in Input) error {
	raw, ok := in[f.question.ID]
	if !ok {
		return nil
	}
	value, err := decodeString(raw)
	if err != nil {
		f.parsed = false
		return fmt.Errorf("question %q: %w", f.question.Name, err)
	}
	if !f.multiline {
		value = strings.ReplaceAll(value, "\n", " ")
	}
	f.value = value
	f.parsed = true
	return nil
}

func (f *textField) IsValid() bool { return f.parsed }

func (f *textField) IsEmpty() bool { return strings.TrimSpace(f.value) == "" }

func (f *textField) Serialize() string { return f.value }

func (f *textField) Deserialize(raw string) {
	f.value = raw
	f.parsed = true
}

func (f *textField) Compare(op Operator, value string) (bool, error) {
	switch op {
	case OpEqual:
		return f.value == value, nil
	case OpNotEqual:
		return f.value != value, nil
	case OpLess:
		return f.value < value, nil
	case OpGreater:
		return f.value > value, nil
	case OpLessEq:
		return f.value <= value, nil
	case OpGreaterEq:
		return f.value >= value, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func (f *textField) RenderText(richText bool) string {
	if !richText {
		return f.value
	}
	out := html.EscapeString(f.value)
	if f.multiline {
		out = strings.ReplaceAll(out, "\n", "<br>")
	}
	return out
}

func (f *textField) IsInput() bool { return true }

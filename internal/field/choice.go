package field

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"formflow_backend/internal/model"
)

func questionOptions(q *model.Question) []string {
	if len(q.Values) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(q.Values, &options); err != nil {
		return nil
	}
	return options
}

type selectField struct {
	question *model.Question
	options  []string
	value    string
	parsed   bool
}

func newSelectField(q *model.Question) *selectField {
	return &selectField{question: q, options: questionOptions(q), value: q.DefaultValue, parsed: true}
}

func (f *selectField) Question() *model.Question { return f.question }

func (f *selectField) HasInput(in Input) bool {
	_, ok := in[f.question.ID]
	return ok
}

func (f *selectField) Parse(in Input) error {
	raw, ok := in[f.question.ID]
	if !ok {
		return nil
	}
	value, err := decodeString(raw)
	if err != nil {
		f.parsed = false
		return fmt.Errorf("question %q: %w", f.question.Name, err)
	}
	f.value = value
	f.parsed = true
	if !f.IsValid() {
		return fmt.Errorf("question %q: %q is not an available option", f.question.Name, value)
	}
	return nil
}

func (f *selectField) IsValid() bool {
	if !f.parsed {
		return false
	}
	if f.value == "" || len(f.options) == 0 {
		return f.parsed
	}
	for _, option := range f.options {
		if option == f.value {
			return true
		}
	}
	return false
}

func (f *selectField) IsEmpty() bool { return f.value == "" }

func (f *selectField) Serialize() string { return f.value }

func (f *selectField) Deserialize(raw string) {
	f.value = raw
	f.parsed = true
}

func (f *selectField) Compare(op Operator, value string) (bool, error) {
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

func (f *selectField) RenderText(richText bool) string {
	if richText {
		return html.EscapeString(f.value)
	}
	return f.value
}

func (f *selectField) IsInput() bool { return true }

type checkboxField struct {
	question *model.Question
	options  []string
	values   []string
	parsed   bool
}

func newCheckboxField(q *model.Question) *checkboxField {
	f := &checkboxField{question: q, options: questionOptions(q), parsed: true}
	if q.DefaultValue != "" {
		f.Deserialize(q.DefaultValue)
	}
	return f
}

func (f *checkboxField) Question() *model.Question { return f.question }

func (f *checkboxField) HasInput(in Input) bool {
	_, ok := in[f.question.ID]
	return ok
}

func (f *checkboxField) Parse(in Input) error {
	raw, ok := in[f.question.ID]
	if !ok {
		return nil
	}
	values, err := decodeStrings(raw)
	if err != nil {
		f.parsed = false
		return fmt.Errorf("question %q: %w", f.question.Name, err)
	}
	f.values = values
	f.parsed = true
	if !f.IsValid() {
		return fmt.Errorf("question %q: selection contains an unknown option", f.question.Name)
	}
	return nil
}

func (f *checkboxField) IsValid() bool {
	if !f.parsed {
		return false
	}
	if len(f.options) == 0 {
		return true
	}
	for _, v := range f.values {
		found := false
		for _, option := range f.options {
			if option == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *checkboxField) IsEmpty() bool { return len(f.values) == 0 }

func (f *checkboxField) Serialize() string {
	if len(f.values) == 0 {
		return ""
	}
	out, _ := json.Marshal(f.values)
	return string(out)
}

func (f *checkboxField) Deserialize(raw string) {
	f.parsed = true
	if raw == "" {
		f.values = nil
		return
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		// 兼容单值的旧存储形式
		f.values = []string{raw}
		return
	}
	f.values = values
}

// Compare 集合语义：相等即包含，大小比较作用在选中个数上
func (f *checkboxField) Compare(op Operator, value string) (bool, error) {
	contains := false
	for _, v := range f.values {
		if v == value {
			contains = true
			break
		}
	}
	switch op {
	case OpEqual:
		return contains, nil
	case OpNotEqual:
		return !contains, nil
	}

	count := len(f.values)
	other := 0
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &other); err != nil {
		return false, fmt.Errorf("cannot compare selection count with %q", value)
	}
	switch op {
	case OpLess:
		return count < other, nil
	case OpGreater:
		return count > other, nil
	case OpLessEq:
		return count <= other, nil
	case OpGreaterEq:
		return count >= other, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func (f *checkboxField) RenderText(richText bool) string {
	joined := strings.Join(f.values, ", ")
	if richText {
		return html.EscapeString(joined)
	}
	return joined
}

func (f *checkboxField) IsInput() bool { return true }

package field

import (
	"fmt"
	"strings"
	"time"

	"formflow_backend/internal/model"
	"formflow_backend/internal/util"
)

type dateField struct {
	question *model.Question
	withTime bool
	raw      string
	value    time.Time
	hasValue bool
	parsed   bool
}

func newDateField(q *model.Question, withTime bool) *dateField {
	f := &dateField{question: q, withTime: withTime, parsed: true}
	if q.DefaultValue != "" {
		f.Deserialize(q.DefaultValue)
	}
	return f
}

func (f *dateField) layout() string {
	if f.withTime {
		return util.TimeFormat
	}
	return util.DateFormat
}

func (f *dateField) Question() *model.Question { return f.question }

func (f *dateField) HasInput(in Input) bool {
	_, ok := in[f.question.ID]
	return ok
}

func (f *dateField) set(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		f.raw = ""
		f.hasValue = false
		return nil
	}
	t, err := time.Parse(f.layout(), raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	f.raw = t.Format(f.layout())
	f.value = t
	f.hasValue = true
	return nil
}

func (f *dateField) Parse(in Input) error {
	raw, ok := in[f.question.ID]
	if !ok {
		return nil
	}
	s, err := decodeString(raw)
	if err == nil {
		err = f.set(s)
	}
	if err != nil {
		f.parsed = false
		return fmt.Errorf("question %q: %w", f.question.Name, err)
	}
	f.parsed = true
	return nil
}

func (f *dateField) IsValid() bool { return f.parsed }

func (f *dateField) IsEmpty() bool { return !f.hasValue }

func (f *dateField) Serialize() string { return f.raw }

func (f *dateField) Deserialize(raw string) {
	f.parsed = f.set(raw) == nil
}

func (f *dateField) Compare(op Operator, value string) (bool, error) {
	other, err := time.Parse(f.layout(), strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("cannot compare %q as a date", value)
	}
	if !f.hasValue {
		return op == OpNotEqual, nil
	}
	switch op {
	case OpEqual:
		return f.value.Equal(other), nil
	case OpNotEqual:
		return !f.value.Equal(other), nil
	case OpLess:
		return f.value.Before(other), nil
	case OpGreater:
		return f.value.After(other), nil
	case OpLessEq:
		return !f.value.After(other), nil
	case OpGreaterEq:
		return !f.value.Before(other), nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func (f *dateField) RenderText(richText bool) string { return f.raw }

func (f *dateField) IsInput() bool { return true }

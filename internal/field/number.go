package field

import (
	"fmt"
	"strconv"
	"strings"

	"formflow_backend/internal/model"
)

type numberField struct {
	question *model.Question
	integer  bool
	raw      string
	value    float64
	hasValue bool
	parsed   bool
}

func newNumberField(q *model.Question, integer bool) *numberField {
	f := &numberField{question: q, integer: integer, parsed: true}
	if q.DefaultValue != "" {
		f.Deserialize(q.DefaultValue)
	}
	return f
}

func (f *numberField) Question() *model.Question { return f.question }

func (f *numberField) HasInput(in Input) bool {
	_, ok := in[f.question.ID]
	return ok
}

func (f *numberField) set(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		f.raw = ""
		f.hasValue = false
		return nil
	}
	if f.integer {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer")
		}
		f.raw = strconv.FormatInt(n, 10)
		f.value = float64(n)
	} else {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("not a number")
		}
		f.raw = raw
		f.value = v
	}
	f.hasValue = true
	return nil
}

func (f *numberField) Parse(in Input) error {
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

func (f *numberField) IsValid() bool { return f.parsed }

func (f *numberField) IsEmpty() bool { return !f.hasValue }

func (f *numberField) Serialize() string { return f.raw }

func (f *numberField) Deserialize(raw string) {
	f.parsed = f.set(raw) == nil
}

func (f *numberField) Compare(op Operator, value string) (bool, error) {
	other, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false, fmt.Errorf("cannot compare %q numerically", value)
	}
	if !f.hasValue {
		// 空值只与空比较，数值比较一律不成立
		return op == OpNotEqual, nil
	}
	switch op {
	case OpEqual:
		return f.value == other, nil
	case OpNotEqual:
		return f.value != other, nil
	case OpLess:
		return f.value < other, nil
	case OpGreater:
		return f.value > other, nil
	case OpLessEq:
		return f.value <= other, nil
	case OpGreaterEq:
		return f.value >= other, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func (f *numberField) RenderText(richText bool) string { return f.raw }

func (f *numberField) IsInput() bool { return true }

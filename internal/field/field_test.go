package field

import (
	"encoding/json"
	"testing"

	"formflow_backend/internal/model"
)

func question(id uint, fieldType string) *model.Question {
	return &model.Question{
		BaseModel: model.BaseModel{ID: id},
		Name:      "q",
		FieldType: fieldType,
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	if _, err := New(question(1, "hologram")); err == nil {
		t.Fatalf("期望未知字段类型报错")
	}
}

func TestTextFieldStripsNewlines(t *testing.T) {
	f, err := New(question(1, "text"))
	if err != nil {
		t.Fatalf("构造字段失败: %v", err)
	}
	in := Input{1: json.RawMessage(`"line one\nline two"`)}
	if err := f.Parse(in); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if got := f.Serialize(); got != "line one line two" {
		t.Fatalf("单行文本应去掉换行, got %q", got)
	}

	area, _ := New(question(2, "textarea"))
	if err := area.Parse(Input{2: json.RawMessage(`"line one\nline two"`)}); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if got := area.Serialize(); got != "line one\nline two" {
		t.Fatalf("多行文本应保留换行, got %q", got)
	}
}

func TestTextFieldRichTextEscapes(t *testing.T) {
	f, _ := New(question(1, "text"))
	if err := f.Parse(Input{1: json.RawMessage(`"<b>bold</b>"`)}); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if got := f.RenderText(true); got != "&lt;b&gt;bold&lt;/b&gt;" {
		t.Fatalf("富文本渲染应转义 HTML, got %q", got)
	}
	if got := f.RenderText(false); got != "<b>bold</b>" {
		t.Fatalf("纯文本渲染不应转义, got %q", got)
	}
}

func TestIntegerFieldParse(t *testing.T) {
	f, _ := New(question(1, "integer"))
	if err := f.Parse(Input{1: json.RawMessage(`"42"`)}); err != nil {
		t.Fatalf("整数解析失败: %v", err)
	}
	if f.Serialize() != "42" {
		t.Fatalf("序列化应为 42, got %q", f.Serialize())
	}

	if err := f.Parse(Input{1: json.RawMessage(`"3.5"`)}); err == nil {
		t.Fatalf("整数字段应拒绝小数")
	}
	if f.IsValid() {
		t.Fatalf("解析失败后 IsValid 应为 false")
	}
}

func TestNumberFieldAcceptsJSONNumber(t *testing.T) {
	f, _ := New(question(1, "float"))
	if err := f.Parse(Input{1: json.RawMessage(`3.14`)}); err != nil {
		t.Fatalf("数值字面量解析失败: %v", err)
	}
	ok, err := f.Compare(OpGreater, "3")
	if err != nil || !ok {
		t.Fatalf("3.14 > 3 应成立, ok=%v err=%v", ok, err)
	}
}

func TestEmptyNumberCompare(t *testing.T) {
	f, _ := New(question(1, "integer"))
	ok, err := f.Compare(OpEqual, "5")
	if err != nil || ok {
		t.Fatalf("空值 == 5 不应成立, ok=%v err=%v", ok, err)
	}
	ok, err = f.Compare(OpNotEqual, "5")
	if err != nil || !ok {
		t.Fatalf("空值 != 5 应成立, ok=%v err=%v", ok, err)
	}
}

func TestDateFieldChronologicalCompare(t *testing.T) {
	f, _ := New(question(1, "date"))
	if err := f.Parse(Input{1: json.RawMessage(`"2026-02-01"`)}); err != nil {
		t.Fatalf("日期解析失败: %v", err)
	}

	// 字符串比较会把 2026-02-01 排在 2026-10-01 前，这里验证的是时间序
	ok, err := f.Compare(OpLess, "2026-10-01")
	if err != nil || !ok {
		t.Fatalf("2026-02-01 < 2026-10-01 应成立, ok=%v err=%v", ok, err)
	}
	ok, err = f.Compare(OpGreaterEq, "2026-02-01")
	if err != nil || !ok {
		t.Fatalf("相同日期 >= 应成立, ok=%v err=%v", ok, err)
	}

	if err := f.Parse(Input{1: json.RawMessage(`"02/2026/01"`)}); err == nil {
		t.Fatalf("非法日期格式应报错")
	}
}

func TestSelectFieldValidatesOptions(t *testing.T) {
	q := question(1, "select")
	q.Values = json.RawMessage(`["red","green","blue"]`)
	f, _ := New(q)

	if err := f.Parse(Input{1: json.RawMessage(`"green"`)}); err != nil {
		t.Fatalf("合法选项解析失败: %v", err)
	}
	if err := f.Parse(Input{1: json.RawMessage(`"purple"`)}); err == nil {
		t.Fatalf("不在选项中的值应报错")
	}
}

func TestCheckboxFieldSetSemantics(t *testing.T) {
	q := question(1, "checkboxes")
	q.Values = json.RawMessage(`["a","b","c"]`)
	f, _ := New(q)

	if err := f.Parse(Input{1: json.RawMessage(`["a","c"]`)}); err != nil {
		t.Fatalf("多选解析失败: %v", err)
	}

	ok, err := f.Compare(OpEqual, "a")
	if err != nil || !ok {
		t.Fatalf("包含 a 时 == a 应成立, ok=%v err=%v", ok, err)
	}
	ok, err = f.Compare(OpEqual, "b")
	if err != nil || ok {
		t.Fatalf("不包含 b 时 == b 不应成立, ok=%v err=%v", ok, err)
	}
	ok, err = f.Compare(OpGreaterEq, "2")
	if err != nil || !ok {
		t.Fatalf("选中 2 项时 >= 2 应成立, ok=%v err=%v", ok, err)
	}

	serialized := f.Serialize()
	restored, _ := New(q)
	restored.Deserialize(serialized)
	ok, _ = restored.Compare(OpEqual, "c")
	if !ok {
		t.Fatalf("反序列化后应保留选中集合")
	}
}

func TestCheckboxFieldLegacySingleValue(t *testing.T) {
	q := question(1, "checkboxes")
	f, _ := New(q)
	f.Deserialize("solo")
	if ok, _ := f.Compare(OpEqual, "solo"); !ok {
		t.Fatalf("旧的单值存储形式应按单元素集合处理")
	}
}

func TestFileFieldTokens(t *testing.T) {
	f, _ := New(question(1, "file"))
	if err := f.Parse(Input{1: json.RawMessage(`["attachments/abc.pdf|report.pdf"]`)}); err != nil {
		t.Fatalf("上传令牌解析失败: %v", err)
	}
	if got := f.RenderText(false); got != "report.pdf" {
		t.Fatalf("渲染应显示原始文件名, got %q", got)
	}
	if _, err := f.Compare(OpEqual, "x"); err == nil {
		t.Fatalf("文件字段不可用于条件比较")
	}

	if err := f.Parse(Input{1: json.RawMessage(`["no-separator"]`)}); err == nil {
		t.Fatalf("缺少分隔符的令牌应报错")
	}
}

func TestDescriptionFieldIsNotInput(t *testing.T) {
	f, _ := New(question(1, "description"))
	if f.IsInput() {
		t.Fatalf("展示字段不应承载数据")
	}
	if f.HasInput(Input{1: json.RawMessage(`"x"`)}) {
		t.Fatalf("展示字段不应识别输入")
	}
}

func TestDefaultValueUsedWhenAbsent(t *testing.T) {
	q := question(1, "text")
	q.DefaultValue = "fallback"
	f, _ := New(q)
	if err := f.Parse(Input{}); err != nil {
		t.Fatalf("缺失输入不应报错: %v", err)
	}
	if got := f.Serialize(); got != "fallback" {
		t.Fatalf("缺失输入时应保留默认值, got %q", got)
	}
}

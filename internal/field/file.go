package field

import (
	"encoding/json"
	"fmt"
	"html"
	"path"
	"strings"

	"formflow_backend/internal/model"
)

// fileField 保存存储层返回的上传令牌（opaque tag），格式 "<objectKey>|<原文件名>"
// 上传本身由存储服务完成，字段只持有引用；值落库后附件归属转移到提交
type fileField struct {
	question *model.Question
	tokens   []string
	parsed   bool
}

func newFileField(q *model.Question) *fileField {
	return &fileField{question: q, parsed: true}
}

func (f *fileField) Question() *model.Question { return f.question }

func (f *fileField) HasInput(in Input) bool {
	_, ok := in[f.question.ID]
	return ok
}

func (f *fileField) Parse(in Input) error {
	raw, ok := in[f.question.ID]
	if !ok {
		return nil
	}
	tokens, err := decodeStrings(raw)
	if err != nil {
		f.parsed = false
		return fmt.Errorf("question %q: %w", f.question.Name, err)
	}
	for _, token := range tokens {
		if !strings.Contains(token, "|") {
			f.parsed = false
			return fmt.Errorf("question %q: malformed upload token", f.question.Name)
		}
	}
	f.tokens = tokens
	f.parsed = true
	return nil
}

func (f *fileField) IsValid() bool { return f.parsed }

func (f *fileField) IsEmpty() bool { return len(f.tokens) == 0 }

func (f *fileField) Serialize() string {
	if len(f.tokens) == 0 {
		return ""
	}
	out, _ := json.Marshal(f.tokens)
	return string(out)
}

func (f *fileField) Deserialize(raw string) {
	f.parsed = true
	if raw == "" {
		f.tokens = nil
		return
	}
	var tokens []string
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		f.tokens = []string{raw}
		return
	}
	f.tokens = tokens
}

func (f *fileField) Compare(op Operator, value string) (bool, error) {
	return false, fmt.Errorf("file fields cannot be used in conditions")
}

// Documents 返回已上传对象的存储键
func (f *fileField) Documents() []string {
	keys := make([]string, 0, len(f.tokens))
	for _, token := range f.tokens {
		keys = append(keys, strings.SplitN(token, "|", 2)[0])
	}
	return keys
}

func (f *fileField) RenderText(richText bool) string {
	names := make([]string, 0, len(f.tokens))
	for _, token := range f.tokens {
		parts := strings.SplitN(token, "|", 2)
		name := path.Base(parts[0])
		if len(parts) == 2 && parts[1] != "" {
			name = parts[1]
		}
		names = append(names, name)
	}
	joined := strings.Join(names, ", ")
	if richText {
		return html.EscapeString(joined)
	}
	return joined
}

func (f *fileField) IsInput() bool { return true }

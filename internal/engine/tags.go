package engine

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

const FullFormTag = "##FULLFORM##"

var tagPattern = regexp.MustCompile(`##(question|answer)_(\d+)##`)

// RenderTags 将模板内容中的标签替换为当前答案集的取值
// 隐藏问题的标题与答案统一替换为空串
func RenderTags(content string, set *AnswerSet, vis VisibilityMap, richText bool) string {
	if strings.Contains(content, FullFormTag) {
		content = strings.ReplaceAll(content, FullFormTag, FullForm(set, vis, richText))
	}

	return tagPattern.ReplaceAllStringFunc(content, func(tag string) string {
		parts := tagPattern.FindStringSubmatch(tag)
		id, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil {
			return tag
		}
		questionID := uint(id)

		f, ok := set.Field(questionID)
		if !ok || !f.IsInput() {
			// 未知问题的标签原样保留，便于排查模板错误
			return tag
		}
		if !vis.Question(questionID) {
			return ""
		}

		if parts[1] == "question" {
			name := f.Question().Name
			if richText {
				return html.EscapeString(name)
			}
			return name
		}
		return f.RenderText(richText)
	})
}

// FullForm 渲染整个表单的问答文本
// 隐藏的分区整体跳过，分区内隐藏的问题以及纯展示字段不出现
func FullForm(set *AnswerSet, vis VisibilityMap, richText bool) string {
	var b strings.Builder
	eol := "\r\n"

	if richText {
		b.WriteString("<h1>Form data</h1>")
	} else {
		b.WriteString("Form data" + eol)
		b.WriteString("=================" + eol + eol)
	}

	questionNo := 0
	for si, section := range set.Sections() {
		if !vis.Section(section.ID) {
			continue
		}

		if richText {
			if si > 0 {
				b.WriteString("<p>&nbsp;</p>")
			}
			b.WriteString("<h2>" + html.EscapeString(section.Name) + "</h2>")
		} else {
			b.WriteString(eol + section.Name + eol)
			b.WriteString("---------------------------------" + eol)
		}

		for _, q := range set.Questions() {
			if set.SectionIDOf(q.ID) != section.ID {
				continue
			}
			f, _ := set.Field(q.ID)
			if !f.IsInput() || !vis.Question(q.ID) {
				continue
			}

			questionNo++
			if richText {
				b.WriteString(fmt.Sprintf("<div><b>%d) ##question_%d## : </b>##answer_%d##</div>", questionNo, q.ID, q.ID))
			} else {
				b.WriteString(fmt.Sprintf("%d) ##question_%d## : ##answer_%d##%s%s", questionNo, q.ID, q.ID, eol, eol))
			}
		}
	}

	return RenderTags(b.String(), set, vis, richText)
}

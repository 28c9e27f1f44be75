package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/sokinpui/revise/model"
)

func init() {
	color.NoColor = true
}

func TestRenderDocument(t *testing.T) {
	doc := model.AnnotatedDocument{Blocks: []model.Block{
		model.Heading{Origin: model.Origin{Op: model.OpEqual, OldPrefix: "# ", NewPrefix: "# "}, Level: 1, Spans: []model.Span{{Text: "Title"}}},
		model.Paragraph{Origin: model.Origin{Op: model.OpModify}, Spans: []model.Span{
			{Text: "Hello "}, {Text: "world", Mark: model.MarkDeletion}, {Text: "Mars", Mark: model.MarkAddition},
		}},
		model.ListItem{Origin: model.Origin{Op: model.OpDelete, OldPrefix: "- "}, Spans: []model.Span{{Text: "gone", Mark: model.MarkDeletion}}},
		model.Paragraph{Origin: model.Origin{Op: model.OpInsert}, Spans: []model.Span{{Text: model.Placeholder, Mark: model.MarkAddition, Placeholder: true}}},
		model.CodeFence{Language: "go", Text: "x := 1", OldLines: []string{"```go", "x := 1", "```"}, NewLines: []string{"```go", "x := 1", "```"}},
	}}

	var buf bytes.Buffer
	RenderDocument(&buf, doc)

	assert.Equal(t, "  # Title\n"+
		"~ Hello worldMars\n"+
		"- - gone\n"+
		"+ \n"+
		"  ```go\n"+
		"  x := 1\n"+
		"  ```\n", buf.String())
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	PrintHistory(&buf, "a.md", nil)
	assert.Contains(t, buf.String(), "No versions recorded.")

	buf.Reset()
	PrintHistory(&buf, "a.md", []model.VersionNode{{
		ID: "v1", Author: model.AuthorHuman, ChangeType: model.ChangeEdit, Summary: "fix typo",
		Timestamp: time.Now(), Stats: model.DiffStat{Added: 1, Changed: 2},
	}})
	out := buf.String()
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, "+1 ~2 -0")
	assert.Contains(t, out, "fix typo")
}

// Package assembler turns a line alignment into an AnnotatedDocument.
package assembler

import (
	"strings"

	"github.com/sokinpui/revise/internal/differ"
	"github.com/sokinpui/revise/internal/parser"
	"github.com/sokinpui/revise/model"
)

// Assembler builds annotated documents. Modified lines outside code fences
// are diffed character by character with the given Differ.
type Assembler struct {
	differ *differ.Differ
}

func New(d *differ.Differ) *Assembler {
	return &Assembler{differ: d}
}

// fence accumulates one fenced region. Lines inside a fence are never
// classified or character diffed.
type fence struct {
	language string
	text     []string
	oldLines []string
	newLines []string
}

func (f *fence) addMarker(op model.DiffOp) {
	if op.HasOld() {
		f.oldLines = append(f.oldLines, op.OldLine)
	}
	if op.HasNew() {
		f.newLines = append(f.newLines, op.NewLine)
	}
}

func (f *fence) addLine(op model.DiffOp) {
	f.addMarker(op)
	// Deleted code lines are not part of the displayed text.
	if op.HasNew() {
		f.text = append(f.text, op.NewLine)
	}
}

func (f *fence) block() model.CodeFence {
	return model.CodeFence{
		Language: f.language,
		Text:     strings.Join(f.text, "\n"),
		OldLines: f.oldLines,
		NewLines: f.newLines,
	}
}

// Assemble groups ops into blocks. Each op outside a fence becomes one block
// typed after its line; a fence marker on either side of an op opens or
// closes a fence, and the whole fenced region becomes a single CodeFence.
func (a *Assembler) Assemble(ops []model.DiffOp) model.AnnotatedDocument {
	blocks := make([]model.Block, 0, len(ops))
	var open *fence

	for _, op := range ops {
		var oldP, newP model.ParsedLine
		if op.HasOld() {
			oldP = parser.Classify(op.OldLine)
		}
		if op.HasNew() {
			newP = parser.Classify(op.NewLine)
		}
		isFence := (op.HasOld() && oldP.BlockType == model.BlockCodeFence) ||
			(op.HasNew() && newP.BlockType == model.BlockCodeFence)

		if open != nil {
			if isFence {
				open.addMarker(op)
				blocks = append(blocks, open.block())
				open = nil
			} else {
				open.addLine(op)
			}
			continue
		}

		if isFence {
			lang := oldP.Language
			if op.HasNew() && newP.BlockType == model.BlockCodeFence {
				lang = newP.Language
			}
			open = &fence{language: lang}
			open.addMarker(op)
			continue
		}

		blocks = append(blocks, a.lineBlock(op, oldP, newP))
	}

	if open != nil {
		blocks = append(blocks, open.block())
	}
	return model.AnnotatedDocument{Blocks: blocks}
}

func (a *Assembler) lineBlock(op model.DiffOp, oldP, newP model.ParsedLine) model.Block {
	switch op.Kind {
	case model.OpInsert:
		origin := model.Origin{Op: op.Kind, NewPrefix: newP.Prefix}
		return model.NewBlock(newP, origin, withPlaceholder([]model.Span{{Text: newP.Content, Mark: model.MarkAddition}}, model.MarkAddition))
	case model.OpDelete:
		origin := model.Origin{Op: op.Kind, OldPrefix: oldP.Prefix}
		return model.NewBlock(oldP, origin, withPlaceholder([]model.Span{{Text: oldP.Content, Mark: model.MarkDeletion}}, model.MarkDeletion))
	case model.OpModify:
		origin := model.Origin{Op: op.Kind, OldPrefix: oldP.Prefix, NewPrefix: newP.Prefix}
		return model.NewBlock(newP, origin, withPlaceholder(a.differ.Chars(oldP.Content, newP.Content), model.MarkNone))
	default:
		origin := model.Origin{Op: op.Kind, OldPrefix: newP.Prefix, NewPrefix: newP.Prefix}
		return model.NewBlock(newP, origin, withPlaceholder([]model.Span{{Text: newP.Content}}, model.MarkNone))
	}
}

// withPlaceholder drops empty spans and gives a block without visible text a
// single placeholder span carrying mark, so an inserted or deleted blank line
// still reads as changed.
func withPlaceholder(spans []model.Span, mark model.SpanMark) []model.Span {
	var out []model.Span
	for _, s := range spans {
		if s.Text != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []model.Span{{Text: model.Placeholder, Mark: mark, Placeholder: true}}
	}
	return out
}

// Package reconcile reduces annotated documents and line decisions back to
// plain text.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/sokinpui/revise/internal/parser"
	"github.com/sokinpui/revise/model"
)

// Policy resolves every change of a document the same way.
type Policy int

const (
	AcceptAll Policy = iota
	RejectAll
)

func (p Policy) String() string {
	if p == RejectAll {
		return "reject"
	}
	return "accept"
}

// ParsePolicy reads "accept" or "reject".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "accept":
		return AcceptAll, nil
	case "reject":
		return RejectAll, nil
	}
	return 0, fmt.Errorf("%w: unknown policy %q", model.ErrInvalidInput, s)
}

func (p Policy) side() model.Side {
	if p == RejectAll {
		return model.SideOld
	}
	return model.SideNew
}

// Resolve returns a new document with every change resolved by the policy.
// Blocks that do not exist on the kept side are dropped, the surviving
// spans lose their marks and each line is classified again, so the result
// describes the kept text exactly. The input is not modified.
func Resolve(doc model.AnnotatedDocument, policy Policy) model.AnnotatedDocument {
	side := policy.side()
	out := make([]model.Block, 0, len(doc.Blocks))

	for _, b := range doc.Blocks {
		if fence, ok := b.(model.CodeFence); ok {
			if resolved, ok := resolveFence(fence, side); ok {
				out = append(out, resolved)
			}
			continue
		}

		origin, _ := model.BlockOrigin(b)
		if !origin.On(side) {
			continue
		}
		line := origin.Prefix(side) + sideText(model.Spans(b), side)
		p := parser.Classify(line)
		if p.BlockType == model.BlockCodeFence {
			// Only reachable for hand-built documents; keep the line as text.
			p = model.ParsedLine{BlockType: model.BlockParagraph, Content: line}
		}
		kept := model.Origin{Op: model.OpEqual, OldPrefix: p.Prefix, NewPrefix: p.Prefix}
		out = append(out, model.NewBlock(p, kept, unmarked(p.Content)))
	}
	return model.AnnotatedDocument{Blocks: out}
}

func resolveFence(f model.CodeFence, side model.Side) (model.CodeFence, bool) {
	lines := f.NewLines
	if side == model.SideOld {
		lines = f.OldLines
	}
	if len(lines) == 0 {
		return model.CodeFence{}, false
	}
	kept := append([]string(nil), lines...)

	language := f.Language
	inner := kept
	if m := parser.Classify(inner[0]); m.BlockType == model.BlockCodeFence {
		language = m.Language
		inner = inner[1:]
	}
	if n := len(inner); n > 0 && parser.IsFence(inner[n-1]) {
		inner = inner[:n-1]
	}
	return model.CodeFence{
		Language: language,
		Text:     strings.Join(inner, "\n"),
		OldLines: kept,
		NewLines: kept,
	}, true
}

func unmarked(text string) []model.Span {
	if text == "" {
		return []model.Span{{Text: model.Placeholder, Placeholder: true}}
	}
	return []model.Span{{Text: text}}
}

// sideText concatenates the spans visible on one side, skipping placeholders.
func sideText(spans []model.Span, side model.Side) string {
	drop := model.MarkAddition
	if side == model.SideNew {
		drop = model.MarkDeletion
	}
	var sb strings.Builder
	for _, s := range spans {
		if s.Placeholder || s.Mark == drop {
			continue
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Flatten renders one side of a document as markdown text. Every block is
// one line except code fences, which are re-emitted as literal fences.
func Flatten(doc model.AnnotatedDocument, side model.Side) string {
	lines := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if fence, ok := b.(model.CodeFence); ok {
			if side == model.SideOld {
				lines = append(lines, fence.OldLines...)
			} else {
				lines = append(lines, fence.NewLines...)
			}
			continue
		}
		origin, _ := model.BlockOrigin(b)
		if !origin.On(side) {
			continue
		}
		lines = append(lines, origin.Prefix(side)+sideText(model.Spans(b), side))
	}
	return strings.Join(lines, "\n")
}

// Text resolves doc with the policy and returns the resulting markdown.
func Text(doc model.AnnotatedDocument, policy Policy) string {
	return Flatten(Resolve(doc, policy), policy.side())
}

// AcceptAllText keeps every addition and drops every deletion.
func AcceptAllText(doc model.AnnotatedDocument) string {
	return Text(doc, AcceptAll)
}

// RejectAllText keeps every deletion and drops every addition.
func RejectAllText(doc model.AnnotatedDocument) string {
	return Text(doc, RejectAll)
}

// Lines rebuilds content from per-line decisions. Accepted lines contribute
// their new text and rejected lines their old text; lines still pending
// follow bulkAccept. A side that does not exist contributes nothing.
func Lines(lines []model.DiffLine, bulkAccept bool) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		accept := l.Decision == model.DecisionAccepted ||
			(l.Decision == model.DecisionPending && bulkAccept)
		chosen := l.OldLine
		if accept {
			chosen = l.NewLine
		}
		if chosen != nil {
			out = append(out, *chosen)
		}
	}
	return strings.Join(out, "\n")
}

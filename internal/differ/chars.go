package differ

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sokinpui/revise/model"
)

// Chars diffs a modified line pair. The spans are a minimal edit script after
// semantic cleanup, so a changed word is reported as one deletion and one
// addition instead of scattered single characters. Concatenating the
// unmarked and deleted spans yields oldText; the unmarked and added spans
// yield newText.
func (d *Differ) Chars(oldText, newText string) []model.Span {
	if oldText == newText {
		if oldText == "" {
			return nil
		}
		return []model.Span{{Text: oldText}}
	}
	if len(oldText)+len(newText) > d.limits.MaxLineLength {
		return wholeLine(oldText, newText)
	}

	diffs := d.dmp.DiffMain(oldText, newText, false)
	diffs = d.dmp.DiffCleanupSemantic(diffs)

	spans := make([]model.Span, 0, len(diffs))
	for _, df := range diffs {
		if df.Text == "" {
			continue
		}
		mark := markOf(df.Type)
		if n := len(spans); n > 0 && spans[n-1].Mark == mark {
			spans[n-1].Text += df.Text
			continue
		}
		spans = append(spans, model.Span{Text: df.Text, Mark: mark})
	}
	return spans
}

func markOf(op diffmatchpatch.Operation) model.SpanMark {
	switch op {
	case diffmatchpatch.DiffInsert:
		return model.MarkAddition
	case diffmatchpatch.DiffDelete:
		return model.MarkDeletion
	default:
		return model.MarkNone
	}
}

func wholeLine(oldText, newText string) []model.Span {
	var spans []model.Span
	if oldText != "" {
		spans = append(spans, model.Span{Text: oldText, Mark: model.MarkDeletion})
	}
	if newText != "" {
		spans = append(spans, model.Span{Text: newText, Mark: model.MarkAddition})
	}
	return spans
}

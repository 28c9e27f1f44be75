// Package patcher serializes line alignments as unified diffs for the
// version audit trail.
package patcher

import (
	"fmt"
	"strings"

	"github.com/sokinpui/revise/model"
)

// DefaultContext is the number of unchanged lines kept around each change.
const DefaultContext = 3

type patchLine struct {
	kind byte // ' ', '-' or '+'
	text string
}

// Format renders ops as a unified diff of fileID. It returns "" when the ops
// contain no change. A modified line is written as its removal directly
// followed by its addition.
func Format(fileID string, ops []model.DiffOp, context int) string {
	if context < 0 {
		context = DefaultContext
	}
	lines := toPatchLines(ops)

	var sb strings.Builder
	for _, h := range hunks(lines, context) {
		if sb.Len() == 0 {
			fmt.Fprintf(&sb, "--- a/%s\n", fileID)
			fmt.Fprintf(&sb, "+++ b/%s\n", fileID)
		}
		writeHunk(&sb, lines, h[0], h[1])
	}
	return sb.String()
}

func toPatchLines(ops []model.DiffOp) []patchLine {
	out := make([]patchLine, 0, len(ops))
	for _, op := range ops {
		if op.Kind == model.OpEqual {
			out = append(out, patchLine{kind: ' ', text: op.OldLine})
			continue
		}
		if op.HasOld() {
			out = append(out, patchLine{kind: '-', text: op.OldLine})
		}
		if op.HasNew() {
			out = append(out, patchLine{kind: '+', text: op.NewLine})
		}
	}
	return out
}

// hunks returns [start, end) ranges of lines, each covering a run of changes
// plus context. Runs separated by at most 2*context unchanged lines share a hunk.
func hunks(lines []patchLine, context int) [][2]int {
	var out [][2]int
	for i := 0; i < len(lines); {
		if lines[i].kind == ' ' {
			i++
			continue
		}
		start := max(0, i-context)
		end := i
		for end < len(lines) {
			if lines[end].kind != ' ' {
				end++
				continue
			}
			next := end
			for next < len(lines) && lines[next].kind == ' ' {
				next++
			}
			if next == len(lines) || next-end > 2*context {
				break
			}
			end = next
		}
		stop := min(len(lines), end+context)
		out = append(out, [2]int{start, stop})
		i = stop
	}
	return out
}

func writeHunk(sb *strings.Builder, lines []patchLine, start, stop int) {
	oldStart, newStart := 1, 1
	for _, l := range lines[:start] {
		if l.kind != '+' {
			oldStart++
		}
		if l.kind != '-' {
			newStart++
		}
	}
	oldLines, newLines := 0, 0
	for _, l := range lines[start:stop] {
		if l.kind != '+' {
			oldLines++
		}
		if l.kind != '-' {
			newLines++
		}
	}
	// An empty side points at the line before the change.
	if oldLines == 0 {
		oldStart--
	}
	if newLines == 0 {
		newStart--
	}

	sb.WriteString(buildHunkHeader(oldStart, oldLines, newStart, newLines))
	for _, l := range lines[start:stop] {
		sb.WriteByte(l.kind)
		sb.WriteString(l.text)
		sb.WriteByte('\n')
	}
}

func buildHunkHeader(oldStart, oldLines, newStart, newLines int) string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", oldStart, oldLines, newStart, newLines)
}

package ui

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/sokinpui/revise/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	PromptColor  = color.New(color.FgMagenta)
	AddedColor   = color.New(color.FgGreen)
	DeletedColor = color.New(color.FgRed, color.CrossedOut)
	FaintColor   = color.New(color.Faint)
	CodeColor    = color.New(color.FgHiBlack)
	HeadingColor = color.New(color.Bold)
	VersionColor = color.New(color.FgYellow)
	AuthorColor  = color.New(color.FgMagenta)
)

var (
	markerByOp    = map[model.OpKind]string{model.OpEqual: " ", model.OpInsert: "+", model.OpDelete: "-", model.OpModify: "~"}
	markerColorBy = map[model.OpKind]*color.Color{model.OpInsert: AddedColor, model.OpDelete: ErrorColor, model.OpModify: WarningColor}
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(os.Stderr, "  "+format+"\n", a...)
}

func Prompt(format string, a ...interface{}) string {
	return PromptColor.Sprintf(format, a...)
}

// --- Documents ---

// RenderSpans colors a span list: additions green, deletions struck through.
func RenderSpans(spans []model.Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Placeholder {
			continue
		}
		switch s.Mark {
		case model.MarkAddition:
			b.WriteString(AddedColor.Sprint(s.Text))
		case model.MarkDeletion:
			b.WriteString(DeletedColor.Sprint(s.Text))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// RenderDocument writes one line per block, each led by a change marker.
// Code fences are written whole, dimmed.
func RenderDocument(w io.Writer, doc model.AnnotatedDocument) {
	for _, blk := range doc.Blocks {
		if fence, ok := blk.(model.CodeFence); ok {
			renderFence(w, fence)
			continue
		}
		origin, _ := model.BlockOrigin(blk)
		marker := markerByOp[origin.Op]
		if c, ok := markerColorBy[origin.Op]; ok {
			marker = c.Sprint(marker)
		}
		prefix := origin.Prefix(model.SideNew)
		if !origin.On(model.SideNew) {
			prefix = origin.Prefix(model.SideOld)
		}
		body := RenderSpans(model.Spans(blk))
		if _, ok := blk.(model.Heading); ok {
			body = HeadingColor.Sprint(body)
		}
		fmt.Fprintf(w, "%s %s%s\n", marker, FaintColor.Sprint(prefix), body)
	}
}

func renderFence(w io.Writer, f model.CodeFence) {
	marker := markerByOp[model.OpEqual]
	if !slices.Equal(f.OldLines, f.NewLines) {
		marker = WarningColor.Sprint(markerByOp[model.OpModify])
	}
	fmt.Fprintf(w, "%s %s\n", marker, FaintColor.Sprint("```"+f.Language))
	if f.Text != "" {
		for _, line := range strings.Split(f.Text, "\n") {
			fmt.Fprintf(w, "%s %s\n", marker, CodeColor.Sprint(line))
		}
	}
	fmt.Fprintf(w, "%s %s\n", marker, FaintColor.Sprint("```"))
}

// --- Summaries ---

func PrintHistory(w io.Writer, fileID string, versions []model.VersionNode) {
	HeaderColor.Fprintf(w, "--- History of %s ---\n", fileID)
	if len(versions) == 0 {
		InfoColor.Fprintln(w, "No versions recorded.")
		return
	}
	for _, v := range versions {
		fmt.Fprintf(w, "%s %s %s %-8s %s %s\n",
			VersionColor.Sprint(v.ID),
			v.Timestamp.Local().Format("2006-01-02 15:04:05"),
			AuthorColor.Sprint(v.Author),
			v.ChangeType,
			statLine(v.Stats),
			v.Summary,
		)
	}
}

func statLine(s model.DiffStat) string {
	return fmt.Sprintf("%s %s %s",
		AddedColor.Sprintf("+%d", s.Added),
		WarningColor.Sprintf("~%d", s.Changed),
		ErrorColor.Sprintf("-%d", s.Deleted),
	)
}

func PrintSummary(s model.Summary) {
	if s.Message != "" {
		Header("\n--- %s ---", s.Message)
	}
	if s.File == "" {
		return
	}
	if s.Version == "" {
		Info("No version was recorded for %s.", s.File)
		return
	}
	Success("Recorded version %s of %s (%s)", s.Version, s.File,
		statLine(model.DiffStat{Added: s.Added, Changed: s.Changed, Deleted: s.Deleted}))
}

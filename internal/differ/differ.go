// Package differ aligns two texts line by line and diffs changed lines
// character by character.
package differ

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sokinpui/revise/model"
)

// Limits bound the work spent on a single comparison. Inputs beyond them are
// still diffed, but coarsely.
type Limits struct {
	// MaxLines is the largest line count of either side aligned with LCS.
	MaxLines int
	// MaxCells is the largest LCS table, (old+1)*(new+1) entries.
	MaxCells int
	// MaxLineLength is the largest combined byte length of a modified line
	// pair that gets a character diff.
	MaxLineLength int
	// CharTimeout caps the character diff search of one line pair.
	CharTimeout time.Duration
}

// DefaultLimits returns limits suited for interactive use.
func DefaultLimits() Limits {
	return Limits{
		MaxLines:      20000,
		MaxCells:      8 << 20,
		MaxLineLength: 16 << 10,
		CharTimeout:   time.Second,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxLines <= 0 {
		l.MaxLines = def.MaxLines
	}
	if l.MaxCells <= 0 {
		l.MaxCells = def.MaxCells
	}
	if l.MaxLineLength <= 0 {
		l.MaxLineLength = def.MaxLineLength
	}
	if l.CharTimeout <= 0 {
		l.CharTimeout = def.CharTimeout
	}
	return l
}

// Differ runs line and character diffs under a set of limits. It is safe for
// concurrent use.
type Differ struct {
	limits Limits
	dmp    *diffmatchpatch.DiffMatchPatch
}

// New creates a Differ. Zero fields of limits take their default values.
func New(limits Limits) *Differ {
	limits = limits.withDefaults()
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = limits.CharTimeout
	return &Differ{limits: limits, dmp: dmp}
}

// Limits returns the effective limits.
func (d *Differ) Limits() Limits {
	return d.limits
}

// ValidateText rejects content that is not editable text.
func ValidateText(text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: content is not valid UTF-8", model.ErrInvalidInput)
	}
	if strings.IndexByte(text, 0) >= 0 {
		return fmt.Errorf("%w: content contains NUL bytes", model.ErrInvalidInput)
	}
	return nil
}

// SplitLines splits text on "\n". The empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

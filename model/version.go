package model

import (
	"fmt"
	"time"
)

type Author string

const (
	AuthorHuman Author = "human"
	AuthorAgent Author = "agent"
)

func (a Author) Valid() bool {
	return a == AuthorHuman || a == AuthorAgent
}

// ParseAuthor converts user input into an Author, defaulting empty input to def.
func ParseAuthor(s string, def Author) (Author, error) {
	if s == "" {
		return def, nil
	}
	a := Author(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown author %q", ErrInvalidInput, s)
	}
	return a, nil
}

type ChangeType string

const (
	ChangeEdit     ChangeType = "edit"
	ChangeRefactor ChangeType = "refactor"
	ChangeDelete   ChangeType = "delete"
	ChangeCreate   ChangeType = "create"
)

func (c ChangeType) Valid() bool {
	switch c {
	case ChangeEdit, ChangeRefactor, ChangeDelete, ChangeCreate:
		return true
	}
	return false
}

// ParseChangeType converts user input into a ChangeType, defaulting empty
// input to def.
func ParseChangeType(s string, def ChangeType) (ChangeType, error) {
	if s == "" {
		return def, nil
	}
	c := ChangeType(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown change type %q", ErrInvalidInput, s)
	}
	return c, nil
}

// DiffStat counts the lines touched by a version's audit patch.
type DiffStat struct {
	Added   int `json:"added"`
	Changed int `json:"changed"`
	Deleted int `json:"deleted"`
}

// VersionNode is one immutable entry of a file's history. Snapshot is the
// authoritative content; DiffPatch is kept for audit and display only.
type VersionNode struct {
	ID         string     `json:"id"`
	FileID     string     `json:"file_id"`
	Timestamp  time.Time  `json:"timestamp"`
	Author     Author     `json:"author"`
	ChangeType ChangeType `json:"change_type"`
	Summary    string     `json:"summary"`
	DiffPatch  string     `json:"diff_patch"`
	Snapshot   string     `json:"snapshot"`
	Stats      DiffStat   `json:"stats"`
}

type EventStatus string

const (
	EventPending  EventStatus = "pending"
	EventResolved EventStatus = "resolved"
)

type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// ParseDecision accepts only the two terminal decisions a reviewer can make.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionAccepted, DecisionRejected:
		return d, nil
	}
	return "", fmt.Errorf("%w: decision must be %q or %q, got %q", ErrInvalidInput, DecisionAccepted, DecisionRejected, s)
}

// DiffLine is one reviewable line of a diff event. OldLine is nil for pure
// insertions and NewLine is nil for pure deletions.
type DiffLine struct {
	ID         string     `json:"id"`
	LineNo     int        `json:"line_no"`
	Kind       OpKind     `json:"kind"`
	OldLine    *string    `json:"old_line"`
	NewLine    *string    `json:"new_line"`
	Decision   Decision   `json:"decision"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// DiffEvent is a proposed change to a file awaiting review.
type DiffEvent struct {
	ID         string            `json:"id"`
	FileID     string            `json:"file_id"`
	Author     Author            `json:"author"`
	Summary    string            `json:"summary"`
	Status     EventStatus       `json:"status"`
	OldContent string            `json:"old_content"`
	NewContent string            `json:"new_content"`
	Lines      []DiffLine        `json:"lines"`
	Document   AnnotatedDocument `json:"document"`
	Coarse     bool              `json:"coarse,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}

// Clone returns a copy whose line slice can be modified independently.
func (e DiffEvent) Clone() DiffEvent {
	lines := make([]DiffLine, len(e.Lines))
	copy(lines, e.Lines)
	e.Lines = lines
	return e
}

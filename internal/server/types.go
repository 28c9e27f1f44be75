package server

import (
	"github.com/sokinpui/revise/internal/parser"
	"github.com/sokinpui/revise/model"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`
}

// DiffRequest is the body of POST /v1/diff.
type DiffRequest struct {
	OldContent string `json:"old_content"`
	NewContent string `json:"new_content"`
}

// DiffResponse carries the annotated document and both one-click resolutions.
type DiffResponse struct {
	Document      model.AnnotatedDocument `json:"document"`
	Coarse        bool                    `json:"coarse"`
	HasChanges    bool                    `json:"has_changes"`
	AcceptAllText string                  `json:"accept_all_text"`
	RejectAllText string                  `json:"reject_all_text"`
}

// CreateEventRequest is the body of POST /v1/diff-events. OldContent is
// optional; the file's current snapshot is used when it is absent.
type CreateEventRequest struct {
	FileID     string  `json:"file_id" binding:"required"`
	NewContent string  `json:"new_content"`
	Summary    string  `json:"summary"`
	Author     string  `json:"author"`
	OldContent *string `json:"old_content"`
}

// PendingResponse wraps the pending event of a file; Event is null when the
// file has none.
type PendingResponse struct {
	Event *model.DiffEvent `json:"event"`
}

type LineDecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

type FinalizeRequest struct {
	FinalContent  *string `json:"final_content"`
	BulkAcceptAll bool    `json:"bulk_accept_all"`
	Summary       string  `json:"summary"`
	Author        string  `json:"author"`
}

type FinalizeResponse struct {
	FinalContent string            `json:"final_content"`
	VersionID    string            `json:"version_id"`
	Version      model.VersionNode `json:"version"`
}

type PreviewResponse struct {
	Policy string `json:"policy"`
	parser.Preview
}

// VersionsQuery is the query string of GET /v1/files/:id/versions.
type VersionsQuery struct {
	Limit  int `form:"limit" binding:"min=0"`
	Offset int `form:"offset" binding:"min=0"`
}

// FileUpdateRequest writes content directly as the next version of a file.
// Author defaults to human and ChangeType to edit.
type FileUpdateRequest struct {
	Content    *string `json:"content" binding:"required"`
	Author     string  `json:"author"`
	ChangeType string  `json:"change_type"`
	Summary    string  `json:"summary"`
}

type VersionsResponse struct {
	FileID   string              `json:"file_id"`
	Versions []model.VersionNode `json:"versions"`
}

// Package review manages diff events: proposed changes to a file that a
// reviewer accepts or rejects line by line before they become a version.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sokinpui/revise/internal/differ"
	"github.com/sokinpui/revise/internal/engine"
	"github.com/sokinpui/revise/internal/history"
	"github.com/sokinpui/revise/internal/metrics"
	"github.com/sokinpui/revise/internal/parser"
	"github.com/sokinpui/revise/internal/reconcile"
	"github.com/sokinpui/revise/model"
)

// Differ computes the annotated diff shown for an event.
type Differ interface {
	Diff(ctx context.Context, fileID, oldText, newText string) (engine.Result, error)
}

type Options struct {
	History *history.Store
	// Differ defaults to a scheduler over a default engine.
	Differ  Differ
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// Controller holds the pending events. A file has at most one pending event;
// the slot is claimed with a compare-and-swap so files never contend with
// each other.
type Controller struct {
	history *history.Store
	differ  Differ
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time

	pending sync.Map // file id -> *entry
	events  sync.Map // event id -> *entry
}

// entry is a file slot. A reserved entry holds the slot while an event is
// being built or a direct write is in flight and is never visible as pending.
type entry struct {
	mu        sync.Mutex
	event     model.DiffEvent
	reserved  bool
	discarded bool
}

// reserve claims the slot of a file or fails with model.ErrConflict.
func (c *Controller) reserve(fileID string) (*entry, error) {
	e := &entry{reserved: true}
	if _, loaded := c.pending.LoadOrStore(fileID, e); loaded {
		c.metrics.Event("conflict")
		return nil, fmt.Errorf("%w: file %s already has a pending diff event", model.ErrConflict, fileID)
	}
	return e, nil
}

func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.History == nil {
		opts.History = history.New(history.Options{Metrics: opts.Metrics, Logger: opts.Logger})
	}
	if opts.Differ == nil {
		opts.Differ = engine.NewScheduler(engine.New(engine.Options{Metrics: opts.Metrics}), opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		history: opts.History,
		differ:  opts.Differ,
		metrics: opts.Metrics,
		log:     opts.Logger.With("component", "review"),
		now:     opts.Now,
	}
}

// CreateRequest proposes NewContent for a file. When OldContent is nil the
// file's current snapshot is used as the base.
type CreateRequest struct {
	FileID     string
	NewContent string
	Summary    string
	Author     model.Author
	OldContent *string
}

// Create opens a diff event. It fails with model.ErrConflict while the file
// already has a pending event. The slot is claimed before the diff runs, so a
// later proposal for the same file is the one rejected.
func (c *Controller) Create(ctx context.Context, req CreateRequest) (model.DiffEvent, error) {
	if err := history.ValidateFileID(req.FileID); err != nil {
		return model.DiffEvent{}, err
	}
	author, err := model.ParseAuthor(string(req.Author), model.AuthorAgent)
	if err != nil {
		return model.DiffEvent{}, err
	}
	e, err := c.reserve(req.FileID)
	if err != nil {
		return model.DiffEvent{}, err
	}

	event, err := c.build(ctx, req, author)
	if err != nil {
		c.pending.CompareAndDelete(req.FileID, e)
		return model.DiffEvent{}, err
	}

	e.mu.Lock()
	e.event = event
	e.reserved = false
	c.events.Store(event.ID, e)
	out := e.event.Clone()
	e.mu.Unlock()

	c.metrics.Event("created")
	c.log.Info("diff event created", "event_id", event.ID, "file_id", event.FileID, "lines", len(event.Lines), "coarse", event.Coarse)
	return out, nil
}

func (c *Controller) build(ctx context.Context, req CreateRequest, author model.Author) (model.DiffEvent, error) {
	oldContent := ""
	if req.OldContent != nil {
		oldContent = *req.OldContent
	} else {
		var err error
		if oldContent, err = c.history.Current(ctx, req.FileID); err != nil {
			return model.DiffEvent{}, err
		}
	}

	result, err := c.differ.Diff(ctx, req.FileID, oldContent, req.NewContent)
	if err != nil {
		return model.DiffEvent{}, err
	}
	return model.DiffEvent{
		ID:         uuid.NewString(),
		FileID:     req.FileID,
		Author:     author,
		Summary:    req.Summary,
		Status:     model.EventPending,
		OldContent: oldContent,
		NewContent: req.NewContent,
		Lines:      buildLines(result.Ops),
		Document:   result.Document,
		Coarse:     result.Coarse,
		CreatedAt:  c.now().UTC(),
	}, nil
}

// WriteRequest records Content as the next version of a file without a
// review. Author defaults to human and ChangeType to edit.
type WriteRequest struct {
	FileID     string
	Content    string
	Author     model.Author
	ChangeType model.ChangeType
	Summary    string
}

// Write stores a direct edit. It fails with model.ErrConflict while the file
// has a pending event, and holds the file slot for the duration of the write.
func (c *Controller) Write(ctx context.Context, req WriteRequest) (model.VersionNode, error) {
	if err := history.ValidateFileID(req.FileID); err != nil {
		return model.VersionNode{}, err
	}
	author, err := model.ParseAuthor(string(req.Author), model.AuthorHuman)
	if err != nil {
		return model.VersionNode{}, err
	}
	changeType, err := model.ParseChangeType(string(req.ChangeType), model.ChangeEdit)
	if err != nil {
		return model.VersionNode{}, err
	}
	if err := differ.ValidateText(req.Content); err != nil {
		return model.VersionNode{}, err
	}

	e, err := c.reserve(req.FileID)
	if err != nil {
		return model.VersionNode{}, err
	}
	defer c.pending.CompareAndDelete(req.FileID, e)

	oldContent, err := c.history.Current(ctx, req.FileID)
	if err != nil {
		return model.VersionNode{}, err
	}
	version, err := c.history.AddVersion(ctx, history.AddRequest{
		FileID:     req.FileID,
		Author:     author,
		ChangeType: changeType,
		Summary:    req.Summary,
		OldContent: oldContent,
		NewContent: req.Content,
	})
	if err != nil {
		return model.VersionNode{}, err
	}

	c.metrics.Event("written")
	c.log.Info("file content written", "file_id", req.FileID, "version_id", version.ID, "change_type", changeType)
	return version, nil
}

func buildLines(ops []model.DiffOp) []model.DiffLine {
	lines := make([]model.DiffLine, len(ops))
	for i, op := range ops {
		op := op // per-iteration copy (Go <1.22 loop semantics); pointers below escape
		l := model.DiffLine{
			ID:       uuid.NewString(),
			LineNo:   i + 1,
			Kind:     op.Kind,
			Decision: model.DecisionPending,
		}
		if op.HasOld() {
			l.OldLine = &op.OldLine
		}
		if op.HasNew() {
			l.NewLine = &op.NewLine
		}
		lines[i] = l
	}
	return lines
}

// lookup returns the live entry of an event.
func (c *Controller) lookup(eventID string) (*entry, error) {
	v, ok := c.events.Load(eventID)
	if !ok {
		return nil, fmt.Errorf("diff event %s: %w", eventID, model.ErrNotFound)
	}
	return v.(*entry), nil
}

// Pending returns the pending event of a file.
func (c *Controller) Pending(fileID string) (model.DiffEvent, bool) {
	v, ok := c.pending.Load(fileID)
	if !ok {
		return model.DiffEvent{}, false
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reserved || e.discarded || e.event.Status != model.EventPending {
		return model.DiffEvent{}, false
	}
	return e.event.Clone(), true
}

// Event returns an event in any state.
func (c *Controller) Event(eventID string) (model.DiffEvent, error) {
	e, err := c.lookup(eventID)
	if err != nil {
		return model.DiffEvent{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discarded {
		return model.DiffEvent{}, fmt.Errorf("diff event %s: %w", eventID, model.ErrNotFound)
	}
	return e.event.Clone(), nil
}

// UpdateLineDecision records a reviewer decision. Each line is decided at
// most once and only while its event is pending.
func (c *Controller) UpdateLineDecision(_ context.Context, eventID, lineID string, decision model.Decision) (model.DiffLine, error) {
	if decision != model.DecisionAccepted && decision != model.DecisionRejected {
		return model.DiffLine{}, fmt.Errorf("%w: decision must be accepted or rejected", model.ErrInvalidInput)
	}
	e, err := c.lookup(eventID)
	if err != nil {
		return model.DiffLine{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discarded {
		return model.DiffLine{}, fmt.Errorf("diff event %s: %w", eventID, model.ErrNotFound)
	}
	if e.event.Status != model.EventPending {
		return model.DiffLine{}, fmt.Errorf("%w: diff event %s is %s", model.ErrInvalidState, eventID, e.event.Status)
	}

	for i := range e.event.Lines {
		l := &e.event.Lines[i]
		if l.ID != lineID {
			continue
		}
		if l.Decision != model.DecisionPending {
			return model.DiffLine{}, fmt.Errorf("%w: line %s is already %s", model.ErrInvalidState, lineID, l.Decision)
		}
		now := c.now().UTC()
		l.Decision = decision
		l.ResolvedAt = &now
		c.metrics.Event("decided")
		return *l, nil
	}
	return model.DiffLine{}, fmt.Errorf("line %s of diff event %s: %w", lineID, eventID, model.ErrNotFound)
}

// FinalizeRequest settles an event. FinalContent, when set, is written
// verbatim; otherwise the content is rebuilt from the line decisions, with
// still-pending lines following BulkAcceptAll.
type FinalizeRequest struct {
	FinalContent  *string
	BulkAcceptAll bool
	Summary       string
	Author        model.Author
}

type FinalizeResult struct {
	FinalContent string
	Version      model.VersionNode
	Event        model.DiffEvent
}

// Finalize writes the reviewed content as a new "edit" version, resolves the
// event and frees the file for the next event.
func (c *Controller) Finalize(ctx context.Context, eventID string, req FinalizeRequest) (FinalizeResult, error) {
	author, err := model.ParseAuthor(string(req.Author), model.AuthorHuman)
	if err != nil {
		return FinalizeResult{}, err
	}
	e, err := c.lookup(eventID)
	if err != nil {
		return FinalizeResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discarded {
		return FinalizeResult{}, fmt.Errorf("diff event %s: %w", eventID, model.ErrNotFound)
	}
	if e.event.Status != model.EventPending {
		return FinalizeResult{}, fmt.Errorf("%w: diff event %s is already %s", model.ErrInvalidState, eventID, e.event.Status)
	}

	var content string
	if req.FinalContent != nil {
		content = *req.FinalContent
	} else {
		content = reconcile.Lines(e.event.Lines, req.BulkAcceptAll)
	}
	if err := differ.ValidateText(content); err != nil {
		return FinalizeResult{}, err
	}

	summary := req.Summary
	if summary == "" {
		summary = e.event.Summary
	}
	version, err := c.history.AddVersion(ctx, history.AddRequest{
		FileID:     e.event.FileID,
		Author:     author,
		ChangeType: model.ChangeEdit,
		Summary:    summary,
		OldContent: e.event.OldContent,
		NewContent: content,
	})
	if err != nil {
		return FinalizeResult{}, err
	}

	now := c.now().UTC()
	if req.FinalContent == nil {
		bulk := model.DecisionRejected
		if req.BulkAcceptAll {
			bulk = model.DecisionAccepted
		}
		for i := range e.event.Lines {
			if l := &e.event.Lines[i]; l.Decision == model.DecisionPending {
				l.Decision = bulk
				l.ResolvedAt = &now
			}
		}
	}
	e.event.Status = model.EventResolved
	e.event.ResolvedAt = &now
	c.pending.CompareAndDelete(e.event.FileID, e)

	c.metrics.Event("finalized")
	c.log.Info("diff event finalized", "event_id", eventID, "file_id", e.event.FileID, "version_id", version.ID)
	return FinalizeResult{FinalContent: content, Version: version, Event: e.event.Clone()}, nil
}

// Discard drops a pending event without writing a version.
func (c *Controller) Discard(_ context.Context, eventID string) error {
	e, err := c.lookup(eventID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discarded {
		return fmt.Errorf("diff event %s: %w", eventID, model.ErrNotFound)
	}
	if e.event.Status != model.EventPending {
		return fmt.Errorf("%w: diff event %s is already %s", model.ErrInvalidState, eventID, e.event.Status)
	}
	e.discarded = true
	c.pending.CompareAndDelete(e.event.FileID, e)
	c.events.Delete(eventID)

	c.metrics.Event("discarded")
	c.log.Info("diff event discarded", "event_id", eventID, "file_id", e.event.FileID)
	return nil
}

// Preview renders the accept-all or reject-all text of an event as HTML.
func (c *Controller) Preview(eventID string, policy reconcile.Policy) (parser.Preview, error) {
	event, err := c.Event(eventID)
	if err != nil {
		return parser.Preview{}, err
	}
	return parser.RenderPreview([]byte(reconcile.Text(event.Document, policy)))
}

// History exposes the version store the controller writes to.
func (c *Controller) History() *history.Store {
	return c.history
}

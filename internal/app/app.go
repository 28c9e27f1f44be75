package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/sokinpui/revise/cli"
	"github.com/sokinpui/revise/internal/config"
	"github.com/sokinpui/revise/internal/engine"
	"github.com/sokinpui/revise/internal/fs"
	"github.com/sokinpui/revise/internal/history"
	"github.com/sokinpui/revise/internal/logging"
	"github.com/sokinpui/revise/internal/nvim"
	"github.com/sokinpui/revise/internal/review"
	"github.com/sokinpui/revise/internal/source"
	"github.com/sokinpui/revise/internal/ui"
	"github.com/sokinpui/revise/model"
	"github.com/sokinpui/revise/revise"
)

// ContentSource supplies the proposed content of a review.
type ContentSource interface {
	GetContent() (string, error)
}

// App orchestrates the entire application logic.
type App struct {
	cfg            *cli.Config
	settings       config.Config
	log            *slog.Logger
	pathResolver   *fs.PathResolver
	sourceProvider ContentSource
	stdout         io.Writer

	svc *revise.Service
	// target is the file under review.
	target string
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// New creates a new App instance. Command-line flags override the config file.
func New(cfg *cli.Config) (*App, error) {
	settings, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.Store != "" {
		settings.Store.Driver = cfg.Store
	}
	if cfg.DB != "" {
		settings.Store.Path = cfg.DB
	}
	if cfg.Addr != "" {
		settings.Server.Addr = cfg.Addr
	}
	switch {
	case cfg.LogLevel != "":
		settings.Log.Level = cfg.LogLevel
	case cfg.Command != cli.CmdServe:
		// Interactive commands report through ui; keep the log quiet.
		settings.Log.Level = "warn"
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(settings.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	pathResolver, err := fs.NewPathResolver(nil)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:            cfg,
		settings:       settings,
		log:            logger,
		pathResolver:   pathResolver,
		sourceProvider: source.New(),
		stdout:         os.Stdout,
	}, nil
}

// service opens the version history on first use.
func (a *App) service() (*revise.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	svc, err := revise.Open(a.settings, a.log)
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return svc, nil
}

func (a *App) Close() error {
	if a.svc == nil {
		return nil
	}
	return a.svc.Close()
}

// Interactive reports whether the command runs the review TUI.
func (a *App) Interactive() bool {
	return a.cfg.Command == cli.CmdReview && !a.cfg.AcceptAll
}

// Execute runs every command except the interactive review.
func (a *App) Execute(ctx context.Context) (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch a.cfg.Command {
	case cli.CmdDiff:
		return a.diffFiles(ctx)
	case cli.CmdHistory:
		return a.printHistory(ctx)
	case cli.CmdRevert:
		return a.revert(ctx)
	case cli.CmdServe:
		return a.serve(ctx)
	case cli.CmdReview:
		return a.reviewAll(ctx)
	}
	return model.Summary{}, fmt.Errorf("unknown command %q", a.cfg.Command)
}

type diffOutput struct {
	Document   model.AnnotatedDocument `json:"document"`
	Coarse     bool                    `json:"coarse"`
	HasChanges bool                    `json:"has_changes"`
}

// diffFiles prints the annotated diff of two files. Nothing is recorded.
func (a *App) diffFiles(ctx context.Context) (model.Summary, error) {
	oldContent, _, err := fs.ReadText(a.pathResolver.Resolve(a.cfg.Args[0]))
	if err != nil {
		return model.Summary{}, err
	}
	newContent, _, err := fs.ReadText(a.pathResolver.Resolve(a.cfg.Args[1]))
	if err != nil {
		return model.Summary{}, err
	}

	res, err := engine.New(engine.Options{Limits: a.settings.DiffLimits()}).Diff(ctx, oldContent, newContent)
	if err != nil {
		return model.Summary{}, err
	}
	if a.cfg.JSON {
		return model.Summary{}, writeJSON(a.stdout, diffOutput{Document: res.Document, Coarse: res.Coarse, HasChanges: res.Document.HasChanges()})
	}
	ui.RenderDocument(a.stdout, res.Document)
	if res.Coarse {
		ui.Warning("Inputs exceed the diff limits; changes are shown line by line.")
	}
	return model.Summary{}, nil
}

func (a *App) printHistory(ctx context.Context) (model.Summary, error) {
	svc, err := a.service()
	if err != nil {
		return model.Summary{}, err
	}
	fileID := a.pathResolver.FileID(a.pathResolver.Resolve(a.cfg.Args[0]))
	versions, err := svc.History.History(ctx, fileID, history.Page{Limit: a.cfg.Limit, Offset: a.cfg.Offset})
	if err != nil {
		return model.Summary{}, err
	}
	if a.cfg.JSON {
		return model.Summary{}, writeJSON(a.stdout, versions)
	}
	ui.PrintHistory(a.stdout, fileID, versions)
	return model.Summary{}, nil
}

// revert writes a recorded snapshot back to the file and records that as a
// new version.
func (a *App) revert(ctx context.Context) (model.Summary, error) {
	svc, err := a.service()
	if err != nil {
		return model.Summary{}, err
	}
	path := a.pathResolver.Resolve(a.cfg.Args[0])
	fileID := a.pathResolver.FileID(path)
	versionID := a.cfg.Args[1]

	snapshot, err := svc.History.Revert(ctx, fileID, versionID)
	if err != nil {
		return model.Summary{}, err
	}
	current, _, err := fs.ReadText(path)
	if err != nil {
		return model.Summary{}, err
	}
	if current == snapshot {
		return model.Summary{File: fileID, Message: "File already matches version " + versionID}, nil
	}

	if err := a.apply(path, snapshot); err != nil {
		return model.Summary{}, err
	}
	summary := a.cfg.Summary
	if summary == "" {
		summary = "revert to " + versionID
	}
	node, err := svc.History.AddVersion(ctx, history.AddRequest{
		FileID:     fileID,
		Author:     model.AuthorHuman,
		ChangeType: model.ChangeEdit,
		Summary:    summary,
		OldContent: current,
		NewContent: snapshot,
	})
	if err != nil {
		return model.Summary{}, err
	}
	return versionSummary("Reverted", node), nil
}

func (a *App) serve(ctx context.Context) (model.Summary, error) {
	svc, err := a.service()
	if err != nil {
		return model.Summary{}, err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := svc.Serve(ctx, a.settings.Server.Addr); err != nil {
		return model.Summary{}, err
	}
	return model.Summary{Message: "Server stopped"}, nil
}

// reviewAll accepts every proposed change without asking.
func (a *App) reviewAll(ctx context.Context) (model.Summary, error) {
	event, err := a.Prepare(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	if event.ID == "" {
		return model.Summary{Message: "Source is empty. Nothing to review."}, nil
	}
	return a.Complete(ctx, event.ID, true)
}

// Prepare reads the proposed content and opens a diff event against the file
// on disk. An empty source yields a zero event.
func (a *App) Prepare(ctx context.Context) (model.DiffEvent, error) {
	svc, err := a.service()
	if err != nil {
		return model.DiffEvent{}, err
	}
	proposed, err := a.sourceProvider.GetContent()
	if err != nil {
		return model.DiffEvent{}, err
	}
	if proposed == "" {
		return model.DiffEvent{}, nil
	}

	a.target = a.pathResolver.Resolve(a.cfg.Args[0])
	current, _, err := fs.ReadText(a.target)
	if err != nil {
		return model.DiffEvent{}, err
	}
	author, err := model.ParseAuthor(a.cfg.Author, model.AuthorAgent)
	if err != nil {
		return model.DiffEvent{}, err
	}

	return svc.Review.Create(ctx, review.CreateRequest{
		FileID:     a.pathResolver.FileID(a.target),
		NewContent: proposed,
		Summary:    a.cfg.Summary,
		Author:     author,
		OldContent: &current,
	})
}

// Decide records the decision for one line.
func (a *App) Decide(ctx context.Context, eventID, lineID string, decision model.Decision) (model.DiffLine, error) {
	svc, err := a.service()
	if err != nil {
		return model.DiffLine{}, err
	}
	return svc.Review.UpdateLineDecision(ctx, eventID, lineID, decision)
}

// Complete finalizes the event, filling undecided lines per bulkAccept, and
// writes the result to the file or its Neovim buffer.
func (a *App) Complete(ctx context.Context, eventID string, bulkAccept bool) (model.Summary, error) {
	svc, err := a.service()
	if err != nil {
		return model.Summary{}, err
	}
	event, err := svc.Review.Event(eventID)
	if err != nil {
		return model.Summary{}, err
	}
	if reconcileUnchanged(event, bulkAccept) {
		if err := svc.Review.Discard(ctx, eventID); err != nil {
			return model.Summary{}, err
		}
		return model.Summary{File: event.FileID, Message: "No changes accepted"}, nil
	}

	res, err := svc.Review.Finalize(ctx, eventID, review.FinalizeRequest{
		BulkAcceptAll: bulkAccept,
		Author:        model.AuthorHuman,
	})
	if err != nil {
		return model.Summary{}, err
	}
	if err := a.apply(a.target, res.FinalContent); err != nil {
		return model.Summary{}, fmt.Errorf("version %s recorded but not applied: %w", res.Version.ID, err)
	}
	return versionSummary("Review complete", res.Version), nil
}

// Abort drops the event without touching the file.
func (a *App) Abort(ctx context.Context, eventID string) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	err = svc.Review.Discard(ctx, eventID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	return err
}

// reconcileUnchanged reports whether finalizing would reproduce the old text.
func reconcileUnchanged(event model.DiffEvent, bulkAccept bool) bool {
	for _, l := range event.Lines {
		if l.Kind == model.OpEqual {
			continue
		}
		if l.Decision == model.DecisionAccepted || (l.Decision == model.DecisionPending && bulkAccept) {
			return false
		}
	}
	return true
}

// apply writes content to path, or into its Neovim buffer with --buffer.
func (a *App) apply(path, content string) error {
	if !a.cfg.Buffer {
		return fs.WriteText(path, content)
	}
	manager, err := nvim.New()
	if err != nil {
		return err
	}
	defer manager.Close()
	return manager.ApplyContent(path, content)
}

func versionSummary(message string, v model.VersionNode) model.Summary {
	return model.Summary{
		File:    v.FileID,
		Version: v.ID,
		Added:   v.Stats.Added,
		Changed: v.Stats.Changed,
		Deleted: v.Stats.Deleted,
		Message: message,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

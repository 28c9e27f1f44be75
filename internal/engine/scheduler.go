package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sokinpui/revise/internal/metrics"
	"github.com/sokinpui/revise/model"
)

type job struct {
	id     uint64
	cancel context.CancelFunc
}

type outcome struct {
	result Result
	err    error
}

// Scheduler runs diffs off the caller's goroutine with last-request-wins
// semantics per file: starting a diff for a file cancels the one still
// running for it, and the cancelled caller gets model.ErrSuperseded.
type Scheduler struct {
	compute func(ctx context.Context, oldText, newText string) (Result, error)
	metrics *metrics.Metrics
	log     *slog.Logger

	mu   sync.Mutex
	seq  uint64
	jobs map[string]*job
}

func NewScheduler(e *Engine, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		compute: e.Diff,
		metrics: e.metrics,
		log:     log.With("component", "scheduler"),
		jobs:    make(map[string]*job),
	}
}

// Diff computes the annotated diff for fileID.
func (s *Scheduler) Diff(ctx context.Context, fileID, oldText, newText string) (Result, error) {
	jctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	j := &job{id: s.seq, cancel: cancel}
	if prev := s.jobs[fileID]; prev != nil {
		prev.cancel()
	}
	s.jobs[fileID] = j
	s.mu.Unlock()

	done := make(chan outcome, 1)
	go func() {
		r, err := s.compute(jctx, oldText, newText)
		done <- outcome{result: r, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-jctx.Done():
		out.err = jctx.Err()
	}

	s.mu.Lock()
	current := s.jobs[fileID] == j
	if current {
		delete(s.jobs, fileID)
	}
	s.mu.Unlock()

	if !current {
		s.metrics.Superseded()
		s.log.Debug("diff superseded", "file_id", fileID, "job", j.id)
		return Result{}, model.ErrSuperseded
	}
	return out.result, out.err
}

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/revise/internal/differ"
	"github.com/sokinpui/revise/internal/metrics"
	"github.com/sokinpui/revise/model"
)

func TestDiff(t *testing.T) {
	e := New(Options{Metrics: metrics.New(prometheus.NewRegistry())})

	r, err := e.Diff(context.Background(), "Hello world", "Hello Mars")
	require.NoError(t, err)

	require.Len(t, r.Ops, 1)
	assert.Equal(t, model.OpModify, r.Ops[0].Kind)
	require.Len(t, r.Document.Blocks, 1)
	assert.False(t, r.Coarse)
}

func TestDiffRejectsBinary(t *testing.T) {
	e := New(Options{})

	_, err := e.Diff(context.Background(), "ok", "bad\x00")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = e.Diff(context.Background(), string([]byte{0xc3, 0x28}), "ok")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestDiffCoarse(t *testing.T) {
	e := New(Options{Limits: differ.Limits{MaxLines: 1}})

	r, err := e.Diff(context.Background(), "a\nb", "a\nc")
	require.NoError(t, err)
	assert.True(t, r.Coarse)
	assert.Len(t, r.Ops, 3)
}

func TestSchedulerLastRequestWins(t *testing.T) {
	s := NewScheduler(New(Options{}), nil)
	started := make(chan struct{})
	base := s.compute
	s.compute = func(ctx context.Context, oldText, newText string) (Result, error) {
		if oldText == "slow" {
			close(started)
			<-ctx.Done()
			return Result{}, ctx.Err()
		}
		return base(ctx, oldText, newText)
	}

	errs := make(chan error, 1)
	go func() {
		_, err := s.Diff(context.Background(), "f", "slow", "x")
		errs <- err
	}()
	<-started

	r, err := s.Diff(context.Background(), "f", "a", "b")
	require.NoError(t, err)
	assert.Len(t, r.Ops, 1)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, model.ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded diff did not return")
	}
}

func TestSchedulerFilesAreIndependent(t *testing.T) {
	s := NewScheduler(New(Options{}), nil)
	started := make(chan struct{})
	release := make(chan struct{})
	base := s.compute
	s.compute = func(ctx context.Context, oldText, newText string) (Result, error) {
		if oldText == "slow" {
			close(started)
			<-release
		}
		return base(ctx, oldText, newText)
	}

	type res struct {
		r   Result
		err error
	}
	slow := make(chan res, 1)
	go func() {
		r, err := s.Diff(context.Background(), "one", "slow", "fast")
		slow <- res{r, err}
	}()
	<-started

	_, err := s.Diff(context.Background(), "two", "a", "b")
	require.NoError(t, err)

	close(release)
	got := <-slow
	require.NoError(t, got.err)
	assert.Len(t, got.r.Ops, 1)
}

func TestSchedulerCallerCancel(t *testing.T) {
	s := NewScheduler(New(Options{}), nil)
	s.compute = func(ctx context.Context, oldText, newText string) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Diff(ctx, "f", "a", "b")
	assert.ErrorIs(t, err, context.Canceled)
}

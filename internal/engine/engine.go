// Package engine computes annotated diffs of markdown texts.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sokinpui/revise/internal/assembler"
	"github.com/sokinpui/revise/internal/differ"
	"github.com/sokinpui/revise/internal/metrics"
	"github.com/sokinpui/revise/model"
)

// Result is a line alignment and the document assembled from it.
type Result struct {
	Ops      []model.DiffOp
	Document model.AnnotatedDocument
	Coarse   bool
}

type Options struct {
	Limits  differ.Limits
	Metrics *metrics.Metrics
}

// Engine is safe for concurrent use.
type Engine struct {
	differ    *differ.Differ
	assembler *assembler.Assembler
	metrics   *metrics.Metrics
}

func New(opts Options) *Engine {
	d := differ.New(opts.Limits)
	return &Engine{
		differ:    d,
		assembler: assembler.New(d),
		metrics:   opts.Metrics,
	}
}

// Align validates both texts and aligns their lines.
func (e *Engine) Align(ctx context.Context, oldText, newText string) (differ.Alignment, error) {
	if err := differ.ValidateText(oldText); err != nil {
		return differ.Alignment{}, fmt.Errorf("old content: %w", err)
	}
	if err := differ.ValidateText(newText); err != nil {
		return differ.Alignment{}, fmt.Errorf("new content: %w", err)
	}
	return e.differ.Align(ctx, differ.SplitLines(oldText), differ.SplitLines(newText))
}

// Diff aligns the texts and assembles the annotated document.
func (e *Engine) Diff(ctx context.Context, oldText, newText string) (Result, error) {
	start := time.Now()
	a, err := e.Align(ctx, oldText, newText)
	if err != nil {
		e.metrics.ObserveDiff(time.Since(start), false, err)
		return Result{}, err
	}
	doc := e.assembler.Assemble(a.Ops)
	e.metrics.ObserveDiff(time.Since(start), a.Coarse, nil)
	return Result{Ops: a.Ops, Document: doc, Coarse: a.Coarse}, nil
}

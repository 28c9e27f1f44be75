package revise

import (
	"context"

	"github.com/sokinpui/revise/internal/engine"
	"github.com/sokinpui/revise/internal/reconcile"
	"github.com/sokinpui/revise/model"
)

var defaultEngine = engine.New(engine.Options{})

// Diff annotates the changes from oldContent to newContent.
func Diff(ctx context.Context, oldContent, newContent string) (model.AnnotatedDocument, error) {
	res, err := defaultEngine.Diff(ctx, oldContent, newContent)
	if err != nil {
		return model.AnnotatedDocument{}, err
	}
	return res.Document, nil
}

// AcceptAll returns the text with every proposed change applied.
func AcceptAll(ctx context.Context, oldContent, newContent string) (string, error) {
	doc, err := Diff(ctx, oldContent, newContent)
	if err != nil {
		return "", err
	}
	return reconcile.AcceptAllText(doc), nil
}

// RejectAll returns the text with every proposed change undone.
func RejectAll(ctx context.Context, oldContent, newContent string) (string, error) {
	doc, err := Diff(ctx, oldContent, newContent)
	if err != nil {
		return "", err
	}
	return reconcile.RejectAllText(doc), nil
}

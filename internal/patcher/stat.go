package patcher

import (
	"fmt"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/sokinpui/revise/model"
)

// Stat parses a unified diff produced by Format and counts its lines. A
// removal directly followed by an addition counts as one changed line.
func Stat(patch string) (model.DiffStat, error) {
	if patch == "" {
		return model.DiffStat{}, nil
	}
	fd, err := diff.ParseFileDiff([]byte(patch))
	if err != nil {
		return model.DiffStat{}, fmt.Errorf("failed to parse patch: %w", err)
	}
	st := fd.Stat()
	return model.DiffStat{
		Added:   int(st.Added),
		Changed: int(st.Changed),
		Deleted: int(st.Deleted),
	}, nil
}

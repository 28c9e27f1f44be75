package differ

import (
	"context"

	"github.com/sokinpui/revise/model"
)

// Alignment is the result of aligning two line sequences.
type Alignment struct {
	Ops []model.DiffOp
	// Coarse is set when the inputs exceeded the limits and the changed
	// region was reported as whole-line deletions and insertions.
	Coarse bool
}

// Align computes the line ops turning oldLines into newLines. Lines are
// matched by exact equality using a longest common subsequence; unmatched
// lines between two matches are paired positionally as modifications and the
// remainder become deletions or insertions.
func (d *Differ) Align(ctx context.Context, oldLines, newLines []string) (Alignment, error) {
	m, n := len(oldLines), len(newLines)
	if m > d.limits.MaxLines || n > d.limits.MaxLines || (m+1)*(n+1) > d.limits.MaxCells {
		return Alignment{Ops: coarse(oldLines, newLines), Coarse: true}, nil
	}

	pairs, err := lcs(ctx, oldLines, newLines)
	if err != nil {
		return Alignment{}, err
	}

	ops := make([]model.DiffOp, 0, max(m, n))
	i, j := 0, 0
	for _, p := range pairs {
		ops = appendGap(ops, oldLines, newLines, i, p[0], j, p[1])
		ops = append(ops, model.DiffOp{
			Kind:     model.OpEqual,
			OldLine:  oldLines[p[0]],
			NewLine:  newLines[p[1]],
			OldIndex: p[0],
			NewIndex: p[1],
		})
		i, j = p[0]+1, p[1]+1
	}
	ops = appendGap(ops, oldLines, newLines, i, m, j, n)
	return Alignment{Ops: ops}, nil
}

// Align aligns two texts with the default limits.
func Align(oldLines, newLines []string) []model.DiffOp {
	a, _ := New(Limits{}).Align(context.Background(), oldLines, newLines)
	return a.Ops
}

// lcs returns the matched (old, new) index pairs in ascending order. On a
// tie while backtracking the new index is decremented, so the result is
// fully determined by the inputs.
func lcs(ctx context.Context, a, b []string) ([][2]int, error) {
	m, n := len(a), len(b)
	w := n + 1
	dp := make([]int32, (m+1)*w)

	for i := 1; i <= m; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, prev := dp[i*w:], dp[(i-1)*w:]
		for j := 1; j <= n; j++ {
			switch {
			case a[i-1] == b[j-1]:
				row[j] = prev[j-1] + 1
			case prev[j] >= row[j-1]:
				row[j] = prev[j]
			default:
				row[j] = row[j-1]
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs := make([][2]int, dp[m*w+n])
	k := len(pairs) - 1
	for i, j := m, n; i > 0 && j > 0; {
		switch {
		case a[i-1] == b[j-1]:
			pairs[k] = [2]int{i - 1, j - 1}
			k--
			i--
			j--
		case dp[(i-1)*w+j] > dp[i*w+j-1]:
			i--
		default:
			j--
		}
	}
	return pairs, nil
}

// appendGap emits the ops for the unmatched lines a[i:iEnd] and b[j:jEnd].
func appendGap(ops []model.DiffOp, a, b []string, i, iEnd, j, jEnd int) []model.DiffOp {
	for i < iEnd && j < jEnd {
		ops = append(ops, model.DiffOp{Kind: model.OpModify, OldLine: a[i], NewLine: b[j], OldIndex: i, NewIndex: j})
		i++
		j++
	}
	for ; i < iEnd; i++ {
		ops = append(ops, model.DiffOp{Kind: model.OpDelete, OldLine: a[i], OldIndex: i, NewIndex: -1})
	}
	for ; j < jEnd; j++ {
		ops = append(ops, model.DiffOp{Kind: model.OpInsert, NewLine: b[j], OldIndex: -1, NewIndex: j})
	}
	return ops
}

// coarse keeps the common prefix and suffix and reports everything between
// them as deletions followed by insertions.
func coarse(a, b []string) []model.DiffOp {
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	ops := make([]model.DiffOp, 0, len(a)+len(b)-prefix-suffix)
	for i := 0; i < prefix; i++ {
		ops = append(ops, model.DiffOp{Kind: model.OpEqual, OldLine: a[i], NewLine: b[i], OldIndex: i, NewIndex: i})
	}
	for i := prefix; i < len(a)-suffix; i++ {
		ops = append(ops, model.DiffOp{Kind: model.OpDelete, OldLine: a[i], OldIndex: i, NewIndex: -1})
	}
	for j := prefix; j < len(b)-suffix; j++ {
		ops = append(ops, model.DiffOp{Kind: model.OpInsert, NewLine: b[j], OldIndex: -1, NewIndex: j})
	}
	for k := suffix; k > 0; k-- {
		i, j := len(a)-k, len(b)-k
		ops = append(ops, model.DiffOp{Kind: model.OpEqual, OldLine: a[i], NewLine: b[j], OldIndex: i, NewIndex: j})
	}
	return ops
}

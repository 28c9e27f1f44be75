package patcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/revise/internal/differ"
	"github.com/sokinpui/revise/model"
)

func format(oldText, newText string) string {
	ops := differ.Align(differ.SplitLines(oldText), differ.SplitLines(newText))
	return Format("notes.md", ops, DefaultContext)
}

func TestFormatNoChanges(t *testing.T) {
	assert.Equal(t, "", format("a\nb", "a\nb"))
	assert.Equal(t, "", format("", ""))
}

func TestFormatSingleModify(t *testing.T) {
	want := "--- a/notes.md\n" +
		"+++ b/notes.md\n" +
		"@@ -1,1 +1,1 @@\n" +
		"-A\n" +
		"+B\n"
	assert.Equal(t, want, format("A", "B"))
}

func TestFormatContext(t *testing.T) {
	old := "1\n2\n3\n4\n5\n6\n7\n8\n9"
	cur := "1\n2\n3\n4\nfive\n6\n7\n8\n9"

	want := "--- a/notes.md\n" +
		"+++ b/notes.md\n" +
		"@@ -2,7 +2,7 @@\n" +
		" 2\n 3\n 4\n-5\n+five\n 6\n 7\n 8\n"
	assert.Equal(t, want, format(old, cur))
}

func TestFormatSeparateHunks(t *testing.T) {
	old := "a\n1\n2\n3\n4\n5\n6\n7\nb"
	cur := "A\n1\n2\n3\n4\n5\n6\n7\nB"

	want := "--- a/notes.md\n" +
		"+++ b/notes.md\n" +
		"@@ -1,4 +1,4 @@\n" +
		"-a\n+A\n 1\n 2\n 3\n" +
		"@@ -6,4 +6,4 @@\n" +
		" 5\n 6\n 7\n-b\n+B\n"
	assert.Equal(t, want, format(old, cur))
}

func TestFormatPureInsertion(t *testing.T) {
	want := "--- a/notes.md\n" +
		"+++ b/notes.md\n" +
		"@@ -0,0 +1,2 @@\n" +
		"+# New\n+- item\n"
	assert.Equal(t, want, format("", "# New\n- item"))
}

func TestStat(t *testing.T) {
	st, err := Stat(format("keep\nA\ngone", "keep\nB\nkeep2\nadded"))
	require.NoError(t, err)
	assert.Equal(t, model.DiffStat{Changed: 2, Added: 1}, st)

	st, err = Stat(format("", "x\ny"))
	require.NoError(t, err)
	assert.Equal(t, model.DiffStat{Added: 2}, st)

	st, err = Stat(format("x\ny", ""))
	require.NoError(t, err)
	assert.Equal(t, model.DiffStat{Deleted: 2}, st)

	st, err = Stat("")
	require.NoError(t, err)
	assert.Equal(t, model.DiffStat{}, st)
}

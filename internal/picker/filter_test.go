package picker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quicky/internal/manager"
)

func indexes(results []Result) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.Index
	}
	return out
}

func TestFilter_EmptyQueryKeepsOrder(t *testing.T) {
	items := []manager.Item{{Label: "b"}, {Label: "a"}, {Label: "c"}}
	assert.Equal(t, []int{0, 1, 2}, indexes(NewFilter().Rank(items, "  ")))
}

func TestFilter_Rank(t *testing.T) {
	items := []manager.Item{
		{Label: "Tab size"},
		{Label: "Word wrap", Description: "Active: On"},
		{Label: "References CodeLens", Detail: "Currently selected"},
		{Label: "Share button visibility"},
	}
	f := NewFilter()

	assert.Equal(t, []int{1}, indexes(f.Rank(items, "WORD")), "matching ignores case")
	assert.Equal(t, []int{2}, indexes(f.Rank(items, "rcl")), "subsequence across words")
	assert.Empty(t, f.Rank(items, "zzz"))

	results := f.Rank(items, "active")
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Index)
	assert.Empty(t, results[0].Matches, "offsets only describe label matches")

	results = f.Rank(items, "ta")
	require.NotEmpty(t, results)
	assert.Equal(t, 0, results[0].Index, "prefix match ranks first")
	assert.Equal(t, []int{0, 1}, results[0].Matches)
}

func TestFilter_LabelBeatsDescription(t *testing.T) {
	items := []manager.Item{
		{Label: "Theme", Description: "wrap lines"},
		{Label: "Wrap"},
	}
	assert.Equal(t, []int{1, 0}, indexes(NewFilter().Rank(items, "wrap")))
}

func TestFilter_TiesKeepOrder(t *testing.T) {
	items := []manager.Item{{Label: "On"}, {Label: "On"}}
	assert.Equal(t, []int{0, 1}, indexes(NewFilter().Rank(items, "on")))
}

func TestIsWordBoundary(t *testing.T) {
	assert.True(t, isWordBoundary("editor.wordWrap", 0))
	assert.True(t, isWordBoundary("editor.wordWrap", 7))
	assert.True(t, isWordBoundary("editor.wordWrap", 11))
	assert.False(t, isWordBoundary("editor.wordWrap", 8))
	assert.False(t, isWordBoundary("ab", 5))
}

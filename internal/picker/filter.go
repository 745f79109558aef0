package picker

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dshills/quicky/internal/manager"
)

// Result is a ranked entry.
type Result struct {
	// Index is the position of the entry in the original list.
	Index int

	// Score is the match score (higher is better).
	Score int

	// Matches contains the byte offsets of matched characters in the label.
	// It is empty when the match came from another field.
	Matches []int
}

// Filter ranks selection entries against a query using fuzzy matching.
type Filter struct {
	// MinScore is the minimum score for a match to be included.
	MinScore int
}

// NewFilter creates a new filter with default settings.
func NewFilter() *Filter {
	return &Filter{}
}

// Rank returns the entries matching query, best first. Entries with equal
// scores keep their original order. An empty query matches everything in
// list order.
func (f *Filter) Rank(items []manager.Item, query string) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	results := make([]Result, 0, len(items))

	if query == "" {
		for i := range items {
			results = append(results, Result{Index: i})
		}
		return results
	}

	for i, item := range items {
		score, matches := f.matchItem(query, item)
		if score > f.MinScore {
			results = append(results, Result{Index: i, Score: score, Matches: matches})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// matchItem scores an entry against the query. Label matches weigh most.
func (f *Filter) matchItem(query string, item manager.Item) (int, []int) {
	if score, matches := f.fuzzyMatch(query, item.Label); score > 0 {
		return score + 50, matches
	}
	if score, _ := f.fuzzyMatch(query, item.Description); score > 0 {
		return score, nil
	}
	if score, _ := f.fuzzyMatch(query, item.Detail); score > 0 {
		return score, nil
	}
	return 0, nil
}

// fuzzyMatch requires every query character to appear in text in order.
// Matching folds ASCII case only so offsets stay valid for text.
func (f *Filter) fuzzyMatch(query, text string) (int, []int) {
	if text == "" {
		return 0, nil
	}

	matches := make([]int, 0, len(query))
	queryIdx := 0
	for i := 0; i < len(text) && queryIdx < len(query); i++ {
		if lowerByte(text[i]) == query[queryIdx] {
			matches = append(matches, i)
			queryIdx++
		}
	}
	if queryIdx != len(query) {
		return 0, nil
	}

	return f.calculateScore(query, text, matches), matches
}

func lowerByte(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// calculateScore rewards consecutive, word-boundary and prefix matches and
// penalizes gaps.
func (f *Filter) calculateScore(query, text string, matches []int) int {
	score := 100

	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			score += 20
		}
	}

	for _, idx := range matches {
		if isWordBoundary(text, idx) {
			score += 15
		}
	}

	if matches[0] == 0 {
		score += 25
	}

	if len(matches) > 1 {
		if gap := matches[len(matches)-1] - matches[0] - len(matches) + 1; gap > 0 {
			score -= gap * 2
		}
	}
	score -= matches[0]

	if len(text) < 20 {
		score += 20 - len(text)
	}

	if strings.HasPrefix(strings.ToLower(text), query) {
		score += 50
	}

	if score < 1 {
		score = 1
	}
	return score
}

// isWordBoundary checks if the character at idx starts a word.
func isWordBoundary(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	if idx >= len(text) {
		return false
	}

	prev := rune(text[idx-1])
	curr := rune(text[idx])

	switch prev {
	case '/', '_', '-', '.', ' ', ':':
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(curr)
}

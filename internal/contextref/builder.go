// Package contextref selects recently referenced terms and renders them as
// a priming prompt for the transcription backend.
package contextref

import (
	"sort"
	"strings"
	"unicode/utf8"

	"daily-memo-go/internal/types"
)

const (
	DefaultTokenBudget = 200

	// MaxReferences is how many references the link tracker keeps.
	MaxReferences = 100

	promptPrefix    = "This recording may mention: "
	promptSeparator = ", "
	promptSuffix    = "."
)

// EstimateTokens approximates token cost at four characters per token.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// Select keeps the most recent references whose combined estimated cost
// stays within budget. The walk stops at the first reference that does not
// fit. The result is ordered oldest first.
//
// References with a zero timestamp sort as the oldest; ties keep input order.
func Select(refs []types.ContextReference, budget int) []types.ContextReference {
	return selectNewest(refs, budget, func(r types.ContextReference, _ bool) int {
		return EstimateTokens(r.Text)
	})
}

// selectNewest walks from the newest reference and charges cost(r, first)
// for each one, where first is true only for the newest pick.
func selectNewest(refs []types.ContextReference, budget int, cost func(r types.ContextReference, first bool) int) []types.ContextReference {
	if len(refs) == 0 || budget <= 0 {
		return nil
	}
	sorted := append([]types.ContextReference(nil), refs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var picked []types.ContextReference
	total := 0
	for i := len(sorted) - 1; i >= 0; i-- {
		c := cost(sorted[i], len(picked) == 0)
		if total+c > budget {
			break
		}
		total += c
		picked = append(picked, sorted[i])
	}
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}

// BuildPrompt renders the newest references that fit as one sentence. The
// budget covers the whole sentence: prefix, separators and final period are
// charged along with the references. It returns "" when nothing fits, and
// callers then send no prompt at all.
func BuildPrompt(refs []types.ContextReference, budget int) string {
	// Each piece is estimated on its own. Rounding every piece up never
	// undercounts the joined sentence.
	fixed := EstimateTokens(promptPrefix + promptSuffix)
	picked := selectNewest(refs, budget-fixed, func(r types.ContextReference, first bool) int {
		if first {
			return EstimateTokens(r.Text)
		}
		return EstimateTokens(r.Text + promptSeparator)
	})
	if len(picked) == 0 {
		return ""
	}
	texts := make([]string, len(picked))
	for i, r := range picked {
		texts[i] = r.Text
	}
	return promptPrefix + strings.Join(texts, promptSeparator) + promptSuffix
}

// Recent returns at most n references, newest first. The link tracker
// stores them in this order.
func Recent(refs []types.ContextReference, n int) []types.ContextReference {
	sorted := append([]types.ContextReference(nil), refs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].Timestamp.Before(sorted[i].Timestamp)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

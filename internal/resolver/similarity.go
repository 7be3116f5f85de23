package resolver

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Strategy names recorded on candidate matches and queue entries.
const (
	StrategyExact   = "exact_canonical"
	StrategyInitial = "initial_match"
	StrategyJaccard = "jaccard"
	StrategyEdit    = "edit_distance"
)

const (
	exactConfidence   = 0.95
	initialConfidence = 0.70

	// Jaccard scores are used only above this floor.
	jaccardFloor = 0.5

	// Edit distance applies to names longer than this many characters
	// on both sides, with at most maxEditDistance edits.
	minEditLength   = 8
	maxEditDistance = 2
)

// JaccardSimilarity is the token-level Jaccard similarity between two
// names: |A ∩ B| / |A ∪ B| over whitespace-split lowercase tokens.
// Returns 0.0 when either side has no tokens.
func JaccardSimilarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range tokensA {
		if tokensB[tok] {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

// InitialMatch reports whether one name is an initial-form of the
// other: "J. Smith" matches "John Smith". Both names must have at
// least two tokens, the last tokens must match exactly, and one
// name's first token must be a single letter prefixing the other's
// first token. Symmetric. Single-token names never match.
func InitialMatch(a, b string) bool {
	tokensA := strings.Fields(strings.ReplaceAll(strings.ToLower(a), ".", ""))
	tokensB := strings.Fields(strings.ReplaceAll(strings.ToLower(b), ".", ""))

	if len(tokensA) < 2 || len(tokensB) < 2 {
		return false
	}
	if tokensA[len(tokensA)-1] != tokensB[len(tokensB)-1] {
		return false
	}

	firstA, firstB := tokensA[0], tokensB[0]
	if utf8.RuneCountInString(firstA) == 1 && strings.HasPrefix(firstB, firstA) {
		return true
	}
	if utf8.RuneCountInString(firstB) == 1 && strings.HasPrefix(firstA, firstB) {
		return true
	}
	return false
}

// EditDistanceMatch scores near-identical spellings (typos). It only
// considers names longer than 8 characters on both sides; within an
// edit distance of 2 the confidence is 0.80 − 0.10 × distance. The
// second return value is false when the strategy has no opinion.
func EditDistanceMatch(a, b string) (float64, bool) {
	if utf8.RuneCountInString(a) <= minEditLength || utf8.RuneCountInString(b) <= minEditLength {
		return 0, false
	}
	dist := levenshtein.ComputeDistance(strings.ToLower(a), strings.ToLower(b))
	if dist > maxEditDistance {
		return 0, false
	}
	return 0.80 - float64(dist)*0.10, true
}

func tokenSet(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tokens[tok] = true
	}
	return tokens
}

package matcher

import (
	"math"
	"strings"

	"github.com/flyerdrop/tournees-api/internal/pkg/textnorm"
)

const (
	containmentThreshold = 0.25
	overlapThreshold     = 0.5
	minTokenLen          = 2
	irisCodeLen          = 9
	irisSuffixLen        = 4
)

// Query describes one geometry feature to resolve.
type Query struct {
	Name string
	Code string
	// APIHousingUnits is the housing-unit property carried by the feature, 0 when absent.
	APIHousingUnits int
	// CommuneHousingUnits and CommuneSectors feed the even-split fallback.
	CommuneHousingUnits int
	CommuneSectors      int
}

// Strategy is one step of the resolution cascade.
type Strategy struct {
	Name  string
	Match func(q Query, idx *Index) (int, bool)
}

// Strategies run in order until one matches.
var Strategies = []Strategy{
	{Name: "api_property", Match: MatchAPIProperty},
	{Name: "empty_index", Match: MatchEmptyIndex},
	{Name: "exact", Match: MatchExact},
	{Name: "folded", Match: MatchFolded},
	{Name: "apostrophe", Match: MatchApostrophe},
	{Name: "trailing_number", Match: MatchTrailingNumber},
	{Name: "code", Match: MatchCode},
	{Name: "fuzzy", Match: MatchFuzzy},
}

func MatchAPIProperty(q Query, _ *Index) (int, bool) {
	if q.APIHousingUnits > 0 {
		return q.APIHousingUnits, true
	}

	return 0, false
}

// MatchEmptyIndex ends the cascade when there is nothing to match against.
func MatchEmptyIndex(q Query, idx *Index) (int, bool) {
	if idx.Len() > 0 {
		return 0, false
	}

	return EvenSplit(q), true
}

func MatchExact(q Query, idx *Index) (int, bool) {
	if n, ok := idx.Lookup(textnorm.Lower(textnorm.NormalizeApostrophes(q.Name))); ok {
		return n, true
	}

	return idx.Lookup(strings.ToLower(strings.TrimSpace(q.Name)))
}

func MatchFolded(q Query, idx *Index) (int, bool) {
	folded := textnorm.Fold(q.Name)
	if n, ok := idx.Lookup(folded); ok {
		return n, true
	}

	return idx.Lookup(textnorm.RemoveSpaces(folded))
}

func MatchApostrophe(q Query, idx *Index) (int, bool) {
	folded := textnorm.Fold(q.Name)
	for _, key := range apostropheVariants(folded) {
		if n, ok := idx.Lookup(key); ok {
			return n, true
		}
	}

	return 0, false
}

// MatchTrailingNumber handles "Villeneuve 2" style names. A key with the same
// base is accepted when its own trailing number is equal or absent; an equal
// number wins over an absent one.
func MatchTrailingNumber(q Query, idx *Index) (int, bool) {
	base, num := textnorm.SplitTrailingNumber(textnorm.Fold(q.Name))
	if num == "" {
		return 0, false
	}

	fallback, found := 0, false
	for _, key := range idx.Keys() {
		keyBase, keyNum := textnorm.SplitTrailingNumber(key)
		if keyBase != base {
			continue
		}
		if keyNum == "" {
			if !found {
				fallback, found = idx.counts[key], true
			}
			continue
		}
		if textnorm.SameNumber(keyNum, num) {
			return idx.counts[key], true
		}
	}

	return fallback, found
}

func MatchCode(q Query, idx *Index) (int, bool) {
	for _, code := range codeVariants(q.Code) {
		if n, ok := idx.Lookup(code); ok {
			return n, true
		}
	}

	return 0, false
}

func codeVariants(code string) []string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}

	compact := textnorm.RemoveSpaces(code)
	variants := []string{code, compact, strings.TrimLeft(compact, "0")}
	if len(compact) < irisCodeLen {
		variants = append(variants, strings.Repeat("0", irisCodeLen-len(compact))+compact)
	}
	if len(compact) > irisCodeLen {
		variants = append(variants, compact[:irisCodeLen])
	}
	if len(compact) > irisSuffixLen {
		variants = append(variants, compact[len(compact)-irisSuffixLen:])
	}

	seen := make(map[string]struct{}, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}

// MatchFuzzy scores every key against the query by substring containment and
// by token overlap. A key qualifies when either measure clears its own
// threshold; the qualifying key with the best score wins.
func MatchFuzzy(q Query, idx *Index) (int, bool) {
	folded := textnorm.Fold(q.Name)
	if folded == "" {
		return 0, false
	}
	queryTokens := textnorm.Tokens(folded, minTokenLen, true)

	var (
		bestKey   string
		bestScore float64
	)
	for _, key := range idx.Keys() {
		if key == folded {
			continue
		}
		keyTokens := textnorm.Tokens(key, minTokenLen, true)
		if len(keyTokens) == 0 {
			continue
		}

		containment := containmentRatio(folded, key)
		overlap := overlapRatio(queryTokens, keyTokens)
		if containment <= containmentThreshold && overlap < overlapThreshold {
			continue
		}
		if score := max(containment, overlap); score > bestScore {
			bestKey, bestScore = key, score
		}
	}

	if bestKey == "" {
		return 0, false
	}

	return idx.counts[bestKey], true
}

func containmentRatio(a, b string) float64 {
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}

	return float64(min(la, lb)) / float64(max(la, lb))
}

func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	common := 0
	for _, t := range a {
		if _, ok := set[t]; ok {
			common++
		}
	}

	return float64(common) / float64(max(len(a), len(b)))
}

// EvenSplit spreads the commune housing units evenly over its sectors.
func EvenSplit(q Query) int {
	if q.CommuneHousingUnits <= 0 || q.CommuneSectors <= 0 {
		return 0
	}

	return int(math.Round(float64(q.CommuneHousingUnits) / float64(q.CommuneSectors)))
}

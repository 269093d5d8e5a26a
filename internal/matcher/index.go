// Package matcher resolves the housing-unit count of an IRIS sector returned by
// the geometry API against the static dataset, tolerating naming differences
// between the two sources.
package matcher

import (
	"sort"
	"strings"

	"github.com/flyerdrop/tournees-api/internal/dataset"
	"github.com/flyerdrop/tournees-api/internal/pkg/textnorm"
)

// Index maps name and code variants to housing-unit counts.
type Index struct {
	counts map[string]int
	keys   []string
}

// BuildIndex inserts several key variants per sector. A later sector wins
// when two sectors produce the same key. Sectors without housing units are
// skipped.
func BuildIndex(sectors []dataset.Sector) *Index {
	idx := &Index{counts: make(map[string]int)}
	for _, s := range sectors {
		if s.HousingUnits <= 0 {
			continue
		}
		for _, key := range nameKeys(s.Name) {
			idx.counts[key] = s.HousingUnits
		}
		if code := strings.TrimSpace(s.Code); code != "" {
			idx.counts[code] = s.HousingUnits
		}
	}

	idx.keys = make([]string, 0, len(idx.counts))
	for k := range idx.counts {
		idx.keys = append(idx.keys, k)
	}
	sort.Strings(idx.keys)

	return idx
}

func nameKeys(name string) []string {
	folded := textnorm.Fold(name)
	keys := []string{
		strings.ToLower(strings.TrimSpace(name)),
		textnorm.Lower(textnorm.NormalizeApostrophes(name)),
		folded,
		textnorm.RemoveSpaces(folded),
		strings.Join(textnorm.Tokens(folded, 2, false), " "),
		strings.Join(textnorm.Tokens(folded, 2, true), " "),
	}
	keys = append(keys, apostropheVariants(folded)...)

	out := keys[:0]
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}

	return out
}

func apostropheVariants(folded string) []string {
	if !strings.Contains(folded, "'") {
		return nil
	}

	return []string{
		strings.ReplaceAll(folded, "'", ""),
		textnorm.Lower(strings.ReplaceAll(folded, "'", " ")),
	}
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}

	return len(idx.counts)
}

func (idx *Index) Lookup(key string) (int, bool) {
	if idx == nil || key == "" {
		return 0, false
	}
	n, ok := idx.counts[key]

	return n, ok
}

// Keys returns the index keys in sorted order.
func (idx *Index) Keys() []string {
	if idx == nil {
		return nil
	}

	return idx.keys
}

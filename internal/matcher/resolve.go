package matcher

import "go.uber.org/zap"

// Resolve runs the strategy cascade and returns the housing units of the
// sector, or 0 when no strategy matched. It never fails.
func Resolve(idx *Index, q Query) int {
	n, _ := ResolveWithStrategy(idx, q)

	return n
}

// ResolveWithStrategy also reports the name of the matching strategy, empty
// when nothing matched.
func ResolveWithStrategy(idx *Index, q Query) (int, string) {
	for _, s := range Strategies {
		if n, ok := s.Match(q, idx); ok && n >= 0 {
			return n, s.Name
		}
	}

	zap.L().Debug("sector housing units not resolved",
		zap.String("name", q.Name),
		zap.String("code", q.Code),
	)

	return 0, ""
}

// ResolveOrSplit falls back to the even split when the cascade yields nothing.
func ResolveOrSplit(idx *Index, q Query) int {
	if n := Resolve(idx, q); n > 0 {
		return n
	}

	return EvenSplit(q)
}

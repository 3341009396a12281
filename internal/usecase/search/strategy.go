package search

import (
	"github.com/drivelane/carsearch/internal/domain/query"
	"github.com/drivelane/carsearch/internal/domain/strategy"
)

// Hybrid weighting: each exact constraint adds exactWeightStep to the exact
// leg, capped at exactWeightCap; the semantic leg takes the complement.
const (
	exactWeightStep = 0.15
	exactWeightCap  = 0.7
)

// DetermineStrategy selects the retrieval strategy from the composed query's
// constraint mix. The strategy is computed once per request and never
// transitions afterwards.
func DetermineStrategy(q query.ComposedQuery) strategy.Strategy {
	exact, semantic := q.CountByType()

	switch {
	case exact > 0 && semantic == 0:
		return strategy.NewExactOnly()
	case exact == 0 && semantic > 0:
		return strategy.NewSemanticOnly()
	case exact > 0 && semantic > 0:
		w := exactWeightStep * float64(exact)
		if w > exactWeightCap {
			w = exactWeightCap
		}
		return strategy.NewHybrid(w)
	default:
		// No constraints at all: fall back to pure semantic retrieval over
		// the raw query text.
		return strategy.NewSemanticOnly()
	}
}

package search

import (
	"sort"

	"github.com/drivelane/carsearch/internal/domain"
)

// DefaultRRFK is the Reciprocal Rank Fusion constant (standard value from
// Cormack et al. 2009).
const DefaultRRFK = 60

// Merge fuses two ranked candidate lists via weighted Reciprocal Rank
// Fusion: each candidate accumulates weight/(k+rank+1) from every list it
// appears in (rank is the 0-based position). Candidates are deduplicated by
// vehicle ref, keeping the union of score metadata, and sorted descending by
// fused score. Empty inputs are valid; two empty lists yield an empty merge.
func Merge(a, b []domain.VehicleResult, weightA, weightB float64, k int) []domain.VehicleResult {
	return MergeN([][]domain.VehicleResult{a, b}, []float64{weightA, weightB}, k)
}

// MergeN is the n-way variant. Input weights are normalized to sum to 1.0
// before fusing; a non-positive k falls back to DefaultRRFK.
func MergeN(lists [][]domain.VehicleResult, weights []float64, k int) []domain.VehicleResult {
	if k <= 0 {
		k = DefaultRRFK
	}
	weights = normalizeWeights(weights, len(lists))

	type scored struct {
		res       domain.VehicleResult
		score     float64
		breakdown domain.ScoreBreakdown
	}

	merged := make(map[string]*scored)
	order := make([]string, 0)

	for li, list := range lists {
		w := weights[li]
		for rank, r := range list {
			contribution := w / float64(k+rank+1)
			if existing, ok := merged[r.Ref()]; ok {
				existing.score += contribution
				existing.breakdown = unionBreakdown(existing.breakdown, r.Breakdown())
			} else {
				merged[r.Ref()] = &scored{res: r, score: contribution, breakdown: r.Breakdown()}
				order = append(order, r.Ref())
			}
		}
	}

	results := make([]domain.VehicleResult, 0, len(merged))
	for _, ref := range order {
		s := merged[ref]
		bd := s.breakdown
		bd.Final = s.score
		results = append(results, s.res.WithScore(s.score, bd))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})
	return results
}

// unionBreakdown keeps the strongest signal per component when the same
// vehicle appears in multiple lists.
func unionBreakdown(a, b domain.ScoreBreakdown) domain.ScoreBreakdown {
	return domain.ScoreBreakdown{
		ExactMatch: maxF(a.ExactMatch, b.ExactMatch),
		Semantic:   maxF(a.Semantic, b.Semantic),
		Keyword:    maxF(a.Keyword, b.Keyword),
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// normalizeWeights scales weights to sum to 1.0, padding missing entries
// with equal shares.
func normalizeWeights(weights []float64, n int) []float64 {
	out := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		if i < len(weights) && weights[i] > 0 {
			out[i] = weights[i]
			sum += weights[i]
		}
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1.0 / float64(n)
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

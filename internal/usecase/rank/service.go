package rank

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/concept"
	"github.com/drivelane/carsearch/internal/domain/query"
	"github.com/drivelane/carsearch/internal/domain/rerank"
)

// Condition score bonuses. Independent, accumulated, capped at 1.0.
const (
	bonusServiceHistory = 0.3
	bonusLowMileage     = 0.2
	bonusMidMileage     = 0.1
	bonusMOTLong        = 0.2
	bonusMOTShort       = 0.1
	bonusFewOwners      = 0.2
	bonusNoDamage       = 0.1
)

// Service ranks and re-orders scored candidates. Configuration is loaded at
// startup and read-only; the service is safe for concurrent use.
type Service struct {
	concepts *ConceptMapper
	defaults rerank.Strategy
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a ranking service with the default strategy applied by
// RankResults.
func NewService(concepts *ConceptMapper, defaults rerank.Strategy, logger *zap.Logger) *Service {
	return &Service{concepts: concepts, defaults: defaults, logger: logger, now: time.Now}
}

// RankResults applies the default re-ranking strategy.
func (s *Service) RankResults(
	results []domain.VehicleResult, parsed domain.ParsedQuery, q query.ComposedQuery,
) ([]domain.VehicleResult, error) {
	return s.RerankResults(results, s.defaults, parsed, q)
}

// RerankResults scores each candidate by the strategy's weighted factors,
// applies business rules, clamps, sorts, and optionally diversifies.
func (s *Service) RerankResults(
	results []domain.VehicleResult, strategy rerank.Strategy,
	parsed domain.ParsedQuery, q query.ComposedQuery,
) ([]domain.VehicleResult, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	weights := normalizeFactorWeights(strategy.FactorWeights)
	now := s.now()
	prices := priceStats(results)
	concepts := s.queryConcepts(parsed)

	ranked := make([]domain.VehicleResult, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, s.scoreCandidate(r, strategy, weights, prices, concepts, q, now))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})

	if strategy.ApplyDiversity {
		ranked = EnsureDiversity(ranked, strategy.MaxPerMake, strategy.MaxPerModel, len(ranked))
	}
	return ranked, nil
}

func (s *Service) scoreCandidate(
	r domain.VehicleResult, strategy rerank.Strategy, weights map[string]float64,
	prices priceRange, concepts []conceptTerm, q query.ComposedQuery, now time.Time,
) domain.VehicleResult {
	v := r.Vehicle()

	exact := MatchFraction(v, q.Constraints(), now)
	semantic := s.semanticFactor(r, concepts, now)

	base := r.Score()
	if strategy.Approach != rerank.BusinessRules {
		factors := map[string]float64{
			rerank.FactorSemantic:   semantic,
			rerank.FactorExactMatch: exact,
			rerank.FactorPrice:      priceCompetitiveness(v.Price, prices),
			rerank.FactorCondition:  ComputeBusinessScore(v, now),
			rerank.FactorRecency:    recencyScore(v.RegistrationDate, now),
		}
		base = 0
		for name, w := range weights {
			base += factors[name] * w
		}
	}

	if strategy.Approach != rerank.WeightedScore {
		for _, rule := range strategy.Rules {
			if rule.Condition(v) {
				base += rule.Adjustment
			}
		}
	}

	final := domain.ClampScore(base)
	breakdown := r.Breakdown()
	breakdown.ExactMatch = domain.ClampScore(exact)
	breakdown.Semantic = domain.ClampScore(semantic)
	breakdown.Final = final
	return r.WithScore(final, breakdown)
}

// semanticFactor blends the backend vector score with the conceptual
// similarity score. Either signal alone stands in for the other.
func (s *Service) semanticFactor(r domain.VehicleResult, concepts []conceptTerm, now time.Time) float64 {
	vector := r.Breakdown().Semantic

	conceptual, hasConceptual := 0.0, false
	for _, ct := range concepts {
		sim := ComputeSimilarity(r.Vehicle(), ct.mapping, now)
		conceptual += sim.Overall
		hasConceptual = true
	}
	if hasConceptual {
		conceptual /= float64(len(concepts))
	}

	switch {
	case vector > 0 && hasConceptual:
		return (vector + conceptual) / 2
	case hasConceptual:
		return conceptual
	default:
		return vector
	}
}

type conceptTerm struct {
	term    string
	mapping concept.Mapping
}

// queryConcepts resolves the parsed query's qualitative terms to mappings.
// Unknown terms are skipped.
func (s *Service) queryConcepts(parsed domain.ParsedQuery) []conceptTerm {
	var terms []conceptTerm
	for _, e := range parsed.EntitiesOfType(domain.EntityQualitative) {
		if m, ok := s.concepts.Map(e.Value); ok {
			terms = append(terms, conceptTerm{term: e.Value, mapping: m})
		}
	}
	return terms
}

// ComputeBusinessScore accumulates independent condition bonuses for a
// vehicle, capped at 1.0.
func ComputeBusinessScore(v domain.Vehicle, now time.Time) float64 {
	score := 0.0
	if v.ServiceHistory {
		score += bonusServiceHistory
	}
	switch {
	case v.Mileage < 50000:
		score += bonusLowMileage
	case v.Mileage < 80000:
		score += bonusMidMileage
	}
	if !v.MOTExpiry.IsZero() {
		switch {
		case v.MOTExpiry.After(now.Add(90 * 24 * time.Hour)):
			score += bonusMOTLong
		case v.MOTExpiry.After(now.Add(30 * 24 * time.Hour)):
			score += bonusMOTShort
		}
	}
	if v.PreviousOwners <= 2 {
		score += bonusFewOwners
	}
	if !v.HasDamage {
		score += bonusNoDamage
	}
	return domain.ClampScore(score)
}

type priceRange struct {
	min, max float64
}

func priceStats(results []domain.VehicleResult) priceRange {
	pr := priceRange{min: results[0].Vehicle().Price, max: results[0].Vehicle().Price}
	for _, r := range results[1:] {
		p := r.Vehicle().Price
		if p < pr.min {
			pr.min = p
		}
		if p > pr.max {
			pr.max = p
		}
	}
	return pr
}

// priceCompetitiveness scores a price relative to the current result set.
// A uniform set is neutral.
func priceCompetitiveness(price float64, pr priceRange) float64 {
	if pr.max == pr.min {
		return 0.5
	}
	return domain.ClampScore(1 - (price-pr.min)/(pr.max-pr.min))
}

// recencyScore buckets vehicle age in years.
func recencyScore(registered time.Time, now time.Time) float64 {
	if registered.IsZero() {
		return 0.2
	}
	age := now.Sub(registered).Hours() / (24 * 365.25)
	switch {
	case age <= 1:
		return 1.0
	case age <= 3:
		return 0.8
	case age <= 5:
		return 0.6
	case age <= 10:
		return 0.4
	default:
		return 0.2
	}
}

// normalizeFactorWeights scales weights to sum to 1.0. A zero sum falls
// back to the default mix.
func normalizeFactorWeights(weights map[string]float64) map[string]float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return rerank.DefaultFactorWeights()
	}
	normalized := make(map[string]float64, len(weights))
	for name, w := range weights {
		normalized[name] = w / sum
	}
	return normalized
}

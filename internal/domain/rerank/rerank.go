// Package rerank defines the re-ranking strategy and business-rule records
// applied by the result ranking service.
package rerank

import (
	"fmt"

	"github.com/drivelane/carsearch/internal/domain"
)

// Approach selects how a reranking strategy combines its signals.
type Approach string

// Reranking approaches.
const (
	WeightedScore Approach = "weighted_score"
	BusinessRules Approach = "business_rules"
	Hybrid        Approach = "hybrid"
)

// Ranking factor names used as FactorWeights keys.
const (
	FactorSemantic   = "semantic"
	FactorExactMatch = "exact_match"
	FactorPrice      = "price_competitiveness"
	FactorCondition  = "condition"
	FactorRecency    = "recency"
)

// BusinessRule pairs a vehicle predicate with a bounded score adjustment.
// Rules are data, not types: evaluation iterates the rule list.
type BusinessRule struct {
	Name       string
	Condition  func(domain.Vehicle) bool
	Adjustment float64
}

// Strategy configures one re-ranking pass.
type Strategy struct {
	Approach       Approach
	FactorWeights  map[string]float64
	Rules          []BusinessRule
	ApplyDiversity bool
	MaxPerMake     int
	MaxPerModel    int
}

// Validate rejects malformed strategies before any execution.
func (s Strategy) Validate() error {
	if len(s.FactorWeights) == 0 {
		return fmt.Errorf("%w: strategy has no factor weights", domain.ErrConfiguration)
	}
	for name, w := range s.FactorWeights {
		if w < 0 {
			return fmt.Errorf("%w: factor %q has negative weight %v", domain.ErrConfiguration, name, w)
		}
	}
	if s.ApplyDiversity {
		if s.MaxPerMake <= 0 {
			return fmt.Errorf("%w: maxPerMake must be positive, got %d", domain.ErrConfiguration, s.MaxPerMake)
		}
		if s.MaxPerModel <= 0 {
			return fmt.Errorf("%w: maxPerModel must be positive, got %d", domain.ErrConfiguration, s.MaxPerModel)
		}
	}
	for _, r := range s.Rules {
		if r.Adjustment < -1 || r.Adjustment > 1 {
			return fmt.Errorf("%w: rule %q adjustment %v outside [-1,1]", domain.ErrConfiguration, r.Name, r.Adjustment)
		}
	}
	return nil
}

// DefaultFactorWeights returns the default ranking weight mix.
func DefaultFactorWeights() map[string]float64 {
	return map[string]float64{
		FactorSemantic:   0.40,
		FactorExactMatch: 0.25,
		FactorPrice:      0.15,
		FactorCondition:  0.10,
		FactorRecency:    0.10,
	}
}

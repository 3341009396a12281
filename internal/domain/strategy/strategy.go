// Package strategy defines the retrieval strategy value object selected
// per request by the search orchestrator.
package strategy

// Type is the retrieval approach mix.
type Type string

// Strategy type constants.
const (
	ExactOnly    Type = "exact_only"
	SemanticOnly Type = "semantic_only"
	Hybrid       Type = "hybrid"
	MultiStage   Type = "multi_stage"
)

// Approach is one retrieval leg.
type Approach string

// Retrieval approaches.
const (
	ApproachExact    Approach = "exact"
	ApproachSemantic Approach = "semantic"
)

// Strategy describes how one request is executed. Weights always sum to 1.0.
type Strategy struct {
	stype   Type
	weights map[Approach]float64
}

// NewExactOnly creates a filter-only strategy.
func NewExactOnly() Strategy {
	return Strategy{
		stype:   ExactOnly,
		weights: map[Approach]float64{ApproachExact: 1.0},
	}
}

// NewSemanticOnly creates an embedding-similarity-only strategy.
func NewSemanticOnly() Strategy {
	return Strategy{
		stype:   SemanticOnly,
		weights: map[Approach]float64{ApproachSemantic: 1.0},
	}
}

// NewHybrid creates a mixed strategy with the given exact-leg weight.
// The semantic weight is the complement, so the pair sums to 1.0.
func NewHybrid(exactWeight float64) Strategy {
	return Strategy{
		stype: Hybrid,
		weights: map[Approach]float64{
			ApproachExact:    exactWeight,
			ApproachSemantic: 1.0 - exactWeight,
		},
	}
}

// SType returns the strategy type.
func (s Strategy) SType() Type { return s.stype }

// Weight returns the weight assigned to an approach (zero if absent).
func (s Strategy) Weight(a Approach) float64 { return s.weights[a] }

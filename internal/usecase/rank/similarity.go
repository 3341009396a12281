package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/concept"
)

// Indicator phrase boosts applied to the weighted attribute score.
const (
	positiveIndicatorBoost = 0.05
	negativeIndicatorBoost = -0.10
)

// Attribute-score thresholds for the matching/mismatching explanation lists.
const (
	matchingThreshold    = 0.7
	mismatchingThreshold = 0.3
)

// Similarity is the outcome of scoring one vehicle against one concept.
type Similarity struct {
	Overall     float64
	Components  map[string]float64
	Matching    []string
	Mismatching []string
}

// ComputeSimilarity scores how well a vehicle matches a concept mapping.
// Each attribute comparison yields a banded score, combined by the mapping's
// weights; indicator phrases found in the description nudge the total, which
// is clamped to [0,1].
func ComputeSimilarity(v domain.Vehicle, m concept.Mapping, now time.Time) Similarity {
	sim := Similarity{Components: make(map[string]float64, len(m.Weights))}

	weighted := 0.0
	for _, w := range m.Weights {
		score := attributeScore(v, w, now)
		sim.Components[w.Attribute] = score
		weighted += score * w.Weight

		if score >= matchingThreshold {
			sim.Matching = append(sim.Matching, w.Attribute)
		} else if score < mismatchingThreshold {
			sim.Mismatching = append(sim.Mismatching, w.Attribute)
		}
	}

	sim.Overall = domain.ClampScore(weighted + descriptionBoost(v.Description, m))
	sort.Strings(sim.Matching)
	sort.Strings(sim.Mismatching)
	return sim
}

// attributeScore bands a single attribute comparison. Numeric comparisons
// degrade gradually around the target; equals/in are binary.
func attributeScore(v domain.Vehicle, w concept.AttributeWeight, now time.Time) float64 {
	switch w.Comparison {
	case concept.Less:
		actual, ok := v.Numeric(w.Attribute, now)
		if !ok {
			return 0
		}
		return bandLess(actual, w.TargetNumber)
	case concept.Greater:
		actual, ok := v.Numeric(w.Attribute, now)
		if !ok {
			return 0
		}
		return bandGreater(actual, w.TargetNumber)
	case concept.Equals:
		actual, ok := v.Text(w.Attribute)
		if ok && strings.EqualFold(actual, w.TargetText) {
			return 1.0
		}
		return 0
	case concept.In:
		actual, ok := v.Text(w.Attribute)
		if !ok {
			return 0
		}
		for _, candidate := range w.TargetValues {
			if strings.EqualFold(actual, candidate) {
				return 1.0
			}
		}
		return 0
	default:
		return 0
	}
}

func bandLess(actual, target float64) float64 {
	switch {
	case actual <= target*0.7:
		return 1.0
	case actual <= target:
		return 0.8
	case actual <= target*1.3:
		return 0.5
	default:
		return 0.2
	}
}

func bandGreater(actual, target float64) float64 {
	switch {
	case actual >= target*1.3:
		return 1.0
	case actual >= target:
		return 0.8
	case actual >= target*0.7:
		return 0.5
	default:
		return 0.2
	}
}

// descriptionBoost sums indicator phrase hits in the free-text description.
func descriptionBoost(description string, m concept.Mapping) float64 {
	if description == "" {
		return 0
	}
	text := strings.ToLower(description)
	boost := 0.0
	for _, phrase := range m.PositiveIndicators {
		if strings.Contains(text, strings.ToLower(phrase)) {
			boost += positiveIndicatorBoost
		}
	}
	for _, phrase := range m.NegativeIndicators {
		if strings.Contains(text, strings.ToLower(phrase)) {
			boost += negativeIndicatorBoost
		}
	}
	return boost
}

// Package concept models configured translations of qualitative terms
// ("reliable", "economical") into weighted, measurable attribute comparisons.
package concept

import (
	"fmt"
	"math"
)

// WeightTolerance is the allowed deviation of an attribute weight sum from 1.0.
const WeightTolerance = 0.01

// Comparison is how a target value is compared against a vehicle attribute.
type Comparison string

// Comparison kinds.
const (
	Less    Comparison = "less"
	Greater Comparison = "greater"
	Equals  Comparison = "equals"
	In      Comparison = "in"
)

// AttributeWeight is one weighted attribute comparison inside a mapping.
type AttributeWeight struct {
	Attribute    string
	Weight       float64
	Comparison   Comparison
	TargetNumber float64
	TargetText   string
	TargetValues []string
}

// Mapping translates one qualitative concept into attribute comparisons plus
// free-text indicator phrases. Loaded once at startup, read-only thereafter.
type Mapping struct {
	Concept            string
	Weights            []AttributeWeight
	PositiveIndicators []string
	NegativeIndicators []string
}

// Validate checks the mapping invariants: non-empty weights, each weight in
// (0,1], and the weight sum within WeightTolerance of 1.0.
func (m Mapping) Validate() error {
	if m.Concept == "" {
		return fmt.Errorf("concept name is required")
	}
	if len(m.Weights) == 0 {
		return fmt.Errorf("concept %q has no attribute weights", m.Concept)
	}
	sum := 0.0
	for _, w := range m.Weights {
		if w.Attribute == "" {
			return fmt.Errorf("concept %q has an attribute weight without an attribute", m.Concept)
		}
		if w.Weight <= 0 || w.Weight > 1 {
			return fmt.Errorf("concept %q attribute %q weight %v outside (0,1]", m.Concept, w.Attribute, w.Weight)
		}
		switch w.Comparison {
		case Less, Greater, Equals, In:
		default:
			return fmt.Errorf("concept %q attribute %q has unknown comparison %q", m.Concept, w.Attribute, w.Comparison)
		}
		sum += w.Weight
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("concept %q attribute weights sum to %v, want 1.0 ±%v", m.Concept, sum, WeightTolerance)
	}
	return nil
}

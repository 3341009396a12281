package config

import (
	"fmt"
	"strings"

	"github.com/drivelane/carsearch/internal/domain/concept"
	"github.com/drivelane/carsearch/internal/domain/query"
)

// QualitativeConstraints converts the parsing section's term dictionary into
// domain constraints, each typed Semantic. Keys are lowercased for
// case-insensitive lookup.
func (c Config) QualitativeConstraints() (map[string][]query.Constraint, error) {
	out := make(map[string][]query.Constraint, len(c.Parsing.QualitativeTerms))
	for term, specs := range c.Parsing.QualitativeTerms {
		constraints := make([]query.Constraint, 0, len(specs))
		for _, spec := range specs {
			qc, err := spec.toConstraint(query.Semantic)
			if err != nil {
				return nil, fmt.Errorf("qualitative term %q: %w", term, err)
			}
			constraints = append(constraints, qc)
		}
		out[strings.ToLower(term)] = constraints
	}
	return out, nil
}

func (s ConstraintSpec) toConstraint(t query.Type) (query.Constraint, error) {
	op := query.Operator(s.Op)
	switch op {
	case query.Between:
		if s.Low == nil || s.High == nil {
			return query.Constraint{}, fmt.Errorf("between on %q needs low and high", s.Field)
		}
		return query.NewNumberRange(s.Field, *s.Low, *s.High, t)
	case query.In:
		return query.NewList(s.Field, s.Values, t)
	case query.Equals, query.NotEquals, query.Contains:
		if s.Number != nil {
			return query.NewNumber(s.Field, op, *s.Number, t)
		}
		return query.NewText(s.Field, op, s.Text, t)
	case query.GreaterThan, query.GreaterThanOrEqual, query.LessThan, query.LessThanOrEqual:
		if s.Number == nil {
			return query.Constraint{}, fmt.Errorf("%s on %q needs a number", s.Op, s.Field)
		}
		return query.NewNumber(s.Field, op, *s.Number, t)
	default:
		return query.Constraint{}, fmt.Errorf("unknown operator %q on %q", s.Op, s.Field)
	}
}

// ConceptMappings converts the ranking section's concept dictionary into
// validated domain mappings keyed by lowercased concept name.
func (c Config) ConceptMappings() (map[string]concept.Mapping, error) {
	out := make(map[string]concept.Mapping, len(c.Ranking.Concepts))
	for name, spec := range c.Ranking.Concepts {
		weights := make([]concept.AttributeWeight, 0, len(spec.Weights))
		for _, w := range spec.Weights {
			weights = append(weights, concept.AttributeWeight{
				Attribute:    w.Attribute,
				Weight:       w.Weight,
				Comparison:   concept.Comparison(w.Comparison),
				TargetNumber: w.Number,
				TargetText:   w.Text,
				TargetValues: w.Values,
			})
		}
		m := concept.Mapping{
			Concept:            name,
			Weights:            weights,
			PositiveIndicators: spec.Positive,
			NegativeIndicators: spec.Negative,
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("ranking.concepts: %w", err)
		}
		out[strings.ToLower(name)] = m
	}
	return out, nil
}

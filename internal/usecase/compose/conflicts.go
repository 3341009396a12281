package compose

import (
	"fmt"
	"math"

	"github.com/drivelane/carsearch/internal/domain/query"
)

// DetectConflicts reports contradictory or impossible constraint pairs.
// Only And-joined groups are inspected; Or groups have union semantics and
// are never flagged.
func DetectConflicts(q query.ComposedQuery) []string {
	var conflicts []string
	for _, g := range q.Groups {
		if g.Operator != query.And {
			continue
		}
		byField := groupByField(g.Constraints)
		for field, cs := range byField {
			if len(cs) < 2 {
				continue
			}
			conflicts = append(conflicts, detectEqualsConflicts(field, cs)...)
			if msg, ok := detectRangeInversion(field, cs); ok {
				conflicts = append(conflicts, msg)
			}
		}
	}
	return conflicts
}

// detectEqualsConflicts flags two Equals constraints with different values
// on the same field.
func detectEqualsConflicts(field string, cs []query.Constraint) []string {
	var eqs []query.Constraint
	for _, c := range cs {
		if c.Op() == query.Equals {
			eqs = append(eqs, c)
		}
	}
	var out []string
	for i := 0; i < len(eqs); i++ {
		for j := i + 1; j < len(eqs); j++ {
			if !sameValue(eqs[i], eqs[j]) {
				out = append(out, fmt.Sprintf(
					"Contradictory values for %s: %s vs %s",
					field, describeValue(eqs[i]), describeValue(eqs[j])))
			}
		}
	}
	return out
}

// detectRangeInversion flags a lower bound strictly above an upper bound.
func detectRangeInversion(field string, cs []query.Constraint) (string, bool) {
	lo := math.Inf(-1)
	hi := math.Inf(1)
	for _, c := range cs {
		if b, ok := c.LowerBound(); ok && b > lo {
			lo = b
		}
		if b, ok := c.UpperBound(); ok && b < hi {
			hi = b
		}
	}
	if !math.IsInf(lo, -1) && !math.IsInf(hi, 1) && lo > hi {
		return fmt.Sprintf("Range inversion for %s: lower bound %v exceeds upper bound %v", field, lo, hi), true
	}
	return "", false
}

// ResolveConflicts merges overlapping range constraints within And groups
// into the tightest mutually satisfying range (intersection semantics).
// An empty intersection keeps the constraints and appends an impossible-range
// warning so the caller can surface it or relax; nothing is silently
// dropped. Or groups pass through unchanged.
func ResolveConflicts(q query.ComposedQuery) query.ComposedQuery {
	out := q
	out.Groups = make([]query.Group, len(q.Groups))
	for i, g := range q.Groups {
		if g.Operator != query.And {
			out.Groups[i] = g
			continue
		}
		merged, warnings := mergeRanges(g)
		out.Groups[i] = merged
		out.Warnings = append(out.Warnings, warnings...)
	}
	return out
}

func mergeRanges(g query.Group) (query.Group, []string) {
	byField := groupByField(g.Constraints)

	mergeable := make(map[string]bool)
	for field, cs := range byField {
		n := 0
		for _, c := range cs {
			if isRangeLike(c) {
				n++
			}
		}
		mergeable[field] = n >= 2
	}

	var warnings []string
	merged := query.Group{Operator: g.Operator, Priority: g.Priority}
	done := make(map[string]bool)

	for _, c := range g.Constraints {
		field := c.Field()
		if !mergeable[field] || !isRangeLike(c) {
			merged.Constraints = append(merged.Constraints, c)
			continue
		}
		if done[field] {
			continue
		}
		done[field] = true

		lo := math.Inf(-1)
		hi := math.Inf(1)
		for _, fc := range byField[field] {
			if !isRangeLike(fc) {
				continue
			}
			if b, ok := fc.LowerBound(); ok && b > lo {
				lo = b
			}
			if b, ok := fc.UpperBound(); ok && b < hi {
				hi = b
			}
		}

		switch {
		case !math.IsInf(lo, -1) && !math.IsInf(hi, 1) && lo > hi:
			// Impossible intersection: keep the originals, warn.
			warnings = append(warnings, fmt.Sprintf("Impossible range for field %s", field))
			for _, fc := range byField[field] {
				if isRangeLike(fc) {
					merged.Constraints = append(merged.Constraints, fc)
				}
			}
		case !math.IsInf(lo, -1) && !math.IsInf(hi, 1):
			if c, err := query.NewNumberRange(field, lo, hi, query.Range); err == nil {
				merged.Constraints = append(merged.Constraints, c)
			}
		case !math.IsInf(lo, -1):
			if c, err := query.NewNumber(field, query.GreaterThanOrEqual, lo, query.Range); err == nil {
				merged.Constraints = append(merged.Constraints, c)
			}
		case !math.IsInf(hi, 1):
			if c, err := query.NewNumber(field, query.LessThanOrEqual, hi, query.Range); err == nil {
				merged.Constraints = append(merged.Constraints, c)
			}
		}
	}
	return merged, warnings
}

// isRangeLike reports whether the constraint contributes a numeric bound.
func isRangeLike(c query.Constraint) bool {
	if _, ok := c.LowerBound(); ok {
		return true
	}
	_, ok := c.UpperBound()
	return ok
}

func groupByField(cs []query.Constraint) map[string][]query.Constraint {
	byField := make(map[string][]query.Constraint)
	for _, c := range cs {
		byField[c.Field()] = append(byField[c.Field()], c)
	}
	return byField
}

func sameValue(a, b query.Constraint) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case query.KindText:
		return a.Text() == b.Text()
	case query.KindNumber:
		return a.Number() == b.Number()
	case query.KindDate:
		return a.Date().Equal(b.Date())
	default:
		return false
	}
}

func describeValue(c query.Constraint) string {
	switch c.Kind() {
	case query.KindText:
		return fmt.Sprintf("%q", c.Text())
	case query.KindNumber:
		return fmt.Sprintf("%v", c.Number())
	case query.KindDate:
		return c.Date().Format("2006-01-02")
	default:
		return "?"
	}
}

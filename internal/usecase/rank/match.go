package rank

import (
	"strings"
	"time"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/query"
)

// Satisfies reports whether a vehicle meets one constraint. Unknown fields
// and semantic constraints evaluate to false rather than erroring; callers
// score ratios over the constraints they can evaluate.
func Satisfies(v domain.Vehicle, c query.Constraint, now time.Time) bool {
	switch c.Kind() {
	case query.KindText:
		return satisfiesText(v, c)
	case query.KindNumber:
		actual, ok := v.Numeric(c.Field(), now)
		if !ok {
			return false
		}
		return compareNumber(actual, c.Op(), c.Number())
	case query.KindNumberRange:
		actual, ok := v.Numeric(c.Field(), now)
		if !ok {
			return false
		}
		lo, hi := c.NumberRange()
		return actual >= lo && actual <= hi
	case query.KindDate:
		actual := dateAttribute(v, c.Field())
		if actual.IsZero() {
			return false
		}
		return compareDate(actual, c.Op(), c.Date())
	case query.KindDateRange:
		actual := dateAttribute(v, c.Field())
		if actual.IsZero() {
			return false
		}
		lo, hi := c.DateRange()
		return !actual.Before(lo) && !actual.After(hi)
	case query.KindList:
		actual, ok := v.Text(c.Field())
		if !ok {
			return false
		}
		for _, candidate := range c.List() {
			if strings.EqualFold(actual, candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// MatchFraction is the share of evaluable non-semantic constraints satisfied
// by the vehicle. Queries with no such constraints score a neutral 1.0.
func MatchFraction(v domain.Vehicle, constraints []query.Constraint, now time.Time) float64 {
	total, satisfied := 0, 0
	for _, c := range constraints {
		if c.IsSemantic() {
			continue
		}
		total++
		if Satisfies(v, c, now) {
			satisfied++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(satisfied) / float64(total)
}

func satisfiesText(v domain.Vehicle, c query.Constraint) bool {
	if c.Field() == "features" {
		return v.HasFeature(c.Text())
	}
	actual, ok := v.Text(c.Field())
	if !ok {
		return false
	}
	switch c.Op() {
	case query.Equals:
		return strings.EqualFold(actual, c.Text())
	case query.NotEquals:
		return !strings.EqualFold(actual, c.Text())
	case query.Contains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Text()))
	default:
		return false
	}
}

func compareNumber(actual float64, op query.Operator, target float64) bool {
	switch op {
	case query.Equals:
		return actual == target
	case query.NotEquals:
		return actual != target
	case query.GreaterThan:
		return actual > target
	case query.GreaterThanOrEqual:
		return actual >= target
	case query.LessThan:
		return actual < target
	case query.LessThanOrEqual:
		return actual <= target
	default:
		return false
	}
}

func compareDate(actual time.Time, op query.Operator, target time.Time) bool {
	switch op {
	case query.Equals:
		return actual.Equal(target)
	case query.NotEquals:
		return !actual.Equal(target)
	case query.GreaterThan:
		return actual.After(target)
	case query.GreaterThanOrEqual:
		return !actual.Before(target)
	case query.LessThan:
		return actual.Before(target)
	case query.LessThanOrEqual:
		return !actual.After(target)
	default:
		return false
	}
}

func dateAttribute(v domain.Vehicle, field string) time.Time {
	switch field {
	case "registrationDate":
		return v.RegistrationDate
	case "motExpiry":
		return v.MOTExpiry
	default:
		return time.Time{}
	}
}

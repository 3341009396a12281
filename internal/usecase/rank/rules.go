package rank

import (
	"fmt"
	"strings"
	"time"

	"github.com/drivelane/carsearch/internal/config"
	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/rerank"
)

// predicateBuilder constructs a vehicle predicate from a rule's parameters.
type predicateBuilder func(spec config.BusinessRuleSpec, now func() time.Time) func(domain.Vehicle) bool

// predicates is the registry of named rule conditions. Rules stay data in
// configuration; only the predicate bodies live in code.
var predicates = map[string]predicateBuilder{
	"featured_dealer": func(_ config.BusinessRuleSpec, _ func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool { return v.FeaturedDealer }
	},
	"has_damage": func(_ config.BusinessRuleSpec, _ func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool { return v.HasDamage }
	},
	"no_service_history": func(_ config.BusinessRuleSpec, _ func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool { return !v.ServiceHistory }
	},
	"make_is": func(spec config.BusinessRuleSpec, _ func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool { return strings.EqualFold(v.Make, spec.Text) }
	},
	"fuel_type_is": func(spec config.BusinessRuleSpec, _ func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool { return strings.EqualFold(v.FuelType, spec.Text) }
	},
	"has_feature": func(spec config.BusinessRuleSpec, _ func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool { return v.HasFeature(spec.Text) }
	},
	"mileage_above": func(spec config.BusinessRuleSpec, _ func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool { return v.Mileage > spec.Number }
	},
	"price_below": func(spec config.BusinessRuleSpec, _ func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool { return v.Price < spec.Number }
	},
	"owners_above": func(spec config.BusinessRuleSpec, _ func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool { return float64(v.PreviousOwners) > spec.Number }
	},
	"mot_expiring_within_days": func(spec config.BusinessRuleSpec, now func() time.Time) func(domain.Vehicle) bool {
		return func(v domain.Vehicle) bool {
			if v.MOTExpiry.IsZero() {
				return false
			}
			return v.MOTExpiry.Before(now().Add(time.Duration(spec.Number) * 24 * time.Hour))
		}
	},
}

// BuildRules resolves configured rule specs against the predicate registry.
func BuildRules(specs []config.BusinessRuleSpec, now func() time.Time) ([]rerank.BusinessRule, error) {
	rules := make([]rerank.BusinessRule, 0, len(specs))
	for _, spec := range specs {
		build, ok := predicates[spec.Predicate]
		if !ok {
			return nil, fmt.Errorf("%w: rule %q uses unknown predicate %q",
				domain.ErrConfiguration, spec.Name, spec.Predicate)
		}
		if spec.Adjustment < -1 || spec.Adjustment > 1 {
			return nil, fmt.Errorf("%w: rule %q adjustment %v outside [-1,1]",
				domain.ErrConfiguration, spec.Name, spec.Adjustment)
		}
		rules = append(rules, rerank.BusinessRule{
			Name:       spec.Name,
			Condition:  build(spec, now),
			Adjustment: spec.Adjustment,
		})
	}
	return rules, nil
}

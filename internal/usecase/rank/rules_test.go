package rank

import (
	"errors"
	"testing"
	"time"

	"github.com/drivelane/carsearch/internal/config"
	"github.com/drivelane/carsearch/internal/domain"
)

func TestBuildRules(t *testing.T) {
	now := func() time.Time { return testNow }
	rules, err := BuildRules([]config.BusinessRuleSpec{
		{Name: "featured boost", Predicate: "featured_dealer", Adjustment: 0.05},
		{Name: "damage penalty", Predicate: "has_damage", Adjustment: -0.15},
		{Name: "high mileage penalty", Predicate: "mileage_above", Number: 100000, Adjustment: -0.1},
		{Name: "budget boost", Predicate: "price_below", Number: 10000, Adjustment: 0.05},
		{Name: "ev boost", Predicate: "fuel_type_is", Text: "Electric", Adjustment: 0.05},
		{Name: "mot due", Predicate: "mot_expiring_within_days", Number: 30, Adjustment: -0.05},
	}, now)
	if err != nil {
		t.Fatalf("BuildRules: %v", err)
	}
	if len(rules) != 6 {
		t.Fatalf("built %d rules, want 6", len(rules))
	}

	v := domain.Vehicle{
		FeaturedDealer: true,
		Mileage:        120000,
		Price:          8000,
		FuelType:       "electric",
		MOTExpiry:      testNow.Add(10 * 24 * time.Hour),
	}
	for _, r := range rules {
		matched := r.Condition(v)
		wantMatch := r.Name != "damage penalty"
		if matched != wantMatch {
			t.Errorf("rule %q matched = %v, want %v", r.Name, matched, wantMatch)
		}
	}
}

func TestBuildRules_UnknownPredicate(t *testing.T) {
	_, err := BuildRules([]config.BusinessRuleSpec{
		{Name: "mystery", Predicate: "phase_of_moon", Adjustment: 0.1},
	}, time.Now)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestBuildRules_AdjustmentBounds(t *testing.T) {
	_, err := BuildRules([]config.BusinessRuleSpec{
		{Name: "too strong", Predicate: "has_damage", Adjustment: -1.5},
	}, time.Now)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

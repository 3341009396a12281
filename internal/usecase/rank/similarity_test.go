package rank

import (
	"math"
	"testing"
	"time"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/concept"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func lessMapping(attr string, target float64) concept.Mapping {
	return concept.Mapping{
		Concept: "test",
		Weights: []concept.AttributeWeight{
			{Attribute: attr, Weight: 1.0, Comparison: concept.Less, TargetNumber: target},
		},
	}
}

func TestComputeSimilarity_LessBanding(t *testing.T) {
	tests := []struct {
		name    string
		mileage float64
		want    float64
	}{
		{"well under target", 30000, 1.0},
		{"at 70 percent exactly", 35000, 1.0},
		{"under target", 45000, 0.8},
		{"at target", 50000, 0.8},
		{"within 30 percent over", 60000, 0.5},
		{"far over target", 80000, 0.2},
	}
	m := lessMapping("mileage", 50000)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := ComputeSimilarity(domain.Vehicle{Mileage: tt.mileage}, m, testNow)
			if sim.Overall != tt.want {
				t.Errorf("overall = %v, want %v", sim.Overall, tt.want)
			}
		})
	}
}

func TestComputeSimilarity_GreaterBanding(t *testing.T) {
	m := concept.Mapping{
		Concept: "test",
		Weights: []concept.AttributeWeight{
			{Attribute: "engineSize", Weight: 1.0, Comparison: concept.Greater, TargetNumber: 2.0},
		},
	}
	tests := []struct {
		engine float64
		want   float64
	}{
		{3.0, 1.0},
		{2.2, 0.8},
		{2.0, 0.8},
		{1.6, 0.5},
		{1.0, 0.2},
	}
	for _, tt := range tests {
		sim := ComputeSimilarity(domain.Vehicle{EngineSize: tt.engine}, m, testNow)
		if sim.Overall != tt.want {
			t.Errorf("engine %v: overall = %v, want %v", tt.engine, sim.Overall, tt.want)
		}
	}
}

func TestComputeSimilarity_InIsBinary(t *testing.T) {
	m := concept.Mapping{
		Concept: "test",
		Weights: []concept.AttributeWeight{
			{Attribute: "fuelType", Weight: 1.0, Comparison: concept.In, TargetValues: []string{"Electric", "Hybrid"}},
		},
	}
	if sim := ComputeSimilarity(domain.Vehicle{FuelType: "hybrid"}, m, testNow); sim.Overall != 1.0 {
		t.Errorf("case-insensitive membership = %v, want 1.0", sim.Overall)
	}
	if sim := ComputeSimilarity(domain.Vehicle{FuelType: "Diesel"}, m, testNow); sim.Overall != 0.0 {
		t.Errorf("non-member = %v, want 0.0", sim.Overall)
	}
}

func TestComputeSimilarity_WeightedCombination(t *testing.T) {
	m := concept.Mapping{
		Concept: "test",
		Weights: []concept.AttributeWeight{
			{Attribute: "mileage", Weight: 0.6, Comparison: concept.Less, TargetNumber: 50000},
			{Attribute: "serviceHistory", Weight: 0.4, Comparison: concept.Equals, TargetText: "true"},
		},
	}
	// mileage 30000 bands to 1.0; no service history scores 0.
	sim := ComputeSimilarity(domain.Vehicle{Mileage: 30000}, m, testNow)
	if math.Abs(sim.Overall-0.6) > 1e-9 {
		t.Errorf("overall = %v, want 0.6", sim.Overall)
	}
	if len(sim.Matching) != 1 || sim.Matching[0] != "mileage" {
		t.Errorf("matching = %v, want [mileage]", sim.Matching)
	}
	if len(sim.Mismatching) != 1 || sim.Mismatching[0] != "serviceHistory" {
		t.Errorf("mismatching = %v, want [serviceHistory]", sim.Mismatching)
	}
}

func TestComputeSimilarity_DescriptionIndicators(t *testing.T) {
	m := lessMapping("mileage", 50000)
	m.PositiveIndicators = []string{"full service history", "one owner"}
	m.NegativeIndicators = []string{"spares or repair"}

	v := domain.Vehicle{Mileage: 60000, Description: "One owner, full service history."}
	sim := ComputeSimilarity(v, m, testNow)
	if math.Abs(sim.Overall-0.6) > 1e-9 {
		t.Errorf("two positive hits: overall = %v, want 0.5 + 2*0.05", sim.Overall)
	}

	v.Description = "Sold as spares or repair."
	sim = ComputeSimilarity(v, m, testNow)
	if math.Abs(sim.Overall-0.4) > 1e-9 {
		t.Errorf("negative hit: overall = %v, want 0.5 - 0.10", sim.Overall)
	}
}

func TestComputeSimilarity_ClampedToUnit(t *testing.T) {
	m := lessMapping("mileage", 50000)
	m.PositiveIndicators = []string{"a", "e", "i", "o", "u", "t", "s", "n", "r", "l"}

	v := domain.Vehicle{Mileage: 10000, Description: "excellent condition throughout"}
	if sim := ComputeSimilarity(v, m, testNow); sim.Overall > 1.0 {
		t.Errorf("overall = %v, want clamp at 1.0", sim.Overall)
	}
}

func TestComputeSimilarity_UnknownAttributeScoresZero(t *testing.T) {
	m := lessMapping("bootCapacity", 400)
	if sim := ComputeSimilarity(domain.Vehicle{}, m, testNow); sim.Overall != 0 {
		t.Errorf("unknown attribute: overall = %v, want 0", sim.Overall)
	}
}

func TestConceptMapper_CaseInsensitive(t *testing.T) {
	cm := NewConceptMapper(map[string]concept.Mapping{
		"Family Car": {Concept: "family car"},
	})
	if _, ok := cm.Map("  FAMILY CAR "); !ok {
		t.Error("lookup should ignore case and surrounding space")
	}
	if _, ok := cm.Map("spaceship"); ok {
		t.Error("unknown concept must be absent, not invented")
	}
}

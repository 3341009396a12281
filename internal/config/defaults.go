package config

func f(v float64) *float64 { return &v }

// defaultQualitativeTerms holds the built-in term → constraint defaults used
// when the config file defines none.
func defaultQualitativeTerms() map[string][]ConstraintSpec {
	return map[string][]ConstraintSpec{
		"cheap": {
			{Field: "price", Op: "le", Number: f(12000)},
		},
		"economical": {
			{Field: "engineSize", Op: "le", Number: f(2.0)},
			{Field: "fuelType", Op: "in", Values: []string{"Electric", "Hybrid"}},
		},
		"low mileage": {
			{Field: "mileage", Op: "le", Number: f(30000)},
		},
		"reliable": {
			{Field: "mileage", Op: "le", Number: f(60000)},
		},
		"nearly new": {
			{Field: "mileage", Op: "le", Number: f(10000)},
		},
	}
}

// defaultConcepts holds the built-in conceptual mappings. Attribute weights
// per concept sum to 1.0; config.ConceptMappings validates that invariant.
func defaultConcepts() map[string]ConceptSpec {
	return map[string]ConceptSpec{
		"reliable": {
			Weights: []ConceptWeightSpec{
				{Attribute: "mileage", Weight: 0.4, Comparison: "less", Number: 60000},
				{Attribute: "previousOwners", Weight: 0.3, Comparison: "less", Number: 3},
				{Attribute: "serviceHistory", Weight: 0.3, Comparison: "equals", Text: "true"},
			},
			Positive: []string{"full service history", "main dealer", "well maintained"},
			Negative: []string{"spares or repairs", "non runner", "head gasket"},
		},
		"economical": {
			Weights: []ConceptWeightSpec{
				{Attribute: "engineSize", Weight: 0.5, Comparison: "less", Number: 1.6},
				{Attribute: "fuelType", Weight: 0.5, Comparison: "in", Values: []string{"Electric", "Hybrid", "Diesel"}},
			},
			Positive: []string{"low running costs", "cheap to run", "great mpg"},
			Negative: []string{"thirsty"},
		},
		"family car": {
			Weights: []ConceptWeightSpec{
				{Attribute: "engineSize", Weight: 0.3, Comparison: "greater", Number: 1.4},
				{Attribute: "age", Weight: 0.3, Comparison: "less", Number: 8},
				{Attribute: "fuelType", Weight: 0.4, Comparison: "in", Values: []string{"Petrol", "Diesel", "Hybrid"}},
			},
			Positive: []string{"isofix", "boot space", "five doors"},
			Negative: []string{"two seater"},
		},
		"sporty": {
			Weights: []ConceptWeightSpec{
				{Attribute: "engineSize", Weight: 0.6, Comparison: "greater", Number: 2.0},
				{Attribute: "age", Weight: 0.4, Comparison: "less", Number: 10},
			},
			Positive: []string{"sports exhaust", "performance", "paddle shift"},
			Negative: []string{"economy"},
		},
		"luxury": {
			Weights: []ConceptWeightSpec{
				{Attribute: "price", Weight: 0.6, Comparison: "greater", Number: 30000},
				{Attribute: "age", Weight: 0.4, Comparison: "less", Number: 5},
			},
			Positive: []string{"leather", "heated seats", "premium"},
			Negative: []string{"base spec"},
		},
		"practical": {
			Weights: []ConceptWeightSpec{
				{Attribute: "mileage", Weight: 0.4, Comparison: "less", Number: 80000},
				{Attribute: "engineSize", Weight: 0.3, Comparison: "less", Number: 2.0},
				{Attribute: "previousOwners", Weight: 0.3, Comparison: "less", Number: 4},
			},
			Positive: []string{"big boot", "roof rails", "tow bar"},
			Negative: []string{"three door"},
		},
	}
}

package domain

// ScoreBreakdown records the per-signal scores behind a result's final score.
// Every component is kept within [0,1].
type ScoreBreakdown struct {
	ExactMatch float64 `json:"exactMatchScore"`
	Semantic   float64 `json:"semanticScore"`
	Keyword    float64 `json:"keywordScore"`
	Final      float64 `json:"finalScore"`
}

// VehicleResult is a single scored search hit. Pipeline stages never mutate
// a result in place; each stage derives new values via WithScore.
type VehicleResult struct {
	vehicle   Vehicle
	score     float64
	breakdown ScoreBreakdown
}

// NewResult creates a scored result.
func NewResult(v Vehicle, score float64, breakdown ScoreBreakdown) VehicleResult {
	return VehicleResult{vehicle: v, score: score, breakdown: breakdown}
}

// Vehicle returns the underlying inventory document.
func (r VehicleResult) Vehicle() Vehicle { return r.vehicle }

// Ref returns the vehicle identifier.
func (r VehicleResult) Ref() string { return r.vehicle.Ref }

// Score returns the current relevance score.
func (r VehicleResult) Score() float64 { return r.score }

// Breakdown returns the per-signal score breakdown.
func (r VehicleResult) Breakdown() ScoreBreakdown { return r.breakdown }

// WithScore derives a new result carrying the given score and breakdown.
func (r VehicleResult) WithScore(score float64, breakdown ScoreBreakdown) VehicleResult {
	return VehicleResult{vehicle: r.vehicle, score: score, breakdown: breakdown}
}

// ClampScore bounds a score to [0,1] regardless of upstream arithmetic.
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

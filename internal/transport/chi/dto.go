package chi

import (
	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/rerank"
)

// searchRequest is the POST /search body.
type searchRequest struct {
	Query      string `json:"query"`
	SessionID  string `json:"sessionId,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// searchResponse is the POST /search reply.
type searchResponse struct {
	Results          []resultDTO `json:"results"`
	TotalCount       int         `json:"totalCount"`
	Strategy         string      `json:"strategy"`
	QueryType        string      `json:"queryType"`
	Warnings         []string    `json:"warnings,omitempty"`
	SearchDurationMs int64       `json:"searchDurationMs"`
}

// resultDTO is one scored vehicle on the wire.
type resultDTO struct {
	Vehicle        domain.Vehicle        `json:"vehicle"`
	Score          float64               `json:"score"`
	ScoreBreakdown domain.ScoreBreakdown `json:"scoreBreakdown"`
}

// rerankRequest is the POST /search/rerank body. Query text is optional
// context for the exact-match and concept factors.
type rerankRequest struct {
	Results  []resultDTO `json:"results"`
	Strategy strategyDTO `json:"strategy"`
	Query    string      `json:"query,omitempty"`
}

// strategyDTO configures one re-ranking pass over the wire. Business rules
// stay server-side configuration; the approach decides whether they apply.
type strategyDTO struct {
	Approach       string             `json:"approach"`
	FactorWeights  map[string]float64 `json:"factorWeights,omitempty"`
	ApplyDiversity bool               `json:"applyDiversity,omitempty"`
	MaxPerMake     int                `json:"maxPerMake,omitempty"`
	MaxPerModel    int                `json:"maxPerModel,omitempty"`
}

// rerankResponse is the POST /search/rerank reply.
type rerankResponse struct {
	Results []resultDTO `json:"results"`
}

// explainRequest is the POST /search/explain body.
type explainRequest struct {
	VehicleID string `json:"vehicleId"`
	Query     string `json:"query"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toResultDTOs(results []domain.VehicleResult) []resultDTO {
	out := make([]resultDTO, len(results))
	for i, r := range results {
		out[i] = resultDTO{Vehicle: r.Vehicle(), Score: r.Score(), ScoreBreakdown: r.Breakdown()}
	}
	return out
}

func fromResultDTOs(dtos []resultDTO) []domain.VehicleResult {
	out := make([]domain.VehicleResult, len(dtos))
	for i, d := range dtos {
		out[i] = domain.NewResult(d.Vehicle, d.Score, d.ScoreBreakdown)
	}
	return out
}

func (d strategyDTO) toDomain(rules []rerank.BusinessRule, defaults rerank.Strategy) rerank.Strategy {
	s := rerank.Strategy{
		Approach:       rerank.Approach(d.Approach),
		FactorWeights:  d.FactorWeights,
		ApplyDiversity: d.ApplyDiversity,
		MaxPerMake:     d.MaxPerMake,
		MaxPerModel:    d.MaxPerModel,
	}
	if s.Approach == "" {
		s.Approach = defaults.Approach
	}
	if len(s.FactorWeights) == 0 {
		s.FactorWeights = defaults.FactorWeights
	}
	if s.Approach != rerank.WeightedScore {
		s.Rules = rules
	}
	return s
}

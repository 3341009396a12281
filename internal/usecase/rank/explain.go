package rank

import (
	"fmt"
	"strings"
	"time"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/query"
)

// Component weights before renormalization over the components present.
const (
	explainExactWeight    = 0.4
	explainConceptWeight  = 0.3
	explainSemanticWeight = 0.3
)

// ScoreComponent is one factor of an explained relevance score.
type ScoreComponent struct {
	Factor string  `json:"factor"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
	Reason string  `json:"reason"`
}

// ExplainedScore is the per-factor relevance explanation for one vehicle.
type ExplainedScore struct {
	VehicleRef string           `json:"vehicleRef"`
	FinalScore float64          `json:"finalScore"`
	Components []ScoreComponent `json:"components"`
}

// ExplainRelevance builds a per-factor explanation of why a vehicle matches
// a parsed query. The final score is a weighted average over the components
// actually present; weights are renormalized by their sum so queries that
// exercise only a subset of factors still score in [0,1]. hasVector marks
// whether a backend similarity score is available for this vehicle.
func (s *Service) ExplainRelevance(
	v domain.Vehicle, parsed domain.ParsedQuery, q query.ComposedQuery,
	vectorScore float64, hasVector bool,
) ExplainedScore {
	now := s.now()
	explained := ExplainedScore{VehicleRef: v.Ref}

	for _, c := range q.Constraints() {
		if c.IsSemantic() {
			continue
		}
		score, reason := 0.0, fmt.Sprintf("%s does not satisfy %s", v.Ref, describeConstraint(c))
		if Satisfies(v, c, now) {
			score, reason = 1.0, fmt.Sprintf("%s satisfies %s", v.Ref, describeConstraint(c))
		}
		explained.Components = append(explained.Components, ScoreComponent{
			Factor: "Exact Match: " + c.Field(),
			Score:  score,
			Weight: explainExactWeight,
			Reason: reason,
		})
	}

	for _, ct := range s.queryConcepts(parsed) {
		sim := ComputeSimilarity(v, ct.mapping, now)
		explained.Components = append(explained.Components, ScoreComponent{
			Factor: "Concept: " + ct.term,
			Score:  sim.Overall,
			Weight: explainConceptWeight,
			Reason: conceptReason(ct.term, sim),
		})
	}

	if hasVector {
		explained.Components = append(explained.Components, ScoreComponent{
			Factor: "Semantic Similarity",
			Score:  domain.ClampScore(vectorScore),
			Weight: explainSemanticWeight,
			Reason: "Embedding similarity between the query and the vehicle description",
		})
	}

	explained.FinalScore = weightedAverage(explained.Components)
	return explained
}

// weightedAverage renormalizes component weights by their sum.
func weightedAverage(components []ScoreComponent) float64 {
	sum, weighted := 0.0, 0.0
	for _, c := range components {
		sum += c.Weight
		weighted += c.Score * c.Weight
	}
	if sum == 0 {
		return 0
	}
	return domain.ClampScore(weighted / sum)
}

func conceptReason(term string, sim Similarity) string {
	switch {
	case len(sim.Matching) > 0 && len(sim.Mismatching) > 0:
		return fmt.Sprintf("Matches %q on %s; falls short on %s",
			term, strings.Join(sim.Matching, ", "), strings.Join(sim.Mismatching, ", "))
	case len(sim.Matching) > 0:
		return fmt.Sprintf("Matches %q on %s", term, strings.Join(sim.Matching, ", "))
	case len(sim.Mismatching) > 0:
		return fmt.Sprintf("Falls short of %q on %s", term, strings.Join(sim.Mismatching, ", "))
	default:
		return fmt.Sprintf("Partial match for %q", term)
	}
}

func describeConstraint(c query.Constraint) string {
	switch c.Kind() {
	case query.KindText:
		return fmt.Sprintf("%s %s %q", c.Field(), c.Op(), c.Text())
	case query.KindNumber:
		return fmt.Sprintf("%s %s %v", c.Field(), c.Op(), c.Number())
	case query.KindNumberRange:
		lo, hi := c.NumberRange()
		return fmt.Sprintf("%s between %v and %v", c.Field(), lo, hi)
	case query.KindDate:
		return fmt.Sprintf("%s %s %s", c.Field(), c.Op(), c.Date().Format(time.RFC3339))
	case query.KindDateRange:
		lo, hi := c.DateRange()
		return fmt.Sprintf("%s between %s and %s",
			c.Field(), lo.Format(time.RFC3339), hi.Format(time.RFC3339))
	case query.KindList:
		return fmt.Sprintf("%s in [%s]", c.Field(), strings.Join(c.List(), ", "))
	default:
		return c.Field()
	}
}

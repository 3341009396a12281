package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/concept"
	"github.com/drivelane/carsearch/internal/domain/query"
	"github.com/drivelane/carsearch/internal/domain/rerank"
	"github.com/drivelane/carsearch/internal/domain/strategy"
	"github.com/drivelane/carsearch/internal/usecase/compose"
	"github.com/drivelane/carsearch/internal/usecase/rank"
	"github.com/drivelane/carsearch/internal/usecase/search"
)

type mockNLU struct {
	parsed domain.ParsedQuery
	err    error
}

func (m *mockNLU) Parse(_ context.Context, text, _ string) (domain.ParsedQuery, error) {
	if m.err != nil {
		return domain.ParsedQuery{}, m.err
	}
	p := m.parsed
	p.OriginalQuery = text
	return p, nil
}

type mockOrchestrator struct {
	outcome  search.Outcome
	err      error
	lastQ    query.ComposedQuery
	lastMax  int
	executed bool
}

func (m *mockOrchestrator) Execute(
	_ context.Context, q query.ComposedQuery, _ string, maxResults int,
) (search.Outcome, error) {
	m.executed = true
	m.lastQ = q
	m.lastMax = maxResults
	return m.outcome, m.err
}

type mockInventory struct {
	vehicle domain.Vehicle
	err     error
}

func (m *mockInventory) GetDocument(_ context.Context, _ string) (domain.Vehicle, error) {
	return m.vehicle, m.err
}

func candidate(ref string, score float64) domain.VehicleResult {
	return domain.NewResult(domain.Vehicle{Ref: ref, Make: "BMW", Model: ref, Price: 10000 + score*1000}, score,
		domain.ScoreBreakdown{Semantic: score, Final: score})
}

func testPipeline(nlu *mockNLU, orch *mockOrchestrator, inv *mockInventory, maxResults int) *Service {
	logger := zap.NewNop()
	parser := compose.NewParser(0.10, nil, logger)
	composer := compose.New(parser, logger)
	ranker := rank.NewService(
		rank.NewConceptMapper(map[string]concept.Mapping{}),
		rerank.Strategy{Approach: rerank.Hybrid, FactorWeights: rerank.DefaultFactorWeights()},
		logger,
	)
	return New(nlu, composer, orch, ranker, inv, maxResults, logger)
}

func bmwOutcome(n int) search.Outcome {
	out := search.Outcome{Strategy: strategy.NewExactOnly()}
	for i := 0; i < n; i++ {
		out.Results = append(out.Results, candidate(string(rune('a'+i)), 1.0-float64(i)*0.1))
	}
	return out
}

func TestSearch_EndToEnd(t *testing.T) {
	nlu := &mockNLU{parsed: domain.ParsedQuery{
		Intent: "search",
		Entities: []domain.ExtractedEntity{
			{Type: domain.EntityMake, Value: "BMW", Confidence: 0.95},
		},
	}}
	orch := &mockOrchestrator{outcome: bmwOutcome(3)}
	s := testPipeline(nlu, orch, &mockInventory{}, 20)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "a bmw", MaxResults: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !orch.executed {
		t.Fatal("orchestrator was not invoked")
	}
	if orch.lastQ.ODataFilter == "" {
		t.Error("composed query should carry a filter for an exact entity")
	}
	if resp.TotalCount != 3 || len(resp.Results) != 3 {
		t.Errorf("counts = %d/%d, want 3/3", len(resp.Results), resp.TotalCount)
	}
	if resp.Strategy != string(strategy.ExactOnly) {
		t.Errorf("strategy = %q", resp.Strategy)
	}
	if resp.QueryType != query.Simple {
		t.Errorf("queryType = %q, want simple", resp.QueryType)
	}
	if resp.Duration <= 0 {
		t.Error("duration must be recorded")
	}
}

func TestSearch_TruncatesToRequestedLimit(t *testing.T) {
	nlu := &mockNLU{parsed: domain.ParsedQuery{
		Entities: []domain.ExtractedEntity{{Type: domain.EntityMake, Value: "BMW"}},
	}}
	orch := &mockOrchestrator{outcome: bmwOutcome(6)}
	s := testPipeline(nlu, orch, &mockInventory{}, 20)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "a bmw", MaxResults: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 2 || resp.TotalCount != 6 {
		t.Errorf("got %d of %d, want 2 of 6", len(resp.Results), resp.TotalCount)
	}
}

func TestSearch_CapsLimitAtConfiguredMax(t *testing.T) {
	nlu := &mockNLU{parsed: domain.ParsedQuery{
		Entities: []domain.ExtractedEntity{{Type: domain.EntityMake, Value: "BMW"}},
	}}
	orch := &mockOrchestrator{outcome: bmwOutcome(1)}
	s := testPipeline(nlu, orch, &mockInventory{}, 5)

	if _, err := s.Search(context.Background(), SearchRequest{Query: "a bmw", MaxResults: 500}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if orch.lastMax != 5 {
		t.Errorf("limit passed downstream = %d, want configured cap 5", orch.lastMax)
	}
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	s := testPipeline(&mockNLU{}, &mockOrchestrator{}, &mockInventory{}, 20)
	_, err := s.Search(context.Background(), SearchRequest{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSearch_NLUFailurePropagates(t *testing.T) {
	nlu := &mockNLU{err: errors.New("nlu unreachable")}
	orch := &mockOrchestrator{}
	s := testPipeline(nlu, orch, &mockInventory{}, 20)

	_, err := s.Search(context.Background(), SearchRequest{Query: "a bmw"})
	if err == nil {
		t.Fatal("expected error")
	}
	if orch.executed {
		t.Error("orchestrator must not run after a parse failure")
	}
}

func TestSearch_CanceledContextReturnsNoPartialOutput(t *testing.T) {
	nlu := &mockNLU{parsed: domain.ParsedQuery{
		Entities: []domain.ExtractedEntity{{Type: domain.EntityMake, Value: "BMW"}},
	}}
	s := testPipeline(nlu, &mockOrchestrator{outcome: bmwOutcome(2)}, &mockInventory{}, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := s.Search(ctx, SearchRequest{Query: "a bmw"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if resp.Results != nil {
		t.Error("canceled request must not return partial results")
	}
}

func TestSearch_MergesComposeAndSearchWarnings(t *testing.T) {
	nlu := &mockNLU{parsed: domain.ParsedQuery{}} // no entities
	orch := &mockOrchestrator{outcome: search.Outcome{
		Strategy: strategy.NewSemanticOnly(),
		Warnings: []string{search.WarnSemanticLegFailed},
	}}
	s := testPipeline(nlu, orch, &mockInventory{}, 20)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "something nice"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	joined := strings.Join(resp.Warnings, "; ")
	if !strings.Contains(joined, compose.WarnNoConstraints) || !strings.Contains(joined, search.WarnSemanticLegFailed) {
		t.Errorf("warnings = %v, want both stages represented", resp.Warnings)
	}
}

func TestExplain(t *testing.T) {
	nlu := &mockNLU{parsed: domain.ParsedQuery{
		Entities: []domain.ExtractedEntity{{Type: domain.EntityMake, Value: "BMW"}},
	}}
	inv := &mockInventory{vehicle: domain.Vehicle{Ref: "v1", Make: "BMW"}}
	s := testPipeline(nlu, &mockOrchestrator{}, inv, 20)

	out, err := s.Explain(context.Background(), "v1", "a bmw")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if out.VehicleRef != "v1" || len(out.Components) == 0 {
		t.Errorf("explanation = %+v", out)
	}
	if out.FinalScore != 1.0 {
		t.Errorf("finalScore = %v, want 1.0 for a full exact match", out.FinalScore)
	}
}

func TestExplain_MissingArguments(t *testing.T) {
	s := testPipeline(&mockNLU{}, &mockOrchestrator{}, &mockInventory{}, 20)
	if _, err := s.Explain(context.Background(), "", "query"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing vehicleId: got %v", err)
	}
	if _, err := s.Explain(context.Background(), "v1", ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing query: got %v", err)
	}
}

func TestRerank_WithoutQueryText(t *testing.T) {
	s := testPipeline(&mockNLU{}, &mockOrchestrator{}, &mockInventory{}, 20)
	results := []domain.VehicleResult{candidate("a", 0.9), candidate("b", 0.4)}

	out, err := s.Rerank(context.Background(), results, rerank.Strategy{
		Approach:      rerank.BusinessRules,
		FactorWeights: rerank.DefaultFactorWeights(),
		Rules: []rerank.BusinessRule{
			{Name: "flat boost", Condition: func(domain.Vehicle) bool { return true }, Adjustment: 0.05},
		},
	}, "")
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d results", len(out))
	}
	if out[0].Score() <= out[1].Score() {
		t.Error("results must stay ordered by score")
	}
}

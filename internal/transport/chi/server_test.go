package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/concept"
	"github.com/drivelane/carsearch/internal/domain/query"
	"github.com/drivelane/carsearch/internal/domain/rerank"
	"github.com/drivelane/carsearch/internal/domain/strategy"
	"github.com/drivelane/carsearch/internal/usecase/compose"
	"github.com/drivelane/carsearch/internal/usecase/pipeline"
	"github.com/drivelane/carsearch/internal/usecase/rank"
	"github.com/drivelane/carsearch/internal/usecase/search"
)

type stubNLU struct {
	parsed domain.ParsedQuery
	err    error
}

func (s *stubNLU) Parse(context.Context, string, string) (domain.ParsedQuery, error) {
	return s.parsed, s.err
}

type stubOrchestrator struct {
	outcome search.Outcome
	err     error
}

func (s *stubOrchestrator) Execute(context.Context, query.ComposedQuery, string, int) (search.Outcome, error) {
	return s.outcome, s.err
}

type stubInventory struct {
	vehicle domain.Vehicle
	err     error
}

func (s *stubInventory) GetDocument(context.Context, string) (domain.Vehicle, error) {
	return s.vehicle, s.err
}

type stubPinger struct{ err error }

func (s *stubPinger) Ping(context.Context) error { return s.err }

func newTestServer(nlu *stubNLU, orch *stubOrchestrator, inv *stubInventory, store Pinger) *Server {
	logger := zap.NewNop()
	parser := compose.NewParser(0.10, nil, logger)
	defaults := rerank.Strategy{Approach: rerank.Hybrid, FactorWeights: rerank.DefaultFactorWeights()}
	ranker := rank.NewService(rank.NewConceptMapper(map[string]concept.Mapping{}), defaults, logger)
	p := pipeline.New(nlu, compose.New(parser, logger), orch, ranker, inv, 20, logger)
	return NewServer(p, nil, defaults, store, logger)
}

func bmwParsed() domain.ParsedQuery {
	return domain.ParsedQuery{
		Intent:   "search",
		Entities: []domain.ExtractedEntity{{Type: domain.EntityMake, Value: "BMW", Confidence: 0.95}},
	}
}

func bmwHits(n int) search.Outcome {
	out := search.Outcome{Strategy: strategy.NewExactOnly()}
	for i := 0; i < n; i++ {
		out.Results = append(out.Results, domain.NewResult(
			domain.Vehicle{Ref: fmt.Sprintf("v%d", i), Make: "BMW", Model: fmt.Sprintf("m%d", i), Price: 15000},
			1.0, domain.ScoreBreakdown{ExactMatch: 1, Final: 1}))
	}
	return out
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(&stubNLU{parsed: bmwParsed()}, &stubOrchestrator{outcome: bmwHits(2)}, &stubInventory{}, nil)

	rec := postJSON(t, s.Router(), "/search", searchRequest{Query: "a bmw", MaxResults: 10})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalCount != 2 || len(resp.Results) != 2 {
		t.Errorf("counts = %d/%d", len(resp.Results), resp.TotalCount)
	}
	if resp.Strategy != string(strategy.ExactOnly) {
		t.Errorf("strategy = %q", resp.Strategy)
	}
	for _, r := range resp.Results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score %v outside [0,1]", r.Score)
		}
	}
}

func TestSearchEndpoint_EmptyQuery(t *testing.T) {
	s := newTestServer(&stubNLU{}, &stubOrchestrator{}, &stubInventory{}, nil)
	rec := postJSON(t, s.Router(), "/search", searchRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpoint_MalformedBody(t *testing.T) {
	s := newTestServer(&stubNLU{}, &stubOrchestrator{}, &stubInventory{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpoint_BackendDown(t *testing.T) {
	orch := &stubOrchestrator{err: fmt.Errorf("%w: both legs failed", domain.ErrBackendUnavailable)}
	s := newTestServer(&stubNLU{parsed: bmwParsed()}, orch, &stubInventory{}, nil)

	rec := postJSON(t, s.Router(), "/search", searchRequest{Query: "a bmw"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "search_backend_unavailable" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestRerankEndpoint(t *testing.T) {
	s := newTestServer(&stubNLU{}, &stubOrchestrator{}, &stubInventory{}, nil)

	rec := postJSON(t, s.Router(), "/search/rerank", rerankRequest{
		Results: []resultDTO{
			{Vehicle: domain.Vehicle{Ref: "a", Make: "BMW", Price: 12000}, Score: 0.4},
			{Vehicle: domain.Vehicle{Ref: "b", Make: "Audi", Price: 22000}, Score: 0.9},
		},
		Strategy: strategyDTO{
			Approach:      string(rerank.WeightedScore),
			FactorWeights: map[string]float64{rerank.FactorPrice: 1.0},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp rerankResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Results[0].Vehicle.Ref != "a" {
		t.Errorf("cheapest should lead after price-only rerank, got %s", resp.Results[0].Vehicle.Ref)
	}
}

func TestRerankEndpoint_NoResults(t *testing.T) {
	s := newTestServer(&stubNLU{}, &stubOrchestrator{}, &stubInventory{}, nil)
	rec := postJSON(t, s.Router(), "/search/rerank", rerankRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRerankEndpoint_InvalidDiversity(t *testing.T) {
	s := newTestServer(&stubNLU{}, &stubOrchestrator{}, &stubInventory{}, nil)
	rec := postJSON(t, s.Router(), "/search/rerank", rerankRequest{
		Results: []resultDTO{{Vehicle: domain.Vehicle{Ref: "a"}, Score: 0.5}},
		Strategy: strategyDTO{
			Approach:       string(rerank.WeightedScore),
			ApplyDiversity: true,
			MaxPerMake:     -1,
			MaxPerModel:    2,
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for invalid caps", rec.Code)
	}
}

func TestExplainEndpoint(t *testing.T) {
	inv := &stubInventory{vehicle: domain.Vehicle{Ref: "v1", Make: "BMW"}}
	s := newTestServer(&stubNLU{parsed: bmwParsed()}, &stubOrchestrator{}, inv, nil)

	rec := postJSON(t, s.Router(), "/search/explain", explainRequest{VehicleID: "v1", Query: "a bmw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var explained rank.ExplainedScore
	if err := json.Unmarshal(rec.Body.Bytes(), &explained); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if explained.VehicleRef != "v1" || len(explained.Components) == 0 {
		t.Errorf("explanation = %+v", explained)
	}
}

func TestExplainEndpoint_UnknownVehicle(t *testing.T) {
	inv := &stubInventory{err: fmt.Errorf("%w: vehicle xyz", domain.ErrNotFound)}
	s := newTestServer(&stubNLU{parsed: bmwParsed()}, &stubOrchestrator{}, inv, nil)

	rec := postJSON(t, s.Router(), "/search/explain", explainRequest{VehicleID: "xyz", Query: "a bmw"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(&stubNLU{}, &stubOrchestrator{}, &stubInventory{}, &stubPinger{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	degraded := newTestServer(&stubNLU{}, &stubOrchestrator{}, &stubInventory{}, &stubPinger{err: errors.New("cache down")})
	rec = httptest.NewRecorder()
	degraded.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when the cache tier is down", rec.Code)
	}
}

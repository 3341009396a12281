package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/query"
	"github.com/drivelane/carsearch/internal/domain/rerank"
	"github.com/drivelane/carsearch/internal/metrics"
	"github.com/drivelane/carsearch/internal/usecase/compose"
	"github.com/drivelane/carsearch/internal/usecase/rank"
	"github.com/drivelane/carsearch/internal/usecase/search"
)

// SearchRequest is one end-to-end search invocation.
type SearchRequest struct {
	Query      string
	SessionID  string
	MaxResults int
}

// SearchResponse is the ordered, diversified outcome of one search.
type SearchResponse struct {
	Results    []domain.VehicleResult
	TotalCount int
	Strategy   string
	QueryType  query.QueryType
	Warnings   []string
	Duration   time.Duration
}

// Service executes the full search pipeline per request. No state is shared
// between invocations beyond read-only configuration.
type Service struct {
	nlu          NLUClient
	composer     *compose.Service
	orchestrator Orchestrator
	ranker       *rank.Service
	inventory    Explainer
	maxResults   int
	logger       *zap.Logger
}

// New creates the pipeline service. maxResults caps any per-request value.
func New(
	nlu NLUClient, composer *compose.Service, orchestrator Orchestrator,
	ranker *rank.Service, inventory Explainer, maxResults int, logger *zap.Logger,
) *Service {
	return &Service{
		nlu:          nlu,
		composer:     composer,
		orchestrator: orchestrator,
		ranker:       ranker,
		inventory:    inventory,
		maxResults:   maxResults,
		logger:       logger,
	}
}

// MaxResults returns the configured per-request result cap.
func (s *Service) MaxResults() int { return s.maxResults }

// Search runs parse, compose, retrieve, rank, and diversify for one query.
// Cancellation is checked between stages; a canceled request returns the
// context error rather than partially ranked output.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if req.Query == "" {
		return SearchResponse{}, fmt.Errorf("%w: query text is required", domain.ErrValidation)
	}
	limit := req.MaxResults
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}
	started := time.Now()

	parsed, err := s.stageParse(ctx, req.Query, req.SessionID)
	if err != nil {
		return SearchResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return SearchResponse{}, err
	}

	composed := s.stageCompose(parsed)
	if err := ctx.Err(); err != nil {
		return SearchResponse{}, err
	}

	outcome, err := s.stageSearch(ctx, composed, req.Query, limit)
	if err != nil {
		return SearchResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return SearchResponse{}, err
	}

	ranked, err := s.stageRank(parsed, composed, outcome.Results)
	if err != nil {
		return SearchResponse{}, err
	}

	total := len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	resp := SearchResponse{
		Results:    ranked,
		TotalCount: total,
		Strategy:   string(outcome.Strategy.SType()),
		QueryType:  composed.Type,
		Warnings:   append(composed.Warnings, outcome.Warnings...),
		Duration:   time.Since(started),
	}
	s.logger.Info("Search completed",
		zap.String("session_id", req.SessionID),
		zap.String("strategy", resp.Strategy),
		zap.Int("results", len(resp.Results)),
		zap.Duration("duration", resp.Duration))
	return resp, nil
}

// Rerank re-scores caller-supplied results under an explicit strategy. Query
// text is optional; without it the exact-match and concept factors are
// neutral.
func (s *Service) Rerank(
	ctx context.Context, results []domain.VehicleResult, strategy rerank.Strategy, queryText string,
) ([]domain.VehicleResult, error) {
	parsed := domain.ParsedQuery{}
	composed := query.ComposedQuery{}
	if queryText != "" {
		var err error
		parsed, err = s.stageParse(ctx, queryText, "")
		if err != nil {
			return nil, err
		}
		composed = s.stageCompose(parsed)
	}
	return s.ranker.RerankResults(results, strategy, parsed, composed)
}

// Explain scores one vehicle against a query with per-factor reasons.
func (s *Service) Explain(ctx context.Context, vehicleRef, queryText string) (rank.ExplainedScore, error) {
	if vehicleRef == "" || queryText == "" {
		return rank.ExplainedScore{}, fmt.Errorf("%w: vehicleId and query are required", domain.ErrValidation)
	}

	vehicle, err := s.inventory.GetDocument(ctx, vehicleRef)
	if err != nil {
		return rank.ExplainedScore{}, fmt.Errorf("fetch vehicle %s: %w", vehicleRef, err)
	}

	parsed, err := s.stageParse(ctx, queryText, "")
	if err != nil {
		return rank.ExplainedScore{}, err
	}
	composed := s.stageCompose(parsed)

	return s.ranker.ExplainRelevance(vehicle, parsed, composed, 0, false), nil
}

func (s *Service) stageParse(ctx context.Context, text, sessionID string) (domain.ParsedQuery, error) {
	defer observeStage("nlu", time.Now())
	parsed, err := s.nlu.Parse(ctx, text, sessionID)
	if err != nil {
		return domain.ParsedQuery{}, fmt.Errorf("parse query: %w", err)
	}
	return parsed, nil
}

func (s *Service) stageCompose(parsed domain.ParsedQuery) query.ComposedQuery {
	defer observeStage("compose", time.Now())
	composed, _ := s.composer.Compose(parsed)
	return composed
}

func (s *Service) stageSearch(
	ctx context.Context, composed query.ComposedQuery, rawQuery string, limit int,
) (search.Outcome, error) {
	defer observeStage("search", time.Now())
	return s.orchestrator.Execute(ctx, composed, rawQuery, limit)
}

func (s *Service) stageRank(
	parsed domain.ParsedQuery, composed query.ComposedQuery, results []domain.VehicleResult,
) ([]domain.VehicleResult, error) {
	defer observeStage("rank", time.Now())
	return s.ranker.RankResults(results, parsed, composed)
}

func observeStage(stage string, started time.Time) {
	metrics.PipelineDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// Package search orchestrates retrieval: it selects an exact, semantic, or
// hybrid strategy from the composed query, executes it against the inventory
// backend, and fuses hybrid candidate lists via Reciprocal Rank Fusion.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/query"
	"github.com/drivelane/carsearch/internal/domain/strategy"
	"github.com/drivelane/carsearch/internal/metrics"
)

// Hybrid degradation warnings surfaced to the caller.
const (
	WarnSemanticLegFailed = "Semantic search unavailable; results from exact filtering only"
	WarnExactLegFailed    = "Exact filtering unavailable; results from semantic search only"
)

// Orchestrator executes one search request against the inventory backend.
type Orchestrator struct {
	repo            Repository
	embed           Embedder
	overfetchFactor int
	rrfK            int
	logger          *zap.Logger
}

// Outcome is the result of one orchestrated search.
type Outcome struct {
	Results  []domain.VehicleResult
	Strategy strategy.Strategy
	Warnings []string
}

// New creates a search orchestrator.
func New(repo Repository, embed Embedder, overfetchFactor, rrfK int, logger *zap.Logger) *Orchestrator {
	if overfetchFactor < 3 {
		overfetchFactor = 3
	}
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}
	return &Orchestrator{repo: repo, embed: embed, overfetchFactor: overfetchFactor, rrfK: rrfK, logger: logger}
}

// Execute selects the strategy for the composed query and runs it.
// maxResults bounds the caller's page; backend calls over-fetch so
// downstream filtering and diversity have candidates to discard.
func (o *Orchestrator) Execute(
	ctx context.Context, q query.ComposedQuery, rawQuery string, maxResults int,
) (Outcome, error) {
	st := DetermineStrategy(q)
	metrics.SearchStrategyTotal.WithLabelValues(string(st.SType())).Inc()

	fetch := maxResults * o.overfetchFactor

	var (
		out Outcome
		err error
	)
	switch st.SType() {
	case strategy.ExactOnly:
		out, err = o.executeExact(ctx, q, fetch)
	case strategy.SemanticOnly:
		out, err = o.executeSemantic(ctx, rawQuery, fetch)
	case strategy.Hybrid:
		out, err = o.executeHybrid(ctx, q, rawQuery, st, fetch)
	default:
		return Outcome{}, fmt.Errorf("unsupported strategy type: %s", st.SType())
	}
	if err != nil {
		return Outcome{}, err
	}

	out.Strategy = st
	o.logger.Debug("Search executed",
		zap.String("strategy", string(st.SType())),
		zap.Int("candidates", len(out.Results)))
	return out, nil
}

// executeExact runs a filter-only query. Every hit satisfies the filter, so
// all exact matches are equally valid and score 1.0.
func (o *Orchestrator) executeExact(ctx context.Context, q query.ComposedQuery, fetch int) (Outcome, error) {
	hits, err := o.repo.SearchFilter(ctx, q.ODataFilter, fetch)
	if err != nil {
		return Outcome{}, fmt.Errorf("exact search: %w", err)
	}

	results := make([]domain.VehicleResult, len(hits))
	for i, h := range hits {
		results[i] = h.WithScore(1.0, domain.ScoreBreakdown{ExactMatch: 1.0, Final: 1.0})
	}
	return Outcome{Results: results}, nil
}

// executeSemantic embeds the query text and runs a k-NN vector search,
// keeping the backend's similarity score.
func (o *Orchestrator) executeSemantic(ctx context.Context, rawQuery string, fetch int) (Outcome, error) {
	hits, err := o.vectorLeg(ctx, rawQuery, fetch, "")
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Results: hits}, nil
}

// executeHybrid runs the exact-filter and vector legs concurrently. The two
// legs are independent reads over the same index snapshot; results join only
// at the RRF merge. One failed leg degrades to the surviving leg with a
// warning instead of failing the request.
func (o *Orchestrator) executeHybrid(
	ctx context.Context, q query.ComposedQuery, rawQuery string, st strategy.Strategy, fetch int,
) (Outcome, error) {
	var (
		exactHits, vectorHits []domain.VehicleResult
		exactErr, vectorErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := o.repo.SearchFilter(gctx, q.ODataFilter, fetch)
		if err != nil {
			exactErr = err
			return nil // degradation is handled below, not by the group
		}
		exactHits = make([]domain.VehicleResult, len(hits))
		for i, h := range hits {
			exactHits[i] = h.WithScore(1.0, domain.ScoreBreakdown{ExactMatch: 1.0, Final: 1.0})
		}
		return nil
	})
	g.Go(func() error {
		vectorHits, vectorErr = o.vectorLeg(gctx, rawQuery, fetch, "")
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("search canceled: %w", err)
	}

	switch {
	case exactErr != nil && vectorErr != nil:
		return Outcome{}, fmt.Errorf("%w: exact: %v; semantic: %v",
			domain.ErrBackendUnavailable, exactErr, vectorErr)
	case vectorErr != nil:
		metrics.SearchDegradedTotal.WithLabelValues("semantic").Inc()
		o.logger.Warn("Hybrid degraded to exact-only", zap.Error(vectorErr))
		return Outcome{Results: exactHits, Warnings: []string{WarnSemanticLegFailed}}, nil
	case exactErr != nil:
		metrics.SearchDegradedTotal.WithLabelValues("exact").Inc()
		o.logger.Warn("Hybrid degraded to semantic-only", zap.Error(exactErr))
		return Outcome{Results: vectorHits, Warnings: []string{WarnExactLegFailed}}, nil
	}

	merged := Merge(
		exactHits, vectorHits,
		st.Weight(strategy.ApproachExact), st.Weight(strategy.ApproachSemantic),
		o.rrfK,
	)
	return Outcome{Results: merged}, nil
}

// vectorLeg embeds the raw query and runs the k-NN search.
func (o *Orchestrator) vectorLeg(
	ctx context.Context, rawQuery string, k int, filter string,
) ([]domain.VehicleResult, error) {
	emb, err := o.embed.Embed(ctx, rawQuery)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := o.repo.SearchVector(ctx, emb.Embedding, k, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domain.VehicleResult, len(hits))
	for i, h := range hits {
		score := domain.ClampScore(h.Score())
		results[i] = h.WithScore(score, domain.ScoreBreakdown{Semantic: score, Final: score})
	}
	return results, nil
}

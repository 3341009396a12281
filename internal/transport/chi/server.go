// Package chi is the HTTP transport: routing, request decoding, and
// domain-error to status-code mapping.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/rerank"
	"github.com/drivelane/carsearch/internal/logger"
	"github.com/drivelane/carsearch/internal/metrics"
	"github.com/drivelane/carsearch/internal/usecase/pipeline"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Pinger checks a dependency for the health endpoint. Optional.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the search pipeline over HTTP.
type Server struct {
	pipeline      *pipeline.Service
	rules         []rerank.BusinessRule
	defaults      rerank.Strategy
	store         Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server. store may be nil when no shared
// cache tier is configured.
func NewServer(
	p *pipeline.Service, rules []rerank.BusinessRule, defaults rerank.Strategy,
	store Pinger, logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: p,
		rules:    rules,
		defaults: defaults,
		store:    store,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrConfiguration, http.StatusBadRequest, "invalid_configuration"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusBadGateway, "search_backend_unavailable"),
		sentinelHandler(domain.ErrExternalService, http.StatusBadGateway, "external_service_error"),
		sentinelHandler(context.Canceled, 499, "request_canceled"),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, "request_timeout"),
	}
	return s
}

// Router assembles the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(s.requestLogger)

	r.Post("/search", s.Search)
	r.Post("/search/rerank", s.Rerank)
	r.Post("/search/explain", s.Explain)
	r.Get("/healthz", s.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	return r
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.pipeline.Search(r.Context(), pipeline.SearchRequest{
		Query:      req.Query,
		SessionID:  req.SessionID,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results:          toResultDTOs(resp.Results),
		TotalCount:       resp.TotalCount,
		Strategy:         resp.Strategy,
		QueryType:        string(resp.QueryType),
		Warnings:         resp.Warnings,
		SearchDurationMs: resp.Duration.Milliseconds(),
	})
}

// Rerank handles POST /search/rerank.
func (s *Server) Rerank(w http.ResponseWriter, r *http.Request) {
	var req rerankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Results) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "results are required")
		return
	}

	strategy := req.Strategy.toDomain(s.rules, s.defaults)
	ranked, err := s.pipeline.Rerank(r.Context(), fromResultDTOs(req.Results), strategy, req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rerankResponse{Results: toResultDTOs(ranked)})
}

// Explain handles POST /search/explain.
func (s *Server) Explain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	explained, err := s.pipeline.Explain(r.Context(), req.VehicleID, req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, explained)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["cache"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, status)
}

// requestLogger stores a logger tagged with the request ID so deeper
// layers can log with request correlation.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), scoped)))
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Warn("Request failed", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// sentinelHandler returns an errorHandler that matches a single sentinel.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

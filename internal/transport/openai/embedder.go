// Package openai embeds query text through an OpenAI-compatible
// embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/metrics"
	"github.com/drivelane/carsearch/internal/transport/retry"
)

// Query text longer than this is truncated before embedding. Vehicle
// queries are short; anything beyond this is pasted noise.
const maxInputRunes = 512

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Provider   string
	Retry      retry.Config
	Logger     *zap.Logger
}

// Embedder turns query text into vectors via the provider API. It
// implements domain.Embedder.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	provider   string
	retry      retry.Config
	logger     *zap.Logger
}

// NewEmbedder creates the provider client. An empty BaseURL targets the
// public OpenAI endpoint.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		provider:   provider,
		retry:      cfg.Retry,
		logger:     cfg.Logger,
	}
}

// Embed requests one embedding for the given query text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: empty embedding input", domain.ErrValidation)
	}
	if runes := []rune(input); len(runes) > maxInputRunes {
		input = string(runes[:maxInputRunes])
	}

	req := openai.EmbeddingRequest{
		Input:          []string{input},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	var result domain.EmbeddingResult
	err := retry.Do(ctx, e.retry, func() error {
		start := time.Now()
		resp, err := e.client.CreateEmbeddings(ctx, req)
		if err != nil {
			e.observe("error", 0)
			return providerError(err)
		}
		if len(resp.Data) == 0 {
			e.observe("error", 0)
			return fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
		}
		e.observe("success", time.Since(start))

		result = domain.EmbeddingResult{
			Embedding:    resp.Data[0].Embedding,
			PromptTokens: resp.Usage.PromptTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
		return nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return result, nil
}

// HealthCheck verifies the provider answers at all, using the free
// model-listing endpoint.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("embedding provider health: %w", err)
	}
	return nil
}

func (e *Embedder) observe(status string, d time.Duration) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), status).Inc()
	if status == "success" {
		metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(e.model)).Observe(d.Seconds())
	}
}

// providerError maps client library errors onto ErrEmbeddingProviderError
// so the transport layer answers 502 for any provider-side failure.
// Transport errors, 429 and 5xx statuses are flagged as transient.
func providerError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		mapped := fmt.Errorf("embedding API status %d: %s: %w",
			reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)), domain.ErrEmbeddingProviderError)
		if transientStatus(reqErr.HTTPStatusCode) {
			return retry.Mark(mapped)
		}
		return mapped
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		mapped := fmt.Errorf("embedding API status %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrEmbeddingProviderError)
		if transientStatus(apiErr.HTTPStatusCode) {
			return retry.Mark(mapped)
		}
		return mapped
	}
	return retry.Mark(fmt.Errorf("embedding request: %v: %w", err, domain.ErrEmbeddingProviderError))
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

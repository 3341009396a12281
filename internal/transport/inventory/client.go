// Package inventory is the HTTP client for the external vehicle search
// backend: filtered queries, vector k-NN queries, and document lookup.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/metrics"
	"github.com/drivelane/carsearch/internal/transport/retry"
)

// Config holds backend connection settings.
type Config struct {
	BaseURL string
	Index   string
	APIKey  string
	Timeout time.Duration
	Retry   retry.Config
	Logger  *zap.Logger
}

// Client calls the inventory search backend.
type Client struct {
	http    *http.Client
	baseURL string
	index   string
	apiKey  string
	retry   retry.Config
	logger  *zap.Logger
}

// NewClient creates an inventory backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: inventory base URL is required", domain.ErrConfiguration)
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("%w: inventory index name is required", domain.ErrConfiguration)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		index:   cfg.Index,
		apiKey:  cfg.APIKey,
		retry:   cfg.Retry,
		logger:  cfg.Logger,
	}, nil
}

type searchRequest struct {
	Filter string    `json:"filter,omitempty"`
	Top    int       `json:"top,omitempty"`
	Vector []float32 `json:"vector,omitempty"`
	K      int       `json:"k,omitempty"`
}

type searchDocument struct {
	domain.Vehicle
	Score float64 `json:"@search.score"`
}

type searchResponse struct {
	Value []searchDocument `json:"value"`
}

// SearchFilter runs a filter-only query. Hits carry no similarity score.
func (c *Client) SearchFilter(ctx context.Context, filter string, top int) ([]domain.VehicleResult, error) {
	resp, err := c.search(ctx, "filter", searchRequest{Filter: filter, Top: top})
	if err != nil {
		return nil, err
	}
	results := make([]domain.VehicleResult, len(resp.Value))
	for i, doc := range resp.Value {
		results[i] = domain.NewResult(doc.Vehicle, 0, domain.ScoreBreakdown{})
	}
	return results, nil
}

// SearchVector runs a k-NN query, keeping the backend similarity score.
func (c *Client) SearchVector(ctx context.Context, vector []float32, k int, filter string) ([]domain.VehicleResult, error) {
	resp, err := c.search(ctx, "vector", searchRequest{Vector: vector, K: k, Filter: filter})
	if err != nil {
		return nil, err
	}
	results := make([]domain.VehicleResult, len(resp.Value))
	for i, doc := range resp.Value {
		score := domain.ClampScore(doc.Score)
		results[i] = domain.NewResult(doc.Vehicle, score, domain.ScoreBreakdown{Semantic: score, Final: score})
	}
	return results, nil
}

// GetDocument fetches one inventory document by reference.
func (c *Client) GetDocument(ctx context.Context, ref string) (domain.Vehicle, error) {
	endpoint := fmt.Sprintf("%s/indexes/%s/docs/%s", c.baseURL, url.PathEscape(c.index), url.PathEscape(ref))

	var vehicle domain.Vehicle
	err := retry.Do(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		c.authorize(req)

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.InventoryRequestsTotal.WithLabelValues("lookup", "error").Inc()
			return retry.Mark(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			metrics.InventoryRequestsTotal.WithLabelValues("lookup", "not_found").Inc()
			return fmt.Errorf("%w: vehicle %s", domain.ErrNotFound, ref)
		case resp.StatusCode != http.StatusOK:
			return c.statusError("lookup", resp)
		}

		metrics.InventoryRequestsTotal.WithLabelValues("lookup", "success").Inc()
		return json.NewDecoder(resp.Body).Decode(&vehicle)
	})
	if err != nil {
		return domain.Vehicle{}, err
	}
	return vehicle, nil
}

func (c *Client) search(ctx context.Context, kind string, body searchRequest) (searchResponse, error) {
	endpoint := fmt.Sprintf("%s/indexes/%s/docs/search", c.baseURL, url.PathEscape(c.index))

	payload, err := json.Marshal(body)
	if err != nil {
		return searchResponse{}, err
	}

	var out searchResponse
	err = retry.Do(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		c.authorize(req)

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.InventoryRequestsTotal.WithLabelValues(kind, "error").Inc()
			return retry.Mark(fmt.Errorf("%w: %v", domain.ErrExternalService, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return c.statusError(kind, resp)
		}

		metrics.InventoryRequestsTotal.WithLabelValues(kind, "success").Inc()
		out = searchResponse{}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return searchResponse{}, fmt.Errorf("inventory %s search: %w", kind, err)
	}
	return out, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}

// statusError classifies a non-200 response. 429 and 5xx are retryable.
func (c *Client) statusError(kind string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	metrics.InventoryRequestsTotal.WithLabelValues(kind, "error").Inc()

	err := fmt.Errorf("%w: backend returned %d: %s", domain.ErrExternalService, resp.StatusCode, body)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return retry.Mark(err)
	}
	return err
}

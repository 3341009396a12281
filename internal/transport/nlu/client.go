// Package nlu is the HTTP client for the upstream natural-language
// understanding service that classifies intent and extracts entities.
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/transport/retry"
)

// Config holds NLU service connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   retry.Config
	Logger  *zap.Logger
}

// Client calls the NLU parse endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	retry   retry.Config
	logger  *zap.Logger
}

// NewClient creates an NLU client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: NLU base URL is required", domain.ErrConfiguration)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		retry:   cfg.Retry,
		logger:  cfg.Logger,
	}, nil
}

type parseRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId,omitempty"`
}

type parseResponse struct {
	OriginalQuery string         `json:"originalQuery"`
	Intent        string         `json:"intent"`
	Entities      []parsedEntity `json:"entities"`
	Confidence    float64        `json:"confidence"`
	Disjunction   bool           `json:"disjunction"`
}

type parsedEntity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	SpanStart  int     `json:"spanStart"`
	SpanEnd    int     `json:"spanEnd"`
}

// Parse sends raw query text for entity extraction. sessionID is optional
// and lets the service correlate follow-up queries.
func (c *Client) Parse(ctx context.Context, text, sessionID string) (domain.ParsedQuery, error) {
	payload, err := json.Marshal(parseRequest{Query: text, SessionID: sessionID})
	if err != nil {
		return domain.ParsedQuery{}, err
	}

	var out parseResponse
	err = retry.Do(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.Mark(fmt.Errorf("%w: nlu parse: %v", domain.ErrExternalService, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := fmt.Errorf("%w: nlu returned %d: %s",
				domain.ErrExternalService, resp.StatusCode, body)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return retry.Mark(statusErr)
			}
			return statusErr
		}

		out = parseResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("%w: decode nlu response: %v", domain.ErrExternalService, err)
		}
		return nil
	})
	if err != nil {
		return domain.ParsedQuery{}, err
	}

	parsed := domain.ParsedQuery{
		OriginalQuery: out.OriginalQuery,
		Intent:        out.Intent,
		Confidence:    out.Confidence,
		Disjunction:   out.Disjunction,
	}
	if parsed.OriginalQuery == "" {
		parsed.OriginalQuery = text
	}
	for _, e := range out.Entities {
		parsed.Entities = append(parsed.Entities, domain.ExtractedEntity{
			Type:       domain.EntityType(e.Type),
			Value:      e.Value,
			Confidence: e.Confidence,
			SpanStart:  e.SpanStart,
			SpanEnd:    e.SpanEnd,
		})
	}
	return parsed, nil
}

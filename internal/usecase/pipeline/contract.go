// Package pipeline wires query understanding, composition, retrieval, and
// ranking into one request-scoped search execution.
package pipeline

import (
	"context"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/query"
	"github.com/drivelane/carsearch/internal/usecase/search"
)

// NLUClient parses raw query text into structured intent and entities.
type NLUClient interface {
	Parse(ctx context.Context, text, sessionID string) (domain.ParsedQuery, error)
}

// Orchestrator executes a composed query against the search backend.
type Orchestrator interface {
	Execute(ctx context.Context, q query.ComposedQuery, rawQuery string, maxResults int) (search.Outcome, error)
}

// Explainer fetches one inventory document by reference, with its vector
// similarity to a query when the backend can provide one.
type Explainer interface {
	GetDocument(ctx context.Context, ref string) (domain.Vehicle, error)
}

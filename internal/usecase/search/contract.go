package search

import (
	"context"

	"github.com/drivelane/carsearch/internal/domain"
)

// Repository defines the inventory backend contract for search execution.
type Repository interface {
	// SearchFilter runs a filter-only query and returns hits in backend order.
	SearchFilter(ctx context.Context, filter string, top int) ([]domain.VehicleResult, error)

	// SearchVector runs a k-nearest-neighbor query over the query embedding,
	// optionally pre-filtered, returning hits with similarity scores.
	SearchVector(ctx context.Context, vector []float32, k int, filter string) ([]domain.VehicleResult, error)
}

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

package domain

import "errors"

var (
	// ErrValidation signals a malformed or unparseable input value.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration signals invalid reranking or diversity parameters.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrExternalService signals a backend or NLU failure after retries.
	ErrExternalService = errors.New("external service error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrBackendUnavailable signals that every search leg failed.
	ErrBackendUnavailable = errors.New("search backend unavailable")
)

package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrBrokerUnavailable signals that the message broker is unreachable.
	// Recovered locally: order creation degrades to DB-only persistence.
	ErrBrokerUnavailable = errors.New("broker unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Upstream errors
	ErrUpstreamTimeout     = errors.New("upstream request timed out")
	ErrUpstreamUnreachable = errors.New("upstream service unreachable")
	ErrMalformedResponse   = errors.New("malformed upstream response")

	// Embedding errors
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	ErrEmbeddingMalformed   = errors.New("malformed embedding response")

	// Cache errors
	ErrCacheUnavailable = errors.New("cache store unavailable")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// BadStatusError is a non-2xx answer from an upstream service.
type BadStatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

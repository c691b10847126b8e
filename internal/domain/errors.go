package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrProviderUnavailable indicates a provider could not be reached, timed out,
	// or is refusing traffic (circuit open).
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderRejected indicates a provider answered but refused the request or
	// returned a payload that could not be decoded.
	ErrProviderRejected = errors.New("provider rejected request")

	// ErrMalformedSnapshot indicates a snapshot file exists but cannot be parsed.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrNoDocumentsFound indicates ingestion found nothing to ingest.
	ErrNoDocumentsFound = errors.New("no documents found")

	// ErrDimensionMismatch indicates two vectors of different length were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbedderMismatch indicates the store was built by a different embedding model
	// than the one answering queries.
	ErrEmbedderMismatch = errors.New("embedding model mismatch")

	// ErrInvalidQuery indicates query parameters failed validation.
	ErrInvalidQuery = errors.New("invalid query")
)

// ProviderErrorKind distinguishes unreachable providers from rejecting ones.
type ProviderErrorKind int

const (
	ProviderUnavailable ProviderErrorKind = iota
	ProviderRejected
)

func (k ProviderErrorKind) String() string {
	if k == ProviderRejected {
		return "rejected"
	}
	return "unavailable"
}

// ProviderError is returned by embedding and generation backends.
type ProviderError struct {
	Provider   string
	Kind       ProviderErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is lets errors.Is match ProviderError against ErrProviderUnavailable and ErrProviderRejected.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrProviderUnavailable:
		return e.Kind == ProviderUnavailable
	case ErrProviderRejected:
		return e.Kind == ProviderRejected
	}
	return false
}

// Unavailable builds an unavailable ProviderError.
func Unavailable(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ProviderUnavailable, Err: err}
}

// Rejected builds a rejected ProviderError.
func Rejected(provider string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ProviderRejected, StatusCode: status, Err: err}
}

package remote

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/sony/gobreaker"
	"google.golang.org/grpc/codes"

	"ragmcp/internal/domain"
	"ragmcp/internal/logger"
)

// NewBreaker returns the circuit breaker used for a provider. It opens when at least
// three requests in a window fail at a 60% rate. Rejected requests and caller
// cancellations are not counted as failures.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrProviderRejected) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "provider", name, "from", from.String(), "to", to.String())
		},
	})
}

// Guard runs fn under breaker and classifies its error. It is used by providers that
// talk to their service through an SDK rather than through Client.
func Guard(breaker *gobreaker.CircuitBreaker, provider string, fn func() error) error {
	_, err := breaker.Execute(func() (interface{}, error) {
		return nil, Classify(provider, fn())
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.Unavailable(provider, err)
	}
	return err
}

// Classify maps an SDK or transport error onto a *domain.ProviderError.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return domain.Unavailable(provider, err)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			if code == 429 || code >= 500 {
				return &domain.ProviderError{Provider: provider, Kind: domain.ProviderUnavailable, StatusCode: code, Err: err}
			}
			return domain.Rejected(provider, code, err)
		}
		if st := apiErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal:
				return domain.Unavailable(provider, err)
			}
		}
	}
	return domain.Rejected(provider, 0, err)
}

// Package collab provides infrastructure around the external collaborative
// document store, including a resilient client decorator.
package collab

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	domaincollab "github.com/felixgeelhaar/decision-go/domain/collab"
)

// ResilientStore wraps a DocumentStore with retry and circuit breaker
// protection. The document service sits outside this system's availability
// domain; a flaky deployment should cost bounded retries, not cascade into
// every submission request.
type ResilientStore struct {
	inner   domaincollab.DocumentStore
	breaker circuitbreaker.CircuitBreaker[map[string]string]
	retry   retry.Retry[map[string]string]
	timeout time.Duration
}

// Config configures the resilient document store.
type Config struct {
	// RetryMaxAttempts is the maximum number of fetch attempts.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// BreakerThreshold is the number of consecutive failures before the
	// circuit opens.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// FetchTimeout bounds a single fetch including retries.
	FetchTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:  3,
		RetryInitialDelay: 100 * time.Millisecond,
		BreakerThreshold:  5,
		BreakerTimeout:    30 * time.Second,
		FetchTimeout:      10 * time.Second,
	}
}

// NewResilientStore wraps inner with the given resilience configuration.
func NewResilientStore(inner domaincollab.DocumentStore, config Config) *ResilientStore {
	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}

	return &ResilientStore{
		inner: inner,
		breaker: circuitbreaker.New[map[string]string](circuitbreaker.Config{
			MaxRequests: uint32(threshold), // #nosec G115 -- bounds checked above
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[map[string]string](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
		}),
		timeout: config.FetchTimeout,
	}
}

// FetchFragments fetches fragments through the breaker and retry chain.
// Exhausted protection surfaces as ErrDocumentUnavailable so callers can
// fail closed on content they cannot verify.
func (s *ResilientStore) FetchFragments(ctx context.Context, docID string, keys []string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fragments, err := s.breaker.Execute(ctx, func(ctx context.Context) (map[string]string, error) {
		return s.retry.Do(ctx, func(ctx context.Context) (map[string]string, error) {
			return s.inner.FetchFragments(ctx, docID, keys)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domaincollab.ErrDocumentUnavailable, err)
	}
	return fragments, nil
}

var _ domaincollab.DocumentStore = (*ResilientStore)(nil)

// Package resilience wraps outbound calls with retry and per-operation
// circuit breakers.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	retry "github.com/avast/retry-go/v4"
	"github.com/sony/gobreaker/v2"
)

// Executor runs operations through a retry loop guarded by a circuit
// breaker keyed on operation name.
type Executor struct {
	config *Config
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(config *Config, logger *slog.Logger) *Executor {
	return &Executor{
		config:   config,
		logger:   logger.With("system", "resilience"),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn with retry and breaker protection. Context cancellation
// is never retried; all other errors are.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if !e.config.BreakerEnabled {
		return e.withRetry(ctx, operation, fn)
	}

	breaker := e.breaker(operation)
	_, err := breaker.Execute(func() (any, error) {
		return nil, e.withRetry(ctx, operation, fn)
	})
	return err
}

// IsCircuitOpen reports whether err was rejected by an open breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (e *Executor) withRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	return retry.Do(
		func() error { return fn(ctx) },
		retry.Context(ctx),
		retry.Attempts(e.config.RetryAttempts),
		retry.Delay(e.config.RetryDelayDuration()),
		retry.MaxDelay(e.config.RetryMaxDelayDuration()),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(attempt uint, err error) {
			e.logger.Warn("retrying operation",
				"operation", operation,
				"attempt", attempt+1,
				"error", err,
			)
		}),
	)
}

func (e *Executor) breaker(operation string) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.config.BreakerHalfOpenMax,
		Timeout:     e.config.BreakerOpenTimeoutDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.config.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= e.config.BreakerFailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			e.logger.Warn("breaker state change",
				"operation", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[operation] = breaker
	return breaker
}

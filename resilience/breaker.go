// Package resilience implements the CircuitBreakerManager and RetryPolicy
// primitives service clients wrap their outbound calls with: one breaker
// per serviceName, borrowed by name, and a configurable retry policy.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/metrics"
)

// BreakerState is the three-valued circuit breaker state.
type BreakerState string

const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// CircuitBreakerManager owns one gobreaker.CircuitBreaker per serviceName,
// created lazily and shared across callers.
type CircuitBreakerManager struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	metrics  metrics.Registry
}

// NewCircuitBreakerManager returns an empty manager. A nil metricsRegistry
// disables service.client.breaker.state emission.
func NewCircuitBreakerManager(metricsRegistry metrics.Registry) *CircuitBreakerManager {
	return &CircuitBreakerManager{breakers: map[string]*gobreaker.CircuitBreaker{}, metrics: metricsRegistry}
}

// GetOrCreate returns the breaker for serviceName, building it from cfg on
// first use.
func (m *CircuitBreakerManager) GetOrCreate(serviceName string, cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.breakers[serviceName]; ok {
		return b
	}

	settings := gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: cfg.PermittedHalfOpen,
		Interval:    0,
		Timeout:     cfg.OpenStateWait,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinimumCalls {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return failureRatio >= cfg.FailureRateThreshold
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			m.emitState(name, to)
		},
	}

	b := gobreaker.NewCircuitBreaker(settings)
	m.breakers[serviceName] = b

	return b
}

// State reports the current breaker state for serviceName, CLOSED if no
// breaker has been created yet.
func (m *CircuitBreakerManager) State(serviceName string) BreakerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.breakers[serviceName]
	if !ok {
		return StateClosed
	}

	switch b.State() {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Guard executes fn through the named breaker, translating gobreaker's
// open-circuit error into cerrors.CircuitOpen: in OPEN, calls fail fast
// without invoking fn.
func Guard[R any](m *CircuitBreakerManager, serviceName string, cfg config.CircuitBreakerConfig, fn func() (R, error)) (R, error) {
	b := m.GetOrCreate(serviceName, cfg)

	res, err := b.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero R

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return zero, cerrors.CircuitOpen{ServiceName: serviceName}
		}

		return zero, err
	}

	r, _ := res.(R)

	return r, nil
}

func (m *CircuitBreakerManager) emitState(serviceName string, state gobreaker.State) {
	if m.metrics == nil {
		return
	}

	var s BreakerState

	switch state {
	case gobreaker.StateOpen:
		s = StateOpen
	case gobreaker.StateHalfOpen:
		s = StateHalfOpen
	default:
		s = StateClosed
	}

	m.metrics.Gauge(constant.MetricServiceBreakerState, map[string]string{
		constant.TagService: serviceName,
		constant.TagState:   string(s),
	}).Set(1)
}

// SlowCall runs fn under a deadline of threshold (no deadline when threshold
// is not positive) and returns fn's result and error unchanged.
func SlowCall[R any](ctx context.Context, threshold time.Duration, fn func(ctx context.Context) (R, error)) (R, error) {
	if threshold <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, threshold)
	defer cancel()

	return fn(ctx)
}

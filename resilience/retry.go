package resilience

import (
	"context"
	"errors"
	"strconv"

	"github.com/sethvargo/go-retry"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/metrics"
)

// Retryable is implemented by errors that know whether a retry attempt is
// worthwhile. cerrors.TimeoutError, TransportError and HandlerError are
// classified by their own fields first; any other error that doesn't
// implement Retryable is treated as non-retryable and propagates immediately.
type Retryable interface {
	IsRetryable() bool
}

// RetryPolicy wraps github.com/sethvargo/go-retry with an exponential
// backoff + jitter + max-attempts + max-delay shape.
type RetryPolicy struct {
	cfg config.RetryConfig
}

// NewRetryPolicy builds a RetryPolicy from cfg.
func NewRetryPolicy(cfg config.RetryConfig) *RetryPolicy {
	return &RetryPolicy{cfg: cfg}
}

// Run retries fn up to cfg.MaxAttempts times with exponential backoff,
// stopping early if the last error is not retryable. Each attempt is one
// breaker call when fn itself calls through Guard, so retries wrap the
// breaker. serviceName and metricsRegistry (optional, may be nil) tag the
// service.client.retry.attempt metric.
func Run[R any](ctx context.Context, serviceName string, metricsRegistry metrics.Registry, p *RetryPolicy, fn func(ctx context.Context) (R, error)) (R, error) {
	backoff, err := retry.NewExponential(p.cfg.BaseDelay)
	if err != nil {
		var zero R
		return zero, err
	}

	if p.cfg.MaxAttempts > 0 {
		backoff = retry.WithMaxRetries(p.cfg.MaxAttempts-1, backoff)
	}

	if p.cfg.MaxDelay > 0 {
		backoff = retry.WithCappedDuration(p.cfg.MaxDelay, backoff)
	}

	if p.cfg.Jitter {
		backoff = retry.WithJitterPercent(10, backoff)
	}

	var (
		result  R
		lastErr error
		attempt int
	)

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		r, err := fn(ctx)
		result = r

		emitAttempt(metricsRegistry, serviceName, attempt, err)

		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryable(err, p.cfg.RetryOnTimeout) {
			return err
		}

		return retry.RetryableError(err)
	})

	if err != nil {
		var zero R

		if lastErr != nil {
			return zero, lastErr
		}

		return zero, err
	}

	return result, nil
}

func emitAttempt(registry metrics.Registry, serviceName string, attempt int, err error) {
	if registry == nil {
		return
	}

	result := constant.ResultSuccess
	if err != nil {
		result = constant.ResultFailure
	}

	registry.Counter(constant.MetricServiceRetryAttempt, map[string]string{
		constant.TagService: serviceName,
		constant.TagAttempt: strconv.Itoa(attempt),
		constant.TagResult:  result,
	}).Inc()
}

func isRetryable(err error, retryOnTimeout bool) bool {
	var timeoutErr cerrors.TimeoutError
	if errors.As(err, &timeoutErr) {
		return retryOnTimeout || timeoutErr.RetryOnTimeout
	}

	var transportErr cerrors.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable
	}

	var handlerErr cerrors.HandlerError
	if errors.As(err, &handlerErr) {
		return handlerErr.Retryable
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	return false
}

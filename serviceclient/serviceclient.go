// Package serviceclient implements the ServiceClient abstraction: a single
// resilience contract (breaker + retry + timeout + interceptors) shared by
// three transport variants (HTTP, RPC, SDK-wrapper).
package serviceclient

import (
	"context"
	"io"
	"time"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/interceptor"
	"github.com/firefly-oss/lib-common-domain/metrics"
	"github.com/firefly-oss/lib-common-domain/resilience"
)

// Kind distinguishes the three ServiceClient variants.
type Kind string

const (
	KindHTTP Kind = "HTTP"
	KindRPC  Kind = "RPC"
	KindSDK  Kind = "SDK"
)

// ErrUnsupported is returned by path-based convenience methods on variants
// that don't support them: RPC and SDK return it for HTTP-style verbs.
var ErrUnsupported = cerrors.ConfigurationError{Message: "operation unsupported by this service client variant"}

// Operation is a single outbound HTTP call description: the HTTP variant
// reads Method/Path/PathParams/Query/Headers/Body. CallRPC and CallSDK do
// not use it; they take the method name and argument directly.
type Operation struct {
	Method     string
	Path       string
	PathParams map[string]string
	Query      map[string]string
	Headers    map[string]string
	Body       any
}

// Stream is a lazy sequence of decoded items from a server-streaming call.
// No variant produces one: HTTPClient and RPCClient have no streaming
// method, and SDKClient.Stream always returns ErrUnsupported.
type Stream interface {
	Next(ctx context.Context) (any, error)
	io.Closer
}

// shutdownState tracks the idempotent shutdown contract common to all three
// variants: shutdown is idempotent, and subsequent calls after it fail.
type shutdownState struct {
	component string
	done      bool
}

func (s *shutdownState) checkNotShutdown() error {
	if s.done {
		return cerrors.Shutdown{Component: s.component}
	}

	return nil
}

func (s *shutdownState) markShutdown() {
	s.done = true
}

// resilientCall runs fn through breaker.guard(retry.run(timeout.wrap(fn))),
// classifying and recording metrics the same way for every variant.
func resilientCall[R any](
	ctx context.Context,
	serviceName, method string,
	breakers *resilience.CircuitBreakerManager,
	breakerCfg config.CircuitBreakerConfig,
	retryPolicy *resilience.RetryPolicy,
	timeout time.Duration,
	metricsRegistry metrics.Registry,
	fn func(ctx context.Context) (R, error),
) (R, error) {
	start := time.Now()

	result, err := resilience.Guard(breakers, serviceName, breakerCfg, func() (R, error) {
		return resilience.Run(ctx, serviceName, metricsRegistry, retryPolicy, func(ctx context.Context) (R, error) {
			callCtx := ctx
			cancel := func() {}

			if timeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, timeout)
			}
			defer cancel()

			r, err := fn(callCtx)
			if err != nil && callCtx.Err() == context.DeadlineExceeded {
				return r, cerrors.TimeoutError{ServiceName: serviceName}
			}

			return r, err
		})
	})

	recordCallMetrics(metricsRegistry, serviceName, method, time.Since(start), err)

	return result, err
}

func recordCallMetrics(registry metrics.Registry, serviceName, method string, elapsed time.Duration, err error) {
	if registry == nil {
		return
	}

	tags := map[string]string{constant.TagService: serviceName, constant.TagMethod: method}
	registry.Timer(constant.MetricServiceRequestDuration, tags).Observe(elapsed)

	result := constant.ResultSuccess
	statusClass := "2xx"

	if err != nil {
		result = constant.ResultFailure
		statusClass = "5xx"
	}

	totalTags := map[string]string{
		constant.TagService:     serviceName,
		constant.TagMethod:      method,
		constant.TagStatusClass: statusClass,
		constant.TagResult:      result,
	}
	registry.Counter(constant.MetricServiceRequestTotal, totalTags).Inc()
}

// invokeWithInterceptors wraps a request through an interceptor.Chain around the
// resilient transport call, returning the chain's final Response.
func invokeWithInterceptors(
	ctx context.Context,
	chain *interceptor.Chain,
	req *interceptor.Request,
	transport func(ctx context.Context, req *interceptor.Request) *interceptor.Response,
) *interceptor.Response {
	if chain == nil {
		return transport(ctx, req)
	}

	return chain.Invoke(ctx, req, transport)
}

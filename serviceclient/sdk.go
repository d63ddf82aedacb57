package serviceclient

import (
	"context"

	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/interceptor"
	"github.com/firefly-oss/lib-common-domain/metrics"
	"github.com/firefly-oss/lib-common-domain/resilience"
)

// Shutdownable is the explicit capability an SDK instance may implement to
// participate in SDKClient.Shutdown. Capability checks are explicit
// interface assertions rather than reflective method discovery.
type Shutdownable interface {
	Shutdown(ctx context.Context) error
}

// Invoke is the opaque user function an SDK-wrapper call runs over the
// supplied instance, under timeout and breaker.
type Invoke func(ctx context.Context, instance any, arg any) (any, error)

// SDKClient is the SDK-wrapper variant of ServiceClient: no streaming, no
// path-based convenience, resilience identical to the other two variants.
type SDKClient struct {
	ServiceName string
	Instance    any
	cfg         config.ServiceClientConfig
	breakers    *resilience.CircuitBreakerManager
	retry       *resilience.RetryPolicy
	chain       *interceptor.Chain
	metrics     metrics.Registry

	state shutdownState
}

// NewSDKClient wraps instance as a ServiceClient.
func NewSDKClient(serviceName string, instance any, cfg config.ServiceClientConfig, breakers *resilience.CircuitBreakerManager, chain *interceptor.Chain, metricsRegistry metrics.Registry) *SDKClient {
	return &SDKClient{
		ServiceName: serviceName,
		Instance:    instance,
		cfg:         cfg,
		breakers:    breakers,
		retry:       resilience.NewRetryPolicy(cfg.Retry),
		chain:       chain,
		metrics:     metricsRegistry,
		state:       shutdownState{component: "serviceclient.sdk:" + serviceName},
	}
}

// CallSDK invokes fn over c.Instance under the same resilience pipeline as
// the HTTP/RPC variants.
func CallSDK(ctx context.Context, c *SDKClient, method string, arg any, fn Invoke) (any, error) {
	if err := c.state.checkNotShutdown(); err != nil {
		return nil, err
	}

	req := &interceptor.Request{ServiceName: c.ServiceName, Operation: method, Body: arg}

	resp := invokeWithInterceptors(ctx, c.chain, req, func(ctx context.Context, req *interceptor.Request) *interceptor.Response {
		result, err := resilientCall(ctx, c.ServiceName, method, c.breakers, c.cfg.CircuitBreaker, c.retry, c.cfg.HTTP.ResponseTimeout, c.metrics, func(ctx context.Context) (any, error) {
			return fn(ctx, c.Instance, req.Body)
		})

		return &interceptor.Response{Body: result, Err: err, StatusClass: statusClassFor(err)}
	})

	return resp.Body, resp.Err
}

// Stream is unsupported for the SDK variant.
func (c *SDKClient) Stream(context.Context, string) (Stream, error) {
	return nil, ErrUnsupported
}

// PathVerb is unsupported for the SDK variant.
func (c *SDKClient) PathVerb(context.Context, string) (any, error) {
	return nil, ErrUnsupported
}

// Shutdown idempotently invokes c.Instance's Shutdown if it implements
// Shutdownable; instances that don't are assumed stateless.
func (c *SDKClient) Shutdown(ctx context.Context) error {
	if c.state.done {
		return nil
	}

	c.state.markShutdown()

	if s, ok := c.Instance.(Shutdownable); ok {
		return s.Shutdown(ctx)
	}

	return nil
}

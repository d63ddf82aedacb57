package serviceclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/interceptor"
	"github.com/firefly-oss/lib-common-domain/metrics"
	"github.com/firefly-oss/lib-common-domain/resilience"
)

func TestResilientCall_SucceedsOnFirstAttempt(t *testing.T) {
	breakers := resilience.NewCircuitBreakerManager(nil)
	retryPolicy := resilience.NewRetryPolicy(config.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond})

	calls := 0
	result, err := resilientCall(context.Background(), "ledger", "GetBalance", breakers, config.DefaultCircuitBreakerConfig(), retryPolicy, 0, nil, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestResilientCall_RetriesThenOpensBreaker(t *testing.T) {
	breakers := resilience.NewCircuitBreakerManager(nil)
	retryPolicy := resilience.NewRetryPolicy(config.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond})
	breakerCfg :=config.CircuitBreakerConfig{FailureRateThreshold: 0.5, MinimumCalls: 2, OpenStateWait: 50 * time.Millisecond, PermittedHalfOpen: 1}

	failing := func(ctx context.Context) (string, error) {
		return "", cerrors.TransportError{ServiceName: "ledger", Retryable: true}
	}

	_, err := resilientCall(context.Background(), "ledger", "GetBalance", breakers, breakerCfg, retryPolicy, 0, nil, failing)
	require.Error(t, err)

	_, err = resilientCall(context.Background(), "ledger", "GetBalance", breakers, breakerCfg, retryPolicy, 0, nil, failing)
	require.Error(t, err)

	_, err = resilientCall(context.Background(), "ledger", "GetBalance", breakers, breakerCfg, retryPolicy, 0, nil, failing)

	var circuitOpen cerrors.CircuitOpen
	assert.ErrorAs(t, err, &circuitOpen)
}

func TestResilientCall_AppliesTimeout(t *testing.T) {
	breakers := resilience.NewCircuitBreakerManager(nil)
	retryPolicy := resilience.NewRetryPolicy(config.RetryConfig{MaxAttempts: 1})

	_, err := resilientCall(context.Background(), "ledger", "GetBalance", breakers, config.DefaultCircuitBreakerConfig(), retryPolicy, 10*time.Millisecond, nil, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	var timeoutErr cerrors.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestResilientCall_RecordsMetrics(t *testing.T) {
	recorder := metrics.NewRecorder()
	breakers := resilience.NewCircuitBreakerManager(nil)
	retryPolicy := resilience.NewRetryPolicy(config.RetryConfig{MaxAttempts: 1})

	_, err := resilientCall(context.Background(), "ledger", "GetBalance", breakers, config.DefaultCircuitBreakerConfig(), retryPolicy, 0, recorder, func(ctx context.Context) (string, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Positive(t, recorder.Count(constant.MetricServiceRequestTotal))
}

func TestInvokeWithInterceptors_NilChainCallsTransportDirectly(t *testing.T) {
	req := &interceptor.Request{ServiceName: "ledger"}

	resp := invokeWithInterceptors(context.Background(), nil, req, func(ctx context.Context, r *interceptor.Request) *interceptor.Response {
		return &interceptor.Response{Body: "direct"}
	})

	assert.Equal(t, "direct", resp.Body)
}

type passthroughInterceptor struct {
	afterCalled bool
}

func (p *passthroughInterceptor) Order() int { return 0 }

func (p *passthroughInterceptor) Before(ctx context.Context, req *interceptor.Request) (context.Context, *interceptor.Response) {
	return ctx, nil
}

func (p *passthroughInterceptor) After(ctx context.Context, req *interceptor.Request, resp *interceptor.Response) {
	p.afterCalled = true
}

func TestInvokeWithInterceptors_RunsChain(t *testing.T) {
	ic := &passthroughInterceptor{}
	chain := interceptor.NewChain(ic)

	req := &interceptor.Request{ServiceName: "ledger"}
	resp := invokeWithInterceptors(context.Background(), chain, req, func(ctx context.Context, r *interceptor.Request) *interceptor.Response {
		return &interceptor.Response{Body: "via-chain"}
	})

	assert.Equal(t, "via-chain", resp.Body)
	assert.True(t, ic.afterCalled)
}

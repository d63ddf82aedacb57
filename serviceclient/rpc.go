package serviceclient

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/interceptor"
	"github.com/firefly-oss/lib-common-domain/metrics"
	"github.com/firefly-oss/lib-common-domain/resilience"
)

// RPCConnection is a hub that deals with gRPC connections: a lazy singleton
// Connect/GetClientConn shape that returns errors instead of calling
// log.Fatal, so a ServiceClient caller can classify and retry.
type RPCConnection struct {
	Addr string
	Conn *grpc.ClientConn
	cfg  config.RPCConfig
}

// NewRPCConnection builds an RPCConnection with keep-alive parameters from cfg.
func NewRPCConnection(addr string, cfg config.RPCConfig) *RPCConnection {
	return &RPCConnection{Addr: addr, cfg: cfg}
}

// Connect establishes the singleton gRPC channel.
func (c *RPCConnection) Connect() error {
	conn, err := grpc.NewClient(
		c.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    c.cfg.KeepAliveTime,
			Timeout: c.cfg.KeepAliveTimeout,
		}),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(c.cfg.MaxInboundMessage)),
	)
	if err != nil {
		return err
	}

	c.Conn = conn

	return nil
}

// GetClientConn returns the channel, connecting lazily if necessary.
func (c *RPCConnection) GetClientConn() (*grpc.ClientConn, error) {
	if c.Conn == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return c.Conn, nil
}

// StubCall is the typed call a generated gRPC stub method performs, wired
// through CallRPC as the typed call on the generated stub for the RPC
// variant.
type StubCall func(ctx context.Context, conn *grpc.ClientConn, req any) (any, error)

// RPCClient is the RPC variant of ServiceClient: single channel per client,
// keep-alive and inbound message size limit from RPCConnection. It has no
// streaming method; only unary calls through CallRPC are supported.
type RPCClient struct {
	ServiceName string
	conn        *RPCConnection
	cfg         config.ServiceClientConfig
	breakers    *resilience.CircuitBreakerManager
	retry       *resilience.RetryPolicy
	chain       *interceptor.Chain
	metrics     metrics.Registry

	state shutdownState
}

// NewRPCClient builds an RPCClient over conn.
func NewRPCClient(serviceName string, conn *RPCConnection, cfg config.ServiceClientConfig, breakers *resilience.CircuitBreakerManager, chain *interceptor.Chain, metricsRegistry metrics.Registry) *RPCClient {
	return &RPCClient{
		ServiceName: serviceName,
		conn:        conn,
		cfg:         cfg,
		breakers:    breakers,
		retry:       resilience.NewRetryPolicy(cfg.Retry),
		chain:       chain,
		metrics:     metricsRegistry,
		state:       shutdownState{component: "serviceclient.rpc:" + serviceName},
	}
}

// CallRPC invokes stub under the resilience pipeline, the RPC analogue of
// HTTP's Call.
func CallRPC(ctx context.Context, c *RPCClient, method string, req any, stub StubCall) (any, error) {
	if err := c.state.checkNotShutdown(); err != nil {
		return nil, err
	}

	ireq := &interceptor.Request{ServiceName: c.ServiceName, Operation: method, Body: req}

	resp := invokeWithInterceptors(ctx, c.chain, ireq, func(ctx context.Context, ireq *interceptor.Request) *interceptor.Response {
		result, err := resilientCall(ctx, c.ServiceName, method, c.breakers, c.cfg.CircuitBreaker, c.retry, c.cfg.RPC.KeepAliveTimeout, c.metrics, func(ctx context.Context) (any, error) {
			conn, err := c.conn.GetClientConn()
			if err != nil {
				return nil, cerrors.TransportError{ServiceName: c.ServiceName, Err: err, Retryable: true}
			}

			return stub(ctx, conn, ireq.Body)
		})

		return &interceptor.Response{Body: result, Err: err, StatusClass: statusClassFor(err)}
	})

	return resp.Body, resp.Err
}

// HTTPStyleVerb returns ErrUnsupported; RPC has no path-based convenience
// calls.
func (c *RPCClient) HTTPStyleVerb(context.Context, string) (any, error) {
	return nil, ErrUnsupported
}

// HealthCheck reports an error if the client is shut down or its channel
// cannot be created. It issues no RPC and does not inspect the channel's
// connectivity state.
func (c *RPCClient) HealthCheck(context.Context) error {
	if err := c.state.checkNotShutdown(); err != nil {
		return err
	}

	_, err := c.conn.GetClientConn()

	return err
}

// Shutdown idempotently closes the gRPC channel.
func (c *RPCClient) Shutdown(context.Context) error {
	if c.state.done {
		return nil
	}

	c.state.markShutdown()

	if c.conn.Conn != nil {
		return c.conn.Conn.Close()
	}

	return nil
}

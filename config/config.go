// Package config declares the typed configuration surface for this module.
// Binding these structs from files or environment variables is left to the
// caller; this package only defines the shapes and sane defaults, plus
// small Getenv* helpers a caller may use to build one.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetenvOrDefault returns os.Getenv(key), or defaultValue if unset/blank.
func GetenvOrDefault(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return defaultValue
}

// GetenvBoolOrDefault parses os.Getenv(key) as a bool, or returns
// defaultValue if unset or unparsable.
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return v
}

// GetenvDurationOrDefault parses os.Getenv(key) as a duration, or returns
// defaultValue if unset or unparsable.
func GetenvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return v
}

// CacheBackend selects QueryCache's storage.
type CacheBackend string

const (
	CacheBackendLocal  CacheBackend = "local"
	CacheBackendShared CacheBackend = "shared"
)

// AuthorizationMode selects how AuthorizationService combines its standard
// and custom authorizers.
type AuthorizationMode string

const (
	AuthModeStandardOnly  AuthorizationMode = "standard-only"
	AuthModeCustomOnly    AuthorizationMode = "custom-only"
	AuthModeRequireBoth   AuthorizationMode = "require-both"
	AuthModeOverride      AuthorizationMode = "override"
)

// CQRSConfig is `cqrs.*` in the configuration tree.
type CQRSConfig struct {
	Enabled             bool
	CommandTimeout      time.Duration
	QueryCachingEnabled bool
	QueryCacheTTL       time.Duration
	QueryCacheBackend   CacheBackend
	AuthorizationEnabled bool
	AuthorizationMode    AuthorizationMode
}

// DefaultCQRSConfig returns the conservative zero-trust default:
// authorization on, require-both.
func DefaultCQRSConfig() CQRSConfig {
	return CQRSConfig{
		Enabled:              true,
		CommandTimeout:       10 * time.Second,
		QueryCachingEnabled:  true,
		QueryCacheTTL:        30 * time.Second,
		QueryCacheBackend:    CacheBackendLocal,
		AuthorizationEnabled: true,
		AuthorizationMode:    AuthModeRequireBoth,
	}
}

// CircuitBreakerConfig is `service-client.circuitBreaker.*` in the
// configuration tree.
type CircuitBreakerConfig struct {
	FailureRateThreshold float64
	SlidingWindowSize    uint32
	MinimumCalls         uint32
	OpenStateWait        time.Duration
	PermittedHalfOpen    uint32
	SlowCallThreshold    time.Duration
}

// DefaultCircuitBreakerConfig is a conservative production default.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureRateThreshold: 0.5,
		SlidingWindowSize:    10,
		MinimumCalls:         5,
		OpenStateWait:        30 * time.Second,
		PermittedHalfOpen:    3,
		SlowCallThreshold:    2 * time.Second,
	}
}

// RetryConfig is `service-client.retry.*` in the configuration tree.
type RetryConfig struct {
	MaxAttempts       uint64
	BaseDelay         time.Duration
	Multiplier        float64
	Jitter            bool
	MaxDelay          time.Duration
	RetryOnTimeout    bool
}

// DefaultRetryConfig is a sane exponential-backoff-with-jitter default.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		BaseDelay:      100 * time.Millisecond,
		Multiplier:     2,
		Jitter:         true,
		MaxDelay:       5 * time.Second,
		RetryOnTimeout: false,
	}
}

// HTTPConfig is `service-client.http.*` in the configuration tree.
type HTTPConfig struct {
	MaxConnections        int
	MaxIdleTime           time.Duration
	MaxLifeTime           time.Duration
	PendingAcquireTimeout time.Duration
	ResponseTimeout       time.Duration
	MaxInMemorySize       int64
}

// DefaultHTTPConfig provides production-sane pool limits.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		MaxConnections:        100,
		MaxIdleTime:           90 * time.Second,
		MaxLifeTime:           30 * time.Minute,
		PendingAcquireTimeout: 10 * time.Second,
		ResponseTimeout:       10 * time.Second,
		MaxInMemorySize:       1 << 20,
	}
}

// RPCConfig is `service-client.rpc.*` in the configuration tree.
type RPCConfig struct {
	KeepAliveTime        time.Duration
	KeepAliveTimeout     time.Duration
	MaxInboundMessage    int
	MaxInboundMetadata   int
}

// DefaultRPCConfig provides grpc-sane defaults.
func DefaultRPCConfig() RPCConfig {
	return RPCConfig{
		KeepAliveTime:      30 * time.Second,
		KeepAliveTimeout:   10 * time.Second,
		MaxInboundMessage:  4 << 20,
		MaxInboundMetadata: 8 << 10,
	}
}

// ServiceClientConfig is `service-client.*` in the configuration tree.
type ServiceClientConfig struct {
	Enabled        bool
	HTTP           HTTPConfig
	RPC            RPCConfig
	CircuitBreaker CircuitBreakerConfig
	Retry          RetryConfig
}

// DefaultServiceClientConfig composes the per-concern defaults above.
func DefaultServiceClientConfig() ServiceClientConfig {
	return ServiceClientConfig{
		Enabled:        true,
		HTTP:           DefaultHTTPConfig(),
		RPC:            DefaultRPCConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Retry:          DefaultRetryConfig(),
	}
}

// AdapterKind selects which EventPublisher adapter to use.
type AdapterKind string

const (
	AdapterAuto      AdapterKind = "auto"
	AdapterInProcess AdapterKind = "in_process"
	AdapterKafka     AdapterKind = "kafka"
	AdapterAMQP      AdapterKind = "amqp"
	AdapterSQS       AdapterKind = "sqs"
	AdapterKinesis   AdapterKind = "kinesis"
	AdapterNoop      AdapterKind = "noop"
)

// KafkaSettings is the subset of `events.kafka.*` this module understands.
type KafkaSettings struct {
	Brokers []string
	Topic   string
}

// AMQPSettings is the subset of `events.amqp.*` this module understands.
type AMQPSettings struct {
	URL      string
	Exchange string
	Key      string
}

// SQSSettings is the subset of `events.sqs.*` this module understands.
type SQSSettings struct {
	QueueURL string
	Region   string
}

// KinesisSettings is the subset of `events.kinesis.*` this module
// understands.
type KinesisSettings struct {
	StreamName string
	Region     string
}

// EventsConfig is `events.*` in the configuration tree.
type EventsConfig struct {
	Enabled bool
	Adapter AdapterKind
	Kafka   KafkaSettings
	AMQP    AMQPSettings
	SQS     SQSSettings
	Kinesis KinesisSettings
}

// DefaultEventsConfig auto-selects an adapter by priority order when
// AdapterRegistry.Select is called with it.
func DefaultEventsConfig() EventsConfig {
	return EventsConfig{Enabled: true, Adapter: AdapterAuto}
}

// StepEventsConfig is `stepevents.*` in the configuration tree.
type StepEventsConfig struct {
	Enabled      bool
	DefaultTopic string
}

// DefaultStepEventsConfig provides a sane default topic for step events.
func DefaultStepEventsConfig() StepEventsConfig {
	return StepEventsConfig{Enabled: true, DefaultTopic: "banking-step-events"}
}

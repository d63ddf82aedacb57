// Package constant holds the stable string identifiers that must never
// change across releases: error codes and metric names.
package constant

// Error codes, one per cerrors type. Stable across releases; never reuse a
// retired code for a different meaning.
const (
	CodeConfigurationError  = "CQRS-0001"
	CodeHandlerNotFound     = "CQRS-0002"
	CodeValidationFailed    = "CQRS-0003"
	CodeAuthorizationDenied = "CQRS-0004"
	CodeHandlerTimeout      = "CQRS-0005"
	CodeHandlerError        = "CQRS-0006"
	CodeCircuitOpen         = "CQRS-0007"
	CodeTransportError      = "CQRS-0008"
	CodeTimeoutError        = "CQRS-0009"
	CodeShutdown            = "CQRS-0010"
	CodePublisherError      = "CQRS-0011"
)

// Metric names.
const (
	MetricCommandSentTotal       = "command.sent.total"
	MetricCommandDuration        = "command.duration"
	MetricQuerySentTotal         = "query.sent.total"
	MetricQueryDuration          = "query.duration"
	MetricQueryCacheHit          = "query.cache.hit"
	MetricQueryCacheMiss         = "query.cache.miss"
	MetricServiceRequestTotal    = "service.client.request.total"
	MetricServiceRequestDuration = "service.client.request.duration"
	MetricServiceBreakerState    = "service.client.breaker.state"
	MetricServiceRetryAttempt    = "service.client.retry.attempt"
	MetricCommandRetryAttempt    = "command.retry.attempt"
	MetricEventsPublishedTotal   = "events.published.total"
	MetricEventsPublishDuration  = "events.publish.duration"
	MetricEventsAdapterHealth    = "events.adapter.health"
)

// Internal tags shared by metrics emitted from multiple packages.
const (
	TagType           = "type"
	TagResult         = "result"
	TagCorrelationID  = "correlationId"
	TagService        = "service"
	TagMethod         = "method"
	TagStatusClass    = "status_class"
	TagAttempt        = "attempt"
	TagState          = "state"
	TagAdapter        = "adapter"
	TagTopic          = "topic"
)

// Result tag values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Adapter names, in auto-select priority order (highest first).
const (
	AdapterKafka     = "kafka"
	AdapterAMQP      = "amqp"
	AdapterSQS       = "sqs"
	AdapterKinesis   = "kinesis"
	AdapterInProcess = "in_process"
	AdapterNoop      = "noop"
)

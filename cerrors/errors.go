// Package cerrors implements a closed error taxonomy. Each error type
// carries the fields of its own kind, and every one has a stable Code(), so
// callers can type-switch or errors.As into a concrete kind.
package cerrors

import (
	"fmt"

	"github.com/firefly-oss/lib-common-domain/constant"
)

// FieldError is one entry of a ValidationResult's ordered error list.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

// Violation is one entry of an AuthorizationResult's violation list.
type Violation struct {
	Source string
	Reason string
}

// ConfigurationError is fatal at startup: duplicate handler registration, a
// missing required adapter, or any other misconfiguration that cannot be
// resolved by retrying a call.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e ConfigurationError) Error() string { return e.Message }
func (e ConfigurationError) Unwrap() error { return e.Err }
func (e ConfigurationError) Code() string  { return constant.CodeConfigurationError }

// HandlerNotFound is returned when no handler is registered for a
// command/query's message type.
type HandlerNotFound struct {
	MessageType string
}

func (e HandlerNotFound) Error() string {
	return fmt.Sprintf("no handler registered for message type %q", e.MessageType)
}

func (e HandlerNotFound) Code() string { return constant.CodeHandlerNotFound }

// ValidationFailed is returned when ValidationProcessor produces an invalid
// ValidationResult. No side effects occurred.
type ValidationFailed struct {
	Errors []FieldError
}

func (e ValidationFailed) Error() string {
	return fmt.Sprintf("validation failed: %d error(s)", len(e.Errors))
}

func (e ValidationFailed) Code() string { return constant.CodeValidationFailed }

// AuthorizationDenied is returned when AuthorizationService denies a
// command/query. No side effects occurred.
type AuthorizationDenied struct {
	Violations []Violation
}

func (e AuthorizationDenied) Error() string {
	return fmt.Sprintf("authorization denied: %d violation(s)", len(e.Violations))
}

func (e AuthorizationDenied) Code() string { return constant.CodeAuthorizationDenied }

// HandlerTimeout is returned when a handler invocation exceeds its
// effective timeout.
type HandlerTimeout struct {
	MessageType string
	Timeout     string
}

func (e HandlerTimeout) Error() string {
	return fmt.Sprintf("handler for %q timed out after %s", e.MessageType, e.Timeout)
}

func (e HandlerTimeout) Code() string { return constant.CodeHandlerTimeout }

// HandlerError wraps an error returned by a handler's business logic.
type HandlerError struct {
	MessageType string
	Err         error
	Retryable   bool
}

func (e HandlerError) Error() string {
	return fmt.Sprintf("handler for %q failed: %v", e.MessageType, e.Err)
}

func (e HandlerError) Unwrap() error { return e.Err }
func (e HandlerError) Code() string  { return constant.CodeHandlerError }

// CircuitOpen is returned by a service client when its circuit breaker is
// OPEN; the transport was never invoked.
type CircuitOpen struct {
	ServiceName string
}

func (e CircuitOpen) Error() string {
	return fmt.Sprintf("circuit open for service %q", e.ServiceName)
}

func (e CircuitOpen) Code() string { return constant.CodeCircuitOpen }

// TransportError wraps a failure from the underlying transport (HTTP, gRPC,
// or an SDK call). Classified retryable by the retry predicate.
type TransportError struct {
	ServiceName string
	Err         error
	Retryable   bool
}

func (e TransportError) Error() string {
	return fmt.Sprintf("transport error calling %q: %v", e.ServiceName, e.Err)
}

func (e TransportError) Unwrap() error { return e.Err }
func (e TransportError) Code() string  { return constant.CodeTransportError }

// TimeoutError is returned when an outbound call exceeds its absolute
// deadline.
type TimeoutError struct {
	ServiceName    string
	RetryOnTimeout bool
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("call to %q timed out", e.ServiceName)
}

func (e TimeoutError) Code() string { return constant.CodeTimeoutError }

// Shutdown is returned by a client or subsystem once it has been shut down;
// shutdown itself is idempotent.
type Shutdown struct {
	Component string
}

func (e Shutdown) Error() string {
	return fmt.Sprintf("%s has been shut down", e.Component)
}

func (e Shutdown) Code() string { return constant.CodeShutdown }

// PublisherError wraps a failure from an EventPublisher adapter's publish
// call. Propagated to the caller of Publish unchanged.
type PublisherError struct {
	Adapter string
	Topic   string
	Err     error
}

func (e PublisherError) Error() string {
	return fmt.Sprintf("publish to %q via adapter %q failed: %v", e.Topic, e.Adapter, e.Err)
}

func (e PublisherError) Unwrap() error { return e.Err }
func (e PublisherError) Code() string  { return constant.CodePublisherError }

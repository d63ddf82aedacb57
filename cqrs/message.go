// Package cqrs implements the CQRS dispatch core: a command bus and a query
// bus that route typed messages to handlers through a
// validate→authorize→metrics→invoke pipeline, built from small,
// explicitly-composed structs rather than framework magic.
package cqrs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/firefly-oss/lib-common-domain/events"
)

// Message is the shape shared by Command and Query: a stable type identity,
// a stable id, optional correlation id, creation timestamp, and per-message
// overrides.
type Message struct {
	Type            string
	ID              string
	CorrelationID   string
	CreatedAt       time.Time
	TimeoutOverride time.Duration
	MaxRetries      int
	CustomAuth      bool
}

// NewMessage stamps a fresh Message for messageType with a random id and
// the current time.
func NewMessage(messageType string) Message {
	return Message{
		Type:      messageType,
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// Command is a request to change state. R is the result type produced by
// its handler.
type Command[R any] struct {
	Message
	Payload any
}

// NewCommand builds a Command[R] for messageType with the given payload.
func NewCommand[R any](messageType string, payload any) Command[R] {
	return Command[R]{Message: NewMessage(messageType), Payload: payload}
}

// Query is a request to read state. Same shape as Command, plus caching
// controls.
type Query[R any] struct {
	Message
	Payload  any
	Cacheable bool
	CacheKey  string
	CacheTTL  time.Duration
}

// NewQuery builds a Query[R] for messageType with the given payload.
func NewQuery[R any](messageType string, payload any) Query[R] {
	return Query[R]{Message: NewMessage(messageType), Payload: payload}
}

// CommandHandler handles exactly one command type, producing R.
type CommandHandler[R any] interface {
	Handle(ctx context.Context, cmd Command[R]) (R, error)
}

// QueryHandler handles exactly one query type, producing R.
type QueryHandler[R any] interface {
	Handle(ctx context.Context, qry Query[R]) (R, error)
}

// CommandHandlerFunc adapts a plain function to CommandHandler.
type CommandHandlerFunc[R any] func(ctx context.Context, cmd Command[R]) (R, error)

func (f CommandHandlerFunc[R]) Handle(ctx context.Context, cmd Command[R]) (R, error) {
	return f(ctx, cmd)
}

// QueryHandlerFunc adapts a plain function to QueryHandler.
type QueryHandlerFunc[R any] func(ctx context.Context, qry Query[R]) (R, error)

func (f QueryHandlerFunc[R]) Handle(ctx context.Context, qry Query[R]) (R, error) {
	return f(ctx, qry)
}

// FieldError is one validation failure.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

// ValidationResult is monotonic: Combine only ever appends errors.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// Combine concatenates two ValidationResults; Valid is the conjunction.
func (v ValidationResult) Combine(o ValidationResult) ValidationResult {
	return ValidationResult{
		Valid:  v.Valid && o.Valid,
		Errors: append(append([]FieldError{}, v.Errors...), o.Errors...),
	}
}

// Violation is one authorization denial reason.
type Violation struct {
	Source string
	Reason string
}

// AuthorizationResult carries the combined verdict of the standard and
// custom authorizers.
type AuthorizationResult struct {
	Authorized bool
	Violations []Violation
}

// Combine implements the AND composition:
// authorized = a.authorized ∧ b.authorized, violations concatenated.
func (a AuthorizationResult) Combine(b AuthorizationResult) AuthorizationResult {
	return AuthorizationResult{
		Authorized: a.Authorized && b.Authorized,
		Violations: append(append([]Violation{}, a.Violations...), b.Violations...),
	}
}

// ExecutionContext is the read-only, pass-by-reference request context: who
// is calling, and with which tenant/feature scope. It is a struct of its own
// in this package, separate from correlation.Execution.
type ExecutionContext struct {
	UserID   string
	TenantID string
	Features map[string]struct{}
	Attributes map[string]any
}

// HasFeature reports whether name is present in Features.
func (e ExecutionContext) HasFeature(name string) bool {
	_, ok := e.Features[name]
	return ok
}

// HandlerDescriptor records per-handler policy: the effective timeout and
// retry budget a bus applies around Handle, plus its cache behavior when
// bound to a query handler. Set via HandlerRegistry.RegisterWithDescriptor.
type HandlerDescriptor struct {
	MessageType string
	Timeout     time.Duration
	MaxRetries  int
	Cacheable   bool
	CacheTTL    time.Duration
	MetricsTags map[string]string
}

// DomainEventSource is implemented by a command's result type when its
// handler produces domain events that must be published once the command
// completes successfully.
type DomainEventSource interface {
	DomainEvents() []events.DomainEventEnvelope
}

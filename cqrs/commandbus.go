package cqrs

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/correlation"
	"github.com/firefly-oss/lib-common-domain/events"
	"github.com/firefly-oss/lib-common-domain/metrics"
)

// Authorizer is the capability CommandBus and QueryBus depend on; authz.Service
// satisfies it without this package importing authz (which would create an
// import cycle back through cqrs.AuthorizationResult/Violation).
type Authorizer interface {
	Authorize(ctx context.Context, messageType string, payload any) AuthorizationResult
}

// EventPublisher is the capability CommandBus depends on to emit domain
// events after a successful command; events.Publisher satisfies it without
// this package importing the concrete adapter machinery.
type EventPublisher interface {
	Publish(ctx context.Context, env events.DomainEventEnvelope) error
}

// CommandBus dispatches a Command[R] to its registered handler through the
// validate→authorize→metrics→invoke→emit-domain-events pipeline.
type CommandBus struct {
	Registry   *HandlerRegistry
	Validator  *ValidationProcessor
	Authorizer Authorizer
	Metrics    metrics.Registry
	Events     EventPublisher
}

// NewCommandBus wires the collaborators into a CommandBus. eventPublisher
// may be nil, in which case successful commands emit no domain events.
func NewCommandBus(registry *HandlerRegistry, validator *ValidationProcessor, authorizer Authorizer, metricsRegistry metrics.Registry, eventPublisher EventPublisher) *CommandBus {
	return &CommandBus{Registry: registry, Validator: validator, Authorizer: authorizer, Metrics: metricsRegistry, Events: eventPublisher}
}

// Send runs the full command pipeline and returns the handler's result.
// The effective timeout is min(handler descriptor timeout, cmd.TimeoutOverride);
// a handler error is retried up to the handler descriptor's MaxRetries times
// (lowered by a positive cmd.MaxRetries, never raised; none when the
// descriptor's MaxRetries is not positive), but only while classified
// retryable. On success,
// if the result implements DomainEventSource, its events are published
// through Events before Send returns.
func Send[R any](ctx context.Context, bus *CommandBus, cmd Command[R]) (R, error) {
	var zero R

	handler, ok := LookupCommandHandler[R](bus.Registry, cmd.Type)
	if !ok {
		return zero, cerrors.HandlerNotFound{MessageType: cmd.Type}
	}

	if result := bus.Validator.Process(cmd.Payload); !result.Valid {
		return zero, cerrors.ValidationFailed{Errors: toFieldErrors(result.Errors)}
	}

	if bus.Authorizer != nil {
		if authResult := bus.Authorizer.Authorize(ctx, cmd.Type, cmd.Payload); !authResult.Authorized {
			return zero, cerrors.AuthorizationDenied{Violations: toViolations(authResult.Violations)}
		}
	}

	descriptor, _ := bus.Registry.LookupDescriptor(cmd.Type)

	tags := map[string]string{constant.TagType: cmd.Type}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = correlation.ID(ctx)
	}

	timer := bus.timer(constant.MetricCommandDuration, tags)
	start := time.Now()

	maxRetries := effectiveMaxRetries(descriptor.MaxRetries, cmd.MaxRetries)

	var result R
	var handleErr error

	for attempt := 0; ; attempt++ {
		deadlineCtx, cancel := withEffectiveTimeout(ctx, descriptor.Timeout, cmd.TimeoutOverride)
		result, handleErr = handler.Handle(deadlineCtx, cmd)

		if handleErr != nil {
			handleErr = classifyHandlerErr(cmd.Type, deadlineCtx, handleErr)
		}

		cancel()

		if handleErr == nil || attempt >= maxRetries || !isRetryable(handleErr) {
			break
		}

		bus.emitRetryAttempt(tags, attempt+1)
	}

	timer.Observe(time.Since(start))
	bus.emitSentTotal(constant.MetricCommandSentTotal, tags, handleErr)

	if handleErr != nil {
		return zero, handleErr
	}

	if err := bus.publishDomainEvents(ctx, result); err != nil {
		return zero, err
	}

	return result, nil
}

func (b *CommandBus) publishDomainEvents(ctx context.Context, result any) error {
	if b.Events == nil {
		return nil
	}

	src, ok := result.(DomainEventSource)
	if !ok {
		return nil
	}

	for _, env := range src.DomainEvents() {
		if err := b.Events.Publish(ctx, env); err != nil {
			return err
		}
	}

	return nil
}

func (b *CommandBus) timer(name string, tags map[string]string) metrics.Timer {
	if b.Metrics == nil {
		return noopTimer{}
	}

	return b.Metrics.Timer(name, tags)
}

func (b *CommandBus) emitSentTotal(name string, tags map[string]string, err error) {
	if b.Metrics == nil {
		return
	}

	withResult := map[string]string{}
	for k, v := range tags {
		withResult[k] = v
	}

	if err != nil {
		withResult[constant.TagResult] = constant.ResultFailure
	} else {
		withResult[constant.TagResult] = constant.ResultSuccess
	}

	b.Metrics.Counter(name, withResult).Inc()
}

func (b *CommandBus) emitRetryAttempt(tags map[string]string, attempt int) {
	if b.Metrics == nil {
		return
	}

	withAttempt := map[string]string{}
	for k, v := range tags {
		withAttempt[k] = v
	}

	withAttempt[constant.TagAttempt] = strconv.Itoa(attempt)
	b.Metrics.Counter(constant.MetricCommandRetryAttempt, withAttempt).Inc()
}

// withEffectiveTimeout derives the deadline for a handler invocation as
// min(handlerTimeout, override), treating a non-positive value on either
// side as "no limit from this source".
func withEffectiveTimeout(ctx context.Context, handlerTimeout, override time.Duration) (context.Context, context.CancelFunc) {
	effective := minPositiveDuration(handlerTimeout, override)
	if effective <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, effective)
}

func minPositiveDuration(a, b time.Duration) time.Duration {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

// effectiveMaxRetries derives the retry budget for a handler invocation.
// The handler descriptor is the gate: a handler with MaxRetries<=0 allows no
// retries regardless of the command's own override. A positive command
// override can only tighten the handler's budget, never loosen it.
func effectiveMaxRetries(handlerMaxRetries, override int) int {
	if handlerMaxRetries <= 0 {
		return 0
	}

	if override > 0 && override < handlerMaxRetries {
		return override
	}

	return handlerMaxRetries
}

func isRetryable(err error) bool {
	var he cerrors.HandlerError

	return errors.As(err, &he) && he.Retryable
}

func classifyHandlerErr(messageType string, ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return cerrors.HandlerTimeout{MessageType: messageType, Timeout: "deadline exceeded"}
	}

	var he cerrors.HandlerError
	if asHandlerError(err, &he) {
		return he
	}

	return cerrors.HandlerError{MessageType: messageType, Err: err, Retryable: false}
}

func asHandlerError(err error, target *cerrors.HandlerError) bool {
	he, ok := err.(cerrors.HandlerError)
	if !ok {
		return false
	}

	*target = he

	return true
}

func toFieldErrors(errs []FieldError) []cerrors.FieldError {
	out := make([]cerrors.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, cerrors.FieldError{Field: e.Field, Code: e.Code, Message: e.Message})
	}

	return out
}

func toViolations(vs []Violation) []cerrors.Violation {
	out := make([]cerrors.Violation, 0, len(vs))
	for _, v := range vs {
		out = append(out, cerrors.Violation{Source: v.Source, Reason: v.Reason})
	}

	return out
}

type noopTimer struct{}

func (noopTimer) Observe(time.Duration) {}

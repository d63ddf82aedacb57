package cqrs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/events"
	"github.com/firefly-oss/lib-common-domain/metrics"
)

type openAccountCommand struct {
	AccountID string `validate:"required"`
	Currency  string `validate:"required,len=3"`
}

type openAccountResult struct {
	AccountID string
	Events    []events.DomainEventEnvelope
}

func (r openAccountResult) DomainEvents() []events.DomainEventEnvelope { return r.Events }

type stubAuthorizer struct {
	result AuthorizationResult
}

func (s stubAuthorizer) Authorize(ctx context.Context, messageType string, payload any) AuthorizationResult {
	return s.result
}

func allowAuthorizer() Authorizer { return stubAuthorizer{result: AuthorizationResult{Authorized: true}} }

func denyAuthorizer(reason string) Authorizer {
	return stubAuthorizer{result: AuthorizationResult{
		Authorized: false,
		Violations: []Violation{{Source: "test", Reason: reason}},
	}}
}

func newTestCommandBus(authorizer Authorizer, m metrics.Registry) *CommandBus {
	registry := NewHandlerRegistry()

	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		payload := cmd.Payload.(openAccountCommand)
		return openAccountResult{AccountID: payload.AccountID}, nil
	})

	registry.Register("account.open", handler)

	return NewCommandBus(registry, NewValidationProcessor(), authorizer, m, nil)
}

func TestSend_HappyPath(t *testing.T) {
	bus := newTestCommandBus(allowAuthorizer(), nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})

	result, err := Send[openAccountResult](context.Background(), bus, cmd)

	assert.NoError(t, err)
	assert.Equal(t, "acc-1", result.AccountID)
}

func TestSend_HandlerNotFound(t *testing.T) {
	bus := newTestCommandBus(allowAuthorizer(), nil)

	cmd := NewCommand[openAccountResult]("account.unknown", openAccountCommand{AccountID: "acc-1", Currency: "USD"})

	_, err := Send[openAccountResult](context.Background(), bus, cmd)

	assert.ErrorAs(t, err, &cerrors.HandlerNotFound{})
}

func TestSend_ValidationFailure(t *testing.T) {
	bus := newTestCommandBus(allowAuthorizer(), nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{Currency: "US"})

	_, err := Send[openAccountResult](context.Background(), bus, cmd)

	var verr cerrors.ValidationFailed
	assert.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Errors)
}

func TestSend_AuthorizationDenied(t *testing.T) {
	bus := newTestCommandBus(denyAuthorizer("insufficient_role"), nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})

	_, err := Send[openAccountResult](context.Background(), bus, cmd)

	var aerr cerrors.AuthorizationDenied
	assert.ErrorAs(t, err, &aerr)
	assert.Len(t, aerr.Violations, 1)
	assert.Equal(t, "insufficient_role", aerr.Violations[0].Reason)
}

func TestSend_HandlerErrorWrapped(t *testing.T) {
	registry := NewHandlerRegistry()

	wantErr := errors.New("insufficient funds")
	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		return openAccountResult{}, wantErr
	})
	registry.Register("account.open", handler)

	bus := NewCommandBus(registry, NewValidationProcessor(), allowAuthorizer(), nil, nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})

	_, err := Send[openAccountResult](context.Background(), bus, cmd)

	var herr cerrors.HandlerError
	assert.ErrorAs(t, err, &herr)
	assert.ErrorIs(t, herr.Err, wantErr)
}

func TestSend_TimeoutOverrideClassifiesAsHandlerTimeout(t *testing.T) {
	registry := NewHandlerRegistry()

	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		<-ctx.Done()
		return openAccountResult{}, ctx.Err()
	})
	registry.Register("account.open", handler)

	bus := NewCommandBus(registry, NewValidationProcessor(), allowAuthorizer(), nil, nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})
	cmd.TimeoutOverride = 10 * time.Millisecond

	_, err := Send[openAccountResult](context.Background(), bus, cmd)

	assert.ErrorAs(t, err, &cerrors.HandlerTimeout{})
}

func TestSend_EmitsMetrics(t *testing.T) {
	recorder := metrics.NewRecorder()
	bus := newTestCommandBus(allowAuthorizer(), recorder)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})

	_, err := Send[openAccountResult](context.Background(), bus, cmd)
	assert.NoError(t, err)

	assert.Greater(t, recorder.Count("command.duration"), 0)
	assert.Greater(t, recorder.Count("command.sent.total"), 0)
}

// TestSend_PublishesDomainEventOnSuccess reproduces the "successful command"
// scenario: OpenAccountCommand succeeds and exactly one
// type=account.opened/topic=banking.accounts envelope is published.
func TestSend_PublishesDomainEventOnSuccess(t *testing.T) {
	listeners := events.NewListenerRegistry(nil)

	var captured []events.DomainEventEnvelope
	listeners.Subscribe("account.opened", func(ctx context.Context, env events.DomainEventEnvelope) error {
		captured = append(captured, env)
		return nil
	})

	adapterRegistry := events.NewAdapterRegistry()
	adapterRegistry.Register(config.AdapterInProcess, events.NewInProcessAdapter(listeners))
	_, err := adapterRegistry.Select(config.EventsConfig{Adapter: config.AdapterInProcess})
	assert.NoError(t, err)

	publisher := events.NewPublisher(adapterRegistry, nil)

	registry := NewHandlerRegistry()
	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		payload := cmd.Payload.(openAccountCommand)
		return openAccountResult{
			AccountID: "ACC-1",
			Events: []events.DomainEventEnvelope{{
				Topic:   "banking.accounts",
				Type:    "account.opened",
				Payload: map[string]string{"customerId": payload.AccountID},
			}},
		}, nil
	})
	registry.Register("account.open", handler)

	bus := NewCommandBus(registry, NewValidationProcessor(), allowAuthorizer(), nil, publisher)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "CUST-12345", Currency: "USD"})

	result, err := Send[openAccountResult](context.Background(), bus, cmd)

	assert.NoError(t, err)
	assert.Equal(t, "ACC-1", result.AccountID)

	assert.Len(t, captured, 1)
	assert.Equal(t, "account.opened", captured[0].Type)
	assert.Equal(t, "banking.accounts", captured[0].Topic)
	assert.Equal(t, map[string]string{"customerId": "CUST-12345"}, captured[0].Payload)
}

func TestSend_ValidationFailureEmitsNoEvent(t *testing.T) {
	listeners := events.NewListenerRegistry(nil)

	published := false
	listeners.Subscribe("account.opened", func(ctx context.Context, env events.DomainEventEnvelope) error {
		published = true
		return nil
	})

	adapterRegistry := events.NewAdapterRegistry()
	adapterRegistry.Register(config.AdapterInProcess, events.NewInProcessAdapter(listeners))
	_, err := adapterRegistry.Select(config.EventsConfig{Adapter: config.AdapterInProcess})
	assert.NoError(t, err)

	publisher := events.NewPublisher(adapterRegistry, nil)

	registry := NewHandlerRegistry()
	invoked := false
	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		invoked = true
		return openAccountResult{}, nil
	})
	registry.Register("account.open", handler)

	bus := NewCommandBus(registry, NewValidationProcessor(), allowAuthorizer(), nil, publisher)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{Currency: "US"})

	_, err = Send[openAccountResult](context.Background(), bus, cmd)

	assert.Error(t, err)
	assert.False(t, invoked)
	assert.False(t, published)
}

func TestSend_HandlerLevelTimeoutAppliesWhenNoOverride(t *testing.T) {
	registry := NewHandlerRegistry()

	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		<-ctx.Done()
		return openAccountResult{}, ctx.Err()
	})
	registry.RegisterWithDescriptor("account.open", handler, HandlerDescriptor{Timeout: 10 * time.Millisecond})

	bus := NewCommandBus(registry, NewValidationProcessor(), allowAuthorizer(), nil, nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})

	_, err := Send[openAccountResult](context.Background(), bus, cmd)

	assert.ErrorAs(t, err, &cerrors.HandlerTimeout{})
}

func TestSend_EffectiveTimeoutIsTighterOfHandlerAndOverride(t *testing.T) {
	registry := NewHandlerRegistry()

	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		<-ctx.Done()
		return openAccountResult{}, ctx.Err()
	})
	registry.RegisterWithDescriptor("account.open", handler, HandlerDescriptor{Timeout: time.Hour})

	bus := NewCommandBus(registry, NewValidationProcessor(), allowAuthorizer(), nil, nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})
	cmd.TimeoutOverride = 10 * time.Millisecond

	_, err := Send[openAccountResult](context.Background(), bus, cmd)

	assert.ErrorAs(t, err, &cerrors.HandlerTimeout{})
}

func TestSend_RetriesRetryableHandlerErrorUpToMaxRetries(t *testing.T) {
	registry := NewHandlerRegistry()

	attempts := 0
	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		attempts++
		if attempts < 3 {
			return openAccountResult{}, cerrors.HandlerError{MessageType: "account.open", Err: errors.New("try again"), Retryable: true}
		}

		return openAccountResult{AccountID: "acc-1"}, nil
	})
	registry.RegisterWithDescriptor("account.open", handler, HandlerDescriptor{MaxRetries: 5})

	recorder := metrics.NewRecorder()
	bus := NewCommandBus(registry, NewValidationProcessor(), allowAuthorizer(), recorder, nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})

	result, err := Send[openAccountResult](context.Background(), bus, cmd)

	assert.NoError(t, err)
	assert.Equal(t, "acc-1", result.AccountID)
	assert.Equal(t, 3, attempts)
	assert.Greater(t, recorder.Count(constant.MetricCommandRetryAttempt), 0)
}

func TestSend_NonRetryableHandlerErrorIsNotRetried(t *testing.T) {
	registry := NewHandlerRegistry()

	attempts := 0
	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		attempts++
		return openAccountResult{}, errors.New("permanent failure")
	})
	registry.RegisterWithDescriptor("account.open", handler, HandlerDescriptor{MaxRetries: 5})

	bus := NewCommandBus(registry, NewValidationProcessor(), allowAuthorizer(), nil, nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})

	_, err := Send[openAccountResult](context.Background(), bus, cmd)

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestSend_HandlerDescriptorGatesRetriesEvenWithCommandOverride(t *testing.T) {
	registry := NewHandlerRegistry()

	attempts := 0
	handler := CommandHandlerFunc[openAccountResult](func(ctx context.Context, cmd Command[openAccountResult]) (openAccountResult, error) {
		attempts++
		return openAccountResult{}, cerrors.HandlerError{MessageType: "account.open", Err: errors.New("try again"), Retryable: true}
	})
	registry.RegisterWithDescriptor("account.open", handler, HandlerDescriptor{MaxRetries: 0})

	bus := NewCommandBus(registry, NewValidationProcessor(), allowAuthorizer(), nil, nil)

	cmd := NewCommand[openAccountResult]("account.open", openAccountCommand{AccountID: "acc-1", Currency: "USD"})
	cmd.MaxRetries = 5

	_, err := Send[openAccountResult](context.Background(), bus, cmd)

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

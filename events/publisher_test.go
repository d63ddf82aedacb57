package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/metrics"
)

func TestPublisher_EmptyTopicOrTypeFails(t *testing.T) {
	registry := NewAdapterRegistry()
	p := NewPublisher(registry, nil)

	err := p.Publish(context.Background(), DomainEventEnvelope{Type: "x"})

	var pubErr cerrors.PublisherError
	assert.ErrorAs(t, err, &pubErr)
}

func TestPublisher_NoAdapterSelectedFails(t *testing.T) {
	registry := NewAdapterRegistry()
	p := NewPublisher(registry, nil)

	err := p.Publish(context.Background(), DomainEventEnvelope{Topic: "accounts", Type: "account.opened"})

	var pubErr cerrors.PublisherError
	assert.ErrorAs(t, err, &pubErr)
}

func TestPublisher_PublishesThroughSelectedAdapter(t *testing.T) {
	registry := NewAdapterRegistry()
	registry.Register(config.AdapterNoop, NoopAdapter{})

	_, err := registry.Select(config.EventsConfig{Adapter: config.AdapterNoop})
	assert.NoError(t, err)

	recorder := metrics.NewRecorder()
	p := NewPublisher(registry, recorder)

	err = p.Publish(context.Background(), DomainEventEnvelope{Topic: "accounts", Type: "account.opened"})

	assert.NoError(t, err)
	assert.Greater(t, recorder.Count(constant.MetricEventsPublishedTotal), 0)
	assert.Greater(t, recorder.Count(constant.MetricEventsPublishDuration), 0)
}

func TestPublisher_InProcessAdapterDeliversSynchronously(t *testing.T) {
	listeners := NewListenerRegistry(nil)
	registry := NewAdapterRegistry()

	registry.Register(config.AdapterInProcess, NewInProcessAdapter(listeners))

	_, err := registry.Select(config.EventsConfig{Adapter: config.AdapterInProcess})
	assert.NoError(t, err)

	delivered := false
	listeners.Subscribe("account.opened", func(ctx context.Context, env DomainEventEnvelope) error {
		delivered = true
		return nil
	})

	p := NewPublisher(registry, nil)

	err = p.Publish(context.Background(), DomainEventEnvelope{Topic: "accounts", Type: "account.opened"})
	assert.NoError(t, err)
	assert.True(t, delivered)
}

func TestPublisher_NormalizesEnvelopeBeforePublish(t *testing.T) {
	listeners := NewListenerRegistry(nil)

	var captured DomainEventEnvelope
	listeners.Subscribe("account.opened", func(ctx context.Context, env DomainEventEnvelope) error {
		captured = env
		return nil
	})

	registry := NewAdapterRegistry()
	registry.Register(config.AdapterInProcess, NewInProcessAdapter(listeners))

	_, err := registry.Select(config.EventsConfig{Adapter: config.AdapterInProcess})
	assert.NoError(t, err)

	p := NewPublisher(registry, nil)

	err = p.Publish(context.Background(), DomainEventEnvelope{Topic: "accounts", Type: "account.opened"})
	assert.NoError(t, err)

	assert.NotNil(t, captured.Headers)
	assert.NotNil(t, captured.Metadata)
	assert.False(t, captured.Timestamp.IsZero())
}

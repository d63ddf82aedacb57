package stepbridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/events"
)

func TestTransform_DefaultsTopicWhenEmpty(t *testing.T) {
	step := events.StepEventEnvelope{SagaName: "open-account", SagaID: "saga-1", Type: "step.completed"}

	out := Transform(step, "banking-step-events")

	assert.Equal(t, "banking-step-events", out.Topic)
}

func TestTransform_PreservesExplicitTopic(t *testing.T) {
	step := events.StepEventEnvelope{Topic: "custom-topic", Type: "step.completed"}

	out := Transform(step, "banking-step-events")

	assert.Equal(t, "custom-topic", out.Topic)
}

func TestTransform_DefaultsKeyToSagaNameAndID(t *testing.T) {
	step := events.StepEventEnvelope{SagaName: "open-account", SagaID: "saga-1", Type: "step.completed"}

	out := Transform(step, "default-topic")

	assert.Equal(t, "open-account:saga-1", out.Key)
}

func TestTransform_PreservesExplicitKey(t *testing.T) {
	step := events.StepEventEnvelope{SagaName: "open-account", SagaID: "saga-1", Key: "explicit-key", Type: "step.completed"}

	out := Transform(step, "default-topic")

	assert.Equal(t, "explicit-key", out.Key)
}

func TestTransform_EnrichesMetadataFromStep(t *testing.T) {
	started := time.Now().Add(-time.Second).UTC()
	completed := time.Now().UTC()

	step := events.StepEventEnvelope{
		SagaName:    "open-account",
		SagaID:      "saga-1",
		Type:        "step.completed",
		Attempts:    2,
		LatencyMs:   125,
		StartedAt:   started,
		CompletedAt: completed,
		ResultType:  events.StepResultSuccess,
	}

	out := Transform(step, "default-topic")

	assert.Equal(t, 2, out.Metadata["step.attempts"])
	assert.Equal(t, int64(125), out.Metadata["step.latency_ms"])
	assert.Equal(t, started, out.Metadata["step.started_at"])
	assert.Equal(t, completed, out.Metadata["step.completed_at"])
	assert.Equal(t, events.StepResultSuccess, out.Metadata["step.result_type"])
}

func TestTransform_PayloadIsEntireStepEnvelope(t *testing.T) {
	step := events.StepEventEnvelope{SagaName: "open-account", SagaID: "saga-1", Type: "step.completed"}

	out := Transform(step, "default-topic")

	assert.Equal(t, step, out.Payload)
}

func TestTransform_DefaultsTimestampWhenZero(t *testing.T) {
	step := events.StepEventEnvelope{SagaName: "open-account", SagaID: "saga-1", Type: "step.completed"}

	out := Transform(step, "default-topic")

	assert.False(t, out.Timestamp.IsZero())
}

func TestTransform_PreservesExplicitTimestamp(t *testing.T) {
	ts := time.Now().Add(-time.Hour).UTC()
	step := events.StepEventEnvelope{SagaName: "open-account", SagaID: "saga-1", Type: "step.completed", Timestamp: ts}

	out := Transform(step, "default-topic")

	assert.Equal(t, ts, out.Timestamp)
}

func TestBridge_HandlePublishesTransformedEnvelope(t *testing.T) {
	listeners := events.NewListenerRegistry(nil)

	var captured events.DomainEventEnvelope
	listeners.Subscribe("step.completed", func(ctx context.Context, env events.DomainEventEnvelope) error {
		captured = env
		return nil
	})

	registry := events.NewAdapterRegistry()
	registry.Register(config.AdapterInProcess, events.NewInProcessAdapter(listeners))
	_, err := registry.Select(config.EventsConfig{Adapter: config.AdapterInProcess})
	assert.NoError(t, err)

	bridge := New(events.NewPublisher(registry, nil), config.StepEventsConfig{DefaultTopic: "default-topic"})

	step := events.StepEventEnvelope{SagaName: "open-account", SagaID: "saga-1", Type: "step.completed"}

	err = bridge.Handle(context.Background(), step)
	assert.NoError(t, err)

	assert.Equal(t, "open-account:saga-1", captured.Key)
	assert.Equal(t, "default-topic", captured.Topic)
}

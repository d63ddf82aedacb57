// Package stepbridge transforms a StepEventEnvelope into a
// DomainEventEnvelope and publishes it through the event dispatch core,
// enriching the result with step-execution metadata.
package stepbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/events"
)

// Bridge transforms inbound StepEventEnvelopes into DomainEventEnvelopes
// and publishes them via a events.Publisher.
type Bridge struct {
	Publisher    *events.Publisher
	DefaultTopic string
}

// New builds a Bridge from cfg and publisher.
func New(publisher *events.Publisher, cfg config.StepEventsConfig) *Bridge {
	return &Bridge{Publisher: publisher, DefaultTopic: cfg.DefaultTopic}
}

// Handle transforms step and publishes it. Errors from the downstream
// publisher propagate unchanged.
func (b *Bridge) Handle(ctx context.Context, step events.StepEventEnvelope) error {
	return b.Publisher.Publish(ctx, Transform(step, b.DefaultTopic))
}

// Transform maps a StepEventEnvelope onto a DomainEventEnvelope: topic and
// key fall back to a default/derived value when the step doesn't set them,
// and step-execution metadata rides along in Metadata.
func Transform(step events.StepEventEnvelope, defaultTopic string) events.DomainEventEnvelope {
	topic := step.Topic
	if topic == "" {
		topic = defaultTopic
	}

	key := step.Key
	if key == "" {
		key = fmt.Sprintf("%s:%s", step.SagaName, step.SagaID)
	}

	timestamp := step.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	return events.DomainEventEnvelope{
		Topic:   topic,
		Type:    step.Type,
		Key:     key,
		Payload: step,
		Headers: step.Headers,
		Metadata: map[string]any{
			"step.attempts":      step.Attempts,
			"step.latency_ms":    step.LatencyMs,
			"step.started_at":    step.StartedAt,
			"step.completed_at":  step.CompletedAt,
			"step.result_type":   step.ResultType,
		},
		Timestamp: timestamp,
	}
}

// Package events implements the event dispatch core: an abstract
// EventPublisher with multiple adapter backends selected by an
// AdapterRegistry, plus an inbound EventListenerRegistry.
package events

import (
	"time"
)

// DomainEventEnvelope is the outbound envelope published through
// EventPublisher. Invariant: Topic and Type are non-empty at publish time;
// Headers and Metadata are never nil.
type DomainEventEnvelope struct {
	Topic     string            `json:"topic"`
	Type      string            `json:"type"`
	Key       string            `json:"key,omitempty"`
	Payload   any               `json:"payload"`
	Headers   map[string]string `json:"headers"`
	Metadata  map[string]any    `json:"metadata"`
	Timestamp time.Time         `json:"timestamp"`
}

// Normalize applies the defaulting rules required before publish: Timestamp
// defaults to now, Headers/Metadata default to empty maps.
func (e DomainEventEnvelope) Normalize() DomainEventEnvelope {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if e.Headers == nil {
		e.Headers = map[string]string{}
	}

	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}

	return e
}

// StepEventEnvelope is the saga step lifecycle event that forms the input
// side of the step-event bridge.
type StepEventEnvelope struct {
	SagaName    string            `json:"sagaName"`
	SagaID      string            `json:"sagaId"`
	StepID      string            `json:"stepId"`
	Topic       string            `json:"topic,omitempty"`
	Type        string            `json:"type"`
	Key         string            `json:"key,omitempty"`
	Payload     any               `json:"payload"`
	Headers     map[string]string `json:"headers,omitempty"`
	Attempts    int               `json:"attempts"`
	LatencyMs   int64             `json:"latencyMs"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt time.Time         `json:"completedAt"`
	ResultType  StepResult        `json:"resultType"`
	Timestamp   time.Time         `json:"timestamp,omitempty"`
}

// StepResult is the closed set of saga step outcomes.
type StepResult string

const (
	StepResultSuccess StepResult = "SUCCESS"
	StepResultFailure StepResult = "FAILURE"
)

package events

import (
	"context"
	"time"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/metrics"
)

// Publisher is the EventPublisher abstraction: publish(envelope) → ok|err,
// backed by whichever Adapter the AdapterRegistry selected.
type Publisher struct {
	Registry *AdapterRegistry
	Metrics  metrics.Registry
}

// NewPublisher wires an AdapterRegistry and metrics sink into a Publisher.
func NewPublisher(registry *AdapterRegistry, metricsRegistry metrics.Registry) *Publisher {
	return &Publisher{Registry: registry, Metrics: metricsRegistry}
}

// Publish normalizes env, publishes it through the selected adapter, and
// records the events.published.total/events.publish.duration metrics.
// Invariants (non-empty topic/type) are enforced before the adapter ever
// sees the envelope.
func (p *Publisher) Publish(ctx context.Context, env DomainEventEnvelope) error {
	if env.Topic == "" || env.Type == "" {
		return cerrors.PublisherError{Adapter: "unknown", Topic: env.Topic, Err: errEmptyTopicOrType}
	}

	env = env.Normalize()

	a, ok := p.Registry.Selected()
	if !ok {
		return cerrors.PublisherError{Adapter: "unknown", Topic: env.Topic, Err: errNoAdapterSelected}
	}

	start := time.Now()
	err := a.Publish(ctx, env)
	p.recordMetrics(a.Name(), env, time.Since(start), err)

	if err != nil {
		return cerrors.PublisherError{Adapter: a.Name(), Topic: env.Topic, Err: err}
	}

	return nil
}

func (p *Publisher) recordMetrics(adapterName string, env DomainEventEnvelope, elapsed time.Duration, err error) {
	if p.Metrics == nil {
		return
	}

	tags := tagsFor(adapterName, env.Topic, env.Type)
	p.Metrics.Timer(constant.MetricEventsPublishDuration, tags).Observe(elapsed)

	result := constant.ResultSuccess
	if err != nil {
		result = constant.ResultFailure
	}

	totalTags := map[string]string{
		constant.TagAdapter: adapterName,
		constant.TagTopic:   env.Topic,
		constant.TagType:    env.Type,
		constant.TagResult:  result,
	}
	p.Metrics.Counter(constant.MetricEventsPublishedTotal, totalTags).Inc()
}

type staticError string

func (e staticError) Error() string { return string(e) }

const (
	errEmptyTopicOrType = staticError("topic and type must be non-empty")
	errNoAdapterSelected = staticError("no adapter selected; call AdapterRegistry.Select first")
)

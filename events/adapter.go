package events

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/health"
)

// Adapter is the capability every concrete publisher backend implements,
// grounded on nmxmxh-master-ovasabi's bridge.Adapter (Protocol/Connect/Send/
// HealthCheck/Close) narrowed to this module's publish-only surface.
type Adapter interface {
	Name() string
	IsAvailable() bool
	Publish(ctx context.Context, env DomainEventEnvelope) error
	HealthProbe(ctx context.Context) health.ProbeResult
}

// priorityOf implements the auto-select order:
// KAFKA-like > AMQP-like > SQS-like > KINESIS-like > IN_PROCESS > NOOP.
func priorityOf(kind config.AdapterKind) int {
	switch kind {
	case config.AdapterKafka:
		return 0
	case config.AdapterAMQP:
		return 1
	case config.AdapterSQS:
		return 2
	case config.AdapterKinesis:
		return 3
	case config.AdapterInProcess:
		return 4
	case config.AdapterNoop:
		return 5
	default:
		return 99
	}
}

// registeredAdapter pairs an Adapter with the config.AdapterKind it was
// registered under, so AdapterRegistry can order by the priority table
// above without the Adapter itself knowing its own priority.
type registeredAdapter struct {
	kind    config.AdapterKind
	adapter Adapter
}

// AdapterRegistry loads available adapters and selects one, either
// explicitly configured or by priority. Duplicate registration under the
// same kind is a fatal startup error, the same panic-on-duplicate
// pattern HandlerRegistry uses.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[config.AdapterKind]Adapter
	selected Adapter
}

// NewAdapterRegistry returns an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: map[config.AdapterKind]Adapter{}}
}

// Register binds kind to adapter. Panics on duplicate registration.
func (r *AdapterRegistry) Register(kind config.AdapterKind, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[kind]; exists {
		panic(cerrors.ConfigurationError{Message: fmt.Sprintf("duplicate adapter registration for %q", kind)})
	}

	r.adapters[kind] = adapter
}

// Select resolves the active adapter: explicit cfg.Adapter if not "auto" and
// available, else highest-priority available adapter. Fails if no adapter
// is available at all; register at least NoopAdapter as a fallback to
// avoid that.
func (r *AdapterRegistry) Select(cfg config.EventsConfig) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.Adapter != config.AdapterAuto {
		a, ok := r.adapters[cfg.Adapter]
		if !ok || !a.IsAvailable() {
			return nil, cerrors.ConfigurationError{Message: fmt.Sprintf("configured adapter %q not available", cfg.Adapter)}
		}

		r.selected = a

		return a, nil
	}

	var candidates []registeredAdapter

	for kind, a := range r.adapters {
		if a.IsAvailable() {
			candidates = append(candidates, registeredAdapter{kind: kind, adapter: a})
		}
	}

	if len(candidates) == 0 {
		return nil, cerrors.ConfigurationError{Message: "no event adapter available"}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return priorityOf(candidates[i].kind) < priorityOf(candidates[j].kind)
	})

	r.selected = candidates[0].adapter

	return r.selected, nil
}

// Selected returns the adapter chosen by the last Select call, if any.
func (r *AdapterRegistry) Selected() (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.selected, r.selected != nil
}

// HealthIndicator wraps the selected adapter's HealthProbe as a
// health.Indicator for registration with a health.Aggregator.
func (r *AdapterRegistry) HealthIndicator() health.Indicator {
	return func(ctx context.Context) health.ProbeResult {
		a, ok := r.Selected()
		if !ok {
			return health.ProbeResult{Status: health.StatusDown, Details: map[string]any{"reason": "no adapter selected"}}
		}

		return a.HealthProbe(ctx)
	}
}

// tagsFor builds the common adapter/topic/type tag set used across the
// events.* metrics.
func tagsFor(adapterName, topic, eventType string) map[string]string {
	return map[string]string{
		constant.TagAdapter: adapterName,
		constant.TagTopic:   topic,
		constant.TagType:    eventType,
	}
}

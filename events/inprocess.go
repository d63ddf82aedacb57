package events

import (
	"context"

	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/health"
)

// InProcessAdapter delivers to the local ListenerRegistry synchronously on
// the caller's goroutine.
type InProcessAdapter struct {
	Listeners *ListenerRegistry
}

// NewInProcessAdapter wraps registry as an Adapter.
func NewInProcessAdapter(registry *ListenerRegistry) *InProcessAdapter {
	return &InProcessAdapter{Listeners: registry}
}

func (a *InProcessAdapter) Name() string { return constant.AdapterInProcess }

func (a *InProcessAdapter) IsAvailable() bool { return a.Listeners != nil }

func (a *InProcessAdapter) Publish(ctx context.Context, env DomainEventEnvelope) error {
	a.Listeners.Dispatch(ctx, env)
	return nil
}

func (a *InProcessAdapter) HealthProbe(context.Context) health.ProbeResult {
	if a.Listeners == nil {
		return health.ProbeResult{Status: health.StatusDown}
	}

	return health.ProbeResult{Status: health.StatusUP, Details: map[string]any{"failures": a.Listeners.FailureCount()}}
}

package events

import (
	"context"
	"sync"

	"github.com/firefly-oss/lib-common-domain/logging"
)

// Listener handles one decoded inbound envelope. Its error is logged and
// counted, never propagated back to the publisher.
type Listener func(ctx context.Context, env DomainEventEnvelope) error

// ListenerRegistry maintains map<eventType, list<listener>> and a default
// bucket for unmatched types. Listeners execute concurrently.
type ListenerRegistry struct {
	mu       sync.RWMutex
	byType   map[string][]Listener
	fallback []Listener
	logger   logging.Logger
	failures int
}

// NewListenerRegistry returns an empty ListenerRegistry. A nil logger falls
// back to logging.NoneLogger.
func NewListenerRegistry(logger logging.Logger) *ListenerRegistry {
	if logger == nil {
		logger = &logging.NoneLogger{}
	}

	return &ListenerRegistry{byType: map[string][]Listener{}, logger: logger}
}

// Subscribe registers l for eventType. An empty eventType subscribes to the
// default bucket for unmatched types.
func (r *ListenerRegistry) Subscribe(eventType string, l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if eventType == "" {
		r.fallback = append(r.fallback, l)
		return
	}

	r.byType[eventType] = append(r.byType[eventType], l)
}

// Dispatch invokes every listener matching env.Type concurrently (or the
// default bucket if none match). Individual failures are logged and
// counted, never returned.
func (r *ListenerRegistry) Dispatch(ctx context.Context, env DomainEventEnvelope) {
	r.mu.RLock()
	listeners, ok := r.byType[env.Type]
	if !ok || len(listeners) == 0 {
		listeners = r.fallback
	}
	r.mu.RUnlock()

	if len(listeners) == 0 {
		return
	}

	var wg sync.WaitGroup

	for _, l := range listeners {
		wg.Add(1)

		go func(l Listener) {
			defer wg.Done()

			if err := l(ctx, env); err != nil {
				r.mu.Lock()
				r.failures++
				r.mu.Unlock()

				r.logger.Errorf("listener failed for event type %q: %v", env.Type, err)
			}
		}(l)
	}

	wg.Wait()
}

// FailureCount returns how many listener invocations have failed so far.
func (r *ListenerRegistry) FailureCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.failures
}

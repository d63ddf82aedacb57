package events

import (
	"context"

	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/health"
)

// NoopAdapter discards every envelope and reports itself always healthy:
// the fallback adapter when nothing else is available, or an explicit
// choice for tests.
type NoopAdapter struct{}

func (NoopAdapter) Name() string { return constant.AdapterNoop }

func (NoopAdapter) IsAvailable() bool { return true }

func (NoopAdapter) Publish(context.Context, DomainEventEnvelope) error { return nil }

func (NoopAdapter) HealthProbe(context.Context) health.ProbeResult {
	return health.ProbeResult{Status: health.StatusUP}
}

package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OtelRegistry backs Registry with an OpenTelemetry metric.Meter. Instrument
// handles are cached per (kind, name) since otel instruments are meant to be
// created once and reused.
type OtelRegistry struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]metric.Float64Counter
	gauges     map[string]metric.Float64Gauge
	histograms map[string]metric.Float64Histogram
}

// NewOtelRegistry builds a Registry backed by meter.
func NewOtelRegistry(meter metric.Meter) *OtelRegistry {
	return &OtelRegistry{
		meter:      meter,
		counters:   map[string]metric.Float64Counter{},
		gauges:     map[string]metric.Float64Gauge{},
		histograms: map[string]metric.Float64Histogram{},
	}
}

func toAttrs(tags map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(tags))
	for k, v := range tags {
		attrs = append(attrs, attribute.String(k, v))
	}

	return attrs
}

type otelCounter struct {
	ctx   context.Context
	inst  metric.Float64Counter
	attrs []attribute.KeyValue
}

func (c otelCounter) Inc()              { c.Add(1) }
func (c otelCounter) Add(delta float64) { c.inst.Add(c.ctx, delta, metric.WithAttributes(c.attrs...)) }

type otelGauge struct {
	ctx   context.Context
	inst  metric.Float64Gauge
	attrs []attribute.KeyValue
}

func (g otelGauge) Set(value float64) { g.inst.Record(g.ctx, value, metric.WithAttributes(g.attrs...)) }

type otelHistogram struct {
	ctx   context.Context
	inst  metric.Float64Histogram
	attrs []attribute.KeyValue
}

func (h otelHistogram) Observe(value float64) {
	h.inst.Record(h.ctx, value, metric.WithAttributes(h.attrs...))
}

type otelTimer struct{ otelHistogram }

func (t otelTimer) Observe(d time.Duration) { t.otelHistogram.Observe(float64(d.Milliseconds())) }

//nolint:ireturn
func (r *OtelRegistry) Counter(name string, tags map[string]string) Counter {
	r.mu.Lock()
	inst, ok := r.counters[name]
	if !ok {
		var err error

		inst, err = r.meter.Float64Counter(name)
		if err != nil {
			inst, _ = r.meter.Float64Counter(name + ".fallback")
		}

		r.counters[name] = inst
	}
	r.mu.Unlock()

	return otelCounter{ctx: context.Background(), inst: inst, attrs: toAttrs(tags)}
}

//nolint:ireturn
func (r *OtelRegistry) Gauge(name string, tags map[string]string) Gauge {
	r.mu.Lock()
	inst, ok := r.gauges[name]
	if !ok {
		var err error

		inst, err = r.meter.Float64Gauge(name)
		if err != nil {
			inst, _ = r.meter.Float64Gauge(name + ".fallback")
		}

		r.gauges[name] = inst
	}
	r.mu.Unlock()

	return otelGauge{ctx: context.Background(), inst: inst, attrs: toAttrs(tags)}
}

//nolint:ireturn
func (r *OtelRegistry) Histogram(name string, tags map[string]string) Histogram {
	return otelHistogram(r.histogramFor(name, tags))
}

//nolint:ireturn
func (r *OtelRegistry) Timer(name string, tags map[string]string) Timer {
	return otelTimer{r.histogramFor(name, tags)}
}

func (r *OtelRegistry) histogramFor(name string, tags map[string]string) otelHistogram {
	r.mu.Lock()
	inst, ok := r.histograms[name]
	if !ok {
		var err error

		inst, err = r.meter.Float64Histogram(name)
		if err != nil {
			inst, _ = r.meter.Float64Histogram(name + ".fallback")
		}

		r.histograms[name] = inst
	}
	r.mu.Unlock()

	return otelHistogram{ctx: context.Background(), inst: inst, attrs: toAttrs(tags)}
}

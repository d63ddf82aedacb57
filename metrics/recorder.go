package metrics

import (
	"sync"
	"time"
)

// Recorder is an in-memory Registry implementation that captures every
// emission as an Event, letting tests assert on what a bus or service
// client actually recorded without standing up an OpenTelemetry collector.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Events returns a snapshot of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)

	return out
}

// Count returns how many events were recorded with the given name.
func (r *Recorder) Count(name string) int {
	n := 0

	for _, e := range r.Events() {
		if e.Name == name {
			n++
		}
	}

	return n
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

type recorderCounter struct {
	r    *Recorder
	name string
	tags map[string]string
}

func (c recorderCounter) Inc() { c.Add(1) }
func (c recorderCounter) Add(delta float64) {
	c.r.record(Event{Name: c.name, Tags: c.tags, Value: delta, Kind: KindCounter})
}

type recorderGauge struct {
	r    *Recorder
	name string
	tags map[string]string
}

func (g recorderGauge) Set(value float64) {
	g.r.record(Event{Name: g.name, Tags: g.tags, Value: value, Kind: KindGauge})
}

type recorderTimer struct {
	r    *Recorder
	name string
	tags map[string]string
}

func (t recorderTimer) Observe(d time.Duration) {
	t.r.record(Event{Name: t.name, Tags: t.tags, Value: float64(d.Milliseconds()), Kind: KindTimer})
}

type recorderHistogram struct {
	r    *Recorder
	name string
	tags map[string]string
}

func (h recorderHistogram) Observe(value float64) {
	h.r.record(Event{Name: h.name, Tags: h.tags, Value: value, Kind: KindHistogram})
}

//nolint:ireturn
func (r *Recorder) Counter(name string, tags map[string]string) Counter {
	return recorderCounter{r: r, name: name, tags: tags}
}

//nolint:ireturn
func (r *Recorder) Gauge(name string, tags map[string]string) Gauge {
	return recorderGauge{r: r, name: name, tags: tags}
}

//nolint:ireturn
func (r *Recorder) Timer(name string, tags map[string]string) Timer {
	return recorderTimer{r: r, name: name, tags: tags}
}

//nolint:ireturn
func (r *Recorder) Histogram(name string, tags map[string]string) Histogram {
	return recorderHistogram{r: r, name: name, tags: tags}
}

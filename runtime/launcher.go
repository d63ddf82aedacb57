// Package runtime provides a Group that starts and stops the long-running
// components a host process wires together — inbound event consumers,
// health probe loops — concurrently, tracking each by name and waiting for
// graceful shutdown.
package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/firefly-oss/lib-common-domain/console"
	"github.com/firefly-oss/lib-common-domain/logging"
)

// Component is a long-running piece of this module's infrastructure (an
// event adapter's consume loop, a health-probe ticker) that runs until ctx
// is cancelled.
type Component interface {
	Run(ctx context.Context) error
}

// ComponentFunc adapts a plain function to Component.
type ComponentFunc func(ctx context.Context) error

func (f ComponentFunc) Run(ctx context.Context) error { return f(ctx) }

// GroupOption configures a Group at construction time.
type GroupOption func(g *Group)

// WithLogger attaches logger to the Group.
func WithLogger(logger logging.Logger) GroupOption {
	return func(g *Group) { g.logger = logger }
}

// Group manages named Components, running each in its own goroutine and
// collecting their terminal errors.
type Group struct {
	logger     logging.Logger
	components map[string]Component
	errs       map[string]error
	mu         sync.Mutex
}

// NewGroup builds an empty Group. Without WithLogger, the Group logs to
// logging.NoneLogger.
func NewGroup(opts ...GroupOption) *Group {
	g := &Group{
		components: map[string]Component{},
		errs:       map[string]error{},
		logger:     &logging.NoneLogger{},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Add registers a Component under name. Returns the Group for chaining.
func (g *Group) Add(name string, c Component) *Group {
	g.components[name] = c
	return g
}

// Run starts every registered Component concurrently and blocks until every
// Component has returned. With no Components it returns at once.
func (g *Group) Run(ctx context.Context) map[string]error {
	var wg sync.WaitGroup

	count := len(g.components)
	wg.Add(count)

	fmt.Println(console.Title("Component Group Run"))
	g.logger.Infof("starting %d component(s)", count)

	for name, c := range g.components {
		go func(name string, c Component) {
			defer wg.Done()

			g.logger.Infof("component %q starting", name)

			if err := c.Run(ctx); err != nil {
				g.mu.Lock()
				g.errs[name] = err
				g.mu.Unlock()

				g.logger.Errorf("component %q error: %v", name, err)
			}

			g.logger.Infof("component %q finished", name)
		}(name, c)
	}

	wg.Wait()

	g.logger.Info("component group terminated")

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]error, len(g.errs))
	for k, v := range g.errs {
		out[k] = v
	}

	return out
}

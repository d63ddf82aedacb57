// Package correlation carries a per-request correlation id and execution
// context across the call graph via context.Context, using an explicit
// carrier value rather than an ambient package-level global.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const key = contextKey("lib-common-domain/correlation")

// Context is the per-logical-request correlation carrier propagated through
// the call graph and attached to outbound service calls via transport
// headers. Attributes is read-only by contract once attached to a context.
type Context struct {
	CorrelationID string
	ParentID      string
	Attributes    map[string]any
}

// Execution is the read-only-by-contract execution context passed alongside
// a Command/Query: who is calling, and with which tenant/feature scope.
type Execution struct {
	UserID     string
	TenantID   string
	Features   map[string]struct{}
	Attributes map[string]any
}

// HasFeature reports whether the named feature flag is set.
func (e *Execution) HasFeature(name string) bool {
	if e == nil {
		return false
	}

	_, ok := e.Features[name]

	return ok
}

// New creates a Context with a freshly generated correlation id.
func New() Context {
	return Context{CorrelationID: uuid.NewString(), Attributes: map[string]any{}}
}

// WithParent returns a child Context that carries the same correlation id
// but records parentID as the id of the call that spawned it.
func (c Context) WithParent(parentID string) Context {
	c.ParentID = parentID
	return c
}

// Into attaches c to ctx. Call once on entry to a bus.
func Into(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, key, c)
}

// From extracts the Context attached to ctx, or a fresh one from New (with
// a newly minted correlation id) if none was attached.
func From(ctx context.Context) Context {
	if c, ok := ctx.Value(key).(Context); ok {
		return c
	}

	return New()
}

// ID is a convenience accessor returning just the correlation id, or "" if
// none is attached.
func ID(ctx context.Context) string {
	if c, ok := ctx.Value(key).(Context); ok {
		return c.CorrelationID
	}

	return ""
}

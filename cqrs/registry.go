package cqrs

import (
	"fmt"
	"sync"

	"github.com/firefly-oss/lib-common-domain/cerrors"
)

// handlerEntry pairs a registered handler with the policy that governs how
// a bus invokes it.
type handlerEntry struct {
	handler    any
	descriptor HandlerDescriptor
}

// HandlerRegistry maps a message type name to exactly one handler, built
// once at startup and read-only afterward. Handlers are stored as `any`
// since Go generics can't express a heterogeneous map of CommandHandler[R]
// for varying R; callers type-assert on lookup via
// LookupCommandHandler/LookupQueryHandler.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]handlerEntry
	sealed   bool
}

// NewHandlerRegistry returns an empty, unsealed registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: map[string]handlerEntry{}}
}

// Register binds messageType to handler with the zero-value HandlerDescriptor
// (no handler-level timeout or retry budget, not cacheable). Use
// RegisterWithDescriptor to attach a policy.
func (r *HandlerRegistry) Register(messageType string, handler any) {
	r.RegisterWithDescriptor(messageType, handler, HandlerDescriptor{})
}

// RegisterWithDescriptor binds messageType to handler under the given
// per-handler policy. Calling it for a type that is already bound is a
// fatal startup error: it panics, the same way other misconfigurations
// discovered at process construction time do.
func (r *HandlerRegistry) RegisterWithDescriptor(messageType string, handler any, descriptor HandlerDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		panic(cerrors.ConfigurationError{Message: fmt.Sprintf("cannot register %q: registry sealed", messageType)})
	}

	if _, exists := r.handlers[messageType]; exists {
		panic(cerrors.ConfigurationError{Message: fmt.Sprintf("duplicate handler registration for %q", messageType)})
	}

	descriptor.MessageType = messageType
	r.handlers[messageType] = handlerEntry{handler: handler, descriptor: descriptor}
}

// Seal marks the registry read-only. Further Register calls panic.
func (r *HandlerRegistry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Lookup returns the handler bound to messageType, if any. O(1).
func (r *HandlerRegistry) Lookup(messageType string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.handlers[messageType]
	if !ok {
		return nil, false
	}

	return e.handler, true
}

// LookupDescriptor returns the HandlerDescriptor bound to messageType, if
// any. A handler registered via Register carries the zero-value descriptor.
func (r *HandlerRegistry) LookupDescriptor(messageType string) (HandlerDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.handlers[messageType]

	return e.descriptor, ok
}

// LookupCommandHandler resolves and asserts a CommandHandler[R] for
// messageType.
func LookupCommandHandler[R any](r *HandlerRegistry, messageType string) (CommandHandler[R], bool) {
	h, ok := r.Lookup(messageType)
	if !ok {
		return nil, false
	}

	ch, ok := h.(CommandHandler[R])

	return ch, ok
}

// LookupQueryHandler resolves and asserts a QueryHandler[R] for
// messageType.
func LookupQueryHandler[R any](r *HandlerRegistry, messageType string) (QueryHandler[R], bool) {
	h, ok := r.Lookup(messageType)
	if !ok {
		return nil, false
	}

	qh, ok := h.(QueryHandler[R])

	return qh, ok
}

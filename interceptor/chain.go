// Package interceptor implements the InterceptorChain: an ordered chain of
// request/response interceptors a ServiceClient runs before and after
// transport invocation. Each interceptor wraps the call explicitly rather
// than through reflection or a framework-managed pipeline.
package interceptor

import "context"

// Request is the outbound call description an interceptor may inspect or
// rewrite before transport.invoke runs.
type Request struct {
	ServiceName string
	Operation   string
	Headers     map[string]string
	Body        any
}

// Response is what transport.invoke (or a short-circuiting interceptor)
// produced.
type Response struct {
	StatusClass string
	Body        any
	Err         error
}

// Interceptor runs before and after the transport call. Before may return a
// non-nil *Response to short-circuit the pipeline with a synthetic response
// without ever invoking transport.
type Interceptor interface {
	Order() int
	Before(ctx context.Context, req *Request) (context.Context, *Response)
	After(ctx context.Context, req *Request, resp *Response)
}

// Chain runs a stable-ordered (lower Order first) set of Interceptors
// around a transport invocation.
type Chain struct {
	interceptors []Interceptor
}

// NewChain sorts interceptors by Order and returns a Chain.
func NewChain(interceptors ...Interceptor) *Chain {
	sorted := append([]Interceptor{}, interceptors...)
	insertionSortByOrder(sorted)

	return &Chain{interceptors: sorted}
}

func insertionSortByOrder(xs []Interceptor) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j].Order() < xs[j-1].Order(); j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

// Invoke runs Before on every interceptor in order, then transport if none
// short-circuited, then After in reverse order on every interceptor whose
// Before ran.
func (c *Chain) Invoke(ctx context.Context, req *Request, transport func(ctx context.Context, req *Request) *Response) *Response {
	for i, ic := range c.interceptors {
		var short *Response
		ctx, short = ic.Before(ctx, req)

		if short != nil {
			c.runAfter(ctx, req, short, i)
			return short
		}
	}

	resp := transport(ctx, req)
	c.runAfter(ctx, req, resp, len(c.interceptors)-1)

	return resp
}

func (c *Chain) runAfter(ctx context.Context, req *Request, resp *Response, last int) {
	for i := last; i >= 0; i-- {
		c.interceptors[i].After(ctx, req, resp)
	}
}

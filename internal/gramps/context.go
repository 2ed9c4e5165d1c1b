package gramps

import (
	"net/http"

	resolver "github.com/hanpama/gramps/internal/resolver"
	server "github.com/hanpama/gramps/internal/server"
)

// Context builds the request context: one slice per source, keyed by
// namespace. A map slice is a fresh copy of the extra context with the
// source's own context merged over it. A source context that is not a map is
// stored as is. It is safe for concurrent use.
func (c *Composite) Context(r *http.Request) resolver.RequestContext {
	var extra map[string]any
	if c.extra != nil {
		extra = c.extra(r)
	}
	out := make(resolver.RequestContext, len(c.sources))
	for _, s := range c.sources {
		out[s.Namespace] = slice(extra, s.ContextFor(r))
	}
	return out
}

func slice(extra map[string]any, sourceContext any) any {
	var own map[string]any
	switch v := sourceContext.(type) {
	case nil:
	case map[string]any:
		own = v
	default:
		return v
	}
	out := make(map[string]any, len(extra)+len(own))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}

// AddContext stores the request context on r and calls next with the
// updated request.
func (c *Composite) AddContext(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	ctx := resolver.WithRequestContext(r.Context(), c.Context(r))
	next(w, r.WithContext(ctx))
}

// Middleware is AddContext as an http middleware.
func (c *Composite) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.AddContext(w, r, next.ServeHTTP)
	})
}

// FromRequest returns the request context AddContext stored on r.
func FromRequest(r *http.Request) (resolver.RequestContext, bool) {
	return resolver.RequestContextFrom(r.Context())
}

// Handler serves the composite schema over HTTP with the request context
// attached.
func (c *Composite) Handler(opts ...server.Option) (http.Handler, error) {
	h, err := server.New(c.Schema, append([]server.Option{server.WithLogger(c.logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return c.Middleware(h), nil
}

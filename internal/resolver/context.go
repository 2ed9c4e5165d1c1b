package resolver

import "context"

// RequestContext maps each data source namespace to its context slice.
type RequestContext map[string]any

type requestContextKey struct{}

// WithRequestContext stores rc on ctx.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom returns the RequestContext stored on ctx, if any.
func RequestContextFrom(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(RequestContext)
	return rc, ok
}

// Slice returns the namespace entry of a request context value. Anything
// that is not a RequestContext or plain map yields nil.
func Slice(ctx any, namespace string) any {
	switch c := ctx.(type) {
	case RequestContext:
		return c[namespace]
	case map[string]any:
		return c[namespace]
	default:
		return nil
	}
}

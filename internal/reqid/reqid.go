package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header carries the request ID on HTTP responses.
const Header = "X-Request-Id"

type key struct{}

// NewContext returns a copy of parent holding a new random request ID, and
// the ID.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithID(parent, id), id
}

// WithID returns a copy of parent holding id.
func WithID(parent context.Context, id string) context.Context {
	return context.WithValue(parent, key{}, id)
}

// FromContext extracts the request ID from ctx.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}

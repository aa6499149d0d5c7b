package store

import "context"

type contextKey struct{}

// WithStore returns a context carrying s. Retrieve it with FromContext.
func WithStore(ctx context.Context, s *Store) context.Context {
	s.mustBeProvided()

	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the store attached by WithStore. It panics when there is
// none: asking for the cart outside of its provider is a wiring bug.
func FromContext(ctx context.Context) *Store {
	s, ok := ctx.Value(contextKey{}).(*Store)
	if ok && s != nil {
		return s
	}
	panic(notProvidedMsg)
}

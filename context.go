package ioc

import "context"

// resolverContextKey is the key for storing a resolver in a context.
type resolverContextKey struct{}

// WithResolver returns a copy of ctx carrying r.
func WithResolver(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, resolverContextKey{}, r)
}

// FromContext returns the resolver carried by ctx. It fails with
// ErrResolverNil when there is none, and ErrResolverClosed when it has been closed.
func FromContext(ctx context.Context) (*Resolver, error) {
	r, ok := ctx.Value(resolverContextKey{}).(*Resolver)
	if !ok || r == nil {
		return nil, ErrResolverNil
	}

	if r.IsClosed() {
		return nil, ErrResolverClosed
	}

	return r, nil
}

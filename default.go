package ioc

import "sync/atomic"

// defaultResolver holds the default Resolver.
var defaultResolver atomic.Pointer[Resolver]

// SetDefault sets the default Resolver returned by Default.
// This is similar to slog.SetDefault. Pass nil to remove it.
func SetDefault(r *Resolver) {
	defaultResolver.Store(r)
}

// Default returns the default Resolver, or nil if none has been set.
func Default() *Resolver {
	return defaultResolver.Load()
}

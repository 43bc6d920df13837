package testutil

import (
	"reflect"
	"testing"

	"github.com/junioryono/ioc"
	"github.com/stretchr/testify/require"
)

// RegistryBuilder provides a fluent interface for building test registries.
// Every registration must succeed.
type RegistryBuilder struct {
	t        *testing.T
	registry *ioc.Registry
}

// NewRegistryBuilder creates a new RegistryBuilder
func NewRegistryBuilder(t *testing.T) *RegistryBuilder {
	return &RegistryBuilder{
		t:        t,
		registry: ioc.NewRegistry(),
	}
}

// WithConstructor registers a service by constructor injection
func (b *RegistryBuilder) WithConstructor(ctor any, opts ...ioc.AddOption) *RegistryBuilder {
	require.NoError(b.t, b.registry.AddConstructor(ctor, opts...))
	return b
}

// WithFields registers a service by field injection
func (b *RegistryBuilder) WithFields(t reflect.Type, opts ...ioc.AddOption) *RegistryBuilder {
	require.NoError(b.t, b.registry.AddFields(t, opts...))
	return b
}

// WithProperties registers a service by property injection
func (b *RegistryBuilder) WithProperties(t reflect.Type, opts ...ioc.AddOption) *RegistryBuilder {
	require.NoError(b.t, b.registry.AddProperties(t, opts...))
	return b
}

// WithInstance registers a pre-built instance
func (b *RegistryBuilder) WithInstance(instance any, opts ...ioc.AddOption) *RegistryBuilder {
	require.NoError(b.t, b.registry.AddInstance(instance, opts...))
	return b
}

// WithValue registers a named value
func (b *RegistryBuilder) WithValue(name string, value any) *RegistryBuilder {
	require.NoError(b.t, b.registry.AddValue(name, value))
	return b
}

// WithFunction registers a named function
func (b *RegistryBuilder) WithFunction(name string, fn any) *RegistryBuilder {
	require.NoError(b.t, b.registry.AddFunction(name, fn))
	return b
}

// WithModule runs a module
func (b *RegistryBuilder) WithModule(module ioc.ModuleOption) *RegistryBuilder {
	require.NoError(b.t, b.registry.AddModules(module))
	return b
}

// Registry returns the registry
func (b *RegistryBuilder) Registry() *ioc.Registry {
	return b.registry
}

// Freeze freezes the registry and closes the resolver when the test ends
func (b *RegistryBuilder) Freeze(opts ...ioc.ResolverOption) *ioc.Resolver {
	r := b.registry.Freeze(opts...)
	b.t.Cleanup(func() {
		_ = r.Close()
	})
	return r
}

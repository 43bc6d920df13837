package ioc

import "reflect"

// Builder provides a fluent API over a Registry. The first failing call
// is remembered and every later call is skipped; Build reports it.
//
//	resolver, err := ioc.NewBuilder().
//	    AddValue("count", 5).
//	    AddFunction("greet", Greet).
//	    AddConstructor(NewGreeter, ioc.WithParams(ioc.Arg("count"), ioc.Arg("greet"))).
//	    Build()
type Builder struct {
	registry *Registry
	opts     []ResolverOption
	err      error
}

// NewBuilder creates a builder over a new registry.
func NewBuilder() *Builder {
	return &Builder{registry: NewRegistry()}
}

func (b *Builder) do(fn func(*Registry) error) *Builder {
	if b.err != nil {
		return b
	}

	if err := fn(b.registry); err != nil {
		b.err = err
	}

	return b
}

// WithOptions adds options for the resolver Build creates.
func (b *Builder) WithOptions(opts ...ResolverOption) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// AddService adds a service definition.
func (b *Builder) AddService(def ServiceDefinition) *Builder {
	return b.do(func(g *Registry) error { return g.AddService(def) })
}

// AddFunction adds a named function.
func (b *Builder) AddFunction(name string, fn any) *Builder {
	return b.do(func(g *Registry) error { return g.AddFunction(name, fn) })
}

// AddValue adds a named value.
func (b *Builder) AddValue(name string, value any) *Builder {
	return b.do(func(g *Registry) error { return g.AddValue(name, value) })
}

// AddExecutor adds an executor definition.
func (b *Builder) AddExecutor(def ExecutorDefinition) *Builder {
	return b.do(func(g *Registry) error { return g.AddExecutor(def) })
}

// AddConstructor registers a service by constructor injection.
func (b *Builder) AddConstructor(ctor any, opts ...AddOption) *Builder {
	return b.do(func(g *Registry) error { return g.AddConstructor(ctor, opts...) })
}

// AddProperties registers a service by property injection.
func (b *Builder) AddProperties(t reflect.Type, opts ...AddOption) *Builder {
	return b.do(func(g *Registry) error { return g.AddProperties(t, opts...) })
}

// AddFields registers a service by field injection.
func (b *Builder) AddFields(t reflect.Type, opts ...AddOption) *Builder {
	return b.do(func(g *Registry) error { return g.AddFields(t, opts...) })
}

// AddConstructorsByBase registers every constructor of a subtype of base.
func (b *Builder) AddConstructorsByBase(base reflect.Type, ctors []any, opts ...AddOption) *Builder {
	return b.do(func(g *Registry) error { return g.AddConstructorsByBase(base, ctors, opts...) })
}

// AddPropertiesByBase registers every subtype of base by property injection.
func (b *Builder) AddPropertiesByBase(base reflect.Type, types []reflect.Type, opts ...AddOption) *Builder {
	return b.do(func(g *Registry) error { return g.AddPropertiesByBase(base, types, opts...) })
}

// AddFieldsByBase registers every subtype of base by field injection.
func (b *Builder) AddFieldsByBase(base reflect.Type, types []reflect.Type, opts ...AddOption) *Builder {
	return b.do(func(g *Registry) error { return g.AddFieldsByBase(base, types, opts...) })
}

// AddInstance registers a pre-built instance.
func (b *Builder) AddInstance(instance any, opts ...AddOption) *Builder {
	return b.do(func(g *Registry) error { return g.AddInstance(instance, opts...) })
}

// AddExecutorByTypeAndName registers the function of set named name.
func (b *Builder) AddExecutorByTypeAndName(set *FuncSet, name string) *Builder {
	return b.do(func(g *Registry) error { return g.AddExecutorByTypeAndName(set, name) })
}

// AddExecutorByType registers every free function of set.
func (b *Builder) AddExecutorByType(set *FuncSet) *Builder {
	return b.do(func(g *Registry) error { return g.AddExecutorByType(set) })
}

// AddExecutorByName registers every free function named name across sets.
func (b *Builder) AddExecutorByName(name string, sets ...*FuncSet) *Builder {
	return b.do(func(g *Registry) error { return g.AddExecutorByName(name, sets...) })
}

// AddModules runs modules against the registry.
func (b *Builder) AddModules(modules ...ModuleOption) *Builder {
	return b.do(func(g *Registry) error { return g.AddModules(modules...) })
}

// Validate checks the declared dependencies registered so far.
// See Registry.Validate.
func (b *Builder) Validate() *Builder {
	return b.do(func(g *Registry) error { return g.Validate() })
}

// Registry returns the underlying registry.
func (b *Builder) Registry() *Registry {
	return b.registry
}

// Err returns the first registration error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Build freezes the registry into a resolver, or returns the first
// registration error.
func (b *Builder) Build() (*Resolver, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.registry.Freeze(b.opts...), nil
}

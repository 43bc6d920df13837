package ioc

import "reflect"

// ModuleOption represents a registration action within a module.
type ModuleOption func(*Registry) error

// NewModule creates a module with the given name and registrations.
// Modules group related registrations together; a failing registration is
// reported as a ModuleError naming the module. Registrations that ran
// before the failure stay registered.
//
// Example:
//
//	var OperationsModule = ioc.NewModule("operations",
//	    ioc.AddValue("count", 5),
//	    ioc.AddFunction("greet", Greet),
//	    ioc.AddConstructor(NewGreeter, ioc.WithParams(ioc.Arg("count"), ioc.Arg("greet"))),
//	)
//
//	var AppModule = ioc.NewModule("app",
//	    OperationsModule,
//	    ioc.AddFields(reflect.TypeFor[*Report]()),
//	)
func NewModule(name string, builders ...ModuleOption) ModuleOption {
	return func(g *Registry) error {
		for _, builder := range builders {
			if builder == nil {
				continue
			}

			if err := builder(g); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// AddModules runs each module against the registry, stopping at the first error.
func (g *Registry) AddModules(modules ...ModuleOption) error {
	for _, module := range modules {
		if module == nil {
			continue
		}

		if err := module(g); err != nil {
			return err
		}
	}

	return nil
}

// AddService creates a ModuleOption that adds a service definition.
func AddService(def ServiceDefinition) ModuleOption {
	return func(g *Registry) error {
		return g.AddService(def)
	}
}

// AddFunction creates a ModuleOption that adds a named function.
func AddFunction(name string, fn any) ModuleOption {
	return func(g *Registry) error {
		return g.AddFunction(name, fn)
	}
}

// AddValue creates a ModuleOption that adds a named value.
func AddValue(name string, value any) ModuleOption {
	return func(g *Registry) error {
		return g.AddValue(name, value)
	}
}

// AddConstructor creates a ModuleOption that registers a service by constructor injection.
func AddConstructor(ctor any, opts ...AddOption) ModuleOption {
	return func(g *Registry) error {
		return g.AddConstructor(ctor, opts...)
	}
}

// AddProperties creates a ModuleOption that registers a service by property injection.
func AddProperties(t reflect.Type, opts ...AddOption) ModuleOption {
	return func(g *Registry) error {
		return g.AddProperties(t, opts...)
	}
}

// AddFields creates a ModuleOption that registers a service by field injection.
func AddFields(t reflect.Type, opts ...AddOption) ModuleOption {
	return func(g *Registry) error {
		return g.AddFields(t, opts...)
	}
}

// AddConstructorsByBase creates a ModuleOption that registers every
// constructor of a subtype of base.
func AddConstructorsByBase(base reflect.Type, ctors []any, opts ...AddOption) ModuleOption {
	return func(g *Registry) error {
		return g.AddConstructorsByBase(base, ctors, opts...)
	}
}

// AddInstance creates a ModuleOption that registers a pre-built instance.
func AddInstance(instance any, opts ...AddOption) ModuleOption {
	return func(g *Registry) error {
		return g.AddInstance(instance, opts...)
	}
}

// AddExecutors creates a ModuleOption that registers every free function of set.
func AddExecutors(set *FuncSet) ModuleOption {
	return func(g *Registry) error {
		return g.AddExecutorByType(set)
	}
}

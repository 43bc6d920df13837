package ioc

import (
	"fmt"
	"io"
	"reflect"

	"github.com/google/uuid"
	"github.com/junioryono/ioc/internal/graph"
)

// Registry accumulates service, function, value and executor definitions
// and freezes them into a Resolver.
//
// A Registry is not safe for concurrent use. Every failed call leaves the
// registry as it was before the call.
type Registry struct {
	services     []ServiceDefinition
	serviceIndex map[reflect.Type]int

	functions     []FunctionDefinition
	functionIndex map[string]int

	values     []ValueDefinition
	valueIndex map[string]int

	executors []ExecutorDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		serviceIndex:  make(map[reflect.Type]int),
		functionIndex: make(map[string]int),
		valueIndex:    make(map[string]int),
	}
}

// AddService adds a service definition.
func (g *Registry) AddService(def ServiceDefinition) error {
	return g.addServices([]ServiceDefinition{def})
}

// addServices validates every definition before appending any of them.
func (g *Registry) addServices(defs []ServiceDefinition) error {
	batch := make(map[reflect.Type]bool, len(defs))
	for _, def := range defs {
		if err := validateService(def); err != nil {
			return err
		}

		if _, exists := g.serviceIndex[def.Key]; exists || batch[def.Key] {
			return DuplicateKeyError{Kind: KindService, Key: typeName(def.Key)}
		}
		batch[def.Key] = true
	}

	for _, def := range defs {
		g.serviceIndex[def.Key] = len(g.services)
		g.services = append(g.services, def)
	}

	return nil
}

func validateService(def ServiceDefinition) error {
	switch {
	case def.Key == nil:
		return InvalidDefinitionError{Kind: KindService, Reason: "key is nil"}
	case def.Factory == nil:
		return InvalidDefinitionError{Kind: KindService, Key: typeName(def.Key), Reason: "factory is nil"}
	case !def.Life.IsValid():
		return InvalidDefinitionError{Kind: KindService, Key: typeName(def.Key), Reason: LifeError{Value: def.Life}.Error()}
	}
	return nil
}

// AddFunction adds a named function. fn must be a non-nil func value.
func (g *Registry) AddFunction(name string, fn any) error {
	switch {
	case name == "":
		return InvalidDefinitionError{Kind: KindFunction, Reason: "name is empty"}
	case fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func:
		return InvalidDefinitionError{Kind: KindFunction, Key: name, Reason: fmt.Sprintf("%T is not a function", fn)}
	case reflect.ValueOf(fn).IsNil():
		return InvalidDefinitionError{Kind: KindFunction, Key: name, Reason: "function is nil"}
	}

	if _, exists := g.functionIndex[name]; exists {
		return DuplicateKeyError{Kind: KindFunction, Key: name}
	}

	g.functionIndex[name] = len(g.functions)
	g.functions = append(g.functions, FunctionDefinition{Key: name, Function: fn})
	return nil
}

// AddValue adds a named value.
func (g *Registry) AddValue(name string, value any) error {
	switch {
	case name == "":
		return InvalidDefinitionError{Kind: KindValue, Reason: "name is empty"}
	case value == nil:
		return InvalidDefinitionError{Kind: KindValue, Key: name, Reason: "value is nil"}
	}

	if _, exists := g.valueIndex[name]; exists {
		return DuplicateKeyError{Kind: KindValue, Key: name}
	}

	g.valueIndex[name] = len(g.values)
	g.values = append(g.values, ValueDefinition{Key: name, Type: reflect.TypeOf(value), Value: value})
	return nil
}

// AddExecutor adds an executor definition. Several executors may share the
// same owner and function name.
func (g *Registry) AddExecutor(def ExecutorDefinition) error {
	return g.addExecutors([]ExecutorDefinition{def})
}

func (g *Registry) addExecutors(defs []ExecutorDefinition) error {
	for _, def := range defs {
		switch {
		case def.Function == "":
			return InvalidDefinitionError{Kind: KindExecutor, Key: typeName(def.Owner), Reason: "function name is empty"}
		case def.Factory == nil:
			return InvalidDefinitionError{Kind: KindExecutor, Key: def.Function, Reason: "factory is nil"}
		}
	}

	g.executors = append(g.executors, defs...)
	return nil
}

// ContainsService reports whether a service is registered under t.
func (g *Registry) ContainsService(t reflect.Type) bool {
	_, ok := g.serviceIndex[t]
	return ok
}

// ContainsFunction reports whether a function is registered under name.
func (g *Registry) ContainsFunction(name string) bool {
	_, ok := g.functionIndex[name]
	return ok
}

// ContainsValue reports whether a value is registered under name.
func (g *Registry) ContainsValue(name string) bool {
	_, ok := g.valueIndex[name]
	return ok
}

// Count returns the total number of definitions.
func (g *Registry) Count() int {
	return len(g.services) + len(g.functions) + len(g.values) + len(g.executors)
}

// Services returns the service definitions in registration order.
func (g *Registry) Services() []ServiceDefinition {
	return append([]ServiceDefinition(nil), g.services...)
}

// Executors returns the executor definitions in registration order.
func (g *Registry) Executors() []ExecutorDefinition {
	return append([]ExecutorDefinition(nil), g.executors...)
}

// graph builds the dependency graph of the declared dependencies.
func (g *Registry) graph() *graph.DependencyGraph {
	dg := graph.New()
	for _, def := range g.services {
		keys := make([]graph.NodeKey, 0, len(def.Dependencies))
		for _, dep := range def.Dependencies {
			keys = append(keys, dep.nodeKey())
		}
		dg.Add(graph.ServiceKey(def.Key), keys...)
	}
	return dg
}

// Validate checks the declared dependencies of every service and executor.
// It reports dependency cycles between services and required dependencies
// that nothing is registered for. Definitions with hand-written factories
// declare no dependencies and are only checked as targets.
func (g *Registry) Validate() error {
	var problems []error

	if err := g.graph().DetectCycles(); err != nil {
		problems = append(problems, err)
	}

	check := func(owner string, deps []Dependency) {
		for _, dep := range deps {
			if dep.Optional {
				continue
			}
			if err := g.missing(dep); err != nil {
				problems = append(problems, fmt.Errorf("%s: %w", owner, err))
			}
		}
	}

	for _, def := range g.services {
		check(typeName(def.Key), def.Dependencies)
	}
	for _, def := range g.executors {
		check(def.String(), def.Dependencies)
	}

	if len(problems) > 0 {
		return ValidationError{Problems: problems}
	}
	return nil
}

func (g *Registry) missing(dep Dependency) error {
	switch dep.Kind {
	case KindFunction:
		if !g.ContainsFunction(dep.Name) {
			return LookupError{Kind: KindFunction, Name: dep.Name}
		}
	case KindValue:
		if !g.ContainsValue(dep.Name) {
			return LookupError{Kind: KindValue, Name: dep.Name}
		}
	default:
		if !g.ContainsService(dep.Type) {
			return ServiceNotFoundError{ServiceType: dep.Type}
		}
	}
	return nil
}

// WriteDOT writes the service dependency graph in Graphviz DOT format.
func (g *Registry) WriteDOT(w io.Writer) error {
	return g.graph().WriteDOT(w)
}

// Freeze creates a Resolver from a snapshot of the registry. The registry
// is not modified and may keep being used.
func (g *Registry) Freeze(opts ...ResolverOption) *Resolver {
	options := &resolverOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyResolverOption(options)
		}
	}

	c := &core{
		id:        uuid.NewString(),
		logger:    options.logger(),
		services:  make(map[reflect.Type]*ServiceDefinition, len(g.services)),
		functions: make(map[string]FunctionDefinition, len(g.functions)),
		values:    make(map[string]ValueDefinition, len(g.values)),
		executors: append([]ExecutorDefinition(nil), g.executors...),
	}

	c.serviceList = make([]*ServiceDefinition, len(g.services))
	defs := append([]ServiceDefinition(nil), g.services...)
	for i := range defs {
		c.serviceList[i] = &defs[i]
		c.services[defs[i].Key] = &defs[i]
	}
	for _, def := range g.functions {
		c.functions[def.Key] = def
	}
	for _, def := range g.values {
		c.values[def.Key] = def
	}

	c.logger.Debug().
		Str("resolver", c.id).
		Int("services", len(g.services)).
		Int("functions", len(g.functions)).
		Int("values", len(g.values)).
		Int("executors", len(g.executors)).
		Msg("resolver created")

	return &Resolver{core: c}
}

package ioc

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/ioc/internal/graph"
)

// Kind identifies the four kinds of definitions a Registry holds.
type Kind int

const (
	// KindService definitions are looked up by type.
	KindService Kind = iota

	// KindFunction definitions are looked up by name.
	KindFunction

	// KindValue definitions are looked up by name.
	KindValue

	// KindExecutor definitions are selected by predicate.
	KindExecutor
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindFunction:
		return "function"
	case KindValue:
		return "value"
	case KindExecutor:
		return "executor"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Factory creates an instance, pulling its dependencies from the resolver.
type Factory func(r *Resolver) (any, error)

// PostConstructor runs once after a service instance has been created and injected.
type PostConstructor func(r *Resolver, instance any) error

// Dependency names something a factory resolves.
type Dependency struct {
	Kind Kind
	Type reflect.Type // the service type, or the declared member type of a function or value
	Name string       // empty for services

	// Optional dependencies have a default and never fail for being absent.
	Optional bool
}

func (d Dependency) String() string {
	if d.Kind == KindService {
		return formatType(d.Type)
	}
	return fmt.Sprintf("%s %q", d.Kind, d.Name)
}

func (d Dependency) nodeKey() graph.NodeKey {
	if d.Kind == KindService {
		return graph.ServiceKey(d.Type)
	}
	return graph.NamedKey(d.Name)
}

// ServiceDefinition describes a service resolvable by type.
type ServiceDefinition struct {
	// Key is the type the service is requested by.
	Key reflect.Type

	// Factory builds the instance. It must not be nil.
	Factory Factory

	// PostConstructor, when set, runs after Factory on every new instance.
	PostConstructor PostConstructor

	Life Life

	// Dependencies lists what Factory resolves. The injection strategies fill
	// it in; hand-written factories may leave it empty. It is only used by
	// Registry.Validate and Registry.WriteDOT.
	Dependencies []Dependency
}

func (d ServiceDefinition) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Service{%s, %s", formatType(d.Key), d.Life))
	if d.PostConstructor != nil {
		b.WriteString(", post-constructor")
	}
	if len(d.Dependencies) > 0 {
		deps := make([]string, len(d.Dependencies))
		for i, dep := range d.Dependencies {
			deps[i] = dep.String()
		}
		b.WriteString(", deps: [" + strings.Join(deps, ", ") + "]")
	}
	b.WriteString("}")
	return b.String()
}

// FunctionDefinition describes a named function.
type FunctionDefinition struct {
	Key      string
	Function any // a non-nil func value
}

func (d FunctionDefinition) String() string {
	return fmt.Sprintf("Function{%q, %s}", d.Key, formatType(reflect.TypeOf(d.Function)))
}

// ValueDefinition describes a named value.
type ValueDefinition struct {
	Key   string
	Type  reflect.Type // the dynamic type of Value
	Value any
}

func (d ValueDefinition) String() string {
	return fmt.Sprintf("Value{%q, %s}", d.Key, formatType(d.Type))
}

// ExecutorDefinition describes a function whose parameters are resolved from
// the resolver when it is executed.
type ExecutorDefinition struct {
	// Owner is the type hosting the function.
	Owner reflect.Type

	// Function is the name the function is registered under.
	Function string

	// Factory resolves the parameters, calls the function and returns its result.
	Factory Factory

	Dependencies []Dependency
}

func (d ExecutorDefinition) String() string {
	return fmt.Sprintf("Executor{%s.%s}", formatType(d.Owner), d.Function)
}

// typeName is the key used in registration errors for service definitions.
func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return formatType(t)
}

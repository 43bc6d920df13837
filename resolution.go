package ioc

import (
	"fmt"
	"reflect"

	"github.com/junioryono/ioc/internal/reflection"
)

// GetService returns the service registered under t. Single services are
// constructed on first request and cached; Multi services are constructed
// on every request.
func (r *Resolver) GetService(t reflect.Type) (any, error) {
	if r.closed.Load() {
		return nil, ErrResolverClosed
	}

	def, ok := r.services[t]
	if !ok {
		return nil, ServiceNotFoundError{ServiceType: t}
	}

	return r.getService(def)
}

// GetServicesByBase returns, in registration order, the service of every
// definition whose key is a strict subtype of base: a type implementing
// base when base is an interface, or a struct embedding base when base is
// a struct. Each service follows its own life.
func (r *Resolver) GetServicesByBase(base reflect.Type) ([]any, error) {
	if r.closed.Load() {
		return nil, ErrResolverClosed
	}

	instances := make([]any, 0)
	for _, def := range r.serviceList {
		if !reflection.IsSubtype(def.Key, base) {
			continue
		}

		instance, err := r.getService(def)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}

	return instances, nil
}

// GetFunction returns the function registered under name.
func (r *Resolver) GetFunction(name string) (any, error) {
	if r.closed.Load() {
		return nil, ErrResolverClosed
	}

	def, ok := r.functions[name]
	if !ok {
		return nil, LookupError{Kind: KindFunction, Name: name}
	}

	return def.Function, nil
}

// GetValue returns the value registered under name.
func (r *Resolver) GetValue(name string) (any, error) {
	if r.closed.Load() {
		return nil, ErrResolverClosed
	}

	def, ok := r.values[name]
	if !ok {
		return nil, LookupError{Kind: KindValue, Name: name}
	}

	return def.Value, nil
}

// ContainsService reports whether a service is registered under t.
func (r *Resolver) ContainsService(t reflect.Type) bool {
	_, ok := r.services[t]
	return ok
}

// Resolve returns the service registered under T.
//
// Example:
//
//	logger, err := ioc.Resolve[*Logger](resolver)
//	if err != nil {
//	    // Handle error
//	}
func Resolve[T any](r *Resolver) (T, error) {
	var zero T

	if r == nil {
		return zero, ErrResolverNil
	}

	serviceType := reflect.TypeOf((*T)(nil)).Elem()
	service, err := r.GetService(serviceType)
	if err != nil {
		return zero, err
	}

	return assertAs[T](service, "type assertion")
}

// MustResolve returns the service registered under T and panics if it
// cannot be resolved.
func MustResolve[T any](r *Resolver) T {
	service, err := Resolve[T](r)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve service: %v", err))
	}

	return service
}

// ResolveByBase returns the services whose keys are strict subtypes of T,
// in registration order.
func ResolveByBase[T any](r *Resolver) ([]T, error) {
	if r == nil {
		return nil, ErrResolverNil
	}

	services, err := r.GetServicesByBase(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}

	results := make([]T, len(services))
	for i, service := range services {
		if results[i], err = assertAs[T](service, fmt.Sprintf("type assertion for base item %d", i)); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Function returns the function registered under name as a T.
//
//	greet, err := ioc.Function[func() string](resolver, "greet")
func Function[T any](r *Resolver, name string) (T, error) {
	var zero T

	if r == nil {
		return zero, ErrResolverNil
	}

	fn, err := r.GetFunction(name)
	if err != nil {
		return zero, err
	}

	return assertAs[T](fn, fmt.Sprintf("function %q", name))
}

// Value returns the value registered under name as a T.
func Value[T any](r *Resolver, name string) (T, error) {
	var zero T

	if r == nil {
		return zero, ErrResolverNil
	}

	v, err := r.GetValue(name)
	if err != nil {
		return zero, err
	}

	return assertAs[T](v, fmt.Sprintf("value %q", name))
}

func assertAs[T any](v any, context string) (T, error) {
	result, ok := v.(T)
	if !ok {
		var zero T
		return zero, TypeMismatchError{
			Expected: reflect.TypeOf((*T)(nil)).Elem(),
			Actual:   reflect.TypeOf(v),
			Context:  context,
		}
	}

	return result, nil
}

package ioc

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/junioryono/ioc/internal/reflection"
)

// Param describes how one constructor or executor parameter is looked up.
//
// Go keeps no parameter names at runtime, so functions and values, which are
// looked up by name, need the name given here. Service parameters are looked
// up by type and may stay unnamed.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Arg declares a parameter looked up under name.
func Arg(name string) Param {
	return Param{Name: name}
}

// ArgOr declares a parameter looked up under name that falls back to def
// when the lookup fails, either because nothing is registered under name or
// because the registered member cannot be built. A nil def means the zero
// value.
func ArgOr(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// Dep declares an unnamed service parameter.
func Dep() Param {
	return Param{}
}

// Optional declares an unnamed service parameter that is left at its zero
// value when the service is not registered or fails to build.
func Optional() Param {
	return Param{HasDefault: true}
}

// member is one bound parameter, property or field.
type member struct {
	label      string
	name       string
	typ        reflect.Type
	kind       reflection.MemberKind
	def        reflect.Value
	hasDefault bool
}

func newMember(label string, typ reflect.Type, p Param) (member, error) {
	m := member{
		label:      label,
		name:       p.Name,
		typ:        typ,
		kind:       reflection.Classify(typ),
		hasDefault: p.HasDefault,
	}

	if m.kind != reflection.ServiceMember && m.name == "" {
		return m, fmt.Errorf("%s of type %s is looked up by name but has none", label, formatType(typ))
	}

	if p.HasDefault {
		if p.Default == nil {
			m.def = reflect.Zero(typ)
		} else {
			dv := reflect.ValueOf(p.Default)
			if !dv.Type().AssignableTo(typ) {
				return m, fmt.Errorf("default for %s has type %s, not assignable to %s",
					label, formatType(dv.Type()), formatType(typ))
			}
			m.def = dv
		}
	}

	return m, nil
}

func (m member) dependency() Dependency {
	d := Dependency{Kind: KindService, Type: m.typ, Optional: m.hasDefault}
	switch m.kind {
	case reflection.FunctionMember:
		d.Kind, d.Name = KindFunction, m.name
	case reflection.ValueMember:
		d.Kind, d.Name = KindValue, m.name
	}
	return d
}

func dependencies(members []member) []Dependency {
	deps := make([]Dependency, len(members))
	for i, m := range members {
		deps[i] = m.dependency()
	}
	return deps
}

// resolveMember applies the lookup rule to one member. found is false when
// the member's default was used instead. A member with a default falls back
// to it when the lookup fails for any reason other than a closed resolver.
func (r *Resolver) resolveMember(m member) (val reflect.Value, found bool, err error) {
	val, err = r.lookupMember(m)
	if err == nil {
		return val, true, nil
	}
	if !m.hasDefault || errors.Is(err, ErrResolverClosed) {
		return reflect.Value{}, false, err
	}

	switch err.(type) {
	case ServiceNotFoundError, LookupError:
		r.logger.Debug().
			Str("member", m.label).
			Str("type", formatType(m.typ)).
			Msg("using default for missing dependency")
	default:
		r.logger.Debug().
			Err(err).
			Str("member", m.label).
			Str("type", formatType(m.typ)).
			Msg("using default for failed dependency")
	}

	return m.def, false, nil
}

// lookupMember finds the registered function, value or service for m and
// checks that it is assignable to the member type.
func (r *Resolver) lookupMember(m member) (reflect.Value, error) {
	var instance any

	switch m.kind {
	case reflection.FunctionMember:
		def, ok := r.functions[m.name]
		if !ok {
			return reflect.Value{}, LookupError{Kind: KindFunction, Name: m.name}
		}
		instance = def.Function

	case reflection.ValueMember:
		def, ok := r.values[m.name]
		if !ok {
			return reflect.Value{}, LookupError{Kind: KindValue, Name: m.name}
		}
		instance = def.Value

	default:
		def, ok := r.services[m.typ]
		if !ok {
			return reflect.Value{}, ServiceNotFoundError{ServiceType: m.typ}
		}

		var err error
		instance, err = r.getService(def)
		if err != nil {
			return reflect.Value{}, err
		}
	}

	v := reflect.ValueOf(instance)
	if !v.IsValid() || !v.Type().AssignableTo(m.typ) {
		return reflect.Value{}, TypeMismatchError{
			Expected: m.typ,
			Actual:   reflect.TypeOf(instance),
			Context:  "injection of " + m.label,
		}
	}

	return v, nil
}

// inject resolves every member, collecting all failures into one InjectionError.
// found[i] reports whether member i was resolved rather than defaulted.
func (r *Resolver) inject(target reflect.Type, members []member) (vals []reflect.Value, found []bool, err error) {
	vals = make([]reflect.Value, len(members))
	found = make([]bool, len(members))

	var failures []MemberError
	for i, m := range members {
		v, ok, err := r.resolveMember(m)
		if err != nil {
			failures = append(failures, MemberError{Member: m.label, Type: m.typ, Cause: err})
			continue
		}
		vals[i], found[i] = v, ok
	}

	if len(failures) > 0 {
		return nil, nil, InjectionError{Target: target, Failures: failures}
	}

	return vals, found, nil
}

package ioc

import (
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/junioryono/ioc/internal/reflection"
)

var analyzer = reflection.New()

// ConstructorFactory builds a service definition from a constructor.
//
// ctor must be a function returning the service, optionally followed by an
// error. Its parameters are resolved in order, params[i] describing
// parameter i; parameters without a Param are unnamed. The definition is
// keyed by the constructor's result type.
func ConstructorFactory(ctor any, params ...Param) (ServiceDefinition, error) {
	info, err := analyzer.Func(ctor)
	if err != nil {
		return ServiceDefinition{}, InvalidDefinitionError{Kind: KindService, Reason: err.Error()}
	}

	if len(info.Results) != 1 {
		return ServiceDefinition{}, InvalidDefinitionError{
			Kind:   KindService,
			Key:    formatType(info.Type),
			Reason: "constructor must return exactly one value, optionally followed by an error",
		}
	}

	key := info.Results[0]
	members, err := bindParams(info, params)
	if err != nil {
		return ServiceDefinition{}, InvalidDefinitionError{Kind: KindService, Key: typeName(key), Reason: err.Error()}
	}

	fn := reflect.ValueOf(ctor)
	factory := func(r *Resolver) (any, error) {
		args, _, err := r.inject(key, members)
		if err != nil {
			return nil, err
		}

		out, err := invoke(fn, args, info)
		if err != nil {
			return nil, ConstructionError{ServiceType: key, Cause: err}
		}

		return out[0].Interface(), nil
	}

	return ServiceDefinition{
		Key:          key,
		Factory:      factory,
		Dependencies: dependencies(members),
	}, nil
}

// PropertyFactory builds a service definition that allocates a zero t and
// calls each of its setters with a resolved value. A setter is an exported
// method SetX on *t taking one argument and returning nothing or an error;
// the property is looked up under the name x.
//
// t is a struct or pointer to struct; the service is keyed and returned as t.
func PropertyFactory(t reflect.Type) (ServiceDefinition, error) {
	st, ok := reflection.StructType(t)
	if !ok {
		return ServiceDefinition{}, InvalidDefinitionError{
			Kind:   KindService,
			Key:    typeName(t),
			Reason: "property injection requires a struct or pointer to struct",
		}
	}

	setters, err := analyzer.Setters(t)
	if err != nil {
		return ServiceDefinition{}, InvalidDefinitionError{Kind: KindService, Key: typeName(t), Reason: err.Error()}
	}

	members := make([]member, len(setters))
	for i, s := range setters {
		members[i], err = newMember("property "+s.Name, s.Type, Arg(s.Name))
		if err != nil {
			return ServiceDefinition{}, InvalidDefinitionError{Kind: KindService, Key: typeName(t), Reason: err.Error()}
		}
	}

	factory := func(r *Resolver) (any, error) {
		vals, _, err := r.inject(t, members)
		if err != nil {
			return nil, err
		}

		obj := reflect.New(st)
		for i, s := range setters {
			out, err := call(obj.Method(s.Method), vals[i:i+1], false)
			if err == nil && s.HasError {
				err = resultError(out[0])
			}
			if err != nil {
				return nil, ConstructionError{ServiceType: t, Cause: fmt.Errorf("%s: %w", s.GoName, err)}
			}
		}

		return instanceOf(obj, t), nil
	}

	return ServiceDefinition{
		Key:          t,
		Factory:      factory,
		Dependencies: dependencies(members),
	}, nil
}

// FieldFactory builds a service definition that allocates a zero t and
// assigns each exported field a resolved value.
//
// Fields are looked up under their `inject:"name"` tag, or their name with
// a lower-cased first letter. `inject:"-"` skips a field and
// `inject:",optional"` leaves it at its zero value when its lookup fails.
func FieldFactory(t reflect.Type) (ServiceDefinition, error) {
	st, ok := reflection.StructType(t)
	if !ok {
		return ServiceDefinition{}, InvalidDefinitionError{
			Kind:   KindService,
			Key:    typeName(t),
			Reason: "field injection requires a struct or pointer to struct",
		}
	}

	fields, err := analyzer.Fields(t)
	if err != nil {
		return ServiceDefinition{}, InvalidDefinitionError{Kind: KindService, Key: typeName(t), Reason: err.Error()}
	}

	members := make([]member, len(fields))
	for i, f := range fields {
		p := Arg(f.Name)
		if f.Optional {
			p = ArgOr(f.Name, nil)
		}

		members[i], err = newMember("field "+f.GoName, f.Type, p)
		if err != nil {
			return ServiceDefinition{}, InvalidDefinitionError{Kind: KindService, Key: typeName(t), Reason: err.Error()}
		}
	}

	factory := func(r *Resolver) (any, error) {
		vals, found, err := r.inject(t, members)
		if err != nil {
			return nil, err
		}

		obj := reflect.New(st)
		for i, f := range fields {
			if found[i] {
				obj.Elem().FieldByIndex(f.Index).Set(vals[i])
			}
		}

		return instanceOf(obj, t), nil
	}

	return ServiceDefinition{
		Key:          t,
		Factory:      factory,
		Dependencies: dependencies(members),
	}, nil
}

func bindParams(info *reflection.FuncInfo, params []Param) ([]member, error) {
	if len(params) > len(info.Parameters) {
		return nil, fmt.Errorf("%d params given for a function taking %d", len(params), len(info.Parameters))
	}

	members := make([]member, len(info.Parameters))
	for i, typ := range info.Parameters {
		var p Param
		if i < len(params) {
			p = params[i]
		}

		label := fmt.Sprintf("parameter %d", i)
		if p.Name != "" {
			label += " (" + p.Name + ")"
		}

		m, err := newMember(label, typ, p)
		if err != nil {
			return nil, err
		}
		members[i] = m
	}

	return members, nil
}

// invoke calls fn and strips its trailing error result, returning it as err.
func invoke(fn reflect.Value, args []reflect.Value, info *reflection.FuncInfo) ([]reflect.Value, error) {
	out, err := call(fn, args, info.IsVariadic)
	if err != nil {
		return nil, err
	}

	if info.HasErrorReturn {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		if err := resultError(last); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// call invokes fn, turning a panic into a PanicError.
func call(fn reflect.Value, args []reflect.Value, variadic bool) (out []reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = PanicError{Value: p, Stack: debug.Stack()}
		}
	}()

	if variadic {
		return fn.CallSlice(args), nil
	}
	return fn.Call(args), nil
}

func resultError(v reflect.Value) error {
	e := v.Interface()
	if reflection.IsNil(e) {
		return nil
	}
	return e.(error)
}

func instanceOf(obj reflect.Value, t reflect.Type) any {
	if t.Kind() == reflect.Pointer {
		return obj.Interface()
	}
	return obj.Elem().Interface()
}

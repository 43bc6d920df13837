package ioc

import (
	"reflect"
	"sync"

	"github.com/junioryono/ioc/internal/reflection"
)

// AddConstructor registers the service ctor returns, built by constructor
// injection. See ConstructorFactory.
//
//	reg.AddConstructor(NewGreeter, ioc.WithParams(ioc.Arg("count"), ioc.Arg("greet")))
func (g *Registry) AddConstructor(ctor any, opts ...AddOption) error {
	o, err := newAddOptions(opts)
	if err != nil {
		return err
	}

	def, err := o.constructor(ctor)
	if err != nil {
		return err
	}

	return g.AddService(def)
}

// AddProperties registers t, built by property injection. See PropertyFactory.
func (g *Registry) AddProperties(t reflect.Type, opts ...AddOption) error {
	o, err := newAddOptions(opts)
	if err != nil {
		return err
	}

	def, err := o.build(PropertyFactory, t)
	if err != nil {
		return err
	}

	return g.AddService(def)
}

// AddFields registers t, built by field injection. See FieldFactory.
func (g *Registry) AddFields(t reflect.Type, opts ...AddOption) error {
	o, err := newAddOptions(opts)
	if err != nil {
		return err
	}

	def, err := o.build(FieldFactory, t)
	if err != nil {
		return err
	}

	return g.AddService(def)
}

// AddPropertiesOf registers T, built by property injection.
func AddPropertiesOf[T any](g *Registry, opts ...AddOption) error {
	return g.AddProperties(reflect.TypeOf((*T)(nil)).Elem(), opts...)
}

// AddFieldsOf registers T, built by field injection.
func AddFieldsOf[T any](g *Registry, opts ...AddOption) error {
	return g.AddFields(reflect.TypeOf((*T)(nil)).Elem(), opts...)
}

// AddConstructorsByBase registers, by constructor injection, every
// constructor in ctors whose result is a strict subtype of base: it
// implements base when base is an interface, or embeds it when base is a
// struct. Other constructors are skipped. Nothing is registered unless every
// matching constructor can be.
func (g *Registry) AddConstructorsByBase(base reflect.Type, ctors []any, opts ...AddOption) error {
	o, err := newBulkOptions(opts)
	if err != nil {
		return err
	}

	defs := make([]ServiceDefinition, 0, len(ctors))
	for _, ctor := range ctors {
		def, err := o.constructor(ctor)
		if err != nil {
			return err
		}
		if reflection.IsSubtype(def.Key, base) {
			defs = append(defs, def)
		}
	}

	return g.addServices(defs)
}

// AddPropertiesByBase registers, by property injection, every type in types
// that is a strict subtype of base. See AddConstructorsByBase.
func (g *Registry) AddPropertiesByBase(base reflect.Type, types []reflect.Type, opts ...AddOption) error {
	return g.addByBase(PropertyFactory, base, types, opts)
}

// AddFieldsByBase registers, by field injection, every type in types that
// is a strict subtype of base. See AddConstructorsByBase.
func (g *Registry) AddFieldsByBase(base reflect.Type, types []reflect.Type, opts ...AddOption) error {
	return g.addByBase(FieldFactory, base, types, opts)
}

func (g *Registry) addByBase(strategy func(reflect.Type) (ServiceDefinition, error), base reflect.Type, types []reflect.Type, opts []AddOption) error {
	o, err := newBulkOptions(opts)
	if err != nil {
		return err
	}

	defs := make([]ServiceDefinition, 0, len(types))
	for _, t := range types {
		if !reflection.IsSubtype(t, base) {
			continue
		}

		def, err := o.build(strategy, t)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	return g.addServices(defs)
}

// AddInstance registers an already built instance under its own type, or
// the type given with As. The resolver owns the instance and disposes it
// on Close unless Unmanaged is given. A post-constructor runs once, at the
// first resolution, in both cases.
func (g *Registry) AddInstance(instance any, opts ...AddOption) error {
	o, err := newAddOptions(opts)
	if err != nil {
		return err
	}

	if reflection.IsNil(instance) {
		return InvalidDefinitionError{Kind: KindService, Reason: "instance is nil"}
	}

	key, err := o.key(reflect.TypeOf(instance))
	if err != nil {
		return err
	}

	life, post := o.Life, o.PostConstructor
	if o.Unmanaged {
		life = Multi
		if post != nil {
			post = once(post)
		}
	}

	return g.AddService(ServiceDefinition{
		Key: key,
		Factory: func(*Resolver) (any, error) {
			return instance, nil
		},
		PostConstructor: post,
		Life:            life,
	})
}

// once returns a PostConstructor that runs post until it first succeeds.
func once(post PostConstructor) PostConstructor {
	var (
		mu   sync.Mutex
		done bool
	)

	return func(r *Resolver, instance any) error {
		mu.Lock()
		defer mu.Unlock()

		if done {
			return nil
		}
		if err := post(r, instance); err != nil {
			return err
		}
		done = true
		return nil
	}
}

func newBulkOptions(opts []AddOption) (*addOptions, error) {
	o, err := newAddOptions(opts)
	if err != nil {
		return nil, err
	}

	if len(o.As) > 0 {
		return nil, InvalidDefinitionError{Kind: KindService, Reason: "ioc.As cannot be used for bulk registration"}
	}

	return o, nil
}

func (o *addOptions) constructor(ctor any) (ServiceDefinition, error) {
	def, err := ConstructorFactory(ctor, o.Params...)
	if err != nil {
		return def, err
	}
	return o.finish(def)
}

func (o *addOptions) build(strategy func(reflect.Type) (ServiceDefinition, error), t reflect.Type) (ServiceDefinition, error) {
	if len(o.Params) > 0 {
		return ServiceDefinition{}, InvalidDefinitionError{
			Kind:   KindService,
			Key:    typeName(t),
			Reason: "ioc.WithParams only applies to constructors",
		}
	}

	def, err := strategy(t)
	if err != nil {
		return def, err
	}
	return o.finish(def)
}

func (o *addOptions) finish(def ServiceDefinition) (ServiceDefinition, error) {
	key, err := o.key(def.Key)
	if err != nil {
		return def, err
	}

	def.Key = key
	def.Life = o.Life
	def.PostConstructor = o.PostConstructor
	return def, nil
}

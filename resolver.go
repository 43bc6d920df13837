package ioc

import (
	"errors"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/junioryono/ioc/internal/graph"
	"github.com/junioryono/ioc/internal/reflection"
	"github.com/rs/zerolog"
)

// Resolver looks up services, functions, values and executors frozen from a
// Registry. It constructs services on demand and caches Single services
// until Close.
//
// A Resolver is safe for concurrent use. Factories receive a Resolver that
// tracks the resolution in progress; they must resolve through it rather
// than through a Resolver captured elsewhere.
type Resolver struct {
	*core

	// frame is the construction this resolver was handed to, nil at the root.
	frame *frame
}

// core is the state shared by a resolver and every resolver derived from it.
type core struct {
	id     string
	logger zerolog.Logger

	// Frozen definitions, read-only after Freeze.
	services    map[reflect.Type]*ServiceDefinition
	serviceList []*ServiceDefinition
	functions   map[string]FunctionDefinition
	values      map[string]ValueDefinition
	executors   []ExecutorDefinition

	// Single instances. Reads are lock-free; writes happen under construct.
	singletons sync.Map // map[reflect.Type]any

	// construct serializes the construction of Single services.
	construct sync.Mutex

	// created holds Single instances in creation order, guarded by construct.
	created []any

	closed atomic.Bool
}

// frame is one construction on the current resolution path.
type frame struct {
	parent *frame
	key    reflect.Type
	locked bool // this frame or an ancestor holds the construction lock
	done   atomic.Bool
}

// ID returns the unique identifier of the resolver.
func (r *Resolver) ID() string {
	return r.id
}

// IsClosed reports whether Close has been called.
func (r *Resolver) IsClosed() bool {
	return r.closed.Load()
}

// active returns the innermost construction still in progress. A resolver
// kept by an instance after its factory returned falls back to the
// constructions around it.
func (r *Resolver) active() *frame {
	f := r.frame
	for f != nil && f.done.Load() {
		f = f.parent
	}
	return f
}

// lock takes the construction lock unless the current resolution already holds it.
func (r *Resolver) lock() (unlock func()) {
	if f := r.active(); f != nil && f.locked {
		return func() {}
	}

	r.construct.Lock()
	return r.construct.Unlock
}

// getService returns the instance for def, constructing it if needed.
func (r *Resolver) getService(def *ServiceDefinition) (any, error) {
	if r.closed.Load() {
		return nil, ErrResolverClosed
	}

	if def.Life == Single {
		if instance, ok := r.singletons.Load(def.Key); ok {
			return instance, nil
		}
	}

	parent := r.active()
	if err := checkCycle(parent, def.Key); err != nil {
		return nil, err
	}

	locked := parent != nil && parent.locked
	if def.Life == Single && !locked {
		r.construct.Lock()
		defer r.construct.Unlock()

		// Another caller may have built it while we waited.
		if instance, ok := r.singletons.Load(def.Key); ok {
			return instance, nil
		}
		if r.closed.Load() {
			return nil, ErrResolverClosed
		}
		locked = true
	}

	f := &frame{parent: parent, key: def.Key, locked: locked}
	start := time.Now()
	instance, err := r.create(&Resolver{core: r.core, frame: f}, def)
	f.done.Store(true)
	if err != nil {
		return nil, err
	}

	if def.Life == Single {
		r.singletons.Store(def.Key, instance)
		r.created = append(r.created, instance)
	}

	r.logger.Debug().
		Str("type", formatType(def.Key)).
		Stringer("life", def.Life).
		Dur("duration", time.Since(start)).
		Msg("service constructed")

	return instance, nil
}

// create runs the factory and post-constructor of def on the derived resolver.
func (r *Resolver) create(derived *Resolver, def *ServiceDefinition) (any, error) {
	instance, err := runFactory(def.Factory, derived)
	if err != nil {
		return nil, wrapFactoryError(def.Key, err)
	}

	if reflection.IsNil(instance) {
		return nil, ConstructionError{ServiceType: def.Key, Cause: errors.New("factory returned nil")}
	}

	if actual := reflect.TypeOf(instance); !actual.AssignableTo(def.Key) {
		return nil, ConstructionError{
			ServiceType: def.Key,
			Cause:       TypeMismatchError{Expected: def.Key, Actual: actual, Context: "factory result"},
		}
	}

	if def.PostConstructor != nil {
		if err := runPostConstructor(def.PostConstructor, derived, instance); err != nil {
			return nil, wrapFactoryError(def.Key, err)
		}
	}

	return instance, nil
}

func runFactory(factory Factory, r *Resolver) (instance any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = PanicError{Value: p, Stack: debug.Stack()}
		}
	}()

	return factory(r)
}

func runPostConstructor(post PostConstructor, r *Resolver, instance any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = PanicError{Value: p, Stack: debug.Stack()}
		}
	}()

	return post(r, instance)
}

// wrapFactoryError wraps err in a ConstructionError unless it already
// reports a resolution failure.
func wrapFactoryError(key reflect.Type, err error) error {
	if errors.Is(err, ErrInjection) ||
		errors.Is(err, ErrConstruction) ||
		errors.Is(err, ErrResolverClosed) ||
		IsCircularDependency(err) {
		return err
	}

	return ConstructionError{ServiceType: key, Cause: err}
}

// checkCycle fails when key is already being constructed on the path ending at f.
func checkCycle(f *frame, key reflect.Type) error {
	var path []graph.NodeKey
	found := false
	for ; f != nil; f = f.parent {
		path = append(path, graph.ServiceKey(f.key))
		if f.key == key {
			found = true
			break
		}
	}

	if !found {
		return nil
	}

	// path runs from the innermost frame outwards; report it outermost first.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return CircularDependencyError{Node: graph.ServiceKey(key), Path: path}
}

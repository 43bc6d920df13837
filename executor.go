package ioc

import (
	"fmt"
	"reflect"
	"slices"
)

// FuncSet is a catalogue of free functions hosted by an owner type.
// Executors are registered from a FuncSet by name or all at once.
//
//	ops := ioc.FuncSetOf[Operations]().
//	    Add("MakeThing", MakeThing, ioc.Dep(), ioc.Arg("firstAction")).
//	    Add("Report", Report)
type FuncSet struct {
	owner reflect.Type
	funcs []setFunc
	err   error
}

type setFunc struct {
	name   string
	fn     any
	params []Param
}

// NewFuncSet creates an empty FuncSet hosted by owner.
func NewFuncSet(owner reflect.Type) *FuncSet {
	return &FuncSet{owner: owner}
}

// FuncSetOf creates an empty FuncSet hosted by T.
func FuncSetOf[T any]() *FuncSet {
	return NewFuncSet(reflect.TypeOf((*T)(nil)).Elem())
}

// Add adds fn under name. params describe fn's parameters as for
// constructors. A name may be added once; a second Add of the same name
// makes every registration from the set fail.
//
// fn may take the owner as an injected service. It is rejected with
// ErrNotStatic only when it is a method expression: its first parameter is
// the owner, or a pointer to it, and the rest of its signature matches a
// method of that receiver.
func (s *FuncSet) Add(name string, fn any, params ...Param) *FuncSet {
	if s.err != nil {
		return s
	}

	if slices.ContainsFunc(s.funcs, func(f setFunc) bool { return f.name == name }) {
		s.err = DuplicateKeyError{Kind: KindExecutor, Key: fmt.Sprintf("%s.%s", formatType(s.owner), name)}
		return s
	}

	s.funcs = append(s.funcs, setFunc{name: name, fn: fn, params: params})
	return s
}

// Owner returns the type hosting the functions.
func (s *FuncSet) Owner() reflect.Type {
	return s.owner
}

// Names returns the function names in the order they were added.
func (s *FuncSet) Names() []string {
	names := make([]string, len(s.funcs))
	for i, f := range s.funcs {
		names[i] = f.name
	}
	return names
}

// isStatic reports whether f is a free function rather than a method
// expression. A function is taken for a method expression when its first
// parameter is the owner, or a pointer to it, and its signature is that of
// one of the receiver's methods.
func (s *FuncSet) isStatic(f setFunc) bool {
	t := reflect.TypeOf(f.fn)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() == 0 || s.owner == nil {
		return true
	}

	recv := t.In(0)
	if recv != s.owner && recv != reflect.PointerTo(s.owner) {
		return true
	}

	skip := 1
	if recv.Kind() == reflect.Interface {
		skip = 0
	}
	for i := range recv.NumMethod() {
		if sameSignature(recv.Method(i).Type, skip, t, 1) {
			return false
		}
	}
	return true
}

// sameSignature compares a and b, ignoring their first askip and bskip parameters.
func sameSignature(a reflect.Type, askip int, b reflect.Type, bskip int) bool {
	if a.NumIn()-askip != b.NumIn()-bskip || a.NumOut() != b.NumOut() || a.IsVariadic() != b.IsVariadic() {
		return false
	}
	for i := askip; i < a.NumIn(); i++ {
		if a.In(i) != b.In(i-askip+bskip) {
			return false
		}
	}
	for i := range a.NumOut() {
		if a.Out(i) != b.Out(i) {
			return false
		}
	}
	return true
}

// hasMethod reports whether the owner, or a pointer to it, has a method named name.
func (s *FuncSet) hasMethod(name string) bool {
	if s.owner == nil {
		return false
	}
	if _, ok := s.owner.MethodByName(name); ok {
		return true
	}
	if s.owner.Kind() != reflect.Pointer && s.owner.Kind() != reflect.Interface {
		_, ok := reflect.PointerTo(s.owner).MethodByName(name)
		return ok
	}
	return false
}

// definition binds f into an executor definition.
func (s *FuncSet) definition(f setFunc) (ExecutorDefinition, error) {
	info, err := analyzer.Func(f.fn)
	if err != nil {
		return ExecutorDefinition{}, ExecutorError{Owner: s.owner, Function: f.name, Cause: err}
	}

	members, err := bindParams(info, f.params)
	if err != nil {
		return ExecutorDefinition{}, ExecutorError{Owner: s.owner, Function: f.name, Cause: err}
	}

	owner := s.owner
	fn := reflect.ValueOf(f.fn)
	factory := func(r *Resolver) (any, error) {
		args, _, err := r.inject(owner, members)
		if err != nil {
			return nil, err
		}

		out, err := invoke(fn, args, info)
		if err != nil {
			return nil, ConstructionError{ServiceType: owner, Cause: fmt.Errorf("%s: %w", f.name, err)}
		}

		switch len(out) {
		case 0:
			return nil, nil
		case 1:
			return out[0].Interface(), nil
		default:
			results := make([]any, len(out))
			for i, v := range out {
				results[i] = v.Interface()
			}
			return results, nil
		}
	}

	return ExecutorDefinition{
		Owner:        owner,
		Function:     f.name,
		Factory:      factory,
		Dependencies: dependencies(members),
	}, nil
}

// AddExecutorByTypeAndName registers the function of set named name.
// It fails with ErrNotFound when set has no such function, and with
// ErrNotStatic when the name belongs to a method of the owner or the
// function is a method expression of the owner.
func (g *Registry) AddExecutorByTypeAndName(set *FuncSet, name string) error {
	if set == nil {
		return InvalidDefinitionError{Kind: KindExecutor, Key: name, Reason: "function set is nil"}
	}
	if set.err != nil {
		return set.err
	}
	if name == "" {
		return InvalidDefinitionError{Kind: KindExecutor, Key: typeName(set.owner), Reason: "function name is empty"}
	}

	i := slices.IndexFunc(set.funcs, func(f setFunc) bool { return f.name == name })
	if i < 0 {
		cause := ErrNotFound
		if set.hasMethod(name) {
			cause = ErrNotStatic
		}
		return ExecutorError{Owner: set.owner, Function: name, Cause: cause}
	}

	f := set.funcs[i]
	if !set.isStatic(f) {
		return ExecutorError{Owner: set.owner, Function: name, Cause: ErrNotStatic}
	}

	def, err := set.definition(f)
	if err != nil {
		return err
	}

	return g.AddExecutor(def)
}

// AddExecutorByType registers every free function of set. Method
// expressions taking the owner as receiver are skipped.
func (g *Registry) AddExecutorByType(set *FuncSet) error {
	if set == nil {
		return InvalidDefinitionError{Kind: KindExecutor, Reason: "function set is nil"}
	}

	return g.addExecutorsWhere([]*FuncSet{set}, func(setFunc) bool { return true })
}

// AddExecutorByName registers every free function named name across sets,
// in order. Finding none is not an error.
func (g *Registry) AddExecutorByName(name string, sets ...*FuncSet) error {
	if name == "" {
		return InvalidDefinitionError{Kind: KindExecutor, Reason: "function name is empty"}
	}

	return g.addExecutorsWhere(sets, func(f setFunc) bool { return f.name == name })
}

// addExecutorsWhere binds every matching free function before registering any.
func (g *Registry) addExecutorsWhere(sets []*FuncSet, match func(setFunc) bool) error {
	var defs []ExecutorDefinition
	for _, set := range sets {
		if set == nil {
			continue
		}
		if set.err != nil {
			return set.err
		}

		for _, f := range set.funcs {
			if !match(f) || !set.isStatic(f) {
				continue
			}

			def, err := set.definition(f)
			if err != nil {
				return err
			}
			defs = append(defs, def)
		}
	}

	return g.addExecutors(defs)
}

// ExecutorPredicate selects executors by their definition.
type ExecutorPredicate func(def ExecutorDefinition) bool

// ByFunction selects executors registered under name.
func ByFunction(name string) ExecutorPredicate {
	return func(def ExecutorDefinition) bool {
		return def.Function == name
	}
}

// ByOwner selects executors hosted by owner.
func ByOwner(owner reflect.Type) ExecutorPredicate {
	return func(def ExecutorDefinition) bool {
		return def.Owner == owner
	}
}

// ExecuteFirst runs the first executor, in registration order, that pred
// selects. found is false when none matches. A nil pred selects every
// executor.
//
// The result is nil for functions without results, the single result, or
// a []any holding every result. A trailing error result is returned as a
// ConstructionError instead.
func (r *Resolver) ExecuteFirst(pred ExecutorPredicate) (result any, found bool, err error) {
	if r.closed.Load() {
		return nil, false, ErrResolverClosed
	}

	for _, def := range r.executors {
		if pred != nil && !pred(def) {
			continue
		}

		result, err := r.execute(def)
		return result, true, err
	}

	return nil, false, nil
}

// ExecuteAll runs every executor pred selects, in registration order, and
// returns their results. It stops at the first failure. No match yields an
// empty slice.
func (r *Resolver) ExecuteAll(pred ExecutorPredicate) ([]any, error) {
	if r.closed.Load() {
		return nil, ErrResolverClosed
	}

	results := make([]any, 0)
	for _, def := range r.executors {
		if pred != nil && !pred(def) {
			continue
		}

		result, err := r.execute(def)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (r *Resolver) execute(def ExecutorDefinition) (any, error) {
	result, err := runFactory(def.Factory, r)
	if err != nil {
		return nil, wrapFactoryError(def.Owner, err)
	}
	return result, nil
}

// ExecuteAllAs runs the executors pred selects and asserts each result to T.
func ExecuteAllAs[T any](r *Resolver, pred ExecutorPredicate) ([]T, error) {
	if r == nil {
		return nil, ErrResolverNil
	}

	results, err := r.ExecuteAll(pred)
	if err != nil {
		return nil, err
	}

	typed := make([]T, len(results))
	for i, result := range results {
		if typed[i], err = assertAs[T](result, fmt.Sprintf("executor result %d", i)); err != nil {
			return nil, err
		}
	}

	return typed, nil
}

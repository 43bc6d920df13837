// Package ioc provides a runtime dependency resolution container: a
// registry of services, named functions, named values and executors, and a
// resolver that builds object graphs on demand.
//
// # Overview
//
// The library provides:
//   - Two service lives: Single (constructed once and cached) and Multi
//     (constructed on every request)
//   - Constructor, property (setter) and field injection
//   - Named functions and values, injected by parameter, property or field name
//   - Executors: free functions whose parameters are resolved when they run
//   - Error aggregation: one failed construction reports every missing member
//   - Disposal of cached services on Close
//   - Thread-safe resolution
//
// # Basic Usage
//
// Register definitions in a Registry, freeze it into a Resolver, and resolve:
//
//	reg := ioc.NewRegistry()
//	reg.AddValue("count", 5)
//	reg.AddFunction("greet", func() string { return "hello" })
//	reg.AddConstructor(NewGreeter, ioc.WithParams(ioc.Arg("count"), ioc.Arg("greet")))
//
//	resolver := reg.Freeze()
//	defer resolver.Close()
//
//	greeter, err := ioc.Resolve[*Greeter](resolver)
//
// # Lookup Rule
//
// Every constructor parameter, property and field is looked up the same way:
//
//   - Function types are looked up among the named functions, by name
//   - Arrays, slices, maps, booleans, numbers and strings are looked up among
//     the named values, by name
//   - Everything else is looked up among the services, by type
//
// Go keeps no parameter names, so constructor parameters are named with
// Arg. Properties are named after their setter (SetCount is "count") and
// fields after the field or its inject tag:
//
//	type Report struct {
//	    Title  string        `inject:"reportTitle"`
//	    Store  *Store
//	    Footer string        `inject:",optional"`
//	    cache  map[string]int // unexported fields are left alone
//	}
//
// A member with a default (ArgOr, Optional, or the optional tag) falls back
// to it when its lookup fails, whether nothing is registered for it or the
// registered member cannot be built. A member without a default records its
// failure and the remaining members are still attempted; the construction
// then fails with one InjectionError listing every failure.
//
// # Subtypes
//
// Go has no inheritance. A type is a strict subtype of an interface when it
// implements it, and of a struct when it embeds it, directly or through
// other embedded structs. GetServicesByBase and the ByBase registration
// helpers use this relation. The ByBase helpers take an explicit list of
// candidates.
//
// # Executors
//
// Executors are registered from a FuncSet, an explicit catalogue of free
// functions hosted by an owner type, and selected at run time by predicate:
//
//	ops := ioc.FuncSetOf[Operations]().Add("MakeThing", MakeThing, ioc.Dep(), ioc.Arg("firstAction"))
//	reg.AddExecutorByType(ops)
//
//	result, found, err := resolver.ExecuteFirst(ioc.ByFunction("MakeThing"))
//
// # Error Handling
//
// Errors are typed and match sentinel values with errors.Is:
//
//   - DuplicateKeyError (ErrDuplicateKey), InvalidDefinitionError (ErrInvalidDefinition)
//   - ServiceNotFoundError (ErrServiceNotFound), LookupError (ErrFunctionNotFound, ErrValueNotFound)
//   - InjectionError (ErrInjection), ConstructionError (ErrConstruction)
//   - ExecutorError wrapping ErrNotStatic or ErrNotFound
//   - TypeMismatchError, CircularDependencyError, DisposalError, ModuleError
//   - ValidationError from Registry.Validate
//
// # Related Packages
//
// The config package registers configuration values loaded from files, .env
// files and the environment. The chi package attaches a resolver to chi
// routes and serves executors over HTTP.
package ioc

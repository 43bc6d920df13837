package ioc

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
)

// A ResolverOption configures the Resolver created by Registry.Freeze.
type ResolverOption interface {
	applyResolverOption(*resolverOptions)
}

type resolverOptions struct {
	log *zerolog.Logger
}

func (o *resolverOptions) logger() zerolog.Logger {
	if o.log == nil {
		return zerolog.Nop()
	}
	return *o.log
}

// WithLogger sets the logger the resolver reports construction, defaults
// and disposal to. The default logger discards everything.
func WithLogger(logger zerolog.Logger) ResolverOption {
	return withLoggerOption{logger: logger}
}

type withLoggerOption struct {
	logger zerolog.Logger
}

func (o withLoggerOption) String() string {
	return "WithLogger()"
}

func (o withLoggerOption) applyResolverOption(opts *resolverOptions) {
	l := o.logger.With().Str("component", "ioc").Logger()
	opts.log = &l
}

// An AddOption modifies how the registration helpers build a definition.
type AddOption interface {
	applyAddOption(*addOptions)
}

type addOptions struct {
	Life            Life
	PostConstructor PostConstructor
	As              []any
	Params          []Param
	Unmanaged       bool
}

func (o *addOptions) Validate() error {
	if !o.Life.IsValid() {
		return LifeError{Value: o.Life}
	}

	for _, i := range o.As {
		t := reflect.TypeOf(i)

		if t == nil {
			return fmt.Errorf("invalid ioc.As(nil): argument must be a pointer to a type")
		}

		if t.Kind() != reflect.Pointer {
			return fmt.Errorf("invalid ioc.As(%v): argument must be a pointer to a type", t)
		}
	}

	if len(o.As) > 1 {
		return fmt.Errorf("ioc.As accepts a single key, got %d", len(o.As))
	}

	return nil
}

// key returns the registration key: the As type, or fallback.
func (o *addOptions) key(fallback reflect.Type) (reflect.Type, error) {
	if len(o.As) == 0 {
		return fallback, nil
	}

	key := reflect.TypeOf(o.As[0]).Elem()
	if !fallback.AssignableTo(key) {
		return nil, InvalidDefinitionError{
			Kind:   KindService,
			Key:    typeName(fallback),
			Reason: fmt.Sprintf("cannot be registered as %s", formatType(key)),
		}
	}

	return key, nil
}

func newAddOptions(opts []AddOption) (*addOptions, error) {
	o := &addOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyAddOption(o)
		}
	}

	if err := o.Validate(); err != nil {
		return nil, InvalidDefinitionError{Kind: KindService, Reason: err.Error()}
	}

	return o, nil
}

// WithLife sets the life of the registered service. The default is Single.
func WithLife(life Life) AddOption {
	return withLifeOption(life)
}

type withLifeOption Life

func (o withLifeOption) String() string {
	return fmt.Sprintf("WithLife(%s)", Life(o))
}

func (o withLifeOption) applyAddOption(opts *addOptions) {
	opts.Life = Life(o)
}

// WithPostConstructor runs fn on every new instance after it has been
// constructed and injected.
func WithPostConstructor(fn PostConstructor) AddOption {
	return withPostConstructorOption{fn: fn}
}

type withPostConstructorOption struct {
	fn PostConstructor
}

func (o withPostConstructorOption) String() string {
	return "WithPostConstructor()"
}

func (o withPostConstructorOption) applyAddOption(opts *addOptions) {
	opts.PostConstructor = o.fn
}

// As registers the service under the type ptr points to instead of its own
// type. The service must be assignable to that type.
//
//	reg.AddConstructor(NewConsoleLogger, ioc.As(new(Logger)))
//
// makes the *ConsoleLogger resolvable as Logger, but not as *ConsoleLogger.
func As(ptr any) AddOption {
	return addAsOption{ptr}
}

type addAsOption []any

func (o addAsOption) String() string {
	names := make([]string, len(o))
	for i, p := range o {
		if t := reflect.TypeOf(p); t != nil && t.Kind() == reflect.Pointer {
			names[i] = t.Elem().String()
		} else {
			names[i] = fmt.Sprint(t)
		}
	}
	return "As(" + strings.Join(names, ", ") + ")"
}

func (o addAsOption) applyAddOption(opts *addOptions) {
	opts.As = append(opts.As, o...)
}

// WithParams describes the constructor parameters, in order.
// See Arg, ArgOr, Dep and Optional.
func WithParams(params ...Param) AddOption {
	return withParamsOption(params)
}

type withParamsOption []Param

func (o withParamsOption) String() string {
	names := make([]string, len(o))
	for i, p := range o {
		names[i] = p.Name
	}
	return "WithParams(" + strings.Join(names, ", ") + ")"
}

func (o withParamsOption) applyAddOption(opts *addOptions) {
	opts.Params = append(opts.Params, o...)
}

// Unmanaged makes AddInstance register the instance as Multi, so the
// resolver hands it out but never disposes it.
func Unmanaged() AddOption {
	return unmanagedOption{}
}

type unmanagedOption struct{}

func (unmanagedOption) String() string {
	return "Unmanaged()"
}

func (unmanagedOption) applyAddOption(opts *addOptions) {
	opts.Unmanaged = true
}

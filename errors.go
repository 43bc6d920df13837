package ioc

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/ioc/internal/graph"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are matched with errors.Is. They are never returned bare; the typed
// errors below report them through their Is or Unwrap methods.

var (
	// Registration errors.
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrInvalidDefinition = errors.New("invalid definition")

	// Lookup errors.
	ErrServiceNotFound  = errors.New("service not found")
	ErrFunctionNotFound = errors.New("function not found")
	ErrValueNotFound    = errors.New("value not found")

	// Resolution errors.
	ErrInjection      = errors.New("injection failed")
	ErrConstruction   = errors.New("construction failed")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrResolverClosed = errors.New("resolver has been closed")
	ErrResolverNil    = errors.New("resolver cannot be nil")

	// Executor registration errors.
	ErrNotStatic = errors.New("function is not static")
	ErrNotFound  = errors.New("function not found on owner")
)

var (
	_ error = LifeError{}
	_ error = DuplicateKeyError{}
	_ error = InvalidDefinitionError{}
	_ error = ServiceNotFoundError{}
	_ error = LookupError{}
	_ error = MemberError{}
	_ error = InjectionError{}
	_ error = ConstructionError{}
	_ error = PanicError{}
	_ error = ExecutorError{}
	_ error = TypeMismatchError{}
	_ error = DisposalError{}
	_ error = ModuleError{}
	_ error = ValidationError{}
	_ error = CircularDependencyError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// LifeError indicates an invalid service life value.
type LifeError struct {
	Value any
}

func (e LifeError) Error() string {
	return fmt.Sprintf("invalid service life: %v", e.Value)
}

// DuplicateKeyError indicates a definition key that is already registered.
type DuplicateKeyError struct {
	Kind Kind
	Key  string
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s %s already registered", e.Kind, e.Key)
}

func (e DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// InvalidDefinitionError indicates a definition that is missing a required
// part or cannot be bound.
type InvalidDefinitionError struct {
	Kind   Kind
	Key    string // empty when the key itself is missing
	Reason string
}

func (e InvalidDefinitionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid %s definition: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s definition %s: %s", e.Kind, e.Key, e.Reason)
}

func (e InvalidDefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}

// ServiceNotFoundError indicates that no service is registered for a type.
type ServiceNotFoundError struct {
	ServiceType reflect.Type
}

func (e ServiceNotFoundError) Error() string {
	return fmt.Sprintf("service not found: %s", formatType(e.ServiceType))
}

func (e ServiceNotFoundError) Is(target error) bool {
	return target == ErrServiceNotFound
}

// LookupError indicates that no function or value is registered under a name.
type LookupError struct {
	Kind Kind // KindFunction or KindValue
	Name string
}

func (e LookupError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Kind, e.Name)
}

func (e LookupError) Is(target error) bool {
	switch e.Kind {
	case KindFunction:
		return target == ErrFunctionNotFound
	case KindValue:
		return target == ErrValueNotFound
	default:
		return false
	}
}

// MemberError records why one parameter, property or field could not be injected.
type MemberError struct {
	Member string // "parameter 0 (count)", "field Name", "property Name"
	Type   reflect.Type
	Cause  error
}

func (e MemberError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Member, formatType(e.Type), e.Cause)
}

func (e MemberError) Unwrap() error {
	return e.Cause
}

// InjectionError aggregates every member that could not be injected during
// one construction or invocation.
type InjectionError struct {
	Target   reflect.Type
	Failures []MemberError
}

func (e InjectionError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("failed to inject %d member(s) into %s:", len(e.Failures), formatType(e.Target)))
	for i, f := range e.Failures {
		b.WriteString(fmt.Sprintf("\n  %d. %v", i+1, f))
	}
	return b.String()
}

func (e InjectionError) Is(target error) bool {
	return target == ErrInjection
}

// Unwrap returns the failures so that errors.Is and errors.As reach every cause.
func (e InjectionError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// ConstructionError indicates that a factory, constructor, post-constructor
// or executor failed, returned an error, or returned nothing.
type ConstructionError struct {
	ServiceType reflect.Type
	Cause       error
}

func (e ConstructionError) Error() string {
	return fmt.Sprintf("failed to construct %s: %v", formatType(e.ServiceType), e.Cause)
}

func (e ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

func (e ConstructionError) Unwrap() error {
	return e.Cause
}

// PanicError captures a panic raised by a constructor or executor.
type PanicError struct {
	Value any
	Stack []byte
}

func (e PanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("panic: %v", e.Value))
	if len(e.Stack) > 0 {
		b.WriteString("\n\nStack trace:\n")
		b.Write(e.Stack)
	}
	return b.String()
}

// ExecutorError indicates that an executor could not be registered.
type ExecutorError struct {
	Owner    reflect.Type
	Function string
	Cause    error // ErrNotStatic, ErrNotFound or a binding error
}

func (e ExecutorError) Error() string {
	return fmt.Sprintf("executor %s.%s: %v", formatType(e.Owner), e.Function, e.Cause)
}

func (e ExecutorError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a resolved value that cannot be used as the
// requested type.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string // "type assertion", "field assignment", etc.
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

func (e TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// DisposalError aggregates disposal errors.
type DisposalError struct {
	Errors []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("disposal failed: %v", e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("disposal failed with %d errors:", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

// ValidationError lists the problems Registry.Validate found.
type ValidationError struct {
	Problems []error
}

func (e ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("registry validation failed: %v", e.Problems[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("registry validation failed with %d problems:", len(e.Problems)))
	for i, err := range e.Problems {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e ValidationError) Unwrap() []error {
	return e.Problems
}

// ModuleError wraps errors from module registration.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// CircularDependencyError represents a service that depends on itself.
type CircularDependencyError = graph.CircularDependencyError

// IsNotFound reports whether err reports a missing service, function or value.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrFunctionNotFound) ||
		errors.Is(err, ErrValueNotFound)
}

// IsInjectionError reports whether err is or wraps an InjectionError.
func IsInjectionError(err error) bool {
	return errors.Is(err, ErrInjection)
}

// IsConstructionError reports whether err is or wraps a ConstructionError.
func IsConstructionError(err error) bool {
	return errors.Is(err, ErrConstruction)
}

// IsCircularDependency reports whether err is or wraps a CircularDependencyError.
func IsCircularDependency(err error) bool {
	var circErr CircularDependencyError
	return errors.As(err, &circErr)
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}

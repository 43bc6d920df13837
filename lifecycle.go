package ioc

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// Disposable is implemented by services that release resources on Close.
type Disposable interface {
	Close() error
}

// closer is the error-less form of Disposable.
type closer interface {
	Close()
}

// Close disposes every Single service the resolver constructed, in reverse
// creation order, and clears the cache. A service is disposed when it
// implements Disposable or has a Close() method; an instance cached under
// several keys is disposed once. Multi services are never disposed.
//
// Close is idempotent. Resolution after Close fails with ErrResolverClosed.
func (r *Resolver) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	unlock := r.lock()
	created := r.created
	r.created = nil
	r.singletons.Clear()
	unlock()

	var errs []error
	seen := make(map[any]bool, len(created))
	for i := len(created) - 1; i >= 0; i-- {
		instance := created[i]
		if reflect.TypeOf(instance).Kind() == reflect.Pointer {
			if seen[instance] {
				continue
			}
			seen[instance] = true
		}

		disposed, err := dispose(instance)
		if !disposed {
			continue
		}

		if err != nil {
			err = fmt.Errorf("%s: %w", formatType(reflect.TypeOf(instance)), err)
			r.logger.Error().Err(err).Msg("service disposal failed")
			errs = append(errs, err)
			continue
		}

		r.logger.Debug().Str("type", formatType(reflect.TypeOf(instance))).Msg("service disposed")
	}

	if len(errs) > 0 {
		return DisposalError{Errors: errs}
	}

	return nil
}

// dispose closes instance if it can be closed. A panicking Close is
// reported as a PanicError.
func dispose(instance any) (disposed bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			disposed, err = true, PanicError{Value: p, Stack: debug.Stack()}
		}
	}()

	switch d := instance.(type) {
	case Disposable:
		return true, d.Close()
	case closer:
		d.Close()
		return true, nil
	default:
		return false, nil
	}
}

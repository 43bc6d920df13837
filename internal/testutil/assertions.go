package testutil

import (
	"testing"

	"github.com/junioryono/ioc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertServiceResolvable checks if a service can be resolved
func AssertServiceResolvable[T any](t *testing.T, r *ioc.Resolver) T {
	t.Helper()
	service, err := ioc.Resolve[T](r)
	require.NoError(t, err, "failed to resolve service of type %T", *new(T))
	require.NotNil(t, service, "resolved service is nil")
	return service
}

// AssertServiceNotFound checks if a service resolution fails with not found error
func AssertServiceNotFound[T any](t *testing.T, r *ioc.Resolver) {
	t.Helper()
	_, err := ioc.Resolve[T](r)
	assert.Error(t, err)
	assert.True(t, ioc.IsNotFound(err), "expected service not found error, got: %v", err)
}

// AssertSameInstance checks that two resolutions return the same instance
func AssertSameInstance[T any](t *testing.T, r *ioc.Resolver) T {
	t.Helper()
	first := AssertServiceResolvable[T](t, r)
	second := AssertServiceResolvable[T](t, r)
	assert.Same(t, any(first), any(second), "expected the same instance")
	return first
}

// AssertInjectionFailures checks that err is an InjectionError with n failures
func AssertInjectionFailures(t *testing.T, err error, n int) ioc.InjectionError {
	t.Helper()
	var injErr ioc.InjectionError
	require.ErrorAs(t, err, &injErr)
	assert.Len(t, injErr.Failures, n)
	return injErr
}

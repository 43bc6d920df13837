package ioc_test

import (
	"bytes"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/junioryono/ioc"
	"github.com/junioryono/ioc/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lazyService keeps the resolver its factory was given and uses it later.
type lazyService struct {
	r *ioc.Resolver
}

func newLazyService(r *ioc.Resolver) (any, error) {
	return &lazyService{r: r}, nil
}

func (s *lazyService) Database() (*testutil.TestDatabase, error) {
	return ioc.Resolve[*testutil.TestDatabase](s.r)
}

func TestResolverLife(t *testing.T) {
	t.Run("single is cached", func(t *testing.T) {
		r := testutil.NewRegistryBuilder(t).WithConstructor(testutil.NewTestService).Freeze()
		testutil.AssertSameInstance[*testutil.TestService](t, r)
	})

	t.Run("multi is constructed every time", func(t *testing.T) {
		var counter testutil.Counter
		r := testutil.NewRegistryBuilder(t).
			WithConstructor(counter.NewService, ioc.WithLife(ioc.Multi)).
			Freeze()

		for i := 0; i < 3; i++ {
			testutil.AssertServiceResolvable[*testutil.TestService](t, r)
		}
		assert.Equal(t, 3, counter.Calls())
	})

	t.Run("single shared by dependents", func(t *testing.T) {
		r := testutil.NewRegistryBuilder(t).
			WithConstructor(testutil.NewTestLogger).
			WithConstructor(testutil.NewTestDatabase).
			WithConstructor(testutil.NewTestServiceWithDeps, ioc.WithLife(ioc.Multi)).
			Freeze()

		first := testutil.AssertServiceResolvable[*testutil.TestServiceWithDeps](t, r)
		second := testutil.AssertServiceResolvable[*testutil.TestServiceWithDeps](t, r)
		assert.NotSame(t, first, second)
		assert.Same(t, first.Database, second.Database)
	})

	t.Run("single is constructed once under contention", func(t *testing.T) {
		var counter testutil.Counter
		r := testutil.NewRegistryBuilder(t).WithConstructor(counter.SlowService).Freeze()

		const workers = 50
		results := make([]*testutil.TestService, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				svc, err := ioc.Resolve[*testutil.TestService](r)
				assert.NoError(t, err)
				results[i] = svc
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, counter.Calls())
		for _, svc := range results {
			assert.Same(t, results[0], svc)
		}
	})

	t.Run("resolver kept past construction", func(t *testing.T) {
		r := testutil.NewRegistryBuilder(t).
			WithConstructor(testutil.NewTestDatabase).
			Registry()
		require.NoError(t, r.AddService(ioc.ServiceDefinition{
			Key:     reflect.TypeOf(&lazyService{}),
			Factory: newLazyService,
		}))

		resolver := r.Freeze()
		defer resolver.Close()

		lazy := testutil.AssertServiceResolvable[*lazyService](t, resolver)
		db, err := lazy.Database()
		require.NoError(t, err)

		direct := testutil.AssertServiceResolvable[*testutil.TestDatabase](t, resolver)
		assert.Same(t, direct, db)
	})
}

func TestResolverCircularDependency(t *testing.T) {
	r := testutil.NewRegistryBuilder(t).
		WithConstructor(testutil.NewCircularServiceA).
		WithConstructor(testutil.NewCircularServiceB).
		Freeze()

	_, err := ioc.Resolve[*testutil.CircularServiceA](r)
	require.Error(t, err)
	assert.True(t, ioc.IsCircularDependency(err))

	var circErr ioc.CircularDependencyError
	require.ErrorAs(t, err, &circErr)
	assert.Equal(t, reflect.TypeOf(&testutil.CircularServiceA{}), circErr.Node.Type)
	require.Len(t, circErr.Path, 2)
	assert.Equal(t, reflect.TypeOf(&testutil.CircularServiceA{}), circErr.Path[0].Type)
	assert.Equal(t, reflect.TypeOf(&testutil.CircularServiceB{}), circErr.Path[1].Type)

	// The failure does not leave the resolver locked.
	_, err = ioc.Resolve[*testutil.CircularServiceB](r)
	assert.True(t, ioc.IsCircularDependency(err))
}

func TestResolverLookups(t *testing.T) {
	greet := testutil.GreetFn(func() string { return "hello" })
	r := testutil.NewRegistryBuilder(t).
		WithValue("count", 5).
		WithValue("tags", []string{"a", "b"}).
		WithFunction("greet", greet).
		WithConstructor(testutil.NewTestService).
		Freeze()

	t.Run("service not found", func(t *testing.T) {
		testutil.AssertServiceNotFound[*testutil.TestDatabase](t, r)

		_, err := r.GetService(reflect.TypeOf(&testutil.TestDatabase{}))
		var notFound ioc.ServiceNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, reflect.TypeOf(&testutil.TestDatabase{}), notFound.ServiceType)
	})

	t.Run("functions", func(t *testing.T) {
		fn, err := ioc.Function[testutil.GreetFn](r, "greet")
		require.NoError(t, err)
		assert.Equal(t, "hello", fn())

		_, err = ioc.Function[func() int](r, "greet")
		assert.ErrorIs(t, err, ioc.ErrTypeMismatch)

		_, err = r.GetFunction("missing")
		assert.ErrorIs(t, err, ioc.ErrFunctionNotFound)
		assert.NotErrorIs(t, err, ioc.ErrValueNotFound)
	})

	t.Run("values", func(t *testing.T) {
		count, err := ioc.Value[int](r, "count")
		require.NoError(t, err)
		assert.Equal(t, 5, count)

		tags, err := ioc.Value[[]string](r, "tags")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tags)

		_, err = r.GetValue("missing")
		assert.ErrorIs(t, err, ioc.ErrValueNotFound)
		assert.Contains(t, err.Error(), `"missing"`)
	})

	t.Run("contains", func(t *testing.T) {
		assert.True(t, r.ContainsService(testServiceType))
		assert.False(t, r.ContainsService(reflect.TypeOf(&testutil.TestDatabase{})))
	})

	t.Run("must resolve", func(t *testing.T) {
		assert.NotNil(t, ioc.MustResolve[*testutil.TestService](r))
		assert.Panics(t, func() {
			ioc.MustResolve[*testutil.TestDatabase](r)
		})
	})

	t.Run("nil resolver", func(t *testing.T) {
		_, err := ioc.Resolve[*testutil.TestService](nil)
		assert.ErrorIs(t, err, ioc.ErrResolverNil)

		_, err = ioc.ResolveByBase[testutil.Operation](nil)
		assert.ErrorIs(t, err, ioc.ErrResolverNil)
	})
}

func TestResolverGetServicesByBase(t *testing.T) {
	t.Run("registration order", func(t *testing.T) {
		r := testutil.NewRegistryBuilder(t).
			WithConstructor(testutil.NewOpTwo).
			WithConstructor(testutil.NewNotAnOp).
			WithConstructor(testutil.NewOpOne).
			Freeze()

		services, err := r.GetServicesByBase(opBaseType)
		require.NoError(t, err)
		require.Len(t, services, 2)
		assert.IsType(t, &testutil.OpTwo{}, services[0])
		assert.IsType(t, &testutil.OpOne{}, services[1])

		// Singles are shared with direct resolution.
		one := testutil.AssertServiceResolvable[*testutil.OpOne](t, r)
		assert.Same(t, one, services[1])
	})

	t.Run("no match", func(t *testing.T) {
		r := testutil.NewRegistryBuilder(t).WithConstructor(testutil.NewTestService).Freeze()

		services, err := r.GetServicesByBase(operationType)
		require.NoError(t, err)
		assert.NotNil(t, services)
		assert.Empty(t, services)
	})

	t.Run("failing match", func(t *testing.T) {
		r := testutil.NewRegistryBuilder(t).
			WithConstructor(testutil.NewOpOne).
			WithConstructor(func() (*testutil.OpTwo, error) { return nil, testutil.ErrConstructor }).
			Freeze()

		_, err := ioc.ResolveByBase[testutil.Operation](r)
		assert.ErrorIs(t, err, testutil.ErrConstructor)
	})
}

func TestResolverClosed(t *testing.T) {
	r := testutil.NewRegistryBuilder(t).
		WithValue("count", 1).
		WithFunction("greet", testutil.GreetFn(func() string { return "" })).
		WithConstructor(testutil.NewTestService).
		Freeze()

	require.NoError(t, r.Close())
	assert.True(t, r.IsClosed())

	_, err := ioc.Resolve[*testutil.TestService](r)
	assert.ErrorIs(t, err, ioc.ErrResolverClosed)

	_, err = r.GetServicesByBase(operationType)
	assert.ErrorIs(t, err, ioc.ErrResolverClosed)

	_, err = r.GetValue("count")
	assert.ErrorIs(t, err, ioc.ErrResolverClosed)

	_, err = r.GetFunction("greet")
	assert.ErrorIs(t, err, ioc.ErrResolverClosed)

	_, _, err = r.ExecuteFirst(nil)
	assert.ErrorIs(t, err, ioc.ErrResolverClosed)
}

func TestResolverID(t *testing.T) {
	r := testutil.NewRegistryBuilder(t).Freeze()

	_, err := uuid.Parse(r.ID())
	assert.NoError(t, err)
}

func TestResolverLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	r := testutil.NewRegistryBuilder(t).
		WithConstructor(testutil.NewTestService).
		WithConstructor(testutil.NewGreeter, ioc.WithParams(ioc.ArgOr("count", 1), ioc.ArgOr("greet", nil))).
		Freeze(ioc.WithLogger(logger))

	testutil.AssertServiceResolvable[*testutil.TestService](t, r)
	testutil.AssertServiceResolvable[*testutil.Greeter](t, r)

	out := buf.String()
	assert.Contains(t, out, `"component":"ioc"`)
	assert.Contains(t, out, `"message":"resolver created"`)
	assert.Contains(t, out, `"message":"service constructed"`)
	assert.Contains(t, out, `"type":"*TestService"`)
	assert.Contains(t, out, `"message":"using default for missing dependency"`)
	assert.Equal(t, 2, strings.Count(out, "using default for missing dependency"))
}

func TestResolverLoggingFailedDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	r := testutil.NewRegistryBuilder(t).
		WithConstructor(func() (*testutil.TestDatabase, error) {
			return nil, testutil.ErrConstructor
		}).
		WithConstructor(testutil.NewTestServiceWithDeps, ioc.WithParams(ioc.Optional(), ioc.Optional())).
		Freeze(ioc.WithLogger(logger))

	testutil.AssertServiceResolvable[*testutil.TestServiceWithDeps](t, r)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "using default for missing dependency"))
	assert.Equal(t, 1, strings.Count(out, "using default for failed dependency"))
	assert.Contains(t, out, testutil.ErrConstructor.Error())
}

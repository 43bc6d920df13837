package graph_test

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/junioryono/ioc/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	Database struct{}
	Cache    struct{}
	Service  struct{}
	Handler  struct{}
)

var (
	dbKey      = graph.ServiceKey(reflect.TypeOf(&Database{}))
	cacheKey   = graph.ServiceKey(reflect.TypeOf(&Cache{}))
	serviceKey = graph.ServiceKey(reflect.TypeOf(&Service{}))
	handlerKey = graph.ServiceKey(reflect.TypeOf(&Handler{}))
	countKey   = graph.NamedKey("count")
)

func TestNodeKey_String(t *testing.T) {
	assert.Equal(t, "*graph_test.Database", dbKey.String())
	assert.Equal(t, `"count"`, countKey.String())
}

func TestDependencyGraph_Add(t *testing.T) {
	t.Run("records both directions", func(t *testing.T) {
		g := graph.New()
		g.Add(serviceKey, dbKey, countKey)

		assert.Equal(t, []graph.NodeKey{dbKey, countKey}, g.Dependencies(serviceKey))
		assert.Equal(t, []graph.NodeKey{serviceKey}, g.Dependents(dbKey))
		assert.True(t, g.Has(countKey))
		assert.Equal(t, 3, g.Size())
	})

	t.Run("replaces dependencies", func(t *testing.T) {
		g := graph.New()
		g.Add(serviceKey, dbKey)
		g.Add(serviceKey, cacheKey)

		assert.Equal(t, []graph.NodeKey{cacheKey}, g.Dependencies(serviceKey))
		assert.Empty(t, g.Dependents(dbKey))
		assert.Equal(t, []graph.NodeKey{serviceKey}, g.Dependents(cacheKey))
	})

	t.Run("ignores duplicate dependencies", func(t *testing.T) {
		g := graph.New()
		g.Add(serviceKey, dbKey, dbKey)

		assert.Equal(t, []graph.NodeKey{dbKey}, g.Dependencies(serviceKey))
		assert.Equal(t, []graph.NodeKey{serviceKey}, g.Dependents(dbKey))
	})

	t.Run("unknown node", func(t *testing.T) {
		g := graph.New()
		assert.Nil(t, g.Dependencies(dbKey))
		assert.Nil(t, g.Dependents(dbKey))
		assert.False(t, g.Has(dbKey))
	})
}

func TestDependencyGraph_DetectCycles(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		g := graph.New()
		g.Add(handlerKey, serviceKey)
		g.Add(serviceKey, dbKey, cacheKey)
		g.Add(cacheKey, dbKey)

		assert.NoError(t, g.DetectCycles())
		assert.True(t, g.IsAcyclic())
	})

	t.Run("self dependency", func(t *testing.T) {
		g := graph.New()
		g.Add(serviceKey, serviceKey)

		err := g.DetectCycles()
		var circErr graph.CircularDependencyError
		require.True(t, errors.As(err, &circErr))
		assert.Equal(t, serviceKey, circErr.Node)
		assert.Equal(t, []graph.NodeKey{serviceKey}, circErr.Path)
	})

	t.Run("indirect cycle", func(t *testing.T) {
		g := graph.New()
		g.Add(handlerKey, serviceKey)
		g.Add(serviceKey, cacheKey)
		g.Add(cacheKey, serviceKey)

		err := g.DetectCycles()
		var circErr graph.CircularDependencyError
		require.True(t, errors.As(err, &circErr))
		assert.Equal(t, serviceKey, circErr.Node)
		assert.Equal(t, []graph.NodeKey{serviceKey, cacheKey}, circErr.Path)
		assert.False(t, g.IsAcyclic())

		msg := err.Error()
		assert.Contains(t, msg, "circular dependency detected")
		assert.Contains(t, msg, "*graph_test.Cache")
		assert.Contains(t, msg, "(cycle)")
	})
}

func TestDependencyGraph_TopologicalSort(t *testing.T) {
	g := graph.New()
	g.Add(handlerKey, serviceKey)
	g.Add(serviceKey, cacheKey, dbKey)
	g.Add(cacheKey, dbKey)

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeKey{dbKey, cacheKey, serviceKey, handlerKey}, sorted)

	g.Add(dbKey, handlerKey)
	_, err = g.TopologicalSort()
	assert.Error(t, err)
}

func TestDependencyGraph_WriteDOT(t *testing.T) {
	g := graph.New()
	g.Add(serviceKey, dbKey, countKey)

	var b strings.Builder
	require.NoError(t, g.WriteDOT(&b))

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "digraph dependencies {"))
	assert.Contains(t, out, `n0 [label="*graph_test.Service", shape=box];`)
	assert.Contains(t, out, `shape=ellipse`)
	assert.Contains(t, out, "n0 -> n1;")
	assert.Contains(t, out, "n0 -> n2;")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestDependencyGraph_Concurrent(t *testing.T) {
	g := graph.New()
	keys := make([]graph.NodeKey, 10)
	for i := range keys {
		keys[i] = graph.NamedKey(string(rune('a' + i)))
	}

	var wg sync.WaitGroup
	for i := 1; i < len(keys); i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			g.Add(keys[i], keys[i-1])
		}(i)
		go func() {
			defer wg.Done()
			_ = g.DetectCycles()
			_ = g.Size()
		}()
	}
	wg.Wait()

	assert.Equal(t, len(keys), g.Size())
	assert.True(t, g.IsAcyclic())
}

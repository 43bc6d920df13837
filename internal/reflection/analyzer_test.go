package reflection_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/junioryono/ioc/internal/reflection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test types
type Logger interface {
	Log(msg string)
}

type ConsoleLogger struct{}

func (c *ConsoleLogger) Log(msg string) {}

type Base struct {
	Name string
}

type Middle struct {
	Base
}

type Leaf struct {
	Middle
	Count int
}

type ViaPointer struct {
	*Base
	Other string
}

type Unrelated struct {
	Name string
}

type Tagged struct {
	StringValue string
	Renamed     int    `inject:"count"`
	Maybe       bool   `inject:",optional"`
	Skipped     string `inject:"-"`
	hidden      string
}

type Props struct {
	name  string
	count int
}

func (p *Props) SetName(name string) { p.name = name }
func (p *Props) SetCount(count int) error { p.count = count; return nil }
func (p *Props) SetPair(a, b int) {}
func (p *Props) Set(v int) {}
func (p *Props) SetTwoResults(v int) (int, error) { return v, nil }
func (p *Props) Name() string { return p.name }

func NewUserService(db *Base, logger Logger) *Leaf {
	return &Leaf{}
}

func NewWithError(db *Base) (*Leaf, error) {
	if db == nil {
		return nil, errors.New("base is required")
	}
	return &Leaf{}, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		expected reflection.MemberKind
	}{
		{"func", reflect.TypeOf(func() {}), reflection.FunctionMember},
		{"named func", reflect.TypeOf((*func(string) string)(nil)).Elem(), reflection.FunctionMember},
		{"int", reflect.TypeOf(0), reflection.ValueMember},
		{"float", reflect.TypeOf(1.5), reflection.ValueMember},
		{"bool", reflect.TypeOf(true), reflection.ValueMember},
		{"string", reflect.TypeOf(""), reflection.ValueMember},
		{"slice", reflect.TypeOf([]string{}), reflection.ValueMember},
		{"array", reflect.TypeOf([2]int{}), reflection.ValueMember},
		{"map", reflect.TypeOf(map[string]int{}), reflection.ValueMember},
		{"pointer", reflect.TypeOf(&Base{}), reflection.ServiceMember},
		{"struct", reflect.TypeOf(Base{}), reflection.ServiceMember},
		{"interface", reflect.TypeOf((*Logger)(nil)).Elem(), reflection.ServiceMember},
		{"nil", nil, reflection.ServiceMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, reflection.Classify(tt.typ))
		})
	}
}

func TestMemberKind_String(t *testing.T) {
	assert.Equal(t, "service", reflection.ServiceMember.String())
	assert.Equal(t, "function", reflection.FunctionMember.String())
	assert.Equal(t, "value", reflection.ValueMember.String())
	assert.Equal(t, "Unknown(9)", reflection.MemberKind(9).String())
}

func TestAnalyzer_Func(t *testing.T) {
	a := reflection.New()

	t.Run("plain constructor", func(t *testing.T) {
		info, err := a.Func(NewUserService)
		require.NoError(t, err)

		assert.Equal(t, []reflect.Type{reflect.TypeOf(&Base{}), reflect.TypeOf((*Logger)(nil)).Elem()}, info.Parameters)
		assert.Equal(t, []reflect.Type{reflect.TypeOf(&Leaf{})}, info.Results)
		assert.False(t, info.HasErrorReturn)
	})

	t.Run("constructor with error", func(t *testing.T) {
		info, err := a.Func(NewWithError)
		require.NoError(t, err)

		assert.Len(t, info.Results, 1)
		assert.True(t, info.HasErrorReturn)
	})

	t.Run("no results", func(t *testing.T) {
		info, err := a.Func(func(int) {})
		require.NoError(t, err)
		assert.Empty(t, info.Results)
	})

	t.Run("rejects non-functions", func(t *testing.T) {
		_, err := a.Func(42)
		assert.Error(t, err)

		_, err = a.Func(nil)
		assert.Error(t, err)

		var fn func()
		_, err = a.Func(fn)
		assert.Error(t, err)
	})

	t.Run("caches by type", func(t *testing.T) {
		fresh := reflection.New()
		first, err := fresh.Func(NewUserService)
		require.NoError(t, err)
		second, err := fresh.Func(NewUserService)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, fresh.CacheSize())
	})
}

func TestAnalyzer_Fields(t *testing.T) {
	a := reflection.New()

	t.Run("names and tags", func(t *testing.T) {
		members, err := a.Fields(reflect.TypeOf(&Tagged{}))
		require.NoError(t, err)
		require.Len(t, members, 3)

		assert.Equal(t, "stringValue", members[0].Name)
		assert.Equal(t, "StringValue", members[0].GoName)
		assert.Equal(t, "count", members[1].Name)
		assert.Equal(t, "maybe", members[2].Name)
		assert.True(t, members[2].Optional)
		assert.Equal(t, -1, members[0].Method)
	})

	t.Run("promoted fields", func(t *testing.T) {
		members, err := a.Fields(reflect.TypeOf(Leaf{}))
		require.NoError(t, err)

		names := make([]string, 0, len(members))
		for _, m := range members {
			names = append(names, m.Name)
		}
		assert.ElementsMatch(t, []string{"name", "count"}, names)
	})

	t.Run("skips fields behind embedded pointers", func(t *testing.T) {
		members, err := a.Fields(reflect.TypeOf(ViaPointer{}))
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "other", members[0].Name)
	})

	t.Run("rejects non-struct", func(t *testing.T) {
		_, err := a.Fields(reflect.TypeOf(3))
		assert.Error(t, err)
	})
}

func TestAnalyzer_Setters(t *testing.T) {
	a := reflection.New()

	members, err := a.Setters(reflect.TypeOf(Props{}))
	require.NoError(t, err)
	require.Len(t, members, 2)

	byName := map[string]reflection.MemberInfo{}
	for _, m := range members {
		byName[m.Name] = m
	}

	assert.Equal(t, reflect.TypeOf(""), byName["name"].Type)
	assert.False(t, byName["name"].HasError)
	assert.Equal(t, reflect.TypeOf(0), byName["count"].Type)
	assert.True(t, byName["count"].HasError)
	assert.Nil(t, byName["count"].Index)

	_, err = a.Setters(reflect.TypeOf("x"))
	assert.Error(t, err)
}

func TestParseInjectTag(t *testing.T) {
	tests := []struct {
		tag      reflect.StructTag
		expected reflection.TagInfo
	}{
		{``, reflection.TagInfo{}},
		{`inject:"-"`, reflection.TagInfo{Ignore: true}},
		{`inject:"db"`, reflection.TagInfo{Name: "db"}},
		{`inject:"db,optional"`, reflection.TagInfo{Name: "db", Optional: true}},
		{`inject:",optional"`, reflection.TagInfo{Optional: true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			assert.Equal(t, tt.expected, reflection.ParseInjectTag(tt.tag))
		})
	}
}

func TestMemberName(t *testing.T) {
	assert.Equal(t, "stringValue", reflection.MemberName("StringValue"))
	assert.Equal(t, "x", reflection.MemberName("X"))
	assert.Equal(t, "already", reflection.MemberName("already"))
	assert.Equal(t, "", reflection.MemberName(""))
	assert.Equal(t, "éclair", reflection.MemberName("Éclair"))
}

func TestIsSubtype(t *testing.T) {
	loggerType := reflect.TypeOf((*Logger)(nil)).Elem()
	baseType := reflect.TypeOf(Base{})

	tests := []struct {
		name     string
		typ      reflect.Type
		base     reflect.Type
		expected bool
	}{
		{"implements interface", reflect.TypeOf(&ConsoleLogger{}), loggerType, true},
		{"value does not implement pointer method set", reflect.TypeOf(ConsoleLogger{}), loggerType, false},
		{"same interface", loggerType, loggerType, false},
		{"direct embedding", reflect.TypeOf(&Middle{}), baseType, true},
		{"transitive embedding", reflect.TypeOf(&Leaf{}), baseType, true},
		{"pointer base", reflect.TypeOf(Leaf{}), reflect.TypeOf(&Base{}), true},
		{"embedded pointer", reflect.TypeOf(ViaPointer{}), baseType, true},
		{"base itself", reflect.TypeOf(&Base{}), baseType, false},
		{"unrelated", reflect.TypeOf(&Unrelated{}), baseType, false},
		{"scalar base", reflect.TypeOf(&Leaf{}), reflect.TypeOf(0), false},
		{"nil", nil, baseType, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, reflection.IsSubtype(tt.typ, tt.base))
		})
	}
}

func TestIsNil(t *testing.T) {
	var p *Base
	var fn func()
	var m map[string]int

	assert.True(t, reflection.IsNil(nil))
	assert.True(t, reflection.IsNil(p))
	assert.True(t, reflection.IsNil(fn))
	assert.True(t, reflection.IsNil(m))
	assert.False(t, reflection.IsNil(&Base{}))
	assert.False(t, reflection.IsNil(0))
	assert.False(t, reflection.IsNil(""))
}

func TestAnalyzer_Concurrent(t *testing.T) {
	a := reflection.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Func(NewUserService)
			_, _ = a.Fields(reflect.TypeOf(Tagged{}))
			_, _ = a.Setters(reflect.TypeOf(Props{}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, a.CacheSize())
}

package reflection

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// MemberKind tells the resolver which registry a member is looked up in.
type MemberKind int

const (
	// ServiceMember members are resolved by their declared type.
	ServiceMember MemberKind = iota

	// FunctionMember members are resolved from the named functions.
	FunctionMember

	// ValueMember members are resolved from the named values.
	ValueMember
)

// String returns the string representation of the MemberKind.
func (k MemberKind) String() string {
	switch k {
	case ServiceMember:
		return "service"
	case FunctionMember:
		return "function"
	case ValueMember:
		return "value"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Classify reports how a member of type t is resolved.
//
// Functions are looked up by name, arrays, slices, maps, scalars and strings
// are looked up by name among the values, and everything else is a service.
func Classify(t reflect.Type) MemberKind {
	if t == nil {
		return ServiceMember
	}

	switch t.Kind() {
	case reflect.Func:
		return FunctionMember
	case reflect.Array, reflect.Slice, reflect.Map,
		reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return ValueMember
	default:
		return ServiceMember
	}
}

// FuncInfo contains analyzed information about a constructor or executor function.
type FuncInfo struct {
	Type           reflect.Type
	Parameters     []reflect.Type
	Results        []reflect.Type // non-error results, in order
	HasErrorReturn bool           // last result is an error
	IsVariadic     bool
}

// MemberInfo describes an injectable field or setter of a struct.
type MemberInfo struct {
	Name     string       // lookup name
	GoName   string       // field or method name
	Type     reflect.Type // declared type of the field or setter argument
	Index    []int        // field index path, nil for setters
	Method   int          // method index on the pointer type, -1 for fields
	Optional bool
	HasError bool // setter returns an error
}

// TagInfo contains the parsed `inject` struct tag.
type TagInfo struct {
	Name     string
	Optional bool
	Ignore   bool
}

// Analyzer performs reflection-based analysis of functions and struct types.
// It caches analysis results per type.
type Analyzer struct {
	mu      sync.RWMutex
	funcs   map[reflect.Type]*FuncInfo
	fields  map[reflect.Type][]MemberInfo
	setters map[reflect.Type][]MemberInfo
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		funcs:   make(map[reflect.Type]*FuncInfo),
		fields:  make(map[reflect.Type][]MemberInfo),
		setters: make(map[reflect.Type][]MemberInfo),
	}
}

// Func analyzes a function value.
func (a *Analyzer) Func(fn any) (*FuncInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("function cannot be nil")
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %s", val.Type())
	}

	if val.IsNil() {
		return nil, fmt.Errorf("function cannot be nil")
	}

	typ := val.Type()

	a.mu.RLock()
	if cached, ok := a.funcs[typ]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	info := &FuncInfo{
		Type:       typ,
		Parameters: make([]reflect.Type, typ.NumIn()),
		IsVariadic: typ.IsVariadic(),
	}

	for i := 0; i < typ.NumIn(); i++ {
		info.Parameters[i] = typ.In(i)
	}

	for i := 0; i < typ.NumOut(); i++ {
		out := typ.Out(i)
		if i == typ.NumOut()-1 && out.Implements(errType) {
			info.HasErrorReturn = true
			continue
		}
		info.Results = append(info.Results, out)
	}

	a.mu.Lock()
	a.funcs[typ] = info
	a.mu.Unlock()

	return info, nil
}

// Fields returns the injectable fields of a struct or pointer-to-struct type.
// Promoted fields of embedded structs are included unless reaching them
// requires following a pointer.
func (a *Analyzer) Fields(t reflect.Type) ([]MemberInfo, error) {
	st, ok := StructType(t)
	if !ok {
		return nil, fmt.Errorf("field injection requires a struct type, got %v", t)
	}

	a.mu.RLock()
	if cached, ok := a.fields[st]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	members := make([]MemberInfo, 0, st.NumField())
	for _, field := range reflect.VisibleFields(st) {
		if !field.IsExported() || field.Anonymous {
			continue
		}

		if throughPointer(st, field.Index) {
			continue
		}

		tag := ParseInjectTag(field.Tag)
		if tag.Ignore {
			continue
		}

		name := tag.Name
		if name == "" {
			name = MemberName(field.Name)
		}

		members = append(members, MemberInfo{
			Name:     name,
			GoName:   field.Name,
			Type:     field.Type,
			Index:    field.Index,
			Method:   -1,
			Optional: tag.Optional,
		})
	}

	a.mu.Lock()
	a.fields[st] = members
	a.mu.Unlock()

	return members, nil
}

// Setters returns the writable properties of a struct type: exported methods
// on the pointer type named SetX that take one argument and return nothing
// or an error. The property name is X with a lower-cased first rune.
func (a *Analyzer) Setters(t reflect.Type) ([]MemberInfo, error) {
	st, ok := StructType(t)
	if !ok {
		return nil, fmt.Errorf("property injection requires a struct type, got %v", t)
	}

	a.mu.RLock()
	if cached, ok := a.setters[st]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	ptr := reflect.PointerTo(st)
	members := make([]MemberInfo, 0)
	for i := 0; i < ptr.NumMethod(); i++ {
		method := ptr.Method(i)
		if !strings.HasPrefix(method.Name, "Set") || len(method.Name) == len("Set") {
			continue
		}

		// In(0) is the receiver
		mt := method.Type
		if mt.NumIn() != 2 {
			continue
		}

		hasError := false
		switch mt.NumOut() {
		case 0:
		case 1:
			if mt.Out(0) != errType {
				continue
			}
			hasError = true
		default:
			continue
		}

		members = append(members, MemberInfo{
			Name:     MemberName(strings.TrimPrefix(method.Name, "Set")),
			GoName:   method.Name,
			Type:     mt.In(1),
			Method:   i,
			HasError: hasError,
		})
	}

	a.mu.Lock()
	a.setters[st] = members
	a.mu.Unlock()

	return members, nil
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.funcs) + len(a.fields) + len(a.setters)
}

// ParseInjectTag parses an `inject:"name,optional"` struct tag.
func ParseInjectTag(tag reflect.StructTag) TagInfo {
	info := TagInfo{}

	val, ok := tag.Lookup("inject")
	if !ok {
		return info
	}

	if val == "-" {
		info.Ignore = true
		return info
	}

	parts := strings.Split(val, ",")
	info.Name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "optional" {
			info.Optional = true
		}
	}

	return info
}

// MemberName converts a Go identifier into a lookup name by lower-casing
// its first rune: "StringValue" becomes "stringValue".
func MemberName(goName string) string {
	r, size := utf8.DecodeRuneInString(goName)
	if r == utf8.RuneError {
		return goName
	}
	return string(unicode.ToLower(r)) + goName[size:]
}

// StructType returns the struct type behind t, dereferencing one pointer.
func StructType(t reflect.Type) (reflect.Type, bool) {
	if t == nil {
		return nil, false
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, false
	}

	return t, true
}

// IsSubtype reports whether t is a strict subtype of base.
//
// For an interface base this is any other type implementing it. For a struct
// base (or pointer to struct) it is a struct, or pointer to struct, that
// embeds base directly or through other embedded structs.
func IsSubtype(t, base reflect.Type) bool {
	if t == nil || base == nil || t == base {
		return false
	}

	if base.Kind() == reflect.Interface {
		return t.Implements(base)
	}

	bs, ok := StructType(base)
	if !ok {
		return false
	}

	st, ok := StructType(t)
	if !ok || st == bs {
		return false
	}

	return embeds(st, bs, make(map[reflect.Type]bool))
}

func embeds(st, base reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[st] {
		return false
	}
	seen[st] = true

	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.Anonymous {
			continue
		}

		ft, ok := StructType(field.Type)
		if !ok {
			continue
		}

		if ft == base || embeds(ft, base, seen) {
			return true
		}
	}

	return false
}

// throughPointer reports whether the field at index path crosses an embedded pointer.
func throughPointer(st reflect.Type, index []int) bool {
	t := st
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = f.Type
	}
	return false
}

// IsNil reports whether v is nil or holds a nil pointer, map, slice, func,
// channel or interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// ImplementsError reports whether t implements the error interface.
func ImplementsError(t reflect.Type) bool {
	return t != nil && t.Implements(errType)
}

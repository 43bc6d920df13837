package ioc

import (
	"encoding/json"
	"fmt"
)

// Life specifies how often the resolver constructs a service.
type Life int

const (
	// Single specifies that the service is constructed once, on first request,
	// and cached by the resolver until it is closed. Cached instances that
	// implement io.Closer or Close() are disposed by Resolver.Close.
	Single Life = iota

	// Multi specifies that every request constructs a new instance.
	// The resolver does not keep or dispose Multi instances.
	Multi
)

// String returns the string representation of the Life.
func (l Life) String() string {
	switch l {
	case Single:
		return "Single"
	case Multi:
		return "Multi"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid checks if the life is valid.
func (l Life) IsValid() bool {
	return l >= Single && l <= Multi
}

// MarshalText implements encoding.TextMarshaler.
func (l Life) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, LifeError{Value: l}
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Life) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Single", "single":
		*l = Single
	case "Multi", "multi":
		*l = Multi
	default:
		return LifeError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Life) MarshalJSON() ([]byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Life) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}

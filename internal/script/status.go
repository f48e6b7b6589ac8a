package script

import (
	"fmt"
	"slices"
	"strings"
)

// Status holds the auxiliary outcomes of one script run, such as the peak
// speed reached. Values are read and written through typed keys.
type Status struct {
	values map[string]any
}

// NewStatus creates an empty status.
func NewStatus() *Status {
	return &Status{values: make(map[string]any)}
}

// Key names a status value of type T.
type Key[T any] struct {
	name string
}

// NewKey creates a key. Keys with the same name address the same slot.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key name.
func (k Key[T]) Name() string {
	return k.name
}

// Set stores v under k.
func Set[T any](s *Status, k Key[T], v T) {
	s.values[k.name] = v
}

// Get returns the value stored under k. It reports false when the slot is
// empty or holds a value of another type.
func Get[T any](s *Status, k Key[T]) (T, bool) {
	v, ok := s.values[k.name].(T)
	return v, ok
}

// Value returns the value under k, or the zero value of T.
func Value[T any](s *Status, k Key[T]) T {
	v, _ := Get(s, k)
	return v
}

// Copy copies the value of k from src into dst, if present.
func Copy[T any](dst, src *Status, k Key[T]) {
	if v, ok := Get(src, k); ok {
		Set(dst, k, v)
	}
}

// Len returns the number of stored values.
func (s *Status) Len() int {
	return len(s.values)
}

// String renders the status as sorted key=value pairs.
func (s *Status) String() string {
	var keys []string
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, s.values[k]))
	}
	return strings.Join(parts, " ")
}

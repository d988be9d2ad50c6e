package imm

import (
	"strings"

	"github.com/benbjohnson/immutable"
)

type keyComparer struct{}

func (keyComparer) Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Map is a persistent string keyed map. The zero value is an empty map.
type Map struct {
	m *immutable.SortedMap[string, Value]
}

func NewMap() *Map {
	return &Map{m: immutable.NewSortedMap[string, Value](keyComparer{})}
}

// MapOf builds a Map from native key/value pairs.
func MapOf(fields map[string]any) *Map {
	return From(fields).(*Map)
}

func (m *Map) inner() *immutable.SortedMap[string, Value] {
	if m == nil || m.m == nil {
		return immutable.NewSortedMap[string, Value](keyComparer{})
	}
	return m.m
}

func (m *Map) Len() int {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Len()
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil || m.m == nil {
		return nil, false
	}
	return m.m.Get(key)
}

func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set returns a map with key bound to value. The receiver is returned when
// the key already holds an equal value.
func (m *Map) Set(key string, value Value) *Map {
	if current, ok := m.Get(key); ok && Equal(current, value) {
		return m
	}
	return &Map{m: m.inner().Set(key, value)}
}

func (m *Map) Delete(key string) *Map {
	if !m.Has(key) {
		return m
	}
	return &Map{m: m.inner().Delete(key)}
}

// Keys returns the keys in ascending order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Range(func(key string, _ Value) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Range walks the entries in key order until f returns false.
func (m *Map) Range(f func(key string, value Value) bool) {
	if m == nil || m.m == nil {
		return
	}
	itr := m.m.Iterator()
	for !itr.Done() {
		key, value, ok := itr.Next()
		if !ok {
			return
		}
		if !f(key, value) {
			return
		}
	}
}

// Package imm implements path addressed copy-on-write updates over
// persistent maps and sequences.
//
// A Value is one of: nil, bool, float64, string, *Map or *Seq. Containers
// are never mutated in place, every write returns a new container that
// shares all untouched subtrees with the previous one. Writes that do not
// change anything (by deep equality) return the original reference.
package imm

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fulldump/bucketdb/utils"
)

type Value = any

// From converts a native Go value (as produced by encoding/json or written
// by hand) into a Value. Numbers are normalized to float64.
func From(native any) Value {
	switch v := native.(type) {
	case nil:
		return nil
	case bool, float64, string, *Map, *Seq:
		return v
	case Map:
		return &v
	case Seq:
		return &v
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return f
	case map[string]any:
		m := NewMap()
		for key, item := range v {
			m = m.Set(key, From(item))
		}
		return m
	case []any:
		s := NewSeq()
		for _, item := range v {
			s = s.Append(From(item))
		}
		return s
	}

	rv := reflect.ValueOf(native)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}

	generic, err := utils.Remarshal[any](native)
	if err != nil {
		panic(fmt.Sprintf("imm: unsupported value %T: %s", native, err.Error()))
	}
	return From(generic)
}

// ToNative converts a Value back into plain maps and slices.
func ToNative(v Value) any {
	switch t := v.(type) {
	case *Map:
		result := make(map[string]any, t.Len())
		t.Range(func(key string, item Value) bool {
			result[key] = ToNative(item)
			return true
		})
		return result
	case *Seq:
		result := make([]any, 0, t.Len())
		t.Range(func(_ int, item Value) bool {
			result = append(result, ToNative(item))
			return true
		})
		return result
	}
	return v
}

// IsNumber reports whether v holds a number and returns it.
func IsNumber(v Value) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// same tells whether two values are the same reference. Values are always
// comparable types (scalars or container pointers) so == never panics.
func same(a, b Value) bool {
	return a == b
}

package imm

// Transform receives the current value at a path (exists is false when
// nothing is there) and returns the replacement. Returning false as the
// second result marks the position as absent: map fields are deleted,
// sequence elements are removed and wildcard elements are dropped.
type Transform func(current Value, exists bool) (Value, bool)

// DoIn applies f at path inside target and rebuilds only the ancestors of
// a changed leaf. When the result of f is deep equal to the current value
// the original target is returned. The boolean result is false when the
// whole target became absent (empty path and f returned false).
func DoIn(target Value, path Path, f Transform) (Value, bool) {
	return doIn(target, target != nil, path, f)
}

func doIn(current Value, exists bool, path Path, f Transform) (Value, bool) {

	if len(path) == 0 {
		next, ok := f(current, exists)
		if !ok {
			return nil, false
		}
		next = From(next)
		if exists && Equal(current, next) {
			return current, true
		}
		return next, true
	}

	switch segment := path[0].(type) {
	case string:
		m, _ := current.(*Map)
		child, has := m.Get(segment)
		next, ok := doIn(child, has, path[1:], f)
		if !ok {
			if !has {
				return current, exists
			}
			return m.Delete(segment), true
		}
		if has && same(child, next) {
			return current, exists
		}
		if m == nil {
			m = NewMap()
		}
		return m.Set(segment, next), true

	case int:
		if segment < 0 {
			invalidSegment(segment)
		}
		s, _ := current.(*Seq)
		has := segment < s.Len()
		child := s.At(segment)
		next, ok := doIn(child, has, path[1:], f)
		if !ok {
			if !has {
				return current, exists
			}
			return s.RemoveAt(segment), true
		}
		if has && same(child, next) {
			return current, exists
		}
		if s == nil {
			s = NewSeq()
		}
		return s.Set(segment, next), true

	case WildcardSegment:
		s, _ := current.(*Seq)
		if s.Len() == 0 {
			return current, exists
		}
		changed := false
		values := make([]Value, 0, s.Len())
		s.Range(func(_ int, item Value) bool {
			next, ok := doIn(item, true, path[1:], f)
			if !ok {
				changed = true
				return true
			}
			if !same(item, next) {
				changed = true
			}
			values = append(values, next)
			return true
		})
		if !changed {
			return current, exists
		}
		return NewSeq(values...), true
	}

	invalidSegment(path[0])
	return nil, false
}

// GetIn reads the value at path. Wildcards collect the matching values of
// every element into a Seq. alt is returned when nothing is found.
func GetIn(target Value, path Path, alt ...Value) Value {
	v, ok := getIn(target, path)
	if !ok {
		if len(alt) > 0 {
			return alt[0]
		}
		return nil
	}
	return v
}

// Lookup is GetIn that reports whether the path exists.
func Lookup(target Value, path Path) (Value, bool) {
	return getIn(target, path)
}

func getIn(current Value, path Path) (Value, bool) {
	if len(path) == 0 {
		return current, true
	}
	switch segment := path[0].(type) {
	case string:
		m, ok := current.(*Map)
		if !ok {
			return nil, false
		}
		child, has := m.Get(segment)
		if !has {
			return nil, false
		}
		return getIn(child, path[1:])
	case int:
		if segment < 0 {
			invalidSegment(segment)
		}
		s, ok := current.(*Seq)
		if !ok || segment >= s.Len() {
			return nil, false
		}
		return getIn(s.At(segment), path[1:])
	case WildcardSegment:
		s, ok := current.(*Seq)
		if !ok {
			return nil, false
		}
		values := []Value{}
		s.Range(func(_ int, item Value) bool {
			if v, found := getIn(item, path[1:]); found {
				values = append(values, v)
			}
			return true
		})
		return NewSeq(values...), true
	}
	invalidSegment(path[0])
	return nil, false
}

func Get(target Value, key string, alt ...Value) Value {
	return GetIn(target, Path{key}, alt...)
}

func SetIn(target Value, path Path, value Value) Value {
	result, _ := DoIn(target, path, func(Value, bool) (Value, bool) {
		return value, true
	})
	return result
}

func Set(target Value, key string, value Value) Value {
	return SetIn(target, Path{key}, value)
}

func UpdateIn(target Value, path Path, f func(current Value) Value) Value {
	result, _ := DoIn(target, path, func(current Value, _ bool) (Value, bool) {
		return f(current), true
	})
	return result
}

func Update(target Value, key string, f func(current Value) Value) Value {
	return UpdateIn(target, Path{key}, f)
}

func RemoveIn(target Value, path Path) Value {
	result, _ := DoIn(target, path, func(Value, bool) (Value, bool) {
		return nil, false
	})
	return result
}

func Remove(target Value, key string) Value {
	return RemoveIn(target, Path{key})
}

// Merge combines source into target recursively. Keys missing from source
// are kept, nested maps are merged, anything else in source wins.
func Merge(target, source Value) Value {
	src, ok := source.(*Map)
	if !ok {
		if Equal(target, source) {
			return target
		}
		return source
	}
	dst, ok := target.(*Map)
	if !ok {
		return src
	}
	result := dst
	src.Range(func(key string, value Value) bool {
		current, has := result.Get(key)
		if has {
			if _, isMap := value.(*Map); isMap {
				value = Merge(current, value)
			}
		}
		result = result.Set(key, value)
		return true
	})
	return result
}

func MergeIn(target Value, path Path, source Value) Value {
	return UpdateIn(target, path, func(current Value) Value {
		return Merge(current, source)
	})
}

// MapValues applies f to every element of a sequence.
func MapValues(target Value, f func(item Value, i int) Value) Value {
	s, ok := target.(*Seq)
	if !ok {
		return target
	}
	changed := false
	values := make([]Value, 0, s.Len())
	s.Range(func(i int, item Value) bool {
		next := From(f(item, i))
		if !Equal(item, next) {
			changed = true
		} else {
			next = item
		}
		values = append(values, next)
		return true
	})
	if !changed {
		return target
	}
	return NewSeq(values...)
}

func MapIn(target Value, path Path, f func(item Value, i int) Value) Value {
	return UpdateIn(target, path, func(current Value) Value {
		return MapValues(current, f)
	})
}

// Filter keeps the elements of a sequence for which keep returns true.
func Filter(target Value, keep func(item Value, i int) bool) Value {
	s, ok := target.(*Seq)
	if !ok {
		return target
	}
	values := make([]Value, 0, s.Len())
	s.Range(func(i int, item Value) bool {
		if keep(item, i) {
			values = append(values, item)
		}
		return true
	})
	if len(values) == s.Len() {
		return target
	}
	return NewSeq(values...)
}

func FilterIn(target Value, path Path, keep func(item Value, i int) bool) Value {
	return UpdateIn(target, path, func(current Value) Value {
		return Filter(current, keep)
	})
}

func asSeq(v Value) *Seq {
	if s, ok := v.(*Seq); ok {
		return s
	}
	return NewSeq()
}

func AddFirst(target Value, values ...Value) Value {
	return asSeq(target).Prepend(values...)
}

func AddLast(target Value, values ...Value) Value {
	return asSeq(target).Append(values...)
}

func RemoveFirst(target Value) Value {
	s := asSeq(target)
	if s.Len() == 0 {
		return target
	}
	return s.RemoveAt(0)
}

func RemoveLast(target Value) Value {
	s := asSeq(target)
	if s.Len() == 0 {
		return target
	}
	return s.RemoveAt(s.Len() - 1)
}

func RemoveAt(target Value, i int) Value {
	s := asSeq(target)
	if i < 0 || i >= s.Len() {
		return target
	}
	return s.RemoveAt(i)
}

// Item replaces the element at position i.
func Item(target Value, i int, value Value) Value {
	return SetIn(target, Path{i}, value)
}

func AddFirstIn(target Value, path Path, values ...Value) Value {
	return UpdateIn(target, path, func(current Value) Value {
		return AddFirst(current, values...)
	})
}

func AddLastIn(target Value, path Path, values ...Value) Value {
	return UpdateIn(target, path, func(current Value) Value {
		return AddLast(current, values...)
	})
}

func RemoveFirstIn(target Value, path Path) Value {
	return UpdateIn(target, path, RemoveFirst)
}

func RemoveLastIn(target Value, path Path) Value {
	return UpdateIn(target, path, RemoveLast)
}

func RemoveAtIn(target Value, path Path, i int) Value {
	return UpdateIn(target, path, func(current Value) Value {
		return RemoveAt(current, i)
	})
}

func ItemIn(target Value, path Path, i int, value Value) Value {
	return SetIn(target, path.Append(i), value)
}

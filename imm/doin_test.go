package imm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Map {
	return MapOf(map[string]any{
		"id":   "1",
		"name": "alice",
		"profile": map[string]any{
			"age":  30,
			"tags": []any{"a", "b"},
		},
		"orders": []any{
			map[string]any{"id": "o1", "qty": 1},
			map[string]any{"id": "o2", "qty": 5},
		},
	})
}

func assertValue(t *testing.T, expected, obtained Value) {
	t.Helper()
	assert.True(t, Equal(expected, obtained), "expected %v, obtained %v", ToNative(expected), ToNative(obtained))
}

func TestFromNormalizesNumbers(t *testing.T) {
	v := From(map[string]any{"a": 1, "b": int64(2), "c": float32(1.5)})
	assert.Equal(t, 1.0, Get(v, "a"))
	assert.Equal(t, 2.0, Get(v, "b"))
	assert.Equal(t, 1.5, Get(v, "c"))
}

func TestFromStruct(t *testing.T) {
	type item struct {
		Name string `json:"name"`
		Qty  int    `json:"qty"`
	}
	v := From(item{Name: "x", Qty: 3})
	assert.True(t, Equal(v, MapOf(map[string]any{"name": "x", "qty": 3})))
}

func TestSetInNoopKeepsReference(t *testing.T) {
	doc := sample()

	assert.Same(t, doc, SetIn(doc, Path{"name"}, "alice"))
	assert.Same(t, doc, SetIn(doc, Path{"profile", "tags"}, NewSeq("a", "b")))
	assert.Same(t, doc, MergeIn(doc, Path{"profile"}, MapOf(map[string]any{"age": 30})))
	assert.Same(t, doc, UpdateIn(doc, Path{"orders", 1, "qty"}, func(v Value) Value { return 5 }))
}

func TestSetInSharesUntouchedSubtrees(t *testing.T) {
	doc := sample()

	next := SetIn(doc, Path{"profile", "age"}, 31).(*Map)
	require.NotSame(t, doc, next)

	assert.Equal(t, 31.0, GetIn(next, Path{"profile", "age"}))
	assert.Equal(t, 30.0, GetIn(doc, Path{"profile", "age"}))

	oldOrders, _ := doc.Get("orders")
	newOrders, _ := next.Get("orders")
	assert.Same(t, oldOrders, newOrders)
}

func TestSetInCoercesContainers(t *testing.T) {
	v := SetIn("scalar", Path{"a", 2, "b"}, true)

	a := GetIn(v, Path{"a"}).(*Seq)
	assert.Equal(t, 3, a.Len())
	assert.Nil(t, a.At(0))
	assert.Nil(t, a.At(1))
	assert.Equal(t, true, GetIn(v, Path{"a", 2, "b"}))
}

func TestWildcard(t *testing.T) {
	doc := sample()

	next := UpdateIn(doc, Path{"orders", Wildcard, "qty"}, func(v Value) Value {
		return v.(float64) * 2
	})
	assertValue(t, NewSeq(2.0, 10.0), GetIn(next, Path{"orders", Wildcard, "qty"}))

	t.Run("absent results drop elements", func(t *testing.T) {
		next, _ := DoIn(doc, Path{"orders", Wildcard}, func(v Value, _ bool) (Value, bool) {
			return v, Get(v, "qty") != 1.0
		})
		orders := GetIn(next, Path{"orders"}).(*Seq)
		require.Equal(t, 1, orders.Len())
		assert.Equal(t, "o2", Get(orders.At(0), "id"))
	})

	t.Run("unchanged wildcard keeps reference", func(t *testing.T) {
		changed := SetIn(doc, Path{"orders", Wildcard, "id"}, nil)
		assert.NotSame(t, doc, changed)
		kept := UpdateIn(doc, Path{"orders", Wildcard, "id"}, func(v Value) Value { return v })
		assert.Same(t, doc, kept)
	})
}

func TestRemoveIn(t *testing.T) {
	doc := sample()

	next := RemoveIn(doc, Path{"profile", "tags", 0})
	assertValue(t, NewSeq("b"), GetIn(next, Path{"profile", "tags"}))

	next = RemoveIn(doc, Path{"name"})
	_, found := Lookup(next, Path{"name"})
	assert.False(t, found)

	assert.Same(t, doc, RemoveIn(doc, Path{"missing", "deep"}))
}

func TestInvalidSegmentPanics(t *testing.T) {
	assert.Panics(t, func() {
		SetIn(sample(), Path{"a", 1.5}, 1)
	})
	assert.Panics(t, func() {
		GetIn(sample(), Path{true})
	})
}

func TestMerge(t *testing.T) {
	a := MapOf(map[string]any{"x": 1, "nested": map[string]any{"k": 1, "j": 2}})
	b := MapOf(map[string]any{"y": 2, "nested": map[string]any{"k": 3}})

	merged := Merge(a, b)
	expected := MapOf(map[string]any{"x": 1, "y": 2, "nested": map[string]any{"k": 3, "j": 2}})
	assert.True(t, Equal(merged, expected))

	assert.Equal(t, "s", Merge(a, "s"))
	assert.True(t, Equal(b, Merge("s", b)))
}

func TestSequenceHelpers(t *testing.T) {
	doc := MapOf(map[string]any{"list": []any{1, 2, 3}})
	path := Path{"list"}

	assertValue(t, NewSeq(0.0, 1.0, 2.0, 3.0), GetIn(AddFirstIn(doc, path, 0), path))
	assertValue(t, NewSeq(1.0, 2.0, 3.0, 4.0), GetIn(AddLastIn(doc, path, 4), path))
	assertValue(t, NewSeq(2.0, 3.0), GetIn(RemoveFirstIn(doc, path), path))
	assertValue(t, NewSeq(1.0, 2.0), GetIn(RemoveLastIn(doc, path), path))
	assertValue(t, NewSeq(1.0, 3.0), GetIn(RemoveAtIn(doc, path, 1), path))
	assertValue(t, NewSeq(1.0, 9.0, 3.0), GetIn(ItemIn(doc, path, 1, 9), path))
	assertValue(t, NewSeq(2.0, 4.0, 6.0), GetIn(MapIn(doc, path, func(v Value, _ int) Value {
		return v.(float64) * 2
	}), path))
	assertValue(t, NewSeq(1.0, 3.0), GetIn(FilterIn(doc, path, func(v Value, _ int) bool {
		return v.(float64) != 2
	}), path))

	assert.Same(t, doc, FilterIn(doc, path, func(Value, int) bool { return true }))
}

func TestParsePath(t *testing.T) {
	assert.Equal(t, Path{"a", Wildcard, "b", 0}, ParsePath("a.*.b.0"))
	assert.Equal(t, Path{}, ParsePath(""))
	assert.Equal(t, "a.*.b.0", ParsePath("a.*.b.0").String())

	p, err := PathFrom([]any{"a", "*", 2.0})
	require.NoError(t, err)
	assert.Equal(t, Path{"a", Wildcard, 2}, p)

	_, err = PathFrom([]any{"a", 1.5})
	assert.Error(t, err)
}

package modify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulldump/bucketdb/imm"
	"github.com/fulldump/bucketdb/record"
)

func doc() *record.Record {
	return record.New(map[string]any{
		"id":    "1",
		"score": 5,
		"name":  "alice",
		"tags":  []any{"a", "b", "c", "d"},
		"orders": []any{
			map[string]any{"id": "o1", "status": "open", "qty": 1},
			map[string]any{"id": "o2", "status": "closed", "qty": 2},
			map[string]any{"id": "o3", "status": "open", "qty": 3},
		},
		"profile": map[string]any{"country": "es", "city": "bcn"},
	})
}

func apply(t *testing.T, r *record.Record, builders ...Builder) *record.Record {
	t.Helper()
	result, err := Apply(r, Chain(builders...))
	require.NoError(t, err)
	return result
}

func seq(values ...any) *imm.Seq {
	return imm.From(values).(*imm.Seq)
}

func assertValue(t *testing.T, expected, obtained imm.Value) {
	t.Helper()
	assert.True(t, imm.Equal(imm.From(expected), obtained), "expected %v, obtained %v", imm.ToNative(imm.From(expected)), imm.ToNative(obtained))
}

func TestSetThenIncrease(t *testing.T) {
	r := apply(t, doc(), At("score").Set(5))
	r = apply(t, r, At("score").Increase(3))
	assert.Equal(t, 8.0, r.Get("score"))
}

func TestNoopKeepsIdentity(t *testing.T) {
	r := doc()
	assert.Same(t, r, apply(t, r, At("score").Set(5)))
	assert.Same(t, r, apply(t, r, At("score").Increase(0)))
	assert.Same(t, r, apply(t, r, At("profile").Merge(map[string]any{"country": "es"})))
	assert.Same(t, r, apply(t, r, At("tags").PushToSet("a")))
	assert.Same(t, r, apply(t, r, At("score").Increase(2), At("score").Decrease(2)))
}

func TestNumericOperators(t *testing.T) {
	r := doc()
	assert.Equal(t, 2.0, apply(t, r, At("score").Decrease(3)).Get("score"))
	assert.Equal(t, 9.0, apply(t, r, At("score").Max(9)).Get("score"))
	assert.Equal(t, 5.0, apply(t, r, At("score").Max(1)).Get("score"))
	assert.Equal(t, 1.0, apply(t, r, At("score").Min(1)).Get("score"))

	t.Run("non numeric counts as zero", func(t *testing.T) {
		assert.Equal(t, 4.0, apply(t, r, At("name").Increase(4)).Get("name"))
		assert.Equal(t, -4.0, apply(t, r, At("missing").Decrease(4)).Get("missing"))
		assert.Equal(t, 0.0, apply(t, r, At("name").Max(-1)).Get("name"))
	})
}

func TestMapOperators(t *testing.T) {
	r := doc()
	merged := apply(t, r, At("profile").Merge(map[string]any{"zip": "08001"}))
	assertValue(t, map[string]any{"country": "es", "city": "bcn", "zip": "08001"}, merged.Get("profile"))

	without := apply(t, r, At("profile").Without("city", "nope"))
	assertValue(t, map[string]any{"country": "es"}, without.Get("profile"))

	unset := apply(t, r, At("profile.city").Unset())
	assertValue(t, map[string]any{"country": "es"}, unset.Get("profile"))
}

func TestSequenceOperators(t *testing.T) {
	r := doc()
	cases := []struct {
		name     string
		builder  Builder
		expected []any
	}{
		{"pushEnd", At("tags").PushEnd("e"), []any{"a", "b", "c", "d", "e"}},
		{"pushStart", At("tags").PushStart("z"), []any{"z", "a", "b", "c", "d"}},
		{"pushAt", At("tags").PushAt(1, "x"), []any{"a", "x", "b", "c", "d"}},
		{"pushAt length appends", At("tags").PushAt(4, "x"), []any{"a", "b", "c", "d", "x"}},
		{"pushAt beyond length", At("tags").PushAt(9, "x"), []any{"a", "b", "c", "d"}},
		{"pullEnd", At("tags").PullEnd(), []any{"a", "b", "c"}},
		{"pullStart", At("tags").PullStart(), []any{"b", "c", "d"}},
		{"pullAt", At("tags").PullAt(2), []any{"a", "b", "d"}},
		{"joinEnd", At("tags").JoinEnd("e", "f"), []any{"a", "b", "c", "d", "e", "f"}},
		{"joinStart", At("tags").JoinStart("y", "z"), []any{"y", "z", "a", "b", "c", "d"}},
		{"joinAt", At("tags").JoinAt(2, "x", "y"), []any{"a", "b", "x", "y", "c", "d"}},
		{"pushToSet", At("tags").PushToSet("e"), []any{"a", "b", "c", "d", "e"}},
		{"pushToSetAll", At("tags").PushToSetAll("a", "e", "e"), []any{"a", "b", "c", "d", "e"}},
		{"pullFromSet", At("tags").PullFromSet("b"), []any{"a", "c", "d"}},
		{"pullFromSetAll", At("tags").PullFromSetAll("b", "d"), []any{"a", "c"}},
		{"slice", At("tags").Slice(1, 3), []any{"b", "c"}},
		{"slice negative", At("tags").Slice(-2), []any{"c", "d"}},
		{"slice negative end", At("tags").Slice(0, -1), []any{"a", "b", "c"}},
		{"pushEnd on missing", At("missing").PushEnd(1), nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result := apply(t, r, c.builder)
			if c.expected == nil {
				assertValue(t, seq(1), result.GetIn(c.builder.path))
				return
			}
			assertValue(t, seq(c.expected...), result.GetIn(c.builder.path))
		})
	}
}

func TestWildcard(t *testing.T) {
	r := doc()

	t.Run("update every element", func(t *testing.T) {
		result := apply(t, r, At("orders.*.qty").Increase(10))
		assertValue(t, seq(11, 12, 13), result.GetIn(imm.ParsePath("orders.*.qty")))
	})

	t.Run("guard per element", func(t *testing.T) {
		result := apply(t, r, At("orders.*.status", "open").Set("done"))
		assertValue(t, seq("done", "closed", "done"), result.GetIn(imm.ParsePath("orders.*.status")))
	})

	t.Run("document guard on element", func(t *testing.T) {
		result := apply(t, r, At("orders.*", map[string]any{"qty": map[string]any{"$gte": 2}}).Merge(map[string]any{"big": true}))
		assertValue(t, seq(true, true), result.GetIn(imm.ParsePath("orders.*.big")))
	})

	t.Run("remove drops elements", func(t *testing.T) {
		result := apply(t, r, At("orders.*", map[string]any{"status": "closed"}).Remove())
		assertValue(t, seq("o1", "o3"), result.GetIn(imm.ParsePath("orders.*.id")))
	})

	t.Run("remove a field of every element", func(t *testing.T) {
		result := apply(t, r, At("orders.*.qty").Remove())
		assertValue(t, seq(), result.GetIn(imm.ParsePath("orders.*.qty")))
		assert.Equal(t, 3, result.GetIn(imm.Path{"orders"}).(*imm.Seq).Len())
	})
}

func TestGuard(t *testing.T) {
	r := doc()
	assert.Same(t, r, apply(t, r, At("score", map[string]any{"$gt": 10}).Set(0)))
	assert.Equal(t, 0.0, apply(t, r, At("score", map[string]any{"$lte": 5}).Set(0)).Get("score"))
	assert.Equal(t, 1.0, apply(t, r, At("missing", nil).Set(1)).Get("missing"))
}

func TestSequentialComposition(t *testing.T) {
	r := apply(t, doc(),
		At("score").Set(1),
		At("score", 1).Increase(1),
		At("score", 1).Increase(100),
	)
	assert.Equal(t, 2.0, r.Get("score"))
}

func TestUnsetResetsTypeDefault(t *testing.T) {
	account := record.NewType("account", map[string]any{"balance": 0})
	r := account.New(map[string]any{"id": "a", "balance": 10, "note": "x"})

	result := apply(t, r, At("balance").Unset(), At("note").Remove())
	assert.Equal(t, 0.0, result.Get("balance"))
	assert.False(t, result.Has("note"))
}

func TestNestedModify(t *testing.T) {
	r := apply(t, doc(), At("profile").Modify(
		At("city").Set("mad"),
		At("visits").Increase(1),
	))
	assertValue(t, map[string]any{"country": "es", "city": "mad", "visits": 1}, r.Get("profile"))
}

func TestErrors(t *testing.T) {
	_, err := Apply(doc(), Modifier{{Path: imm.Path{}, Ops: []Op{{Code: OpSet}}}})
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = Apply(doc(), Modifier{{Path: imm.Path{"a"}, Ops: []Op{{Code: "explode"}}}})
	assert.ErrorIs(t, err, ErrUnknownOpcode)

	_, err = Apply(doc(), Modifier{{Path: imm.Path{"a"}, Ops: []Op{{Code: OpIncrease, Params: Params{Value: "x"}}}}})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Apply(doc(), At("score", map[string]any{"$regex": "x"}).Set(1).Modifier())
	assert.Error(t, err)
}

func TestBuilderIsImmutable(t *testing.T) {
	base := At("score")
	a := base.Increase(1)
	b := base.Decrease(1)
	c := a.Max(3)

	assert.Len(t, base.ops, 0)
	assert.Len(t, a.ops, 1)
	assert.Len(t, c.ops, 2)
	assert.Equal(t, OpDecrease, b.ops[0].Code)
	assert.Equal(t, OpIncrease, c.ops[0].Code)
}

func TestJSON(t *testing.T) {
	m := Chain(
		At("orders.*.qty", map[string]any{"$gt": 1}).Increase(2).Max(10),
		At("tags").Slice(0, 2).PushAt(1, "x"),
		At("profile").Modify(At("city").Set("mad")),
	)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	decoded, err := Parse(data)
	require.NoError(t, err)

	expected, err := Apply(doc(), m)
	require.NoError(t, err)
	obtained, err := Apply(doc(), decoded)
	require.NoError(t, err)
	assert.True(t, expected.Equal(obtained))

	t.Run("single entry", func(t *testing.T) {
		m, err := Parse([]byte(`{"path":["score"],"ops":[["increase",{"value":2}]]}`))
		require.NoError(t, err)
		r, err := Apply(doc(), m)
		require.NoError(t, err)
		assert.Equal(t, 7.0, r.Get("score"))
	})

	t.Run("unknown opcode", func(t *testing.T) {
		_, err := Parse([]byte(`[{"path":["score"],"ops":[["explode"]]}]`))
		assert.ErrorIs(t, err, ErrUnknownOpcode)
	})
}

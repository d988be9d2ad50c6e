package imm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	assert.True(t, Equal(sample(), sample()))
	assert.True(t, Equal(NewSeq(), NewSeq()))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(NewMap(), NewSeq()))
	assert.False(t, Equal(1.0, "1"))
	assert.False(t, Equal(sample(), SetIn(sample(), Path{"profile", "age"}, 1)))
}

func TestCompareOrder(t *testing.T) {
	ordered := []Value{
		nil,
		false,
		true,
		-1.0,
		10.0,
		"a",
		"b",
		NewSeq(1.0),
		NewSeq(1.0, 2.0),
		MapOf(map[string]any{"a": 1}),
	}
	for i := 1; i < len(ordered); i++ {
		assert.Equal(t, -1, Compare(ordered[i-1], ordered[i]), "%v < %v", ordered[i-1], ordered[i])
		assert.Equal(t, 1, Compare(ordered[i], ordered[i-1]))
	}
	assert.Equal(t, 0, Compare(sample(), sample()))
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash(sample()), Hash(sample()))
	assert.NotEqual(t, Hash(NewSeq("a", "b")), Hash(NewSeq("ab")))
	assert.NotEqual(t, Hash(1.0), Hash("1"))
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(sample())
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, Equal(sample(), decoded))

	m := &Map{}
	require.NoError(t, json.Unmarshal([]byte(`{"a":[1,{"b":null}]}`), m))
	assert.Nil(t, GetIn(m, Path{"a", 1, "b"}, "default"))
	assert.Equal(t, "default", GetIn(m, Path{"a", 1, "c"}, "default"))
}

package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictOrder(t *testing.T) {
	d := NewDict()
	d.Set("b", 1)
	d.Set("a", 2)
	d.Set("b", 3)
	assert.Equal(t, []string{"b", "a"}, d.Keys())

	v, ok := d.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	d.Delete("b")
	assert.Equal(t, []string{"a"}, d.Keys())
	assert.Equal(t, 1, d.Len())
}

func TestDictAccessors(t *testing.T) {
	d := DictOf(
		"reboot_count", int64(3),
		"operating_time", 12.5,
		"name", "dev",
		"nested", DictOf("x", int64(1)),
	)

	n, err := d.Int("reboot_count")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	f, err := d.Float("reboot_count")
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	_, err = d.Int("operating_time")
	assert.ErrorIs(t, err, ErrKeyType)

	s, err := d.Str("name")
	require.NoError(t, err)
	assert.Equal(t, "dev", s)

	_, err = d.Str("missing")
	assert.ErrorIs(t, err, ErrKeyMissing)

	sub, err := d.Sub("nested")
	require.NoError(t, err)
	assert.True(t, sub.Has("x"))
}

func TestDictAsMap(t *testing.T) {
	d := DictOf("a", int64(1), "b", DictOf("c", []any{DictOf("d", "e")}))
	assert.Equal(t, map[string]any{
		"a": int64(1),
		"b": map[string]any{"c": []any{map[string]any{"d": "e"}}},
	}, d.AsMap())
}

func TestDictEqual(t *testing.T) {
	d := DictOf("a", int64(1), "b", "x")
	assert.True(t, d.Equal(map[string]any{"a": 1, "b": "x"}))
	assert.True(t, d.Equal(DictOf("b", "x", "a", 1.0)))
	assert.False(t, d.Equal(map[string]any{"a": 1}))
	assert.False(t, d.Equal("a"))
}

func TestDictAlmostEqual(t *testing.T) {
	d := DictOf("t", 10.0000001, "n", DictOf("v", 1.0), "s", "x")

	eq, err := d.AlmostEqual(map[string]any{"t": 10.0, "n": map[string]any{"v": 1.0000000001}, "s": "x"}, 1e-7, 0)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = d.AlmostEqual(map[string]any{"t": 11.0, "n": map[string]any{"v": 1.0}, "s": "x"}, 1e-7, 0)
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = d.AlmostEqual(map[string]any{"t": 10.0}, 1e-7, 0)
	require.NoError(t, err)
	assert.False(t, eq, "different key sets")

	_, err = d.AlmostEqual(42, 1e-7, 0)
	assert.Error(t, err)
}

func TestIsClose(t *testing.T) {
	assert.True(t, IsClose(1.0, 1.0, 0, 0))
	assert.True(t, IsClose(100, 101, 0.01, 0))
	assert.False(t, IsClose(100, 102, 0.01, 0))
	assert.True(t, IsClose(0, 0.05, 0, 0.1))
}

func TestDictJSON(t *testing.T) {
	d := DictOf("z", int64(1), "a", []any{"x"})
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":["x"]}`, string(data))

	var back Dict
	require.NoError(t, json.Unmarshal([]byte(`{"z":1,"a":{"q":2.5}}`), &back))
	assert.Equal(t, []string{"z", "a"}, back.Keys())
	sub, err := back.Sub("a")
	require.NoError(t, err)
	f, err := sub.Float("q")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)
}

func TestDictString(t *testing.T) {
	assert.Equal(t, `{"a": 1, "b": x}`, DictOf("a", 1, "b", "x").String())
}

func TestToInt64(t *testing.T) {
	i, ok := ToInt64(3.0)
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)

	_, ok = ToInt64(3.5)
	assert.False(t, ok)

	_, ok = ToInt64("3")
	assert.False(t, ok)
}

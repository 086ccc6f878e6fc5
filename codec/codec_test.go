package codec

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/submux/errors"
)

func TestNew_RejectsDecodeAndReviver(t *testing.T) {
	_, err := New(nil,
		func(data []byte) (any, error) { return nil, nil },
		func(key string, value any) any { return value },
	)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestNew_DefaultsToJSON(t *testing.T) {
	c, err := New(nil, nil, nil)
	require.NoError(t, err)

	data, err := c.Encode(map[string]any{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(data))

	value, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(1)}, value)
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	c := NewJSON()

	tests := []struct {
		name    string
		value   any
		decoded any
	}{
		{"string", "hello", "hello"},
		{"number", 42, float64(42)},
		{"bool", true, true},
		{"nil", nil, nil},
		{"slice", []any{"a", float64(1)}, []any{"a", float64(1)}},
		{"map", map[string]any{"k": "v"}, map[string]any{"k": "v"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := c.Encode(test.value)
			require.NoError(t, err)

			value, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, test.decoded, value)
		})
	}
}

func TestJSONCodec_EncodeFailure(t *testing.T) {
	c := NewJSON()

	_, err := c.Encode(func() {})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestJSONCodec_DecodeFailure(t *testing.T) {
	c := NewJSON()

	_, err := c.Decode([]byte("{{ not json"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestJSONCodec_ReviverTransformsValues(t *testing.T) {
	c := NewJSONWithReviver(func(key string, value any) any {
		if key == "count" {
			if f, ok := value.(float64); ok {
				return int(f)
			}
		}
		return value
	})

	value, err := c.Decode([]byte(`{"count": 3, "label": "x"}`))
	require.NoError(t, err)

	decoded, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, decoded["count"])
	assert.Equal(t, "x", decoded["label"])
}

func TestJSONCodec_ReviverVisitsChildrenFirst(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	c := NewJSONWithReviver(func(key string, value any) any {
		mu.Lock()
		order = append(order, key)
		mu.Unlock()
		return value
	})

	_, err := c.Decode([]byte(`{"outer": {"inner": 1}}`))
	require.NoError(t, err)

	// Bottom-up: leaf, then its container, then the root under "".
	assert.Equal(t, []string{"inner", "outer", ""}, order)
}

func TestJSONCodec_ReviverWalksArrays(t *testing.T) {
	c := NewJSONWithReviver(func(key string, value any) any {
		if f, ok := value.(float64); ok {
			return f * 10
		}
		return value
	})

	value, err := c.Decode([]byte(`[1, 2, 3]`))
	require.NoError(t, err)
	assert.Equal(t, []any{float64(10), float64(20), float64(30)}, value)
}

func TestJSONCodec_ReviverArrayElementsKeyedByIndex(t *testing.T) {
	var keys []string
	c := NewJSONWithReviver(func(key string, value any) any {
		if _, ok := value.(float64); ok {
			keys = append(keys, key)
		}
		return value
	})

	_, err := c.Decode([]byte(`{"items": [10, 20, 30]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, keys)
}

func TestFuncCodec_CustomFunctions(t *testing.T) {
	c := NewFunc(
		func(v any) ([]byte, error) { return []byte(fmt.Sprintf("S:%v", v)), nil },
		func(data []byte) (any, error) { return "D:" + string(data), nil },
	)

	data, err := c.Encode("x")
	require.NoError(t, err)
	assert.Equal(t, []byte("S:x"), data)

	value, err := c.Decode([]byte("y"))
	require.NoError(t, err)
	assert.Equal(t, "D:y", value)
}

func TestFuncCodec_NilFunctionsFallBackToJSON(t *testing.T) {
	c := NewFunc(nil, nil)

	data, err := c.Encode("x")
	require.NoError(t, err)
	assert.Equal(t, `"x"`, string(data))

	value, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "x", value)
}

func TestFuncCodec_WrapsFunctionErrors(t *testing.T) {
	boom := fmt.Errorf("boom")
	c := NewFunc(
		func(v any) ([]byte, error) { return nil, boom },
		func(data []byte) (any, error) { return nil, boom },
	)

	_, err := c.Encode("x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = c.Decode([]byte("y"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

package wire

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequestKeyOrder(t *testing.T) {
	data, err := EncodeRequest(0x6315111b, []any{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"cmd_id":1662325019,"args":[1],"kwargs":{}}`+"\n", string(data))
}

func TestEncodeRequestEmptyContainers(t *testing.T) {
	data, err := Encode(&Request{CmdID: 7})
	require.NoError(t, err)
	assert.Equal(t, `{"cmd_id":7,"args":[],"kwargs":{}}`+"\n", string(data))
}

func TestEncodeRequestKwargs(t *testing.T) {
	data, err := EncodeRequest(1, []any{"SN-1"}, map[string]any{"force": true})
	require.NoError(t, err)
	assert.Equal(t, `{"cmd_id":1,"args":["SN-1"],"kwargs":{"force":true}}`+"\n", string(data))
}

func TestEncodeRequestLargeID(t *testing.T) {
	data, err := EncodeRequest(0x251d1696c, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cmd_id":9962613100`)
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name string
		line string
		typ  string
		data any
	}{
		{"integer", `{"type": "ActiveBus", "data": 1}`, "ActiveBus", int64(1)},
		{"float", `{"type": "float", "data": 21.5}`, "float", 21.5},
		{"string", `{"type": "str", "data": "SN-0001"}`, "str", "SN-0001"},
		{"list", `{"type": "list", "data": [1, "a"]}`, "list", []any{int64(1), "a"}},
		{"null data", `{"type": "None", "data": null}`, "None", nil},
		{"trailing newline", "{\"type\": \"int\", \"data\": 5}\n", "int", int64(5)},
		{"reordered keys", `{"data": 3, "type": "int"}`, "int", int64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse([]byte(tt.line))
			require.NoError(t, err)
			assert.Equal(t, tt.typ, resp.Type)
			assert.Equal(t, tt.data, resp.Data)
		})
	}
}

func TestDecodeResponseMappingKeepsOrder(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"type":"Version","data":{"major":1,"minor":2,"patch":0,"build":7}}`))
	require.NoError(t, err)

	d, ok := resp.Data.(*Dict)
	require.True(t, ok, "data should decode as *Dict, got %T", resp.Data)
	assert.Equal(t, []string{"major", "minor", "patch", "build"}, d.Keys())

	minor, err := d.Int("minor")
	require.NoError(t, err)
	assert.Equal(t, int64(2), minor)
}

func TestDecodeResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ``},
		{"not json", `closing`},
		{"truncated", `{"type": "int", "data": `},
		{"missing type", `{"data": 1}`},
		{"missing data", `{"type": "int"}`},
		{"type not string", `{"type": 1, "data": 1}`},
		{"not an object", `[1, 2]`},
		{"two objects", `{"type":"int","data":1}{"type":"int","data":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse([]byte(tt.line))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse), "expected ErrParse, got %v", err)
		})
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"cmd_id": 6709550172, "args": ["SN-42"], "kwargs": {"note": "x"}}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x18feb9c5c), req.CmdID)
	assert.Equal(t, []any{"SN-42"}, req.Args)
	assert.Equal(t, map[string]any{"note": "x"}, req.Kwargs)
}

func TestDecodeRequestDefaults(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"cmd_id": 3806007876}`))
	require.NoError(t, err)
	assert.Empty(t, req.Args)
	assert.Empty(t, req.Kwargs)
}

func TestDecodeRequestErrors(t *testing.T) {
	for _, line := range []string{
		`{"args": []}`,
		`{"cmd_id": "x"}`,
		`{"cmd_id": -1}`,
		`{"cmd_id": 1.5}`,
		`{"cmd_id": 1, "args": {}}`,
		`{"cmd_id": 1, "kwargs": []}`,
	} {
		_, err := DecodeRequest([]byte(line))
		assert.ErrorIs(t, err, ErrParse, line)
	}
}

// Encoding a call and decoding it on the device side reproduces the
// original arguments.
func TestRequestEchoRoundTrip(t *testing.T) {
	args := []any{int64(1), 2.5, 2.0, "reserve", true, nil, []any{int64(1), "x", 1e21}}
	kwargs := map[string]any{"when": 1.7e9, "label": "bench", "scale": 1.25}

	data, err := EncodeRequest(42, args, kwargs)
	require.NoError(t, err)

	req, err := DecodeRequest(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), req.CmdID)
	assert.Equal(t, args, req.Args)
	assert.Equal(t, kwargs, req.Kwargs)
}

func TestEncodeRequestKeepsIntegralFloats(t *testing.T) {
	data, err := EncodeRequest(1, []any{1.7e9, int64(3), float32(2)}, map[string]any{"t": 2.0})
	require.NoError(t, err)
	assert.Equal(t, `{"cmd_id":1,"args":[1700000000.0,3,2.0],"kwargs":{"t":2.0}}`+"\n", string(data))
}

func TestEncodeResponseKeepsIntegralFloats(t *testing.T) {
	data, err := EncodeResponse(&Response{
		Type: "OperatingTimeInfo",
		Data: DictOf("reboot_count", int64(1), "operating_time", 12.0),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"OperatingTimeInfo","data":{"reboot_count":1,"operating_time":12.0}}`+"\n", string(data))

	resp, err := DecodeResponse(data)
	require.NoError(t, err)
	d := resp.Data.(*Dict)
	v, _ := d.Get("operating_time")
	assert.Equal(t, 12.0, v)
}

func TestFloatMarshalRejectsNaN(t *testing.T) {
	_, err := EncodeRequest(1, []any{math.NaN()}, nil)
	assert.Error(t, err)
}

func TestEncodeResponse(t *testing.T) {
	data, err := EncodeResponse(&Response{
		Type: "Version",
		Data: DictOf("major", 1, "minor", 2, "patch", 0, "build", 7),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"Version","data":{"major":1,"minor":2,"patch":0,"build":7}}`+"\n", string(data))
}

func TestResponseString(t *testing.T) {
	r := &Response{Type: "consumption", Data: int64(5)}
	assert.Equal(t, "{type: consumption, data: 5}", r.String())
	assert.True(t, r.Equal(&Response{Type: "consumption", Data: 5}))
	assert.False(t, r.Equal(&Response{Type: "consumption", Data: 6}))
}

func TestDecodeValueLargeUnsigned(t *testing.T) {
	v, err := DecodeValue([]byte(`18446744073709551615`))
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), v)
}

package wire

import (
	"encoding/json"
	"fmt"
)

// Request keys, in wire order.
const (
	KeyCmdID  = "cmd_id"
	KeyArgs   = "args"
	KeyKwargs = "kwargs"
)

// Response keys.
const (
	KeyType = "type"
	KeyData = "data"
)

// Request is a single command invocation sent to the device.
//
// JSON encoding:
//
//	{
//	  "cmd_id": <integer>,
//	  "args":   [<value>...],
//	  "kwargs": {<name>: <value>}
//	}
type Request struct {
	CmdID  uint64         `json:"cmd_id"`
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// NewRequest creates a request with non-nil argument containers.
func NewRequest(cmdID uint64, args []any, kwargs map[string]any) *Request {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return &Request{CmdID: cmdID, Args: args, Kwargs: kwargs}
}

// MarshalJSON keeps the key order stable, never emits null containers and
// keeps float arguments as JSON floats.
func (r Request) MarshalJSON() ([]byte, error) {
	type plain Request
	p := plain(r)
	p.Args = []any{}
	if r.Args != nil {
		p.Args = keepFloats(r.Args).([]any)
	}
	p.Kwargs = map[string]any{}
	if r.Kwargs != nil {
		p.Kwargs = keepFloats(r.Kwargs).(map[string]any)
	}
	return json.Marshal(p)
}

// Response is a single reply received from the device.
//
// JSON encoding:
//
//	{
//	  "type": <string>,
//	  "data": <integer|float|string|list|object>
//	}
//
// A *Response is also the fallback value returned when a reply cannot be
// materialized into a typed value.
type Response struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// MarshalJSON encodes the response, keeping float data as JSON floats.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	p := plain(r)
	p.Data = keepFloats(r.Data)
	return json.Marshal(p)
}

// String renders the response as {type: T, data: D}.
func (r *Response) String() string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("{type: %s, data: %v}", r.Type, r.Data)
}

// Equal reports whether two responses carry the same tag and data.
func (r *Response) Equal(other *Response) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Type == other.Type && ValuesEqual(r.Data, other.Data)
}

package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// LineTerminator ends every request and response on the wire.
const LineTerminator = '\n'

// ErrParse indicates a payload that is not valid JSON or lacks a required key.
var ErrParse = errors.New("parse error")

// EncodeRequest encodes a command invocation as a newline-terminated JSON line.
func EncodeRequest(cmdID uint64, args []any, kwargs map[string]any) ([]byte, error) {
	return Encode(NewRequest(cmdID, args, kwargs))
}

// Encode encodes a request as a newline-terminated JSON line.
func Encode(req *Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return append(data, LineTerminator), nil
}

// EncodeResponse encodes a response as a newline-terminated JSON line.
func EncodeResponse(resp *Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return append(data, LineTerminator), nil
}

// DecodeResponse parses a response line and extracts the type tag and data.
func DecodeResponse(data []byte) (*Response, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	rawType, ok := obj.Get(KeyType)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q key", ErrParse, KeyType)
	}
	tag, ok := rawType.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a string, got %T", ErrParse, KeyType, rawType)
	}
	payload, ok := obj.Get(KeyData)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q key", ErrParse, KeyData)
	}

	return &Response{Type: tag, Data: payload}, nil
}

// DecodeRequest parses a request line. Missing args or kwargs decode as empty.
func DecodeRequest(data []byte) (*Request, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	rawID, ok := obj.Get(KeyCmdID)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q key", ErrParse, KeyCmdID)
	}
	var cmdID uint64
	switch v := rawID.(type) {
	case int64:
		if v < 0 {
			return nil, fmt.Errorf("%w: negative %q: %d", ErrParse, KeyCmdID, v)
		}
		cmdID = uint64(v)
	case uint64:
		cmdID = v
	default:
		return nil, fmt.Errorf("%w: %q must be an integer, got %T", ErrParse, KeyCmdID, rawID)
	}

	req := NewRequest(cmdID, nil, nil)
	if rawArgs, ok := obj.Get(KeyArgs); ok && rawArgs != nil {
		args, ok := rawArgs.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q must be a list, got %T", ErrParse, KeyArgs, rawArgs)
		}
		req.Args = args
	}
	if rawKwargs, ok := obj.Get(KeyKwargs); ok && rawKwargs != nil {
		kwargs, ok := rawKwargs.(*Dict)
		if !ok {
			return nil, fmt.Errorf("%w: %q must be an object, got %T", ErrParse, KeyKwargs, rawKwargs)
		}
		for _, k := range kwargs.Keys() {
			v, _ := kwargs.Get(k)
			req.Kwargs[k] = v
		}
	}

	return req, nil
}

// DecodeValue decodes a single JSON value using the package number and
// object rules.
func DecodeValue(data []byte) (any, error) {
	dec := newDecoder(data)
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	return v, nil
}

func newDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}

// decodeObject decodes a top-level JSON object.
func decodeObject(data []byte) (*Dict, error) {
	dec := newDecoder(data)
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	obj, ok := v.(*Dict)
	if !ok {
		return nil, fmt.Errorf("%w: expected JSON object, got %T", ErrParse, v)
	}
	return obj, nil
}

func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after JSON value", ErrParse)
	}
	return nil
}

// decodeValue walks the token stream so that object key order survives.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewDict()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string, got %T", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			list := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		return normalizeNumber(t)
	default:
		// string, bool, nil
		return t, nil
	}
}

// normalizeNumber maps integral numbers to int64 (uint64 when they exceed
// the signed range) and everything else to float64.
func normalizeNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", n.String())
	}
	return f, nil
}

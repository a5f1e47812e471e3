package wire

import (
	"bytes"
	"encoding/json"
)

// Float is a float64 that always encodes with a fraction or exponent, so
// that 2.0 reaches the peer as 2.0 and decodes back as a float.
type Float float64

// MarshalJSON encodes f like encoding/json and appends ".0" to integral
// values.
func (f Float) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(float64(f))
	if err != nil {
		return nil, err
	}
	if !bytes.ContainsAny(b, ".eE") {
		b = append(b, '.', '0')
	}
	return b, nil
}

// keepFloats returns v with every float64 and float32 inside slices, maps
// and Dicts wrapped as Float. Containers are copied; v is not modified.
func keepFloats(v any) any {
	switch t := v.(type) {
	case float64:
		return Float(t)
	case float32:
		return Float(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = keepFloats(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = keepFloats(e)
		}
		return out
	default:
		// *Dict applies keepFloats in its own MarshalJSON.
		return v
	}
}

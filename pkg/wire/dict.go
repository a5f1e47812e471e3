package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
)

// Dict access errors.
var (
	// ErrKeyMissing is returned when a key is not present.
	ErrKeyMissing = errors.New("key missing")

	// ErrKeyType is returned when a value has an unexpected type.
	ErrKeyType = errors.New("unexpected value type")
)

// Dict is an ordered string-keyed mapping. It is the decoded form of every
// JSON object on the wire and the generic value for telemetry payloads that
// have no dedicated record type.
//
// The zero value is not usable; create one with NewDict or DictOf.
type Dict struct {
	keys   []string
	values map[string]any
}

// NewDict creates an empty Dict.
func NewDict() *Dict {
	return &Dict{values: make(map[string]any)}
}

// DictOf builds a Dict from alternating key/value pairs.
// It panics if a key is not a string or the pair count is odd.
func DictOf(pairs ...any) *Dict {
	if len(pairs)%2 != 0 {
		panic("wire.DictOf: odd number of arguments")
	}
	d := NewDict()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("wire.DictOf: key %d is %T, not string", i/2, pairs[i]))
		}
		d.Set(key, pairs[i+1])
	}
	return d
}

// DictFromMap converts a plain map into a Dict. Keys are sorted since map
// iteration order is undefined. Nested maps are converted too.
func DictFromMap(m map[string]any) *Dict {
	d := NewDict()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		v := m[k]
		if nested, ok := v.(map[string]any); ok {
			v = DictFromMap(nested)
		}
		d.Set(k, v)
	}
	return d
}

// Set stores value under key, keeping the original position of an existing key.
func (d *Dict) Set(key string, value any) {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Delete removes key.
func (d *Dict) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Int returns the value under key as an int64.
func (d *Dict) Int(key string) (int64, error) {
	v, ok := d.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrKeyMissing, key)
	}
	i, ok := ToInt64(v)
	if !ok {
		return 0, fmt.Errorf("%w: %q is %T, want integer", ErrKeyType, key, v)
	}
	return i, nil
}

// Float returns the value under key as a float64.
func (d *Dict) Float(key string) (float64, error) {
	v, ok := d.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrKeyMissing, key)
	}
	f, ok := ToFloat64(v)
	if !ok {
		return 0, fmt.Errorf("%w: %q is %T, want number", ErrKeyType, key, v)
	}
	return f, nil
}

// Str returns the value under key as a string.
func (d *Dict) Str(key string) (string, error) {
	v, ok := d.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrKeyMissing, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, want string", ErrKeyType, key, v)
	}
	return s, nil
}

// Sub returns the nested Dict under key.
func (d *Dict) Sub(key string) (*Dict, error) {
	v, ok := d.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyMissing, key)
	}
	sub, ok := v.(*Dict)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, want object", ErrKeyType, key, v)
	}
	return sub, nil
}

// Copy returns a shallow copy.
func (d *Dict) Copy() *Dict {
	out := NewDict()
	for _, k := range d.keys {
		out.Set(k, d.values[k])
	}
	return out
}

// AsMap converts the Dict (recursively) into plain maps.
func (d *Dict) AsMap() map[string]any {
	out := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		out[k] = Plain(d.values[k])
	}
	return out
}

// Plain converts decoded values into CBOR- and fmt-friendly plain maps and
// slices.
func Plain(v any) any {
	switch t := v.(type) {
	case *Dict:
		return t.AsMap()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}
		return out
	default:
		return v
	}
}

// Equal compares against another *Dict or a map[string]any. Numbers compare
// by value regardless of their Go type.
func (d *Dict) Equal(other any) bool {
	return ValuesEqual(d, other)
}

// AlmostEqual compares against another *Dict or map[string]any with the
// same keys, treating numeric values as equal when they are within
// max(relTol*max(|a|, |b|), absTol) of each other. Nested objects are
// compared recursively. Comparing against anything that is not an object
// is an error.
func (d *Dict) AlmostEqual(other any, relTol, absTol float64) (bool, error) {
	o, ok := asDict(other)
	if !ok {
		return false, fmt.Errorf("cannot compare %T with Dict", other)
	}
	if !sameKeys(d, o) {
		return false, nil
	}
	for _, k := range d.keys {
		a := d.values[k]
		b, _ := o.Get(k)

		af, aNum := ToFloat64(a)
		bf, bNum := ToFloat64(b)
		switch {
		case aNum && bNum:
			if !IsClose(af, bf, relTol, absTol) {
				return false, nil
			}
		case isObject(a):
			sub, _ := asDict(a)
			eq, err := sub.AlmostEqual(b, relTol, absTol)
			if err != nil || !eq {
				return false, err
			}
		default:
			if !ValuesEqual(a, b) {
				return false, nil
			}
		}
	}
	return true, nil
}

// IsClose reports whether a and b are within tolerance of each other.
func IsClose(a, b, relTol, absTol float64) bool {
	if a == b {
		return true
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}
	diff := math.Abs(a - b)
	return diff <= math.Max(relTol*math.Max(math.Abs(a), math.Abs(b)), absTol)
}

// String renders the Dict as {"k": v, ...} in key order.
func (d *Dict) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %v", k, d.values[k])
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the Dict with its keys in insertion order.
func (d *Dict) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(keepFloats(d.values[k]))
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.
func (d *Dict) UnmarshalJSON(data []byte) error {
	obj, err := decodeObject(data)
	if err != nil {
		return err
	}
	*d = *obj
	return nil
}

// ToInt64 converts integral numeric values to int64. Floats are accepted
// only when they carry no fractional part.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		if float32(int64(n)) != n {
			return 0, false
		}
		return int64(n), true
	case float64:
		if float64(int64(n)) != n {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// ToFloat64 converts any numeric value to float64.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ValuesEqual compares two decoded values. Numbers compare by value, objects
// by key set and values (order-insensitive), lists element-wise.
func ValuesEqual(a, b any) bool {
	if af, ok := ToFloat64(a); ok {
		bf, ok := ToFloat64(b)
		return ok && af == bf
	}
	if isObject(a) || isObject(b) {
		ad, aok := asDict(a)
		bd, bok := asDict(b)
		if !aok || !bok || !sameKeys(ad, bd) {
			return false
		}
		for _, k := range ad.keys {
			bv, _ := bd.Get(k)
			if !ValuesEqual(ad.values[k], bv) {
				return false
			}
		}
		return true
	}
	al, aList := a.([]any)
	bl, bList := b.([]any)
	if aList && bList {
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !ValuesEqual(al[i], bl[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func isObject(v any) bool {
	switch v.(type) {
	case *Dict, map[string]any:
		return true
	}
	return false
}

func asDict(v any) (*Dict, bool) {
	switch t := v.(type) {
	case *Dict:
		return t, t != nil
	case map[string]any:
		return DictFromMap(t), true
	}
	return nil, false
}

func sameKeys(a, b *Dict) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, k := range a.keys {
		if !b.Has(k) {
			return false
		}
	}
	return true
}

package device

import (
	"fmt"
	"slices"
	"strings"

	"github.com/linectl/linectl-go/pkg/wire"
)

// Fields binds response data to record fields. Mapping data binds by
// name; scalar data binds positionally to the first field requested.
// Errors are sticky: after the first failure every accessor returns the
// zero value and Err reports the failure.
type Fields struct {
	named      *wire.Dict
	positional []any
	used       []string
	err        error
}

func newFields(data any) *Fields {
	if d, ok := data.(*wire.Dict); ok {
		return &Fields{named: d}
	}
	return &Fields{positional: []any{data}}
}

func (f *Fields) take(name string) (any, bool) {
	if f.err != nil {
		return nil, false
	}
	f.used = append(f.used, name)
	if f.named != nil {
		v, ok := f.named.Get(name)
		if !ok {
			f.err = fmt.Errorf("%w: missing field %q", ErrConstruction, name)
		}
		return v, ok
	}
	if len(f.positional) == 0 {
		f.err = fmt.Errorf("%w: missing positional value for %q", ErrConstruction, name)
		return nil, false
	}
	v := f.positional[0]
	f.positional = f.positional[1:]
	return v, true
}

// Int returns an integral field.
func (f *Fields) Int(name string) int64 {
	v, ok := f.take(name)
	if !ok {
		return 0
	}
	n, ok := wire.ToInt64(v)
	if !ok {
		f.err = fmt.Errorf("%w: field %q: want int, got %T", ErrConstruction, name, v)
	}
	return n
}

// Float returns a numeric field.
func (f *Fields) Float(name string) float64 {
	v, ok := f.take(name)
	if !ok {
		return 0
	}
	x, ok := wire.ToFloat64(v)
	if !ok {
		f.err = fmt.Errorf("%w: field %q: want float, got %T", ErrConstruction, name, v)
	}
	return x
}

// Str returns a string field.
func (f *Fields) Str(name string) string {
	v, ok := f.take(name)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.err = fmt.Errorf("%w: field %q: want str, got %T", ErrConstruction, name, v)
	}
	return s
}

// Value returns a field without conversion.
func (f *Fields) Value(name string) any {
	v, _ := f.take(name)
	return v
}

// Err returns the first binding error, or an error naming fields present
// in the data that no accessor consumed.
func (f *Fields) Err() error {
	if f.err != nil {
		return f.err
	}
	if len(f.positional) > 0 {
		return fmt.Errorf("%w: %d unexpected positional values", ErrConstruction, len(f.positional))
	}
	if f.named == nil {
		return nil
	}
	var extra []string
	for _, k := range f.named.Keys() {
		if !slices.Contains(f.used, k) {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		return fmt.Errorf("%w: unexpected fields %s", ErrConstruction, strings.Join(extra, ", "))
	}
	return nil
}

// RecordConstructor builds a Constructor for a record type. build reads
// fields from f in declaration order.
func RecordConstructor[T any](build func(f *Fields) T) Constructor {
	return func(data any) (any, error) {
		f := newFields(data)
		v := build(f)
		if err := f.Err(); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// EnumConstructor builds a Constructor for an integer enum. valid reports
// whether a value is a declared member.
func EnumConstructor[T ~int64](name string, valid func(T) bool) Constructor {
	return func(data any) (any, error) {
		n, ok := wire.ToInt64(data)
		if !ok {
			return nil, fmt.Errorf("%w: %s from %T", ErrConstruction, name, data)
		}
		v := T(n)
		if !valid(v) {
			return nil, fmt.Errorf("%w: %d is not a valid %s", ErrConstruction, n, name)
		}
		return v, nil
	}
}

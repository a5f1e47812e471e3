package runner

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/linectl/linectl-go/internal/testharness/engine"
	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/device"
	"github.com/linectl/linectl-go/pkg/wire"
)

// Describe turns a materialized reply into step outputs.
//
// Enums report their name as the value and their number as "code".
// Records and dicts report their members as "fields" and as the value.
// An envelope reports its data as the value and its tag as the type.
func Describe(v any) map[string]any {
	out := map[string]any{
		engine.KeyRaw:      v,
		engine.KeyEnvelope: false,
	}

	switch t := v.(type) {
	case *wire.Response:
		out[engine.KeyEnvelope] = true
		out[engine.KeyType] = t.Type
		out[engine.KeyValue] = wire.Plain(t.Data)
		if d, ok := t.Data.(*wire.Dict); ok {
			out[engine.KeyFields] = d.AsMap()
		}
	case catalog.ResultCode:
		out[engine.KeyType] = catalog.TagResultCode
		out[engine.KeyValue] = t.String()
		out["code"] = int64(t)
		out["success"] = t.IsSuccess()
	case catalog.ActiveBus:
		out[engine.KeyType] = catalog.TagActiveBus
		out[engine.KeyValue] = t.String()
		out["code"] = int64(t)
	case *wire.Dict:
		fields := t.AsMap()
		out[engine.KeyType] = device.TagDict
		out[engine.KeyFields] = fields
		out[engine.KeyValue] = fields
	case int64, float64, string, nil:
		out[engine.KeyType] = primitiveTag(v)
		out[engine.KeyValue] = v
	case []any:
		out[engine.KeyType] = device.TagList
		out[engine.KeyValue] = wire.Plain(t)
	default:
		out[engine.KeyType] = reflect.TypeOf(v).Name()
		if fields, err := recordFields(v); err == nil {
			out[engine.KeyFields] = fields
			out[engine.KeyValue] = fields
		} else {
			out[engine.KeyValue] = v
		}
		if s, ok := v.(fmt.Stringer); ok {
			out["text"] = s.String()
		}
	}
	return out
}

func primitiveTag(v any) string {
	switch v.(type) {
	case int64:
		return device.TagInt
	case float64:
		return device.TagFloat
	case string:
		return device.TagStr
	}
	return "None"
}

// recordFields flattens a record struct through its yaml tags.
func recordFields(v any) (map[string]any, error) {
	if reflect.ValueOf(v).Kind() != reflect.Struct {
		return nil, fmt.Errorf("%T is not a record", v)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

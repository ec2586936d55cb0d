package message

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// transportKeys are top-level fields holding live connection handles.
var transportKeys = []string{"req", "res", "socket"}

var (
	cloneEncMode cbor.EncMode
	cloneDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortNone,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	cloneEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create clone CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:      cbor.DupMapKeyQuiet,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}
	cloneDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create clone CBOR decoder mode: %v", err))
	}
}

// Sanitize returns a deep copy of m that is safe to serialize and keep
// across a restart. Transport handles are removed. Sanitize never fails: if
// the message cannot be encoded it falls back to a structural copy that
// drops unsupported values, and finally to an empty message.
func Sanitize(m Message) (out Message) {
	if m == nil {
		return Message{}
	}

	stripped := make(map[string]any, len(m))
	for k, v := range m {
		stripped[k] = v
	}
	for _, k := range transportKeys {
		delete(stripped, k)
	}

	if clone, err := cborClone(stripped); err == nil {
		return clone
	}

	defer func() {
		if r := recover(); r != nil {
			out = Message{}
		}
	}()
	if copied, ok := structuralCopy(stripped).(map[string]any); ok {
		return Message(copied)
	}
	return Message{}
}

func cborClone(m map[string]any) (Message, error) {
	data, err := cloneEncMode.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := cloneDecMode.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return Message(out), nil
}

// structuralCopy deep-copies maps and slices, keeps scalar values and drops
// anything that cannot be serialized.
func structuralCopy(v any) any {
	switch t := v.(type) {
	case nil, bool, string, float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return t
	case Message:
		return structuralCopy(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if c := structuralCopy(val); c != nil || val == nil {
				out[k] = c
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			out = append(out, structuralCopy(val))
		}
		return out
	case []byte:
		return append([]byte(nil), t...)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if c := structuralCopy(iter.Value().Interface()); c != nil {
				out[iter.Key().String()] = c
			}
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, structuralCopy(rv.Index(i).Interface()))
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return structuralCopy(rv.Elem().Interface())
	}
	return nil
}

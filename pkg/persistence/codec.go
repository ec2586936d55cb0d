package persistence

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/mash-protocol/valuefor/pkg/message"
)

// Codec encodes records for a FileStore.
type Codec interface {
	Marshal(rec *Record) ([]byte, error)
	Unmarshal(data []byte, rec *Record) error

	// Ext is the file extension, including the dot.
	Ext() string
}

// JSONCodec stores records as indented JSON. Infinite numbers, which JSON
// cannot represent, are written as the strings "Infinity" and "-Infinity".
type JSONCodec struct{}

// jsonRecord shadows the fields that may hold non-finite floats.
type jsonRecord struct {
	Record
	Message   map[string]any `json:"message"`
	LastValue *jsonFloat     `json:"last_value,omitempty"`
}

func (JSONCodec) Marshal(rec *Record) ([]byte, error) {
	out := jsonRecord{Record: *rec}
	if rec.Message != nil {
		out.Message = jsonSafe(map[string]any(rec.Message)).(map[string]any)
	}
	if rec.LastValue != nil && !math.IsNaN(*rec.LastValue) {
		v := jsonFloat(*rec.LastValue)
		out.LastValue = &v
	}
	return json.MarshalIndent(out, "", "  ")
}

func (JSONCodec) Unmarshal(data []byte, rec *Record) error {
	var in jsonRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*rec = in.Record
	rec.Message = in.Message
	rec.LastValue = nil
	if in.LastValue != nil {
		v := float64(*in.LastValue)
		rec.LastValue = &v
	}
	return nil
}

// jsonFloat encodes infinities as strings and decodes them back.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(v):
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}
		*f = jsonFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

// jsonSafe copies v, replacing non-finite floats with jsonFloat. Inside a
// message they come back as strings, which message.Number still reads.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return jsonFloat(t)
		}
	case float32:
		if f := float64(t); math.IsInf(f, 0) || math.IsNaN(f) {
			return jsonFloat(f)
		}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = jsonSafe(e)
		}
		return out
	case message.Message:
		return jsonSafe(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonSafe(e)
		}
		return out
	}
	return v
}

func (JSONCodec) Ext() string { return ".json" }

var (
	recordEncMode cbor.EncMode
	recordDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	recordEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:      cbor.DupMapKeyQuiet,
		IndefLength:    cbor.IndefLengthAllowed,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}
	recordDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record CBOR decoder mode: %v", err))
	}
}

// CBORCodec stores records as CBOR with integer keys.
type CBORCodec struct{}

func (CBORCodec) Marshal(rec *Record) ([]byte, error) {
	return recordEncMode.Marshal(rec)
}

func (CBORCodec) Unmarshal(data []byte, rec *Record) error {
	return recordDecMode.Unmarshal(data, rec)
}

func (CBORCodec) Ext() string { return ".cbor" }

// CodecByName returns the codec for "json" (the default when empty) or "cbor".
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSONCodec{}, nil
	case "cbor":
		return CBORCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

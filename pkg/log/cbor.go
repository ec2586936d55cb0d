package log

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// ErrUnknownEventType is returned when a decoded event carries a type this
// build does not know.
var ErrUnknownEventType = errors.New("unknown event type")

// Decode limits for captured messages read back from event files.
const (
	maxMessageNesting = 32
	maxMessagePairs   = 4096
)

// CBOR modes of the event trail. Times keep nanosecond precision and floats
// use the shortest lossless width.
var eventEnc, eventDec = mustEventModes()

func mustEventModes() (cbor.EncMode, cbor.DecMode) {
	enc, err := cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		ShortestFloat: cbor.ShortestFloat16,
		Time:          cbor.TimeRFC3339Nano,
		NilContainers: cbor.NilContainerAsNull,
		IndefLength:   cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("event log: encoder mode: %v", err))
	}

	dec, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyQuiet,
		IndefLength:     cbor.IndefLengthAllowed,
		MaxNestedLevels: maxMessageNesting,
		MaxMapPairs:     maxMessagePairs,
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("event log: decoder mode: %v", err))
	}
	return enc, dec
}

// EncodeEvent encodes one event as a CBOR map with integer keys.
func EncodeEvent(event Event) ([]byte, error) {
	return eventEnc.Marshal(event)
}

// DecodeEvent decodes one event and checks its type.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDec.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	if err := checkType(event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns an encoder appending events to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return eventEnc.NewEncoder(w)
}

// EventDecoder reads back-to-back events from a stream.
type EventDecoder struct {
	dec *cbor.Decoder
}

// NewDecoder returns a decoder reading events from r.
func NewDecoder(r io.Reader) *EventDecoder {
	return &EventDecoder{dec: eventDec.NewDecoder(r)}
}

// Decode reads the next event. It returns io.EOF at the end of the stream.
func (d *EventDecoder) Decode(event *Event) error {
	if err := d.dec.Decode(event); err != nil {
		return err
	}
	return checkType(*event)
}

func checkType(event Event) error {
	if event.Type > EventPersistError {
		return fmt.Errorf("%w: %d", ErrUnknownEventType, event.Type)
	}
	return nil
}

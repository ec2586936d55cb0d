package log

import (
	"strings"
	"time"
)

//go:generate stringer -type=EventType -trimprefix=Event

// EventType classifies a trigger event.
type EventType uint8

const (
	// EventArmed: a value entered the range and a deadline started.
	EventArmed EventType = iota
	// EventRefreshed: a value stayed in range while a deadline was pending.
	EventRefreshed
	// EventCancelled: the pending deadline was cancelled.
	EventCancelled
	// EventFired: the deadline elapsed and the captured message was sent.
	EventFired
	// EventRestored: a pending deadline was resumed after a restart.
	EventRestored
	// EventExpired: a persisted deadline passed while the process was down.
	EventExpired
	// EventPersistError: reading or writing trigger state failed.
	EventPersistError
)

// ParseEventType parses an event type name, ignoring case.
func ParseEventType(s string) (EventType, bool) {
	for t := EventArmed; t <= EventPersistError; t++ {
		if strings.EqualFold(t.String(), s) {
			return t, true
		}
	}
	return 0, false
}

// Event is one trigger event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// NodeID identifies the trigger instance.
	NodeID string `cbor:"2,keyasint"`

	// Type classifies the event.
	Type EventType `cbor:"3,keyasint"`

	// Value is the numeric value that caused the event, if any.
	Value *float64 `cbor:"4,keyasint,omitempty"`

	// Expiry is the deadline involved, if any.
	Expiry *time.Time `cbor:"5,keyasint,omitempty"`

	// Policy is the expired-state policy applied (EventExpired only).
	Policy string `cbor:"6,keyasint,omitempty"`

	// Message is a sanitized copy of the message emitted or captured.
	Message map[string]any `cbor:"7,keyasint,omitempty"`

	// Error describes a failure (EventPersistError only).
	Error string `cbor:"8,keyasint,omitempty"`
}

package persistence

import (
	"errors"
	"time"

	"github.com/mash-protocol/valuefor/pkg/message"
)

// RecordVersion is the current version of the record format.
const RecordVersion = 1

// Persistence errors.
var (
	ErrEmptyKey       = errors.New("empty record key")
	ErrNilRecord      = errors.New("nil record")
	ErrUnknownStore   = errors.New("unknown store")
	ErrUnknownCodec   = errors.New("unknown codec")
	ErrDuplicateStore = errors.New("duplicate store")
)

// Record is the persisted state of a pending deadline.
type Record struct {
	// Version is the record format version.
	Version int `json:"version" cbor:"1,keyasint"`

	// SavedAt is when the record was last written.
	SavedAt time.Time `json:"saved_at" cbor:"2,keyasint"`

	// Expiry is the wall-clock time the deadline is due.
	Expiry time.Time `json:"expiry" cbor:"3,keyasint"`

	// Message is a sanitized copy of the captured message.
	Message message.Message `json:"message" cbor:"4,keyasint"`

	// LastValue is the last numeric value observed.
	LastValue *float64 `json:"last_value,omitempty" cbor:"5,keyasint,omitempty"`
}

// Valid reports whether the record describes a pending deadline.
func (r *Record) Valid() bool {
	return r != nil && !r.Expiry.IsZero() && r.Message != nil
}

// Repository loads and stores records by key. Implementations must be safe
// for concurrent use.
type Repository interface {
	// Load returns the record for key, or nil, nil if there is none.
	Load(key string) (*Record, error)

	// Save writes rec under key, replacing any previous record.
	Save(key string, rec *Record) error

	// Delete removes the record for key. Deleting a missing key is not an error.
	Delete(key string) error
}

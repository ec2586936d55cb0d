package rangefor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mash-protocol/valuefor/pkg/message"
)

// Configuration errors.
var (
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrInvalidField    = errors.New("invalid field path")
	ErrUnknownPolicy   = errors.New("unknown expired policy")
	ErrNoEmitter       = errors.New("emitter is required")
	ErrEmptyID         = errors.New("node id is required")
)

// ExpiredPolicy decides what happens to a persisted deadline that passed
// while the process was not running.
type ExpiredPolicy uint8

const (
	// ExpiredIgnore drops the stored state without emitting.
	ExpiredIgnore ExpiredPolicy = iota

	// ExpiredSend emits the stored message as if it fired on time.
	ExpiredSend

	// ExpiredFlag emits the stored message marked as expired.
	ExpiredFlag
)

// String returns the configuration spelling of the policy.
func (p ExpiredPolicy) String() string {
	switch p {
	case ExpiredIgnore:
		return "ignore"
	case ExpiredSend:
		return "send"
	case ExpiredFlag:
		return "flag"
	default:
		return "UNKNOWN"
	}
}

// ParseExpiredPolicy parses a policy name. An empty name means ignore.
func ParseExpiredPolicy(s string) (ExpiredPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return ExpiredIgnore, nil
	case "send":
		return ExpiredSend, nil
	case "flag":
		return ExpiredFlag, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p ExpiredPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ExpiredPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseExpiredPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Config is the immutable configuration of a Node.
type Config struct {
	// Duration is how long the value must stay in range.
	Duration time.Duration

	// Field is the message path holding the value. Defaults to payload.
	Field string

	// Range is the condition the value must satisfy.
	Range Range

	// KeepFirstMessage emits the first in-range message of a run instead
	// of the latest.
	KeepFirstMessage bool

	// Continuous keeps emitting every Duration until the value leaves the range.
	Continuous bool

	// Expired is applied to deadlines that passed during downtime.
	Expired ExpiredPolicy
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, c.Duration)
	}
	if c.Field != "" {
		if err := message.ValidatePath(c.Field); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidField, err)
		}
	}
	if c.Expired > ExpiredFlag {
		return fmt.Errorf("%w: %d", ErrUnknownPolicy, c.Expired)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Field == "" {
		c.Field = message.DefaultField
	}
	return c
}

package duration

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Duration errors.
var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrUnknownUnit     = errors.New("unknown duration unit")
)

// MaxDuration is the largest window that can be configured.
const MaxDuration = 365 * 24 * time.Hour

// Unit is the unit a duration amount is expressed in.
type Unit uint8

const (
	// UnitSeconds is the default unit.
	UnitSeconds Unit = iota
	// UnitMilliseconds is milliseconds.
	UnitMilliseconds
	// UnitMinutes is minutes.
	UnitMinutes
	// UnitHours is hours.
	UnitHours
)

// String returns the configuration spelling of the unit.
func (u Unit) String() string {
	switch u {
	case UnitSeconds:
		return "s"
	case UnitMilliseconds:
		return "ms"
	case UnitMinutes:
		return "min"
	case UnitHours:
		return "hr"
	default:
		return "UNKNOWN"
	}
}

// Base returns the length of one unit.
func (u Unit) Base() time.Duration {
	switch u {
	case UnitMilliseconds:
		return time.Millisecond
	case UnitMinutes:
		return time.Minute
	case UnitHours:
		return time.Hour
	default:
		return time.Second
	}
}

// ParseUnit parses a unit name. Common long forms are accepted.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "s", "sec", "second", "seconds":
		return UnitSeconds, nil
	case "ms", "millisecond", "milliseconds":
		return UnitMilliseconds, nil
	case "m", "min", "mins", "minute", "minutes":
		return UnitMinutes, nil
	case "h", "hr", "hrs", "hour", "hours":
		return UnitHours, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Normalize converts amount in unit to a time.Duration, rounded to the
// nearest millisecond. The result must be positive and at most MaxDuration.
func Normalize(amount float64, unit Unit) (time.Duration, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, fmt.Errorf("%w: %v %s", ErrInvalidDuration, amount, unit)
	}

	ms := math.Round(amount * float64(unit.Base()/time.Millisecond))
	if ms < 1 {
		return 0, fmt.Errorf("%w: %v %s is below one millisecond", ErrInvalidDuration, amount, unit)
	}
	if ms > float64(MaxDuration/time.Millisecond) {
		return 0, fmt.Errorf("%w: %v %s exceeds %v", ErrInvalidDuration, amount, unit, MaxDuration)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

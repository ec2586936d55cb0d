package duration

import "time"

// Deadline is a hold window that started at Start and lasts Duration.
type Deadline struct {
	Start    time.Time
	Duration time.Duration
}

// NewDeadline returns a deadline that starts at now.
func NewDeadline(now time.Time, d time.Duration) Deadline {
	return Deadline{Start: now, Duration: d}
}

// ExpiresAt returns when the window ends.
func (d Deadline) ExpiresAt() time.Time {
	return d.Start.Add(d.Duration)
}

// Remaining returns the time left at now, never negative.
func (d Deadline) Remaining(now time.Time) time.Duration {
	return Remaining(d.ExpiresAt(), now)
}

// IsExpired reports whether the window has ended at now.
func (d Deadline) IsExpired(now time.Time) bool {
	return !now.Before(d.ExpiresAt())
}

// Remaining returns the time from now until expiry, or 0 if expiry is not
// in the future.
func Remaining(expiry, now time.Time) time.Duration {
	remaining := expiry.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Package duration converts configured hold durations into time.Duration
// values and does deadline arithmetic for trigger windows.
//
// # Units
//
// A duration is configured as an amount plus a unit: ms, s, min or hr.
// An empty unit means seconds. Fractional amounts are allowed ("1.5 min").
//
// # Deadlines
//
// A Deadline records when a hold window started and how long it lasts.
// Remaining and IsExpired take the current time as an argument so callers
// can drive them from an injected clock.
package duration

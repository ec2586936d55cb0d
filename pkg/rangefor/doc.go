// Package rangefor implements the "value in range for a duration" trigger.
//
// A Node reads a numeric field from every inbound message and checks it
// against an exclusive range. While the value stays in range a single
// deadline runs; when it elapses the captured message is emitted on
// match.OutputMatch. A value leaving the range before that cancels the
// deadline and emits the captured message on match.OutputReset with
// reset=true. A field value of "reset" cancels unconditionally.
//
// # Range Semantics
//
// Bounds are exclusive. With both bounds set a value v matches when
// Lower < v < Upper. With one bound only that side is checked. With no
// bounds nothing ever matches. Non-numeric values are ignored.
//
// # Restart Survival
//
// The pending deadline, captured message and last value are written to a
// persistence.Repository on every arm and refresh and removed on fire or
// cancel. Restore reconciles a stored record once at startup: a deadline
// still in the future is resumed for the remaining time, while one that
// passed during downtime is resolved by the ExpiredPolicy (ignore, send,
// or flag with expired=true and triggerOriginalExpiry). Emissions from
// that branch are deferred so downstream consumers are ready first.
//
// Persistence failures are logged and never change in-memory behavior.
package rangefor

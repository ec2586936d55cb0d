// Package match implements the arm/reset/fire primitives shared by value
// triggers.
//
// An Engine owns exactly one optional deadline timer and the message that
// will be emitted when it fires. Callers decide whether their condition
// holds and drive the engine accordingly:
//
//   - Arm starts the deadline if none is running and captures the message
//     (latest, or first of the run when KeepFirstMessage is set).
//   - Reset cancels a running deadline and emits the captured message on
//     OutputReset with reset=true.
//   - When the deadline elapses the captured message is emitted on
//     OutputMatch. With Continuous set the engine re-arms for a full
//     duration and keeps emitting until reset.
//
// # Transactions
//
// Update runs a function with exclusive access to the engine State, so a
// caller can combine a transition with its own bookkeeping (persistence,
// status) atomically. The fire path offers the same access through the
// OnFire hook. Emissions queued inside a transaction are delivered in
// order after the lock is released.
//
// # Timing
//
// Deadlines are scheduled through a clock.Clock. A generation counter
// guards against a callback that was already running when its timer was
// replaced or cancelled.
package match

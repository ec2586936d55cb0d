package match

import (
	"time"

	"github.com/mash-protocol/valuefor/pkg/clock"
	"github.com/mash-protocol/valuefor/pkg/duration"
	"github.com/mash-protocol/valuefor/pkg/message"
)

// State is the mutable part of an Engine. It is only valid inside
// Engine.Update or a FireFunc and must not be retained.
type State struct {
	engine *Engine

	timer    clock.Timer
	gen      uint64
	expiry   time.Time
	captured message.Message
	matched  bool

	pending  []emission
	deferred []clock.Timer
}

// Phase returns PhaseArmed while a deadline is pending.
func (s *State) Phase() Phase {
	if s.timer != nil {
		return PhaseArmed
	}
	return PhaseIdle
}

// Armed reports whether a deadline is pending.
func (s *State) Armed() bool {
	return s.timer != nil
}

// Expiry returns when the pending deadline fires, or the zero time.
func (s *State) Expiry() time.Time {
	return s.expiry
}

// Captured returns the message that will be emitted on fire.
func (s *State) Captured() message.Message {
	return s.captured
}

// Matched returns the last condition result recorded with SetMatched.
func (s *State) Matched() bool {
	return s.matched
}

// SetMatched records the last condition result.
func (s *State) SetMatched(matched bool) {
	s.matched = matched
}

// Arm captures msg according to the keep-first policy and starts the
// deadline if none is pending. A pending deadline is never restarted.
// It returns true if a new deadline was started.
func (s *State) Arm(msg message.Message) bool {
	if !s.engine.config.KeepFirstMessage || s.captured == nil {
		s.captured = msg
	}
	if s.timer != nil {
		return false
	}
	s.start(s.engine.config.Duration)
	return true
}

// ArmUntil replaces any pending deadline with one that fires at expiry and
// captures msg unconditionally. An expiry in the past fires on the next
// scheduling opportunity.
func (s *State) ArmUntil(msg message.Message, expiry time.Time) {
	s.stopTimer()
	s.captured = msg
	s.schedule(duration.Remaining(expiry, s.engine.clock.Now()))
	s.expiry = expiry
}

// Reset cancels a pending deadline and queues the captured message on
// OutputReset with the reset marker set. Without a pending deadline it only
// drops the captured message and emits nothing. It returns true if a
// deadline was cancelled.
func (s *State) Reset() bool {
	s.matched = false
	if s.timer == nil {
		s.captured = nil
		return false
	}

	s.stopTimer()
	s.Emit(OutputReset, s.captured.With(ResetMarker, true))
	s.captured = nil
	s.engine.debugLog("deadline reset")
	return true
}

// Clear cancels a pending deadline and drops the captured message without
// emitting anything.
func (s *State) Clear() {
	s.stopTimer()
	s.captured = nil
	s.matched = false
}

// Emit queues msg for delivery on out once the transaction ends.
func (s *State) Emit(out Output, msg message.Message) {
	s.pending = append(s.pending, emission{out: out, msg: msg})
}

// EmitDeferred delivers msg on out from a separate callback scheduled with
// zero delay, after the current caller has returned.
func (s *State) EmitDeferred(out Output, msg message.Message) {
	e := s.engine
	em := emission{out: out, msg: msg}
	s.deferred = append(s.deferred, e.clock.AfterFunc(0, func() {
		e.emitOne(em)
	}))
}

func (s *State) start(d time.Duration) {
	s.schedule(d)
	s.expiry = s.engine.clock.Now().Add(d)
}

func (s *State) schedule(d time.Duration) {
	e := s.engine
	s.gen++
	gen := s.gen
	s.timer = e.clock.AfterFunc(d, func() {
		e.fire(gen)
	})
}

func (s *State) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.expiry = time.Time{}
}

func (s *State) drain() []emission {
	out := s.pending
	s.pending = nil
	return out
}

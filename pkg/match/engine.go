package match

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mash-protocol/valuefor/pkg/clock"
	"github.com/mash-protocol/valuefor/pkg/message"
)

// ResetMarker is the field set to true on messages emitted by Reset.
const ResetMarker = "reset"

// Engine errors.
var (
	ErrInvalidDuration = errors.New("match duration must be positive")
	ErrNoEmitter       = errors.New("match emitter is required")
)

// Output identifies an output port.
type Output uint8

const (
	// OutputMatch carries messages whose condition held for the duration.
	OutputMatch Output = 0

	// OutputReset carries the captured message when a pending deadline is cancelled.
	OutputReset Output = 1
)

// String returns the output name.
func (o Output) String() string {
	switch o {
	case OutputMatch:
		return "MATCH"
	case OutputReset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}

// Phase is the engine's timer state.
type Phase uint8

const (
	// PhaseIdle means no deadline is pending.
	PhaseIdle Phase = iota

	// PhaseArmed means a deadline is pending.
	PhaseArmed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseArmed:
		return "ARMED"
	default:
		return "UNKNOWN"
	}
}

// Emitter receives the engine's output messages.
type Emitter interface {
	Emit(out Output, msg message.Message)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(out Output, msg message.Message)

// Emit calls f(out, msg).
func (f EmitterFunc) Emit(out Output, msg message.Message) {
	f(out, msg)
}

// FireFunc is called under the engine lock after a deadline fired and the
// primary emission was queued. fired is the message that was emitted.
type FireFunc func(s *State, fired message.Message)

// Config holds engine configuration.
type Config struct {
	// Duration is the hold time before a deadline fires.
	Duration time.Duration

	// KeepFirstMessage keeps the first captured message of a run instead
	// of replacing it on every Arm.
	KeepFirstMessage bool

	// Continuous re-arms after every fire with the same message.
	Continuous bool

	// Clock schedules deadlines. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is used for debug output and recovered panics. Optional.
	Logger *slog.Logger
}

type emission struct {
	out Output
	msg message.Message
}

// Engine manages one deadline timer and its captured message.
type Engine struct {
	mu sync.Mutex

	config  Config
	clock   clock.Clock
	emitter Emitter
	logger  *slog.Logger

	state  State
	onFire FireFunc
}

// New creates an idle engine.
func New(cfg Config, emitter Emitter) (*Engine, error) {
	if cfg.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if emitter == nil {
		return nil, ErrNoEmitter
	}

	e := &Engine{
		config:  cfg,
		clock:   cfg.Clock,
		emitter: emitter,
		logger:  cfg.Logger,
	}
	if e.clock == nil {
		e.clock = clock.Real()
	}
	e.state.engine = e
	return e, nil
}

// OnFire sets the hook run inside the fire transaction.
func (e *Engine) OnFire(fn FireFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFire = fn
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Update runs fn with exclusive access to the engine state and delivers any
// queued emissions after the lock is released.
func (e *Engine) Update(fn func(s *State)) {
	e.deliver(e.transact(fn))
}

func (e *Engine) transact(fn func(s *State)) []emission {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn(&e.state)
	return e.state.drain()
}

// Arm starts the deadline if idle and captures msg. It returns true if a
// new deadline was started.
func (e *Engine) Arm(msg message.Message) bool {
	var started bool
	e.Update(func(s *State) {
		started = s.Arm(msg)
	})
	return started
}

// Reset cancels a pending deadline, emitting the captured message on
// OutputReset. It returns false if no deadline was pending.
func (e *Engine) Reset() bool {
	var reset bool
	e.Update(func(s *State) {
		reset = s.Reset()
	})
	return reset
}

// Stop cancels the pending deadline and any deferred emissions without
// emitting anything. The captured message is kept.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.stopTimer()
	for _, t := range e.state.deferred {
		t.Stop()
	}
	e.state.deferred = nil
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Phase()
}

// Expiry returns when the pending deadline fires, or the zero time.
func (e *Engine) Expiry() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.expiry
}

// Captured returns the captured message.
func (e *Engine) Captured() message.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.captured
}

// fire is the timer callback for generation gen.
func (e *Engine) fire(gen uint64) {
	defer func() {
		if r := recover(); r != nil {
			e.errorLog("panic in fire", "panic", r)
		}
	}()

	out := e.transact(func(s *State) {
		if s.timer == nil || s.gen != gen {
			// Replaced or cancelled while this callback was waiting.
			return
		}
		s.timer = nil
		s.expiry = time.Time{}

		fired := s.captured
		s.Emit(OutputMatch, fired.Copy())
		e.debugLog("deadline fired", "continuous", e.config.Continuous)

		if e.config.Continuous {
			s.start(e.config.Duration)
		}
		if e.onFire != nil {
			e.runHook(func() { e.onFire(s, fired) })
		}
	})
	e.deliver(out)
}

// deliver sends emissions in order. A panicking emitter does not stop
// the remaining emissions.
func (e *Engine) deliver(out []emission) {
	for _, em := range out {
		e.emitOne(em)
	}
}

func (e *Engine) emitOne(em emission) {
	defer func() {
		if r := recover(); r != nil {
			e.errorLog("panic in emitter", "output", em.out.String(), "panic", r)
		}
	}()
	e.emitter.Emit(em.out, em.msg)
}

func (e *Engine) runHook(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.errorLog("panic in fire hook", "panic", r)
		}
	}()
	fn()
}

func (e *Engine) debugLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *Engine) errorLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Error(msg, args...)
	}
}

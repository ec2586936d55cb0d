package rangefor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mash-protocol/valuefor/pkg/clock"
	evlog "github.com/mash-protocol/valuefor/pkg/log"
	"github.com/mash-protocol/valuefor/pkg/match"
	"github.com/mash-protocol/valuefor/pkg/message"
	"github.com/mash-protocol/valuefor/pkg/persistence"
)

// ResetCommand is the field value that cancels a node unconditionally.
const ResetCommand = "reset"

// KeyPrefix prefixes the persistence key of every node.
const KeyPrefix = "range-for:"

// Fields added to messages emitted by ExpiredFlag.
const (
	ExpiredMarker       = "expired"
	OriginalExpiryField = "triggerOriginalExpiry"
)

// Options holds the collaborators of a Node.
type Options struct {
	// Emitter receives output messages. Required.
	Emitter match.Emitter

	// Store persists pending state. Nil disables restart survival.
	Store persistence.Repository

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Events receives the trigger event trail. Optional.
	Events evlog.Logger

	// Status receives display status updates. Optional.
	Status StatusSink

	// Logger is used for operational logging. Optional.
	Logger *slog.Logger
}

// Node is one range trigger instance.
type Node struct {
	id     string
	key    string
	config Config

	engine *match.Engine
	store  persistence.Repository
	clock  clock.Clock
	events evlog.Logger
	sink   StatusSink
	logger *slog.Logger

	// Guarded by the engine lock.
	lastValue *float64
	persisted bool

	statusMu sync.Mutex
	status   Status
}

// New creates an idle node. Call Restore before feeding input.
func New(id string, cfg Config, opts Options) (*Node, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Emitter == nil {
		return nil, ErrNoEmitter
	}

	n := &Node{
		id:     id,
		key:    KeyPrefix + id,
		config: cfg.withDefaults(),
		store:  opts.Store,
		clock:  opts.Clock,
		events: opts.Events,
		sink:   opts.Status,
		logger: opts.Logger,
	}
	if n.clock == nil {
		n.clock = clock.Real()
	}
	if n.events == nil {
		n.events = evlog.NoopLogger{}
	}
	if n.logger != nil {
		n.logger = n.logger.With("node", id)
	}

	engine, err := match.New(match.Config{
		Duration:         cfg.Duration,
		KeepFirstMessage: cfg.KeepFirstMessage,
		Continuous:       cfg.Continuous,
		Clock:            n.clock,
		Logger:           n.logger,
	}, opts.Emitter)
	if err != nil {
		return nil, err
	}
	engine.OnFire(n.onFire)
	n.engine = engine

	if !cfg.Range.Bounded() {
		n.warnLog("no bounds configured, node will never trigger")
	} else if cfg.Range.Empty() {
		n.warnLog("range is empty, node will never trigger", "range", cfg.Range.String())
	}
	return n, nil
}

// ID returns the node ID.
func (n *Node) ID() string { return n.id }

// Key returns the persistence key.
func (n *Node) Key() string { return n.key }

// Config returns the node configuration with defaults applied.
func (n *Node) Config() Config { return n.config }

// Input processes one inbound message.
func (n *Node) Input(msg message.Message) {
	raw, ok := message.Get(msg, n.config.Field)
	if !ok {
		n.debugLog("field missing", "field", n.config.Field)
		return
	}
	if s, isString := raw.(string); isString && s == ResetCommand {
		n.Reset()
		return
	}

	v, ok := message.Number(raw)
	if !ok {
		n.debugLog("ignoring non-numeric value", "field", n.config.Field)
		return
	}
	matched := n.config.Range.Matches(v)

	n.engine.Update(func(s *match.State) {
		n.lastValue = &v
		if matched {
			n.onMatch(s, msg, v)
		} else {
			n.onMiss(s, v)
		}
	})
}

// onMatch handles an in-range value.
func (n *Node) onMatch(s *match.State, msg message.Message, v float64) {
	if !s.Armed() {
		// Start of a new run always captures the current message.
		s.Clear()
		s.SetMatched(true)
		s.Arm(msg)
		n.save(s)
		n.logEvent(evlog.EventArmed, &v, s.Expiry(), nil)
		n.setStatus(armedStatus(n.lastValue, n.clock.Now()))
		return
	}

	s.SetMatched(true)
	s.Arm(msg)
	n.save(s)
	n.logEvent(evlog.EventRefreshed, &v, s.Expiry(), nil)
	n.setStatus(armedStatus(n.lastValue, n.clock.Now()))
}

// onMiss handles an out-of-range value.
func (n *Node) onMiss(s *match.State, v float64) {
	captured := s.Captured()
	if s.Reset() {
		n.logEvent(evlog.EventCancelled, &v, time.Time{}, captured)
	}
	if n.persisted {
		n.clear()
	}
	n.setStatus(idleStatus(n.lastValue))
}

// Reset cancels any pending deadline and clears persisted state.
func (n *Node) Reset() {
	n.engine.Update(func(s *match.State) {
		captured := s.Captured()
		if s.Reset() {
			n.logEvent(evlog.EventCancelled, nil, time.Time{}, captured)
		}
		n.clear()
		n.setStatus(idleStatus(n.lastValue))
	})
}

// onFire runs under the engine lock after the deadline elapsed.
func (n *Node) onFire(s *match.State, fired message.Message) {
	n.clear()
	if s.Armed() {
		// Continuous mode re-armed with a fresh deadline.
		n.save(s)
	}
	n.logEvent(evlog.EventFired, n.lastValue, time.Time{}, fired)
	n.setStatus(firedStatus(n.lastValue, n.clock.Now()))
}

// Restore reconciles persisted state with the current time. It must run
// once before the first Input.
func (n *Node) Restore() {
	if n.store == nil {
		return
	}

	rec, err := n.store.Load(n.key)
	if err != nil {
		n.persistFailed("load", err)
		return
	}
	if rec == nil {
		return
	}

	now := n.clock.Now()
	n.engine.Update(func(s *match.State) {
		n.persisted = true
		if !rec.Valid() {
			n.warnLog("discarding incomplete trigger state")
			n.clear()
			return
		}
		n.lastValue = rec.LastValue

		if rec.Expiry.After(now) {
			s.ArmUntil(rec.Message, rec.Expiry)
			s.SetMatched(true)
			n.logEvent(evlog.EventRestored, n.lastValue, rec.Expiry, nil)
			n.setStatus(armedStatus(n.lastValue, now))
			n.debugLog("resumed pending deadline", "remaining", rec.Expiry.Sub(now))
			return
		}

		n.clear()
		switch n.config.Expired {
		case ExpiredSend:
			s.EmitDeferred(match.OutputMatch, rec.Message.Copy())
			n.setStatus(firedStatus(n.lastValue, now))
		case ExpiredFlag:
			out := rec.Message.Copy()
			out[ExpiredMarker] = true
			out[OriginalExpiryField] = rec.Expiry.UnixMilli()
			s.EmitDeferred(match.OutputMatch, out)
			n.setStatus(firedStatus(n.lastValue, now))
		}
		n.logEvent(evlog.EventExpired, n.lastValue, rec.Expiry, rec.Message, n.config.Expired.String())
		n.debugLog("deadline expired while offline", "policy", n.config.Expired.String(), "expiry", rec.Expiry)
	})
}

// Close stops the pending deadline without emitting or clearing persisted
// state, so it can be resumed by the next Restore.
func (n *Node) Close() {
	n.engine.Stop()
}

// Phase returns whether a deadline is pending.
func (n *Node) Phase() match.Phase {
	return n.engine.Phase()
}

// Expiry returns when the pending deadline fires, or the zero time.
func (n *Node) Expiry() time.Time {
	return n.engine.Expiry()
}

// LastValue returns the last numeric value seen.
func (n *Node) LastValue() (float64, bool) {
	var v *float64
	n.engine.Update(func(*match.State) {
		v = n.lastValue
	})
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Status returns the last status shown.
func (n *Node) Status() Status {
	n.statusMu.Lock()
	defer n.statusMu.Unlock()
	return n.status
}

// save writes the current deadline. Runs under the engine lock.
func (n *Node) save(s *match.State) {
	n.persisted = true
	if n.store == nil {
		return
	}

	var lv *float64
	if n.lastValue != nil {
		v := *n.lastValue
		lv = &v
	}
	rec := &persistence.Record{
		SavedAt:   n.clock.Now(),
		Expiry:    s.Expiry(),
		Message:   message.Sanitize(s.Captured()),
		LastValue: lv,
	}
	if err := n.store.Save(n.key, rec); err != nil {
		n.persistFailed("save", err)
	}
}

// clear removes persisted state. Runs under the engine lock.
func (n *Node) clear() {
	n.persisted = false
	if n.store == nil {
		return
	}
	if err := n.store.Delete(n.key); err != nil {
		n.persistFailed("delete", err)
	}
}

func (n *Node) persistFailed(op string, err error) {
	n.warnLog("trigger state "+op+" failed", "error", err)
	n.events.Log(evlog.Event{
		Timestamp: n.clock.Now(),
		NodeID:    n.id,
		Type:      evlog.EventPersistError,
		Error:     op + ": " + err.Error(),
	})
}

func (n *Node) logEvent(typ evlog.EventType, v *float64, expiry time.Time, msg message.Message, policy ...string) {
	ev := evlog.Event{
		Timestamp: n.clock.Now(),
		NodeID:    n.id,
		Type:      typ,
	}
	if v != nil {
		val := *v
		ev.Value = &val
	}
	if !expiry.IsZero() {
		ev.Expiry = &expiry
	}
	if msg != nil {
		ev.Message = message.Sanitize(msg)
	}
	if len(policy) > 0 {
		ev.Policy = policy[0]
	}
	n.events.Log(ev)
}

func (n *Node) setStatus(st Status) {
	n.statusMu.Lock()
	n.status = st
	n.statusMu.Unlock()

	if n.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			n.warnLog("status sink panicked", "panic", r)
		}
	}()
	n.sink.SetStatus(n.id, st)
}

func (n *Node) debugLog(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}

func (n *Node) warnLog(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}

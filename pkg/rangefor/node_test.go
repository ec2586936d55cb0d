package rangefor

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/valuefor/pkg/clock/clocktest"
	evlog "github.com/mash-protocol/valuefor/pkg/log"
	"github.com/mash-protocol/valuefor/pkg/match"
	"github.com/mash-protocol/valuefor/pkg/message"
	"github.com/mash-protocol/valuefor/pkg/persistence"
	"github.com/mash-protocol/valuefor/pkg/persistence/mocks"
)

var epoch = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

type emitted struct {
	out match.Output
	msg message.Message
}

type recorder struct {
	mu  sync.Mutex
	got []emitted
}

func (r *recorder) Emit(out match.Output, msg message.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, emitted{out: out, msg: msg})
}

func (r *recorder) all() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]emitted(nil), r.got...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []evlog.Event
}

func (e *eventRecorder) Log(ev evlog.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventRecorder) types() []evlog.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]evlog.EventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	node   *Node
	out    *recorder
	events *eventRecorder
	clock  *clocktest.Clock
	store  persistence.Repository
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		out:    &recorder{},
		events: &eventRecorder{},
		clock:  clocktest.New(epoch),
		store:  persistence.NewMemoryStore(),
	}
	h.node = h.newNode(t, cfg)
	return h
}

// newNode builds a node sharing the harness clock and store, as a restarted
// process would.
func (h *harness) newNode(t *testing.T, cfg Config) *Node {
	t.Helper()
	if cfg.Duration == 0 {
		cfg.Duration = 5 * time.Second
	}
	n, err := New("node-1", cfg, Options{
		Emitter: h.out,
		Store:   h.store,
		Clock:   h.clock,
		Events:  h.events,
	})
	require.NoError(t, err)
	n.Restore()
	return n
}

func (h *harness) record(t *testing.T) *persistence.Record {
	t.Helper()
	rec, err := h.store.Load(h.node.Key())
	require.NoError(t, err)
	return rec
}

func payload(v any) message.Message {
	return message.Message{"payload": v}
}

func between(lo, hi float64) Range {
	return Range{Lower: &lo, Upper: &hi}
}

func TestNewValidates(t *testing.T) {
	_, err := New("", Config{Duration: time.Second}, Options{Emitter: &recorder{}})
	assert.ErrorIs(t, err, ErrEmptyID)

	_, err = New("n", Config{}, Options{Emitter: &recorder{}})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = New("n", Config{Duration: time.Second}, Options{})
	assert.ErrorIs(t, err, ErrNoEmitter)

	n, err := New("n", Config{Duration: time.Second}, Options{Emitter: &recorder{}})
	require.NoError(t, err)
	assert.Equal(t, message.DefaultField, n.Config().Field)
	assert.Equal(t, "range-for:n", n.Key())
}

func TestEnterThenLeaveRangeCancels(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})

	h.node.Input(payload(5.0))
	assert.Equal(t, match.PhaseIdle, h.node.Phase())
	assert.Nil(t, h.record(t))

	h.node.Input(payload(15.0))
	assert.Equal(t, match.PhaseArmed, h.node.Phase())
	require.NotNil(t, h.record(t))

	h.node.Input(payload(25.0))
	assert.Equal(t, match.PhaseIdle, h.node.Phase())

	got := h.out.all()
	require.Len(t, got, 1)
	assert.Equal(t, match.OutputReset, got[0].out)
	assert.Equal(t, 15.0, got[0].msg["payload"])
	assert.Equal(t, true, got[0].msg["reset"])
	assert.Nil(t, h.record(t), "cancel must clear persisted state")

	h.clock.Advance(time.Minute)
	assert.Len(t, h.out.all(), 1, "cancelled deadline must not fire")

	assert.Equal(t, []evlog.EventType{evlog.EventArmed, evlog.EventCancelled}, h.events.types())
}

func TestFiresAfterDuration(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})

	h.node.Input(payload(15.0))
	rec := h.record(t)
	require.NotNil(t, rec)
	assert.Equal(t, epoch.Add(5*time.Second), rec.Expiry)
	assert.Equal(t, 15.0, *rec.LastValue)
	assert.Equal(t, "15 at: Jun 1, 08:00", h.node.Status().Text)
	assert.Equal(t, ShapeRing, h.node.Status().Shape)

	h.clock.Advance(5*time.Second - time.Millisecond)
	assert.Empty(t, h.out.all(), "must not fire before the deadline")

	h.clock.Advance(time.Millisecond)
	got := h.out.all()
	require.Len(t, got, 1)
	assert.Equal(t, match.OutputMatch, got[0].out)
	assert.Equal(t, 15.0, got[0].msg["payload"])
	assert.Nil(t, h.record(t), "fire must clear persisted state")
	assert.Equal(t, match.PhaseIdle, h.node.Phase())
	assert.Equal(t, "15 since: Jun 1, 08:00", h.node.Status().Text)
	assert.Equal(t, ShapeDot, h.node.Status().Shape)
}

func TestRefreshKeepsDeadline(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})

	h.node.Input(payload(15.0))
	h.clock.Advance(3 * time.Second)
	h.node.Input(payload(16.0))

	assert.Equal(t, epoch.Add(5*time.Second), h.node.Expiry())
	rec := h.record(t)
	require.NotNil(t, rec)
	assert.Equal(t, epoch.Add(5*time.Second), rec.Expiry, "refresh keeps the persisted expiry")
	assert.Equal(t, 16.0, rec.Message["payload"])
	assert.Equal(t, 16.0, *rec.LastValue)
	assert.Equal(t, 1, h.clock.Pending())

	h.clock.Advance(2 * time.Second)
	got := h.out.all()
	require.Len(t, got, 1)
	assert.Equal(t, 16.0, got[0].msg["payload"])
}

func TestKeepFirstMessage(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20), KeepFirstMessage: true})

	h.node.Input(payload(15.0))
	h.node.Input(payload(17.0))

	v, ok := h.node.LastValue()
	require.True(t, ok)
	assert.Equal(t, 17.0, v)
	assert.Equal(t, 15.0, h.record(t).Message["payload"])

	h.clock.Advance(5 * time.Second)
	got := h.out.all()
	require.Len(t, got, 1)
	assert.Equal(t, 15.0, got[0].msg["payload"])

	// A new run captures its own first message.
	h.node.Input(payload(12.0))
	h.node.Input(payload(13.0))
	h.clock.Advance(5 * time.Second)
	got = h.out.all()
	require.Len(t, got, 2)
	assert.Equal(t, 12.0, got[1].msg["payload"])
}

func TestContinuousRefire(t *testing.T) {
	h := newHarness(t, Config{Duration: 100 * time.Millisecond, Range: Range{Upper: f(0)}, Continuous: true})

	h.node.Input(payload(-1.0))
	h.clock.Advance(350 * time.Millisecond)

	got := h.out.all()
	require.Len(t, got, 3)
	for _, em := range got {
		assert.Equal(t, match.OutputMatch, em.out)
		assert.Equal(t, -1.0, em.msg["payload"])
	}

	rec := h.record(t)
	require.NotNil(t, rec, "continuous re-arm persists the new deadline")
	assert.Equal(t, epoch.Add(400*time.Millisecond), rec.Expiry)

	h.node.Input(payload(ResetCommand))
	got = h.out.all()
	require.Len(t, got, 4)
	assert.Equal(t, match.OutputReset, got[3].out)
	assert.Nil(t, h.record(t))

	h.clock.Advance(time.Second)
	assert.Len(t, h.out.all(), 4)
}

func TestResetCommand(t *testing.T) {
	t.Run("cancels pending deadline", func(t *testing.T) {
		h := newHarness(t, Config{Range: between(10, 20)})

		h.node.Input(payload(15.0))
		h.node.Input(payload("reset"))

		got := h.out.all()
		require.Len(t, got, 1)
		assert.Equal(t, match.OutputReset, got[0].out)
		assert.Equal(t, match.PhaseIdle, h.node.Phase())
		assert.Nil(t, h.record(t))
	})

	t.Run("idle is a no-op", func(t *testing.T) {
		h := newHarness(t, Config{Range: between(10, 20)})

		h.node.Input(payload("reset"))
		h.node.Reset()

		assert.Empty(t, h.out.all())
		assert.Equal(t, match.PhaseIdle, h.node.Phase())
	})

	t.Run("clears stale persisted state", func(t *testing.T) {
		h := newHarness(t, Config{Range: between(10, 20)})
		require.NoError(t, h.store.Save(h.node.Key(), &persistence.Record{Expiry: epoch, Message: payload(1.0)}))

		h.node.Input(payload("reset"))
		assert.Nil(t, h.record(t))
	})
}

func TestIgnoresNonNumericValues(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})
	h.node.Input(payload(15.0))

	for _, msg := range []message.Message{
		payload("warm"),
		payload(true),
		payload(nil),
		payload(""),
		{"topic": "no payload"},
	} {
		h.node.Input(msg)
	}

	assert.Equal(t, match.PhaseArmed, h.node.Phase())
	assert.Empty(t, h.out.all())
	v, _ := h.node.LastValue()
	assert.Equal(t, 15.0, v)
}

func TestNumericStringsAreCoerced(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})

	h.node.Input(payload(" 15 "))
	assert.Equal(t, match.PhaseArmed, h.node.Phase())
}

func TestUnboundedNeverArms(t *testing.T) {
	h := newHarness(t, Config{})

	for _, v := range []float64{-1e9, 0, 1e9} {
		h.node.Input(payload(v))
	}
	assert.Equal(t, match.PhaseIdle, h.node.Phase())
	assert.Nil(t, h.record(t))
}

func TestNestedField(t *testing.T) {
	h := newHarness(t, Config{Field: "data.readings[1].temp", Range: Range{Lower: f(30)}})

	msg := message.Message{"data": map[string]any{
		"readings": []any{
			map[string]any{"temp": 10.0},
			map[string]any{"temp": 31.0},
		},
	}}
	h.node.Input(msg)
	assert.Equal(t, match.PhaseArmed, h.node.Phase())
}

func TestSnapshotStripsTransportHandles(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})

	msg := payload(15.0)
	msg["req"] = struct{}{}
	msg["res"] = func() {}
	h.node.Input(msg)

	rec := h.record(t)
	require.NotNil(t, rec)
	assert.NotContains(t, rec.Message, "req")
	assert.NotContains(t, rec.Message, "res")
	assert.Equal(t, 15.0, rec.Message["payload"])
}

func TestRestorePendingDeadline(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})
	h.node.Input(payload(15.0))
	expiry := h.node.Expiry()
	h.node.Close()

	// Restart two seconds later.
	h.clock.Advance(2 * time.Second)
	assert.Empty(t, h.out.all(), "closed node must not fire")
	restarted := h.newNode(t, Config{Range: between(10, 20)})

	assert.Equal(t, match.PhaseArmed, restarted.Phase())
	assert.Equal(t, expiry, restarted.Expiry())
	v, ok := restarted.LastValue()
	require.True(t, ok)
	assert.Equal(t, 15.0, v)

	h.clock.Advance(3*time.Second - time.Millisecond)
	assert.Empty(t, h.out.all(), "restored deadline must not fire early")

	h.clock.Advance(time.Millisecond)
	got := h.out.all()
	require.Len(t, got, 1)
	assert.Equal(t, match.OutputMatch, got[0].out)
	assert.Equal(t, 15.0, got[0].msg["payload"])
	assert.Nil(t, h.record(t))
	assert.Contains(t, h.events.types(), evlog.EventRestored)
}

func TestRestoredNodeCancelsOnOutOfRange(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})
	require.NoError(t, h.store.Save("range-for:node-1", &persistence.Record{
		Expiry:  epoch.Add(time.Minute),
		Message: payload(12.0),
	}))

	n := h.newNode(t, Config{Range: between(10, 20)})
	n.Input(payload(50.0))

	got := h.out.all()
	require.Len(t, got, 1)
	assert.Equal(t, match.OutputReset, got[0].out)
	assert.Equal(t, 12.0, got[0].msg["payload"])
	assert.Nil(t, h.record(t))
}

func TestRestoreExpired(t *testing.T) {
	expiry := epoch.Add(-time.Hour)

	tests := []struct {
		name     string
		policy   ExpiredPolicy
		wantEmit bool
		wantFlag bool
	}{
		{"ignore", ExpiredIgnore, false, false},
		{"send", ExpiredSend, true, false},
		{"flag", ExpiredFlag, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Config{Range: between(10, 20), Expired: tt.policy})
			lv := 15.0
			require.NoError(t, h.store.Save("range-for:node-1", &persistence.Record{
				Expiry:    expiry,
				Message:   payload(15.0),
				LastValue: &lv,
			}))

			n := h.newNode(t, Config{Range: between(10, 20), Expired: tt.policy})

			assert.Equal(t, match.PhaseIdle, n.Phase())
			assert.Nil(t, h.record(t), "expired state is always cleared")
			assert.Empty(t, h.out.all(), "emission is deferred past startup")

			h.clock.Advance(0)
			got := h.out.all()
			if !tt.wantEmit {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, match.OutputMatch, got[0].out)
			assert.Equal(t, 15.0, got[0].msg["payload"])

			if tt.wantFlag {
				assert.Equal(t, true, got[0].msg[ExpiredMarker])
				assert.Equal(t, expiry.UnixMilli(), got[0].msg[OriginalExpiryField])
			} else {
				assert.NotContains(t, got[0].msg, ExpiredMarker)
				assert.NotContains(t, got[0].msg, OriginalExpiryField)
			}

			h.clock.Advance(time.Hour)
			assert.Len(t, h.out.all(), 1, "expired state is emitted exactly once")
		})
	}
}

func TestRestoreDiscardsIncompleteRecord(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})
	require.NoError(t, h.store.Save("range-for:node-1", &persistence.Record{Expiry: epoch.Add(time.Minute)}))

	n := h.newNode(t, Config{Range: between(10, 20)})

	assert.Equal(t, match.PhaseIdle, n.Phase())
	assert.Nil(t, h.record(t))
}

func TestPersistenceFailuresAreNonFatal(t *testing.T) {
	clk := clocktest.New(epoch)
	out := &recorder{}
	events := &eventRecorder{}
	repo := mocks.NewMockRepository(t)

	boom := errors.New("disk full")
	repo.EXPECT().Load("range-for:n").Return(nil, boom).Once()
	repo.EXPECT().Save("range-for:n", mock.Anything).Return(boom)
	repo.EXPECT().Delete("range-for:n").Return(boom)

	n, err := New("n", Config{Duration: time.Second, Range: between(10, 20)}, Options{
		Emitter: out,
		Store:   repo,
		Clock:   clk,
		Events:  events,
	})
	require.NoError(t, err)
	n.Restore()

	n.Input(payload(15.0))
	assert.Equal(t, match.PhaseArmed, n.Phase())

	clk.Advance(time.Second)
	got := out.all()
	require.Len(t, got, 1)
	assert.Equal(t, match.OutputMatch, got[0].out)

	assert.Contains(t, events.types(), evlog.EventPersistError)
	assert.Contains(t, events.types(), evlog.EventFired)
}

func TestSaveRecordContents(t *testing.T) {
	clk := clocktest.New(epoch)
	repo := mocks.NewMockRepository(t)

	var saved *persistence.Record
	repo.EXPECT().Load("range-for:n").Return(nil, nil).Once()
	repo.EXPECT().Save("range-for:n", mock.Anything).Run(func(_ string, rec *persistence.Record) {
		saved = rec
	}).Return(nil).Once()

	n, err := New("n", Config{Duration: time.Minute, Range: Range{Lower: f(0)}}, Options{
		Emitter: &recorder{},
		Store:   repo,
		Clock:   clk,
	})
	require.NoError(t, err)
	n.Restore()

	n.Input(message.Message{"payload": 3.0, "topic": "t"})

	require.NotNil(t, saved)
	assert.Equal(t, epoch.Add(time.Minute), saved.Expiry)
	assert.Equal(t, "t", saved.Message["topic"])
	require.NotNil(t, saved.LastValue)
	assert.Equal(t, 3.0, *saved.LastValue)
}

func TestStatusSinkPanicIsContained(t *testing.T) {
	clk := clocktest.New(epoch)
	out := &recorder{}
	sink := StatusFunc(func(string, Status) { panic("display gone") })

	n, err := New("n", Config{Duration: time.Second, Range: between(10, 20)}, Options{
		Emitter: out,
		Clock:   clk,
		Status:  sink,
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() { n.Input(payload(15.0)) })
	assert.Equal(t, match.PhaseArmed, n.Phase())

	clk.Advance(time.Second)
	assert.Len(t, out.all(), 1)
}

func TestStatusSinkReceivesUpdates(t *testing.T) {
	clk := clocktest.New(epoch)
	var got []Status
	sink := StatusFunc(func(id string, st Status) {
		assert.Equal(t, "n", id)
		got = append(got, st)
	})

	n, err := New("n", Config{Duration: time.Second, Range: between(10, 20)}, Options{
		Emitter: &recorder{},
		Clock:   clk,
		Status:  sink,
	})
	require.NoError(t, err)

	n.Input(payload(15.0))
	n.Input(payload(30.0))

	require.Len(t, got, 2)
	assert.Equal(t, FillGreen, got[0].Fill)
	assert.Equal(t, Status{Fill: FillGrey, Shape: ShapeRing, Text: "30"}, got[1])
}

func TestArmedStatusShowsLastInRangeTime(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20), Duration: 90 * time.Second})

	h.node.Input(payload(15.0))
	assert.Equal(t, "15 at: Jun 1, 08:00", h.node.Status().Text)

	h.clock.Advance(70 * time.Second)
	h.node.Input(payload(16.0))
	assert.Equal(t, "16 at: Jun 1, 08:01", h.node.Status().Text)
	assert.Equal(t, epoch.Add(90*time.Second), h.node.Expiry())

	h.node.Close()
	h.clock.Advance(10 * time.Second)
	restarted := h.newNode(t, Config{Range: between(10, 20), Duration: 90 * time.Second})
	assert.Equal(t, "16 at: Jun 1, 08:01", restarted.Status().Text)

	h.clock.Advance(10 * time.Second)
	assert.Equal(t, "16 since: Jun 1, 08:01", restarted.Status().Text)
}

func TestInfiniteValueSurvivesRestart(t *testing.T) {
	lower := 10.0
	cfg := Config{Range: Range{Lower: &lower}}

	h := newHarness(t, cfg)
	h.store = persistence.NewFileStore(t.TempDir(), persistence.JSONCodec{})
	h.node = h.newNode(t, cfg)

	h.node.Input(payload("Infinity"))
	require.Equal(t, match.PhaseArmed, h.node.Phase())
	rec := h.record(t)
	require.NotNil(t, rec, "armed deadline must be persisted")
	require.NotNil(t, rec.LastValue)
	assert.True(t, math.IsInf(*rec.LastValue, 1))
	assert.Equal(t, epoch.Add(5*time.Second), rec.Expiry)
	assert.NotContains(t, h.events.types(), evlog.EventPersistError)

	h.node.Close()
	restarted := h.newNode(t, cfg)
	assert.Equal(t, match.PhaseArmed, restarted.Phase())
	v, ok := restarted.LastValue()
	require.True(t, ok)
	assert.True(t, math.IsInf(v, 1))

	h.clock.Advance(5 * time.Second)
	got := h.out.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Infinity", got[0].msg["payload"])
}

func TestEventTrail(t *testing.T) {
	h := newHarness(t, Config{Range: between(10, 20)})

	h.node.Input(payload(15.0))
	h.node.Input(payload(16.0))
	h.clock.Advance(5 * time.Second)

	assert.Equal(t,
		[]evlog.EventType{evlog.EventArmed, evlog.EventRefreshed, evlog.EventFired},
		h.events.types(),
	)

	h.events.mu.Lock()
	fired := h.events.events[2]
	h.events.mu.Unlock()
	assert.Equal(t, "node-1", fired.NodeID)
	require.NotNil(t, fired.Value)
	assert.Equal(t, 16.0, *fired.Value)
	assert.Equal(t, 16.0, fired.Message["payload"])
}

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mash-protocol/valuefor/pkg/clock"
	"github.com/mash-protocol/valuefor/pkg/config"
	evlog "github.com/mash-protocol/valuefor/pkg/log"
	"github.com/mash-protocol/valuefor/pkg/match"
	"github.com/mash-protocol/valuefor/pkg/message"
	"github.com/mash-protocol/valuefor/pkg/persistence"
	"github.com/mash-protocol/valuefor/pkg/rangefor"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithEventLogger sets the trigger event logger.
func WithEventLogger(events evlog.Logger) Option {
	return func(s *Service) { s.events = events }
}

// WithClock sets the clock used by every node.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithRepository replaces the repository built for store name.
func WithRepository(name string, repo persistence.Repository) Option {
	return func(s *Service) {
		if name == "" {
			name = persistence.DefaultStore
		}
		s.overrides[name] = repo
	}
}

type nodeEntry struct {
	node  *rangefor.Node
	name  string
	store string
}

// Service runs the configured trigger nodes.
type Service struct {
	mu sync.RWMutex

	state  ServiceState
	logger *slog.Logger
	events evlog.Logger
	clock  clock.Clock

	stores    *persistence.Registry
	overrides map[string]persistence.Repository

	nodes  map[string]*nodeEntry
	names  map[string]string
	order  []string

	outputHandlers []OutputHandler
	statusHandlers []StatusHandler
}

// New builds the stores and nodes described by cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		state:     StateIdle,
		clock:     clock.Real(),
		events:    evlog.NoopLogger{},
		stores:    persistence.NewRegistry(),
		overrides: make(map[string]persistence.Repository),
		nodes:     make(map[string]*nodeEntry),
		names:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	for name, sc := range cfg.Stores {
		repo, ok := s.overrides[name]
		if !ok {
			var err error
			if repo, err = sc.Repository(); err != nil {
				return nil, fmt.Errorf("store %q: %w", name, err)
			}
		}
		if err := s.stores.Register(name, repo); err != nil {
			return nil, err
		}
	}
	for name, repo := range s.overrides {
		if _, ok := cfg.Stores[name]; !ok {
			if err := s.stores.Register(name, repo); err != nil {
				return nil, err
			}
		}
	}

	for _, nc := range cfg.Nodes {
		if err := s.addNode(nc); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Service) addNode(nc config.NodeConfig) error {
	if _, exists := s.nodes[nc.ID]; exists {
		return fmt.Errorf("%w: %q", config.ErrDuplicateNode, nc.ID)
	}

	rc, err := nc.RangeFor()
	if err != nil {
		return fmt.Errorf("node %q: %w", nc.ID, err)
	}
	repo, err := s.stores.Get(nc.StoreName())
	if err != nil {
		return fmt.Errorf("node %q: %w", nc.ID, err)
	}

	name := nc.DisplayName()
	node, err := rangefor.New(nc.ID, rc, rangefor.Options{
		Emitter: s.emitterFor(nc.ID, name),
		Store:   repo,
		Clock:   s.clock,
		Events:  s.events,
		Status:  rangefor.StatusFunc(s.setStatus),
		Logger:  s.logger,
	})
	if err != nil {
		return fmt.Errorf("node %q: %w", nc.ID, err)
	}

	s.nodes[nc.ID] = &nodeEntry{node: node, name: name, store: nc.StoreName()}
	if nc.Name != "" {
		s.names[nc.Name] = nc.ID
	}
	s.order = append(s.order, nc.ID)
	return nil
}

// OnOutput registers a handler for node outputs. Handlers run
// synchronously in registration order.
func (s *Service) OnOutput(h OutputHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputHandlers = append(s.outputHandlers, h)
}

// OnStatus registers a handler for node status changes.
func (s *Service) OnStatus(h StatusHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusHandlers = append(s.statusHandlers, h)
}

// State returns the lifecycle state.
func (s *Service) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start restores persisted state of every node and begins accepting input.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateStarting
	order := append([]string(nil), s.order...)
	s.mu.Unlock()

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			s.mu.Lock()
			s.state = StateIdle
			s.mu.Unlock()
			return err
		}
		s.nodes[id].node.Restore()
	}

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()

	s.debugLog("service started", "nodes", len(order))
	return nil
}

// Stop halts every node and closes the event logger. Persisted state is
// kept.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.state = StateStopped
	s.mu.Unlock()

	for _, id := range s.order {
		s.nodes[id].node.Close()
	}
	s.debugLog("service stopped")

	if c, ok := s.events.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Input routes msg to the node identified by ref (ID or name).
func (s *Service) Input(ref string, msg message.Message) error {
	entry, err := s.lookup(ref)
	if err != nil {
		return err
	}
	entry.node.Input(msg)
	return nil
}

// Reset cancels the node identified by ref.
func (s *Service) Reset(ref string) error {
	entry, err := s.lookup(ref)
	if err != nil {
		return err
	}
	entry.node.Reset()
	return nil
}

// Node returns a view of the node identified by ref.
func (s *Service) Node(ref string) (NodeInfo, error) {
	id, err := s.resolve(ref)
	if err != nil {
		return NodeInfo{}, err
	}
	return s.info(id), nil
}

// Nodes returns a view of every node in configuration order.
func (s *Service) Nodes() []NodeInfo {
	out := make([]NodeInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.info(id))
	}
	return out
}

// NodeIDs returns the node IDs in configuration order.
func (s *Service) NodeIDs() []string {
	return append([]string(nil), s.order...)
}

func (s *Service) info(id string) NodeInfo {
	entry := s.nodes[id]
	n := entry.node
	cfg := n.Config()

	info := NodeInfo{
		ID:       id,
		Name:     entry.name,
		Store:    entry.store,
		Range:    cfg.Range.String(),
		Duration: cfg.Duration,
		Phase:    n.Phase(),
		Expiry:   n.Expiry(),
		Status:   n.Status(),
	}
	if v, ok := n.LastValue(); ok {
		info.LastValue = &v
	}
	return info
}

func (s *Service) lookup(ref string) (*nodeEntry, error) {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state != StateRunning {
		return nil, ErrNotStarted
	}

	id, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return s.nodes[id], nil
}

func (s *Service) resolve(ref string) (string, error) {
	if _, ok := s.nodes[ref]; ok {
		return ref, nil
	}
	if id, ok := s.names[ref]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNodeNotFound, ref)
}

func (s *Service) emitterFor(id, name string) match.Emitter {
	return match.EmitterFunc(func(port match.Output, msg message.Message) {
		s.dispatch(Output{
			NodeID:  id,
			Name:    name,
			Port:    port,
			Message: msg,
			Time:    s.clock.Now(),
		})
	})
}

func (s *Service) dispatch(out Output) {
	s.mu.RLock()
	handlers := append([]OutputHandler(nil), s.outputHandlers...)
	s.mu.RUnlock()

	s.debugLog("output", "node", out.NodeID, "port", out.Port.String())
	for _, h := range handlers {
		s.safeCall(func() { h(out) })
	}
}

// setStatus runs under the node's lock; handlers must not call back into
// the node.
func (s *Service) setStatus(nodeID string, st rangefor.Status) {
	s.mu.RLock()
	handlers := append([]StatusHandler(nil), s.statusHandlers...)
	s.mu.RUnlock()

	for _, h := range handlers {
		s.safeCall(func() { h(nodeID, st) })
	}
}

func (s *Service) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("handler panicked", "panic", r)
		}
	}()
	fn()
}

func (s *Service) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

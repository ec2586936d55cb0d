package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mash-protocol/valuefor/pkg/message"
)

// DefaultMaxFrameSize bounds a single frame when none is configured.
const DefaultMaxFrameSize = 64 * 1024

// Sink receives decoded messages.
type Sink interface {
	Input(node string, msg message.Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(node string, msg message.Message) error

// Input calls f.
func (f SinkFunc) Input(node string, msg message.Message) error { return f(node, msg) }

// ServerConfig configures an ingest server.
type ServerConfig struct {
	// Address to listen on (e.g., ":7420" or "127.0.0.1:0").
	Address string

	// TokenHash is a bcrypt hash. Empty disables authentication.
	TokenHash string

	// MaxFrameSize is the maximum line length (default: 64KB).
	MaxFrameSize int

	// Sink receives every accepted message. Required.
	Sink Sink

	// Logger for operational logging (optional).
	Logger *slog.Logger

	// OnConnect is called when a new connection is established.
	OnConnect func(connID string, remote net.Addr)

	// OnDisconnect is called when a connection is closed.
	OnDisconnect func(connID string)
}

// Server accepts JSON line connections.
type Server struct {
	config   ServerConfig
	listener net.Listener

	conns   map[*serverConn]struct{}
	connsMu sync.Mutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new ingest server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Sink == nil {
		return nil, errors.New("sink is required")
	}
	if config.TokenHash != "" {
		if _, err := bcrypt.Cost([]byte(config.TokenHash)); err != nil {
			return nil, fmt.Errorf("invalid token hash: %w", err)
		}
	}
	if config.MaxFrameSize <= 0 {
		config.MaxFrameSize = DefaultMaxFrameSize
	}
	return &Server{
		config: config,
		conns:  make(map[*serverConn]struct{}),
	}, nil
}

// Start starts listening and accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	s.debugLog("ingest listening", "addr", listener.Addr().String())
	return nil
}

// Stop closes the listener and all connections.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.cancel()
	s.listener.Close()

	s.connsMu.Lock()
	for c := range s.conns {
		c.conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.warnLog("accept failed", "error", err)
			return
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

type serverConn struct {
	conn   net.Conn
	id     string
	authed bool
	token  string
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	c := &serverConn{conn: conn, id: uuid.New().String()}

	s.connsMu.Lock()
	if !s.running.Load() {
		s.connsMu.Unlock()
		conn.Close()
		return
	}
	s.conns[c] = struct{}{}
	s.connsMu.Unlock()

	s.debugLog("connection opened", "conn", c.id, "remote", conn.RemoteAddr().String())
	if s.config.OnConnect != nil {
		s.config.OnConnect(c.id, conn.RemoteAddr())
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-s.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	s.readLoop(c)
	close(done)

	s.connsMu.Lock()
	delete(s.conns, c)
	s.connsMu.Unlock()
	conn.Close()

	s.debugLog("connection closed", "conn", c.id)
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(c.id)
	}
}

func (s *Server) readLoop(c *serverConn) {
	scanner := bufio.NewScanner(c.conn)
	initial := 4096
	if s.config.MaxFrameSize < initial {
		initial = s.config.MaxFrameSize
	}
	scanner.Buffer(make([]byte, 0, initial), s.config.MaxFrameSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		err := s.handleFrame(c, line)
		if err != nil {
			s.debugLog("frame rejected", "conn", c.id, "error", err)
		}
		if _, werr := c.conn.Write(encodeReply(err)); werr != nil {
			return
		}
		if errors.Is(err, ErrUnauthorized) {
			return
		}
	}

	if errors.Is(scanner.Err(), bufio.ErrTooLong) {
		c.conn.Write(encodeReply(ErrFrameTooLarge))
	}
}

func (s *Server) handleFrame(c *serverConn, line []byte) error {
	f, err := DecodeFrame(line)
	if err != nil {
		return err
	}
	if err := s.authorize(c, f.Token); err != nil {
		return err
	}
	msg, err := f.Message()
	if err != nil {
		return err
	}
	return s.config.Sink.Input(f.Node, msg)
}

// authorize checks token against the configured hash. A verified token is
// remembered for the rest of the connection.
func (s *Server) authorize(c *serverConn, token string) error {
	if s.config.TokenHash == "" {
		return nil
	}
	if c.authed && (token == "" || token == c.token) {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.TokenHash), []byte(token)); err != nil {
		return ErrUnauthorized
	}
	c.authed = true
	c.token = token
	return nil
}

func (s *Server) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

func (s *Server) warnLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Warn(msg, args...)
	}
}

// Package transport carries the wire protocol: strict request/reply over
// TCP. A client opens a connection, writes one request (newline-separated
// text fields: session token, operation code, arguments), half-closes, and
// reads exactly one reply. There is no multiplexing and no server push.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chat-relay/dispatch"
	"chat-relay/runtime"
)

const (
	// FieldDelimiter separates request and reply fields. Arguments are
	// delimiter-free by contract; message bodies may contain anything else.
	FieldDelimiter = "\n"

	maxRequestBytes = 16 << 20
	ioTimeout       = 10 * time.Second
)

type Server struct {
	log      *slog.Logger
	dispatch *dispatch.Dispatcher
	sessions *runtime.SessionManager
	addr     string
	grace    time.Duration

	mu       sync.Mutex
	lis      net.Listener
	draining atomic.Bool
}

func NewServer(log *slog.Logger, dispatcher *dispatch.Dispatcher, sessions *runtime.SessionManager, addr string, grace time.Duration) *Server {
	return &Server{
		log:      log,
		dispatch: dispatcher,
		sessions: sessions,
		addr:     addr,
		grace:    grace,
	}
}

// Listen binds the listening socket. Failure to bind is the one fatal
// startup condition; callers should abort on error.
func (s *Server) Listen() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.lis = lis
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Run serves requests until ctx is canceled, then drains: every request
// received during the grace window is answered CouldNotConnect so clients
// can fall back to their login screen, after which the listener closes and
// all session timers are stopped.
//
// Connections are handled to completion one at a time. The transport
// contract is one request fully processed before the next; idle-timeout
// evictions are the only concurrency the state underneath has to absorb.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	lis := s.lis
	s.mu.Unlock()
	if lis == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		lis = s.lis
		s.mu.Unlock()
	}
	s.log.Info("relay listening", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		s.draining.Store(true)
		s.log.Info("draining, refusing requests", "grace", s.grace)
		time.Sleep(s.grace)
		_ = lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if s.draining.Load() {
				s.sessions.StopAll()
				s.log.Info("relay stopped")
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	payload, err := io.ReadAll(io.LimitReader(conn, maxRequestBytes))
	if err != nil {
		s.log.Warn("dropping unreadable request", "err", err)
		return
	}

	var reply string
	switch {
	case s.draining.Load():
		reply = dispatch.Reply{Code: dispatch.ResultCouldNotConnect}.Encode()
	default:
		fields := strings.Split(string(payload), FieldDelimiter)
		if len(fields) < 2 {
			reply = dispatch.Reply{Code: dispatch.ResultBadRequest}.Encode()
		} else {
			reply = s.dispatch.Handle(fields[0], fields[1], fields[2:])
		}
	}
	if _, err := io.WriteString(conn, reply); err != nil {
		s.log.Warn("reply write failed", "err", err)
	}
}

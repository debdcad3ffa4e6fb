package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"unicode/utf8"

	"github.com/handiism/dman/internal/model"
	"github.com/handiism/dman/internal/netstring"
	"golang.org/x/sync/errgroup"
)

// Submitter accepts decoded URLs. *download.Manager implements it.
type Submitter interface {
	Submit(url, destination string) model.JobInfo
}

// Server accepts urldrop connections and submits every URL they carry.
//
// Each connection gets its own netstring.Reader. A framing error closes the
// connection; URLs decoded before the error are still submitted.
type Server struct {
	Submitter Submitter

	// Destination is passed to Submit with every URL. Empty selects the
	// submitter's default.
	Destination string

	// MaxMessageLength bounds a single frame. Zero means unbounded.
	MaxMessageLength int

	Logger *slog.Logger

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed,
// then closes every open connection and waits for their handlers to return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		ln.Close()
		s.closeAll()
		return nil
	})

	g.Go(func() error {
		defer cancel()
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return fmt.Errorf("accepting urldrop connection: %w", err)
			}
			if !s.track(conn) {
				conn.Close()
				return nil
			}
			g.Go(func() error {
				defer s.untrack(conn)
				s.handle(conn)
				return nil
			})
		}
	})

	return g.Wait()
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	reader := netstring.NewReader()
	reader.MaxLength = s.MaxMessageLength
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			msgs, ferr := reader.Feed(buf[:n])
			for _, msg := range msgs {
				s.submit(msg)
			}
			if ferr != nil {
				s.logger().Warn("dropping urldrop connection", "err", ferr)
				return
			}
		}
		if err != nil {
			if reader.State() != netstring.StateReadFirstDigit {
				s.logger().Warn("urldrop connection closed mid-frame", "state", reader.State().String())
			}
			return
		}
	}
}

func (s *Server) submit(msg []byte) {
	if !utf8.Valid(msg) {
		s.logger().Warn("ignoring URL that is not valid UTF-8", "bytes", len(msg))
		return
	}
	if len(msg) == 0 {
		s.logger().Warn("ignoring empty URL")
		return
	}
	url := string(msg)

	info := s.Submitter.Submit(url, s.Destination)
	s.logger().Debug("url received", "url", url, "job", info.ID)
}

// track registers conn and reports false once the server is shutting down.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

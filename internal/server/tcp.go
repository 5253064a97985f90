package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/dmmcquay/goban/internal/logging"
)

const writeTimeout = 10 * time.Second

// lineConn speaks the protocol over a stream: one command or message per
// newline-terminated line.
type lineConn struct {
	conn        net.Conn
	scanner     *bufio.Scanner
	readTimeout time.Duration

	mu sync.Mutex
	w  *bufio.Writer
}

// NewLineConn wraps a stream connection. readTimeout of zero disables the
// idle deadline.
func NewLineConn(conn net.Conn, readTimeout time.Duration) Conn {
	return &lineConn{
		conn:        conn,
		scanner:     bufio.NewScanner(conn),
		readTimeout: readTimeout,
		w:           bufio.NewWriter(conn),
	}
}

func (c *lineConn) Send(lines ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	for _, line := range lines {
		if _, err := c.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return c.w.Flush()
}

func (c *lineConn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(c.scanner.Text(), "\r"), nil
}

func (c *lineConn) Close() error {
	return c.conn.Close()
}

// TCPServer accepts players over plain TCP.
type TCPServer struct {
	addr        string
	readTimeout time.Duration
	hub         *Hub
	logger      logging.ContextLogger

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewTCPServer creates a server for addr. Call Start to listen.
func NewTCPServer(addr string, readTimeout time.Duration, hub *Hub, logger logging.ContextLogger) *TCPServer {
	return &TCPServer{
		addr:        addr,
		readTimeout: readTimeout,
		hub:         hub,
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// Start listens and accepts connections in the background.
func (s *TCPServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.listener = ln
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("Server listening", "addr", ln.Addr().String())
	go s.acceptLoop(ctx, ln)
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *TCPServer) acceptLoop(ctx context.Context, ln net.Listener) {
	defer close(s.done)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			s.logger.Warn("Accept failed", "error", err.Error())
			continue
		}
		go s.hub.Serve(ctx, "tcp", NewLineConn(conn, s.readTimeout))
	}
}

// HealthCheck fails when the listener is not running.
func (s *TCPServer) HealthCheck(context.Context) (map[string]interface{}, error) {
	addr := s.Addr()
	if addr == nil {
		return nil, errors.New("tcp listener not started")
	}
	select {
	case <-s.done:
		return nil, errors.New("tcp listener stopped")
	default:
	}
	return map[string]interface{}{"addr": addr.String(), "connections": s.hub.Connections()}, nil
}

// Stop closes the listener. Player connections are closed by the hub.
func (s *TCPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	ln, cancel := s.listener, s.cancel
	s.mu.Unlock()
	if ln == nil {
		return nil
	}

	s.logger.Info("Stopping TCP server")
	cancel()
	err := ln.Close()
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

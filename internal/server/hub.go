// Package server exposes matches over the network: a TCP line server, a
// WebSocket transport speaking the same protocol, and an HTTP ops server.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/protocol"
	"github.com/dmmcquay/goban/internal/session"
)

// Conn is one player connection, whatever the transport.
type Conn interface {
	session.Player
	// ReadLine blocks for the next command line. It returns io.EOF once the
	// peer has gone.
	ReadLine() (string, error)
	Close() error
}

// ConnRecorder receives connection events. *metrics.PrometheusCollector
// satisfies it.
type ConnRecorder interface {
	ConnectionOpened(transport string)
	ConnectionClosed(transport string)
}

type nopConnRecorder struct{}

func (nopConnRecorder) ConnectionOpened(string) {}
func (nopConnRecorder) ConnectionClosed(string) {}

// Hub seats connections from every transport in the shared lobby and pumps
// their commands into their match.
type Hub struct {
	lobby    *session.Lobby
	logger   logging.ContextLogger
	recorder ConnRecorder

	mu     sync.Mutex
	conns  map[string]Conn
	wg     sync.WaitGroup
	closed bool
}

// NewHub creates a hub in front of lobby. recorder may be nil.
func NewHub(lobby *session.Lobby, logger logging.ContextLogger, recorder ConnRecorder) *Hub {
	if recorder == nil {
		recorder = nopConnRecorder{}
	}
	return &Hub{
		lobby:    lobby,
		logger:   logger,
		recorder: recorder,
		conns:    make(map[string]Conn),
	}
}

// Serve runs c until the peer disconnects or the hub closes. It owns c and
// closes it before returning.
func (h *Hub) Serve(ctx context.Context, transport string, c Conn) {
	id := uuid.NewString()
	if !h.track(id, c) {
		_ = c.Close()
		return
	}
	defer h.untrack(id)
	defer c.Close()

	ctx = logging.ContextWithRequestID(ctx, id)
	logger := h.logger.WithContext(ctx).WithField("transport", transport)
	h.recorder.ConnectionOpened(transport)
	defer h.recorder.ConnectionClosed(transport)
	logger.Info("Player connected")

	match, color, err := h.lobby.Join(id, c)
	if err != nil {
		logger.Warn("Could not seat player", "error", err.Error())
		_ = c.Send(protocol.Error(err))
		return
	}
	logger = logger.WithContext(logging.ContextWithMatchID(ctx, match.ID())).WithField("color", color.String())
	defer match.Disconnect(color)

	for {
		line, err := c.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				logger.Info("Player disconnected")
			} else {
				logger.Warn("Player connection failed", "error", err.Error())
			}
			return
		}
		_ = match.Handle(color, line)
	}
}

func (h *Hub) track(id string, c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[id] = c
	h.wg.Add(1)
	return true
}

func (h *Hub) untrack(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
	h.wg.Done()
}

// Connections returns the number of live connections.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every player and waits for their loops to end.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for _, c := range h.conns {
		_ = c.Close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

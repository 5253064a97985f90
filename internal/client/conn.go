package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/protocol"
	"github.com/dmmcquay/goban/internal/retry"
)

// ServerMsg carries one decoded server message into the bubbletea program.
type ServerMsg protocol.Message

// ProtocolErrMsg reports a server line the client could not decode.
type ProtocolErrMsg struct{ Err error }

// DisconnectedMsg is the last message from a connection. Err is nil when the
// server closed the connection cleanly.
type DisconnectedMsg struct{ Err error }

// Conn is the model's view of a server connection.
type Conn interface {
	Send(line string) error
	Messages() <-chan tea.Msg
}

// Client is a TCP connection to a game server.
type Client struct {
	conn   net.Conn
	logger logging.ContextLogger
	msgs   chan tea.Msg

	mu sync.Mutex
	w  *bufio.Writer
}

// Dial connects to addr, retrying with backoff per cfg, and starts reading.
func Dial(ctx context.Context, addr string, cfg retry.Config, logger logging.ContextLogger) (*Client, error) {
	var d net.Dialer
	m := retry.NewManager(cfg).OnRetry(func(attempt int, delay time.Duration, err error) {
		logger.Warn("Dial failed, retrying", "addr", addr, "attempt", attempt, "delay", delay.String(), "error", err.Error())
	})
	conn, err := retry.Do(ctx, m, func(ctx context.Context) (net.Conn, error) {
		return d.DialContext(ctx, "tcp", addr)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Connected", "addr", addr)
	return NewClient(conn, logger), nil
}

// NewClient wraps an established connection and starts its read loop.
func NewClient(conn net.Conn, logger logging.ContextLogger) *Client {
	c := &Client{
		conn:   conn,
		logger: logger,
		msgs:   make(chan tea.Msg, 64),
		w:      bufio.NewWriter(conn),
	}
	go c.readLoop()
	return c
}

// Messages delivers decoded server messages. It is closed after a
// DisconnectedMsg.
func (c *Client) Messages() <-chan tea.Msg {
	return c.msgs
}

// Send writes one command line.
func (c *Client) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.WriteString(line + "\n"); err != nil {
		return err
	}
	return c.w.Flush()
}

// Close closes the connection; the read loop then ends.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer close(c.msgs)

	var dec protocol.Decoder
	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		line := scanner.Text()
		msg, ok, err := dec.Decode(line)
		switch {
		case err != nil:
			c.logger.Warn("Undecodable server line", "line", line, "error", err.Error())
			c.msgs <- ProtocolErrMsg{Err: err}
		case ok:
			c.msgs <- ServerMsg(msg)
		}
	}

	err := scanner.Err()
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		err = nil
	}
	c.logger.Info("Disconnected")
	c.msgs <- DisconnectedMsg{Err: err}
}

package server

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmmcquay/goban/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn carries the protocol over WebSocket: one line per text frame.
type wsConn struct {
	conn        *websocket.Conn
	readTimeout time.Duration

	mu sync.Mutex
}

// NewWSConn wraps an upgraded WebSocket connection.
func NewWSConn(conn *websocket.Conn, readTimeout time.Duration) Conn {
	return &wsConn{conn: conn, readTimeout: readTimeout}
}

func (c *wsConn) Send(lines ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	for _, line := range lines {
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return err
		}
	}
	return nil
}

func (c *wsConn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", err
		}
		if kind == websocket.TextMessage {
			return strings.TrimSpace(string(data)), nil
		}
	}
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.mu.Unlock()
	return c.conn.Close()
}

// WebSocketHandler upgrades requests and hands the connection to hub.
func WebSocketHandler(hub *Hub, readTimeout time.Duration, logger logging.ContextLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("WebSocket upgrade failed", "error", err.Error())
			return
		}
		ctx := logging.ContextWithCorrelationID(r.Context(), logging.GenerateCorrelationID())
		hub.Serve(ctx, "websocket", NewWSConn(conn, readTimeout))
	}
}

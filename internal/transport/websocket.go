package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsConn wraps a websocket connection with a write lock. gorilla/websocket
// allows at most one concurrent writer per connection.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// WSTransport implements Transport over client WebSocket connections.
type WSTransport struct {
	logger  *zap.Logger
	dialer  *websocket.Dialer
	handler Handler

	mu    sync.RWMutex
	conns map[string]*wsConn
}

var _ Transport = (*WSTransport)(nil)

// NewWSTransport creates a new WebSocket transport. The event handler is
// registered afterwards with SetHandler.
func NewWSTransport(logger *zap.Logger) *WSTransport {
	return &WSTransport{
		logger: logger.Named("transport.ws"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		conns: make(map[string]*wsConn),
	}
}

// SetHandler registers the handler receiving inbound events.
func (t *WSTransport) SetHandler(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Connect implements Transport.Connect
func (t *WSTransport) Connect(ctx context.Context, url string, headers http.Header, name string) (string, error) {
	id := name
	if id == "" {
		id = uuid.NewString()
	}

	conn, resp, err := t.dialer.DialContext(ctx, url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("failed to dial %s: %w", url, err)
	}

	wc := &wsConn{conn: conn}

	t.mu.Lock()
	if old, exists := t.conns[id]; exists {
		// A stale connection under the same id is replaced, not leaked
		t.logger.Warn("replacing existing connection", zap.String("connectionID", id))
		_ = old.conn.Close()
	}
	t.conns[id] = wc
	t.mu.Unlock()

	go t.readPump(id, wc)

	t.logger.Debug("connection established", zap.String("connectionID", id), zap.String("url", url))
	return id, nil
}

// SendText implements Transport.SendText
func (t *WSTransport) SendText(_ context.Context, connectionID, text string) error {
	t.mu.RLock()
	wc, ok := t.conns[connectionID]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection %q not found", connectionID)
	}

	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	if err := wc.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("failed to send text frame on %q: %w", connectionID, err)
	}
	return nil
}

// Close implements Transport.Close
func (t *WSTransport) Close(_ context.Context, connectionID string, code int, reason string) error {
	t.mu.Lock()
	wc, ok := t.conns[connectionID]
	delete(t.conns, connectionID)
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("connection %q not found", connectionID)
	}

	// Best-effort close frame before tearing down the socket
	wc.writeMu.Lock()
	_ = wc.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second),
	)
	wc.writeMu.Unlock()

	if err := wc.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection %q: %w", connectionID, err)
	}
	return nil
}

// readPump delivers inbound frames and terminal events for one connection.
// It exits when the connection errors, is closed by the peer, or is removed
// locally via Close.
func (t *WSTransport) readPump(id string, wc *wsConn) {
	for {
		msgType, data, err := wc.conn.ReadMessage()
		if err != nil {
			// A locally closed connection was already removed; no event
			if !t.remove(id, wc) {
				return
			}

			handler := t.currentHandler()
			var closeErr *websocket.CloseError
			switch {
			case errors.As(err, &closeErr):
				t.logger.Debug("connection closed by peer",
					zap.String("connectionID", id),
					zap.Int("code", closeErr.Code),
					zap.String("reason", closeErr.Text))
				if handler != nil {
					handler.OnClose(id, closeErr.Code, closeErr.Text)
				}
			default:
				t.logger.Debug("connection read error",
					zap.String("connectionID", id),
					zap.Error(err))
				if handler != nil {
					handler.OnError(id, err.Error())
				}
			}
			_ = wc.conn.Close()
			return
		}

		if msgType != websocket.TextMessage {
			t.logger.Debug("ignoring non-text frame", zap.String("connectionID", id))
			continue
		}
		if handler := t.currentHandler(); handler != nil {
			handler.OnText(id, string(data))
		}
	}
}

// remove unregisters the connection and reports whether it was still the
// registered connection for that id.
func (t *WSTransport) remove(id string, wc *wsConn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.conns[id]
	if !ok || current != wc {
		return false
	}
	delete(t.conns, id)
	return true
}

func (t *WSTransport) currentHandler() Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handler
}

// CloseAll tears down every open connection. Used on shutdown.
func (t *WSTransport) CloseAll() {
	t.mu.Lock()
	conns := t.conns
	t.conns = make(map[string]*wsConn)
	t.mu.Unlock()

	for id, wc := range conns {
		_ = wc.conn.Close()
		t.logger.Debug("closed connection on shutdown", zap.String("connectionID", id))
	}
}

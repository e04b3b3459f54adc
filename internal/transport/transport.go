// Package transport provides the real-time duplex connection collaborator.
// Connections are addressed by a caller-chosen id; inbound frames and
// close/error events are delivered asynchronously through a Handler, each
// carrying only the connection id.
package transport

import (
	"context"
	"net/http"
)

// Handler receives asynchronous events for open connections.
type Handler interface {
	// OnText is invoked for every inbound text frame.
	OnText(connectionID, message string)

	// OnError is invoked when a connection fails.
	OnError(connectionID, errMsg string)

	// OnClose is invoked when the peer closes the connection.
	OnClose(connectionID string, code int, reason string)
}

// Transport opens named duplex connections and sends text frames.
type Transport interface {
	// Connect opens a connection to url and returns its connection id.
	// When name is non-empty it is used as the connection id.
	Connect(ctx context.Context, url string, headers http.Header, name string) (string, error)

	// SendText sends a text frame on an open connection.
	SendText(ctx context.Context, connectionID, text string) error

	// Close closes a connection with a status code and reason.
	Close(ctx context.Context, connectionID string, code int, reason string) error
}

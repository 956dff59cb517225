// Package wsclient provides a callback-driven WebSocket text client.
//
// A Client owns one connection and a single read goroutine. Every text frame
// read from the connection is handed to the registered Listeners on that
// goroutine, so listeners run off the caller's goroutine and must not block.
package wsclient

import (
	"context"

	"github.com/coder/websocket"
)

// Conn defines the interface for a WebSocket connection.
// This abstraction enables testing with mock connections.
type Conn interface {
	// Read reads a message from the connection.
	// Returns message type, payload, and any error.
	Read(ctx context.Context) (websocket.MessageType, []byte, error)

	// Write writes a message to the connection.
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error

	// Close closes the connection with a status code and reason.
	Close(code websocket.StatusCode, reason string) error
}

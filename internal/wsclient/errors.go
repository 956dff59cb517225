package wsclient

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when an operation is attempted on a closed client.
var ErrClosed = errors.New("client is closed")

// ConnectionError reports a failure to establish the connection.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SendError reports a failed text frame write.
type SendError struct {
	Text string
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send %q: %v", e.Text, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// ListenerPanicError is recorded as the client error when a listener panics.
type ListenerPanicError struct {
	Value any
}

func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("listener panicked: %v", e.Value)
}

package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// pipeConn is an in-memory wsclient.Conn fed by deliver.
type pipeConn struct {
	frames    chan []byte
	closeOnce sync.Once
	closeCh   chan struct{}
}

func newPipeConn() *pipeConn {
	return &pipeConn{
		frames:  make(chan []byte, 16),
		closeCh: make(chan struct{}),
	}
}

func (p *pipeConn) deliver(text string) {
	p.frames <- []byte(text)
}

func (p *pipeConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case data := <-p.frames:
		return websocket.MessageText, data, nil
	case <-p.closeCh:
		return 0, nil, errors.New("connection closed")
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (p *pipeConn) Write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	return nil
}

func (p *pipeConn) Close(code websocket.StatusCode, reason string) error {
	p.closeOnce.Do(func() { close(p.closeCh) })
	return nil
}

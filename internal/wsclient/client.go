package wsclient

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// DefaultTimeout bounds Send when the caller does not supply a context.
const DefaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*options)

type options struct {
	listeners []Listener
	debugLog  func(format string, args ...any)
	readLimit int64
	header    http.Header
}

// WithListener registers l before the read loop starts, so no frame
// arriving right after the handshake is missed.
func WithListener(l Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, l)
	}
}

// WithDebug enables debug logging through the standard logger.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		if enabled {
			o.debugLog = func(format string, args ...any) {
				log.Printf("[WSCLIENT] "+format, args...)
			}
		}
	}
}

// WithReadLimit sets the maximum frame size accepted by Dial'd connections.
func WithReadLimit(n int64) Option {
	return func(o *options) {
		o.readLimit = n
	}
}

// WithHTTPHeader sets extra headers sent with the opening handshake.
func WithHTTPHeader(h http.Header) Option {
	return func(o *options) {
		o.header = h
	}
}

func buildOptions(opts []Option) options {
	o := options{
		debugLog: func(format string, args ...any) {},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client is a WebSocket text client that delivers incoming frames to listeners.
type Client struct {
	conn     Conn
	writeMu  sync.Mutex
	debugLog func(format string, args ...any)

	listeners listenerSet

	// closed signals that the client is shutting down
	closed    atomic.Bool
	closedCh  chan struct{}
	closeOnce sync.Once
	closeErr  error
	closeMu   sync.Mutex

	connOnce sync.Once

	// done signals that the read loop has exited
	done chan struct{}
}

// NewClient creates a new client with the given connection and starts reading.
func NewClient(conn Conn, opts ...Option) *Client {
	o := buildOptions(opts)
	c := &Client{
		conn:     conn,
		debugLog: o.debugLog,
		closedCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, l := range o.listeners {
		c.listeners.add(l)
	}
	go c.readLoop()
	return c
}

// Dial performs the opening handshake with wsURL and returns a new client.
// Handshake and network failures are reported as *ConnectionError.
func Dial(ctx context.Context, wsURL string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: o.header,
	})
	if err != nil {
		return nil, &ConnectionError{URL: wsURL, Err: err}
	}
	if o.readLimit > 0 {
		conn.SetReadLimit(o.readLimit)
	}
	o.debugLog("connected to %s", wsURL)

	return NewClient(conn, opts...), nil
}

// AddListener registers a listener for text frames and returns the client.
// Frames that arrived before registration are not replayed.
func (c *Client) AddListener(l Listener) *Client {
	c.listeners.add(l)
	return c
}

// SendText writes each text as its own frame, in argument order.
// It does not wait for any reply. The first failure stops the sequence
// and is returned as *SendError.
func (c *Client) SendText(ctx context.Context, texts ...string) error {
	for _, text := range texts {
		if c.closed.Load() {
			return &SendError{Text: text, Err: ErrClosed}
		}

		c.writeMu.Lock()
		err := c.conn.Write(ctx, websocket.MessageText, []byte(text))
		c.writeMu.Unlock()
		if err != nil {
			return &SendError{Text: text, Err: err}
		}
		c.debugLog("sent %q", text)
	}
	return nil
}

// Send is SendText bounded by DefaultTimeout.
func (c *Client) Send(texts ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return c.SendText(ctx, texts...)
}

// Closed returns a channel that is closed once the client stops delivering frames.
func (c *Client) Closed() <-chan struct{} {
	return c.closedCh
}

// Close closes the connection and waits for the read loop to exit.
// Calling Close more than once is safe.
func (c *Client) Close() error {
	first := c.markClosed(nil)

	var err error
	c.connOnce.Do(func() {
		err = c.conn.Close(websocket.StatusNormalClosure, "client closing")
	})

	<-c.done

	if !first {
		return nil
	}
	return err
}

// Disconnect is an alias for Close.
func (c *Client) Disconnect() error {
	return c.Close()
}

// Err returns any error that caused the client to close.
func (c *Client) Err() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closeErr
}

// markClosed transitions the client to closed, recording err.
// Returns true for the call that performed the transition.
func (c *Client) markClosed(err error) bool {
	first := false
	c.closeOnce.Do(func() {
		first = true
		c.closeMu.Lock()
		c.closeErr = err
		c.closeMu.Unlock()
		c.closed.Store(true)
		close(c.closedCh)
	})
	return first
}

// readLoop reads frames from the connection and dispatches text frames.
func (c *Client) readLoop() {
	defer close(c.done)

	ctx := context.Background()
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			if c.markClosed(err) {
				c.debugLog("read loop stopped: %v", err)
			}
			return
		}

		if typ != websocket.MessageText {
			continue
		}

		if err := c.dispatch(string(data)); err != nil {
			c.debugLog("%v", err)
			c.markClosed(err)
			c.connOnce.Do(func() {
				_ = c.conn.Close(websocket.StatusInternalError, "listener failed")
			})
			return
		}
	}
}

// dispatch calls every listener with text. A listener panic is returned
// as an error so it surfaces through Err instead of killing the process.
func (c *Client) dispatch(text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatching text frame: %w", &ListenerPanicError{Value: r})
		}
	}()

	c.debugLog("received %q", text)
	c.listeners.call(c, text)
	return nil
}

// listenerSet manages a thread-safe list of listeners.
type listenerSet struct {
	mu        sync.RWMutex
	listeners []Listener
}

func (s *listenerSet) add(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *listenerSet) call(c *Client, text string) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, l := range listeners {
		l.OnTextMessage(c, text)
	}
}

// Package scenario drives send-and-await-echo checks against a WebSocket
// endpoint: connect once, then for each scenario clear the registry, send,
// wait for the expected number of frames and compare them with what was sent.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/grantcarthew/wsecho/internal/events"
	"github.com/grantcarthew/wsecho/internal/poll"
	"github.com/grantcarthew/wsecho/internal/wsclient"
)

const (
	DefaultTimeout     = 1000 * time.Millisecond
	DefaultInterval    = 250 * time.Millisecond
	DefaultDialTimeout = 10 * time.Second
)

// Config holds session configuration.
type Config struct {
	URL         string        // Endpoint to connect to
	Timeout     time.Duration // Default wait per scenario
	Interval    time.Duration // Default poll interval per scenario
	DialTimeout time.Duration // Handshake timeout
	Debug       bool          // Enable debug logging
}

// Scenario is one send-and-wait case.
type Scenario struct {
	Name     string
	Messages []string

	// Expect is the registry length to wait for. Zero means len(Messages).
	Expect int

	// Timeout and Interval override the session defaults when non-zero.
	Timeout  time.Duration
	Interval time.Duration
}

// Result describes a finished scenario.
type Result struct {
	Name     string        `json:"name,omitempty"`
	Sent     []string      `json:"sent"`
	Received []string      `json:"received"`
	Elapsed  time.Duration `json:"elapsed"`
}

// MismatchError reports echoed frames that differ from the sent ones.
type MismatchError struct {
	Sent     []string
	Received []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected [%s], got [%s]", strings.Join(e.Sent, " "), strings.Join(e.Received, " "))
}

// LenEquals is satisfied when the registry holds exactly n messages.
func LenEquals(n int) poll.Condition[*events.Registry] {
	return func(r *events.Registry) bool {
		return r.Len() == n
	}
}

// Session is an open connection with a registry attached to it.
type Session struct {
	config   Config
	client   *wsclient.Client
	registry *events.Registry
	debugLog func(format string, args ...any)
}

// Open connects to cfg.URL and attaches a registering listener.
// A handshake failure is returned as *wsclient.ConnectionError.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.URL == "" {
		return nil, errors.New("URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}

	s := &Session{
		config:   cfg,
		registry: events.NewRegistry(),
	}
	if cfg.Debug {
		s.debugLog = func(format string, args ...any) {
			log.Printf("[SCENARIO] "+format, args...)
		}
	} else {
		s.debugLog = func(format string, args ...any) {}
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	client, err := wsclient.Dial(dialCtx, cfg.URL,
		wsclient.WithListener(events.NewRegisteringListener(s.registry)),
		wsclient.WithDebug(cfg.Debug),
	)
	if err != nil {
		return nil, err
	}
	s.client = client

	s.debugLog("session opened: %s", cfg.URL)
	return s, nil
}

// Registry returns the registry fed by the session's listener.
func (s *Session) Registry() *events.Registry {
	return s.registry
}

// Client returns the underlying connection.
func (s *Session) Client() *wsclient.Client {
	return s.client
}

// Run clears the registry, sends sc.Messages and waits until the registry
// holds sc.Expect messages. When Expect equals the number sent, the received
// messages must match the sent ones in order.
//
// Send failures, timeouts and interruptions are returned unchanged so
// callers can match them with errors.As / errors.Is.
func (s *Session) Run(ctx context.Context, sc Scenario) (Result, error) {
	expect := sc.Expect
	if expect == 0 {
		expect = len(sc.Messages)
	}
	timeout := sc.Timeout
	if timeout == 0 {
		timeout = s.config.Timeout
	}
	interval := sc.Interval
	if interval == 0 {
		interval = s.config.Interval
	}

	res := Result{
		Name: sc.Name,
		Sent: slices.Clone(sc.Messages),
	}

	s.registry.Clear()
	start := time.Now()

	if err := s.client.SendText(ctx, sc.Messages...); err != nil {
		return res, err
	}
	s.debugLog("%s: sent %d, waiting for %d", sc.Name, len(sc.Messages), expect)

	err := poll.ForCondition(ctx, s.registry, LenEquals(expect), timeout, interval)
	res.Elapsed = time.Since(start)
	res.Received = s.registry.Messages()

	if err != nil {
		if clientErr := s.client.Err(); clientErr != nil && errors.Is(err, poll.ErrTimeout) {
			return res, errors.Join(err, fmt.Errorf("connection closed: %w", clientErr))
		}
		return res, err
	}

	if expect == len(sc.Messages) && !slices.Equal(res.Received, sc.Messages) {
		return res, &MismatchError{Sent: res.Sent, Received: res.Received}
	}

	s.debugLog("%s: satisfied in %s", sc.Name, res.Elapsed)
	return res, nil
}

// Close disconnects the session.
func (s *Session) Close() error {
	s.debugLog("session closed")
	return s.client.Disconnect()
}

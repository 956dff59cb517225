// Package echo provides a WebSocket endpoint that writes every frame back
// to its sender. It stands in for a public echo service so scenarios can run
// without network access.
package echo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engine selects the WebSocket implementation used by the server.
type Engine string

const (
	EngineCoder   Engine = "coder"
	EngineGorilla Engine = "gorilla"
)

// Config holds server configuration.
type Config struct {
	Host   string // Bind host (default "localhost")
	Port   int    // Server port (0 = OS-assigned)
	Path   string // Endpoint path (default "/")
	Engine Engine // WebSocket implementation (default coder)
	Debug  bool   // Enable debug logging
}

// Server is a WebSocket echo server.
type Server struct {
	config   Config
	httpSrv  *http.Server
	listener net.Listener
	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	group    *errgroup.Group
	groupCtx context.Context
	conns    sync.WaitGroup
	debugLog func(format string, args ...any)
}

// New creates a new server with the given configuration.
func New(cfg Config) (*Server, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineCoder
	}

	s := &Server{
		config: cfg,
	}

	if cfg.Debug {
		s.debugLog = func(format string, args ...any) {
			log.Printf("[ECHO] "+format, args...)
		}
	} else {
		s.debugLog = func(format string, args ...any) {}
	}

	return s, nil
}

// validateConfig validates the server configuration.
func validateConfig(cfg Config) error {
	switch cfg.Engine {
	case "", EngineCoder, EngineGorilla:
	default:
		return fmt.Errorf("invalid engine: %s (must be 'coder' or 'gorilla')", cfg.Engine)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Path != "" && cfg.Path[0] != '/' {
		return fmt.Errorf("path must start with '/': %s", cfg.Path)
	}
	return nil
}

// Start starts listening and serving in the background.
// Cancelling ctx closes open WebSocket connections; Stop is still required
// to release the listener.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	baseCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	mux := http.NewServeMux()
	mux.Handle(s.config.Path, s.track(s.handler()))

	s.httpSrv = &http.Server{
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
		IdleTimeout: 120 * time.Second,
	}

	g, gctx := errgroup.WithContext(baseCtx)
	s.group = g
	s.groupCtx = gctx

	httpSrv := s.httpSrv
	url := s.urlLocked()
	g.Go(func() error {
		s.debugLog("%s echo server started on %s", s.config.Engine, url)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.debugLog("HTTP server error: %v", err)
			return err
		}
		return nil
	})

	s.running = true
	return nil
}

// Serve runs the server until ctx is cancelled or serving fails,
// then shuts it down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-s.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Done returns a channel that is closed when the Start context is cancelled
// or serving fails. It returns nil before Start.
func (s *Server) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.groupCtx == nil {
		return nil
	}
	return s.groupCtx.Done()
}

// Stop closes the listener and all open WebSocket connections.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel, httpSrv, group := s.cancel, s.httpSrv, s.group
	s.mu.Unlock()

	var errs []error

	// Hijacked connections are not tracked by Shutdown; cancel them.
	cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
	}

	s.conns.Wait()

	if err := group.Wait(); err != nil {
		errs = append(errs, fmt.Errorf("serve failed: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("stop errors: %v", errs)
	}

	s.debugLog("Server stopped")
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the server's listening port.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return 0
	}
	addr := s.listener.Addr().(*net.TCPAddr)
	return addr.Port
}

// URL returns the ws:// URL of the echo endpoint.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.urlLocked()
}

func (s *Server) urlLocked() string {
	if s.listener == nil {
		return ""
	}

	addr := s.listener.Addr().(*net.TCPAddr)
	host := addr.IP.String()
	if addr.IP.IsUnspecified() {
		host = "localhost"
	}
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(host, strconv.Itoa(addr.Port)), s.config.Path)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Server) handler() http.Handler {
	if s.config.Engine == EngineGorilla {
		return newGorillaHandler(s.debugLog)
	}
	return newCoderHandler(s.debugLog)
}

// track lets Stop wait for in-flight connections.
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.conns.Add(1)
		defer s.conns.Done()
		next.ServeHTTP(w, r)
	})
}

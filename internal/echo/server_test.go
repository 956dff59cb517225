package echo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	gorilla "github.com/gorilla/websocket"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewServer(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "defaults",
			config:  Config{},
			wantErr: false,
		},
		{
			name:    "gorilla engine",
			config:  Config{Engine: EngineGorilla, Path: "/echo"},
			wantErr: false,
		},
		{
			name:    "invalid engine",
			config:  Config{Engine: "invalid"},
			wantErr: true,
		},
		{
			name:    "invalid port",
			config:  Config{Port: 70000},
			wantErr: true,
		},
		{
			name:    "relative path",
			config:  Config{Path: "echo"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	cfg.Host = "127.0.0.1"
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			t.Errorf("Failed to stop server: %v", err)
		}
	})
	return srv
}

func TestServer_EchoesWithCoderClient(t *testing.T) {
	for _, engine := range []Engine{EngineCoder, EngineGorilla} {
		t.Run(string(engine), func(t *testing.T) {
			srv := startServer(t, Config{Engine: engine, Path: "/echo"})

			if !strings.HasPrefix(srv.URL(), "ws://127.0.0.1:") || !strings.HasSuffix(srv.URL(), "/echo") {
				t.Fatalf("unexpected URL: %s", srv.URL())
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, _, err := websocket.Dial(ctx, srv.URL(), nil)
			if err != nil {
				t.Fatalf("dial failed: %v", err)
			}
			defer conn.Close(websocket.StatusNormalClosure, "")

			for _, msg := range []string{"Foq", "Feq", "Fuq"} {
				if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
					t.Fatalf("write failed: %v", err)
				}
			}
			for _, want := range []string{"Foq", "Feq", "Fuq"} {
				typ, data, err := conn.Read(ctx)
				if err != nil {
					t.Fatalf("read failed: %v", err)
				}
				if typ != websocket.MessageText || string(data) != want {
					t.Errorf("expected text %q, got %v %q", want, typ, data)
				}
			}
		})
	}
}

func TestServer_EchoesBinaryWithGorillaClient(t *testing.T) {
	srv := startServer(t, Config{})

	conn, _, err := gorilla.DefaultDialer.Dial(srv.URL(), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	payload := []byte{0x00, 0x01, 0xfe}
	if err := conn.WriteMessage(gorilla.BinaryMessage, payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if typ != gorilla.BinaryMessage || string(data) != string(payload) {
		t.Errorf("expected binary echo %v, got %d %v", payload, typ, data)
	}
}

func TestServer_StopClosesOpenConnections(t *testing.T) {
	for _, engine := range []Engine{EngineCoder, EngineGorilla} {
		t.Run(string(engine), func(t *testing.T) {
			srv, err := New(Config{Host: "127.0.0.1", Engine: engine})
			if err != nil {
				t.Fatalf("Failed to create server: %v", err)
			}
			if err := srv.Start(context.Background()); err != nil {
				t.Fatalf("Failed to start server: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, _, err := websocket.Dial(ctx, srv.URL(), nil)
			if err != nil {
				t.Fatalf("dial failed: %v", err)
			}
			defer conn.CloseNow()

			if err := srv.Stop(ctx); err != nil {
				t.Fatalf("stop failed: %v", err)
			}
			if srv.IsRunning() {
				t.Error("expected server to report not running")
			}

			if _, _, err := conn.Read(ctx); err == nil {
				t.Error("expected read to fail after server stop")
			}
		})
	}
}

func TestServer_StartTwice(t *testing.T) {
	srv := startServer(t, Config{})

	if err := srv.Start(context.Background()); err == nil {
		t.Error("expected error starting a running server")
	}
	if srv.Port() == 0 || srv.Addr() == "" {
		t.Errorf("expected bound address, got %q port %d", srv.Addr(), srv.Port())
	}
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	srv, err := New(Config{Host: "127.0.0.1"})
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !srv.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_URLBeforeStart(t *testing.T) {
	srv, err := New(Config{})
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if srv.URL() != "" || srv.Port() != 0 || srv.Addr() != "" {
		t.Error("expected empty address before start")
	}
	if err := srv.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle server returned error: %v", err)
	}
}

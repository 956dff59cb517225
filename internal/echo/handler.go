package echo

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	gorilla "github.com/gorilla/websocket"
)

// newCoderHandler echoes frames using github.com/coder/websocket.
func newCoderHandler(debugLog func(format string, args ...any)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			debugLog("accept failed: %v", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		debugLog("client connected: %s", r.RemoteAddr)

		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
					debugLog("client disconnected: %s", r.RemoteAddr)
				} else if !errors.Is(err, context.Canceled) {
					debugLog("read failed: %v", err)
				}
				return
			}
			if err := conn.Write(ctx, typ, data); err != nil {
				debugLog("write failed: %v", err)
				return
			}
			debugLog("echoed %d bytes", len(data))
		}
	})
}

var upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newGorillaHandler echoes frames using github.com/gorilla/websocket.
func newGorillaHandler(debugLog func(format string, args ...any)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			debugLog("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		// gorilla has no context support; close the connection to unblock
		// ReadMessage when the server shuts down.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-r.Context().Done():
				conn.Close()
			case <-done:
			}
		}()

		debugLog("client connected: %s", r.RemoteAddr)

		for {
			typ, data, err := conn.ReadMessage()
			if err != nil {
				if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
					debugLog("client disconnected: %s", r.RemoteAddr)
				} else {
					debugLog("read failed: %v", err)
				}
				return
			}
			if err := conn.WriteMessage(typ, data); err != nil {
				debugLog("write failed: %v", err)
				return
			}
			debugLog("echoed %d bytes", len(data))
		}
	})
}

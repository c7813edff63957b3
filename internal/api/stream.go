// WebSocket event stream: pushes region events to connected clients as
// they happen, with a catch-up burst of recent events on connect.
package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const maxStreamConns = 16

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origins are filtered by corsMiddleware; the upgrade itself
	// accepts any origin so CLI clients work.
	CheckOrigin: func(r *http.Request) bool { return true },
}

var streamConns int32

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&streamConns, 1)
	if current > maxStreamConns {
		atomic.AddInt32(&streamConns, -1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&streamConns, -1)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch, cancel := s.Sim.Region.Bus().Subscribe()
	defer cancel()

	// Catch-up: send the most recent events before streaming live ones.
	for _, e := range s.Sim.Region.Events(50) {
		if err := conn.WriteJSON(e); err != nil {
			return
		}
	}

	slog.Info("stream client connected", "remote", r.RemoteAddr)

	// Reader goroutine: drains client frames and surfaces disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-done:
			slog.Info("stream client disconnected", "remote", r.RemoteAddr)
			return
		}
	}
}

// Package server exposes HTTP handlers, including WebSocket upgrades and
// health checks.
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// WebSocketHandler upgrades GET requests to WebSocket, assigns the
// connection a fresh id and registers it with the hub, which starts the
// client's read/write pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, s.hub, r.RemoteAddr, s.cfg)

	if !s.hub.Register(client) {
		s.logger.Warn("Rejecting connection during shutdown", "addr", r.RemoteAddr)
		if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.logger.Warn("Error closing rejected connection", "error", err)
		}
	}
}

// HealthHandler provides a simple health check endpoint that returns server
// status and the number of connected participants.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Heyframe chat server is running! Online: %d", s.router.Count())
}

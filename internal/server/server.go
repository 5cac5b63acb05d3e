// Package server wires the chat Router, the Hub and the HTTP handlers
// into a single Server value.
package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/heyframe/internal/chat"
)

// Server is the WebSocket transport for one chat Router.
type Server struct {
	cfg      Config
	router   *chat.Router
	hub      *Hub
	origins  *originPolicy
	upgrader websocket.Upgrader
	logger   *slog.Logger
	start    sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for the server, its hub and its clients.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRouter uses an existing Router instead of creating one.
func WithRouter(router *chat.Router) Option {
	return func(s *Server) {
		s.router = router
	}
}

// New builds a Server from cfg. A nil cfg uses defaults.
func New(cfg *Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = NewConfig()
	}
	s := &Server{
		cfg:    cfg.sanitize(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.router == nil {
		s.router = chat.NewRouter(chat.WithLogger(s.logger))
	}
	s.hub = NewHub(s.router, s.logger)
	s.origins = newOriginPolicy(s.cfg.AllowedOrigins, s.logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	return s
}

// Config returns the sanitized configuration in use.
func (s *Server) Config() Config {
	return s.cfg
}

// Router returns the chat core behind this server.
func (s *Server) Router() *chat.Router {
	return s.router
}

// Hub returns the connection hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start runs the hub event loop. It must be called before serving
// WebSocket requests; later calls are no-ops.
func (s *Server) Start() {
	s.start.Do(func() {
		go s.hub.Run()
		s.logger.Info("Hub started and ready to manage WebSocket connections")
	})
}

// Shutdown closes every client connection and waits for their goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.hub.Shutdown(ctx)
}

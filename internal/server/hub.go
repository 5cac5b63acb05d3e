// Package server coordinates client registration, pump goroutines, and
// connection cleanup for the chat WebSocket system via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Tyrowin/heyframe/internal/chat"
)

// Hub owns the transport side of every connection: it hands new clients to
// the Router, runs their read/write pumps, and tears them down on
// disconnect or shutdown. Registration and unregistration are processed
// one at a time by Run.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	router     *chat.Router
	logger     *slog.Logger
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub that forwards connection lifecycle events to router.
func NewHub(router *chat.Router, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		router:     router,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register hands a freshly upgraded client to the hub. It returns false if
// the hub is shutting down, in which case the caller must close the
// connection itself.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister removes a client whose read pump has ended.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
		// Run is gone; release the client directly.
		h.router.Disconnect(client.id)
		client.Close()
	}
}

// ClientCount returns the number of clients the hub is running pumps for.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run starts the hub's main event loop. It returns after Shutdown is
// called and every client connection has been closed.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.logger.Warn("Received nil client registration; skipping")
				continue
			}
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if err := h.router.Connect(client); err != nil {
		h.logger.Error("Router rejected connection", "conn", client.id, "error", err)
		client.Close()
		h.closeClientConn(client)
		return
	}

	h.mutex.Lock()
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()
	h.logger.Debug("Client pumps starting", "conn", client.id, "addr", client.addr, "clients", clientCount)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mutex.Unlock()

	if !ok {
		return
	}
	h.router.Disconnect(client.id)
	client.Close()
}

// shutdownClients closes every live socket. The read pumps then fail,
// unregister through the ctx.Done path and release their write pumps.
func (h *Hub) shutdownClients() {
	h.logger.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.mutex.Unlock()

	for _, client := range clients {
		h.closeClientConn(client)
	}

	h.logger.Info("Closed client connections", "count", len(clients))
}

func (h *Hub) closeClientConn(client *Client) {
	if client.conn == nil {
		return
	}
	if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
		h.logger.Warn("Error closing client connection", "conn", client.id, "error", err)
	}
}

// Shutdown initiates graceful shutdown of the hub and waits for all pump
// goroutines to finish or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info("Initiating hub shutdown...")

	h.cancel()

	select {
	case <-h.done:
	case <-ctx.Done():
		h.logger.Warn("Hub shutdown timeout reached before the event loop stopped")
		return ctx.Err()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Hub shutdown completed successfully")
		return nil
	case <-ctx.Done():
		h.logger.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return ctx.Err()
	}
}

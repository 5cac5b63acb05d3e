// Package server manages individual WebSocket clients, handling read/write
// pumps, request acknowledgement, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Tyrowin/heyframe/internal/chat"
	"github.com/Tyrowin/heyframe/internal/protocol"
)

// Client is one WebSocket connection. It is the chat.Conn handed to the
// Router: Deliver queues encoded frames on the buffered send channel and
// the write pump drains them to the socket.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	router         *chat.Router
	addr           string
	maxMessageSize int64
	limiter        *rate.Limiter
	logger         *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ chat.Conn = (*Client)(nil)

// NewClient creates a Client for conn. The send channel is buffered to
// SendBufferSize frames; a client that falls further behind is evicted by
// the Router.
func NewClient(id string, conn *websocket.Conn, hub *Hub, addr string, cfg Config) *Client {
	cfg = cfg.sanitize()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	c := &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, cfg.SendBufferSize),
		hub:            hub,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
		limiter:        newRateLimiter(cfg.RateLimit),
		logger:         slog.Default(),
	}
	if hub != nil {
		c.router = hub.router
		c.logger = hub.logger
	}
	c.logger = c.logger.With("conn", id, "addr", addr)
	return c
}

// ID returns the connection id assigned at upgrade time.
func (c *Client) ID() string {
	return c.id
}

// GetSendChan returns the client's send channel for reading outgoing frames.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// Deliver encodes ev and queues it without blocking.
func (c *Client) Deliver(ev chat.Event) bool {
	frame, err := protocol.Encode(ev)
	if err != nil {
		// Not the connection's fault; drop the event but keep the client.
		c.logger.Error("Failed to encode event", "event", ev.Name, "error", err)
		return true
	}
	return c.enqueue(frame)
}

// Close stops further deliveries and lets the write pump send a close
// frame. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("Error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Warn("Error setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// handleReadError logs appropriate error messages based on the error type
// and returns true if the read loop should break
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, websocket.ErrReadLimit) {
		c.logger.Warn("Frame exceeded maximum size", "limit", c.maxMessageSize)
		return true
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		c.logger.Info("Client disconnected", "reason", err)
		return true
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		c.logger.Info("Client connection closed", "reason", err)
		return true
	}

	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig) {
		c.logger.Warn("Unexpected WebSocket close", "error", err)
		return true
	}

	c.logger.Warn("WebSocket read error", "error", err)
	return true
}

// checkRateLimit reports whether the next frame may be processed.
func (c *Client) checkRateLimit() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// processMessage decodes one inbound frame and dispatches it to the Router.
// It returns false when the frame was dropped.
func (c *Client) processMessage(raw []byte) bool {
	env, err := protocol.Decode(raw)
	if err != nil {
		c.logger.Warn("Invalid frame", "error", err)
		return false
	}

	switch env.Event {
	case protocol.EventSetNickname:
		c.handleSetNickname(env)
	case protocol.EventSendMessage:
		c.handleSendMessage(env)
	default:
		c.logger.Warn("Unknown event", "event", env.Event)
		c.ack(env.ID, protocol.NicknameAck{Error: "unknown event"})
		return false
	}
	return true
}

func (c *Client) handleSetNickname(env protocol.Envelope) {
	nickname, err := env.Nickname()
	if err != nil {
		c.logger.Warn("Invalid set_nickname payload", "error", err)
		c.ack(env.ID, protocol.NicknameAck{Error: "invalid nickname payload"})
		return
	}

	if _, err := c.router.SetNickname(c.id, nickname); err != nil {
		c.ack(env.ID, protocol.NicknameAck{Error: chat.Reason(err)})
		return
	}
	c.ack(env.ID, protocol.NicknameAck{Success: true})
}

func (c *Client) handleSendMessage(env protocol.Envelope) {
	draft, err := env.Draft()
	if err != nil {
		c.logger.Warn("Invalid send_message payload", "error", err)
		c.ack(env.ID, false)
		return
	}

	if _, err := c.router.SendMessage(c.id, draft); err != nil {
		c.logger.Debug("Message rejected", "error", err)
		c.ack(env.ID, false)
		return
	}
	c.ack(env.ID, true)
}

// rejectThrottled answers a frame dropped by the rate limiter so that a
// waiting caller gets its acknowledgement.
func (c *Client) rejectThrottled(raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		return
	}
	c.logger.Warn("Rate limit exceeded; discarding frame", "event", env.Event)
	if env.Event == protocol.EventSendMessage {
		c.ack(env.ID, false)
		return
	}
	c.ack(env.ID, protocol.NicknameAck{Error: "too many requests"})
}

// ack queues the acknowledgement for request id. Frames without an id
// are fire-and-forget.
func (c *Client) ack(id string, payload any) {
	if id == "" {
		return
	}
	frame, err := protocol.EncodeAck(id, payload)
	if err != nil {
		c.logger.Error("Failed to encode ack", "request", id, "error", err)
		return
	}
	if !c.enqueue(frame) {
		c.logger.Warn("Dropped ack: send buffer full or closed", "request", id)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				c.logger.Warn("Error closing connection in readPump", "error", err)
			}
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if c.handleReadError(err) {
			break
		}

		if !c.checkRateLimit() {
			c.rejectThrottled(raw)
			continue
		}

		c.processMessage(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case frame, ok := <-c.send:
		return c.handleMessage(frame, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("Error closing connection in writePump", "error", err)
		}
	}
}

// handleMessage writes one outgoing frame and returns false if the connection should be closed
func (c *Client) handleMessage(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("Error setting write deadline", "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(frame)
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("Error writing close message", "error", err)
		}
	}
	return false
}

// writeTextMessage writes a single frame as its own WebSocket text message.
func (c *Client) writeTextMessage(frame []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("Error writing message", "error", err)
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("Error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn("Error writing ping message", "error", err)
		return false
	}
	return true
}

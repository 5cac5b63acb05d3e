// Package chat implements the broadcast chat core: the connection registry,
// nickname arbitration, the message log and the Router that serializes
// every state change and fans events out to live connections.
package chat

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Router is the single entry point for inbound chat events. All state
// (registry, identities, message log, connection handles) is guarded by one
// mutex, and every fan-out is enqueued while that mutex is held so that all
// connections observe events in the same order. Delivery itself is
// non-blocking; the transport drains each connection independently.
type Router struct {
	mu       sync.Mutex
	registry *Registry
	arbiter  *Arbiter
	history  *MessageLog
	conns    map[string]Conn

	palette []string
	pick    func(n int) int
	logger  *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used by the Router.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPalette overrides the color palette.
func WithPalette(palette []string) Option {
	return func(r *Router) {
		r.palette = palette
	}
}

// WithColorPicker overrides the random index picker used to choose a
// palette color. pick(n) must return a value in [0, n).
func WithColorPicker(pick func(n int) int) Option {
	return func(r *Router) {
		r.pick = pick
	}
}

// NewRouter creates a Router with an empty registry and message log.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		registry: NewRegistry(),
		history:  NewMessageLog(),
		conns:    make(map[string]Conn),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.arbiter = NewArbiter(r.registry, r.palette, r.pick)
	return r
}

// Connect registers a new connection, replays the message history to it,
// asks it for a nickname and broadcasts the new online count.
func (r *Router) Connect(c Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	if r.registry.IsRegistered(id) {
		return fmt.Errorf("connect %s: already registered", id)
	}
	r.registry.Register(id)
	r.conns[id] = c

	count := r.registry.Count()
	r.logger.Info("Connection registered", "conn", id, "count", count)

	var failed []Conn
	if !c.Deliver(historyEvent(r.history.Snapshot())) || !c.Deliver(requestNicknameEvent()) {
		failed = append(failed, c)
	}
	failed = append(failed, r.broadcastLocked(usersCountEvent(count))...)
	r.evictLocked(failed)
	return nil
}

// Disconnect removes the connection and frees its nickname. It is
// idempotent: unknown or already removed ids are ignored.
func (r *Router) Disconnect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeLocked(id) {
		return
	}
	count := r.registry.Count()
	r.logger.Info("Connection unregistered", "conn", id, "count", count)

	r.evictLocked(r.broadcastLocked(usersCountEvent(count)))
}

// SetNickname assigns an identity to a connection that does not have one
// yet. On success the connection receives nickname_set and everyone
// receives the current count; on failure only the requester is told why.
func (r *Router) SetNickname(id, nickname string) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return Identity{}, fmt.Errorf("set nickname %s: %w", id, ErrUnknownConnection)
	}

	identity, err := r.arbiter.Assign(id, nickname)
	if err != nil {
		r.logger.Debug("Nickname rejected", "conn", id, "nickname", nickname, "error", err)
		if !c.Deliver(nicknameErrorEvent(err)) {
			r.evictLocked([]Conn{c})
		}
		return Identity{}, err
	}

	r.logger.Info("Nickname set", "conn", id, "nickname", identity.Nickname, "color", identity.Color)

	var failed []Conn
	if !c.Deliver(nicknameSetEvent(identity)) {
		failed = append(failed, c)
	}
	failed = append(failed, r.broadcastLocked(usersCountEvent(r.registry.Count()))...)
	r.evictLocked(failed)
	return identity, nil
}

// SendMessage stamps the draft with the sender's identity, appends it to
// the log and broadcasts it to every connection, the sender included.
func (r *Router) SendMessage(id string, draft Draft) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; !ok {
		return Message{}, fmt.Errorf("send message %s: %w", id, ErrUnknownConnection)
	}
	identity, ok := r.registry.Lookup(id)
	if !ok {
		return Message{}, ErrNoIdentity
	}
	if strings.TrimSpace(draft.Text) == "" {
		return Message{}, ErrEmptyText
	}

	msg := Message{
		ID:        draft.ID,
		Text:      draft.Text,
		Timestamp: draft.Timestamp,
		Nickname:  identity.Nickname,
		Color:     identity.Color,
	}
	r.history.Append(msg)

	targets := len(r.conns)
	r.logger.Debug("Broadcasting message", "conn", id, "nickname", msg.Nickname, "targets", targets)
	r.evictLocked(r.broadcastLocked(receiveMessageEvent(msg)))
	return msg, nil
}

// Count returns the number of registered connections.
func (r *Router) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Count()
}

// History returns the full message log, oldest first.
func (r *Router) History() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Snapshot()
}

// Identity returns the identity bound to id, if any.
func (r *Router) Identity(id string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Lookup(id)
}

// broadcastLocked enqueues ev on every registered connection and returns
// the handles that refused it.
func (r *Router) broadcastLocked(ev Event) []Conn {
	var failed []Conn
	for _, c := range r.conns {
		if !c.Deliver(ev) {
			failed = append(failed, c)
		}
	}
	return failed
}

func (r *Router) removeLocked(id string) bool {
	if !r.registry.Unregister(id) {
		return false
	}
	delete(r.conns, id)
	return true
}

// evictLocked drops connections that could not accept an event. Each
// eviction changes the count, which is broadcast again; that broadcast
// can in turn surface more slow connections.
func (r *Router) evictLocked(failed []Conn) {
	for len(failed) > 0 {
		evicted := 0
		for _, c := range failed {
			if !r.removeLocked(c.ID()) {
				continue
			}
			c.Close()
			evicted++
			r.logger.Warn("Connection evicted: send buffer full or closed", "conn", c.ID())
		}
		if evicted == 0 {
			return
		}
		failed = r.broadcastLocked(usersCountEvent(r.registry.Count()))
	}
}

package chat

import "fmt"

type registration struct {
	identity *Identity
}

// Registry tracks live connections and the identity bound to each.
// It is not safe for concurrent use; the Router serializes access.
type Registry struct {
	conns map[string]*registration
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*registration)}
}

// Register adds a connection without an identity. Registering an id that
// is already present leaves its identity untouched.
func (r *Registry) Register(id string) {
	if _, ok := r.conns[id]; ok {
		return
	}
	r.conns[id] = &registration{}
}

// Bind attaches an identity to a registered connection. Only the first
// bind succeeds.
func (r *Registry) Bind(id, nickname, color string) error {
	reg, ok := r.conns[id]
	if !ok {
		return fmt.Errorf("bind %s: %w", id, ErrUnknownConnection)
	}
	if reg.identity != nil {
		return fmt.Errorf("bind %s: %w", id, ErrAlreadyBound)
	}
	reg.identity = &Identity{Nickname: nickname, Color: color}
	return nil
}

// Unregister removes the connection and releases its nickname. It reports
// whether the connection was present.
func (r *Registry) Unregister(id string) bool {
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	return true
}

// Lookup returns the identity bound to id, if any.
func (r *Registry) Lookup(id string) (Identity, bool) {
	reg, ok := r.conns[id]
	if !ok || reg.identity == nil {
		return Identity{}, false
	}
	return *reg.identity, true
}

// IsRegistered reports whether id is a live connection.
func (r *Registry) IsRegistered(id string) bool {
	_, ok := r.conns[id]
	return ok
}

// IsNicknameTaken reports whether a live connection holds exactly this
// nickname. The comparison is case-sensitive.
func (r *Registry) IsNicknameTaken(nickname string) bool {
	for _, reg := range r.conns {
		if reg.identity != nil && reg.identity.Nickname == nickname {
			return true
		}
	}
	return false
}

// Count returns the number of registered connections, with or without an
// identity.
func (r *Registry) Count() int {
	return len(r.conns)
}

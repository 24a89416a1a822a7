package core

import "sync"

// Binder associates one live connection with one authenticated identity.
// Binding happens exactly once per connection lifetime, right after the
// transport validated the user's credentials.
type Binder struct {
	mu     sync.Mutex
	byConn map[string]string
}

// NewBinder constructs an empty binding table.
func NewBinder() *Binder {
	return &Binder{byConn: make(map[string]string)}
}

// Bind records the connection's identity. A second bind on the same
// connection fails with ErrAlreadyBound.
func (b *Binder) Bind(connID, username string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byConn[connID]; ok {
		return ErrAlreadyBound
	}
	b.byConn[connID] = username
	return nil
}

// IdentityOf returns the identity bound to the connection, if any.
func (b *Binder) IdentityOf(connID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	username, ok := b.byConn[connID]
	return username, ok
}

// Unbind removes the binding. Idempotent; called on every teardown path.
func (b *Binder) Unbind(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byConn, connID)
}

package core

import (
	"sort"
	"sync"
)

// Presence maintains the global set of authenticated, currently-connected
// users, independent of rooms. Every change is followed by a full-snapshot
// push to all clients; the snapshot model trades bandwidth for freedom from
// delta-ordering bugs.
type Presence struct {
	mu     sync.RWMutex
	online map[string]*Client
}

// NewPresence constructs an empty presence tracker.
func NewPresence() *Presence {
	return &Presence{online: make(map[string]*Client)}
}

// MarkOnline records the user as online on the given connection. If the
// username was already online on another connection, that connection is
// returned so the caller can supersede it.
func (p *Presence) MarkOnline(username string, c *Client) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.online[username]
	p.online[username] = c
	if prev == c {
		return nil
	}
	return prev
}

// MarkOffline removes the user, but only if the given connection still owns
// the entry. A superseded connection going away must not knock the newer
// session offline.
func (p *Presence) MarkOffline(username string, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.online[username]; ok && current == c {
		delete(p.online, username)
		return true
	}
	return false
}

// Get returns the connection a user is currently online on.
func (p *Presence) Get(username string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.online[username]
	return c, ok
}

// OnlineUsers returns a snapshot of online usernames. Sorted so that equal
// presence states always produce equal snapshots.
func (p *Presence) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.online))
	for username := range p.online {
		out = append(out, username)
	}
	sort.Strings(out)
	return out
}

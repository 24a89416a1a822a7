package core

// Client is one live connection as seen by the core layer. Username stays
// empty until the hub binds an authenticated identity; Room stays empty
// until the client joins one. Both fields are mutated only with the
// registry's and hub's serialization in effect.
type Client struct {
	ID       string
	Username string
	Room     string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
	}
}

// send delivers an event without blocking. Slow consumers have events
// dropped rather than stalling a broadcast.
func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}

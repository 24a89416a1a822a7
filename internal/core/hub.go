package core

import (
	"context"
	"fmt"
	"time"

	"github.com/parleychat/parley-server/internal/store"
)

// Hub orchestrates session lifecycle across the binder, registry and
// presence tracker. One goroutine (Run) consumes registrations and client
// commands, so every lifecycle transition is serialized; the registry and
// presence tracker carry their own locks for the read paths the REST API
// uses concurrently.
//
// A connection moves Unauthenticated -> Authenticated -> InRoom and ends in
// Disconnected. Explicit quit and transport teardown share one unwind path.
type Hub struct {
	registry *Registry
	presence *Presence
	binder   *Binder

	clients     map[*Client]struct{}
	register    chan *Client
	unregister  chan *Client
	submissions chan submission
}

type submission struct {
	client *Client
	cmd    *Command
}

// NewHub creates a hub. st may be nil for in-memory operation.
func NewHub(st store.RoomStore, historyLimit int) *Hub {
	return &Hub{
		registry:    NewRegistry(st, historyLimit),
		presence:    NewPresence(),
		binder:      NewBinder(),
		clients:     make(map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		submissions: make(chan submission, 64),
	}
}

// RegisterClient adds a fresh connection to the hub.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient unwinds a connection. Safe to call after the client has
// already quit; the second unwind is a no-op.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Run processes hub traffic until the context is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.teardown(c)
		case s := <-h.submissions:
			if _, ok := h.clients[s.client]; !ok {
				continue
			}
			h.dispatch(ctx, s.client, s.cmd)
		}
	}
}

// pump forwards one client's commands into the hub loop.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.submissions <- submission{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Client, cmd *Command) {
	if cmd.Kind == CommandHello {
		h.handleHello(c, cmd.Username)
		return
	}

	if _, bound := h.binder.IdentityOf(c.ID); !bound {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeAuthRequired, "authenticate first")})
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(ctx, c, cmd.Room, cmd.Password)
	case CommandSendRoomMessage:
		h.handleChat(c, cmd.Room, cmd.Text)
	case CommandSendPrivate:
		h.handlePrivate(c, cmd.To, cmd.Text)
	case CommandInvite:
		h.relayInvite(c, cmd.To, cmd.Room)
	case CommandFriendRequest:
		h.relayFriendRequest(c, cmd.To)
	case CommandQuit:
		h.teardown(c)
	}
}

// handleHello binds the externally authenticated identity to the
// connection. A username already online on another connection supersedes
// that session: the older connection is unwound and closed.
func (h *Hub) handleHello(c *Client, username string) {
	if err := h.binder.Bind(c.ID, username); err != nil {
		c.send(&Event{Kind: EventError, Error: coreErrorFor(err)})
		return
	}
	c.Username = username

	if prev := h.presence.MarkOnline(username, c); prev != nil {
		h.teardown(prev)
	}
	h.broadcastPresence()
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, room, password string) {
	view, history, err := h.registry.Join(ctx, c, room, password)
	if err != nil {
		c.send(&Event{Kind: EventError, Error: coreErrorFor(err)})
		return
	}
	c.send(&Event{Kind: EventJoined, Room: view.Name, View: view})
	c.send(&Event{Kind: EventHistory, Room: view.Name, Messages: history})
}

func (h *Hub) handleChat(c *Client, room, text string) {
	if _, _, err := h.registry.AppendChat(c, room, text); err != nil {
		c.send(&Event{Kind: EventError, Error: coreErrorFor(err)})
	}
}

// handlePrivate delivers to exactly two connections: the recipient's and
// the sender's own echo. No offline queueing.
func (h *Hub) handlePrivate(c *Client, to, text string) {
	target, ok := h.presence.Get(to)
	if !ok {
		c.send(&Event{Kind: EventError, Error: coreErrorFor(ErrRecipientOffline)})
		return
	}

	ev := &Event{Kind: EventMessage, Message: Message{
		Kind:      KindPrivate,
		From:      c.Username,
		To:        to,
		Text:      text,
		CreatedAt: time.Now(),
	}}
	target.send(ev)
	if target != c {
		c.send(ev)
	}
}

// relayInvite is fire-and-forget: offline targets drop the signal silently.
func (h *Hub) relayInvite(c *Client, to, room string) {
	target, ok := h.presence.Get(to)
	if !ok {
		return
	}
	target.send(&Event{Kind: EventMessage, Message: Message{
		Kind:      KindSystem,
		From:      SystemSender,
		To:        to,
		Text:      fmt.Sprintf("%s invited you to join %s", c.Username, room),
		CreatedAt: time.Now(),
	}})
}

func (h *Hub) relayFriendRequest(c *Client, to string) {
	target, ok := h.presence.Get(to)
	if !ok {
		return
	}
	target.send(&Event{Kind: EventMessage, Message: Message{
		Kind:      KindSystem,
		From:      SystemSender,
		To:        to,
		Text:      fmt.Sprintf("%s sent you a friend request", c.Username),
		CreatedAt: time.Now(),
	}})
}

// teardown is the single unwind path for quit, transport disconnect and
// superseded logins: leave room, drop presence, unbind, close the event
// stream. Each step tolerates the previous one having already happened.
func (h *Hub) teardown(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)

	h.registry.Leave(c)

	if username, bound := h.binder.IdentityOf(c.ID); bound {
		if h.presence.MarkOffline(username, c) {
			h.broadcastPresence()
		}
		h.binder.Unbind(c.ID)
	}

	close(c.Events)
}

func (h *Hub) broadcastPresence() {
	ev := &Event{Kind: EventPresence, Users: h.presence.OnlineUsers()}
	for c := range h.clients {
		c.send(ev)
	}
}

// OnlineUsers exposes the presence snapshot to the REST API.
func (h *Hub) OnlineUsers() []string {
	return h.presence.OnlineUsers()
}

// RoomMeta exposes read-only room metadata to the REST API.
func (h *Hub) RoomMeta(ctx context.Context, name string) (*RoomView, error) {
	return h.registry.RoomMeta(ctx, name)
}

// UpdateRoomMeta changes a room's display theming on behalf of the REST API.
func (h *Hub) UpdateRoomMeta(ctx context.Context, name, theme, backgroundURL string) error {
	return h.registry.UpdateRoomMeta(ctx, name, theme, backgroundURL)
}

// CreateRoom registers a room on behalf of the REST API. The password is
// hashed by the caller.
func (h *Hub) CreateRoom(ctx context.Context, name string, isPrivate bool, passwordHash, theme, backgroundURL string) (*RoomView, error) {
	return h.registry.CreateRoom(ctx, name, isPrivate, passwordHash, theme, backgroundURL)
}

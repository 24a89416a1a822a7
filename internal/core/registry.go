package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/parleychat/parley-server/internal/store"
)

// DefaultRoomName is used when a caller supplies a blank room name.
const DefaultRoomName = "lobby"

// DefaultHistoryLimit bounds per-room history when no limit is configured.
const DefaultHistoryLimit = 200

// Registry owns room metadata, membership sets and per-room history.
// All mutations to membership and history happen under one lock, so a
// broadcast always observes the member set as of the append. Room records
// (privacy, password hash, theme) are loaded from and persisted to the
// optional store; live state never leaves memory.
type Registry struct {
	mu           sync.Mutex
	rooms        map[string]*Room
	historyLimit int
	store        store.RoomStore
}

// NewRegistry constructs a registry. st may be nil; rooms then live purely
// in memory, which the tests rely on.
func NewRegistry(st store.RoomStore, historyLimit int) *Registry {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Registry{
		rooms:        make(map[string]*Room),
		historyLimit: historyLimit,
		store:        st,
	}
}

// CreateRoom registers a new room. Room names are case-sensitive and must be
// non-empty after trimming. The password hash may be empty for open rooms.
func (r *Registry) CreateRoom(ctx context.Context, name string, isPrivate bool, passwordHash, theme, backgroundURL string) (*RoomView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBadRequest
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[name]; ok {
		return nil, ErrDuplicateRoom
	}

	if r.store != nil {
		rec := &store.RoomRecord{
			Name:          name,
			IsPrivate:     isPrivate,
			PasswordHash:  passwordHash,
			Theme:         theme,
			BackgroundURL: backgroundURL,
		}
		if _, err := r.store.CreateRoom(ctx, rec); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return nil, ErrDuplicateRoom
			}
			return nil, err
		}
	}

	room := newRoom(name, r.historyLimit)
	room.IsPrivate = isPrivate
	room.passwordHash = passwordHash
	room.Theme = theme
	room.BackgroundURL = backgroundURL
	r.rooms[name] = room

	return room.view(), nil
}

// Join moves the client into the named room. The password is checked before
// any state changes, so a failed join leaves membership and the client's
// current room untouched. Joining while already in a room is a switch: the
// old room is left first. Unknown rooms are auto-created as open rooms,
// mirroring clients that let users type an arbitrary room name.
//
// On success the returned history snapshot holds the room's retained
// messages oldest first, and a transient system join notice is broadcast to
// the room (including the joiner).
func (r *Registry) Join(ctx context.Context, c *Client, name, password string) (*RoomView, []Message, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultRoomName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.resolveLocked(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	if room.passwordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(room.passwordHash), []byte(password)) != nil {
			return nil, nil, ErrBadPassword
		}
	}

	if c.Room != "" {
		r.leaveLocked(c)
	}

	history := room.history.Snapshot()
	room.members[c] = struct{}{}
	c.Room = room.Name

	sys := Message{
		Kind:      KindSystem,
		Room:      room.Name,
		From:      SystemSender,
		Text:      c.Username + " joined " + room.Name,
		CreatedAt: room.stamp(),
	}
	room.broadcast(&Event{Kind: EventMessage, Room: room.Name, Message: sys})

	return room.view(), history, nil
}

// Leave removes the client from its current room, if any. Idempotent.
// Returns the room left, or "" when the client was not in one.
func (r *Registry) Leave(c *Client) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(c)
}

func (r *Registry) leaveLocked(c *Client) string {
	if c.Room == "" {
		return ""
	}
	room, ok := r.rooms[c.Room]
	if !ok {
		c.Room = ""
		return ""
	}

	delete(room.members, c)
	left := room.Name
	c.Room = ""

	sys := Message{
		Kind:      KindSystem,
		Room:      left,
		From:      SystemSender,
		Text:      c.Username + " left " + left,
		CreatedAt: room.stamp(),
	}
	room.broadcast(&Event{Kind: EventMessage, Room: left, Message: sys})
	return left
}

// AppendChat appends a chat message and fans it out to the members at
// append time. The sender's membership is re-validated here regardless of
// what the client asserted.
func (r *Registry) AppendChat(c *Client, roomName, text string) (Message, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomName]
	if !ok || c.Room != roomName {
		return Message{}, 0, ErrNotInRoom
	}
	if _, member := room.members[c]; !member {
		return Message{}, 0, ErrNotInRoom
	}

	msg := Message{
		Kind:      KindChat,
		Room:      room.Name,
		From:      c.Username,
		Text:      text,
		CreatedAt: room.stamp(),
	}
	room.history.Append(msg)
	delivered := room.broadcast(&Event{Kind: EventMessage, Room: room.Name, Message: msg})

	return msg, delivered, nil
}

// RoomMeta returns read-only metadata for display theming.
func (r *Registry) RoomMeta(ctx context.Context, name string) (*RoomView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[name]; ok {
		return room.view(), nil
	}
	if r.store != nil {
		rec, err := r.store.GetRoomByName(ctx, name)
		if err == nil {
			return &RoomView{
				Name:          rec.Name,
				IsPrivate:     rec.IsPrivate,
				Theme:         rec.Theme,
				BackgroundURL: rec.BackgroundURL,
			}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrRoomNotFound
}

// UpdateRoomMeta changes a room's display theming, both in memory and in
// the store.
func (r *Registry) UpdateRoomMeta(ctx context.Context, name, theme, backgroundURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, inMemory := r.rooms[name]
	if r.store != nil {
		if err := r.store.UpdateRoomMeta(ctx, name, theme, backgroundURL); err != nil {
			if errors.Is(err, store.ErrNotFound) && !inMemory {
				return ErrRoomNotFound
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
	} else if !inMemory {
		return ErrRoomNotFound
	}

	if inMemory {
		room.Theme = theme
		room.BackgroundURL = backgroundURL
	}
	return nil
}

// resolveLocked finds a room in memory, falls back to the store, and
// finally auto-creates an open room.
func (r *Registry) resolveLocked(ctx context.Context, name string) (*Room, error) {
	if room, ok := r.rooms[name]; ok {
		return room, nil
	}

	room := newRoom(name, r.historyLimit)
	if r.store != nil {
		rec, err := r.store.GetRoomByName(ctx, name)
		switch {
		case err == nil:
			room.IsPrivate = rec.IsPrivate
			room.passwordHash = rec.PasswordHash
			room.Theme = rec.Theme
			room.BackgroundURL = rec.BackgroundURL
		case errors.Is(err, store.ErrNotFound):
			if _, createErr := r.store.CreateRoom(ctx, &store.RoomRecord{Name: name}); createErr != nil && !errors.Is(createErr, store.ErrDuplicate) {
				return nil, createErr
			}
		default:
			return nil, err
		}
	}
	r.rooms[name] = room
	return room, nil
}

// members returns the usernames currently in a room; test hook.
func (r *Registry) members(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(room.members))
	for member := range room.members {
		out = append(out, member.Username)
	}
	return out
}

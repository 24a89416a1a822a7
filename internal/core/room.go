package core

import "time"

// Room groups clients subscribed to the same channel, together with the
// room's display metadata and bounded message history.
type Room struct {
	Name          string
	IsPrivate     bool
	Theme         string
	BackgroundURL string

	passwordHash string
	members      map[*Client]struct{}
	history      *historyRing
	lastStamp    time.Time
}

func newRoom(name string, historyLimit int) *Room {
	return &Room{
		Name:    name,
		members: make(map[*Client]struct{}),
		history: newHistoryRing(historyLimit),
	}
}

// RoomView is read-only display metadata. It never carries the password hash.
type RoomView struct {
	Name          string
	IsPrivate     bool
	Theme         string
	BackgroundURL string
}

func (r *Room) view() *RoomView {
	return &RoomView{
		Name:          r.Name,
		IsPrivate:     r.IsPrivate,
		Theme:         r.Theme,
		BackgroundURL: r.BackgroundURL,
	}
}

// stamp assigns a server timestamp that never moves backwards within the room.
func (r *Room) stamp() time.Time {
	now := time.Now()
	if now.Before(r.lastStamp) {
		now = r.lastStamp
	}
	r.lastStamp = now
	return now
}

// broadcast sends an event to every current member.
func (r *Room) broadcast(ev *Event) int {
	for member := range r.members {
		member.send(ev)
	}
	return len(r.members)
}

package core

import "time"

// MessageKind distinguishes how a message is routed and retained.
type MessageKind string

const (
	// KindChat is a room-broadcast message, retained in room history.
	KindChat MessageKind = "chat"
	// KindPrivate is delivered to exactly the sender and recipient, never retained.
	KindPrivate MessageKind = "private"
	// KindSystem is a server-generated notice, delivered transiently.
	KindSystem MessageKind = "system"
)

// Message is the domain model for a chat message.
type Message struct {
	Kind      MessageKind
	Room      string
	From      string
	To        string
	Text      string
	CreatedAt time.Time
}

// SystemSender is the From identity on server-generated messages.
const SystemSender = "System"

package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage delivers a chat, private or system message.
	EventMessage EventKind = iota
	// EventHistory delivers a room's retained messages upon joining.
	EventHistory
	// EventPresence delivers the full online-user snapshot.
	EventPresence
	// EventJoined acknowledges a successful room join with display metadata.
	EventJoined
	// EventError notifies the client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	Message  Message
	Messages []Message // for EventHistory, oldest first
	Users    []string  // for EventPresence
	View     *RoomView // for EventJoined
	Error    *CoreError
}

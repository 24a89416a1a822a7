package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandHello binds an authenticated identity to the connection.
	CommandHello CommandKind = iota
	// CommandJoinRoom joins (or switches to) a room.
	CommandJoinRoom
	// CommandSendRoomMessage delivers a chat message to room participants.
	CommandSendRoomMessage
	// CommandSendPrivate delivers a private message to one online user.
	CommandSendPrivate
	// CommandInvite relays a room invitation to one online user.
	CommandInvite
	// CommandFriendRequest relays a friend request to one online user.
	CommandFriendRequest
	// CommandQuit asks for explicit session termination.
	CommandQuit
)

// Command represents an action requested by a client. Username carries the
// externally authenticated identity and is only set for CommandHello; the
// core trusts it as handed over by the transport layer.
type Command struct {
	Kind     CommandKind
	Username string
	Room     string
	Password string
	To       string
	Text     string
}

package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello         = "hello"
	InboundTypeJoinRoom      = "join_room"
	InboundTypeChat          = "chat"
	InboundTypePrivateMsg    = "private_msg"
	InboundTypeInviteUser    = "invite_user"
	InboundTypeFriendRequest = "friend_request"
	InboundTypeQuit          = "quit"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameMessage     = "message"
	EventNameHistory     = "history"
	EventNameUpdateUsers = "update_users"
	EventNameJoined      = "joined"
)

// HelloData is sent by the client to authenticate the connection. The token
// comes from the REST login/register/guest endpoints.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinRoomData requests to join (or switch to) a room.
type JoinRoomData struct {
	Room     string `json:"room_name"`
	Password string `json:"password,omitempty"`
}

// ChatData is a room chat message from the client.
type ChatData struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// PrivateMsgData is a direct message to one online user.
type PrivateMsgData struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// InviteUserData asks the server to nudge another user toward a room.
type InviteUserData struct {
	To   string `json:"to"`
	Room string `json:"room"`
}

// FriendRequestData asks the server to relay a friend request.
type FriendRequestData struct {
	To string `json:"to"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage carries a chat, private or system message.
type EventMessage struct {
	Kind string `json:"kind"`
	User string `json:"user"`
	To   string `json:"to,omitempty"`
	Room string `json:"room,omitempty"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// EventHistory replays a room's retained messages, newest first on the
// wire; clients reverse before rendering.
type EventHistory struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// EventJoined acknowledges a join with the room's display metadata.
type EventJoined struct {
	Room          string `json:"room"`
	IsPrivate     bool   `json:"is_private"`
	Theme         string `json:"theme,omitempty"`
	BackgroundURL string `json:"background_url,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

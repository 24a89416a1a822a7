package http

import (
	"encoding/json"

	"github.com/parleychat/parley-server/internal/core"
	"github.com/parleychat/parley-server/internal/proto"
)

// inboundToCommand maps a wire envelope onto a core command. Identity
// fields a client might assert are ignored; the hub only trusts the
// identity bound at hello.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var join proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		// blank room name falls through to the default room downstream
		return &core.Command{
			Kind:     core.CommandJoinRoom,
			Room:     join.Room,
			Password: join.Password,
		}, nil, nil
	case proto.InboundTypeChat:
		var msg proto.ChatData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		if msg.Text == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandSendRoomMessage,
			Room: msg.Room,
			Text: msg.Text,
		}, nil, nil
	case proto.InboundTypePrivateMsg:
		var msg proto.PrivateMsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.To == "" || msg.Text == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "to and text are required"}, nil
		}
		return &core.Command{
			Kind: core.CommandSendPrivate,
			To:   msg.To,
			Text: msg.Text,
		}, nil, nil
	case proto.InboundTypeInviteUser:
		var invite proto.InviteUserData
		if err := json.Unmarshal(inbound.Data, &invite); err != nil {
			return nil, nil, err
		}
		if invite.To == "" || invite.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "to and room are required"}, nil
		}
		return &core.Command{
			Kind: core.CommandInvite,
			To:   invite.To,
			Room: invite.Room,
		}, nil, nil
	case proto.InboundTypeFriendRequest:
		var friend proto.FriendRequestData
		if err := json.Unmarshal(inbound.Data, &friend); err != nil {
			return nil, nil, err
		}
		if friend.To == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "to is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandFriendRequest,
			To:   friend.To,
		}, nil, nil
	case proto.InboundTypeQuit:
		return &core.Command{Kind: core.CommandQuit}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data:  eventMessage(event.Message),
		}
	case core.EventHistory:
		// newest first on the wire; clients reverse before rendering
		messages := make([]proto.EventMessage, 0, len(event.Messages))
		for i := len(event.Messages) - 1; i >= 0; i-- {
			messages = append(messages, eventMessage(event.Messages[i]))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameHistory,
			Data: proto.EventHistory{
				Room:     event.Room,
				Messages: messages,
			},
		}
	case core.EventPresence:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameUpdateUsers,
			Data:  event.Users,
		}
	case core.EventJoined:
		data := proto.EventJoined{Room: event.Room}
		if event.View != nil {
			data.IsPrivate = event.View.IsPrivate
			data.Theme = event.View.Theme
			data.BackgroundURL = event.View.BackgroundURL
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameJoined,
			Data:  data,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventMessage(m core.Message) proto.EventMessage {
	return proto.EventMessage{
		Kind: string(m.Kind),
		User: m.From,
		To:   m.To,
		Room: m.Room,
		Text: m.Text,
		TS:   m.CreatedAt.Unix(),
	}
}

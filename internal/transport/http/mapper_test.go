package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/parleychat/parley-server/internal/core"
	"github.com/parleychat/parley-server/internal/proto"
)

func TestInboundToCommandValidation(t *testing.T) {
	mk := func(msgType string, data any) proto.Inbound {
		payload, _ := json.Marshal(data)
		return proto.Inbound{Type: msgType, Data: payload}
	}

	cases := []struct {
		name     string
		inbound  proto.Inbound
		wantKind core.CommandKind
		wantCode string
	}{
		{
			name:     "join maps room and password",
			inbound:  mk(proto.InboundTypeJoinRoom, proto.JoinRoomData{Room: "vip", Password: "pw"}),
			wantKind: core.CommandJoinRoom,
		},
		{
			name:     "chat requires room",
			inbound:  mk(proto.InboundTypeChat, proto.ChatData{Text: "hi"}),
			wantCode: core.ErrCodeBadRequest,
		},
		{
			name:     "chat requires text",
			inbound:  mk(proto.InboundTypeChat, proto.ChatData{Room: "general"}),
			wantCode: core.ErrCodeBadRequest,
		},
		{
			name:     "private requires recipient",
			inbound:  mk(proto.InboundTypePrivateMsg, proto.PrivateMsgData{Text: "hi"}),
			wantCode: core.ErrCodeBadRequest,
		},
		{
			name:     "invite requires room",
			inbound:  mk(proto.InboundTypeInviteUser, proto.InviteUserData{To: "bob"}),
			wantCode: core.ErrCodeBadRequest,
		},
		{
			name:     "friend request maps recipient",
			inbound:  mk(proto.InboundTypeFriendRequest, proto.FriendRequestData{To: "bob"}),
			wantKind: core.CommandFriendRequest,
		},
		{
			name:     "quit has no payload",
			inbound:  proto.Inbound{Type: proto.InboundTypeQuit},
			wantKind: core.CommandQuit,
		},
		{
			name:     "unknown type",
			inbound:  proto.Inbound{Type: "warp_drive"},
			wantCode: "invalid_message",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, protoErr, err := inboundToCommand(tc.inbound)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantCode != "" {
				if protoErr == nil || protoErr.Code != tc.wantCode {
					t.Fatalf("expected code %q, got %+v", tc.wantCode, protoErr)
				}
				return
			}
			if protoErr != nil {
				t.Fatalf("unexpected proto error: %+v", protoErr)
			}
			if cmd.Kind != tc.wantKind {
				t.Fatalf("expected kind %v, got %v", tc.wantKind, cmd.Kind)
			}
		})
	}
}

func TestOutboundHistoryNewestFirst(t *testing.T) {
	base := time.Unix(1700000000, 0)
	event := &core.Event{
		Kind: core.EventHistory,
		Room: "general",
		Messages: []core.Message{
			{Kind: core.KindChat, From: "alice", Room: "general", Text: "first", CreatedAt: base},
			{Kind: core.KindChat, From: "bob", Room: "general", Text: "second", CreatedAt: base.Add(time.Second)},
		},
	}

	outbound := outboundFromEvent(event)
	if outbound.Event != proto.EventNameHistory {
		t.Fatalf("unexpected event name: %s", outbound.Event)
	}

	history, ok := outbound.Data.(proto.EventHistory)
	if !ok {
		t.Fatalf("unexpected data type: %T", outbound.Data)
	}
	if len(history.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history.Messages))
	}
	if history.Messages[0].Text != "second" || history.Messages[1].Text != "first" {
		t.Fatalf("expected newest first, got %+v", history.Messages)
	}
	if history.Messages[0].TS != base.Add(time.Second).Unix() {
		t.Fatalf("unexpected timestamp: %d", history.Messages[0].TS)
	}
}

func TestOutboundErrorEnvelope(t *testing.T) {
	outbound := outboundFromEvent(&core.Event{
		Kind:  core.EventError,
		Error: &core.CoreError{Code: core.ErrCodeNotInRoom, Message: "join a room first"},
	})

	if outbound.Type != proto.OutboundTypeError {
		t.Fatalf("unexpected type: %s", outbound.Type)
	}
	if outbound.Error == nil || outbound.Error.Code != core.ErrCodeNotInRoom {
		t.Fatalf("unexpected error payload: %+v", outbound.Error)
	}
}

package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil, 0)
	go hub.Run(ctx)
	return hub
}

func TestHubHelloBroadcastsPresence(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandHello, Username: "alice"}
	ev := mustEvent(t, alice.Events, EventPresence)
	if len(ev.Users) != 1 || ev.Users[0] != "alice" {
		t.Fatalf("unexpected presence snapshot: %v", ev.Users)
	}

	// bob's hello pushes the full list to everyone, alice included.
	bob.Commands <- &Command{Kind: CommandHello, Username: "bob"}
	ev = mustEvent(t, alice.Events, EventPresence)
	if len(ev.Users) != 2 {
		t.Fatalf("expected 2 online users, got %v", ev.Users)
	}
}

func TestHubActionBeforeHello(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAuthRequired {
		t.Fatalf("expected authentication_required error, got %+v", ev)
	}
}

func TestHubDoubleHelloProducesError(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	hub.RegisterClient(alice)
	hello(t, alice, "alice")

	alice.Commands <- &Command{Kind: CommandHello, Username: "alice"}
	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAlreadyBound {
		t.Fatalf("expected already_bound error, got %+v", ev)
	}
}

func TestHubJoinBroadcastAndChat(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hello(t, alice, "alice")
	hello(t, bob, "bob")

	join(t, alice, "general", "")
	join(t, bob, "general", "")

	// alice sees bob's transient join notice.
	ev := mustEvent(t, alice.Events, EventMessage)
	if ev.Message.Kind != KindSystem || !strings.Contains(ev.Message.Text, "bob joined general") {
		t.Fatalf("unexpected join notice: %+v", ev.Message)
	}

	alice.Commands <- &Command{Kind: CommandSendRoomMessage, Room: "general", Text: "hi"}

	msgEv := mustEvent(t, bob.Events, EventMessage)
	if msgEv.Message.Kind != KindChat || msgEv.Message.Text != "hi" || msgEv.Message.From != "alice" || msgEv.Message.Room != "general" {
		t.Fatalf("unexpected message event: %+v", msgEv.Message)
	}

	// sender receives its own broadcast too.
	echo := mustEvent(t, alice.Events, EventMessage)
	if echo.Message.Kind != KindChat || echo.Message.Text != "hi" {
		t.Fatalf("expected sender echo, got %+v", echo.Message)
	}
}

func TestHubChatWithoutJoinProducesError(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	hub.RegisterClient(alice)
	hello(t, alice, "alice")

	alice.Commands <- &Command{Kind: CommandSendRoomMessage, Room: "general", Text: "hi"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room error, got %+v", ev)
	}
}

func TestHubWrongRoomPassword(t *testing.T) {
	hub := startHub(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("x"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := hub.CreateRoom(context.Background(), "vip", true, string(hash), "", ""); err != nil {
		t.Fatalf("create room: %v", err)
	}

	alice := NewClient("a")
	hub.RegisterClient(alice)
	hello(t, alice, "alice")
	join(t, alice, "lobby", "")

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "vip", Password: "y"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeBadPassword {
		t.Fatalf("expected bad_password error, got %+v", ev)
	}

	// failed join leaves membership untouched.
	if alice.Room != "lobby" {
		t.Fatalf("expected alice still in lobby, got %q", alice.Room)
	}
	if members := hub.registry.members("vip"); len(members) != 0 {
		t.Fatalf("expected vip empty, got %v", members)
	}

	// the right password works.
	join(t, alice, "vip", "x")
	if alice.Room != "vip" {
		t.Fatalf("expected alice in vip, got %q", alice.Room)
	}
}

func TestHubRoomSwitch(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hello(t, alice, "alice")
	hello(t, bob, "bob")

	join(t, alice, "red", "")
	join(t, bob, "red", "")
	join(t, bob, "blue", "")

	// switching rooms is leave-then-join, not stacked membership.
	ev := mustEvent(t, alice.Events, EventMessage)
	for !strings.Contains(ev.Message.Text, "bob left red") {
		ev = mustEvent(t, alice.Events, EventMessage)
	}

	if members := hub.registry.members("red"); len(members) != 1 || members[0] != "alice" {
		t.Fatalf("unexpected red members: %v", members)
	}
	if members := hub.registry.members("blue"); len(members) != 1 || members[0] != "bob" {
		t.Fatalf("unexpected blue members: %v", members)
	}
}

func TestHubPrivateMessage(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hello(t, alice, "alice")
	hello(t, bob, "bob")

	alice.Commands <- &Command{Kind: CommandSendPrivate, To: "bob", Text: "psst"}

	got := mustEvent(t, bob.Events, EventMessage)
	if got.Message.Kind != KindPrivate || got.Message.From != "alice" || got.Message.To != "bob" || got.Message.Text != "psst" {
		t.Fatalf("unexpected private message: %+v", got.Message)
	}

	echo := mustEvent(t, alice.Events, EventMessage)
	if echo.Message.Kind != KindPrivate || echo.Message.Text != "psst" {
		t.Fatalf("expected sender echo, got %+v", echo.Message)
	}
}

func TestHubPrivateMessageOfflineRecipient(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	hub.RegisterClient(alice)
	hello(t, alice, "alice")

	alice.Commands <- &Command{Kind: CommandSendPrivate, To: "ghost", Text: "psst"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRecipientOffline {
		t.Fatalf("expected recipient_offline error, got %+v", ev)
	}

	// no delivery anywhere, not even the sender's echo.
	mustNoEvent(t, alice.Events)
}

func TestHubInviteAndFriendRequest(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hello(t, alice, "alice")
	hello(t, bob, "bob")

	alice.Commands <- &Command{Kind: CommandInvite, To: "bob", Room: "vip"}
	ev := mustEvent(t, bob.Events, EventMessage)
	if ev.Message.Kind != KindSystem || !strings.Contains(ev.Message.Text, "invited you to join vip") {
		t.Fatalf("unexpected invite: %+v", ev.Message)
	}

	alice.Commands <- &Command{Kind: CommandFriendRequest, To: "bob"}
	ev = mustEvent(t, bob.Events, EventMessage)
	if ev.Message.Kind != KindSystem || !strings.Contains(ev.Message.Text, "friend request") {
		t.Fatalf("unexpected friend request: %+v", ev.Message)
	}

	// offline target: signal silently dropped, no error back.
	time.Sleep(50 * time.Millisecond)
	drainEvents(alice.Events)
	alice.Commands <- &Command{Kind: CommandInvite, To: "ghost", Room: "vip"}
	mustNoEvent(t, alice.Events)
}

func TestHubDuplicateLoginSupersedes(t *testing.T) {
	hub := startHub(t)

	first := NewClient("c1")
	second := NewClient("c2")
	hub.RegisterClient(first)
	hub.RegisterClient(second)

	hello(t, first, "alice")
	join(t, first, "general", "")

	second.Commands <- &Command{Kind: CommandHello, Username: "alice"}

	// the older session is unwound and its event stream closed.
	waitClosed(t, first.Events)

	ev := mustEvent(t, second.Events, EventPresence)
	if len(ev.Users) != 1 || ev.Users[0] != "alice" {
		t.Fatalf("expected alice online exactly once, got %v", ev.Users)
	}
	if members := hub.registry.members("general"); len(members) != 0 {
		t.Fatalf("expected general empty after supersede, got %v", members)
	}

	// the new session is fully functional.
	join(t, second, "general", "")
	second.Commands <- &Command{Kind: CommandSendRoomMessage, Room: "general", Text: "back"}
	msg := mustEvent(t, second.Events, EventMessage)
	for msg.Message.Kind != KindChat {
		msg = mustEvent(t, second.Events, EventMessage)
	}
	if msg.Message.Text != "back" {
		t.Fatalf("unexpected message: %+v", msg.Message)
	}
}

func TestHubQuitTeardownRunsOnce(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hello(t, alice, "alice")
	hello(t, bob, "bob")

	join(t, alice, "general", "")
	join(t, bob, "general", "")

	// let bob's buffered events settle, then observe only the teardown.
	time.Sleep(50 * time.Millisecond)
	drainEvents(bob.Events)

	alice.Commands <- &Command{Kind: CommandQuit}
	waitClosed(t, alice.Events)

	// a spurious transport unregister after quit must not double-fire.
	hub.UnregisterClient(alice)
	time.Sleep(100 * time.Millisecond)

	var leaveNotices, presencePushes int
	for _, ev := range drainEvents(bob.Events) {
		switch {
		case ev.Kind == EventMessage && strings.Contains(ev.Message.Text, "alice left"):
			leaveNotices++
		case ev.Kind == EventPresence:
			presencePushes++
		}
	}
	if leaveNotices != 1 {
		t.Fatalf("expected exactly one leave notice, got %d", leaveNotices)
	}
	if presencePushes != 1 {
		t.Fatalf("expected exactly one presence push, got %d", presencePushes)
	}

	if members := hub.registry.members("general"); len(members) != 1 || members[0] != "bob" {
		t.Fatalf("unexpected members after quit: %v", members)
	}
	if users := hub.OnlineUsers(); len(users) != 1 || users[0] != "bob" {
		t.Fatalf("unexpected online users after quit: %v", users)
	}
}

func TestHubHistoryReplayOnJoin(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hello(t, alice, "alice")
	hello(t, bob, "bob")

	join(t, alice, "general", "")
	alice.Commands <- &Command{Kind: CommandSendRoomMessage, Room: "general", Text: "one"}
	alice.Commands <- &Command{Kind: CommandSendRoomMessage, Room: "general", Text: "two"}
	// wait for both echoes so the appends precede bob's join
	mustEvent(t, alice.Events, EventMessage)
	mustEvent(t, alice.Events, EventMessage)

	join(t, bob, "general", "")
	hist := mustEvent(t, bob.Events, EventHistory)
	if len(hist.Messages) != 2 {
		t.Fatalf("expected 2 history messages, got %d", len(hist.Messages))
	}
	if hist.Messages[0].Text != "one" || hist.Messages[1].Text != "two" {
		t.Fatalf("history out of order: %+v", hist.Messages)
	}
	if hist.Messages[0].CreatedAt.After(hist.Messages[1].CreatedAt) {
		t.Fatalf("timestamps not monotonic: %+v", hist.Messages)
	}
}

func waitClosed(t *testing.T, ch <-chan *Event) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("expected event channel to close")
		}
	}
}

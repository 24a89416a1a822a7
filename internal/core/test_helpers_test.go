package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent asserts that nothing arrives within the grace window.
func mustNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		if ev != nil {
			t.Fatalf("expected no event, got %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

// drainEvents empties the channel and returns what was buffered.
func drainEvents(ch <-chan *Event) []*Event {
	var out []*Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// hello binds an identity and waits for the presence push that confirms it.
func hello(t *testing.T, c *Client, username string) {
	t.Helper()
	c.Commands <- &Command{Kind: CommandHello, Username: username}
	mustEvent(t, c.Events, EventPresence)
}

// join issues a join command and waits for the ack.
func join(t *testing.T, c *Client, room, password string) *Event {
	t.Helper()
	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room, Password: password}
	return mustEvent(t, c.Events, EventJoined)
}

package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chanSubscriber feeds the hub from a channel, like a pub/sub subscription.
type chanSubscriber struct {
	frames chan ports.ChatFrame
	ready  chan struct{}
}

func newChanSubscriber() *chanSubscriber {
	return &chanSubscriber{frames: make(chan ports.ChatFrame), ready: make(chan struct{})}
}

func (s *chanSubscriber) Listen(ctx context.Context, fn func(ports.ChatFrame)) error {
	close(s.ready)
	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-s.frames:
			fn(f)
		}
	}
}

func runHub(t *testing.T) (*Hub, *chanSubscriber, func()) {
	t.Helper()
	sub := newChanSubscriber()
	hub := NewHub(sub, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()
	<-sub.ready
	stop := func() {
		cancel()
		<-done
	}
	t.Cleanup(stop)
	return hub, sub, stop
}

func receive(t *testing.T, c *Client) (ports.ChatFrame, bool) {
	t.Helper()
	select {
	case f, ok := <-c.Frames():
		return f, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return ports.ChatFrame{}, false
	}
}

func TestHub_DeliversOnlyToRoomMembers(t *testing.T) {
	hub, sub, _ := runHub(t)

	a1 := hub.Register("room-a")
	a2 := hub.Register("room-a")
	b := hub.Register("room-b")
	defer hub.Unregister(a1)
	defer hub.Unregister(a2)
	defer hub.Unregister(b)

	sub.frames <- ports.ChatFrame{Type: ports.FrameMessage, RoomID: "room-a", Content: "hello"}

	for _, c := range []*Client{a1, a2} {
		f, ok := receive(t, c)
		if !ok || f.Content != "hello" {
			t.Errorf("client %s got %+v ok=%v", c.ID, f, ok)
		}
	}
	select {
	case f := <-b.Frames():
		t.Errorf("room-b client received %+v", f)
	default:
	}
}

func TestHub_UnregisterClosesAndForgets(t *testing.T) {
	hub, _, _ := runHub(t)

	c := hub.Register("room-a")
	if n := hub.Connections("room-a"); n != 1 {
		t.Fatalf("connections = %d, want 1", n)
	}
	hub.Unregister(c)
	hub.Unregister(c)

	if _, ok := <-c.Frames(); ok {
		t.Error("frames channel should be closed")
	}
	if n := hub.Connections("room-a"); n != 0 {
		t.Errorf("connections = %d, want 0", n)
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, _, stop := runHub(t)

	c := hub.Register("room-a")
	stop()

	if _, ok := <-c.Frames(); ok {
		t.Error("frames channel should be closed after the hub stops")
	}
	// Unregister after shutdown must not panic.
	hub.Unregister(c)
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub, sub, _ := runHub(t)

	slow := hub.Register("room-a")
	defer hub.Unregister(slow)

	for i := 0; i < clientBuffer+5; i++ {
		select {
		case sub.frames <- ports.ChatFrame{Type: ports.FrameTyping, RoomID: "room-a"}:
		case <-time.After(2 * time.Second):
			t.Fatalf("hub blocked on frame %d", i)
		}
	}
	if got := len(slow.Frames()); got != clientBuffer {
		t.Errorf("buffered = %d, want %d", got, clientBuffer)
	}
}

package hub

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

func newTestHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

// fakeClient registers a connectionless client so tests can read its queue.
func fakeClient(t *testing.T, h *Hub, buf int) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan Message, buf)}
	h.register <- c
	c.registered = true
	return c
}

func recv(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case m, ok := <-c.send:
		return m, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}, false
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcast(t *testing.T) {
	h, _ := newTestHub(t)
	a := fakeClient(t, h, 4)
	b := fakeClient(t, h, 4)

	if err := h.BroadcastJSON(map[string]string{"status": "ACTIVE"}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	for _, c := range []*Client{a, b} {
		m, _ := recv(t, c)
		if m.Type != JSONMessage || string(m.Data) != `{"status":"ACTIVE"}` {
			t.Errorf("unexpected message %+v", m)
		}
	}
	if n := h.ClientCount(); n != 2 {
		t.Errorf("expected 2 clients, got %d", n)
	}
}

func lastData(h *Hub) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return ""
	}
	return string(h.last.Data)
}

func TestReplayLastJSON(t *testing.T) {
	h, _ := newTestHub(t)
	first := fakeClient(t, h, 4)

	_ = h.BroadcastJSON(map[string]int{"version": 1})
	_ = h.BroadcastJSON(map[string]int{"version": 2})
	waitFor(t, func() bool { return lastData(h) == `{"version":2}` })

	m, _ := recv(t, first)
	if m.Type != JSONMessage {
		t.Errorf("expected a view, got %s", m.Type)
	}

	late := fakeClient(t, h, 4)
	m, _ = recv(t, late)
	if string(m.Data) != `{"version":2}` {
		t.Errorf("expected replay of the latest view, got %s", m.Data)
	}
}

func TestSlowClientDropped(t *testing.T) {
	h, _ := newTestHub(t)
	slow := fakeClient(t, h, 1)

	h.Broadcast(NewBinaryMessage([]byte{1}))
	h.Broadcast(NewBinaryMessage([]byte{2}))

	waitFor(t, func() bool { return h.ClientCount() == 0 })

	recv(t, slow)
	if _, ok := recv(t, slow); ok {
		t.Error("expected closed channel for a dropped client")
	}
}

func TestUnregisterAndStop(t *testing.T) {
	h, cancel := newTestHub(t)
	c := fakeClient(t, h, 4)
	other := fakeClient(t, h, 4)

	h.unregister <- c
	if _, ok := recv(t, c); ok {
		t.Error("expected closed channel after unregister")
	}

	waitFor(t, h.IsRunning)
	cancel()
	waitFor(t, func() bool { return !h.IsRunning() })

	if _, ok := recv(t, other); ok {
		t.Error("expected remaining clients closed on stop")
	}

	late := NewClient(h, nil)
	if late.registered {
		t.Error("client must not register with a stopped hub")
	}
}

func TestViewsCoalesceBeforeRun(t *testing.T) {
	h := New("test", slog.New(slog.NewTextHandler(io.Discard, nil)))

	// More views than the audio queue holds; none may be lost to a full queue.
	for i := 1; i <= 500; i++ {
		_ = h.BroadcastJSON(map[string]int{"version": i})
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	c := fakeClient(t, h, 4)
	m, _ := recv(t, c)
	if string(m.Data) != `{"version":500}` {
		t.Errorf("expected the newest view, got %s", m.Data)
	}
	select {
	case extra := <-c.send:
		t.Errorf("superseded views must not be delivered, got %s", extra.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAudioFanOut(t *testing.T) {
	h, _ := newTestHub(t)
	c := fakeClient(t, h, 8)

	for i := byte(0); i < 3; i++ {
		h.Broadcast(NewBinaryMessage([]byte{i, i}))
	}
	for i := byte(0); i < 3; i++ {
		m, _ := recv(t, c)
		if m.Type != BinaryMessage || m.Data[0] != i {
			t.Errorf("frame %d: unexpected %s %v", i, m.Type, m.Data)
		}
	}
	if lastData(h) != "" {
		t.Error("audio must not be replayed to late clients")
	}
}

func TestOnReceive(t *testing.T) {
	h := New("test", nil)
	var got []Message
	h.OnReceive(func(m Message) { got = append(got, m) })

	h.receive(NewJSONMessage([]byte(`{"action":"start"}`)))
	h.receive(NewBinaryMessage([]byte{0, 1}))

	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Type != JSONMessage || string(got[0].Data) != `{"action":"start"}` {
		t.Errorf("unexpected action %+v", got[0])
	}
	if got[1].Type != BinaryMessage || len(got[1].Data) != 2 {
		t.Errorf("unexpected audio %+v", got[1])
	}
}

func TestFrameMapping(t *testing.T) {
	tests := []struct {
		name      string
		frameType int
		want      MessageType
		ok        bool
	}{
		{"text", websocket.TextMessage, JSONMessage, true},
		{"binary", websocket.BinaryMessage, BinaryMessage, true},
		{"ping", websocket.PingMessage, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := fromFrame(tt.frameType, []byte{1})
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if m.Type != tt.want {
				t.Errorf("expected %s, got %s", tt.want, m.Type)
			}
			if m.frameType() != tt.frameType {
				t.Errorf("expected frame type %d back, got %d", tt.frameType, m.frameType())
			}
		})
	}
}

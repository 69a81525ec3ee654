package vapi

import "testing"

func TestEmitter(t *testing.T) {
	t.Run("on receives every emission", func(t *testing.T) {
		e := NewEmitter()
		count := 0
		e.On(EventCallStart, func(Event) { count++ })

		e.Emit(Event{Name: EventCallStart})
		e.Emit(Event{Name: EventCallStart})
		e.Emit(Event{Name: EventCallEnd})

		if count != 2 {
			t.Errorf("expected 2 calls, got %d", count)
		}
	})

	t.Run("once fires a single time", func(t *testing.T) {
		e := NewEmitter()
		count := 0
		e.Once(EventError, func(Event) { count++ })

		if n := e.Emit(Event{Name: EventError}); n != 1 {
			t.Errorf("expected 1 handler to run, got %d", n)
		}
		e.Emit(Event{Name: EventError})

		if count != 1 {
			t.Errorf("expected 1 call, got %d", count)
		}
		if e.ListenerCount(EventError) != 0 {
			t.Error("once handler should be removed after firing")
		}
	})

	t.Run("off removes only the given handler", func(t *testing.T) {
		e := NewEmitter()
		var a, b int
		subA := e.On(EventMessage, func(Event) { a++ })
		e.On(EventMessage, func(Event) { b++ })

		if !e.Off(subA) {
			t.Fatal("expected Off to remove handler")
		}
		if e.Off(subA) {
			t.Error("second Off should report nothing removed")
		}

		e.Emit(Event{Name: EventMessage})
		if a != 0 || b != 1 {
			t.Errorf("expected a=0 b=1, got a=%d b=%d", a, b)
		}
	})

	t.Run("off before once fires", func(t *testing.T) {
		e := NewEmitter()
		fired := false
		sub := e.Once(EventError, func(Event) { fired = true })
		e.Off(sub)

		e.Emit(Event{Name: EventError})
		if fired {
			t.Error("removed once handler must not fire")
		}
	})

	t.Run("zero subscription is ignored", func(t *testing.T) {
		e := NewEmitter()
		var sub Subscription
		if sub.Valid() {
			t.Error("zero subscription should be invalid")
		}
		if e.Off(sub) {
			t.Error("zero subscription should remove nothing")
		}
	})

	t.Run("handlers may unsubscribe during emit", func(t *testing.T) {
		e := NewEmitter()
		var sub Subscription
		calls := 0
		sub = e.On(EventSpeechStart, func(Event) {
			calls++
			e.Off(sub)
		})

		e.Emit(Event{Name: EventSpeechStart})
		e.Emit(Event{Name: EventSpeechStart})

		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("subscription reports its event", func(t *testing.T) {
		e := NewEmitter()
		sub := e.On(EventSpeechEnd, func(Event) {})
		if sub.Event() != EventSpeechEnd {
			t.Errorf("expected %s, got %s", EventSpeechEnd, sub.Event())
		}
	})
}

func TestMessageIsFinalTranscript(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want bool
	}{
		{"nil", nil, false},
		{"final", &Message{Type: MessageTypeTranscript, TranscriptType: TranscriptFinal}, true},
		{"partial", &Message{Type: MessageTypeTranscript, TranscriptType: TranscriptPartial}, false},
		{"other type", &Message{Type: MessageTypeSpeechUpdate, TranscriptType: TranscriptFinal}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.IsFinalTranscript(); got != tt.want {
				t.Errorf("IsFinalTranscript() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConnectionStateString(t *testing.T) {
	tests := []struct {
		state ConnectionState
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{ConnectionState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

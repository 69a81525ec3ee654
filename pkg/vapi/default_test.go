package vapi

import "testing"

func TestDefaultReadsToken(t *testing.T) {
	t.Run("degraded without token", func(t *testing.T) {
		resetDefault()
		t.Cleanup(resetDefault)
		t.Setenv("VAPI_WEB_TOKEN", "")
		t.Setenv("NEXT_PUBLIC_VAPI_WEB_TOKEN", "")

		c := Default()
		if c == nil {
			t.Fatal("expected a client even without a token")
		}
		if IsConfigured() {
			t.Error("expected unconfigured client")
		}
	})

	t.Run("configured and reused", func(t *testing.T) {
		resetDefault()
		t.Cleanup(resetDefault)
		t.Setenv("VAPI_WEB_TOKEN", "tok")

		first := Default()
		if !first.IsConfigured() {
			t.Error("expected configured client")
		}
		if Default() != first {
			t.Error("Default must return the same client")
		}
	})
}

func TestMockRecordsCalls(t *testing.T) {
	m := NewMock()

	var got []EventName
	sub := m.On(EventCallStart, func(e Event) { got = append(got, e.Name) })
	m.Once(EventError, func(e Event) { got = append(got, e.Name) })

	if err := m.Start(testAssistant, &AssistantOverrides{}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	m.SimulateCallStart()
	m.SimulateError(nil)
	m.SimulateError(nil)
	m.Off(sub)
	m.SimulateCallStart()
	_ = m.Stop()

	if len(got) != 2 || got[0] != EventCallStart || got[1] != EventError {
		t.Errorf("unexpected events: %v", got)
	}
	if m.StartCount() != 1 || m.StopCount() != 1 {
		t.Errorf("expected 1 start and 1 stop, got %d and %d", m.StartCount(), m.StopCount())
	}
	call, ok := m.LastStart()
	if !ok || call.Assistant != testAssistant {
		t.Error("last start not recorded")
	}

	m.Reset()
	if m.StartCount() != 0 {
		t.Error("reset should clear start calls")
	}
}

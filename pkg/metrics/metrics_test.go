package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Attempt()
	m.Outcome(OutcomeTimeout)
	m.Connected(1)
	m.Disconnected()
	m.Transcript("user")
}

func TestRecording(t *testing.T) {
	m := New("test")

	m.Attempt()
	m.Attempt()
	m.Outcome(OutcomeTimeout)
	m.Connected(0.5)
	m.Transcript("assistant")
	m.Transcript("assistant")
	m.Transcript("user")

	if got := testutil.ToFloat64(m.CallAttempts); got != 2 {
		t.Errorf("expected 2 attempts, got %v", got)
	}
	if got := testutil.ToFloat64(m.CallOutcomes.WithLabelValues(OutcomeTimeout)); got != 1 {
		t.Errorf("expected 1 timeout, got %v", got)
	}
	if got := testutil.ToFloat64(m.ActiveCalls); got != 1 {
		t.Errorf("expected 1 active call, got %v", got)
	}
	if got := testutil.ToFloat64(m.TranscriptMessages.WithLabelValues("assistant")); got != 2 {
		t.Errorf("expected 2 assistant lines, got %v", got)
	}

	m.Disconnected()
	if got := testutil.ToFloat64(m.ActiveCalls); got != 0 {
		t.Errorf("expected 0 active calls, got %v", got)
	}
}

func TestRegistryGathers(t *testing.T) {
	m := New("")
	m.Attempt()

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "voicelytics_call_attempts_total" {
			found = true
		}
	}
	if !found {
		t.Error("call attempts metric not registered under default namespace")
	}
}

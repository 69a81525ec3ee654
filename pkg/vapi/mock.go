package vapi

import (
	"errors"
	"sync"
)

// StartCall records one Start invocation on a Mock.
type StartCall struct {
	Assistant *Assistant
	Overrides *AssistantOverrides
}

// Mock is an in-memory voice session for tests. Events are delivered only
// when the test calls one of the Simulate helpers or Emit.
type Mock struct {
	*Emitter

	mu sync.Mutex

	// Configured is returned by IsConfigured.
	Configured bool

	// Configurable behavior
	StartFunc     func(assistant *Assistant, overrides *AssistantOverrides) error
	StopFunc      func() error
	SendAudioFunc func(pcm []byte) error

	// Captured calls for assertions
	StartCalls  []StartCall
	StopCalls   int
	AudioFrames [][]byte
}

// NewMock creates a configured Mock.
func NewMock() *Mock {
	return &Mock{
		Emitter:    NewEmitter(),
		Configured: true,
	}
}

// IsConfigured reports m.Configured.
func (m *Mock) IsConfigured() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Configured
}

// Off removes a handler registered with On or Once.
func (m *Mock) Off(sub Subscription) {
	m.Emitter.Off(sub)
}

// Start records the call and runs StartFunc if set.
func (m *Mock) Start(assistant *Assistant, overrides *AssistantOverrides) error {
	m.mu.Lock()
	m.StartCalls = append(m.StartCalls, StartCall{Assistant: assistant, Overrides: overrides})
	fn := m.StartFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(assistant, overrides)
	}
	return nil
}

// Stop records the call and runs StopFunc if set.
func (m *Mock) Stop() error {
	m.mu.Lock()
	m.StopCalls++
	fn := m.StopFunc
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

// SendAudio records a copy of pcm and runs SendAudioFunc if set.
func (m *Mock) SendAudio(pcm []byte) error {
	m.mu.Lock()
	m.AudioFrames = append(m.AudioFrames, append([]byte(nil), pcm...))
	fn := m.SendAudioFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(pcm)
	}
	return nil
}

// SentAudio returns the frames passed to SendAudio.
func (m *Mock) SentAudio() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.AudioFrames...)
}

// StartCount returns how many times Start was called.
func (m *Mock) StartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.StartCalls)
}

// StopCount returns how many times Stop was called.
func (m *Mock) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StopCalls
}

// LastStart returns the most recent Start call.
func (m *Mock) LastStart() (StartCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.StartCalls) == 0 {
		return StartCall{}, false
	}
	return m.StartCalls[len(m.StartCalls)-1], true
}

// Test helpers

// SimulateCallStart emits EventCallStart.
func (m *Mock) SimulateCallStart() {
	m.Emit(Event{Name: EventCallStart})
}

// SimulateCallEnd emits EventCallEnd.
func (m *Mock) SimulateCallEnd() {
	m.Emit(Event{Name: EventCallEnd})
}

// SimulateTranscript emits a transcript message.
func (m *Mock) SimulateTranscript(role, text string, final bool) {
	kind := TranscriptPartial
	if final {
		kind = TranscriptFinal
	}
	m.SimulateMessage(&Message{
		Type:           MessageTypeTranscript,
		Role:           role,
		TranscriptType: kind,
		Transcript:     text,
	})
}

// SimulateMessage emits msg as EventMessage.
func (m *Mock) SimulateMessage(msg *Message) {
	m.Emit(Event{Name: EventMessage, Message: msg})
}

// SimulateSpeechStart emits EventSpeechStart.
func (m *Mock) SimulateSpeechStart() {
	m.Emit(Event{Name: EventSpeechStart})
}

// SimulateSpeechEnd emits EventSpeechEnd.
func (m *Mock) SimulateSpeechEnd() {
	m.Emit(Event{Name: EventSpeechEnd})
}

// SimulateAudio emits pcm as EventAudio.
func (m *Mock) SimulateAudio(pcm []byte) {
	m.Emit(Event{Name: EventAudio, Audio: pcm})
}

// SimulateError emits EventError. A nil err becomes a generic error.
func (m *Mock) SimulateError(err error) {
	if err == nil {
		err = errors.New("vapi: simulated error")
	}
	m.Emit(Event{Name: EventError, Err: err})
}

// Reset clears captured calls. Registered handlers are kept.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls = nil
	m.StopCalls = 0
	m.AudioFrames = nil
}

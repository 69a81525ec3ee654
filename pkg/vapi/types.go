package vapi

// EventName identifies an event emitted by a Client.
type EventName string

// Events emitted by a Client.
const (
	EventCallStart   EventName = "call-start"
	EventCallEnd     EventName = "call-end"
	EventMessage     EventName = "message"
	EventSpeechStart EventName = "speech-start"
	EventSpeechEnd   EventName = "speech-end"
	EventError       EventName = "error"
	EventAudio       EventName = "audio"
)

// Event is delivered to handlers. Only the field matching Name is set.
type Event struct {
	Name EventName

	// Message is set for EventMessage.
	Message *Message

	// Audio is set for EventAudio (raw PCM from the assistant).
	Audio []byte

	// Err is set for EventError.
	Err error
}

// Handler receives events.
type Handler func(Event)

// Message types and values sent by the voice service.
const (
	MessageTypeTranscript   = "transcript"
	MessageTypeSpeechUpdate = "speech-update"
	MessageTypeStatusUpdate = "status-update"

	TranscriptFinal   = "final"
	TranscriptPartial = "partial"

	SpeechStarted = "started"
	SpeechStopped = "stopped"

	StatusEnded = "ended"

	RoleAssistant = "assistant"
	RoleUser      = "user"
	RoleSystem    = "system"
)

// Message is a control or transcript message received during a call.
type Message struct {
	Type           string `json:"type"`
	Role           string `json:"role,omitempty"`
	TranscriptType string `json:"transcriptType,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	Status         string `json:"status,omitempty"`
	EndedReason    string `json:"endedReason,omitempty"`

	// Raw is the undecoded frame.
	Raw []byte `json:"-"`
}

// IsFinalTranscript reports whether m is a finalized transcript line.
func (m *Message) IsFinalTranscript() bool {
	return m != nil && m.Type == MessageTypeTranscript && m.TranscriptType == TranscriptFinal
}

// Assistant is an inline assistant definition passed to Start.
type Assistant struct {
	Name           string       `json:"name,omitempty"`
	FirstMessage   string       `json:"firstMessage,omitempty"`
	Transcriber    *Transcriber `json:"transcriber,omitempty"`
	Voice          *Voice       `json:"voice,omitempty"`
	Model          *Model       `json:"model,omitempty"`
	ClientMessages []string     `json:"clientMessages,omitempty"`
	ServerMessages []string     `json:"serverMessages,omitempty"`
}

// Transcriber selects the speech-to-text provider.
type Transcriber struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Language string `json:"language,omitempty"`
}

// Voice selects the text-to-speech voice.
type Voice struct {
	Provider        string  `json:"provider"`
	VoiceID         string  `json:"voiceId"`
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarityBoost,omitempty"`
	Speed           float64 `json:"speed,omitempty"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"useSpeakerBoost,omitempty"`
}

// Model selects the language model and its prompt.
type Model struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Messages []ModelMessage `json:"messages,omitempty"`
}

// ModelMessage is a prompt message for the assistant's model.
type ModelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AssistantOverrides adjusts an assistant for a single call.
// ClientMessages and ServerMessages are always encoded, an empty list
// meaning "none".
type AssistantOverrides struct {
	VariableValues map[string]any `json:"variableValues,omitempty"`
	ClientMessages []string       `json:"clientMessages"`
	ServerMessages []string       `json:"serverMessages"`
}

func (o *AssistantOverrides) normalized() *AssistantOverrides {
	if o == nil {
		return nil
	}
	out := *o
	if out.ClientMessages == nil {
		out.ClientMessages = []string{}
	}
	if out.ServerMessages == nil {
		out.ServerMessages = []string{}
	}
	return &out
}

// ConnectionState represents the call connection state.
type ConnectionState int

const (
	// StateDisconnected indicates no call.
	StateDisconnected ConnectionState = iota
	// StateConnecting indicates the call is being created or joined.
	StateConnecting
	// StateConnected indicates an active call.
	StateConnected
)

// String returns a human-readable connection state.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

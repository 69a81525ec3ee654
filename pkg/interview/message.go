package interview

import (
	"time"

	"github.com/teslashibe/voicelytics/pkg/vapi"
)

// Role identifies who produced a transcript line.
type Role string

// Transcript roles.
const (
	RoleUser      Role = vapi.RoleUser
	RoleSystem    Role = vapi.RoleSystem
	RoleAssistant Role = vapi.RoleAssistant
)

// Message is one finalized transcript line.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SessionParameters are supplied by the host UI at mount time and passed to
// the voice session unchanged.
type SessionParameters struct {
	UserName    string   `json:"userName"`
	UserID      string   `json:"userId"`
	InterviewID string   `json:"interviewId"`
	FeedbackID  string   `json:"feedbackId"`
	Type        string   `json:"type"`
	Questions   []string `json:"questions"`
}

// Transcript is the record of one completed call.
type Transcript struct {
	CallID      string
	UserID      string
	InterviewID string
	FeedbackID  string
	Type        string
	Messages    []Message
	StartedAt   time.Time
	EndedAt     time.Time
}

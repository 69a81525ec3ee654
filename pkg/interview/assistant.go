package interview

import (
	"strings"

	"github.com/teslashibe/voicelytics/pkg/vapi"
)

// interviewerPrompt is the system prompt for the interviewer. {{questions}}
// is substituted with the host's question list.
const interviewerPrompt = `You are a professional job interviewer conducting a real-time voice interview with a candidate. Your goal is to assess their qualifications, motivation, and fit for the role.

Interview guidelines:
Follow the structured question flow:
{{questions}}

Engage naturally and react appropriately:
Listen actively to responses and acknowledge them before moving forward.
Ask brief follow-up questions if a response is vague or requires more detail.
Keep the conversation flowing smoothly while maintaining control.

Be professional, yet warm and welcoming.
Keep all your responses short and simple. This is a voice conversation, so keep replies concise like in a real conversation.

Conclude the interview properly:
Thank the candidate for their time.
Inform them that the company will reach out soon with feedback.
End the conversation on a polite and positive note.`

const firstMessage = "Hello! Thank you for taking the time to speak with me today. I'm excited to learn more about you and your experience."

// BuildAssistant returns the interviewer assistant for p.
func BuildAssistant(p SessionParameters) *vapi.Assistant {
	return &vapi.Assistant{
		Name:         "Interviewer",
		FirstMessage: firstMessage,
		Transcriber: &vapi.Transcriber{
			Provider: "deepgram",
			Model:    "nova-2",
			Language: "en",
		},
		Voice: &vapi.Voice{
			Provider:        "11labs",
			VoiceID:         "sarah",
			Stability:       0.4,
			SimilarityBoost: 0.8,
			Speed:           0.9,
			Style:           0.5,
			UseSpeakerBoost: true,
		},
		Model: &vapi.Model{
			Provider: "openai",
			Model:    "gpt-4",
			Messages: []vapi.ModelMessage{
				{Role: vapi.RoleSystem, Content: systemPrompt(p)},
			},
		},
	}
}

func systemPrompt(p SessionParameters) string {
	var b strings.Builder
	for _, q := range p.Questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(q)
		b.WriteString("\n")
	}
	questions := strings.TrimRight(b.String(), "\n")
	if questions == "" {
		questions = "- Ask the candidate about their background and interest in a " + p.Type + " interview."
	}
	return strings.Replace(interviewerPrompt, "{{questions}}", questions, 1)
}

// BuildOverrides returns the per-call overrides for p: the session
// parameters as variable values, transcript messages streamed to the client,
// and no server messages.
func BuildOverrides(p SessionParameters) *vapi.AssistantOverrides {
	questions := p.Questions
	if questions == nil {
		questions = []string{}
	}
	return &vapi.AssistantOverrides{
		VariableValues: map[string]any{
			"userName":    p.UserName,
			"userId":      p.UserID,
			"interviewId": p.InterviewID,
			"feedbackId":  p.FeedbackID,
			"type":        p.Type,
			"questions":   questions,
		},
		ClientMessages: []string{vapi.MessageTypeTranscript},
		ServerMessages: []string{},
	}
}

package interview

// Labels and text shown by the call view.
const (
	InterviewerName = "AI Interviewer"

	LabelCall          = "Call"
	LabelConnecting    = "Connecting..."
	LabelCannotConnect = "Cannot Connect"
	LabelEnd           = "End"

	ConnectingLine = "Connecting to VAPI..."
)

// Actions triggered by the view's action control.
const (
	ActionStart = "start"
	ActionEnd   = "end"
)

// ActionControl is the single call button.
type ActionControl struct {
	Label    string `json:"label"`
	Action   string `json:"action"`
	Disabled bool   `json:"disabled"`
	// Pending drives the ping animation while connecting.
	Pending bool `json:"pending"`
}

// View is everything a host page needs to render the call.
type View struct {
	Version uint64 `json:"version"`
	Status  string `json:"status"`

	InterviewerName     string `json:"interviewer_name"`
	InterviewerSpeaking bool   `json:"interviewer_speaking"`
	UserName            string `json:"user_name"`

	// LatestMessage is only set once the transcript has a line.
	ShowTranscript bool   `json:"show_transcript"`
	LatestMessage  string `json:"latest_message,omitempty"`
	MessageCount   int    `json:"message_count"`

	Action ActionControl `json:"action"`

	ConnectingLine string `json:"connecting_line,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (c *Controller) viewLocked() View {
	return render(c.state, c.speaking, c.params.UserName, c.messages, c.version)
}

func render(state CallState, speaking bool, userName string, messages []Message, version uint64) View {
	status := state.Status()
	errMsg := state.ErrorMessage()

	v := View{
		Version:             version,
		Status:              status.String(),
		InterviewerName:     InterviewerName,
		InterviewerSpeaking: speaking,
		UserName:            userName,
		MessageCount:        len(messages),
		Error:               errMsg,
	}

	if n := len(messages); n > 0 {
		v.ShowTranscript = true
		v.LatestMessage = messages[n-1].Content
	}

	switch {
	case status == StatusActive:
		v.Action = ActionControl{Label: LabelEnd, Action: ActionEnd}
	case errMsg != "":
		v.Action = ActionControl{Label: LabelCannotConnect, Action: ActionStart, Disabled: true}
	case status == StatusConnecting:
		v.Action = ActionControl{Label: LabelConnecting, Action: ActionStart, Disabled: true, Pending: true}
	default:
		v.Action = ActionControl{Label: LabelCall, Action: ActionStart}
	}

	if status == StatusConnecting {
		v.ConnectingLine = ConnectingLine
	}
	return v
}

package interview

import "time"

// CallStatus is the coarse call lifecycle value shown to the host UI.
type CallStatus int

const (
	// StatusInactive indicates no call has been attempted, or the last attempt failed.
	StatusInactive CallStatus = iota
	// StatusConnecting indicates a call attempt is in flight.
	StatusConnecting
	// StatusActive indicates the voice session is live.
	StatusActive
	// StatusFinished indicates the last call ended. A new call may be started.
	StatusFinished
)

// String returns the status name used in views and logs.
func (s CallStatus) String() string {
	switch s {
	case StatusInactive:
		return "INACTIVE"
	case StatusConnecting:
		return "CONNECTING"
	case StatusActive:
		return "ACTIVE"
	case StatusFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// CallState is the controller's state. It is one of Inactive, Connecting,
// Active or Finished; only the idle variants carry an error message.
type CallState interface {
	Status() CallStatus
	ErrorMessage() string
	isCallState()
}

// Inactive is the initial state and the state after a failed attempt.
type Inactive struct {
	Error string
}

// Connecting is an in-flight attempt.
type Connecting struct {
	AttemptID string
	Since     time.Time
}

// Active is a live call.
type Active struct {
	AttemptID string
	Since     time.Time
}

// Finished is the state after a call ended.
type Finished struct {
	Error string
}

func (Inactive) Status() CallStatus   { return StatusInactive }
func (Connecting) Status() CallStatus { return StatusConnecting }
func (Active) Status() CallStatus     { return StatusActive }
func (Finished) Status() CallStatus   { return StatusFinished }

func (s Inactive) ErrorMessage() string { return s.Error }
func (Connecting) ErrorMessage() string { return "" }
func (Active) ErrorMessage() string     { return "" }
func (s Finished) ErrorMessage() string { return s.Error }

func (Inactive) isCallState()   {}
func (Connecting) isCallState() {}
func (Active) isCallState()     {}
func (Finished) isCallState()   {}

// idle returns the idle variant for status carrying msg. Anything other than
// Finished collapses to Inactive.
func idle(status CallStatus, msg string) CallState {
	if status == StatusFinished {
		return Finished{Error: msg}
	}
	return Inactive{Error: msg}
}

// isIdle reports whether a new call may be started from s.
func isIdle(s CallState) bool {
	switch s.(type) {
	case Inactive, Finished:
		return true
	default:
		return false
	}
}

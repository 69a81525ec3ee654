package interview

import "errors"

// Messages placed in the error slot and shown to the user.
const (
	MsgMissingUser      = "User information is missing"
	MsgMissingType      = "Interview type is missing"
	MsgNotConfigured    = "VAPI is not properly configured. Please check your environment variables."
	MsgConnectionFailed = "Failed to connect to VAPI. Please check your internet connection and try again."
	MsgTimeout          = "Connection timeout. VAPI service might be unavailable."
	MsgStartFailed      = "Failed to start VAPI call. Please try again."
)

// Errors returned by StartCall and EndCall.
var (
	ErrNotConfigured   = errors.New("interview: voice session is not configured")
	ErrMissingUserName = errors.New("interview: user name is required")
	ErrMissingType     = errors.New("interview: interview type is required")
	ErrCallInProgress  = errors.New("interview: a call is already connecting or active")
	ErrStartFailed     = errors.New("interview: failed to start call")
	ErrUnmounted       = errors.New("interview: controller is unmounted")
	ErrCallCancelled   = errors.New("interview: call was ended while starting")
)

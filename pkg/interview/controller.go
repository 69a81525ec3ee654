// Package interview implements the call-state controller for a voice
// interview: it tracks call status, the transcript log and the interviewer's
// speaking indicator from voice session events, and exposes StartCall and
// EndCall to the host UI.
package interview

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/voicelytics/pkg/metrics"
	"github.com/teslashibe/voicelytics/pkg/vapi"
)

// DefaultConnectTimeout bounds how long a call may stay connecting.
const DefaultConnectTimeout = 10 * time.Second

// Session is the voice session the controller drives. *vapi.Client and
// *vapi.Mock implement it.
type Session interface {
	IsConfigured() bool
	Start(assistant *vapi.Assistant, overrides *vapi.AssistantOverrides) error
	Stop() error
	On(event vapi.EventName, fn vapi.Handler) vapi.Subscription
	Once(event vapi.EventName, fn vapi.Handler) vapi.Subscription
	Off(sub vapi.Subscription)
}

type stopper interface {
	Stop() bool
}

// attempt holds the resources scoped to one call attempt.
type attempt struct {
	id      string
	started time.Time
	errSub  vapi.Subscription
	timer   stopper

	// set by EndCall; guarded by Controller.mu
	cancelled bool
}

// Controller mediates between the host UI and a voice session.
type Controller struct {
	session Session
	params  SessionParameters
	logger  *slog.Logger
	metrics *metrics.Metrics

	connectTimeout time.Duration
	afterFunc      func(d time.Duration, f func()) stopper
	now            func() time.Time
	onChange       func(View)
	onFinished     func(Transcript)

	mu          sync.Mutex
	mounted     bool
	subs        []vapi.Subscription
	state       CallState
	messages    []Message
	lastMessage string
	speaking    bool
	attempt     *attempt
	version     uint64

	// call bookkeeping for the transcript handed to onFinished
	callID       string
	callStarted  time.Time
	callFirstMsg int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithConnectTimeout overrides DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithMetrics records call activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithOnChange registers fn to receive a fresh View after every state change.
// fn runs without the controller lock held.
func WithOnChange(fn func(View)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// WithOnFinished registers fn to receive the transcript of each call that
// became active and then ended with at least one message.
func WithOnFinished(fn func(Transcript)) Option {
	return func(c *Controller) {
		c.onFinished = fn
	}
}

// Mount creates a controller for params and subscribes it to session events.
// Call Unmount to release the subscriptions.
func Mount(session Session, params SessionParameters, opts ...Option) *Controller {
	c := &Controller{
		session:        session,
		params:         params,
		logger:         slog.Default(),
		connectTimeout: DefaultConnectTimeout,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		now:   time.Now,
		state: Inactive{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "interview", "interview_id", params.InterviewID)

	var msg string
	if params.UserName == "" {
		c.logger.Warn("user name is required")
		msg = MsgMissingUser
	}
	if params.Type == "" {
		c.logger.Warn("interview type is required")
		msg = MsgMissingType
	}
	c.state = Inactive{Error: msg}

	c.subs = []vapi.Subscription{
		session.On(vapi.EventCallStart, c.handleCallStart),
		session.On(vapi.EventCallEnd, c.handleCallEnd),
		session.On(vapi.EventMessage, c.handleMessage),
		session.On(vapi.EventSpeechStart, c.handleSpeechStart),
		session.On(vapi.EventSpeechEnd, c.handleSpeechEnd),
		session.On(vapi.EventError, c.handleError),
	}
	c.mounted = true

	c.logger.Debug("mounted", "user", params.UserName, "type", params.Type)
	return c
}

// Unmount releases every session subscription and any in-flight attempt.
// An active call is finished as if it had ended, so its transcript is still
// delivered. The session itself is left running. Events delivered afterwards
// have no effect. It is safe to call twice.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	c.releaseAttemptLocked()
	for _, sub := range c.subs {
		c.session.Off(sub)
	}
	c.subs = nil

	var (
		transcript *Transcript
		view       *View
	)
	if _, ok := c.state.(Active); ok {
		transcript = c.finishLocked()
		v := c.changedLocked()
		view = &v
	}
	c.mu.Unlock()

	if view != nil {
		c.notify(*view)
		c.deliver(transcript)
	}
	c.logger.Debug("unmounted")
}

// StartCall begins a call attempt. Precondition failures set the error slot
// and return an error without contacting the session.
func (c *Controller) StartCall() error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	if !isIdle(c.state) {
		c.mu.Unlock()
		return ErrCallInProgress
	}

	prev := c.state.Status()
	c.state = idle(prev, "")

	if err := c.checkStartLocked(); err != nil {
		c.metrics.Outcome(metrics.OutcomeRejected)
		view := c.changedLocked()
		c.mu.Unlock()
		c.notify(view)
		return err
	}

	a := &attempt{id: uuid.NewString(), started: c.now()}
	c.attempt = a
	c.state = Connecting{AttemptID: a.id, Since: a.started}
	c.callFirstMsg = len(c.messages)
	c.metrics.Attempt()

	assistant := BuildAssistant(c.params)
	overrides := BuildOverrides(c.params)

	a.errSub = c.session.Once(vapi.EventError, func(e vapi.Event) {
		c.handleAttemptError(a.id, e)
	})
	a.timer = c.afterFunc(c.connectTimeout, func() {
		c.handleTimeout(a.id)
	})

	view := c.changedLocked()
	c.mu.Unlock()
	c.notify(view)

	// The change handler may have ended the attempt already.
	c.mu.Lock()
	cancelled := c.attempt != a
	c.mu.Unlock()
	if cancelled {
		c.logger.Info("call cancelled before start", "attempt_id", a.id)
		return ErrCallCancelled
	}

	c.logger.Info("starting call", "attempt_id", a.id, "type", c.params.Type)

	if err := c.session.Start(assistant, overrides); err != nil {
		c.logger.Error("failed to start call", "attempt_id", a.id, "error", err)

		c.mu.Lock()
		if c.attempt != a {
			c.mu.Unlock()
			return fmt.Errorf("%w: %w", ErrStartFailed, err)
		}
		c.releaseAttemptLocked()
		c.state = Inactive{Error: MsgStartFailed}
		c.metrics.Outcome(metrics.OutcomeStartError)
		view := c.changedLocked()
		c.mu.Unlock()
		c.notify(view)

		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	// EndCall ran while Start was in flight and its Stop may have been a
	// no-op, so stop the session that Start just opened. A newer attempt
	// owns the session if one exists.
	c.mu.Lock()
	cancelled = a.cancelled && c.attempt == nil
	c.mu.Unlock()
	if cancelled {
		c.logger.Info("call ended while starting", "attempt_id", a.id)
		if err := c.session.Stop(); err != nil {
			c.logger.Warn("stop failed", "error", err)
		}
		return ErrCallCancelled
	}
	return nil
}

// checkStartLocked validates start preconditions and sets the error slot on
// failure, keeping the current idle status.
func (c *Controller) checkStartLocked() error {
	fail := func(msg string, err error) error {
		c.state = idle(c.state.Status(), msg)
		return err
	}

	if !c.session.IsConfigured() {
		c.logger.Error("voice session is not configured")
		return fail(MsgNotConfigured, ErrNotConfigured)
	}
	if c.params.UserName == "" {
		return fail(MsgMissingUser, ErrMissingUserName)
	}
	if c.params.Type == "" {
		return fail(MsgMissingType, ErrMissingType)
	}
	return nil
}

// EndCall finishes the call regardless of its status and asks the session
// to stop. Stop failures are logged only.
func (c *Controller) EndCall() error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	if c.attempt != nil {
		c.attempt.cancelled = true
	}
	c.releaseAttemptLocked()
	transcript := c.finishLocked()
	view := c.changedLocked()
	c.mu.Unlock()

	c.notify(view)
	c.deliver(transcript)

	if err := c.session.Stop(); err != nil {
		c.logger.Warn("stop failed", "error", err)
	}
	return nil
}

// finishLocked moves to Finished and returns the transcript if a live call
// just ended.
func (c *Controller) finishLocked() *Transcript {
	_, wasActive := c.state.(Active)
	c.state = Finished{Error: c.state.ErrorMessage()}

	if !wasActive {
		return nil
	}
	c.metrics.Disconnected()

	msgs := c.messages[c.callFirstMsg:]
	if len(msgs) == 0 {
		return nil
	}
	return &Transcript{
		CallID:      c.callID,
		UserID:      c.params.UserID,
		InterviewID: c.params.InterviewID,
		FeedbackID:  c.params.FeedbackID,
		Type:        c.params.Type,
		Messages:    append([]Message(nil), msgs...),
		StartedAt:   c.callStarted,
		EndedAt:     c.now(),
	}
}

// releaseAttemptLocked cancels the watchdog and the one-shot error handler.
func (c *Controller) releaseAttemptLocked() {
	a := c.attempt
	if a == nil {
		return
	}
	c.attempt = nil
	if a.timer != nil {
		a.timer.Stop()
	}
	c.session.Off(a.errSub)
}

func (c *Controller) handleAttemptError(id string, e vapi.Event) {
	c.mu.Lock()
	if !c.mounted || c.attempt == nil || c.attempt.id != id {
		c.mu.Unlock()
		return
	}
	c.logger.Error("voice connection error", "attempt_id", id, "error", e.Err)
	c.releaseAttemptLocked()
	c.state = Inactive{Error: MsgConnectionFailed}
	c.metrics.Outcome(metrics.OutcomeConnectionError)
	view := c.changedLocked()
	c.mu.Unlock()

	c.notify(view)
}

func (c *Controller) handleTimeout(id string) {
	c.mu.Lock()
	if !c.mounted || c.attempt == nil || c.attempt.id != id {
		c.mu.Unlock()
		return
	}
	if _, ok := c.state.(Connecting); !ok {
		c.mu.Unlock()
		return
	}
	c.logger.Warn("call connection timed out", "attempt_id", id, "timeout", c.connectTimeout)
	c.releaseAttemptLocked()
	c.state = Inactive{Error: MsgTimeout}
	c.metrics.Outcome(metrics.OutcomeTimeout)
	view := c.changedLocked()
	c.mu.Unlock()

	c.notify(view)
}

func (c *Controller) handleCallStart(vapi.Event) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	if _, ok := c.state.(Active); ok {
		c.mu.Unlock()
		return
	}
	// A call-start with no attempt after EndCall belongs to a call the user
	// already ended.
	if _, ok := c.state.(Finished); ok && c.attempt == nil {
		c.mu.Unlock()
		c.logger.Debug("ignoring call start after end")
		return
	}

	now := c.now()
	id := uuid.NewString()
	started := now
	if a := c.attempt; a != nil {
		id, started = a.id, a.started
		c.releaseAttemptLocked()
	} else {
		c.callFirstMsg = len(c.messages)
	}
	c.metrics.Connected(now.Sub(started).Seconds())

	c.state = Active{AttemptID: id, Since: now}
	c.callID = id
	c.callStarted = now
	view := c.changedLocked()
	c.mu.Unlock()

	c.logger.Info("call active", "attempt_id", id)
	c.notify(view)
}

func (c *Controller) handleCallEnd(vapi.Event) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	if _, ok := c.state.(Finished); ok {
		c.mu.Unlock()
		return
	}
	c.releaseAttemptLocked()
	transcript := c.finishLocked()
	view := c.changedLocked()
	c.mu.Unlock()

	c.logger.Info("call ended")
	c.notify(view)
	c.deliver(transcript)
}

func (c *Controller) handleMessage(e vapi.Event) {
	if !e.Message.IsFinalTranscript() {
		return
	}

	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	switch c.state.(type) {
	case Connecting, Active:
	default:
		c.mu.Unlock()
		c.logger.Debug("dropping transcript outside a call", "status", c.Status())
		return
	}

	role := Role(e.Message.Role)
	if role == "" {
		role = RoleAssistant
	}
	msg := Message{Role: role, Content: e.Message.Transcript}
	c.messages = append(c.messages, msg)
	c.lastMessage = msg.Content
	c.metrics.Transcript(string(role))
	view := c.changedLocked()
	c.mu.Unlock()

	c.notify(view)
}

func (c *Controller) handleSpeechStart(vapi.Event) {
	c.setSpeaking(true)
}

func (c *Controller) handleSpeechEnd(vapi.Event) {
	c.setSpeaking(false)
}

func (c *Controller) setSpeaking(v bool) {
	c.mu.Lock()
	if !c.mounted || c.speaking == v {
		c.mu.Unlock()
		return
	}
	c.speaking = v
	view := c.changedLocked()
	c.mu.Unlock()

	c.notify(view)
}

// handleError logs session errors. Errors during an attempt are handled by
// the attempt's one-shot handler.
func (c *Controller) handleError(e vapi.Event) {
	c.mu.Lock()
	mounted := c.mounted
	c.mu.Unlock()
	if !mounted {
		return
	}
	c.logger.Error("voice session error", "error", e.Err)
}

// changedLocked bumps the version and returns the current view.
func (c *Controller) changedLocked() View {
	c.version++
	return c.viewLocked()
}

func (c *Controller) notify(v View) {
	if c.onChange != nil {
		c.onChange(v)
	}
}

func (c *Controller) deliver(t *Transcript) {
	if t == nil || c.onFinished == nil {
		return
	}
	c.onFinished(*t)
}

// State returns the current call state.
func (c *Controller) State() CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the current call status.
func (c *Controller) Status() CallStatus {
	return c.State().Status()
}

// Error returns the error slot, or "" when clear.
func (c *Controller) Error() string {
	return c.State().ErrorMessage()
}

// Messages returns a copy of the transcript log.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// LatestMessage returns the most recent transcript line, or "".
func (c *Controller) LatestMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMessage
}

// IsSpeaking reports whether the interviewer is currently speaking.
func (c *Controller) IsSpeaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// Params returns the session parameters given at mount.
func (c *Controller) Params() SessionParameters {
	return c.params
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

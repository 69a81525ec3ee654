package vapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/voicelytics/internal/httpc"
)

// Client runs one Vapi call at a time and emits its events.
type Client struct {
	config *Config
	token  string
	logger *slog.Logger
	events *Emitter

	mu     sync.Mutex
	state  ConnectionState
	conn   *websocket.Conn
	callID string
	cancel context.CancelFunc
	// gen increments per Start and Stop so a superseded call's goroutine
	// can tell it no longer owns the client.
	gen uint64

	writeMu sync.Mutex

	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
}

// New creates a Client. An empty token is accepted; the client then reports
// IsConfigured false and refuses to start calls.
func New(token string, opts ...Option) *Client {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpc.Client
	}

	return &Client{
		config: cfg,
		token:  token,
		logger: cfg.Logger.With("component", "vapi"),
		events: NewEmitter(),
		state:  StateDisconnected,
	}
}

// IsConfigured reports whether the client has a token.
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// On registers fn for every emission of event.
func (c *Client) On(event EventName, fn Handler) Subscription {
	return c.events.On(event, fn)
}

// Once registers fn for the next emission of event.
func (c *Client) Once(event EventName, fn Handler) Subscription {
	return c.events.Once(event, fn)
}

// Off removes a handler registered with On or Once.
func (c *Client) Off(sub Subscription) {
	c.events.Off(sub)
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CallID returns the ID of the current call, if any.
func (c *Client) CallID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callID
}

// Start begins a call with the given assistant. It returns once the request
// is accepted; the outcome arrives as EventCallStart or EventError.
func (c *Client) Start(assistant *Assistant, overrides *AssistantOverrides) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if assistant == nil {
		return ErrMissingAssistant
	}

	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.gen++
	gen := c.gen
	c.state = StateConnecting
	c.cancel = cancel
	c.callID = ""
	c.mu.Unlock()

	go c.run(ctx, gen, assistant, overrides.normalized())
	return nil
}

// Stop ends the current call. It is best effort and idempotent; EventCallEnd
// is emitted if a call was connecting or active.
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	c.state = StateDisconnected
	c.conn = nil
	callID := c.callID
	c.mu.Unlock()

	if conn != nil {
		if err := c.writeJSON(conn, map[string]string{"type": "end-call"}); err != nil {
			c.logger.Debug("end-call send failed", "error", err)
		}
		c.closeConn(conn)
	}

	c.logger.Info("call stopped", "call_id", callID)
	c.events.Emit(Event{Name: EventCallEnd})
	return nil
}

// SendAudio streams raw PCM to the assistant.
func (c *Client) SendAudio(pcm []byte) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()

	if state != StateConnected || conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.BinaryMessage, pcm)
	c.writeMu.Unlock()
	if err != nil {
		return NewConnectionError("send audio failed", err, true)
	}

	c.messagesSent.Add(1)
	return nil
}

// Stats returns frame counters for the client's lifetime.
func (c *Client) Stats() (sent, received int64) {
	return c.messagesSent.Load(), c.messagesReceived.Load()
}

// run creates and joins the call, then reads frames until it ends.
func (c *Client) run(ctx context.Context, gen uint64, assistant *Assistant, overrides *AssistantOverrides) {
	setupCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	call, err := c.createCall(setupCtx, assistant, overrides)
	if err != nil {
		c.fail(ctx, gen, err)
		return
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.config.Timeout}
	conn, resp, err := dialer.DialContext(setupCtx, call.Transport.WebsocketCallURL, nil)
	if err != nil {
		if resp != nil {
			c.fail(ctx, gen, NewConnectionError(
				fmt.Sprintf("dial failed with status %d", resp.StatusCode),
				err,
				resp.StatusCode >= 500,
			))
			return
		}
		c.fail(ctx, gen, NewConnectionError("dial failed", err, true))
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.closeConn(conn)
		return
	}
	c.conn = conn
	c.callID = call.ID
	c.state = StateConnected
	c.mu.Unlock()

	c.logger.Info("call started", "call_id", call.ID)
	c.events.Emit(Event{Name: EventCallStart})

	c.readLoop(ctx, gen, conn)
}

// fail reports a setup failure unless the call was stopped meanwhile.
func (c *Client) fail(ctx context.Context, gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.state = StateDisconnected
	c.mu.Unlock()

	c.logger.Error("call setup failed", "error", err)
	c.events.Emit(Event{Name: EventError, Err: err})
}

// finish moves to disconnected and emits EventCallEnd once per call.
func (c *Client) finish(gen uint64, reason string) {
	c.mu.Lock()
	if c.gen != gen || c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	if c.cancel != nil {
		c.cancel()
	}
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		c.closeConn(conn)
	}

	c.logger.Info("call ended", "reason", reason)
	c.events.Emit(Event{Name: EventCallEnd})
}

func (c *Client) readLoop(ctx context.Context, gen uint64, conn *websocket.Conn) {
	for {
		if c.config.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		}

		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.finish(gen, "closed")
				return
			}
			c.logger.Error("read error", "error", err)
			c.events.Emit(Event{Name: EventError, Err: NewConnectionError("read failed", err, true)})
			c.finish(gen, "read error")
			return
		}

		c.messagesReceived.Add(1)

		if mt == websocket.BinaryMessage {
			c.events.Emit(Event{Name: EventAudio, Audio: data})
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("failed to parse message", "error", err)
			continue
		}
		msg.Raw = data

		if c.handleMessage(gen, &msg) {
			return
		}
	}
}

// handleMessage emits events for msg and reports whether the call ended.
func (c *Client) handleMessage(gen uint64, msg *Message) bool {
	c.events.Emit(Event{Name: EventMessage, Message: msg})

	switch msg.Type {
	case MessageTypeSpeechUpdate:
		if msg.Role != RoleAssistant {
			return false
		}
		switch msg.Status {
		case SpeechStarted:
			c.events.Emit(Event{Name: EventSpeechStart})
		case SpeechStopped:
			c.events.Emit(Event{Name: EventSpeechEnd})
		}

	case MessageTypeStatusUpdate:
		if msg.Status == StatusEnded {
			c.finish(gen, msg.EndedReason)
			return true
		}
	}
	return false
}

func (c *Client) writeJSON(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	c.messagesSent.Add(1)
	return nil
}

func (c *Client) closeConn(conn *websocket.Conn) {
	c.writeMu.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()
	conn.Close()
}

type createCallRequest struct {
	Assistant          *Assistant          `json:"assistant"`
	AssistantOverrides *AssistantOverrides `json:"assistantOverrides,omitempty"`
	Transport          transportRequest    `json:"transport"`
}

type transportRequest struct {
	Provider    string      `json:"provider"`
	AudioFormat audioFormat `json:"audioFormat"`
}

type audioFormat struct {
	Format     string `json:"format"`
	Container  string `json:"container"`
	SampleRate int    `json:"sampleRate"`
}

type createCallResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Transport struct {
		WebsocketCallURL string `json:"websocketCallUrl"`
	} `json:"transport"`
}

func (c *Client) createCall(ctx context.Context, assistant *Assistant, overrides *AssistantOverrides) (*createCallResponse, error) {
	req := createCallRequest{
		Assistant:          assistant,
		AssistantOverrides: overrides,
		Transport: transportRequest{
			Provider: "vapi.websocket",
			AudioFormat: audioFormat{
				Format:     "pcm_s16le",
				Container:  "raw",
				SampleRate: c.config.SampleRate,
			},
		},
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/call"

	var resp createCallResponse
	if err := httpc.PostJSON(ctx, c.config.HTTPClient, url, c.token, req, &resp); err != nil {
		var statusErr *httpc.StatusError
		if errors.As(err, &statusErr) {
			apiErr := NewAPIError(statusErr.StatusCode, statusErr.Body)
			return nil, NewConnectionError("create call failed", apiErr, apiErr.Retryable)
		}
		return nil, NewConnectionError("create call failed", err, true)
	}

	if resp.Transport.WebsocketCallURL == "" {
		return nil, NewConnectionError("create call failed", ErrMissingTransportURL, false)
	}

	c.logger.Debug("call created", "call_id", resp.ID, "status", resp.Status)
	return &resp, nil
}

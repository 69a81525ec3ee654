package web

import (
	_ "embed"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/voicelytics/pkg/backend"
	"github.com/teslashibe/voicelytics/pkg/hub"
	"github.com/teslashibe/voicelytics/pkg/interview"
	"github.com/teslashibe/voicelytics/pkg/vapi"
)

//go:embed static/index.html
var indexHTML []byte

// identityKey is the fiber Locals key holding the verified caller.
const identityKey = "identity"

// ActionRequest is a page request sent over /ws/view.
type ActionRequest struct {
	Action string `json:"action"`
}

// CallResponse is returned by the call and end routes.
type CallResponse struct {
	View  interview.View `json:"view"`
	Error string         `json:"error,omitempty"`
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"clients": s.viewHub.ClientCount(),
	})
}

// handleView returns the current view
func (s *Server) handleView(c *fiber.Ctx) error {
	return c.JSON(s.controller.View())
}

// handleTranscript returns every finalized line of the session
func (s *Server) handleTranscript(c *fiber.Ctx) error {
	msgs := s.controller.Messages()
	if msgs == nil {
		msgs = []interview.Message{}
	}
	return c.JSON(fiber.Map{
		"interview_id": s.controller.Params().InterviewID,
		"messages":     msgs,
	})
}

// handleStartCall starts a call and reports the resulting view
func (s *Server) handleStartCall(c *fiber.Ctx) error {
	err := s.controller.StartCall()
	view := s.controller.View()
	if err == nil {
		return c.JSON(CallResponse{View: view})
	}

	msg := view.Error
	if msg == "" {
		msg = err.Error()
	}
	return c.Status(startStatus(err)).JSON(CallResponse{View: view, Error: msg})
}

// startStatus maps a StartCall error to an HTTP status.
func startStatus(err error) int {
	switch {
	case errors.Is(err, interview.ErrCallInProgress),
		errors.Is(err, interview.ErrCallCancelled):
		return fiber.StatusConflict
	case errors.Is(err, interview.ErrUnmounted):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, interview.ErrNotConfigured),
		errors.Is(err, interview.ErrMissingUserName),
		errors.Is(err, interview.ErrMissingType):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, interview.ErrStartFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// handleEndCall ends the call
func (s *Server) handleEndCall(c *fiber.Ctx) error {
	if err := s.controller.EndCall(); err != nil {
		return c.Status(startStatus(err)).JSON(CallResponse{View: s.controller.View(), Error: err.Error()})
	}
	return c.JSON(CallResponse{View: s.controller.View()})
}

func (s *Server) handleGetTranscript(c *fiber.Ctx) error {
	if s.transcripts == nil {
		return fiber.NewError(fiber.StatusNotFound, "transcript storage disabled")
	}

	doc, err := s.transcripts.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, backend.ErrTranscriptNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "transcript not found")
	}
	if err != nil {
		s.logger.Error("get transcript failed", "id", c.Params("id"), "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(doc)
}

func (s *Server) handleListTranscripts(c *fiber.Ctx) error {
	if s.transcripts == nil {
		return fiber.NewError(fiber.StatusNotFound, "transcript storage disabled")
	}

	docs, err := s.transcripts.ListByInterview(c.UserContext(), c.Params("id"), c.QueryInt("limit", 20))
	if err != nil {
		s.logger.Error("list transcripts failed", "interview_id", c.Params("id"), "error", err)
		return fiber.ErrInternalServerError
	}
	if docs == nil {
		docs = []backend.TranscriptDoc{}
	}
	return c.JSON(docs)
}

// requireIdentity verifies the caller when auth is enabled. Browsers cannot
// set headers on websocket upgrades, so a token query parameter is accepted
// too.
func (s *Server) requireIdentity(c *fiber.Ctx) error {
	if s.verifier == nil {
		return c.Next()
	}

	token := backend.BearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		token = c.Query("token")
	}

	id, err := s.verifier.VerifyIDToken(c.UserContext(), token)
	if err != nil {
		s.logger.Debug("request rejected", "path", c.Path(), "error", err)
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(identityKey, id)
	return c.Next()
}

// handleViewWS streams views to a page and accepts actions from it
func (s *Server) handleViewWS(conn *websocket.Conn) {
	hub.NewClient(s.viewHub, conn).Run()
}

// handleFrame dispatches a frame sent by a page.
func (s *Server) handleFrame(msg hub.Message) {
	if msg.Type == hub.BinaryMessage {
		s.handleAudio(msg.Data)
		return
	}
	s.handleAction(msg.Data)
}

// handleAudio forwards microphone PCM to the call. Frames outside a call
// are dropped.
func (s *Server) handleAudio(pcm []byte) {
	if s.audio == nil || len(pcm) == 0 {
		return
	}
	if len(pcm)%2 != 0 {
		s.logger.Debug("dropping odd-length audio frame", "bytes", len(pcm))
		return
	}

	err := s.audio.SendAudio(pcm)
	switch {
	case err == nil:
	case errors.Is(err, vapi.ErrNotConnected):
		s.logger.Debug("dropping audio outside a call")
	default:
		s.logger.Warn("send audio failed", "error", err)
	}
}

// handleAction runs an action sent by a page. Resulting state changes reach
// the page through the normal view broadcast.
func (s *Server) handleAction(data []byte) {
	var req ActionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn("invalid action", "error", err)
		return
	}

	var err error
	switch req.Action {
	case interview.ActionStart:
		err = s.controller.StartCall()
	case interview.ActionEnd:
		err = s.controller.EndCall()
	default:
		s.logger.Warn("unknown action", "action", req.Action)
		return
	}
	if err != nil {
		s.logger.Info("action failed", "action", req.Action, "error", err)
	}
}

// handleError renders errors as JSON.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

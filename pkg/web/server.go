// Package web serves the interview page, its JSON API and a websocket that
// pushes every view change to connected pages. The same socket carries call
// audio: assistant speech out to the page and microphone audio back in.
package web

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/voicelytics/pkg/backend"
	"github.com/teslashibe/voicelytics/pkg/hub"
	"github.com/teslashibe/voicelytics/pkg/interview"
	"github.com/teslashibe/voicelytics/pkg/metrics"
	"github.com/teslashibe/voicelytics/pkg/vapi"
)

// Controller is the call controller the server drives.
type Controller interface {
	StartCall() error
	EndCall() error
	View() interview.View
	Messages() []interview.Message
	Params() interview.SessionParameters
}

// IdentityVerifier verifies Firebase ID tokens.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*backend.Identity, error)
}

// TranscriptReader reads stored transcripts.
type TranscriptReader interface {
	Get(ctx context.Context, id string) (*backend.TranscriptDoc, error)
	ListByInterview(ctx context.Context, interviewID string, limit int) ([]backend.TranscriptDoc, error)
}

// AudioSession carries call audio as raw 16 kHz PCM.
type AudioSession interface {
	SendAudio(pcm []byte) error
	On(event vapi.EventName, fn vapi.Handler) vapi.Subscription
	Off(sub vapi.Subscription)
}

// Server is the interview web server
type Server struct {
	app        *fiber.App
	port       string
	logger     *slog.Logger
	controller Controller

	// Pushes views to every open page
	viewHub *hub.Hub

	metrics     *metrics.Metrics
	verifier    IdentityVerifier
	transcripts TranscriptReader

	audio    AudioSession
	audioSub vapi.Subscription
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics serves m at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithAuth requires a valid Firebase ID token on /api and /ws routes.
func WithAuth(v IdentityVerifier) Option {
	return func(s *Server) { s.verifier = v }
}

// WithTranscripts enables the stored transcript routes.
func WithTranscripts(r TranscriptReader) Option {
	return func(s *Server) { s.transcripts = r }
}

// WithAudio relays call audio between a and connected pages.
func WithAudio(a AudioSession) Option {
	return func(s *Server) { s.audio = a }
}

// NewServer creates a server for ctrl listening on port.
func NewServer(ctrl Controller, port string, opts ...Option) *Server {
	s := &Server{
		port:       port,
		logger:     slog.Default(),
		controller: ctrl,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.viewHub = hub.New("view", s.logger)
	s.viewHub.OnReceive(s.handleFrame)
	if s.audio != nil {
		s.audioSub = s.audio.On(vapi.EventAudio, func(e vapi.Event) {
			s.viewHub.Broadcast(hub.NewBinaryMessage(e.Audio))
		})
	}

	app := fiber.New(fiber.Config{
		AppName:               "Voicelytics",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	// API routes
	api := app.Group("/api", s.requireIdentity)
	api.Get("/view", s.handleView)
	api.Get("/transcript", s.handleTranscript)
	api.Post("/call", s.handleStartCall)
	api.Post("/end", s.handleEndCall)
	api.Get("/transcripts/:id", s.handleGetTranscript)
	api.Get("/interviews/:id/transcripts", s.handleListTranscripts)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, s.requireIdentity)

	app.Get("/ws/view", websocket.New(s.handleViewWS))

	s.app = app
	return s
}

// Start runs the view hub and serves until the listener fails or Shutdown is
// called. The hub stops when ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("interview page", "url", "http://localhost:"+s.port)
	go s.viewHub.Run(ctx)
	return s.app.Listen(":" + s.port)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.viewHub.Run(ctx)
	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

// Broadcast pushes v to every connected page.
func (s *Server) Broadcast(v interview.View) {
	if err := s.viewHub.BroadcastJSON(v); err != nil {
		s.logger.Warn("broadcast failed", "error", err)
	}
}

// Clients returns the number of connected pages.
func (s *Server) Clients() int {
	return s.viewHub.ClientCount()
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	if s.audio != nil {
		s.audio.Off(s.audioSub)
	}
	return s.app.Shutdown()
}

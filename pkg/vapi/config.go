package vapi

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultBaseURL is the Vapi REST endpoint.
const DefaultBaseURL = "https://api.vapi.ai"

// Config holds configuration for a Client.
type Config struct {
	// BaseURL overrides the REST endpoint used to create calls.
	BaseURL string

	// Timeout bounds call creation plus the websocket handshake.
	Timeout time.Duration

	// ReadTimeout is the idle limit between frames during a call.
	ReadTimeout time.Duration

	// SampleRate is the PCM sample rate requested for the transport.
	SampleRate int

	// HTTPClient is used for REST calls. Defaults to httpc.Client.
	HTTPClient *http.Client

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     30 * time.Second,
		ReadTimeout: 5 * time.Minute,
		SampleRate:  16000,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Option is a functional option for configuring a Client.
type Option func(*Config)

// WithBaseURL sets the REST base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// WithTimeout sets the call setup timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithReadTimeout sets the idle read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = d
	}
}

// WithSampleRate sets the transport sample rate.
func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// WithHTTPClient sets the REST client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

package vapi

import (
	"os"
	"sync"

	"github.com/teslashibe/voicelytics/internal/config"
	"github.com/teslashibe/voicelytics/internal/log"
)

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide client, building it on first use from
// VAPI_WEB_TOKEN (or NEXT_PUBLIC_VAPI_WEB_TOKEN). A missing token is logged
// and the client is built anyway in degraded mode.
func Default(opts ...Option) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient != nil {
		return defaultClient
	}

	token := config.VapiToken()
	if token == "" {
		log.Error("Vapi web token is not defined in environment variables; check your .env.local file",
			"env", config.EnvVapiToken,
		)
	}

	all := []Option{WithBaseURL(os.Getenv(config.EnvVapiBaseURL)), WithLogger(log.L())}
	defaultClient = New(token, append(all, opts...)...)
	return defaultClient
}

// IsConfigured reports whether the default client has a token.
func IsConfigured() bool {
	return Default().IsConfigured()
}

// resetDefault drops the process-wide client. Tests only.
func resetDefault() {
	defaultMu.Lock()
	defaultClient = nil
	defaultMu.Unlock()
}

// Package config loads voicelytics configuration from the environment.
// Flag parsing is done in cmd/interview; this package is data plus env lookup.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvVapiToken       = "VAPI_WEB_TOKEN"
	EnvVapiTokenPublic = "NEXT_PUBLIC_VAPI_WEB_TOKEN"
	EnvVapiBaseURL     = "VAPI_BASE_URL"

	EnvFirebaseProject     = "FIREBASE_PROJECT_ID"
	EnvFirebaseCredentials = "FIREBASE_CREDENTIALS_JSON"
	EnvGoogleCredentials   = "GOOGLE_APPLICATION_CREDENTIALS"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"
)

// Defaults.
const (
	DefaultPort           = "8080"
	DefaultLogLevel       = "info"
	DefaultVapiBaseURL    = "https://api.vapi.ai"
	DefaultConnectTimeout = 10 * time.Second
)

// EnvFiles are loaded in order; values already present in the process
// environment are never overwritten.
var EnvFiles = []string{".env.local", ".env"}

// Config holds process configuration.
type Config struct {
	Port     string
	LogLevel string

	// VapiToken is the voice service web token. Empty means degraded mode.
	VapiToken   string
	VapiBaseURL string

	// ConnectTimeout bounds how long a call may stay connecting.
	ConnectTimeout time.Duration

	// Firebase backend. Persistence and auth are disabled when ProjectID is empty.
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	FirebaseCredentialsFile string

	// RequireAuth rejects API calls without a valid Firebase ID token.
	RequireAuth bool
}

// Default returns a Config with defaults and nothing read from the environment.
func Default() Config {
	return Config{
		Port:           DefaultPort,
		LogLevel:       DefaultLogLevel,
		VapiBaseURL:    DefaultVapiBaseURL,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// LoadEnvFiles loads the first-found env files into the process environment.
// Missing files are ignored.
func LoadEnvFiles(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// FromEnv returns Default() overridden by environment variables.
func FromEnv() Config {
	c := Default()
	c.LoadEnv()
	return c
}

// LoadEnv applies environment overrides onto c.
func (c *Config) LoadEnv() {
	if port := os.Getenv(EnvPort); port != "" {
		c.Port = port
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.LogLevel = lvl
	}
	c.VapiToken = VapiToken()
	if base := os.Getenv(EnvVapiBaseURL); base != "" {
		c.VapiBaseURL = base
	}
	c.FirebaseProjectID = os.Getenv(EnvFirebaseProject)
	c.FirebaseCredentialsJSON = os.Getenv(EnvFirebaseCredentials)
	c.FirebaseCredentialsFile = os.Getenv(EnvGoogleCredentials)
}

// VapiToken returns the voice service token, preferring VAPI_WEB_TOKEN over
// the NEXT_PUBLIC_ name used by web builds.
func VapiToken() string {
	if tok := os.Getenv(EnvVapiToken); tok != "" {
		return tok
	}
	return os.Getenv(EnvVapiTokenPublic)
}

// BackendEnabled reports whether a Firebase project is configured.
func (c *Config) BackendEnabled() bool {
	return c.FirebaseProjectID != ""
}

// ErrAuthWithoutBackend is returned when auth is required but no backend is set.
var ErrAuthWithoutBackend = errors.New("config: auth requires FIREBASE_PROJECT_ID")

// Validate checks for contradictory settings. A missing voice token is not
// an error; the controller reports it per call.
func (c *Config) Validate() error {
	if c.Port == "" {
		return &Error{Field: "Port", Message: "port must not be empty"}
	}
	if c.ConnectTimeout <= 0 {
		return &Error{Field: "ConnectTimeout", Message: fmt.Sprintf("connect timeout must be positive, got %s", c.ConnectTimeout)}
	}
	if c.RequireAuth && !c.BackendEnabled() {
		return ErrAuthWithoutBackend
	}
	return nil
}

// Error represents a configuration validation error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config: " + e.Message
}

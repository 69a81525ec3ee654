// Package backend provides the Firebase handles used by voicelytics: one
// lazily initialized App per process, with Auth and Firestore clients derived
// from it.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// cloudPlatformScope is requested when credentials are given as JSON.
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

var (
	// ErrDisabled is returned when no Firebase project is configured.
	ErrDisabled = errors.New("backend: firebase project not configured")
)

// Config selects the Firebase project and its credentials. When neither
// CredentialsJSON nor CredentialsFile is set, Application Default Credentials
// are used.
type Config struct {
	ProjectID       string
	CredentialsJSON string
	CredentialsFile string
}

// newApp is swapped in tests.
var newApp = firebase.NewApp

// Backend owns the process's Firebase App. The zero value is not usable;
// create one with New.
type Backend struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	app       *firebase.App
	auth      *auth.Client
	firestore *firestore.Client
}

// New creates a Backend. Nothing is contacted until a handle is requested.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg:    cfg,
		logger: logger.With("component", "backend", "project", cfg.ProjectID),
	}
}

// Enabled reports whether a project is configured.
func (b *Backend) Enabled() bool {
	return b != nil && b.cfg.ProjectID != ""
}

// App returns the Firebase App, initializing it on first use. A failed
// initialization is not cached.
func (b *Backend) App(ctx context.Context) (*firebase.App, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appLocked(ctx)
}

func (b *Backend) appLocked(ctx context.Context) (*firebase.App, error) {
	if !b.Enabled() {
		return nil, ErrDisabled
	}
	if b.app != nil {
		return b.app, nil
	}

	opts, err := b.clientOptions(ctx)
	if err != nil {
		return nil, err
	}

	app, err := newApp(ctx, &firebase.Config{ProjectID: b.cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("backend: init app: %w", err)
	}

	b.logger.Info("firebase app initialized")
	b.app = app
	return app, nil
}

// Auth returns the Firebase Auth client.
func (b *Backend) Auth(ctx context.Context) (*auth.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.auth != nil {
		return b.auth, nil
	}
	app, err := b.appLocked(ctx)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("backend: auth client: %w", err)
	}
	b.auth = client
	return client, nil
}

// Firestore returns the Firestore client.
func (b *Backend) Firestore(ctx context.Context) (*firestore.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.firestore != nil {
		return b.firestore, nil
	}
	app, err := b.appLocked(ctx)
	if err != nil {
		return nil, err
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("backend: firestore client: %w", err)
	}
	b.firestore = client
	return client, nil
}

// Close releases the Firestore client, if one was created.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.firestore == nil {
		return nil
	}
	err := b.firestore.Close()
	b.firestore = nil
	return err
}

// Reset drops every handle so the next request re-initializes. It does not
// close them.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.app = nil
	b.auth = nil
	b.firestore = nil
}

func (b *Backend) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	switch {
	case b.cfg.CredentialsJSON != "":
		creds, err := google.CredentialsFromJSON(ctx, []byte(b.cfg.CredentialsJSON), cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("backend: parse credentials: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil

	case b.cfg.CredentialsFile != "":
		if _, err := os.Stat(b.cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("backend: credentials file: %w", err)
		}
		return []option.ClientOption{option.WithCredentialsFile(b.cfg.CredentialsFile)}, nil

	case os.Getenv("FIRESTORE_EMULATOR_HOST") != "" || os.Getenv("FIREBASE_AUTH_EMULATOR_HOST") != "":
		b.logger.Info("using firebase emulator")
		return []option.ClientOption{option.WithoutAuthentication()}, nil
	}

	b.logger.Debug("using application default credentials")
	return nil, nil
}

package main

import (
	"context"
	"sync"

	"github.com/teslashibe/voicelytics/internal/config"
	"github.com/teslashibe/voicelytics/internal/log"
	"github.com/teslashibe/voicelytics/pkg/backend"
	"github.com/teslashibe/voicelytics/pkg/interview"
	"github.com/teslashibe/voicelytics/pkg/metrics"
	"github.com/teslashibe/voicelytics/pkg/vapi"
	"github.com/teslashibe/voicelytics/pkg/web"
)

// transcriptSaver persists finished calls.
type transcriptSaver interface {
	Save(ctx context.Context, t interview.Transcript) (string, error)
}

// run wires the session, controller and web server and serves until ctx is
// done.
func run(ctx context.Context, cfg config.Config, params interview.SessionParameters) error {
	logger := log.For("main")
	m := metrics.New("")

	session := vapi.Default(vapi.WithBaseURL(cfg.VapiBaseURL))

	var (
		fb    *backend.Backend
		store *backend.TranscriptStore
	)
	if cfg.BackendEnabled() {
		fb = backend.New(backend.Config{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsJSON: cfg.FirebaseCredentialsJSON,
			CredentialsFile: cfg.FirebaseCredentialsFile,
		}, log.L())
		defer fb.Close()
		store = backend.NewTranscriptStore(fb)
	} else {
		logger.Info("firebase not configured; transcripts will not be stored")
	}

	var saves sync.WaitGroup
	defer saves.Wait()

	var server *web.Server
	ctrl := interview.Mount(session, params,
		interview.WithLogger(log.L()),
		interview.WithConnectTimeout(cfg.ConnectTimeout),
		interview.WithMetrics(m),
		interview.WithOnChange(func(v interview.View) {
			server.Broadcast(v)
		}),
		interview.WithOnFinished(func(t interview.Transcript) {
			if store == nil {
				return
			}
			saves.Add(1)
			go func() {
				defer saves.Done()
				saveTranscript(store, t)
			}()
		}),
	)
	defer ctrl.Unmount()

	opts := []web.Option{web.WithLogger(log.L()), web.WithMetrics(m), web.WithAudio(session)}
	if store != nil {
		opts = append(opts, web.WithTranscripts(store))
	}
	if cfg.RequireAuth {
		opts = append(opts, web.WithAuth(fb))
	}
	server = web.NewServer(ctrl, cfg.Port, opts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()
	server.Broadcast(ctrl.View())

	logger.Info("interview ready",
		"user", params.UserName,
		"type", params.Type,
		"questions", len(params.Questions),
		"vapi_configured", session.IsConfigured(),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	switch ctrl.Status() {
	case interview.StatusConnecting, interview.StatusActive:
		_ = ctrl.EndCall()
	}
	return server.Shutdown()
}

func saveTranscript(s transcriptSaver, t interview.Transcript) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	id, err := s.Save(ctx, t)
	if err != nil {
		log.Error("failed to save transcript", "call_id", t.CallID, "error", err)
		return
	}
	log.Debug("transcript stored", "id", id, "call_id", t.CallID)
}

// Interview - voice interview host
// Serves the interview page, drives the call through Vapi and stores
// finished transcripts in Firestore when a Firebase project is configured.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/voicelytics/internal/config"
	"github.com/teslashibe/voicelytics/internal/log"
	"github.com/teslashibe/voicelytics/pkg/interview"
)

func main() {
	config.LoadEnvFiles(config.EnvFiles...)

	cfg, params, jsonLogs := parseFlags(flag.CommandLine, os.Args[1:])

	log.Init(log.Options{Level: cfg.LogLevel, JSON: jsonLogs})

	if err := cfg.Validate(); err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, params); err != nil {
		log.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// parseFlags reads configuration from the environment and lets flags
// override it.
func parseFlags(fs *flag.FlagSet, args []string) (config.Config, interview.SessionParameters, bool) {
	cfg := config.FromEnv()
	var p interview.SessionParameters

	fs.StringVar(&p.UserName, "user", "", "Candidate display name")
	fs.StringVar(&p.UserID, "user-id", "", "Candidate user ID")
	fs.StringVar(&p.InterviewID, "interview-id", "", "Interview ID")
	fs.StringVar(&p.FeedbackID, "feedback-id", "", "Feedback ID")
	fs.StringVar(&p.Type, "type", "", "Interview type (e.g. technical, behavioral)")
	questions := fs.String("questions", "", "Interview questions separated by '|'")

	port := fs.String("port", cfg.Port, "HTTP port (overrides PORT env var)")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	jsonLogs := fs.Bool("json-logs", false, "Emit JSON logs")
	requireAuth := fs.Bool("require-auth", false, "Require a Firebase ID token on API and socket routes")
	timeout := fs.Duration("connect-timeout", cfg.ConnectTimeout, "How long a call may stay connecting")

	_ = fs.Parse(args)

	p.Questions = splitQuestions(*questions)
	cfg.Port, cfg.LogLevel, cfg.RequireAuth, cfg.ConnectTimeout = *port, *logLevel, *requireAuth, *timeout
	return cfg, p, *jsonLogs
}

// splitQuestions splits a '|' separated list, dropping blanks.
func splitQuestions(s string) []string {
	out := []string{}
	for _, q := range strings.Split(s, "|") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// saveTimeout bounds a single transcript write.
const saveTimeout = 10 * time.Second

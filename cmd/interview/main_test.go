package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"testing"
	"time"

	"github.com/teslashibe/voicelytics/internal/config"
	"github.com/teslashibe/voicelytics/pkg/interview"
)

func TestParseFlags(t *testing.T) {
	t.Setenv(config.EnvPort, "9000")
	t.Setenv(config.EnvLogLevel, "")

	fs := flag.NewFlagSet("interview", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg, p, jsonLogs := parseFlags(fs, []string{
		"-user", "Ada",
		"-type", "technical",
		"-interview-id", "iv-1",
		"-questions", "Why Go? | Tell me about channels||",
		"-connect-timeout", "5s",
		"-json-logs",
	})

	if p.UserName != "Ada" || p.Type != "technical" || p.InterviewID != "iv-1" {
		t.Errorf("unexpected params %+v", p)
	}
	if len(p.Questions) != 2 || p.Questions[1] != "Tell me about channels" {
		t.Errorf("unexpected questions %q", p.Questions)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port from env, got %q", cfg.Port)
	}
	if cfg.LogLevel != config.DefaultLogLevel {
		t.Errorf("expected default log level, got %q", cfg.LogLevel)
	}
	if cfg.ConnectTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.ConnectTimeout)
	}
	if !jsonLogs {
		t.Error("expected json logs")
	}
}

func TestSplitQuestions(t *testing.T) {
	if got := splitQuestions(""); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
	if got := splitQuestions(" a |b"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected split %q", got)
	}
}

type fakeSaver struct {
	got []interview.Transcript
	err error
}

func (f *fakeSaver) Save(ctx context.Context, t interview.Transcript) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("save must be bounded")
	}
	f.got = append(f.got, t)
	return "doc-1", f.err
}

func TestSaveTranscript(t *testing.T) {
	s := &fakeSaver{}
	saveTranscript(s, interview.Transcript{CallID: "call-1"})

	if len(s.got) != 1 || s.got[0].CallID != "call-1" {
		t.Errorf("unexpected saves %+v", s.got)
	}

	s.err = errors.New("unavailable")
	saveTranscript(s, interview.Transcript{CallID: "call-2"})
	if len(s.got) != 2 {
		t.Error("failed saves are still attempted")
	}
}

package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/teslashibe/voicelytics/pkg/interview"
)

// TranscriptsCollection is the Firestore collection holding call transcripts.
const TranscriptsCollection = "transcripts"

// ErrTranscriptNotFound is returned by Get for an unknown ID.
var ErrTranscriptNotFound = errors.New("backend: transcript not found")

// TranscriptDoc is the stored form of a finished call.
type TranscriptDoc struct {
	ID           string          `json:"id" firestore:"id"`
	CallID       string          `json:"call_id" firestore:"call_id"`
	UserID       string          `json:"user_id" firestore:"user_id"`
	InterviewID  string          `json:"interview_id" firestore:"interview_id"`
	FeedbackID   string          `json:"feedback_id,omitempty" firestore:"feedback_id,omitempty"`
	Type         string          `json:"type" firestore:"type"`
	Transcript   []TranscriptRow `json:"transcript" firestore:"transcript"`
	StartTime    time.Time       `json:"start_time" firestore:"start_time"`
	EndTime      time.Time       `json:"end_time" firestore:"end_time"`
	DurationSecs int             `json:"duration_secs" firestore:"duration_secs"`
	CreatedAt    time.Time       `json:"created_at" firestore:"created_at,serverTimestamp"`
}

// TranscriptRow is a single line of a stored transcript.
type TranscriptRow struct {
	Role    string `json:"role" firestore:"role"`
	Content string `json:"content" firestore:"content"`
}

// NewTranscriptDoc converts a finished call into its stored form.
func NewTranscriptDoc(id string, t interview.Transcript) TranscriptDoc {
	rows := make([]TranscriptRow, len(t.Messages))
	for i, m := range t.Messages {
		rows[i] = TranscriptRow{Role: string(m.Role), Content: m.Content}
	}

	var secs int
	if !t.StartedAt.IsZero() && t.EndedAt.After(t.StartedAt) {
		secs = int(t.EndedAt.Sub(t.StartedAt).Seconds())
	}

	return TranscriptDoc{
		ID:           id,
		CallID:       t.CallID,
		UserID:       t.UserID,
		InterviewID:  t.InterviewID,
		FeedbackID:   t.FeedbackID,
		Type:         t.Type,
		Transcript:   rows,
		StartTime:    t.StartedAt,
		EndTime:      t.EndedAt,
		DurationSecs: secs,
	}
}

// TranscriptStore persists call transcripts to Firestore.
type TranscriptStore struct {
	backend    *Backend
	collection string
}

// NewTranscriptStore creates a store on b's Firestore client.
func NewTranscriptStore(b *Backend) *TranscriptStore {
	return &TranscriptStore{backend: b, collection: TranscriptsCollection}
}

// Save writes t under a new ID and returns the ID.
func (s *TranscriptStore) Save(ctx context.Context, t interview.Transcript) (string, error) {
	client, err := s.backend.Firestore(ctx)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	doc := NewTranscriptDoc(id, t)

	if _, err := client.Collection(s.collection).Doc(id).Set(ctx, doc); err != nil {
		return "", fmt.Errorf("backend: save transcript: %w", err)
	}

	s.backend.logger.Info("transcript saved",
		"id", id,
		"call_id", t.CallID,
		"messages", len(doc.Transcript),
	)
	return id, nil
}

// Get reads the transcript stored under id.
func (s *TranscriptStore) Get(ctx context.Context, id string) (*TranscriptDoc, error) {
	client, err := s.backend.Firestore(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrTranscriptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("backend: get transcript: %w", err)
	}

	var doc TranscriptDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("backend: decode transcript: %w", err)
	}
	return &doc, nil
}

// ListByInterview returns the transcripts for an interview, newest first.
func (s *TranscriptStore) ListByInterview(ctx context.Context, interviewID string, limit int) ([]TranscriptDoc, error) {
	client, err := s.backend.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	snaps, err := client.Collection(s.collection).
		Where("interview_id", "==", interviewID).
		OrderBy("start_time", firestore.Desc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("backend: list transcripts: %w", err)
	}

	docs := make([]TranscriptDoc, 0, len(snaps))
	for _, snap := range snaps {
		var doc TranscriptDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("backend: decode transcript %s: %w", snap.Ref.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

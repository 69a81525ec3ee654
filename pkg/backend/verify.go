package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingToken is returned when no ID token is presented.
	ErrMissingToken = errors.New("backend: missing id token")
	// ErrInvalidToken wraps verification failures.
	ErrInvalidToken = errors.New("backend: invalid id token")
)

// Identity is the verified caller behind a Firebase ID token.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// VerifyIDToken verifies a Firebase ID token and returns the caller.
func (b *Backend) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrMissingToken
	}

	client, err := b.Auth(ctx)
	if err != nil {
		return nil, err
	}

	tok, err := client.VerifyIDToken(ctx, idToken)
	if err != nil {
		b.logger.Debug("id token rejected", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id := &Identity{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

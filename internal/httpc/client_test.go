package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostJSON(t *testing.T) {
	t.Run("sends bearer and decodes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("unexpected auth header %q", got)
			}
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["name"]})
		}))
		defer srv.Close()

		var out map[string]string
		err := PostJSON(context.Background(), srv.Client(), srv.URL, "tok", map[string]string{"name": "ada"}, &out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out["echo"] != "ada" {
			t.Errorf("expected echo ada, got %v", out)
		}
	})

	t.Run("non-2xx returns StatusError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("bad token"))
		}))
		defer srv.Close()

		err := PostJSON(context.Background(), srv.Client(), srv.URL, "", struct{}{}, nil)

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusUnauthorized || statusErr.Body != "bad token" {
			t.Errorf("unexpected status error: %+v", statusErr)
		}
	})
}

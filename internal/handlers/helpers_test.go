package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkcircle/backend/internal/models"
)

// stubSessions accepts a single fixed token and resolves it to one user.
type stubSessions struct {
	token  string
	userID string
}

func (s stubSessions) Issue(context.Context, string) (models.SessionTokens, error) {
	return models.SessionTokens{AccessToken: s.token, RefreshToken: "refresh-" + s.token}, nil
}

func (s stubSessions) Validate(_ context.Context, token string) (string, error) {
	if token != s.token {
		return "", errors.New("unknown token")
	}
	return s.userID, nil
}

func (s stubSessions) Refresh(context.Context, string) (models.SessionTokens, error) {
	return models.SessionTokens{AccessToken: s.token, RefreshToken: "refresh-" + s.token}, nil
}

func (s stubSessions) Revoke(context.Context, string) error { return nil }

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	return httptest.NewRequest(method, target, body)
}

func authedRequest(t *testing.T, method, target string, payload any, token string) *http.Request {
	t.Helper()

	req := jsonRequest(t, method, target, payload)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp["error"]
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/inkcircle/backend/internal/logging"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func errorJSON(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

// bearerToken extracts the opaque access token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// authenticate resolves the calling user from the request's bearer token,
// writing a 401 response when the token is missing or invalid.
func authenticate(w http.ResponseWriter, r *http.Request, sessions SessionManager) (string, bool) {
	ctx := r.Context()

	if sessions == nil {
		logging.FromContext(ctx).Error("session manager unavailable")
		errorJSON(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return "", false
	}

	token := bearerToken(r)
	if token == "" {
		errorJSON(ctx, w, http.StatusUnauthorized, "authentication required")
		return "", false
	}

	userID, err := sessions.Validate(ctx, token)
	if err != nil {
		logging.FromContext(ctx).Warn("invalid access token", "error", err)
		errorJSON(ctx, w, http.StatusUnauthorized, "invalid or expired session")
		return "", false
	}

	return userID, true
}

// viewerID resolves the caller when present without requiring authentication.
// Anonymous requests return an empty id.
func viewerID(r *http.Request, sessions SessionManager) string {
	if sessions == nil {
		return ""
	}
	token := bearerToken(r)
	if token == "" {
		return ""
	}
	userID, err := sessions.Validate(r.Context(), token)
	if err != nil {
		return ""
	}
	return userID
}

// pageParams reads page and limit query parameters, leaving zero values for
// the services to normalize.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/inkcircle/backend/internal/logging"
	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/relationships"
)

// FollowHandler implements the follow graph endpoints.
type FollowHandler struct {
	Graph    RelationshipService
	Sessions SessionManager
	Limiter  RateLimiter
}

// Handle routes POST and DELETE /api/v1/follows.
func (h FollowHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.follow(w, r)
	case http.MethodDelete:
		h.unfollow(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h FollowHandler) follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "graph") {
		errorJSON(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid follow payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.Graph.Follow(ctx, actorID, req.UserID); err != nil {
		respondGraphError(ctx, w, err, "follow")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h FollowHandler) unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "graph") {
		errorJSON(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid unfollow payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.Graph.Unfollow(ctx, actorID, req.UserID); err != nil {
		respondGraphError(ctx, w, err, "unfollow")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Followers handles GET /api/v1/follows/followers.
func (h FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.listEdge(w, r, h.Graph.Followers)
}

// Following handles GET /api/v1/follows/following.
func (h FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.listEdge(w, r, h.Graph.Following)
}

func (h FollowHandler) listEdge(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, userID string, page, limit int) ([]models.User, error)) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		userID = actorID
	}

	page, limit := pageParams(r)
	users, err := list(ctx, userID, page, limit)
	if err != nil {
		respondGraphError(ctx, w, err, "list follow edge")
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, *publicUser(user))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"users": out})
}

// Stats handles GET /api/v1/relationships/stats.
func (h FollowHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		userID = actorID
	}

	stats, err := h.Graph.Stats(ctx, userID)
	if err != nil {
		respondGraphError(ctx, w, err, "relationship stats")
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats)
}

type followRequest struct {
	UserID string `json:"userId"`
}

// respondGraphError maps relationship service errors onto HTTP statuses.
func respondGraphError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, relationships.ErrInvalidTarget):
		errorJSON(ctx, w, http.StatusBadRequest, "invalid target user")
	case errors.Is(err, relationships.ErrNotFound):
		errorJSON(ctx, w, http.StatusNotFound, "relationship not found")
	case errors.Is(err, relationships.ErrAlreadyExists):
		errorJSON(ctx, w, http.StatusConflict, "relationship already exists")
	case errors.Is(err, relationships.ErrForbidden):
		errorJSON(ctx, w, http.StatusForbidden, "not allowed")
	case errors.Is(err, relationships.ErrInvalidState):
		errorJSON(ctx, w, http.StatusConflict, "request is not pending")
	default:
		logging.FromContext(ctx).Error(op+" failed", "error", err)
		errorJSON(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

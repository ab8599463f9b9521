package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/inkcircle/backend/internal/logging"
	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/notifications"
)

// NotificationHandler implements the inbox endpoints.
type NotificationHandler struct {
	Inbox    InboxService
	Sessions SessionManager
}

// Handle routes GET and DELETE /api/v1/notifications.
func (h NotificationHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodDelete:
		h.clear(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	page, limit := pageParams(r)
	items, err := h.Inbox.List(ctx, actorID, page, limit)
	if err != nil {
		logging.FromContext(ctx).Error("list notifications failed", "error", err)
		errorJSON(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]notificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newNotificationResponse(item))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"notifications": out})
}

func (h NotificationHandler) clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	if err := h.Inbox.Clear(ctx, actorID); err != nil {
		logging.FromContext(ctx).Error("clear notifications failed", "error", err)
		errorJSON(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkRead handles POST /api/v1/notifications/read. An empty id with all=true
// marks the whole inbox.
func (h NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid mark-read payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	switch {
	case req.All:
		if err := h.Inbox.MarkAllRead(ctx, actorID); err != nil {
			logging.FromContext(ctx).Error("mark all read failed", "error", err)
			errorJSON(ctx, w, http.StatusInternalServerError, "internal error")
			return
		}
	case req.ID != "":
		if err := h.Inbox.MarkRead(ctx, actorID, req.ID); err != nil {
			if errors.Is(err, notifications.ErrNotFound) {
				errorJSON(ctx, w, http.StatusNotFound, "notification not found")
				return
			}
			logging.FromContext(ctx).Error("mark read failed", "error", err)
			errorJSON(ctx, w, http.StatusInternalServerError, "internal error")
			return
		}
	default:
		errorJSON(ctx, w, http.StatusBadRequest, "id or all is required")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnreadCount handles GET /api/v1/notifications/unread-count.
func (h NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	count, err := h.Inbox.UnreadCount(ctx, actorID)
	if err != nil {
		logging.FromContext(ctx).Error("count unread failed", "error", err)
		errorJSON(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]int64{"unread": count})
}

type markReadRequest struct {
	ID  string `json:"id"`
	All bool   `json:"all"`
}

type notificationResponse struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId,omitempty"`
	Kind      string    `json:"kind"`
	BlogID    string    `json:"blogId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func newNotificationResponse(n models.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		SenderID:  n.SenderID,
		Kind:      n.Kind,
		BlogID:    n.BlogID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/inkcircle/backend/internal/logging"
	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/relationships"
)

// ConnectionHandler implements the mutual connection endpoints.
type ConnectionHandler struct {
	Graph    RelationshipService
	Sessions SessionManager
	Limiter  RateLimiter
}

// Handle routes GET, POST, and DELETE /api/v1/connections.
func (h ConnectionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.request(w, r)
	case http.MethodDelete:
		h.remove(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ConnectionHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	status := models.ConnectionStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		errorJSON(ctx, w, http.StatusBadRequest, "unknown connection status")
		return
	}

	page, limit := pageParams(r)
	connections, err := h.Graph.Connections(ctx, actorID, status, page, limit)
	if err != nil {
		respondGraphError(ctx, w, err, "list connections")
		return
	}

	out := make([]connectionResponse, 0, len(connections))
	for _, connection := range connections {
		out = append(out, newConnectionResponse(connection))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"connections": out})
}

func (h ConnectionHandler) request(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "graph") {
		errorJSON(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req connectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid connection payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "userId is required")
		return
	}

	connection, err := h.Graph.RequestConnection(ctx, actorID, req.UserID)
	if err != nil {
		respondGraphError(ctx, w, err, "request connection")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newConnectionResponse(connection))
}

func (h ConnectionHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid connection payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ConnectionID = strings.TrimSpace(req.ConnectionID)
	if req.ConnectionID == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "connectionId is required")
		return
	}

	if err := h.Graph.RemoveConnection(ctx, actorID, req.ConnectionID); err != nil {
		respondGraphError(ctx, w, err, "remove connection")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Respond handles POST /api/v1/connections/respond.
func (h ConnectionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid respond payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ConnectionID = strings.TrimSpace(req.ConnectionID)
	decision := relationships.Decision(strings.TrimSpace(strings.ToLower(req.Decision)))

	if req.ConnectionID == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "connectionId is required")
		return
	}
	if decision != relationships.DecisionAccept && decision != relationships.DecisionReject {
		errorJSON(ctx, w, http.StatusBadRequest, "decision must be accept or reject")
		return
	}

	connection, err := h.Graph.RespondToConnection(ctx, actorID, req.ConnectionID, decision)
	if err != nil {
		respondGraphError(ctx, w, err, "respond to connection")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newConnectionResponse(connection))
}

type connectionRequest struct {
	UserID string `json:"userId"`
}

type respondRequest struct {
	ConnectionID string `json:"connectionId"`
	Decision     string `json:"decision"`
}

type connectionResponse struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requesterId"`
	RecipientID string     `json:"recipientId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

func newConnectionResponse(connection models.Connection) connectionResponse {
	return connectionResponse{
		ID:          connection.ID,
		RequesterID: connection.RequesterID,
		RecipientID: connection.RecipientID,
		Status:      string(connection.Status),
		CreatedAt:   connection.CreatedAt,
		RespondedAt: connection.RespondedAt,
	}
}

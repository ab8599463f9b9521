package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/relationships"
)

func newConnectionHandler(graph *fakeGraphService) ConnectionHandler {
	return ConnectionHandler{Graph: graph, Sessions: stubSessions{token: testToken, userID: "alice"}}
}

func TestConnectionHandlerRequest(t *testing.T) {
	graph := &fakeGraphService{connection: models.Connection{
		ID:          "conn-1",
		RequesterID: "alice",
		RecipientID: "bob",
		Status:      models.ConnectionPending,
		CreatedAt:   time.Now().UTC(),
	}}
	handler := newConnectionHandler(graph)

	req := authedRequest(t, http.MethodPost, "/api/v1/connections", connectionRequest{UserID: "bob"}, testToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	var resp connectionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "conn-1" || resp.Status != string(models.ConnectionPending) {
		t.Fatalf("connection = %+v", resp)
	}
}

func TestConnectionHandlerRequestDuplicate(t *testing.T) {
	handler := newConnectionHandler(&fakeGraphService{err: relationships.ErrAlreadyExists})

	req := authedRequest(t, http.MethodPost, "/api/v1/connections", connectionRequest{UserID: "bob"}, testToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d got %d", http.StatusConflict, rec.Code)
	}
}

func TestConnectionHandlerRespond(t *testing.T) {
	graph := &fakeGraphService{connection: models.Connection{
		ID:          "conn-1",
		RequesterID: "bob",
		RecipientID: "alice",
		Status:      models.ConnectionAccepted,
	}}
	handler := newConnectionHandler(graph)

	req := authedRequest(t, http.MethodPost, "/api/v1/connections/respond",
		respondRequest{ConnectionID: "conn-1", Decision: "accept"}, testToken)
	rec := httptest.NewRecorder()
	handler.Respond(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp connectionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(models.ConnectionAccepted) {
		t.Fatalf("status = %q", resp.Status)
	}
}

func TestConnectionHandlerRespondValidation(t *testing.T) {
	handler := newConnectionHandler(&fakeGraphService{})

	req := authedRequest(t, http.MethodPost, "/api/v1/connections/respond",
		respondRequest{ConnectionID: "conn-1", Decision: "maybe"}, testToken)
	rec := httptest.NewRecorder()
	handler.Respond(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad decision: expected status %d got %d", http.StatusBadRequest, rec.Code)
	}

	req = authedRequest(t, http.MethodPost, "/api/v1/connections/respond",
		respondRequest{Decision: "accept"}, testToken)
	rec = httptest.NewRecorder()
	handler.Respond(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id: expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestConnectionHandlerRespondNotPending(t *testing.T) {
	handler := newConnectionHandler(&fakeGraphService{err: relationships.ErrInvalidState})

	req := authedRequest(t, http.MethodPost, "/api/v1/connections/respond",
		respondRequest{ConnectionID: "conn-1", Decision: "accept"}, testToken)
	rec := httptest.NewRecorder()
	handler.Respond(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d got %d", http.StatusConflict, rec.Code)
	}
}

func TestConnectionHandlerRemove(t *testing.T) {
	graph := &fakeGraphService{}
	handler := newConnectionHandler(graph)

	req := authedRequest(t, http.MethodDelete, "/api/v1/connections",
		respondRequest{ConnectionID: "conn-1"}, testToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if len(graph.removeCalls) != 1 || graph.removeCalls[0] != "conn-1" {
		t.Fatalf("remove calls = %v", graph.removeCalls)
	}
}

func TestConnectionHandlerListRejectsUnknownStatus(t *testing.T) {
	handler := newConnectionHandler(&fakeGraphService{})

	req := authedRequest(t, http.MethodGet, "/api/v1/connections?status=blocked", nil, testToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

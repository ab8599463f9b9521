package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/relationships"
)

// fakeGraphService records calls and replays canned results.
type fakeGraphService struct {
	followCalls   [][2]string
	unfollowCalls [][2]string
	removeCalls   []string

	err        error
	followers  []models.User
	connection models.Connection
	stats      models.RelationshipStats
}

func (f *fakeGraphService) Follow(_ context.Context, followerID, followeeID string) error {
	f.followCalls = append(f.followCalls, [2]string{followerID, followeeID})
	return f.err
}

func (f *fakeGraphService) Unfollow(_ context.Context, followerID, followeeID string) error {
	f.unfollowCalls = append(f.unfollowCalls, [2]string{followerID, followeeID})
	return f.err
}

func (f *fakeGraphService) Followers(context.Context, string, int, int) ([]models.User, error) {
	return f.followers, f.err
}

func (f *fakeGraphService) Following(context.Context, string, int, int) ([]models.User, error) {
	return f.followers, f.err
}

func (f *fakeGraphService) RequestConnection(context.Context, string, string) (models.Connection, error) {
	return f.connection, f.err
}

func (f *fakeGraphService) RespondToConnection(context.Context, string, string, relationships.Decision) (models.Connection, error) {
	return f.connection, f.err
}

func (f *fakeGraphService) RemoveConnection(_ context.Context, _ string, connectionID string) error {
	f.removeCalls = append(f.removeCalls, connectionID)
	return f.err
}

func (f *fakeGraphService) Connections(context.Context, string, models.ConnectionStatus, int, int) ([]models.Connection, error) {
	if f.connection.ID == "" {
		return nil, f.err
	}
	return []models.Connection{f.connection}, f.err
}

func (f *fakeGraphService) Stats(context.Context, string) (models.RelationshipStats, error) {
	return f.stats, f.err
}

const testToken = "access-token"

func newFollowHandler(graph *fakeGraphService) FollowHandler {
	return FollowHandler{Graph: graph, Sessions: stubSessions{token: testToken, userID: "alice"}}
}

func TestFollowHandlerRequiresAuth(t *testing.T) {
	handler := newFollowHandler(&fakeGraphService{})

	req := jsonRequest(t, http.MethodPost, "/api/v1/follows", followRequest{UserID: "bob"})
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func TestFollowHandlerRateLimited(t *testing.T) {
	graph := &fakeGraphService{}
	handler := newFollowHandler(graph)
	handler.Limiter = denyAllLimiter{}

	req := authedRequest(t, http.MethodPost, "/api/v1/follows", followRequest{UserID: "bob"}, testToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
	if len(graph.followCalls) != 0 {
		t.Fatalf("expected no follow calls, got %v", graph.followCalls)
	}
}

func TestFollowHandlerFollow(t *testing.T) {
	graph := &fakeGraphService{}
	handler := newFollowHandler(graph)

	req := authedRequest(t, http.MethodPost, "/api/v1/follows", followRequest{UserID: "bob"}, testToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if len(graph.followCalls) != 1 || graph.followCalls[0] != [2]string{"alice", "bob"} {
		t.Fatalf("follow calls = %v", graph.followCalls)
	}
}

func TestFollowHandlerMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{relationships.ErrInvalidTarget, http.StatusBadRequest},
		{relationships.ErrAlreadyExists, http.StatusConflict},
		{relationships.ErrNotFound, http.StatusNotFound},
		{relationships.ErrForbidden, http.StatusForbidden},
		{relationships.ErrInvalidState, http.StatusConflict},
	}

	for _, tc := range cases {
		handler := newFollowHandler(&fakeGraphService{err: tc.err})

		req := authedRequest(t, http.MethodPost, "/api/v1/follows", followRequest{UserID: "bob"}, testToken)
		rec := httptest.NewRecorder()
		handler.Handle(rec, req)

		if rec.Code != tc.want {
			t.Fatalf("%v: expected status %d got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestFollowHandlerUnfollow(t *testing.T) {
	graph := &fakeGraphService{}
	handler := newFollowHandler(graph)

	req := authedRequest(t, http.MethodDelete, "/api/v1/follows", followRequest{UserID: "bob"}, testToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if len(graph.unfollowCalls) != 1 {
		t.Fatalf("unfollow calls = %v", graph.unfollowCalls)
	}
}

func TestFollowHandlerFollowersList(t *testing.T) {
	graph := &fakeGraphService{followers: []models.User{
		{ID: "bob", Handle: "bob", DisplayName: "Bob"},
		{ID: "carol", Handle: "carol", DisplayName: "Carol"},
	}}
	handler := newFollowHandler(graph)

	req := authedRequest(t, http.MethodGet, "/api/v1/follows/followers?page=1&limit=20", nil, testToken)
	rec := httptest.NewRecorder()
	handler.Followers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Users []userResponse `json:"users"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Users) != 2 || resp.Users[0].Handle != "bob" {
		t.Fatalf("users = %+v", resp.Users)
	}
}

func TestFollowHandlerStats(t *testing.T) {
	graph := &fakeGraphService{stats: models.RelationshipStats{Followers: 3, Following: 1, Connections: 2}}
	handler := newFollowHandler(graph)

	req := authedRequest(t, http.MethodGet, "/api/v1/relationships/stats", nil, testToken)
	rec := httptest.NewRecorder()
	handler.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp models.RelationshipStats
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp != graph.stats {
		t.Fatalf("stats = %+v, want %+v", resp, graph.stats)
	}
}

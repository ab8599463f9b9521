package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/notifications"
)

type fakeInbox struct {
	items  []models.Notification
	unread int64
	err    error

	markedAll bool
	markedIDs []string
	cleared   bool
}

func (f *fakeInbox) List(context.Context, string, int, int) ([]models.Notification, error) {
	return f.items, f.err
}

func (f *fakeInbox) MarkRead(_ context.Context, _, id string) error {
	if f.err != nil {
		return f.err
	}
	f.markedIDs = append(f.markedIDs, id)
	return nil
}

func (f *fakeInbox) MarkAllRead(context.Context, string) error {
	f.markedAll = true
	return f.err
}

func (f *fakeInbox) Clear(context.Context, string) error {
	f.cleared = true
	return f.err
}

func (f *fakeInbox) UnreadCount(context.Context, string) (int64, error) {
	return f.unread, f.err
}

func newNotificationHandler(inbox *fakeInbox) NotificationHandler {
	return NotificationHandler{Inbox: inbox, Sessions: stubSessions{token: testToken, userID: "alice"}}
}

func TestNotificationHandlerList(t *testing.T) {
	inbox := &fakeInbox{items: []models.Notification{
		{ID: "n-1", SenderID: "bob", Kind: "follower.new"},
		{ID: "n-2", SenderID: "carol", Kind: "comment.new", BlogID: "blog-1", Read: true},
	}}
	handler := newNotificationHandler(inbox)

	req := authedRequest(t, http.MethodGet, "/api/v1/notifications", nil, testToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Notifications []notificationResponse `json:"notifications"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Notifications) != 2 || resp.Notifications[1].BlogID != "blog-1" {
		t.Fatalf("notifications = %+v", resp.Notifications)
	}
}

func TestNotificationHandlerListRequiresAuth(t *testing.T) {
	handler := newNotificationHandler(&fakeInbox{})

	req := jsonRequest(t, http.MethodGet, "/api/v1/notifications", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	inbox := &fakeInbox{}
	handler := newNotificationHandler(inbox)

	req := authedRequest(t, http.MethodPost, "/api/v1/notifications/read", markReadRequest{ID: "n-1"}, testToken)
	rec := httptest.NewRecorder()
	handler.MarkRead(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if len(inbox.markedIDs) != 1 || inbox.markedIDs[0] != "n-1" {
		t.Fatalf("marked ids = %v", inbox.markedIDs)
	}
}

func TestNotificationHandlerMarkAllRead(t *testing.T) {
	inbox := &fakeInbox{}
	handler := newNotificationHandler(inbox)

	req := authedRequest(t, http.MethodPost, "/api/v1/notifications/read", markReadRequest{All: true}, testToken)
	rec := httptest.NewRecorder()
	handler.MarkRead(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if !inbox.markedAll {
		t.Fatal("MarkAllRead not invoked")
	}
}

func TestNotificationHandlerMarkReadValidation(t *testing.T) {
	handler := newNotificationHandler(&fakeInbox{})

	req := authedRequest(t, http.MethodPost, "/api/v1/notifications/read", markReadRequest{}, testToken)
	rec := httptest.NewRecorder()
	handler.MarkRead(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestNotificationHandlerMarkReadUnknown(t *testing.T) {
	handler := newNotificationHandler(&fakeInbox{err: notifications.ErrNotFound})

	req := authedRequest(t, http.MethodPost, "/api/v1/notifications/read", markReadRequest{ID: "n-404"}, testToken)
	rec := httptest.NewRecorder()
	handler.MarkRead(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestNotificationHandlerClearAndCount(t *testing.T) {
	inbox := &fakeInbox{unread: 4}
	handler := newNotificationHandler(inbox)

	req := authedRequest(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, testToken)
	rec := httptest.NewRecorder()
	handler.UnreadCount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("count: expected status %d got %d", http.StatusOK, rec.Code)
	}
	var resp map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["unread"] != 4 {
		t.Fatalf("unread = %d, want 4", resp["unread"])
	}

	req = authedRequest(t, http.MethodDelete, "/api/v1/notifications", nil, testToken)
	rec = httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear: expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if !inbox.cleared {
		t.Fatal("Clear not invoked")
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkcircle/backend/internal/auth"
	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Handle == user.Handle {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByHandle(_ context.Context, handle string) (models.User, error) {
	for _, user := range s.users {
		if user.Handle == handle {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func newTestSessions() *auth.Manager {
	return auth.NewManager(time.Minute, time.Hour, auth.NewInMemorySessionStore())
}

func TestAuthHandlerSignUp(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions()}

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/signup", signUpRequest{
		Handle:   "inkwell",
		Email:    "test@example.com",
		Password: "supersafe",
	})
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}
	if resp.User == nil || resp.User.Handle != "inkwell" {
		t.Fatalf("expected public user in response, got %+v", resp.User)
	}

	stored, err := store.FindByEmail(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if stored.DisplayName != "inkwell" {
		t.Fatalf("display name should default to handle, got %q", stored.DisplayName)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}
}

func TestAuthHandlerSignUpRejectsBadHandle(t *testing.T) {
	handler := AuthHandler{Users: newInMemoryUserStore(), Sessions: newTestSessions()}

	for _, handle := range []string{"ab", "-leading", "Spaces here", "way-too-long-for-a-handle-because-it-keeps-going"} {
		req := jsonRequest(t, http.MethodPost, "/api/v1/auth/signup", signUpRequest{
			Handle:   handle,
			Email:    "test@example.com",
			Password: "supersafe",
		})
		rec := httptest.NewRecorder()

		handler.SignUp(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("handle %q: expected status %d got %d", handle, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestAuthHandlerSignUpConflict(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions()}

	first := jsonRequest(t, http.MethodPost, "/api/v1/auth/signup", signUpRequest{
		Handle: "inkwell", Email: "test@example.com", Password: "supersafe",
	})
	handler.SignUp(httptest.NewRecorder(), first)

	second := jsonRequest(t, http.MethodPost, "/api/v1/auth/signup", signUpRequest{
		Handle: "inkwell", Email: "other@example.com", Password: "supersafe",
	})
	rec := httptest.NewRecorder()
	handler.SignUp(rec, second)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d got %d", http.StatusConflict, rec.Code)
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions()}

	hashed, err := bcrypt.GenerateFromPassword([]byte("supersafe"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := store.Create(context.Background(), models.User{
		ID: "user-1", Handle: "inkwell", Email: "test@example.com", Password: string(hashed),
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/login", loginRequest{
		Email: "test@example.com", Password: "supersafe",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tokens.AccessToken == "" {
		t.Fatal("expected an access token")
	}

	bad := jsonRequest(t, http.MethodPost, "/api/v1/auth/login", loginRequest{
		Email: "test@example.com", Password: "wrong",
	})
	rec = httptest.NewRecorder()
	handler.Login(rec, bad)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerRefreshAndLogout(t *testing.T) {
	sessions := newTestSessions()
	handler := AuthHandler{Users: newInMemoryUserStore(), Sessions: sessions}

	tokens, err := sessions.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh", refreshRequest{RefreshToken: tokens.RefreshToken})
	rec := httptest.NewRecorder()
	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	logout := authedRequest(t, http.MethodPost, "/api/v1/auth/logout",
		logoutRequest{RefreshToken: resp.Tokens.RefreshToken}, resp.Tokens.AccessToken)
	rec = httptest.NewRecorder()
	handler.Logout(rec, logout)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected status %d got %d", http.StatusNoContent, rec.Code)
	}

	if _, err := sessions.Validate(context.Background(), resp.Tokens.AccessToken); err == nil {
		t.Fatal("access token still valid after logout")
	}
	if _, err := sessions.Refresh(context.Background(), resp.Tokens.RefreshToken); err == nil {
		t.Fatal("refresh token still valid after logout")
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkcircle/backend/internal/logging"
	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/repositories"
)

// handlePattern constrains public handles to URL-safe lowercase names.
var handlePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,29}$`)

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// SignUp handles POST /api/v1/auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		errorJSON(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "signup") {
		errorJSON(ctx, w, http.StatusTooManyRequests, "too many signup attempts")
		return
	}

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Handle = strings.TrimSpace(strings.ToLower(req.Handle))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)

	if req.Handle == "" || req.Email == "" || req.Password == "" {
		logger.Warn("signup missing fields", "handle", req.Handle, "email", req.Email)
		errorJSON(ctx, w, http.StatusBadRequest, "handle, email, and password are required")
		return
	}

	if !handlePattern.MatchString(req.Handle) {
		logger.Warn("signup invalid handle", "handle", req.Handle)
		errorJSON(ctx, w, http.StatusBadRequest, "handle must be 3-30 lowercase letters, digits, hyphens, or underscores")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("signup invalid email", "email", req.Email, "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if len(req.Password) < 8 {
		logger.Warn("signup password too short", "handle", req.Handle)
		errorJSON(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if req.DisplayName == "" {
		req.DisplayName = req.Handle
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		errorJSON(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:          uuid.NewString(),
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    string(hashed),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("signup conflict", "handle", req.Handle, "email", req.Email)
			errorJSON(ctx, w, http.StatusConflict, "handle or email already in use")
			return
		}
		logger.Error("signup failed to create user", "error", err, "handle", req.Handle)
		errorJSON(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("signup failed to issue session", "error", err, "userId", user.ID)
		errorJSON(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, authResponse{User: publicUser(user), Tokens: tokens})
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		errorJSON(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		errorJSON(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		logger.Warn("login missing credentials", "email", req.Email)
		errorJSON(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		logger.Warn("login user lookup failed", "email", req.Email, "error", err)
		errorJSON(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		errorJSON(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		errorJSON(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{User: publicUser(user), Tokens: tokens})
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		errorJSON(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		logger.Warn("missing refresh token")
		errorJSON(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		logger.Warn("refresh failed", "error", err)
		errorJSON(ctx, w, http.StatusUnauthorized, "unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Logout revokes the caller's session tokens.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		errorJSON(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid logout payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if token := bearerToken(r); token != "" {
		if err := h.Sessions.Revoke(ctx, token); err != nil {
			logger.Warn("revoke access token", "error", err)
		}
	}
	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		if err := h.Sessions.Revoke(ctx, token); err != nil {
			logger.Warn("revoke refresh token", "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

type signUpRequest struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

type authResponse struct {
	User   *userResponse        `json:"user,omitempty"`
	Tokens models.SessionTokens `json:"tokens"`
}

func publicUser(user models.User) *userResponse {
	return &userResponse{ID: user.ID, Handle: user.Handle, DisplayName: user.DisplayName}
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

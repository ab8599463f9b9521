package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/inkcircle/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenExpired indicates the token exists but is past its expiry.
	ErrTokenExpired = errors.New("session token expired")
)

// SessionKind distinguishes short-lived access tokens from refresh tokens.
type SessionKind string

const (
	KindAccess  SessionKind = "access"
	KindRefresh SessionKind = "refresh"
)

// Session represents a token issued to a user.
type Session struct {
	Token     string
	UserID    string
	Kind      SessionKind
	ExpiresAt time.Time
}

// SessionStore persists issued tokens so they can survive process restarts
// and be revoked server-side.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// Manager manages the lifecycle of issued session tokens backed by a
// persistent store. Tokens are opaque random values; possession plus a live
// store record is the whole credential.
type Manager struct {
	accessTTL  time.Duration
	refreshTTL time.Duration

	store SessionStore
	now   func() time.Time
}

// NewManager constructs a Manager that issues access and refresh tokens with
// the provided TTLs.
func NewManager(accessTTL, refreshTTL time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new pair of access and refresh tokens for the provided user.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := m.now()
	accessToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}
	refreshToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}

	tokens := models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}

	if err := m.store.Save(ctx, Session{
		Token:     accessToken,
		UserID:    userID,
		Kind:      KindAccess,
		ExpiresAt: tokens.AccessExpiresAt,
	}); err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.Save(ctx, Session{
		Token:     refreshToken,
		UserID:    userID,
		Kind:      KindRefresh,
		ExpiresAt: tokens.RefreshExpiresAt,
	}); err != nil {
		return models.SessionTokens{}, err
	}

	return tokens, nil
}

// Validate resolves an access token to the owning user.
func (m *Manager) Validate(ctx context.Context, accessToken string) (string, error) {
	session, err := m.store.Find(ctx, accessToken)
	if err != nil {
		return "", err
	}
	if session.Kind != KindAccess {
		return "", ErrSessionNotFound
	}
	if m.now().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, accessToken)
		return "", ErrTokenExpired
	}
	return session.UserID, nil
}

// Refresh exchanges a refresh token for a new session token pair. The spent
// refresh token is revoked whether or not the exchange succeeds past expiry.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	session, err := m.store.Find(ctx, refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if session.Kind != KindRefresh {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	if m.now().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, refreshToken)
		return models.SessionTokens{}, ErrTokenExpired
	}

	if err := m.store.Delete(ctx, refreshToken); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return models.SessionTokens{}, err
	}

	return m.Issue(ctx, session.UserID)
}

// Revoke deletes the session for the provided token. Revoking an unknown
// token succeeds so logout is idempotent.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.store.Delete(ctx, token); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

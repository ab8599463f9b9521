package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*Manager, *InMemorySessionStore) {
	t.Helper()
	store := NewInMemorySessionStore()
	return NewManager(15*time.Minute, 24*time.Hour, store), store
}

func TestManagerIssueAndValidate(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both tokens to be populated")
	}
	if tokens.AccessToken == tokens.RefreshToken {
		t.Fatal("expected distinct access and refresh tokens")
	}
	if !store.Has(tokens.AccessToken) || !store.Has(tokens.RefreshToken) {
		t.Fatal("expected both sessions persisted")
	}

	userID, err := manager.Validate(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}

	// A refresh token is not an access credential.
	if _, err := manager.Validate(ctx, tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for refresh token, got %v", err)
	}
}

func TestManagerValidateExpired(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }

	if _, err := manager.Validate(ctx, tokens.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if store.Has(tokens.AccessToken) {
		t.Fatal("expected expired access session to be removed")
	}
}

func TestManagerRefreshRotatesTokens(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rotated, err := manager.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("expected spent refresh token to be revoked")
	}

	if _, err := manager.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for reused token, got %v", err)
	}
}

func TestManagerRevokeIsIdempotent(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Revoke(ctx, tokens.AccessToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := manager.Revoke(ctx, tokens.AccessToken); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkcircle/backend/internal/auth"
	"github.com/inkcircle/backend/internal/config"
	"github.com/inkcircle/backend/internal/events"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}

	bus := events.NewMemoryBus()
	t.Cleanup(func() { bus.Close() })

	deps, err := buildDependencies(fakePool{}, cfg, bus, auth.NewInMemorySessionStore(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Relationships == nil {
		t.Fatal("expected relationship service to be configured")
	}
	if deps.Blogs == nil {
		t.Fatal("expected blog service to be configured")
	}
	if deps.Notifications == nil {
		t.Fatal("expected notification service to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
	if deps.WriteLimiter == nil {
		t.Fatal("expected write rate limiter to be configured")
	}
}

func TestBuildDependenciesRejectsClosedBus(t *testing.T) {
	bus := events.NewMemoryBus()
	bus.Close()

	if _, err := buildDependencies(fakePool{}, config.Config{}, bus, auth.NewInMemorySessionStore(), nil); err == nil {
		t.Fatal("expected error attaching dispatcher to a closed bus")
	}
}

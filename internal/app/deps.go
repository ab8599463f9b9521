package app

import (
	"fmt"
	"time"

	"github.com/inkcircle/backend/internal/access"
	"github.com/inkcircle/backend/internal/auth"
	"github.com/inkcircle/backend/internal/blogs"
	"github.com/inkcircle/backend/internal/config"
	"github.com/inkcircle/backend/internal/db"
	"github.com/inkcircle/backend/internal/events"
	"github.com/inkcircle/backend/internal/handlers"
	"github.com/inkcircle/backend/internal/middleware"
	"github.com/inkcircle/backend/internal/notifications"
	"github.com/inkcircle/backend/internal/relationships"
	"github.com/inkcircle/backend/internal/repositories"
)

const statsCacheTTL = 30 * time.Second

// buildDependencies wires together concrete implementations used by the HTTP
// handlers and attaches the notification dispatcher to the bus.
func buildDependencies(pool db.Pool, cfg config.Config, bus events.Bus, sessionStore auth.SessionStore, covers handlers.ImageStore) (handlers.Dependencies, error) {
	graph := repositories.NewPostgresGraphReader(pool)
	resolver := access.NewResolver(graph)

	notifRepo := repositories.NewPostgresNotificationRepository(pool)
	if err := notifications.NewDispatcher(notifRepo).Attach(bus); err != nil {
		return handlers.Dependencies{}, fmt.Errorf("attach notification dispatcher: %w", err)
	}

	return handlers.Dependencies{
		Users:    repositories.NewPostgresUserRepository(pool),
		Sessions: auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore),
		Relationships: relationships.NewService(
			repositories.NewPostgresFollowRepository(pool),
			repositories.NewPostgresConnectionRepository(pool),
			relationships.NewCachingStatsReader(graph, statsCacheTTL),
			bus,
		),
		Blogs:         blogs.NewService(repositories.NewPostgresBlogRepository(pool), resolver, bus),
		Notifications: notifications.NewService(notifRepo),
		Covers:        covers,
		AuthLimiter:   middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		WriteLimiter:  middleware.NewIPRateLimiter(60, time.Minute, 30, 10*time.Minute),
	}, nil
}

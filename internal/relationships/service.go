package relationships

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkcircle/backend/internal/events"
	"github.com/inkcircle/backend/internal/logging"
	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/repositories"
)

// Decision is a recipient's answer to a pending connection request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Service is the relationship state machine. All writes go through here so
// that every legal transition emits its event exactly once and illegal
// transitions surface as typed domain errors.
type Service struct {
	follows     repositories.FollowRepository
	connections repositories.ConnectionRepository
	stats       repositories.StatsReader
	bus         events.Publisher
	now         func() time.Time
}

// NewService wires the state machine over its stores and event publisher.
func NewService(follows repositories.FollowRepository, connections repositories.ConnectionRepository, stats repositories.StatsReader, bus events.Publisher) *Service {
	return &Service{
		follows:     follows,
		connections: connections,
		stats:       stats,
		bus:         bus,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Follow creates the directed edge from follower to followee. Following a user you
// already follow is a no-op success; the NewFollower event fires only when a
// new edge actually lands.
func (s *Service) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return ErrInvalidTarget
	}

	created, err := s.follows.Create(ctx, models.FollowEdge{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  s.now(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("create follow edge: %w", err)
	}

	if created {
		s.publish(ctx, events.New(events.KindNewFollower, followerID, followeeID))
	}

	return nil
}

// Unfollow removes the directed edge. Unfollowing someone you do not follow
// is a no-op success.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return ErrInvalidTarget
	}

	if err := s.follows.Delete(ctx, followerID, followeeID); err != nil {
		return fmt.Errorf("delete follow edge: %w", err)
	}

	return nil
}

// RequestConnection opens the mutual-acceptance workflow. The write goes
// first and the storage-level pair constraint arbitrates races: of two
// concurrent requests for the same pair exactly one succeeds, the other maps
// to ErrAlreadyExists. Re-requesting over any existing record is rejected
// rather than silently absorbed.
func (s *Service) RequestConnection(ctx context.Context, requesterID, recipientID string) (models.Connection, error) {
	if requesterID == recipientID {
		return models.Connection{}, ErrInvalidTarget
	}

	connection := models.Connection{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.ConnectionPending,
		CreatedAt:   s.now(),
	}

	if err := s.connections.Create(ctx, connection); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			return models.Connection{}, ErrAlreadyExists
		case errors.Is(err, repositories.ErrNotFound):
			return models.Connection{}, ErrNotFound
		}
		return models.Connection{}, fmt.Errorf("create connection: %w", err)
	}

	s.publish(ctx, events.New(events.KindConnectionRequested, requesterID, recipientID))

	return connection, nil
}

// RespondToConnection lets the recorded recipient accept or reject a pending
// request. Accepting emits ConnectionAccepted exactly once: the store's
// pending-guarded update ensures concurrent duplicate responses produce a
// single transition, and rejection is terminal and silent.
func (s *Service) RespondToConnection(ctx context.Context, actorID, connectionID string, decision Decision) (models.Connection, error) {
	target := models.ConnectionAccepted
	if decision == DecisionReject {
		target = models.ConnectionRejected
	} else if decision != DecisionAccept {
		return models.Connection{}, fmt.Errorf("unknown decision %q", decision)
	}

	connection, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Connection{}, ErrNotFound
		}
		return models.Connection{}, fmt.Errorf("load connection: %w", err)
	}

	if connection.RecipientID != actorID {
		return models.Connection{}, ErrForbidden
	}
	if connection.Status != models.ConnectionPending {
		return models.Connection{}, ErrInvalidState
	}

	transitioned, err := s.connections.MarkResponded(ctx, connectionID, target)
	if err != nil {
		return models.Connection{}, fmt.Errorf("transition connection: %w", err)
	}
	if !transitioned {
		// Lost a race to another response; the record left pending between
		// our read and write.
		return models.Connection{}, ErrInvalidState
	}

	connection.Status = target
	respondedAt := s.now()
	connection.RespondedAt = &respondedAt

	if target == models.ConnectionAccepted {
		s.publish(ctx, events.New(events.KindConnectionAccepted, actorID, connection.RequesterID))
	}

	return connection, nil
}

// RemoveConnection deletes the record from any status, provided the actor is
// one of the two parties. Removing an already-absent record succeeds so
// client retries stay simple.
func (s *Service) RemoveConnection(ctx context.Context, actorID, connectionID string) error {
	connection, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load connection: %w", err)
	}

	if !connection.Involves(actorID) {
		return ErrForbidden
	}

	if err := s.connections.Delete(ctx, connectionID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete connection: %w", err)
	}

	return nil
}

// maxPageSize caps relationship listings regardless of what the client asks for.
const maxPageSize = 100

// NormalizePage converts 1-based page/limit parameters into clamped
// offset/limit values.
func NormalizePage(page, limit int) (offset, clamped int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}

// Followers lists the users following userID.
func (s *Service) Followers(ctx context.Context, userID string, page, limit int) ([]models.User, error) {
	offset, limit := NormalizePage(page, limit)
	users, err := s.follows.Followers(ctx, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return users, nil
}

// Following lists the users that userID follows.
func (s *Service) Following(ctx context.Context, userID string, page, limit int) ([]models.User, error) {
	offset, limit := NormalizePage(page, limit)
	users, err := s.follows.Following(ctx, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return users, nil
}

// Connections lists the user's connection records, optionally filtered by status.
func (s *Service) Connections(ctx context.Context, userID string, status models.ConnectionStatus, page, limit int) ([]models.Connection, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown connection status %q", status)
	}
	offset, limit := NormalizePage(page, limit)
	records, err := s.connections.ListForUser(ctx, userID, status, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return records, nil
}

// Stats returns the profile counters for a user.
func (s *Service) Stats(ctx context.Context, userID string) (models.RelationshipStats, error) {
	stats, err := s.stats.Stats(ctx, userID)
	if err != nil {
		return models.RelationshipStats{}, fmt.Errorf("load relationship stats: %w", err)
	}
	return stats, nil
}

// publish pushes the event toward the dispatcher. The triggering write has
// already committed, so publish failures are logged and swallowed.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Error("publish relationship event",
			"kind", event.Kind, "event_id", event.ID, "error", err)
	}
}

package repositories

import (
	"context"

	"github.com/inkcircle/backend/internal/models"
)

// RelationshipProbe is the batched answer to "how does the viewer relate to
// the author": both graph lookups resolved in a single round trip.
type RelationshipProbe struct {
	ViewerFollowsAuthor bool
	Connected           bool
}

// FollowRepository defines data access for the directed follow graph.
type FollowRepository interface {
	// Create inserts the edge unless it already exists. The returned bool
	// reports whether a new edge was actually created.
	Create(ctx context.Context, edge models.FollowEdge) (bool, error)
	Delete(ctx context.Context, followerID, followeeID string) error
	Followers(ctx context.Context, userID string, offset, limit int) ([]models.User, error)
	Following(ctx context.Context, userID string, offset, limit int) ([]models.User, error)
}

// ConnectionRepository defines data access for the mutual-connection graph.
type ConnectionRepository interface {
	// Create inserts a pending connection. ErrConflict signals a record
	// already exists for the unordered pair, whatever its status.
	Create(ctx context.Context, connection models.Connection) error
	FindByID(ctx context.Context, id string) (models.Connection, error)
	// MarkResponded transitions a pending record to the given status. The
	// returned bool reports whether the guarded update took effect; false
	// means the record was no longer pending.
	MarkResponded(ctx context.Context, id string, status models.ConnectionStatus) (bool, error)
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string, status models.ConnectionStatus, offset, limit int) ([]models.Connection, error)
}

// RelationshipReader serves the access resolver's read path.
type RelationshipReader interface {
	Probe(ctx context.Context, viewerID, authorID string) (RelationshipProbe, error)
}

// StatsReader exposes the aggregate counts shown on profiles.
type StatsReader interface {
	Stats(ctx context.Context, userID string) (models.RelationshipStats, error)
}

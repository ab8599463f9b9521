package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inkcircle/backend/internal/db"
	"github.com/inkcircle/backend/internal/models"
)

// PostgresFollowRepository provides PostgreSQL-backed persistence for the
// directed follow graph.
type PostgresFollowRepository struct {
	pool db.Pool
}

// NewPostgresFollowRepository constructs a follow repository backed by PostgreSQL.
func NewPostgresFollowRepository(pool db.Pool) *PostgresFollowRepository {
	return &PostgresFollowRepository{pool: pool}
}

// Create inserts the edge. The (follower, followee) primary key makes the
// insert a no-op when the edge already exists; the bool reports whether a
// new edge landed.
func (r *PostgresFollowRepository) Create(ctx context.Context, edge models.FollowEdge) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO follows (follower_id, followee_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (follower_id, followee_id) DO NOTHING
    `, edge.FollowerID, edge.FolloweeID, edge.CreatedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return false, mapped
		}
		return false, fmt.Errorf("insert follow edge: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes the edge. Removing an absent edge is not an error.
func (r *PostgresFollowRepository) Delete(ctx context.Context, followerID, followeeID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        DELETE FROM follows
        WHERE follower_id = $1 AND followee_id = $2
    `, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("delete follow edge: %w", err)
	}

	return nil
}

// Followers returns the users following userID, most recent first.
func (r *PostgresFollowRepository) Followers(ctx context.Context, userID string, offset, limit int) ([]models.User, error) {
	return r.listEdgeUsers(ctx, `
        SELECT u.id, u.handle, u.display_name, u.email, u.password_hash, u.created_at, u.updated_at
        FROM follows f
        JOIN users u ON u.id = f.follower_id
        WHERE f.followee_id = $1
        ORDER BY f.created_at DESC
        OFFSET $2 LIMIT $3
    `, userID, offset, limit)
}

// Following returns the users that userID follows, most recent first.
func (r *PostgresFollowRepository) Following(ctx context.Context, userID string, offset, limit int) ([]models.User, error) {
	return r.listEdgeUsers(ctx, `
        SELECT u.id, u.handle, u.display_name, u.email, u.password_hash, u.created_at, u.updated_at
        FROM follows f
        JOIN users u ON u.id = f.followee_id
        WHERE f.follower_id = $1
        ORDER BY f.created_at DESC
        OFFSET $2 LIMIT $3
    `, userID, offset, limit)
}

func (r *PostgresFollowRepository) listEdgeUsers(ctx context.Context, query, userID string, offset, limit int) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query follow edges: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Handle, &user.DisplayName, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan follow edge user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow edges: %w", err)
	}

	return users, nil
}

// PostgresConnectionRepository provides PostgreSQL-backed persistence for
// mutual connections. A unique index over the unordered pair is the
// authoritative duplicate guard.
type PostgresConnectionRepository struct {
	pool db.Pool
}

// NewPostgresConnectionRepository constructs a connection repository backed by PostgreSQL.
func NewPostgresConnectionRepository(pool db.Pool) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{pool: pool}
}

// Create persists a new pending connection.
func (r *PostgresConnectionRepository) Create(ctx context.Context, connection models.Connection) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO connections (id, requester_id, recipient_id, status, created_at, responded_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, connection.ID, connection.RequesterID, connection.RecipientID, connection.Status, connection.CreatedAt, connection.RespondedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert connection: %w", err)
	}

	return nil
}

// FindByID loads a connection record.
func (r *PostgresConnectionRepository) FindByID(ctx context.Context, id string) (models.Connection, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Connection{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, requester_id, recipient_id, status, created_at, responded_at
        FROM connections
        WHERE id = $1
    `, id)

	var (
		record      models.Connection
		respondedAt sql.NullTime
	)
	if err := row.Scan(&record.ID, &record.RequesterID, &record.RecipientID, &record.Status, &record.CreatedAt, &respondedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Connection{}, ErrNotFound
		}
		return models.Connection{}, fmt.Errorf("select connection: %w", err)
	}
	if respondedAt.Valid {
		t := respondedAt.Time.UTC()
		record.RespondedAt = &t
	}

	return record, nil
}

// MarkResponded transitions a pending connection to the provided status. The
// pending guard in the WHERE clause makes concurrent duplicate responses
// lose cleanly: only one update ever reports true.
func (r *PostgresConnectionRepository) MarkResponded(ctx context.Context, id string, status models.ConnectionStatus) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE connections
        SET status = $2, responded_at = $3
        WHERE id = $1 AND status = 'pending'
    `, id, status, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update connection status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes the connection record.
func (r *PostgresConnectionRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListForUser returns connections involving the user, optionally filtered by
// status, most recent first.
func (r *PostgresConnectionRepository) ListForUser(ctx context.Context, userID string, status models.ConnectionStatus, offset, limit int) ([]models.Connection, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `
        SELECT id, requester_id, recipient_id, status, created_at, responded_at
        FROM connections
        WHERE (requester_id = $1 OR recipient_id = $1)
    `
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2 ORDER BY created_at DESC OFFSET $3 LIMIT $4`
		args = append(args, status, offset, limit)
	} else {
		query += ` ORDER BY created_at DESC OFFSET $2 LIMIT $3`
		args = append(args, offset, limit)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	var records []models.Connection
	for rows.Next() {
		var (
			record      models.Connection
			respondedAt sql.NullTime
		)
		if err := rows.Scan(&record.ID, &record.RequesterID, &record.RecipientID, &record.Status, &record.CreatedAt, &respondedAt); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		if respondedAt.Valid {
			t := respondedAt.Time.UTC()
			record.RespondedAt = &t
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	return records, nil
}

// PostgresGraphReader answers access-resolver probes and profile statistics
// against both relationship tables.
type PostgresGraphReader struct {
	pool db.Pool
}

// NewPostgresGraphReader constructs a graph reader backed by PostgreSQL.
func NewPostgresGraphReader(pool db.Pool) *PostgresGraphReader {
	return &PostgresGraphReader{pool: pool}
}

// Probe resolves both relationship questions in a single statement so the
// access resolver costs one round trip per evaluation.
func (r *PostgresGraphReader) Probe(ctx context.Context, viewerID, authorID string) (RelationshipProbe, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return RelationshipProbe{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            EXISTS (
                SELECT 1 FROM follows
                WHERE follower_id = $1 AND followee_id = $2
            ),
            EXISTS (
                SELECT 1 FROM connections
                WHERE status = 'accepted'
                  AND LEAST(requester_id, recipient_id) = LEAST($1::uuid, $2::uuid)
                  AND GREATEST(requester_id, recipient_id) = GREATEST($1::uuid, $2::uuid)
            )
    `, viewerID, authorID)

	var probe RelationshipProbe
	if err := row.Scan(&probe.ViewerFollowsAuthor, &probe.Connected); err != nil {
		return RelationshipProbe{}, fmt.Errorf("probe relationship graph: %w", err)
	}

	return probe, nil
}

// Stats aggregates follower, following, and accepted-connection counts.
func (r *PostgresGraphReader) Stats(ctx context.Context, userID string) (models.RelationshipStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.RelationshipStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM follows WHERE followee_id = $1),
            (SELECT COUNT(*) FROM follows WHERE follower_id = $1),
            (SELECT COUNT(*) FROM connections WHERE status = 'accepted' AND (requester_id = $1 OR recipient_id = $1))
    `, userID)

	var stats models.RelationshipStats
	if err := row.Scan(&stats.Followers, &stats.Following, &stats.Connections); err != nil {
		return models.RelationshipStats{}, fmt.Errorf("count relationships: %w", err)
	}

	return stats, nil
}

var _ FollowRepository = (*PostgresFollowRepository)(nil)
var _ ConnectionRepository = (*PostgresConnectionRepository)(nil)
var _ RelationshipReader = (*PostgresGraphReader)(nil)
var _ StatsReader = (*PostgresGraphReader)(nil)

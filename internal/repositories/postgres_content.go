package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inkcircle/backend/internal/db"
	"github.com/inkcircle/backend/internal/models"
)

// PostgresBlogRepository provides PostgreSQL-backed persistence for blogs,
// comments, and likes. The unique index on slug is the authoritative
// collision guard for the slug generator.
type PostgresBlogRepository struct {
	pool db.Pool
}

// NewPostgresBlogRepository constructs a blog repository backed by PostgreSQL.
func NewPostgresBlogRepository(pool db.Pool) *PostgresBlogRepository {
	return &PostgresBlogRepository{pool: pool}
}

// Create persists a new blog record.
func (r *PostgresBlogRepository) Create(ctx context.Context, blog models.Blog) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO blogs (id, author_id, title, slug, body, cover_url, privacy, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, blog.ID, blog.AuthorID, blog.Title, blog.Slug, blog.Body, blog.CoverURL, blog.Privacy, blog.CreatedAt, blog.UpdatedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert blog: %w", err)
	}

	return nil
}

// Update rewrites the blog's mutable fields.
func (r *PostgresBlogRepository) Update(ctx context.Context, blog models.Blog) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE blogs
        SET title = $2, slug = $3, body = $4, cover_url = $5, privacy = $6, updated_at = $7
        WHERE id = $1
    `, blog.ID, blog.Title, blog.Slug, blog.Body, blog.CoverURL, blog.Privacy, blog.UpdatedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update blog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

const blogColumns = `id, author_id, title, slug, body, cover_url, privacy, created_at, updated_at`

func scanBlog(row pgx.Row) (models.Blog, error) {
	var blog models.Blog
	err := row.Scan(&blog.ID, &blog.AuthorID, &blog.Title, &blog.Slug, &blog.Body, &blog.CoverURL, &blog.Privacy, &blog.CreatedAt, &blog.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Blog{}, ErrNotFound
		}
		return models.Blog{}, fmt.Errorf("scan blog: %w", err)
	}
	return blog, nil
}

// FindByID loads a blog by identifier.
func (r *PostgresBlogRepository) FindByID(ctx context.Context, id string) (models.Blog, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Blog{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id)
	return scanBlog(row)
}

// FindBySlug loads a blog by its published slug.
func (r *PostgresBlogRepository) FindBySlug(ctx context.Context, slug string) (models.Blog, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Blog{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+blogColumns+` FROM blogs WHERE slug = $1`, slug)
	return scanBlog(row)
}

// Delete removes the blog and, via cascading constraints, its comments and likes.
func (r *PostgresBlogRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByAuthor returns the author's blogs, most recent first.
func (r *PostgresBlogRepository) ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]models.Blog, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+blogColumns+`
        FROM blogs
        WHERE author_id = $1
        ORDER BY created_at DESC
        OFFSET $2 LIMIT $3
    `, authorID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query blogs: %w", err)
	}
	defer rows.Close()

	var blogs []models.Blog
	for rows.Next() {
		var blog models.Blog
		if err := rows.Scan(&blog.ID, &blog.AuthorID, &blog.Title, &blog.Slug, &blog.Body, &blog.CoverURL, &blog.Privacy, &blog.CreatedAt, &blog.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blogs: %w", err)
	}

	return blogs, nil
}

// SlugExists reports whether a slug is already claimed.
func (r *PostgresBlogRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blogs WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("probe slug: %w", err)
	}

	return exists, nil
}

// CreateComment persists a reader comment.
func (r *PostgresBlogRepository) CreateComment(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, blog_id, author_id, body, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, comment.ID, comment.BlogID, comment.AuthorID, comment.Body, comment.CreatedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListComments returns a blog's comments, oldest first.
func (r *PostgresBlogRepository) ListComments(ctx context.Context, blogID string, offset, limit int) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, blog_id, author_id, body, created_at
        FROM comments
        WHERE blog_id = $1
        ORDER BY created_at ASC
        OFFSET $2 LIMIT $3
    `, blogID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.BlogID, &comment.AuthorID, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// CreateLike records the like unless it already exists.
func (r *PostgresBlogRepository) CreateLike(ctx context.Context, like models.Like) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO likes (user_id, blog_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, blog_id) DO NOTHING
    `, like.UserID, like.BlogID, like.CreatedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return false, mapped
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteLike removes the like; removing an absent like is not an error.
func (r *PostgresBlogRepository) DeleteLike(ctx context.Context, userID, blogID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND blog_id = $2`, userID, blogID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}

	return nil
}

// CountLikes returns the number of likes on a blog.
func (r *PostgresBlogRepository) CountLikes(ctx context.Context, blogID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE blog_id = $1`, blogID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}

// PostgresNotificationRepository provides PostgreSQL-backed persistence for
// notifications. The (event_id, recipient_id) unique index enforces
// once-per-event delivery.
type PostgresNotificationRepository struct {
	pool db.Pool
}

// NewPostgresNotificationRepository constructs a notification repository backed by PostgreSQL.
func NewPostgresNotificationRepository(pool db.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{pool: pool}
}

// Create writes the notification unless the (event, recipient) pair has
// already been recorded.
func (r *PostgresNotificationRepository) Create(ctx context.Context, notification models.Notification) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO notifications (id, recipient_id, sender_id, kind, blog_id, event_id, read, created_at)
        VALUES ($1, $2, NULLIF($3, '')::uuid, $4, NULLIF($5, '')::uuid, $6, $7, $8)
        ON CONFLICT (event_id, recipient_id) DO NOTHING
    `, notification.ID, notification.RecipientID, notification.SenderID, notification.Kind, notification.BlogID, notification.EventID, notification.Read, notification.CreatedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return false, mapped
		}
		return false, fmt.Errorf("insert notification: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListForUser returns the recipient's notifications, newest first.
func (r *PostgresNotificationRepository) ListForUser(ctx context.Context, recipientID string, offset, limit int) ([]models.Notification, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, recipient_id, sender_id, kind, blog_id, event_id, read, created_at
        FROM notifications
        WHERE recipient_id = $1
        ORDER BY created_at DESC
        OFFSET $2 LIMIT $3
    `, recipientID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var (
			notification models.Notification
			senderID     sql.NullString
			blogID       sql.NullString
		)
		if err := rows.Scan(&notification.ID, &notification.RecipientID, &senderID, &notification.Kind, &blogID, &notification.EventID, &notification.Read, &notification.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notification.SenderID = senderID.String
		notification.BlogID = blogID.String
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead flips the read flag on a single notification owned by the recipient.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE notifications
        SET read = TRUE
        WHERE id = $1 AND recipient_id = $2
    `, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAllRead flips the read flag on every unread notification for the recipient.
func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        UPDATE notifications
        SET read = TRUE
        WHERE recipient_id = $1 AND read = FALSE
    `, recipientID)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}

	return nil
}

// Clear removes all of the recipient's notifications.
func (r *PostgresNotificationRepository) Clear(ctx context.Context, recipientID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `DELETE FROM notifications WHERE recipient_id = $1`, recipientID)
	if err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}

	return nil
}

// CountUnread returns the recipient's unread notification count.
func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM notifications
        WHERE recipient_id = $1 AND read = FALSE
    `, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return count, nil
}

var _ BlogRepository = (*PostgresBlogRepository)(nil)
var _ NotificationRepository = (*PostgresNotificationRepository)(nil)

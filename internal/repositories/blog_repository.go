package repositories

import (
	"context"

	"github.com/inkcircle/backend/internal/models"
)

// BlogRepository defines data access for published content and its
// engagement records.
type BlogRepository interface {
	// Create inserts the blog. ErrConflict signals the slug lost a race to a
	// concurrent writer; callers re-derive the slug and retry.
	Create(ctx context.Context, blog models.Blog) error
	// Update rewrites mutable fields. ErrConflict carries the same slug
	// semantics as Create.
	Update(ctx context.Context, blog models.Blog) error
	FindByID(ctx context.Context, id string) (models.Blog, error)
	FindBySlug(ctx context.Context, slug string) (models.Blog, error)
	Delete(ctx context.Context, id string) error
	ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]models.Blog, error)
	SlugExists(ctx context.Context, slug string) (bool, error)

	CreateComment(ctx context.Context, comment models.Comment) error
	ListComments(ctx context.Context, blogID string, offset, limit int) ([]models.Comment, error)
	// CreateLike is idempotent; the bool reports whether a new like landed.
	CreateLike(ctx context.Context, like models.Like) (bool, error)
	DeleteLike(ctx context.Context, userID, blogID string) error
	CountLikes(ctx context.Context, blogID string) (int64, error)
}

// NotificationRepository defines data access for recipient-addressed
// notification records.
type NotificationRepository interface {
	// Create inserts the notification unless one already exists for the same
	// (event, recipient) pair. The bool reports whether a row was written.
	Create(ctx context.Context, notification models.Notification) (bool, error)
	ListForUser(ctx context.Context, recipientID string, offset, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	Clear(ctx context.Context, recipientID string) error
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

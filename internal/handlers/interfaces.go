package handlers

import (
	"context"
	"io"

	"github.com/inkcircle/backend/internal/access"
	"github.com/inkcircle/backend/internal/blogs"
	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/relationships"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByHandle(ctx context.Context, handle string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, validates, and retires authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Validate(ctx context.Context, accessToken string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, token string) error
}

// RelationshipService captures the graph operations exposed over HTTP.
type RelationshipService interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	Followers(ctx context.Context, userID string, page, limit int) ([]models.User, error)
	Following(ctx context.Context, userID string, page, limit int) ([]models.User, error)
	RequestConnection(ctx context.Context, requesterID, recipientID string) (models.Connection, error)
	RespondToConnection(ctx context.Context, actorID, connectionID string, decision relationships.Decision) (models.Connection, error)
	RemoveConnection(ctx context.Context, actorID, connectionID string) error
	Connections(ctx context.Context, userID string, status models.ConnectionStatus, page, limit int) ([]models.Connection, error)
	Stats(ctx context.Context, userID string) (models.RelationshipStats, error)
}

// BlogService captures the content operations exposed over HTTP.
type BlogService interface {
	Create(ctx context.Context, authorID, title, body string, privacy models.PrivacyTier) (models.Blog, error)
	UpdateBlog(ctx context.Context, actorID, blogID string, upd blogs.Update) (models.Blog, error)
	Delete(ctx context.Context, actorID, blogID string) error
	View(ctx context.Context, viewerID, blogSlug string) (models.Blog, access.Decision, error)
	ListByAuthor(ctx context.Context, viewerID, authorID string, page, limit int) ([]models.Blog, error)
	Comment(ctx context.Context, actorID, blogID, body string) (models.Comment, error)
	Comments(ctx context.Context, viewerID, blogID string, page, limit int) ([]models.Comment, error)
	Like(ctx context.Context, actorID, blogID string) error
	Unlike(ctx context.Context, actorID, blogID string) error
}

// InboxService captures the notification operations exposed over HTTP.
type InboxService interface {
	List(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	Clear(ctx context.Context, recipientID string) error
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
}

// ImageStore persists uploaded cover images and returns a public location.
type ImageStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

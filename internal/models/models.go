package models

import "time"

// User represents an account within the Inkcircle platform. The ID is
// immutable once created; the handle is unique case-insensitively.
type User struct {
	ID          string
	Handle      string
	DisplayName string
	Email       string
	Password    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FollowEdge records that a user follows another. Existence is the whole
// state: there is no pending phase and no reciprocity implied.
type FollowEdge struct {
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

// ConnectionStatus enumerates the lifecycle of a connection between two users.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Valid reports whether the status is one of the known lifecycle values.
func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionPending, ConnectionAccepted, ConnectionRejected:
		return true
	}
	return false
}

// Connection represents the mutual-acceptance workflow between two users.
// The requester/recipient roles matter while pending; once accepted the
// relationship is symmetric. At most one record exists per unordered pair.
type Connection struct {
	ID          string
	RequesterID string
	RecipientID string
	Status      ConnectionStatus
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// Involves reports whether the given user is either party of the connection.
func (c Connection) Involves(userID string) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}

// Other returns the counterparty for the given user, or "" when the user is
// not a party.
func (c Connection) Other(userID string) string {
	switch userID {
	case c.RequesterID:
		return c.RecipientID
	case c.RecipientID:
		return c.RequesterID
	}
	return ""
}

// PrivacyTier controls who may view a blog. Unknown values are treated as
// private by the access resolver.
type PrivacyTier string

const (
	PrivacyPublic      PrivacyTier = "public"
	PrivacyFollowers   PrivacyTier = "followers"
	PrivacyConnections PrivacyTier = "connections"
	PrivacyPrivate     PrivacyTier = "private"
)

// Valid reports whether the tier is one of the four known levels.
func (p PrivacyTier) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyFollowers, PrivacyConnections, PrivacyPrivate:
		return true
	}
	return false
}

// Blog is a published content item. The slug is unique across all blogs and
// stable for as long as the title does not change.
type Blog struct {
	ID        string
	AuthorID  string
	Title     string
	Slug      string
	Body      string
	CoverURL  string
	Privacy   PrivacyTier
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a reader remark attached to a blog.
type Comment struct {
	ID        string
	BlogID    string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// Like marks a user's appreciation of a blog; at most one per (user, blog).
type Like struct {
	UserID    string
	BlogID    string
	CreatedAt time.Time
}

// Notification is addressed to a single recipient and created exactly once
// per triggering event. Only the Read flag is ever mutated.
type Notification struct {
	ID          string
	RecipientID string
	SenderID    string
	Kind        string
	BlogID      string
	EventID     string
	Read        bool
	CreatedAt   time.Time
}

// RelationshipStats aggregates the counts shown on a profile page.
type RelationshipStats struct {
	Followers   int64
	Following   int64
	Connections int64
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

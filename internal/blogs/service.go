package blogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkcircle/backend/internal/access"
	"github.com/inkcircle/backend/internal/events"
	"github.com/inkcircle/backend/internal/logging"
	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/repositories"
	"github.com/inkcircle/backend/internal/slug"
)

var (
	// ErrNotFound indicates the blog does not exist.
	ErrNotFound = errors.New("blog not found")
	// ErrForbidden indicates the actor does not own the blog.
	ErrForbidden = errors.New("actor is not the blog author")
	// ErrTitleRequired indicates a blog create or rename without a title.
	ErrTitleRequired = errors.New("blog title is required")
	// ErrInvalidPrivacy indicates an unrecognized privacy tier on a write.
	ErrInvalidPrivacy = errors.New("unknown privacy tier")
)

// Update carries the mutable blog fields; nil pointers leave a field untouched.
type Update struct {
	Title    *string
	Body     *string
	CoverURL *string
	Privacy  *models.PrivacyTier
}

// Service owns the content lifecycle: slug assignment on create and rename,
// the access gate on reads, and engagement events on comments and likes.
type Service struct {
	repo     repositories.BlogRepository
	resolver *access.Resolver
	slugs    *slug.Generator
	bus      events.Publisher
	now      func() time.Time
}

// NewService wires the content service over its store, resolver, and bus.
func NewService(repo repositories.BlogRepository, resolver *access.Resolver, bus events.Publisher) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		slugs:    slug.NewGenerator(repo),
		bus:      bus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// slugInsertAttempts bounds the insert-retry loop when the advisory slug
// probe loses to concurrent writers. The DB unique index is authoritative.
const slugInsertAttempts = 20

// Create publishes a new blog, deriving a collision-free slug from the title.
func (s *Service) Create(ctx context.Context, authorID, title, body string, privacy models.PrivacyTier) (models.Blog, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Blog{}, ErrTitleRequired
	}
	if privacy == "" {
		privacy = models.PrivacyPrivate
	}
	if !privacy.Valid() {
		return models.Blog{}, ErrInvalidPrivacy
	}

	candidate, err := s.slugs.Generate(ctx, title)
	if err != nil {
		return models.Blog{}, err
	}

	now := s.now()
	blog := models.Blog{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		Privacy:   privacy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 0; attempt < slugInsertAttempts; attempt++ {
		blog.Slug = candidate
		err := s.repo.Create(ctx, blog)
		if err == nil {
			return blog, nil
		}
		if !errors.Is(err, repositories.ErrConflict) {
			return models.Blog{}, fmt.Errorf("insert blog: %w", err)
		}

		// Lost the slug race; re-derive the next candidate and retry.
		candidate, err = s.slugs.NextAfter(ctx, title, candidate)
		if err != nil {
			return models.Blog{}, err
		}
	}

	return models.Blog{}, slug.ErrExhausted
}

// UpdateBlog applies the author's changes. The slug is regenerated only when
// the title actually changes; editing the body never moves a published URL.
func (s *Service) UpdateBlog(ctx context.Context, actorID, blogID string, upd Update) (models.Blog, error) {
	blog, err := s.load(ctx, blogID)
	if err != nil {
		return models.Blog{}, err
	}
	if blog.AuthorID != actorID {
		return models.Blog{}, ErrForbidden
	}

	retitled := false
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return models.Blog{}, ErrTitleRequired
		}
		if title != blog.Title {
			blog.Title = title
			retitled = true
		}
	}
	if upd.Body != nil {
		blog.Body = *upd.Body
	}
	if upd.CoverURL != nil {
		blog.CoverURL = *upd.CoverURL
	}
	if upd.Privacy != nil {
		if !upd.Privacy.Valid() {
			return models.Blog{}, ErrInvalidPrivacy
		}
		blog.Privacy = *upd.Privacy
	}
	blog.UpdatedAt = s.now()

	if !retitled {
		if err := s.repo.Update(ctx, blog); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return models.Blog{}, ErrNotFound
			}
			return models.Blog{}, fmt.Errorf("update blog: %w", err)
		}
		return blog, nil
	}

	candidate, err := s.slugs.Generate(ctx, blog.Title)
	if err != nil {
		return models.Blog{}, err
	}

	for attempt := 0; attempt < slugInsertAttempts; attempt++ {
		blog.Slug = candidate
		err := s.repo.Update(ctx, blog)
		if err == nil {
			return blog, nil
		}
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return models.Blog{}, ErrNotFound
		case errors.Is(err, repositories.ErrConflict):
			candidate, err = s.slugs.NextAfter(ctx, blog.Title, candidate)
			if err != nil {
				return models.Blog{}, err
			}
		default:
			return models.Blog{}, fmt.Errorf("update blog: %w", err)
		}
	}

	return models.Blog{}, slug.ErrExhausted
}

// Delete removes the author's blog.
func (s *Service) Delete(ctx context.Context, actorID, blogID string) error {
	blog, err := s.load(ctx, blogID)
	if err != nil {
		return err
	}
	if blog.AuthorID != actorID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, blogID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete blog: %w", err)
	}

	return nil
}

// View fetches a blog by slug and evaluates the viewer's access. The blog is
// returned only alongside an allowing decision.
func (s *Service) View(ctx context.Context, viewerID, blogSlug string) (models.Blog, access.Decision, error) {
	blog, err := s.repo.FindBySlug(ctx, blogSlug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Blog{}, access.Decision{}, ErrNotFound
		}
		return models.Blog{}, access.Decision{}, fmt.Errorf("load blog: %w", err)
	}

	decision, err := s.resolver.CanView(ctx, viewerID, blog)
	if err != nil {
		return models.Blog{}, decision, err
	}
	if !decision.Allowed {
		return models.Blog{}, decision, nil
	}

	return blog, decision, nil
}

// ListByAuthor returns the author's blogs the viewer is allowed to see. All
// items share the same (viewer, author) pair, so the privacy filter costs at
// most one graph probe.
func (s *Service) ListByAuthor(ctx context.Context, viewerID, authorID string, page, limit int) ([]models.Blog, error) {
	offset, limit := normalizePage(page, limit)
	all, err := s.repo.ListByAuthor(ctx, authorID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}

	visible := make([]models.Blog, 0, len(all))
	for _, blog := range all {
		decision, err := s.resolver.CanView(ctx, viewerID, blog)
		if err != nil {
			return nil, err
		}
		if decision.Allowed {
			visible = append(visible, blog)
		}
	}

	return visible, nil
}

// Comment attaches a remark to a blog the actor can view and notifies the author.
func (s *Service) Comment(ctx context.Context, actorID, blogID, body string) (models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Comment{}, errors.New("comment body is required")
	}

	blog, err := s.viewableByID(ctx, actorID, blogID)
	if err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		BlogID:    blog.ID,
		AuthorID:  actorID,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}

	// Commenting on your own blog is not news to you.
	if actorID != blog.AuthorID {
		s.publish(ctx, events.New(events.KindNewComment, actorID, blog.AuthorID).WithBlog(blog.ID))
	}

	return comment, nil
}

// Comments lists a blog's comments for a viewer with access.
func (s *Service) Comments(ctx context.Context, viewerID, blogID string, page, limit int) ([]models.Comment, error) {
	if _, err := s.viewableByID(ctx, viewerID, blogID); err != nil {
		return nil, err
	}

	offset, limit := normalizePage(page, limit)
	comments, err := s.repo.ListComments(ctx, blogID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Like records the actor's like. Liking twice is a no-op; the NewLike event
// fires only when a like actually lands, and never for the author's own blog.
func (s *Service) Like(ctx context.Context, actorID, blogID string) error {
	blog, err := s.viewableByID(ctx, actorID, blogID)
	if err != nil {
		return err
	}

	created, err := s.repo.CreateLike(ctx, models.Like{
		UserID:    actorID,
		BlogID:    blog.ID,
		CreatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("insert like: %w", err)
	}

	if created && actorID != blog.AuthorID {
		s.publish(ctx, events.New(events.KindNewLike, actorID, blog.AuthorID).WithBlog(blog.ID))
	}

	return nil
}

// Unlike removes the actor's like; removing an absent like succeeds.
func (s *Service) Unlike(ctx context.Context, actorID, blogID string) error {
	if err := s.repo.DeleteLike(ctx, actorID, blogID); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, blogID string) (models.Blog, error) {
	blog, err := s.repo.FindByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Blog{}, ErrNotFound
		}
		return models.Blog{}, fmt.Errorf("load blog: %w", err)
	}
	return blog, nil
}

// viewableByID loads a blog and enforces the access gate. Denials surface as
// ErrNotFound so engagement endpoints do not leak the existence of content
// the actor cannot see.
func (s *Service) viewableByID(ctx context.Context, viewerID, blogID string) (models.Blog, error) {
	blog, err := s.load(ctx, blogID)
	if err != nil {
		return models.Blog{}, err
	}

	decision, err := s.resolver.CanView(ctx, viewerID, blog)
	if err != nil {
		return models.Blog{}, err
	}
	if !decision.Allowed {
		return models.Blog{}, ErrNotFound
	}

	return blog, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Error("publish content event",
			"kind", event.Kind, "event_id", event.ID, "error", err)
	}
}

func normalizePage(page, limit int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}

package notifications

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

// ErrNotFound indicates the notification does not exist for the recipient.
var ErrNotFound = errors.New("notification not found")

// deliverable lists the event kinds that materialize as inbox entries. Events
// outside this set are dropped without logging; other subscribers may care
// about them even when the inbox does not.
var deliverable = map[events.Kind]struct{}{
	events.KindNewFollower:         {},
	events.KindConnectionRequested: {},
	events.KindConnectionAccepted:  {},
	events.KindNewComment:          {},
	events.KindNewLike:             {},
}

// Dispatcher consumes domain events from the bus and writes one notification
// per (event, recipient) pair. Redelivered events deduplicate in the store.
type Dispatcher struct {
	repo repositories.NotificationRepository
	now  func() time.Time
}

// NewDispatcher returns a dispatcher writing to the given store.
func NewDispatcher(repo repositories.NotificationRepository) *Dispatcher {
	return &Dispatcher{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Attach subscribes the dispatcher to the bus.
func (d *Dispatcher) Attach(bus events.Bus) error {
	return bus.Subscribe(d.Handle)
}

// Handle converts a single event into a notification. Delivery is best
// effort: failures are logged and never propagate to the publisher.
func (d *Dispatcher) Handle(ctx context.Context, event events.Event) {
	if _, ok := deliverable[event.Kind]; !ok {
		return
	}
	if event.RecipientID == "" || event.RecipientID == event.ActorID {
		return
	}

	created, err := d.repo.Create(ctx, models.Notification{
		ID:          uuid.NewString(),
		RecipientID: event.RecipientID,
		SenderID:    event.ActorID,
		Kind:        string(event.Kind),
		BlogID:      event.BlogID,
		EventID:     event.ID,
		CreatedAt:   d.now(),
	})
	if err != nil {
		logging.FromContext(ctx).Error("store notification",
			"kind", event.Kind, "event_id", event.ID, "recipient_id", event.RecipientID, "error", err)
		return
	}
	if !created {
		logging.FromContext(ctx).Debug("duplicate event delivery suppressed",
			"kind", event.Kind, "event_id", event.ID, "recipient_id", event.RecipientID)
	}
}

// Service exposes the recipient-facing inbox operations.
type Service struct {
	repo repositories.NotificationRepository
}

// NewService returns an inbox service over the given store.
func NewService(repo repositories.NotificationRepository) *Service {
	return &Service{repo: repo}
}

// List returns a page of the recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}

	items, err := s.repo.ListForUser(ctx, recipientID, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// MarkRead flags a single notification as read.
func (s *Service) MarkRead(ctx context.Context, recipientID, id string) error {
	if err := s.repo.MarkRead(ctx, recipientID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flags every unread notification for the recipient.
func (s *Service) MarkAllRead(ctx context.Context, recipientID string) error {
	if err := s.repo.MarkAllRead(ctx, recipientID); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// Clear deletes the recipient's notifications.
func (s *Service) Clear(ctx context.Context, recipientID string) error {
	if err := s.repo.Clear(ctx, recipientID); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

// UnreadCount reports how many notifications await the recipient.
func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

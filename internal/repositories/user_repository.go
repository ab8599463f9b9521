package repositories

import (
	"context"

	"github.com/inkcircle/backend/internal/models"
)

// UserRepository defines data access for accounts in the identity store.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByHandle(ctx context.Context, handle string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

package dog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a dog does not exist or belongs to another
// owner. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("dog not found")

type Repository interface {
	Create(ctx context.Context, d *Dog) error
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*Dog, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Dog, int, error)
	ListWithReminders(ctx context.Context) ([]*Dog, error)
	Update(ctx context.Context, d *Dog) error
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

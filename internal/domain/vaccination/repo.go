package vaccination

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned when a vaccination record does not exist
// under the given dog.
var ErrRecordNotFound = errors.New("vaccination record not found")

type VaccineRepository interface {
	List(ctx context.Context) ([]*Vaccine, error)
	Upsert(ctx context.Context, v *Vaccine) error
}

type RecordRepository interface {
	Create(ctx context.Context, r *Record) error
	ListByDog(ctx context.Context, dogID uuid.UUID) ([]*Record, error)
	Delete(ctx context.Context, dogID, id uuid.UUID) error
}

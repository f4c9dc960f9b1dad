package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoPreference is returned when an owner has no stored preference row.
var ErrNoPreference = errors.New("reminder preference not found")

type PreferenceRepository interface {
	GetByOwner(ctx context.Context, ownerID string) (*Preference, error)
	Upsert(ctx context.Context, p *Preference) error
}

type LogRepository interface {
	// Claim inserts e only if no row with the same dedup key was written
	// within resendInterval. It returns false when the insert was suppressed.
	// The insert and the recency check are one statement, so concurrent
	// runners cannot both claim the same reminder.
	Claim(ctx context.Context, e *LogEntry, resendInterval time.Duration) (bool, error)
	// Release removes a claimed row after a failed dispatch so the next run
	// retries the send.
	Release(ctx context.Context, id uuid.UUID) error
}

// Package reminder holds per-owner notification preferences, the append-only
// dispatch log that deduplicates sends, and the batch runner that walks every
// enabled subject and emails upcoming or overdue doses.
package reminder

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLeadTimeDays        = 7
	DefaultResendIntervalHours = 24
	MaxLeadTimeDays            = 90
)

// Preference is one owner's reminder settings. A single row covers all of
// that owner's dogs.
type Preference struct {
	OwnerID             string    `db:"owner_id" json:"owner_id"`
	Enabled             bool      `db:"enabled" json:"enabled"`
	LeadTimeDays        int       `db:"lead_time_days" json:"lead_time_days"`
	ResendIntervalHours int       `db:"resend_interval_hours" json:"resend_interval_hours"`
	Email               string    `db:"email" json:"email,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ResendInterval returns the dedup window as a duration.
func (p *Preference) ResendInterval() time.Duration {
	return time.Duration(p.ResendIntervalHours) * time.Hour
}

// LogEntry is one dispatched reminder. Rows are append-only; the claim query
// uses (owner, dog, vaccine, dose, scheduled date, sent_at) to suppress
// repeats within the resend interval.
type LogEntry struct {
	ID            uuid.UUID `db:"id" json:"id"`
	OwnerID       string    `db:"owner_id" json:"owner_id"`
	DogID         uuid.UUID `db:"dog_id" json:"dog_id"`
	VaccineID     string    `db:"vaccine_id" json:"vaccine_id"`
	DoseNumber    int       `db:"dose_number" json:"dose_number"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	SentAt        time.Time `db:"sent_at" json:"sent_at"`
}

// Package vaccination owns the administered-dose records, the vaccine
// reference table and the schedule orchestration that ties the pure engine
// to stored dogs and their histories.
package vaccination

import (
	"time"

	"github.com/google/uuid"
)

// Vaccine is the database mirror of a catalog entry, maintained by the
// `catalog load` command and served on the public vaccine listing.
type Vaccine struct {
	ID                 string   `db:"id" json:"id"`
	Name               string   `db:"name" json:"name"`
	Category           string   `db:"category" json:"category"`
	Class              string   `db:"class" json:"class"`
	Description        string   `db:"description" json:"description,omitempty"`
	SideEffectsCommon  []string `db:"side_effects_common" json:"side_effects_common,omitempty"`
	SideEffectsSeekVet []string `db:"side_effects_seek_vet" json:"side_effects_seek_vet,omitempty"`
}

// Record is one administered dose, maps to the vaccination_records table.
type Record struct {
	ID               uuid.UUID `db:"id" json:"id"`
	DogID            uuid.UUID `db:"dog_id" json:"dog_id"`
	VaccineID        string    `db:"vaccine_id" json:"vaccine_id"`
	DateAdministered time.Time `db:"date_administered" json:"date_administered"`
	DoseNumber       *int      `db:"dose_number" json:"dose_number,omitempty"`
	Veterinarian     *string   `db:"veterinarian" json:"veterinarian,omitempty"`
	Clinic           *string   `db:"clinic" json:"clinic,omitempty"`
	LotNumber        *string   `db:"lot_number" json:"lot_number,omitempty"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

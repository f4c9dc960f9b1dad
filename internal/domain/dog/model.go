// Package dog holds the patient records of the product: one row per dog,
// owned by the account that created it, carrying the lifestyle flags and
// health context the scheduling and contraindication engines consume.
package dog

import (
	"time"

	"github.com/google/uuid"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/contraindication"
)

// Dog maps to the dogs table.
type Dog struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	Breed     *string   `db:"breed" json:"breed,omitempty"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
	Sex       *string   `db:"sex" json:"sex,omitempty"`
	WeightKG  *float64  `db:"weight_kg" json:"weight_kg,omitempty"`

	// Lifestyle flags drive which non-core vaccines are elected.
	GoesToDaycare  bool `db:"goes_to_daycare" json:"goes_to_daycare"`
	VisitsDogParks bool `db:"visits_dog_parks" json:"visits_dog_parks"`
	Travels        bool `db:"travels" json:"travels"`
	TickExposure   bool `db:"tick_exposure" json:"tick_exposure"`

	// Health context feeds the contraindication evaluator.
	Conditions  []string            `db:"conditions" json:"conditions,omitempty"`
	Medications map[string][]string `db:"medications" json:"medications,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NoncoreSelections derives the elected non-core vaccine ids from the dog's
// lifestyle flags. Social exposure (daycare, dog parks, travel) elects the
// kennel-cough and canine influenza vaccines; tick exposure elects Lyme.
func (d *Dog) NoncoreSelections() []string {
	var selected []string
	if d.GoesToDaycare || d.VisitsDogParks || d.Travels {
		selected = append(selected, "noncore_bord_in", "noncore_flu")
	}
	if d.TickExposure {
		selected = append(selected, "noncore_lyme")
	}
	return selected
}

// HealthContext converts the stored conditions and medications into the
// contraindication evaluator's input.
func (d *Dog) HealthContext() contraindication.HealthContext {
	return contraindication.HealthContext{
		Conditions:  d.Conditions,
		Medications: d.Medications,
	}
}

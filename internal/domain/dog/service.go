package dog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/contraindication"
)

type Service struct {
	dogs Repository
}

func NewService(dogs Repository) *Service {
	return &Service{dogs: dogs}
}

var validSexes = map[string]bool{"male": true, "female": true}

func (s *Service) validate(d *Dog) error {
	if d.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.BirthDate.IsZero() {
		return fmt.Errorf("birth_date is required")
	}
	if d.BirthDate.After(time.Now()) {
		return fmt.Errorf("birth_date cannot be in the future")
	}
	if d.Sex != nil && !validSexes[*d.Sex] {
		return fmt.Errorf("invalid sex: %s", *d.Sex)
	}
	if d.WeightKG != nil && *d.WeightKG <= 0 {
		return fmt.Errorf("weight_kg must be positive")
	}
	for _, c := range d.Conditions {
		if !contraindication.ValidCondition(c) {
			return fmt.Errorf("unknown condition: %s", c)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, d *Dog) error {
	if err := s.validate(d); err != nil {
		return err
	}
	return s.dogs.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, ownerID string, id uuid.UUID) (*Dog, error) {
	return s.dogs.GetByID(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]*Dog, int, error) {
	return s.dogs.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *Service) Update(ctx context.Context, d *Dog) error {
	if err := s.validate(d); err != nil {
		return err
	}
	return s.dogs.Update(ctx, d)
}

func (s *Service) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	return s.dogs.Delete(ctx, ownerID, id)
}

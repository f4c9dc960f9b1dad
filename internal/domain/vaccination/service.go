package vaccination

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/catalog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/contraindication"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/dog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/metrics"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/scheduling"
)

type Service struct {
	dogs       dog.Repository
	vaccines   VaccineRepository
	records    RecordRepository
	gen        *scheduling.Generator
	windowDays int
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

func NewService(dogs dog.Repository, vaccines VaccineRepository, records RecordRepository,
	gen *scheduling.Generator, windowDays int, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		dogs:       dogs,
		vaccines:   vaccines,
		records:    records,
		gen:        gen,
		windowDays: windowDays,
		metrics:    m,
		log:        log,
	}
}

func (s *Service) ListVaccines(ctx context.Context) ([]*Vaccine, error) {
	return s.vaccines.List(ctx)
}

// SyncVaccines upserts every catalog entry into the vaccines reference table.
// Run by `catalog load` after validation.
func (s *Service) SyncVaccines(ctx context.Context, cat *catalog.Catalog) error {
	for _, def := range cat.Vaccines() {
		v := &Vaccine{
			ID:                 def.ID,
			Name:               def.Name,
			Category:           string(def.Category),
			Class:              string(def.Class),
			Description:        def.Description,
			SideEffectsCommon:  def.SideEffects.Common,
			SideEffectsSeekVet: def.SideEffects.SeekVetIf,
		}
		if err := s.vaccines.Upsert(ctx, v); err != nil {
			return fmt.Errorf("upsert vaccine %s: %w", def.ID, err)
		}
	}
	return nil
}

func (s *Service) validateRecord(d *dog.Dog, rec *Record) error {
	if rec.VaccineID == "" {
		return fmt.Errorf("vaccine_id is required")
	}
	if _, ok := s.gen.Catalog().Get(rec.VaccineID); !ok {
		return fmt.Errorf("unknown vaccine: %s", rec.VaccineID)
	}
	if rec.DateAdministered.IsZero() {
		return fmt.Errorf("date_administered is required")
	}
	if rec.DateAdministered.Before(d.BirthDate) {
		return fmt.Errorf("date_administered cannot precede the dog's birth date")
	}
	if rec.DateAdministered.After(time.Now()) {
		return fmt.Errorf("date_administered cannot be in the future")
	}
	if rec.DoseNumber != nil && *rec.DoseNumber < 1 {
		return fmt.Errorf("dose_number must be positive")
	}
	return nil
}

func (s *Service) CreateRecord(ctx context.Context, ownerID string, rec *Record) error {
	d, err := s.dogs.GetByID(ctx, ownerID, rec.DogID)
	if err != nil {
		return err
	}
	if err := s.validateRecord(d, rec); err != nil {
		return err
	}
	return s.records.Create(ctx, rec)
}

func (s *Service) ListRecords(ctx context.Context, ownerID string, dogID uuid.UUID) ([]*Record, error) {
	if _, err := s.dogs.GetByID(ctx, ownerID, dogID); err != nil {
		return nil, err
	}
	return s.records.ListByDog(ctx, dogID)
}

func (s *Service) DeleteRecord(ctx context.Context, ownerID string, dogID, recordID uuid.UUID) error {
	if _, err := s.dogs.GetByID(ctx, ownerID, dogID); err != nil {
		return err
	}
	return s.records.Delete(ctx, dogID, recordID)
}

// buildHistory merges stored records with inline entries from the request
// body. Stored records are always parseable; inline entries are validated
// here, and malformed ones are dropped with a warning instead of failing
// the whole computation.
func (s *Service) buildHistory(records []*Record, inline []HistoryEntry) ([]scheduling.DoseEvent, []string) {
	history := make([]scheduling.DoseEvent, 0, len(records)+len(inline))
	for _, rec := range records {
		history = append(history, scheduling.DoseEvent{
			VaccineID: rec.VaccineID,
			Date:      rec.DateAdministered,
		})
	}

	var warnings []string
	for i, e := range inline {
		if e.VaccineID == "" {
			warnings = append(warnings, fmt.Sprintf("history entry %d: missing vaccine_id, skipped", i))
			continue
		}
		if _, ok := s.gen.Catalog().Get(e.VaccineID); !ok {
			warnings = append(warnings, fmt.Sprintf("history entry %d: unknown vaccine %q, skipped", i, e.VaccineID))
			continue
		}
		date, err := time.Parse(scheduling.DateLayout, e.Date)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("history entry %d: invalid date %q, skipped", i, e.Date))
			continue
		}
		history = append(history, scheduling.DoseEvent{VaccineID: e.VaccineID, Date: date})
	}
	return history, warnings
}

// ComputeSchedule loads the dog and its records, runs the full engine pass
// and aggregates the result. Handlers contain no scheduling logic.
func (s *Service) ComputeSchedule(ctx context.Context, ownerID string, dogID uuid.UUID, opts ScheduleOptions) (*ScheduleResult, error) {
	d, err := s.dogs.GetByID(ctx, ownerID, dogID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListByDog(ctx, dogID)
	if err != nil {
		return nil, err
	}

	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	history, warnings := s.buildHistory(records, opts.History)

	selections := opts.SelectedNoncore
	if selections == nil {
		selections = d.NoncoreSelections()
	}

	items, err := s.gen.Calculate(d.BirthDate, selections, history, asOf)
	if err != nil {
		return nil, err
	}
	stage, err := scheduling.Classify(d.BirthDate, asOf)
	if err != nil {
		return nil, err
	}

	schedule := make([]ScheduleItem, 0, len(items))
	for _, it := range items {
		schedule = append(schedule, toScheduleItem(it))
	}
	categorized := scheduling.Categorize(items, asOf, s.windowDays)

	hc := d.HealthContext()
	contra := make(map[string][]contraindication.Finding)
	for _, it := range items {
		if _, done := contra[it.VaccineID]; done {
			continue
		}
		def, ok := s.gen.Catalog().Get(it.VaccineID)
		if !ok {
			continue
		}
		if findings := contraindication.Evaluate(it.VaccineID, def.Class, hc); len(findings) > 0 {
			contra[it.VaccineID] = findings
		}
	}
	if len(contra) == 0 {
		contra = nil
	}

	if s.metrics != nil {
		s.metrics.ScheduleComputations.Inc()
	}
	s.log.Debug().
		Str("dog_id", dogID.String()).
		Int("items", len(items)).
		Int("history", len(history)).
		Msg("schedule computed")

	return &ScheduleResult{
		Dog:       d,
		AsOf:      asOf.Format(scheduling.DateLayout),
		AgeWeeks:  scheduling.AgeInWeeks(d.BirthDate, asOf),
		LifeStage: string(stage),
		Schedule:  schedule,
		Categorized: CategorizedSchedule{
			Overdue:  toCategorizedItems(categorized.Overdue),
			Upcoming: toCategorizedItems(categorized.Upcoming),
			Future:   toCategorizedItems(categorized.Future),
		},
		Analysis:          s.gen.AnalyzeHistory(d.BirthDate, history),
		Contraindications: contra,
		Warnings:          warnings,
	}, nil
}

// AnalyzeHistory runs only the history consistency pass over the stored
// records.
func (s *Service) AnalyzeHistory(ctx context.Context, ownerID string, dogID uuid.UUID) (string, error) {
	d, err := s.dogs.GetByID(ctx, ownerID, dogID)
	if err != nil {
		return "", err
	}
	records, err := s.records.ListByDog(ctx, dogID)
	if err != nil {
		return "", err
	}
	history, _ := s.buildHistory(records, nil)
	return s.gen.AnalyzeHistory(d.BirthDate, history), nil
}

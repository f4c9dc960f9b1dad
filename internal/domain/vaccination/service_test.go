package vaccination

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/catalog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/contraindication"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/dog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/scheduling"
)

// =========== Mock Repositories ===========

type mockDogRepo struct {
	store map[uuid.UUID]*dog.Dog
}

func newMockDogRepo() *mockDogRepo {
	return &mockDogRepo{store: make(map[uuid.UUID]*dog.Dog)}
}

func (m *mockDogRepo) Create(_ context.Context, d *dog.Dog) error {
	d.ID = uuid.New()
	m.store[d.ID] = d
	return nil
}

func (m *mockDogRepo) GetByID(_ context.Context, ownerID string, id uuid.UUID) (*dog.Dog, error) {
	d, ok := m.store[id]
	if !ok || d.OwnerID != ownerID {
		return nil, dog.ErrNotFound
	}
	return d, nil
}

func (m *mockDogRepo) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]*dog.Dog, int, error) {
	var result []*dog.Dog
	for _, d := range m.store {
		if d.OwnerID == ownerID {
			result = append(result, d)
		}
	}
	return result, len(result), nil
}

func (m *mockDogRepo) ListWithReminders(_ context.Context) ([]*dog.Dog, error) {
	var result []*dog.Dog
	for _, d := range m.store {
		result = append(result, d)
	}
	return result, nil
}

func (m *mockDogRepo) Update(_ context.Context, d *dog.Dog) error {
	if _, ok := m.store[d.ID]; !ok {
		return dog.ErrNotFound
	}
	m.store[d.ID] = d
	return nil
}

func (m *mockDogRepo) Delete(_ context.Context, ownerID string, id uuid.UUID) error {
	delete(m.store, id)
	return nil
}

type mockVaccineRepo struct {
	store map[string]*Vaccine
	order []string
}

func newMockVaccineRepo() *mockVaccineRepo {
	return &mockVaccineRepo{store: make(map[string]*Vaccine)}
}

func (m *mockVaccineRepo) List(_ context.Context) ([]*Vaccine, error) {
	var result []*Vaccine
	for _, id := range m.order {
		result = append(result, m.store[id])
	}
	return result, nil
}

func (m *mockVaccineRepo) Upsert(_ context.Context, v *Vaccine) error {
	if _, ok := m.store[v.ID]; !ok {
		m.order = append(m.order, v.ID)
	}
	m.store[v.ID] = v
	return nil
}

type mockRecordRepo struct {
	store map[uuid.UUID]*Record
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{store: make(map[uuid.UUID]*Record)}
}

func (m *mockRecordRepo) Create(_ context.Context, r *Record) error {
	r.ID = uuid.New()
	m.store[r.ID] = r
	return nil
}

func (m *mockRecordRepo) ListByDog(_ context.Context, dogID uuid.UUID) ([]*Record, error) {
	var result []*Record
	for _, r := range m.store {
		if r.DogID == dogID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockRecordRepo) Delete(_ context.Context, dogID, id uuid.UUID) error {
	r, ok := m.store[id]
	if !ok || r.DogID != dogID {
		return ErrRecordNotFound
	}
	delete(m.store, id)
	return nil
}

// =========== Helpers ===========

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.VaccineDefinition{
		{
			ID:                "core_dap",
			Name:              "DAP (Distemper, Adenovirus, Parvovirus)",
			Category:          catalog.Core,
			Class:             catalog.ClassModifiedLive,
			MinStartAgeWeeks:  6,
			FinalDoseAgeFloor: true,
			Rules: []catalog.AgeRule{
				{Condition: catalog.AgeAtMost, AgeWeeks: 16, Doses: 3, IntervalDays: 21, MinInterval: 14, MaxInterval: 28, InitialBoosterDays: 365},
				{Condition: catalog.AllAges, Doses: 2, IntervalDays: 21, MinInterval: 14, MaxInterval: 28, InitialBoosterDays: 365},
			},
		},
		{
			ID:               "core_rabies",
			Name:             "Rabies",
			Category:         catalog.Core,
			Class:            catalog.ClassKilled,
			MinStartAgeWeeks: 12,
			Rules: []catalog.AgeRule{
				{Condition: catalog.AllAges, Doses: 1, IntervalDays: 365, MinInterval: 334, MaxInterval: 1126, InitialBoosterDays: 365},
			},
		},
		{
			ID:               "noncore_lyme",
			Name:             "Lyme Disease",
			Category:         catalog.Noncore,
			Class:            catalog.ClassKilled,
			MinStartAgeWeeks: 9,
			Rules: []catalog.AgeRule{
				{Condition: catalog.AllAges, Doses: 2, IntervalDays: 21, MinInterval: 14, MaxInterval: 35, InitialBoosterDays: 365},
			},
		},
	})
	if err != nil {
		t.Fatalf("building test catalog: %v", err)
	}
	return cat
}

type testEnv struct {
	svc     *Service
	dogs    *mockDogRepo
	records *mockRecordRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dogs := newMockDogRepo()
	records := newMockRecordRepo()
	gen := scheduling.NewGenerator(testCatalog(t))
	svc := NewService(dogs, newMockVaccineRepo(), records, gen, 0, nil, zerolog.Nop())
	return &testEnv{svc: svc, dogs: dogs, records: records}
}

func (e *testEnv) addDog(t *testing.T, ownerID string, birth time.Time) *dog.Dog {
	t.Helper()
	d := &dog.Dog{OwnerID: ownerID, Name: "Rex", BirthDate: birth}
	if err := e.dogs.Create(context.Background(), d); err != nil {
		t.Fatalf("creating dog: %v", err)
	}
	return d
}

var asOf = time.Date(2025, time.December, 3, 0, 0, 0, 0, time.UTC)

// =========== Record Tests ===========

func TestCreateRecord_Success(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", time.Now().AddDate(-1, 0, 0))

	rec := &Record{DogID: d.ID, VaccineID: "core_rabies", DateAdministered: time.Now().AddDate(0, -1, 0)}
	if err := env.svc.CreateRecord(context.Background(), "owner-1", rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
}

func TestCreateRecord_DogNotOwned(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", time.Now().AddDate(-1, 0, 0))

	rec := &Record{DogID: d.ID, VaccineID: "core_rabies", DateAdministered: time.Now().AddDate(0, -1, 0)}
	if err := env.svc.CreateRecord(context.Background(), "owner-2", rec); err != dog.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRecord_UnknownVaccine(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", time.Now().AddDate(-1, 0, 0))

	rec := &Record{DogID: d.ID, VaccineID: "core_unicorn", DateAdministered: time.Now().AddDate(0, -1, 0)}
	if err := env.svc.CreateRecord(context.Background(), "owner-1", rec); err == nil {
		t.Fatal("expected error for unknown vaccine")
	}
}

func TestCreateRecord_DateBeforeBirth(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", time.Now().AddDate(-1, 0, 0))

	rec := &Record{DogID: d.ID, VaccineID: "core_rabies", DateAdministered: d.BirthDate.AddDate(0, 0, -1)}
	if err := env.svc.CreateRecord(context.Background(), "owner-1", rec); err == nil {
		t.Fatal("expected error for date before birth")
	}
}

func TestCreateRecord_FutureDate(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", time.Now().AddDate(-1, 0, 0))

	rec := &Record{DogID: d.ID, VaccineID: "core_rabies", DateAdministered: time.Now().AddDate(0, 0, 2)}
	if err := env.svc.CreateRecord(context.Background(), "owner-1", rec); err == nil {
		t.Fatal("expected error for future date")
	}
}

func TestDeleteRecord(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", time.Now().AddDate(-1, 0, 0))
	rec := &Record{DogID: d.ID, VaccineID: "core_rabies", DateAdministered: time.Now().AddDate(0, -1, 0)}
	env.svc.CreateRecord(context.Background(), "owner-1", rec)

	if err := env.svc.DeleteRecord(context.Background(), "owner-1", d.ID, rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, _ := env.svc.ListRecords(context.Background(), "owner-1", d.ID)
	if len(records) != 0 {
		t.Errorf("expected no records after delete, got %d", len(records))
	}
}

func TestDeleteRecord_NotFound(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", time.Now().AddDate(-1, 0, 0))

	if err := env.svc.DeleteRecord(context.Background(), "owner-1", d.ID, uuid.New()); err != ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

// =========== Vaccine Sync Tests ===========

func TestSyncVaccines(t *testing.T) {
	env := newTestEnv(t)
	if err := env.svc.SyncVaccines(context.Background(), testCatalog(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vaccines, err := env.svc.ListVaccines(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vaccines) != 3 {
		t.Fatalf("expected 3 vaccines, got %d", len(vaccines))
	}
	if vaccines[0].ID != "core_dap" {
		t.Errorf("expected catalog order preserved, got %s first", vaccines[0].ID)
	}
	if vaccines[0].Class != string(catalog.ClassModifiedLive) {
		t.Errorf("expected class carried over, got %q", vaccines[0].Class)
	}
}

// =========== Schedule Tests ===========

func TestComputeSchedule_Puppy(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -8*7))

	result, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID, ScheduleOptions{AsOf: asOf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.LifeStage != "puppy" {
		t.Errorf("expected puppy, got %s", result.LifeStage)
	}
	if result.AgeWeeks != 8 {
		t.Errorf("expected 8 weeks, got %d", result.AgeWeeks)
	}
	if len(result.Schedule) == 0 {
		t.Fatal("expected schedule items")
	}
	if result.Categorized.Overdue == nil && result.Categorized.Upcoming == nil && result.Categorized.Future == nil {
		t.Error("expected categorized buckets to be populated")
	}
	if result.Analysis == "" {
		t.Error("expected a history analysis message")
	}
}

func TestComputeSchedule_DogNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.ComputeSchedule(context.Background(), "owner-1", uuid.New(), ScheduleOptions{AsOf: asOf})
	if err != dog.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestComputeSchedule_BirthAfterAsOf(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, 7))

	_, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID, ScheduleOptions{AsOf: asOf})
	if err == nil || !strings.Contains(err.Error(), "birth date") {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestComputeSchedule_UsesStoredRecords(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -10*7))
	env.records.Create(context.Background(), &Record{
		DogID: d.ID, VaccineID: "core_dap", DateAdministered: asOf.AddDate(0, 0, -2*7),
	})

	result, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID, ScheduleOptions{AsOf: asOf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One DAP dose recorded, so the remaining series starts at dose 2.
	for _, it := range result.Schedule {
		if it.VaccineID == "core_dap" && it.DoseNumber == 1 {
			t.Errorf("dose 1 should not be rescheduled after a recorded dose")
		}
	}
}

func TestComputeSchedule_NoncoreFromLifestyle(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -20*7))
	d.TickExposure = true

	result, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID, ScheduleOptions{AsOf: asOf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, it := range result.Schedule {
		if it.VaccineID == "noncore_lyme" {
			found = true
		}
	}
	if !found {
		t.Error("expected lyme in schedule for tick-exposed dog")
	}
}

func TestComputeSchedule_NoncoreOverride(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -20*7))
	d.TickExposure = true

	// Explicit empty selection overrides the dog-derived election.
	result, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID,
		ScheduleOptions{AsOf: asOf, SelectedNoncore: []string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, it := range result.Schedule {
		if it.VaccineID == "noncore_lyme" {
			t.Error("explicit selection should suppress lifestyle-derived noncore")
		}
	}
}

func TestComputeSchedule_InlineHistory(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -10*7))

	opts := ScheduleOptions{
		AsOf: asOf,
		History: []HistoryEntry{
			{VaccineID: "core_dap", Date: asOf.AddDate(0, 0, -2*7).Format(scheduling.DateLayout)},
		},
	}
	result, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings for valid history, got %v", result.Warnings)
	}
	for _, it := range result.Schedule {
		if it.VaccineID == "core_dap" && it.DoseNumber == 1 {
			t.Errorf("dose 1 should not be rescheduled after an inline history dose")
		}
	}
}

func TestComputeSchedule_MalformedHistoryDropped(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -10*7))

	opts := ScheduleOptions{
		AsOf: asOf,
		History: []HistoryEntry{
			{VaccineID: "core_dap", Date: "not-a-date"},
			{VaccineID: "", Date: "2025-10-01"},
			{VaccineID: "core_unicorn", Date: "2025-10-01"},
		},
	}
	result, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID, opts)
	if err != nil {
		t.Fatalf("malformed history must not fail the computation: %v", err)
	}
	if len(result.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", result.Warnings)
	}
	// All entries were dropped, so the full DAP series is scheduled.
	dose1 := false
	for _, it := range result.Schedule {
		if it.VaccineID == "core_dap" && it.DoseNumber == 1 {
			dose1 = true
		}
	}
	if !dose1 {
		t.Error("expected full series after dropping malformed history")
	}
}

func TestComputeSchedule_Contraindications(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -8*7))
	d.Conditions = []string{contraindication.ConditionEpilepsy}

	result, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID, ScheduleOptions{AsOf: asOf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Contraindications["core_dap"]) == 0 {
		t.Error("expected epilepsy findings for core_dap")
	}
}

func TestComputeSchedule_NoContraindicationsForHealthyDog(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -8*7))

	result, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID, ScheduleOptions{AsOf: asOf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Contraindications != nil {
		t.Errorf("expected no contraindications, got %v", result.Contraindications)
	}
}

func TestComputeSchedule_DatesAreCivil(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -8*7))

	result, err := env.svc.ComputeSchedule(context.Background(), "owner-1", d.ID, ScheduleOptions{AsOf: asOf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AsOf != "2025-12-03" {
		t.Errorf("expected as_of 2025-12-03, got %s", result.AsOf)
	}
	for _, it := range result.Schedule {
		if _, err := time.Parse(scheduling.DateLayout, it.Date); err != nil {
			t.Errorf("item date %q is not YYYY-MM-DD", it.Date)
		}
	}
}

// =========== History Analysis Tests ===========

func TestAnalyzeHistory_NoRecords(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDog(t, "owner-1", asOf.AddDate(0, 0, -8*7))

	analysis, err := env.svc.AnalyzeHistory(context.Background(), "owner-1", d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis == "" {
		t.Error("expected an analysis message even with no records")
	}
}

func TestAnalyzeHistory_DogNotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.AnalyzeHistory(context.Background(), "owner-1", uuid.New()); err != dog.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

package reminder

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/catalog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/dog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/vaccination"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/notification"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/scheduling"
)

// =========== Mocks ===========

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
	m.store[d.ID] = d
	return nil
}

func (m *mockDogRepo) Delete(_ context.Context, ownerID string, id uuid.UUID) error {
	delete(m.store, id)
	return nil
}

type mockHistorySource struct {
	store map[uuid.UUID][]*vaccination.Record
}

func newMockHistorySource() *mockHistorySource {
	return &mockHistorySource{store: make(map[uuid.UUID][]*vaccination.Record)}
}

func (m *mockHistorySource) ListByDog(_ context.Context, dogID uuid.UUID) ([]*vaccination.Record, error) {
	return m.store[dogID], nil
}

// mockLogRepo applies the same recency rule as the SQL claim.
type mockLogRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*LogEntry
}

func newMockLogRepo() *mockLogRepo {
	return &mockLogRepo{entries: make(map[uuid.UUID]*LogEntry)}
}

func (m *mockLogRepo) Claim(_ context.Context, e *LogEntry, resendInterval time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-resendInterval)
	for _, existing := range m.entries {
		if existing.OwnerID == e.OwnerID && existing.DogID == e.DogID &&
			existing.VaccineID == e.VaccineID && existing.DoseNumber == e.DoseNumber &&
			existing.ScheduledDate.Equal(e.ScheduledDate) && existing.SentAt.After(cutoff) {
			return false, nil
		}
	}
	e.ID = uuid.New()
	e.SentAt = time.Now()
	stored := *e
	m.entries[e.ID] = &stored
	return true, nil
}

func (m *mockLogRepo) Release(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *mockLogRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// =========== Helpers ===========

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.VaccineDefinition{
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
	})
	if err != nil {
		t.Fatalf("building test catalog: %v", err)
	}
	return cat
}

type runnerEnv struct {
	runner *Runner
	dogs   *mockDogRepo
	prefs  *mockPrefRepo
	logs   *mockLogRepo
	sender *notification.MockEmailSender
}

func newRunnerEnv(t *testing.T) *runnerEnv {
	t.Helper()
	dogs := newMockDogRepo()
	prefs := newMockPrefRepo()
	logs := newMockLogRepo()
	sender := &notification.MockEmailSender{}
	runner := NewRunner(dogs, newMockHistorySource(), prefs, logs,
		scheduling.NewGenerator(testCatalog(t)), sender,
		notification.NewTemplateEngine(), nil, zerolog.Nop())
	return &runnerEnv{runner: runner, dogs: dogs, prefs: prefs, logs: logs, sender: sender}
}

var runAsOf = time.Date(2025, time.December, 3, 0, 0, 0, 0, time.UTC)

// addSubject registers an adult dog with an overdue rabies dose and an
// enabled preference.
func (e *runnerEnv) addSubject(t *testing.T, ownerID string) *dog.Dog {
	t.Helper()
	d := &dog.Dog{OwnerID: ownerID, Name: "Rex", BirthDate: runAsOf.AddDate(-2, 0, 0)}
	if err := e.dogs.Create(context.Background(), d); err != nil {
		t.Fatalf("creating dog: %v", err)
	}
	e.prefs.Upsert(context.Background(), &Preference{
		OwnerID: ownerID, Enabled: true,
		LeadTimeDays: DefaultLeadTimeDays, ResendIntervalHours: DefaultResendIntervalHours,
		Email: ownerID + "@example.com",
	})
	return d
}

// =========== Tests ===========

func TestRun_SendsOverdueReminder(t *testing.T) {
	env := newRunnerEnv(t)
	env.addSubject(t, "owner-1")

	stats, err := env.runner.Run(context.Background(), runAsOf, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Subjects != 1 {
		t.Errorf("expected 1 subject, got %d", stats.Subjects)
	}
	if stats.Sent != 1 {
		t.Fatalf("expected 1 send, got %+v", stats)
	}
	calls := env.sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(calls))
	}
	if calls[0].To != "owner-1@example.com" {
		t.Errorf("sent to %s", calls[0].To)
	}
	if !strings.Contains(calls[0].Subject, "Rex") || !strings.Contains(calls[0].Subject, "Rabies") {
		t.Errorf("subject not rendered: %q", calls[0].Subject)
	}
}

func TestRun_SecondRunSuppressed(t *testing.T) {
	env := newRunnerEnv(t)
	env.addSubject(t, "owner-1")

	if _, err := env.runner.Run(context.Background(), runAsOf, false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stats, err := env.runner.Run(context.Background(), runAsOf, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Sent != 0 || stats.Suppressed != 1 {
		t.Errorf("expected suppression on second run, got %+v", stats)
	}
	if len(env.sender.Calls()) != 1 {
		t.Errorf("expected no second email, got %d calls", len(env.sender.Calls()))
	}
}

func TestRun_DispatchFailureReleasesClaim(t *testing.T) {
	env := newRunnerEnv(t)
	env.addSubject(t, "owner-1")
	env.sender.ShouldFail = true
	env.sender.FailError = "smtp down"

	stats, err := env.runner.Run(context.Background(), runAsOf, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Failures != 1 || stats.Sent != 0 {
		t.Errorf("expected 1 failure, got %+v", stats)
	}
	if env.logs.count() != 0 {
		t.Error("failed dispatch must release its claim")
	}

	// The next run retries and succeeds.
	env.sender.ShouldFail = false
	stats, err = env.runner.Run(context.Background(), runAsOf, false)
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if stats.Sent != 1 {
		t.Errorf("expected retry to send, got %+v", stats)
	}
}

func TestRun_DryRun(t *testing.T) {
	env := newRunnerEnv(t)
	env.addSubject(t, "owner-1")

	stats, err := env.runner.Run(context.Background(), runAsOf, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sent != 1 {
		t.Errorf("dry run should count would-sends, got %+v", stats)
	}
	if len(env.sender.Calls()) != 0 {
		t.Error("dry run must not dispatch")
	}
	if env.logs.count() != 0 {
		t.Error("dry run must not claim")
	}
}

func TestRun_DisabledPreferenceSkipped(t *testing.T) {
	env := newRunnerEnv(t)
	d := env.addSubject(t, "owner-1")
	env.prefs.Upsert(context.Background(), &Preference{
		OwnerID: d.OwnerID, Enabled: false,
		LeadTimeDays: DefaultLeadTimeDays, ResendIntervalHours: DefaultResendIntervalHours,
	})

	stats, err := env.runner.Run(context.Background(), runAsOf, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sent != 0 || stats.Failures != 0 {
		t.Errorf("disabled subject should be skipped, got %+v", stats)
	}
}

func TestRun_MissingEmailIsFailure(t *testing.T) {
	env := newRunnerEnv(t)
	d := env.addSubject(t, "owner-1")
	env.prefs.Upsert(context.Background(), &Preference{
		OwnerID: d.OwnerID, Enabled: true,
		LeadTimeDays: DefaultLeadTimeDays, ResendIntervalHours: DefaultResendIntervalHours,
	})

	stats, err := env.runner.Run(context.Background(), runAsOf, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Failures != 1 {
		t.Errorf("expected a per-subject failure, got %+v", stats)
	}
}

func TestRun_FailureIsolatedPerDog(t *testing.T) {
	env := newRunnerEnv(t)
	env.addSubject(t, "owner-1")
	// Second subject has a birth date after asOf, which fails its schedule
	// computation.
	bad := &dog.Dog{OwnerID: "owner-2", Name: "Pup", BirthDate: runAsOf.AddDate(0, 0, 7)}
	env.dogs.Create(context.Background(), bad)
	env.prefs.Upsert(context.Background(), &Preference{
		OwnerID: "owner-2", Enabled: true,
		LeadTimeDays: DefaultLeadTimeDays, ResendIntervalHours: DefaultResendIntervalHours,
		Email: "owner-2@example.com",
	})

	stats, err := env.runner.Run(context.Background(), runAsOf, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Subjects != 2 {
		t.Errorf("expected 2 subjects, got %d", stats.Subjects)
	}
	if stats.Failures != 1 {
		t.Errorf("expected 1 failure, got %+v", stats)
	}
	if stats.Sent != 1 {
		t.Errorf("healthy subject should still be served, got %+v", stats)
	}
}

func TestRun_FutureOnlyScheduleSendsNothing(t *testing.T) {
	env := newRunnerEnv(t)
	d := env.addSubject(t, "owner-1")
	// A dose given yesterday pushes the next rabies event a year out.
	hist := env.runner.records.(*mockHistorySource)
	hist.store[d.ID] = []*vaccination.Record{
		{DogID: d.ID, VaccineID: "core_rabies", DateAdministered: runAsOf.AddDate(0, 0, -1)},
	}

	stats, err := env.runner.Run(context.Background(), runAsOf, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sent != 0 || stats.Suppressed != 0 {
		t.Errorf("expected nothing to send, got %+v", stats)
	}
}

package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/dog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/vaccination"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/metrics"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/notification"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/scheduling"
)

// HistorySource provides a dog's administered doses. Satisfied by the
// vaccination record repository.
type HistorySource interface {
	ListByDog(ctx context.Context, dogID uuid.UUID) ([]*vaccination.Record, error)
}

// Stats summarizes one batch run.
type Stats struct {
	Subjects   int `json:"subjects"`
	Sent       int `json:"sent"`
	Suppressed int `json:"suppressed"`
	Failures   int `json:"failures"`
}

// Runner recomputes every enabled subject's schedule and dispatches reminder
// emails for overdue and soon-due doses, deduplicating through the log.
type Runner struct {
	dogs    dog.Repository
	records HistorySource
	prefs   PreferenceRepository
	logs    LogRepository
	gen     *scheduling.Generator
	sender  notification.EmailSender
	tmpl    *notification.TemplateEngine
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewRunner(dogs dog.Repository, records HistorySource, prefs PreferenceRepository,
	logs LogRepository, gen *scheduling.Generator, sender notification.EmailSender,
	tmpl *notification.TemplateEngine, m *metrics.Metrics, log zerolog.Logger) *Runner {
	return &Runner{
		dogs:    dogs,
		records: records,
		prefs:   prefs,
		logs:    logs,
		gen:     gen,
		sender:  sender,
		tmpl:    tmpl,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Run walks every dog whose owner has reminders enabled. A failure on one
// dog is logged and counted but does not abort the run. With dryRun set the
// runner logs every would-send decision without claiming or dispatching.
func (r *Runner) Run(ctx context.Context, asOf time.Time, dryRun bool) (Stats, error) {
	var stats Stats
	if asOf.IsZero() {
		asOf = r.now()
	}

	dogs, err := r.dogs.ListWithReminders(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing reminder subjects: %w", err)
	}

	prefCache := make(map[string]*Preference)
	for _, d := range dogs {
		stats.Subjects++
		if err := r.runDog(ctx, d, asOf, dryRun, prefCache, &stats); err != nil {
			stats.Failures++
			if r.metrics != nil {
				r.metrics.ReminderRunErrors.Inc()
			}
			r.log.Error().Err(err).
				Str("dog_id", d.ID.String()).
				Str("owner_id", d.OwnerID).
				Msg("reminder run failed for subject")
		}
	}

	r.log.Info().
		Time("as_of", asOf).
		Bool("dry_run", dryRun).
		Int("subjects", stats.Subjects).
		Int("sent", stats.Sent).
		Int("suppressed", stats.Suppressed).
		Int("failures", stats.Failures).
		Msg("reminder run complete")
	return stats, nil
}

func (r *Runner) runDog(ctx context.Context, d *dog.Dog, asOf time.Time, dryRun bool,
	prefCache map[string]*Preference, stats *Stats) error {
	pref, ok := prefCache[d.OwnerID]
	if !ok {
		var err error
		pref, err = r.prefs.GetByOwner(ctx, d.OwnerID)
		if err != nil {
			return fmt.Errorf("loading preference: %w", err)
		}
		prefCache[d.OwnerID] = pref
	}
	if !pref.Enabled {
		return nil
	}
	if pref.Email == "" {
		return fmt.Errorf("owner %s has reminders enabled but no email", d.OwnerID)
	}

	records, err := r.records.ListByDog(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	history := make([]scheduling.DoseEvent, 0, len(records))
	for _, rec := range records {
		history = append(history, scheduling.DoseEvent{VaccineID: rec.VaccineID, Date: rec.DateAdministered})
	}

	items, err := r.gen.Calculate(d.BirthDate, d.NoncoreSelections(), history, asOf)
	if err != nil {
		return fmt.Errorf("computing schedule: %w", err)
	}

	// The lead time doubles as the upcoming window, so the candidate set is
	// exactly overdue plus due-within-lead-time.
	categorized := scheduling.Categorize(items, asOf, pref.LeadTimeDays)
	candidates := make([]scheduling.CategorizedItem, 0, len(categorized.Overdue)+len(categorized.Upcoming))
	candidates = append(candidates, categorized.Overdue...)
	candidates = append(candidates, categorized.Upcoming...)

	for _, c := range candidates {
		status := fmt.Sprintf("due in %d days", c.DaysUntil)
		if c.DaysOverdue > 0 {
			status = fmt.Sprintf("%d days overdue", c.DaysOverdue)
		}

		if dryRun {
			r.log.Info().
				Str("dog", d.Name).
				Str("vaccine", c.VaccineID).
				Str("dose", c.Dose).
				Str("status", status).
				Str("to", pref.Email).
				Msg("dry run: would send reminder")
			stats.Sent++
			continue
		}

		entry := &LogEntry{
			OwnerID:       d.OwnerID,
			DogID:         d.ID,
			VaccineID:     c.VaccineID,
			DoseNumber:    c.DoseNumber,
			ScheduledDate: c.Date,
		}
		claimed, err := r.logs.Claim(ctx, entry, pref.ResendInterval())
		if err != nil {
			return fmt.Errorf("claiming reminder: %w", err)
		}
		if !claimed {
			stats.Suppressed++
			if r.metrics != nil {
				r.metrics.RemindersSuppressed.Inc()
			}
			continue
		}

		subject, body, err := r.tmpl.Render(notification.TemplateVaccinationReminder, map[string]string{
			"dog_name":     d.Name,
			"vaccine_name": c.VaccineName,
			"dose_label":   c.Dose,
			"status":       status,
			"due_date":     c.Date.Format(scheduling.DateLayout),
		})
		if err != nil {
			return fmt.Errorf("rendering template: %w", err)
		}

		if err := r.sender.SendEmail(ctx, pref.Email, subject, body); err != nil {
			// Give the claim back so the next run retries this reminder.
			if relErr := r.logs.Release(ctx, entry.ID); relErr != nil {
				r.log.Error().Err(relErr).Str("log_id", entry.ID.String()).Msg("releasing failed claim")
			}
			stats.Failures++
			r.log.Error().Err(err).
				Str("dog", d.Name).
				Str("vaccine", c.VaccineID).
				Msg("reminder dispatch failed")
			continue
		}

		stats.Sent++
		if r.metrics != nil {
			r.metrics.RemindersSent.Inc()
		}
	}
	return nil
}

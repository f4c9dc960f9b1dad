package vaccination

import (
	"time"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/contraindication"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/dog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/scheduling"
)

// HistoryEntry is an inline dose event supplied in a schedule request body,
// for doses that were never stored as records. Dates use YYYY-MM-DD.
type HistoryEntry struct {
	VaccineID string `json:"vaccine_id"`
	Date      string `json:"date"`
}

// ScheduleOptions tunes one schedule computation. Zero values fall back to
// the stored dog: AsOf defaults to today and a nil SelectedNoncore derives
// the elections from the dog's lifestyle flags.
type ScheduleOptions struct {
	AsOf            time.Time
	SelectedNoncore []string
	History         []HistoryEntry
}

// ScheduleItem is the wire form of one schedule entry.
type ScheduleItem struct {
	VaccineID          string   `json:"vaccine_id"`
	VaccineName        string   `json:"vaccine_name"`
	Dose               string   `json:"dose"`
	DoseNumber         int      `json:"dose_number,omitempty"`
	Date               string   `json:"date"`
	RangeStart         string   `json:"range_start,omitempty"`
	RangeEnd           string   `json:"range_end,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	Description        string   `json:"description,omitempty"`
	SideEffectsCommon  []string `json:"side_effects_common,omitempty"`
	SideEffectsSeekVet []string `json:"side_effects_seek_vet,omitempty"`
}

// CategorizedItem is a schedule item annotated with its distance from the
// reference date.
type CategorizedItem struct {
	ScheduleItem
	DaysOverdue int `json:"days_overdue,omitempty"`
	DaysUntil   int `json:"days_until,omitempty"`
}

// CategorizedSchedule buckets the schedule relative to the reference date.
type CategorizedSchedule struct {
	Overdue  []CategorizedItem `json:"overdue"`
	Upcoming []CategorizedItem `json:"upcoming"`
	Future   []CategorizedItem `json:"future"`
}

// ScheduleResult is the full response of a schedule computation.
type ScheduleResult struct {
	Dog               *dog.Dog                              `json:"dog"`
	AsOf              string                                `json:"as_of"`
	AgeWeeks          int                                   `json:"age_weeks"`
	LifeStage         string                                `json:"life_stage"`
	Schedule          []ScheduleItem                        `json:"schedule"`
	Categorized       CategorizedSchedule                   `json:"categorized"`
	Analysis          string                                `json:"analysis"`
	Contraindications map[string][]contraindication.Finding `json:"contraindications,omitempty"`
	Warnings          []string                              `json:"warnings,omitempty"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(scheduling.DateLayout)
}

func toScheduleItem(it scheduling.Item) ScheduleItem {
	return ScheduleItem{
		VaccineID:          it.VaccineID,
		VaccineName:        it.VaccineName,
		Dose:               it.Dose,
		DoseNumber:         it.DoseNumber,
		Date:               formatDate(it.Date),
		RangeStart:         formatDate(it.RangeStart),
		RangeEnd:           formatDate(it.RangeEnd),
		Notes:              it.Notes,
		Description:        it.Description,
		SideEffectsCommon:  it.SideEffectsCommon,
		SideEffectsSeekVet: it.SideEffectsSeekVet,
	}
}

func toCategorizedItems(items []scheduling.CategorizedItem) []CategorizedItem {
	out := make([]CategorizedItem, 0, len(items))
	for _, it := range items {
		out = append(out, CategorizedItem{
			ScheduleItem: toScheduleItem(it.Item),
			DaysOverdue:  it.DaysOverdue,
			DaysUntil:    it.DaysUntil,
		})
	}
	return out
}

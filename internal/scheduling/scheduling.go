// Package scheduling computes forward-looking canine vaccination plans.
//
// The generator, age classifier, history analyzer and categorizer are pure:
// given the same birth date, history, selections, reference date and catalog
// they always produce identical output. Nothing here reads the clock or
// touches I/O, so callers may run computations for unrelated subjects
// concurrently against one shared catalog.
package scheduling

import (
	"errors"
	"sort"
	"time"
)

// ErrInvalidInput marks precondition violations that are fatal to a single
// computation, such as a birth date after the reference date.
var ErrInvalidInput = errors.New("invalid input")

// DateLayout is the civil date format used across schedule payloads.
const DateLayout = "2006-01-02"

// DoseEvent is one administered dose from a subject's vaccination record.
type DoseEvent struct {
	VaccineID string
	Date      time.Time
}

// Item is one generated schedule entry: a future series dose or booster.
// RangeStart/RangeEnd bound the acceptable window for series doses; boosters
// carry no window.
type Item struct {
	VaccineID   string
	VaccineName string
	// Dose is the display label, e.g. "Initial Series: Dose 2".
	Dose string
	// DoseNumber is the series position, zero for boosters.
	DoseNumber  int
	Date        time.Time
	RangeStart  time.Time
	RangeEnd    time.Time
	Notes       string
	Description string
	SideEffectsCommon  []string
	SideEffectsSeekVet []string
}

// dateOnly truncates to a UTC civil date so interval arithmetic is exact.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

func addWeeks(t time.Time, weeks int) time.Time {
	return t.AddDate(0, 0, weeks*7)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

func laterDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// groupHistory buckets dose events by vaccine id with dates normalized and
// sorted ascending.
func groupHistory(history []DoseEvent) map[string][]time.Time {
	grouped := make(map[string][]time.Time)
	for _, ev := range history {
		grouped[ev.VaccineID] = append(grouped[ev.VaccineID], dateOnly(ev.Date))
	}
	for _, dates := range grouped {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	}
	return grouped
}

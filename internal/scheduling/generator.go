package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/catalog"
)

// finalDoseFloorWeeks is the earliest age, per AAHA/WSAVA guidance, for the
// final series dose of vaccines flagged with FinalDoseAgeFloor. Before this
// age maternal antibodies can neutralize the dose.
const finalDoseFloorWeeks = 16

const finalDoseFloorNote = " Final dose scheduled after 16 weeks per AAHA/WSAVA guidelines to ensure maternal antibodies have waned."

// Generator evaluates the vaccine rule catalog against a subject's history.
// It holds only the injected catalog and is safe for concurrent use.
type Generator struct {
	cat *catalog.Catalog
}

// NewGenerator returns a generator backed by the given catalog.
func NewGenerator(cat *catalog.Catalog) *Generator {
	return &Generator{cat: cat}
}

// Catalog returns the injected catalog.
func (g *Generator) Catalog() *catalog.Catalog {
	return g.cat
}

// Calculate produces the ordered list of future doses and boosters for one
// subject. Noncore vaccines are included only when their id appears in
// selectedNoncore. History entries for vaccine ids absent from the catalog
// are ignored. Returns ErrInvalidInput when the birth date is after the
// reference date.
func (g *Generator) Calculate(birthDate time.Time, selectedNoncore []string, history []DoseEvent, referenceDate time.Time) ([]Item, error) {
	birth := dateOnly(birthDate)
	today := dateOnly(referenceDate)
	if birth.After(today) {
		return nil, fmt.Errorf("%w: birth date (%s) cannot be after reference date (%s)",
			ErrInvalidInput, birth.Format(DateLayout), today.Format(DateLayout))
	}

	selected := make(map[string]bool, len(selectedNoncore))
	for _, id := range selectedNoncore {
		selected[id] = true
	}
	grouped := groupHistory(history)
	ageWeeks := AgeInWeeks(birth, today)

	var schedule []Item
	vaccines := g.cat.Vaccines()
	for i := range vaccines {
		v := &vaccines[i]
		if v.Category == catalog.Noncore && !selected[v.ID] {
			continue
		}

		dates := grouped[v.ID]
		dosesGiven := len(dates)
		var lastDose time.Time
		if dosesGiven > 0 {
			lastDose = dates[dosesGiven-1]
		}

		// A subject past the minimum start age with no doses on record is
		// overdue from the eligibility date, not from today.
		minStart := today
		if v.MinStartAgeWeeks > 0 {
			minAgeDate := addWeeks(birth, v.MinStartAgeWeeks)
			if minAgeDate.After(today) {
				minStart = minAgeDate
			} else if dosesGiven == 0 {
				minStart = minAgeDate
			}
		}

		rule := v.RuleFor(ageWeeks)
		if rule == nil {
			continue
		}

		var start time.Time
		if dosesGiven > 0 {
			start = laterDate(addDays(lastDose, rule.IntervalDays), today)
		} else {
			start = minStart
		}

		var lastGenerated time.Time
		generated := false
		for doseNum := dosesGiven + 1; doseNum <= rule.Doses; doseNum++ {
			item := g.seriesDose(v, rule, doseNum, dosesGiven, lastDose, start, minStart, birth)
			schedule = append(schedule, item)
			lastGenerated = item.Date
			generated = true
			start = addDays(start, rule.IntervalDays)
		}

		// The booster hangs off the series completion date: the last
		// generated dose if the series was just laid out, otherwise the last
		// recorded dose of an already-complete series.
		var seriesComplete time.Time
		switch {
		case generated:
			seriesComplete = lastGenerated
		case dosesGiven >= rule.Doses && dosesGiven > 0:
			seriesComplete = lastDose
		default:
			continue
		}
		if rule.InitialBoosterDays == 0 {
			continue
		}
		schedule = append(schedule, g.boosterDose(v, rule, seriesComplete, today))
	}

	sort.SliceStable(schedule, func(i, j int) bool {
		return schedule[i].Date.Before(schedule[j].Date)
	})
	return schedule, nil
}

func (g *Generator) seriesDose(v *catalog.VaccineDefinition, rule *catalog.AgeRule, doseNum, dosesGiven int, lastDose, start, minStart, birth time.Time) Item {
	isFinal := doseNum == rule.Doses
	hasHistory := dosesGiven > 0

	doseDate := start
	finalNote := ""
	if isFinal && v.FinalDoseAgeFloor {
		floor := addWeeks(birth, finalDoseFloorWeeks)
		if doseDate.Before(floor) {
			doseDate = floor
			finalNote = finalDoseFloorNote
		}
	}

	var note string
	if isFinal {
		note = v.Description
		if note == "" {
			note = "Completes initial series."
		}
		note += finalNote
	} else {
		note = v.Description
		if note == "" {
			note = fmt.Sprintf("Series continues (%d day interval).", rule.IntervalDays)
		}
	}

	var rangeStart, rangeEnd time.Time
	if doseNum == 1 && !hasHistory {
		rangeStart = minStart
		rangeEnd = addDays(minStart, rule.MaxInterval)
	} else {
		// Window is anchored on the previous dose: the recorded one when we
		// resume a series, the previously generated one otherwise.
		var base time.Time
		if doseNum == dosesGiven+1 && hasHistory {
			base = lastDose
		} else {
			base = addDays(start, -rule.IntervalDays)
		}
		rangeStart = addDays(base, rule.MinInterval)
		rangeEnd = addDays(base, rule.MaxInterval)
	}
	if isFinal && v.FinalDoseAgeFloor {
		floor := addWeeks(birth, finalDoseFloorWeeks)
		if rangeStart.Before(floor) {
			rangeStart = floor
		}
		if rangeEnd.Before(floor) {
			rangeEnd = addDays(floor, rule.MaxInterval)
		}
	}

	return Item{
		VaccineID:          v.ID,
		VaccineName:        v.Name,
		Dose:               fmt.Sprintf("Initial Series: Dose %d", doseNum),
		DoseNumber:         doseNum,
		Date:               doseDate,
		RangeStart:         rangeStart,
		RangeEnd:           rangeEnd,
		Notes:              note,
		Description:        v.Description,
		SideEffectsCommon:  v.SideEffects.Common,
		SideEffectsSeekVet: v.SideEffects.SeekVetIf,
	}
}

func (g *Generator) boosterDose(v *catalog.VaccineDefinition, rule *catalog.AgeRule, seriesComplete, today time.Time) Item {
	due := addDays(seriesComplete, rule.InitialBoosterDays)

	note := "Revaccination to maintain immunity."
	if v.Description != "" {
		note = "Booster maintains immunity. " + v.Description
	}

	item := Item{
		VaccineID:          v.ID,
		VaccineName:        v.Name,
		Notes:              note,
		Description:        v.Description,
		SideEffectsCommon:  v.SideEffects.Common,
		SideEffectsSeekVet: v.SideEffects.SeekVetIf,
	}
	if due.After(today) {
		item.Dose = "1-Year Booster"
		item.Date = due
	} else {
		// A missed booster is shown as due now; only one outstanding booster
		// cycle is tracked per vaccine.
		item.Dose = "Booster (Annual or 3-Year)"
		item.Date = laterDate(due, today)
	}
	return item
}

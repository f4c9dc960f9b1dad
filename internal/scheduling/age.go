package scheduling

import (
	"fmt"
	"time"
)

// LifeStage is a dog's age classification.
type LifeStage string

const (
	StagePuppy      LifeStage = "puppy"
	StageAdolescent LifeStage = "adolescent"
	StageAdult      LifeStage = "adult"
	StageSenior     LifeStage = "senior"
)

// Age thresholds in whole weeks. The adult cutoff is 7 years expressed in
// weeks so the whole classification works in one unit.
const (
	puppyMaxWeeks      = 16
	adolescentMaxWeeks = 52
	adultMaxWeeks      = 7 * 52
)

// AgeInWeeks returns the subject's age in whole weeks at the reference date.
func AgeInWeeks(birthDate, referenceDate time.Time) int {
	return daysBetween(dateOnly(birthDate), dateOnly(referenceDate)) / 7
}

// Classify maps a birth date and reference date to a life stage. The
// reference date must not precede the birth date.
func Classify(birthDate, referenceDate time.Time) (LifeStage, error) {
	birth := dateOnly(birthDate)
	ref := dateOnly(referenceDate)
	if birth.After(ref) {
		return "", fmt.Errorf("%w: birth date (%s) cannot be after reference date (%s)",
			ErrInvalidInput, birth.Format(DateLayout), ref.Format(DateLayout))
	}

	weeks := daysBetween(birth, ref) / 7
	switch {
	case weeks <= puppyMaxWeeks:
		return StagePuppy, nil
	case weeks <= adolescentMaxWeeks:
		return StageAdolescent, nil
	case weeks <= adultMaxWeeks:
		return StageAdult, nil
	default:
		return StageSenior, nil
	}
}

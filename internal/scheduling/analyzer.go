package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// earlyDoseMinWeeks is the age below which any recorded dose is flagged as
// potentially premature.
const earlyDoseMinWeeks = 6

const consistentHistoryMessage = "History appears consistent with standard timing intervals."

// AnalyzeHistory inspects recorded doses for timing anomalies: doses given
// before six weeks of age, consecutive doses closer than the rule's minimum
// interval, and gaps beyond its maximum. Vaccine ids not present in the
// catalog are skipped. The result is a human-readable report; a clean
// history yields a fixed confirmation line. Never fails.
func (g *Generator) AnalyzeHistory(birthDate time.Time, history []DoseEvent) string {
	birth := dateOnly(birthDate)
	grouped := groupHistory(history)

	var lines []string
	vaccines := g.cat.Vaccines()
	for i := range vaccines {
		v := &vaccines[i]
		dates := grouped[v.ID]
		if len(dates) == 0 {
			continue
		}

		// Interval bounds come from the first rule; series spacing does not
		// differ enough across age branches to matter for flagging.
		rule := &v.Rules[0]

		for j, given := range dates {
			doseNum := j + 1
			ageWeeks := float64(daysBetween(birth, given)) / 7.0
			if ageWeeks < earlyDoseMinWeeks {
				lines = append(lines, fmt.Sprintf("- WARNING: %s Dose %d given at %.1f weeks. Potentially too early.",
					v.Name, doseNum, ageWeeks))
			}

			if doseNum > 1 {
				interval := daysBetween(dates[j-1], given)
				if interval < rule.MinInterval {
					lines = append(lines, fmt.Sprintf("- WARNING: %s Dose %d given %d days after previous. Too close (min %d days).",
						v.Name, doseNum, interval, rule.MinInterval))
				} else if interval > rule.MaxInterval {
					lines = append(lines, fmt.Sprintf("- NOTE: %s Dose %d given %d days after previous. Ensure series is not overdue.",
						v.Name, doseNum, interval))
				}
			}
		}
	}

	if len(lines) == 0 {
		return consistentHistoryMessage
	}
	return strings.Join(lines, "\n")
}

// Package contraindication evaluates condition-specific vaccine safety rules.
//
// The evaluator is an annotation service: it maps a vaccine's immunogenicity
// class and the subject's health context to warnings, without touching any
// scheduling math. Rules follow AAHA 2024, WSAVA 2024, the 2018 FDA safety
// alert on isoxazolines, and EPA adverse event reports.
package contraindication

import (
	"fmt"
	"strings"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/catalog"
)

// Finding is one safety annotation. Contraindicated true means do not
// administer; false means administer with documented caution.
type Finding struct {
	Warning         string `json:"warning"`
	Contraindicated bool   `json:"is_contraindicated"`
}

// HealthContext is the subject's diagnosed conditions and current
// medications, keyed by medication category.
type HealthContext struct {
	Conditions  []string            `json:"medical_conditions"`
	Medications map[string][]string `json:"medications"`
}

func (hc HealthContext) hasCondition(id string) bool {
	for _, c := range hc.Conditions {
		if c == id {
			return true
		}
	}
	return false
}

// Evaluate returns the findings for administering one vaccine to a subject.
// Findings are ordered by condition, with blanket condition warnings before
// medication cross-checks. Subjects with no relevant conditions get none.
func Evaluate(vaccineID string, class catalog.Class, hc HealthContext) []Finding {
	var findings []Finding
	if hc.hasCondition(ConditionEpilepsy) {
		findings = append(findings, evaluateEpilepsy(vaccineID, hc.Medications)...)
	}
	if hc.hasCondition(ConditionAutoimmune) {
		findings = append(findings, evaluateAutoimmune(class, hc.Medications)...)
	}
	if hc.hasCondition(ConditionCancer) {
		findings = append(findings, evaluateCancer(class, hc.Medications)...)
	}
	return findings
}

func evaluateEpilepsy(vaccineID string, medications map[string][]string) []Finding {
	var findings []Finding

	switch {
	case vaccineID == "core_dap":
		findings = append(findings, Finding{
			Warning: "EPILEPSY CAUTION: For epileptic dogs, request recombinant CDV " +
				"component instead of modified-live. Administer separately from " +
				"other vaccines. Space all vaccines 3-4 weeks apart. Consider " +
				"titer testing before revaccination. (AAHA 2024)",
		})
	case vaccineID == "core_rabies":
		findings = append(findings, Finding{
			Warning: "EPILEPSY CAUTION: Use 3-year rabies schedule where legally " +
				"permitted. Administer separately from all other vaccines. " +
				"Monitor for seizure activity for 30 days post-vaccination. " +
				"(AAHA 2024; WSAVA 2024)",
		})
	case vaccineID == "core_lepto":
		findings = append(findings, Finding{
			Warning: "EPILEPSY WARNING: Leptospirosis vaccine has the highest adverse " +
				"reaction rate among canine vaccines. Neurological adverse events " +
				"including seizures have been reported. AVOID unless dog has " +
				"genuine high exposure risk (wildlife contact, standing water). " +
				"If administered, give separately and monitor closely for 48-72 " +
				"hours. (AAHA 2024)",
		})
	case strings.HasPrefix(vaccineID, "noncore_"):
		findings = append(findings, Finding{
			Warning: "EPILEPSY NOTE: For epileptic dogs, non-core vaccines should only " +
				"be administered if there is genuine exposure risk. Space 3-4 " +
				"weeks apart from other vaccines. Never combine multiple vaccines " +
				"in one visit. (AAHA 2024; WSAVA 2024)",
		})
	}

	fleaTick := medications[CategoryFleaTick]
	var isoxLabels []string
	serestoUsed := false
	for _, med := range fleaTick {
		if isoxazolines[med] {
			if label := medicationLabel(CategoryFleaTick, med); label != "" {
				isoxLabels = append(isoxLabels, label)
			}
		}
		if med == "seresto" {
			serestoUsed = true
		}
	}
	if len(isoxLabels) > 0 {
		findings = append(findings, Finding{
			Warning: fmt.Sprintf("FDA SEIZURE WARNING: Isoxazoline flea/tick products (%s) "+
				"have an FDA warning for seizures, tremors, and ataxia in dogs. "+
				"These should be AVOIDED in dogs with epilepsy or seizure history. "+
				"Safer alternatives include Frontline (fipronil), Revolution "+
				"(selamectin), or Comfortis (spinosad). "+
				"(FDA Animal Drug Safety Communication, 2018)", strings.Join(isoxLabels, ", ")),
		})
	}
	if serestoUsed {
		findings = append(findings, Finding{
			Warning: "CAUTION: Seresto collar has reported neurological adverse events " +
				"including convulsions and ataxia. Use with caution in epileptic " +
				"dogs and monitor closely. (EPA Adverse Event Reports)",
		})
	}

	return findings
}

func evaluateAutoimmune(class catalog.Class, medications map[string][]string) []Finding {
	immuno := medications[CategoryImmunosuppressive]
	onApoquel := false
	for _, med := range immuno {
		if med == "apoquel" {
			onApoquel = true
		}
	}

	findings := []Finding{{
		Warning: "AUTOIMMUNE ALERT: Dogs with autoimmune disease should AVOID " +
			"vaccination during active disease flares. Titer testing is strongly " +
			"recommended over revaccination for core vaccines (CDV, CPV, CAV). " +
			"(AAHA 2024; WSAVA 2024)",
	}}

	if class == catalog.ClassModifiedLive && len(immuno) > 0 {
		findings = append(findings, Finding{
			Warning: "CONTRAINDICATED: Modified-live vaccines (MLV) are contraindicated " +
				"while on immunosuppressive medications. MLV vaccines can cause " +
				"disease in immunosuppressed patients. Wait at least 2-4 weeks " +
				"after stopping immunosuppressive therapy before vaccinating. " +
				"(WSAVA 2024)",
			Contraindicated: true,
		})
	}

	if onApoquel {
		findings = append(findings, Finding{
			Warning: "APOQUEL CONTRAINDICATION: Avoid ALL vaccines during Oclacitinib " +
				"(Apoquel) treatment and for 28 days after discontinuation. " +
				"Apoquel suppresses immune response, increasing risk of " +
				"vaccine-induced disease from MLV vaccines and making killed " +
				"vaccines ineffective. (Zoetis prescribing information; WSAVA 2024)",
			Contraindicated: true,
		})
	}

	return findings
}

func evaluateCancer(class catalog.Class, medications map[string][]string) []Finding {
	var findings []Finding

	if class == catalog.ClassModifiedLive {
		findings = append(findings, Finding{
			Warning: "CONTRAINDICATED: Modified-live vaccines are contraindicated " +
				"during cancer treatment. MLV vaccines can cause disease in " +
				"immunocompromised patients. Titer testing is recommended to " +
				"assess existing immunity. (WSAVA 2024; AAHA 2024)",
			Contraindicated: true,
		})
	} else {
		findings = append(findings, Finding{
			Warning: "CANCER/CHEMO NOTE: Killed vaccines are likely ineffective during " +
				"active chemotherapy due to suppressed immune response. Wait " +
				"minimum 2 weeks (ideally 4-8 weeks) after completing chemotherapy " +
				"before vaccinating. Titer testing is preferred over revaccination. " +
				"(WSAVA 2024; AAHA 2024)",
		})
	}

	if len(medications[CategoryChemoAgents]) > 0 {
		findings = append(findings, Finding{
			Warning: "ACTIVE CHEMOTHERAPY: Patient is currently on chemotherapy agents. " +
				"Vaccination should be deferred until treatment is complete. If " +
				"possible, vaccinate at least 14 days BEFORE starting chemotherapy. " +
				"(AAHA 2024)",
			Contraindicated: true,
		})
	}

	return findings
}

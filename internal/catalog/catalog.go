// Package catalog loads and validates the vaccine rule catalog.
//
// The catalog is an ordered list of vaccine definitions, each carrying one or
// more age-conditioned dosing rules. It is constructed once at process start
// and treated as immutable afterwards, so a single *Catalog can be shared by
// any number of concurrent schedule computations.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Category describes how strongly a vaccine is recommended.
type Category string

const (
	Core            Category = "core"
	CoreConditional Category = "core_conditional"
	Noncore         Category = "noncore"
)

// Class is a vaccine's immunogenicity class.
type Class string

const (
	ClassModifiedLive Class = "mlv"
	ClassKilled       Class = "killed"
)

// Condition selects which subjects an AgeRule applies to. Rules are evaluated
// in catalog order and the first matching condition wins, so rule lists must
// be ordered narrow-to-broad and always end with an AllAges catch-all.
type Condition string

const (
	AllAges    Condition = "all_ages"
	AgeAtMost  Condition = "lte_weeks"
	AgeAbove   Condition = "gt_weeks"
)

// AgeRule is one branch of a vaccine's dosing policy.
type AgeRule struct {
	Condition Condition `json:"condition"`
	// AgeWeeks is the bound for AgeAtMost / AgeAbove conditions, in weeks.
	AgeWeeks int `json:"age_weeks,omitempty"`
	// Doses is the number of doses in the initial series.
	Doses int `json:"doses"`
	// IntervalDays is the nominal spacing between series doses.
	IntervalDays int `json:"interval_days,omitempty"`
	// MinInterval / MaxInterval bound the acceptable dose window. Both
	// default to IntervalDays when omitted.
	MinInterval int `json:"min_interval,omitempty"`
	MaxInterval int `json:"max_interval,omitempty"`
	// InitialBoosterDays is the gap between series completion and the first
	// booster. Zero means the vaccine has no booster cycle.
	InitialBoosterDays int `json:"initial_booster_days,omitempty"`
}

// Matches reports whether the rule applies at the given age.
func (r *AgeRule) Matches(ageWeeks int) bool {
	switch r.Condition {
	case AllAges:
		return true
	case AgeAtMost:
		return ageWeeks <= r.AgeWeeks
	case AgeAbove:
		return ageWeeks > r.AgeWeeks
	default:
		return false
	}
}

// SideEffects carries the owner-facing side effect guidance for a vaccine.
type SideEffects struct {
	Common    []string `json:"common,omitempty"`
	SeekVetIf []string `json:"seek_vet_if,omitempty"`
}

// VaccineDefinition is one immutable catalog entry.
type VaccineDefinition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Class    Class    `json:"class"`
	// MinStartAgeWeeks is the earliest age the series may start. Zero means
	// no minimum.
	MinStartAgeWeeks int `json:"min_start_age_weeks,omitempty"`
	// FinalDoseAgeFloor marks vaccines whose final series dose must not be
	// given before 16 weeks of age, when maternal antibodies have waned.
	FinalDoseAgeFloor bool        `json:"final_dose_age_floor,omitempty"`
	Description       string      `json:"description,omitempty"`
	SideEffects       SideEffects `json:"side_effects,omitempty"`
	Rules             []AgeRule   `json:"rules"`
}

// RuleFor returns the first rule matching the given age, or nil when none
// matches. Validated catalogs always end rule lists with an AllAges entry,
// so nil only occurs for hand-built definitions.
func (v *VaccineDefinition) RuleFor(ageWeeks int) *AgeRule {
	for i := range v.Rules {
		if v.Rules[i].Matches(ageWeeks) {
			return &v.Rules[i]
		}
	}
	return nil
}

// Catalog is the validated, ordered vaccine rule set.
type Catalog struct {
	vaccines []VaccineDefinition
	index    map[string]int
}

// New validates the definitions and builds a catalog from them. Interval
// bounds are normalized: a rule without explicit min/max intervals uses its
// nominal interval for both.
func New(defs []VaccineDefinition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("catalog: no vaccine definitions")
	}

	vaccines := make([]VaccineDefinition, len(defs))
	copy(vaccines, defs)

	index := make(map[string]int, len(vaccines))
	for i := range vaccines {
		v := &vaccines[i]
		// Rules are normalized in place below; detach them from the
		// caller's slice first.
		v.Rules = append([]AgeRule(nil), v.Rules...)
		if err := validateVaccine(v); err != nil {
			return nil, err
		}
		if _, dup := index[v.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate vaccine id %q", v.ID)
		}
		index[v.ID] = i
	}

	return &Catalog{vaccines: vaccines, index: index}, nil
}

// Parse decodes a JSON rule file and validates it.
func Parse(r io.Reader) (*Catalog, error) {
	var defs []VaccineDefinition
	dec := json.NewDecoder(r)
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("catalog: decode rules: %w", err)
	}
	return New(defs)
}

// Load reads and validates the rule file at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open rules file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Get returns the definition for id.
func (c *Catalog) Get(id string) (*VaccineDefinition, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return &c.vaccines[i], true
}

// Vaccines returns the definitions in catalog order. Callers must treat the
// returned slice as read-only.
func (c *Catalog) Vaccines() []VaccineDefinition {
	return c.vaccines
}

// Len returns the number of vaccine definitions.
func (c *Catalog) Len() int {
	return len(c.vaccines)
}

func validateVaccine(v *VaccineDefinition) error {
	if v.ID == "" {
		return fmt.Errorf("catalog: vaccine with empty id")
	}
	if v.Name == "" {
		return fmt.Errorf("catalog: vaccine %q: empty name", v.ID)
	}
	switch v.Category {
	case Core, CoreConditional, Noncore:
	default:
		return fmt.Errorf("catalog: vaccine %q: invalid category %q", v.ID, v.Category)
	}
	switch v.Class {
	case ClassModifiedLive, ClassKilled:
	default:
		return fmt.Errorf("catalog: vaccine %q: invalid class %q", v.ID, v.Class)
	}
	if v.MinStartAgeWeeks < 0 {
		return fmt.Errorf("catalog: vaccine %q: negative min start age", v.ID)
	}
	if len(v.Rules) == 0 {
		return fmt.Errorf("catalog: vaccine %q: no dosing rules", v.ID)
	}

	for i := range v.Rules {
		r := &v.Rules[i]
		if err := validateRule(v.ID, i, r); err != nil {
			return err
		}
		// A catch-all anywhere but last would make every later rule
		// unreachable.
		if r.Condition == AllAges && i != len(v.Rules)-1 {
			return fmt.Errorf("catalog: vaccine %q: rule %d: %q must be the last rule", v.ID, i, AllAges)
		}
	}
	if last := v.Rules[len(v.Rules)-1]; last.Condition != AllAges {
		return fmt.Errorf("catalog: vaccine %q: rules must end with an %q catch-all", v.ID, AllAges)
	}
	return nil
}

func validateRule(vaccineID string, i int, r *AgeRule) error {
	switch r.Condition {
	case AllAges:
	case AgeAtMost, AgeAbove:
		if r.AgeWeeks <= 0 {
			return fmt.Errorf("catalog: vaccine %q: rule %d: condition %q requires a positive age_weeks", vaccineID, i, r.Condition)
		}
	default:
		return fmt.Errorf("catalog: vaccine %q: rule %d: unknown condition %q", vaccineID, i, r.Condition)
	}
	if r.Doses < 1 {
		return fmt.Errorf("catalog: vaccine %q: rule %d: doses must be at least 1", vaccineID, i)
	}
	if r.IntervalDays < 0 || r.MinInterval < 0 || r.MaxInterval < 0 {
		return fmt.Errorf("catalog: vaccine %q: rule %d: negative interval", vaccineID, i)
	}
	if r.Doses > 1 && r.IntervalDays == 0 {
		return fmt.Errorf("catalog: vaccine %q: rule %d: multi-dose series requires interval_days", vaccineID, i)
	}
	if r.InitialBoosterDays < 0 {
		return fmt.Errorf("catalog: vaccine %q: rule %d: negative initial_booster_days", vaccineID, i)
	}
	if r.MinInterval == 0 {
		r.MinInterval = r.IntervalDays
	}
	if r.MaxInterval == 0 {
		r.MaxInterval = r.IntervalDays
	}
	if r.MinInterval > r.MaxInterval {
		return fmt.Errorf("catalog: vaccine %q: rule %d: min_interval exceeds max_interval", vaccineID, i)
	}
	return nil
}

package contraindication

// Diagnosed conditions the evaluator understands. Stored verbatim in the
// subject's health record.
const (
	ConditionEpilepsy   = "epilepsy"
	ConditionAutoimmune = "autoimmune"
	ConditionCancer     = "cancer"
)

// ConditionInfo describes a selectable medical condition.
type ConditionInfo struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Medication categories. Keys of HealthContext.Medications.
const (
	CategoryAntiSeizure       = "anti_seizure"
	CategoryFleaTick          = "flea_tick"
	CategoryHeartworm         = "heartworm"
	CategoryImmunosuppressive = "immunosuppressive"
	CategoryChemoAgents       = "chemo_agents"
	CategoryChemoSupportive   = "chemo_supportive"
)

// MedicationOption is one selectable medication within a category.
type MedicationOption struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	DrugClass string `json:"drug_class,omitempty"`
}

// MedicationCategory groups the medication options shown for one condition.
type MedicationCategory struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Condition string             `json:"condition"`
	Options   []MedicationOption `json:"options"`
}

var conditionInfos = []ConditionInfo{
	{
		ID:          ConditionEpilepsy,
		Label:       "Epilepsy / Seizure Disorder",
		Description: "Dog has been diagnosed with epilepsy or has a history of seizures.",
	},
	{
		ID:          ConditionAutoimmune,
		Label:       "Autoimmune Disease (IMHA/ITP/Lupus/Pemphigus)",
		Description: "Dog has been diagnosed with an immune-mediated disease.",
	},
	{
		ID:          ConditionCancer,
		Label:       "Cancer / On Chemotherapy",
		Description: "Dog has been diagnosed with cancer or is currently receiving chemotherapy.",
	},
}

var medicationCategories = []MedicationCategory{
	{
		ID:        CategoryAntiSeizure,
		Label:     "Anti-Seizure Medications",
		Condition: ConditionEpilepsy,
		Options: []MedicationOption{
			{ID: "keppra", Label: "Keppra (Levetiracetam)"},
			{ID: "phenobarbital", Label: "Phenobarbital"},
			{ID: "potassium_bromide", Label: "Potassium Bromide (KBr)"},
			{ID: "zonisamide", Label: "Zonisamide"},
		},
	},
	{
		ID:        CategoryFleaTick,
		Label:     "Flea & Tick Prevention",
		Condition: ConditionEpilepsy,
		Options: []MedicationOption{
			{ID: "nexgard", Label: "NexGard", DrugClass: "isoxazoline"},
			{ID: "bravecto", Label: "Bravecto", DrugClass: "isoxazoline"},
			{ID: "simparica", Label: "Simparica", DrugClass: "isoxazoline"},
			{ID: "credelio", Label: "Credelio", DrugClass: "isoxazoline"},
			{ID: "frontline", Label: "Frontline (Fipronil)", DrugClass: "topical"},
			{ID: "seresto", Label: "Seresto Collar", DrugClass: "collar"},
			{ID: "revolution", Label: "Revolution (Selamectin)", DrugClass: "topical"},
			{ID: "comfortis", Label: "Comfortis (Spinosad)", DrugClass: "oral_non_isox"},
		},
	},
	{
		ID:        CategoryHeartworm,
		Label:     "Heartworm Prevention",
		Condition: ConditionEpilepsy,
		Options: []MedicationOption{
			{ID: "heartgard", Label: "Heartgard (Ivermectin)"},
			{ID: "interceptor", Label: "Interceptor (Milbemycin)"},
			{ID: "proheart", Label: "ProHeart (Moxidectin injection)"},
		},
	},
	{
		ID:        CategoryImmunosuppressive,
		Label:     "Immunosuppressive Medications",
		Condition: ConditionAutoimmune,
		Options: []MedicationOption{
			{ID: "prednisone", Label: "Prednisone / Prednisolone"},
			{ID: "dexamethasone", Label: "Dexamethasone"},
			{ID: "cyclosporine", Label: "Cyclosporine (Atopica)"},
			{ID: "azathioprine", Label: "Azathioprine (Imuran)"},
			{ID: "mycophenolate", Label: "Mycophenolate (CellCept)"},
			{ID: "apoquel", Label: "Oclacitinib (Apoquel)"},
		},
	},
	{
		ID:        CategoryChemoAgents,
		Label:     "Chemotherapy Agents",
		Condition: ConditionCancer,
		Options: []MedicationOption{
			{ID: "cyclophosphamide", Label: "Cyclophosphamide"},
			{ID: "doxorubicin", Label: "Doxorubicin"},
			{ID: "vincristine", Label: "Vincristine"},
			{ID: "carboplatin", Label: "Carboplatin"},
			{ID: "lomustine", Label: "Lomustine (CCNU)"},
			{ID: "chlorambucil", Label: "Chlorambucil"},
		},
	},
	{
		ID:        CategoryChemoSupportive,
		Label:     "Supportive / Protocol Medications",
		Condition: ConditionCancer,
		Options: []MedicationOption{
			{ID: "prednisone_chemo", Label: "Prednisone (part of CHOP protocol)"},
		},
	},
}

// isoxazolines carry an FDA neurological safety warning.
var isoxazolines = map[string]bool{
	"nexgard":   true,
	"bravecto":  true,
	"simparica": true,
	"credelio":  true,
}

// Conditions returns the selectable medical conditions in display order.
func Conditions() []ConditionInfo {
	return conditionInfos
}

// ValidCondition reports whether id names a known condition.
func ValidCondition(id string) bool {
	for _, c := range conditionInfos {
		if c.ID == id {
			return true
		}
	}
	return false
}

// MedicationCatalog returns the medication categories in display order.
func MedicationCatalog() []MedicationCategory {
	return medicationCategories
}

func medicationLabel(categoryID, optionID string) string {
	for _, cat := range medicationCategories {
		if cat.ID != categoryID {
			continue
		}
		for _, opt := range cat.Options {
			if opt.ID == optionID {
				return opt.Label
			}
		}
	}
	return ""
}

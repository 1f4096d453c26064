package advisory

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies one of the advisory request flows.
type Kind string

const (
	KindMedicineLookup   Kind = "medicine"
	KindSymptomAnalysis  Kind = "symptoms"
	KindEmergencyAid     Kind = "emergency"
	KindInteractionCheck Kind = "interactions"
	KindDosageSchedule   Kind = "schedule"
	KindImageIdentify    Kind = "identify"
	KindPharmacyLookup   Kind = "pharmacies"
)

// Kinds lists every advisory kind in display order.
var Kinds = []Kind{
	KindMedicineLookup,
	KindSymptomAnalysis,
	KindEmergencyAid,
	KindInteractionCheck,
	KindDosageSchedule,
	KindImageIdentify,
	KindPharmacyLookup,
}

// ParseKind resolves a kind from its route name.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Language is the response language passed verbatim into prompts.
type Language string

const (
	English Language = "English"
	Sinhala Language = "Sinhala"
)

// ParseLanguage accepts the full language name or its ISO 639-1 code.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english", "en":
		return English, true
	case "sinhala", "si":
		return Sinhala, true
	}
	return "", false
}

// EmergencyNumber is the national ambulance line (Suwa Seriya).
const EmergencyNumber = "1990"

// Urgency grades a symptom analysis.
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// RiskLevel grades a drug interaction.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// MedicineInfo describes a single medicine.
type MedicineInfo struct {
	MedicineName     string   `json:"medicineName"`
	Description      string   `json:"description"`
	Uses             string   `json:"uses"`
	HowToUse         string   `json:"howToUse"`
	PriceRange       string   `json:"priceRange"`
	SideEffects      []string `json:"sideEffects"`
	FoodInteractions string   `json:"foodInteractions"`
	Disclaimer       string   `json:"disclaimer"`
}

// SymptomAnalysis is the triage answer for a symptom description.
type SymptomAnalysis struct {
	PossibleConditions []string `json:"possibleConditions"`
	Advice             string   `json:"advice"`
	SuggestedMeds      []string `json:"suggestedMeds"`
	Urgency            Urgency  `json:"urgency"`
}

// EmergencyInfo is the generated first-aid answer for a situation.
type EmergencyInfo struct {
	Situation          string   `json:"situation"`
	ImmediateActions   []string `json:"immediateActions"`
	ThingsToAvoid      []string `json:"thingsToAvoid"`
	EmergencyContact   string   `json:"emergencyContact"`
	ProfessionalAdvice string   `json:"professionalAdvice"`
}

// InteractionResult grades the combination of several medicines.
type InteractionResult struct {
	RiskLevel RiskLevel `json:"riskLevel"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details"`
}

// DosageSchedule spreads medicines across the day.
type DosageSchedule struct {
	Morning   []string `json:"morning"`
	Afternoon []string `json:"afternoon"`
	Evening   []string `json:"evening"`
	Night     []string `json:"night"`
	Notes     string   `json:"notes"`
}

// PharmacyLocation is one grounded map result.
type PharmacyLocation struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// EmergencySource records which side of the merge produced an EmergencyView.
type EmergencySource string

const (
	SourceCurated   EmergencySource = "curated"
	SourceCuratedAI EmergencySource = "curated+ai"
	SourceAI        EmergencySource = "ai"
)

// EmergencyView is the merged emergency record shown to the user. Curated
// content wins field by field; generated content fills the gaps.
type EmergencyView struct {
	Situation          string          `json:"situation"`
	Key                string          `json:"key,omitempty"`
	Actions            []string        `json:"actions"`
	Avoid              []string        `json:"avoid"`
	Tip                string          `json:"tip"`
	EmergencyContact   string          `json:"emergencyContact"`
	ProfessionalAdvice string          `json:"professionalAdvice,omitempty"`
	ImageRef           string          `json:"imageRef,omitempty"`
	Source             EmergencySource `json:"source"`
}

// Request is one advisory request. Which payload field is read depends on Kind.
type Request struct {
	Kind      Kind        `json:"kind"`
	Language  Language    `json:"language"`
	Text      string      `json:"text,omitempty"`
	Medicines []string    `json:"medicines,omitempty"`
	Image     string      `json:"image,omitempty"`
	Location  Coordinates `json:"location,omitempty"`
}

// Result is the typed outcome of a successful request. Exactly one payload
// field is set, matching Kind.
type Result struct {
	Kind        Kind               `json:"kind"`
	Language    Language           `json:"language,omitempty"`
	Query       string             `json:"query,omitempty"`
	Generation  uint64             `json:"generation"`
	CompletedAt time.Time          `json:"completedAt"`
	Medicine    *MedicineInfo      `json:"medicine,omitempty"`
	Symptoms    *SymptomAnalysis   `json:"symptoms,omitempty"`
	Emergency   *EmergencyView     `json:"emergency,omitempty"`
	Interaction *InteractionResult `json:"interaction,omitempty"`
	Schedule    *DosageSchedule    `json:"schedule,omitempty"`
	Identified  string             `json:"identified,omitempty"`
	Pharmacies  []PharmacyLocation `json:"pharmacies,omitempty"`
}

// Describe returns a one-line description of the request payload, used as
// the query label in history and audit records.
func (r Request) Describe() string {
	switch r.Kind {
	case KindInteractionCheck, KindDosageSchedule:
		return strings.Join(r.Medicines, ", ")
	case KindImageIdentify:
		return "image"
	case KindPharmacyLookup:
		return formatCoordinates(r.Location)
	}
	return strings.TrimSpace(r.Text)
}

func formatCoordinates(c Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', 5, 64) + "," + strconv.FormatFloat(c.Lng, 'f', 5, 64)
}

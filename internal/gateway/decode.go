package gateway

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/mediguide-lk/mediguide/internal/advisory"
)

var errEmptyResponse = errors.New("empty response")

// decodeStructured strips optional markdown fences, checks raw against the
// declared schema and unmarshals it into v.
func decodeStructured(raw string, schema jsonschema.Definition, v any) error {
	raw = stripFences(raw)
	if raw == "" {
		return errEmptyResponse
	}
	if err := jsonschema.VerifySchemaAndUnmarshal(schema, []byte(raw), v); err != nil {
		return fmt.Errorf("schema check: %w", err)
	}
	return nil
}

// stripFences removes a markdown code fence around raw, on one line or
// several, along with an optional language tag after the opening fence.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "```"))
	tag := strings.IndexFunc(raw, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_')
	})
	if tag < 0 {
		return ""
	}
	return strings.TrimSpace(raw[tag:])
}

// missingFields collects the names of required fields that are blank.
type missingFields []string

func (m *missingFields) text(name, v string) {
	if strings.TrimSpace(v) == "" {
		*m = append(*m, name)
	}
}

func (m *missingFields) list(name string, v []string) {
	for _, s := range v {
		if strings.TrimSpace(s) != "" {
			return
		}
	}
	*m = append(*m, name)
}

func (m missingFields) err() error {
	if len(m) == 0 {
		return nil
	}
	return fmt.Errorf("blank required fields: %s", strings.Join(m, ", "))
}

func checkMedicine(v *advisory.MedicineInfo) error {
	var m missingFields
	m.text("medicineName", v.MedicineName)
	m.text("description", v.Description)
	m.text("uses", v.Uses)
	m.text("howToUse", v.HowToUse)
	m.text("priceRange", v.PriceRange)
	m.list("sideEffects", v.SideEffects)
	m.text("foodInteractions", v.FoodInteractions)
	m.text("disclaimer", v.Disclaimer)
	return m.err()
}

func checkSymptoms(v *advisory.SymptomAnalysis) error {
	var m missingFields
	m.list("possibleConditions", v.PossibleConditions)
	m.text("advice", v.Advice)
	return m.err()
}

func checkEmergency(v *advisory.EmergencyInfo) error {
	var m missingFields
	m.list("immediateActions", v.ImmediateActions)
	m.text("professionalAdvice", v.ProfessionalAdvice)
	return m.err()
}

func checkInteraction(v *advisory.InteractionResult) error {
	var m missingFields
	m.text("summary", v.Summary)
	m.text("details", v.Details)
	return m.err()
}

func checkSchedule(v *advisory.DosageSchedule) error {
	var m missingFields
	m.text("notes", v.Notes)
	if len(v.Morning)+len(v.Afternoon)+len(v.Evening)+len(v.Night) == 0 {
		m = append(m, "morning/afternoon/evening/night")
	}
	return m.err()
}

// splitDataURI returns the MIME type and base64 payload of an image given
// either as raw base64 or as a data URI.
func splitDataURI(image string) (mimeType, data string) {
	mimeType = "image/jpeg"
	image = strings.TrimSpace(image)
	header, payload, found := strings.Cut(image, ",")
	if !found {
		return mimeType, image
	}
	if meta, ok := strings.CutPrefix(header, "data:"); ok {
		if t, _, _ := strings.Cut(meta, ";"); t != "" {
			mimeType = t
		}
	}
	return mimeType, payload
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

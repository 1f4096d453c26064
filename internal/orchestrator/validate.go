package orchestrator

import (
	"math"
	"strings"

	"github.com/mediguide-lk/mediguide/internal/advisory"
)

// MinInteractionMedicines is the fewest medicines an interaction check accepts.
const MinInteractionMedicines = 2

// normalize trims the payload and rejects requests that must not reach the
// gateway.
func normalize(req advisory.Request) (advisory.Request, error) {
	kind, ok := advisory.ParseKind(string(req.Kind))
	if !ok {
		return req, advisory.NewValidationError(req.Kind, "Unknown request type.")
	}
	req.Kind = kind

	switch kind {
	case advisory.KindImageIdentify, advisory.KindPharmacyLookup:
		// Language does not reach these prompts.
	default:
		if req.Language == "" {
			req.Language = advisory.English
		}
		lang, ok := advisory.ParseLanguage(string(req.Language))
		if !ok {
			return req, advisory.NewValidationError(kind, "Language must be English or Sinhala.")
		}
		req.Language = lang
	}

	switch kind {
	case advisory.KindMedicineLookup:
		return requireText(req, "Please enter a medicine name.")
	case advisory.KindSymptomAnalysis:
		return requireText(req, "Please describe your symptoms.")
	case advisory.KindEmergencyAid:
		return requireText(req, "Please choose an emergency situation.")
	case advisory.KindInteractionCheck:
		req.Medicines = cleanList(req.Medicines)
		if len(req.Medicines) < MinInteractionMedicines {
			return req, advisory.NewValidationError(kind, "Add at least two medicines to check interactions.")
		}
	case advisory.KindDosageSchedule:
		req.Medicines = cleanList(req.Medicines)
		if len(req.Medicines) == 0 {
			return req, advisory.NewValidationError(kind, "Add at least one medicine to build a schedule.")
		}
	case advisory.KindImageIdentify:
		req.Image = strings.TrimSpace(req.Image)
		_, payload, found := strings.Cut(req.Image, ",")
		if !found {
			payload = req.Image
		}
		if strings.TrimSpace(payload) == "" {
			return req, advisory.NewValidationError(kind, "Please provide an image.")
		}
	case advisory.KindPharmacyLookup:
		lat, lng := req.Location.Lat, req.Location.Lng
		if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return req, advisory.NewValidationError(kind, "Location coordinates are out of range.")
		}
	}
	return req, nil
}

func requireText(req advisory.Request, msg string) (advisory.Request, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return req, advisory.NewValidationError(req.Kind, msg)
	}
	return req, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

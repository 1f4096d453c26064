// Package gateway turns advisory requests into schema-constrained calls
// against a generative model and parses the answers into typed records.
package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/llm"
)

// MaxPharmacies caps the number of grounded pharmacy results.
const MaxPharmacies = 3

// Models selects the model used for each family of calls. Empty fields use
// the provider's default model.
type Models struct {
	Structured string
	Image      string
	Pharmacy   string
}

// Gateway issues exactly one provider call per advisory request. It never
// retries and never returns a partial record.
type Gateway struct {
	provider    llm.Provider
	models      Models
	temperature float64
	maxTokens   int
	meter       *llm.Meter
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTemperature sets the sampling temperature for every call.
func WithTemperature(t float64) Option {
	return func(g *Gateway) { g.temperature = t }
}

// WithMaxTokens caps the completion length for structured calls.
func WithMaxTokens(n int) Option {
	return func(g *Gateway) { g.maxTokens = n }
}

// WithMeter records token usage and estimated cost of every call.
func WithMeter(m *llm.Meter) Option {
	return func(g *Gateway) { g.meter = m }
}

// New creates a Gateway backed by provider.
func New(provider llm.Provider, models Models, opts ...Option) *Gateway {
	g := &Gateway{provider: provider, models: models, temperature: 0.2, maxTokens: 2048}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MedicineDetails describes a medicine by name.
func (g *Gateway) MedicineDetails(ctx context.Context, name string, lang advisory.Language) (*advisory.MedicineInfo, error) {
	var out advisory.MedicineInfo
	if err := g.structured(ctx, advisory.KindMedicineLookup, medicinePrompt(name, lang), "medicine_info", medicineSchema, &out); err != nil {
		return nil, err
	}
	if err := checkMedicine(&out); err != nil {
		return nil, advisory.NewGatewayFailure(advisory.KindMedicineLookup, err)
	}
	return &out, nil
}

// AnalyzeSymptoms triages a free-text symptom description.
func (g *Gateway) AnalyzeSymptoms(ctx context.Context, symptoms string, lang advisory.Language) (*advisory.SymptomAnalysis, error) {
	var out advisory.SymptomAnalysis
	if err := g.structured(ctx, advisory.KindSymptomAnalysis, symptomPrompt(symptoms, lang), "symptom_analysis", symptomSchema, &out); err != nil {
		return nil, err
	}
	if err := checkSymptoms(&out); err != nil {
		return nil, advisory.NewGatewayFailure(advisory.KindSymptomAnalysis, err)
	}
	if len(out.PossibleConditions) != 3 {
		log.Printf("gateway: symptom analysis returned %d conditions, expected 3", len(out.PossibleConditions))
	}
	return &out, nil
}

// EmergencyInstructions asks for first-aid steps for a situation.
func (g *Gateway) EmergencyInstructions(ctx context.Context, situation string, lang advisory.Language) (*advisory.EmergencyInfo, error) {
	var out advisory.EmergencyInfo
	if err := g.structured(ctx, advisory.KindEmergencyAid, emergencyPrompt(situation, lang), "emergency_info", emergencySchema, &out); err != nil {
		return nil, err
	}
	if err := checkEmergency(&out); err != nil {
		return nil, advisory.NewGatewayFailure(advisory.KindEmergencyAid, err)
	}
	return &out, nil
}

// CheckInteractions grades the interaction risk between medicines.
func (g *Gateway) CheckInteractions(ctx context.Context, medicines []string, lang advisory.Language) (*advisory.InteractionResult, error) {
	var out advisory.InteractionResult
	if err := g.structured(ctx, advisory.KindInteractionCheck, interactionPrompt(medicines, lang), "interaction_result", interactionSchema, &out); err != nil {
		return nil, err
	}
	if err := checkInteraction(&out); err != nil {
		return nil, advisory.NewGatewayFailure(advisory.KindInteractionCheck, err)
	}
	return &out, nil
}

// DosageSchedule spreads medicines over the day.
func (g *Gateway) DosageSchedule(ctx context.Context, medicines []string, lang advisory.Language) (*advisory.DosageSchedule, error) {
	var out advisory.DosageSchedule
	if err := g.structured(ctx, advisory.KindDosageSchedule, schedulePrompt(medicines, lang), "dosage_schedule", scheduleSchema, &out); err != nil {
		return nil, err
	}
	if err := checkSchedule(&out); err != nil {
		return nil, advisory.NewGatewayFailure(advisory.KindDosageSchedule, err)
	}
	return &out, nil
}

// IdentifyMedicine names the medicine shown in an image. image is base64,
// optionally wrapped in a data URI.
func (g *Gateway) IdentifyMedicine(ctx context.Context, image string) (string, error) {
	mimeType, data := splitDataURI(image)
	resp, err := g.complete(ctx, advisory.KindImageIdentify, llm.CompletionRequest{
		Model: g.models.Image,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: identifyPrompt,
			Images:  []llm.Image{{MIMEType: mimeType, Data: data}},
		}},
		Temperature: g.temperature,
	})
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(resp.Content)
	if name == "" {
		return "", advisory.NewGatewayFailure(advisory.KindImageIdentify, errEmptyResponse)
	}
	return name, nil
}

// NearbyPharmacies lists up to three map-grounded pharmacies near a point.
// No grounded results is an empty list, not an error.
func (g *Gateway) NearbyPharmacies(ctx context.Context, lat, lng float64) ([]advisory.PharmacyLocation, error) {
	resp, err := g.complete(ctx, advisory.KindPharmacyLookup, llm.CompletionRequest{
		Model:         g.models.Pharmacy,
		Messages:      []llm.Message{{Role: llm.RoleUser, Content: pharmacyPrompt(lat, lng)}},
		Temperature:   g.temperature,
		MapsGrounding: &llm.LatLng{Latitude: lat, Longitude: lng},
	})
	if err != nil {
		return nil, err
	}

	out := make([]advisory.PharmacyLocation, 0, MaxPharmacies)
	for _, src := range resp.Grounding {
		if src.Kind != "maps" {
			continue
		}
		out = append(out, advisory.PharmacyLocation{Name: src.Title, URI: src.URI})
		if len(out) == MaxPharmacies {
			break
		}
	}
	return out, nil
}

func (g *Gateway) structured(ctx context.Context, kind advisory.Kind, prompt, schemaName string, schema jsonschema.Definition, v any) error {
	resp, err := g.complete(ctx, kind, llm.CompletionRequest{
		Model:          g.models.Structured,
		Messages:       []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:      g.maxTokens,
		Temperature:    g.temperature,
		ResponseSchema: &schema,
		SchemaName:     schemaName,
	})
	if err != nil {
		return err
	}
	if err := decodeStructured(resp.Content, schema, v); err != nil {
		return advisory.NewGatewayFailure(kind, err)
	}
	return nil
}

func (g *Gateway) complete(ctx context.Context, kind advisory.Kind, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return nil, advisory.NewGatewayFailure(kind, fmt.Errorf("%s: %w", g.provider.Name(), err))
	}
	model := resp.Model
	if model == "" {
		model = req.Model
	}
	var cost float64
	if g.meter != nil {
		cost = g.meter.Record(model, resp)
	} else {
		cost = llm.EstimateCost(model, resp.InputTokens, resp.OutputTokens)
	}
	log.Printf("gateway: %s via %s/%s tokens=%d/%d cost=$%.5f",
		kind, g.provider.Name(), model, resp.InputTokens, resp.OutputTokens, cost)
	return resp, nil
}

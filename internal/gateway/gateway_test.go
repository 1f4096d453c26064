package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/llm"
)

// mockProvider returns a canned response and records every request.
type mockProvider struct {
	mu       sync.Mutex
	calls    []llm.CompletionRequest
	response *llm.CompletionResponse
	err      error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func replying(content string) *mockProvider {
	return &mockProvider{response: &llm.CompletionResponse{Content: content, Model: "gemini-3-pro-preview", InputTokens: 100, OutputTokens: 50}}
}

var testModels = Models{Structured: "gemini-3-pro-preview", Image: "gemini-3-flash-preview", Pharmacy: "gemini-2.5-flash"}

const panadolJSON = `{
	"medicineName": "Panadol",
	"description": "Paracetamol tablet for pain and fever.",
	"uses": "Headache, fever, mild pain",
	"howToUse": "1-2 tablets every 4-6 hours, max 8 per day",
	"priceRange": "LKR 5-10 per tablet",
	"sideEffects": ["Nausea", "Rash", "Liver damage in overdose"],
	"foodInteractions": "Avoid alcohol",
	"disclaimer": "Consult a doctor before use."
}`

func TestMedicineDetailsSuccess(t *testing.T) {
	p := replying(panadolJSON)
	g := New(p, testModels)

	info, err := g.MedicineDetails(context.Background(), "Panadol", advisory.English)
	if err != nil {
		t.Fatalf("MedicineDetails: %v", err)
	}
	if info.MedicineName != "Panadol" || info.PriceRange != "LKR 5-10 per tablet" {
		t.Errorf("unexpected info %+v", info)
	}
	if len(info.SideEffects) != 3 || info.SideEffects[2] != "Liver damage in overdose" {
		t.Errorf("unexpected side effects %v", info.SideEffects)
	}

	if len(p.calls) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(p.calls))
	}
	req := p.calls[0]
	if req.Model != "gemini-3-pro-preview" {
		t.Errorf("expected structured model, got %q", req.Model)
	}
	if req.ResponseSchema == nil || req.SchemaName != "medicine_info" {
		t.Errorf("expected medicine schema on request")
	}
	prompt := req.Messages[0].Content
	if !strings.Contains(prompt, `"Panadol"`) || !strings.Contains(prompt, `"English"`) {
		t.Errorf("prompt missing name or language: %s", prompt)
	}
}

func TestMeterRecordsEachCall(t *testing.T) {
	meter := &llm.Meter{}
	g := New(replying(panadolJSON), testModels, WithMeter(meter))

	for i := 0; i < 2; i++ {
		if _, err := g.MedicineDetails(context.Background(), "Panadol", advisory.English); err != nil {
			t.Fatalf("MedicineDetails: %v", err)
		}
	}
	u := meter.ByModel()["gemini-3-pro-preview"]
	if u.Calls != 2 || u.InputTokens != 200 || u.OutputTokens != 100 {
		t.Errorf("unexpected usage %+v", u)
	}
	if u.CostUSD <= 0 {
		t.Errorf("expected a cost for a priced model, got %f", u.CostUSD)
	}
}

func TestMedicineDetailsMissingFieldFails(t *testing.T) {
	body := strings.Replace(panadolJSON, `"sideEffects": ["Nausea", "Rash", "Liver damage in overdose"],`, "", 1)
	g := New(replying(body), testModels)

	info, err := g.MedicineDetails(context.Background(), "Panadol", advisory.English)
	if info != nil {
		t.Errorf("expected no partial record, got %+v", info)
	}
	if !advisory.IsGatewayFailure(err) {
		t.Fatalf("expected GatewayFailure, got %v", err)
	}
	if advisory.UserMessage(err) != "Failed to retrieve medicine info." {
		t.Errorf("unexpected user message %q", advisory.UserMessage(err))
	}
}

func TestMedicineDetailsBlankFieldFails(t *testing.T) {
	body := strings.Replace(panadolJSON, `"Avoid alcohol"`, `"  "`, 1)
	g := New(replying(body), testModels)

	if _, err := g.MedicineDetails(context.Background(), "Panadol", advisory.English); !advisory.IsGatewayFailure(err) {
		t.Fatalf("expected GatewayFailure for blank field, got %v", err)
	}
}

func TestStructuredParseFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"not json", "I cannot help with that."},
		{"wrong type", `{"riskLevel": "High", "summary": 3, "details": "x"}`},
		{"bad enum", `{"riskLevel": "Severe", "summary": "s", "details": "d"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(replying(tt.content), testModels)
			res, err := g.CheckInteractions(context.Background(), []string{"Warfarin", "Aspirin"}, advisory.English)
			if res != nil || !advisory.IsGatewayFailure(err) {
				t.Errorf("expected GatewayFailure, got %+v, %v", res, err)
			}
		})
	}
}

func TestCodeFencedJSONAccepted(t *testing.T) {
	g := New(replying("```json\n{\"riskLevel\": \"High\", \"summary\": \"Bleeding risk\", \"details\": \"Both thin the blood.\"}\n```"), testModels)
	res, err := g.CheckInteractions(context.Background(), []string{"Warfarin", "Aspirin"}, advisory.English)
	if err != nil {
		t.Fatalf("CheckInteractions: %v", err)
	}
	if res.RiskLevel != advisory.RiskHigh {
		t.Errorf("expected High risk, got %q", res.RiskLevel)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"multi-line with tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"multi-line bare", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line", "```{\"a\":1}```", `{"a":1}`},
		{"single line with tag", "```json {\"a\":1}```", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
		{"empty fence", "``````", ""},
		{"tag only", "```json\n```", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSingleLineFencedJSONAccepted(t *testing.T) {
	g := New(replying("```{\"riskLevel\": \"Low\", \"summary\": \"No known interaction\", \"details\": \"Safe together.\"}```"), testModels)
	res, err := g.CheckInteractions(context.Background(), []string{"Panadol", "Vitamin C"}, advisory.English)
	if err != nil {
		t.Fatalf("CheckInteractions: %v", err)
	}
	if res.RiskLevel != advisory.RiskLow {
		t.Errorf("expected Low risk, got %q", res.RiskLevel)
	}
}

func TestTransportErrorIsGatewayFailure(t *testing.T) {
	p := &mockProvider{err: errors.New("connection reset")}
	g := New(p, testModels)

	_, err := g.EmergencyInstructions(context.Background(), "Snake Bite", advisory.Sinhala)
	if !advisory.IsGatewayFailure(err) {
		t.Fatalf("expected GatewayFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected cause to be retained, got %v", err)
	}
	if strings.Contains(advisory.UserMessage(err), "connection reset") {
		t.Error("user message must not leak the cause")
	}
}

func TestAnalyzeSymptoms(t *testing.T) {
	g := New(replying(`{"possibleConditions": ["Flu", "Cold", "Dengue"], "advice": "Rest and hydrate.", "suggestedMeds": ["Paracetamol"], "urgency": "Medium"}`), testModels)
	res, err := g.AnalyzeSymptoms(context.Background(), "fever and body ache", advisory.English)
	if err != nil {
		t.Fatalf("AnalyzeSymptoms: %v", err)
	}
	if res.Urgency != advisory.UrgencyMedium || len(res.PossibleConditions) != 3 {
		t.Errorf("unexpected analysis %+v", res)
	}
}

func TestDosageScheduleRequiresSomeSlot(t *testing.T) {
	g := New(replying(`{"morning": [], "afternoon": [], "evening": [], "night": [], "notes": "none"}`), testModels)
	if _, err := g.DosageSchedule(context.Background(), []string{"Metformin"}, advisory.English); !advisory.IsGatewayFailure(err) {
		t.Fatalf("expected GatewayFailure for empty schedule, got %v", err)
	}

	g = New(replying(`{"morning": ["Metformin 500mg"], "afternoon": [], "evening": ["Metformin 500mg"], "night": [], "notes": "Take with food."}`), testModels)
	res, err := g.DosageSchedule(context.Background(), []string{"Metformin"}, advisory.English)
	if err != nil {
		t.Fatalf("DosageSchedule: %v", err)
	}
	if len(res.Morning) != 1 || res.Notes != "Take with food." {
		t.Errorf("unexpected schedule %+v", res)
	}
}

func TestIdentifyMedicineStripsDataURI(t *testing.T) {
	p := replying("  Panadol Extra \n")
	g := New(p, testModels)

	name, err := g.IdentifyMedicine(context.Background(), "data:image/png;base64,iVBORw0KGgo=")
	if err != nil {
		t.Fatalf("IdentifyMedicine: %v", err)
	}
	if name != "Panadol Extra" {
		t.Errorf("expected trimmed name, got %q", name)
	}

	req := p.calls[0]
	if req.Model != "gemini-3-flash-preview" {
		t.Errorf("expected image model, got %q", req.Model)
	}
	img := req.Messages[0].Images[0]
	if img.MIMEType != "image/png" || img.Data != "iVBORw0KGgo=" {
		t.Errorf("unexpected image part %+v", img)
	}
	if req.Messages[0].Content != identifyPrompt {
		t.Errorf("unexpected prompt %q", req.Messages[0].Content)
	}
}

func TestIdentifyMedicineRawBase64DefaultsToJPEG(t *testing.T) {
	p := replying("Amoxicillin")
	g := New(p, testModels)
	if _, err := g.IdentifyMedicine(context.Background(), "/9j/4AAQSkZJRg=="); err != nil {
		t.Fatal(err)
	}
	if img := p.calls[0].Messages[0].Images[0]; img.MIMEType != "image/jpeg" || img.Data != "/9j/4AAQSkZJRg==" {
		t.Errorf("unexpected image part %+v", img)
	}
}

func TestIdentifyMedicineEmptyAnswerFails(t *testing.T) {
	g := New(replying("   "), testModels)
	if _, err := g.IdentifyMedicine(context.Background(), "abc"); !advisory.IsGatewayFailure(err) {
		t.Fatalf("expected GatewayFailure, got %v", err)
	}
}

func TestNearbyPharmacies(t *testing.T) {
	p := &mockProvider{response: &llm.CompletionResponse{
		Content: "Here are some pharmacies.",
		Grounding: []llm.GroundingSource{
			{Kind: "web", Title: "Blog", URI: "https://blog.example"},
			{Kind: "maps", Title: "Union Chemists", URI: "https://maps.google.com/?cid=1"},
			{Kind: "maps", Title: "Healthguard", URI: "https://maps.google.com/?cid=2"},
			{Kind: "maps", Title: "Osu Sala", URI: "https://maps.google.com/?cid=3"},
			{Kind: "maps", Title: "City Pharmacy", URI: "https://maps.google.com/?cid=4"},
		},
	}}
	g := New(p, testModels)

	got, err := g.NearbyPharmacies(context.Background(), 6.9271, 79.8612)
	if err != nil {
		t.Fatalf("NearbyPharmacies: %v", err)
	}
	if len(got) != MaxPharmacies {
		t.Fatalf("expected %d pharmacies, got %d", MaxPharmacies, len(got))
	}
	if got[0].Name != "Union Chemists" || got[2].Name != "Osu Sala" {
		t.Errorf("unexpected pharmacies %+v", got)
	}

	req := p.calls[0]
	if req.MapsGrounding == nil || req.MapsGrounding.Latitude != 6.9271 {
		t.Errorf("expected maps grounding at the given point, got %+v", req.MapsGrounding)
	}
	if req.Model != "gemini-2.5-flash" {
		t.Errorf("expected pharmacy model, got %q", req.Model)
	}
}

func TestNearbyPharmaciesNoGroundingIsEmptySuccess(t *testing.T) {
	g := New(replying("No pharmacies found."), testModels)
	got, err := g.NearbyPharmacies(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}

func TestPromptsAreDeterministic(t *testing.T) {
	if medicinePrompt("Panadol", advisory.Sinhala) != medicinePrompt("Panadol", advisory.Sinhala) {
		t.Error("medicine prompt is not deterministic")
	}
	if !strings.Contains(emergencyPrompt("Choking", advisory.English), advisory.EmergencyNumber) {
		t.Error("emergency prompt should mention the local emergency number")
	}
	if got := interactionPrompt([]string{"A", "B"}, advisory.English); !strings.Contains(got, "A, B") {
		t.Errorf("interaction prompt missing medicine list: %s", got)
	}
	if got := pharmacyPrompt(6.9271, 79.8612); !strings.Contains(got, "(6.9271, 79.8612)") {
		t.Errorf("unexpected pharmacy prompt %s", got)
	}
}

func TestSplitDataURI(t *testing.T) {
	tests := []struct {
		in, mime, data string
	}{
		{"abc", "image/jpeg", "abc"},
		{"data:image/webp;base64,xyz", "image/webp", "xyz"},
		{"data:;base64,xyz", "image/jpeg", "xyz"},
	}
	for _, tt := range tests {
		mime, data := splitDataURI(tt.in)
		if mime != tt.mime || data != tt.data {
			t.Errorf("splitDataURI(%q) = %q, %q; want %q, %q", tt.in, mime, data, tt.mime, tt.data)
		}
	}
}

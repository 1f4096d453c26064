package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/mediguide-lk/mediguide/internal/credentials"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func isolateCredentials(t *testing.T) {
	t.Helper()
	t.Setenv(credentials.DirEnv, t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
}

var testSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"name": {Type: jsonschema.String},
	},
	Required: []string{"name"},
}

// --- Factory ---

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	isolateCredentials(t)

	for _, p := range []string{"openai", "google"} {
		if _, err := NewProvider(context.Background(), p, "some-model"); err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	if _, err := NewProvider(context.Background(), "anthropic", "some-model"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestFactoryCreatesOllamaWithDefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	provider, err := NewProvider(context.Background(), "ollama", "llama3.2-vision")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ollamaP, ok := provider.(*OllamaProvider)
	if !ok {
		t.Fatal("expected *OllamaProvider")
	}
	if ollamaP.baseURL != "http://localhost:11434" {
		t.Errorf("expected default host, got %q", ollamaP.baseURL)
	}
}

func TestFactoryUsesStoredGoogleKey(t *testing.T) {
	isolateCredentials(t)
	if err := credentials.Save(&credentials.Credentials{Google: &credentials.GoogleCredentials{APIKey: "stored"}}); err != nil {
		t.Fatal(err)
	}

	provider, err := NewProvider(context.Background(), "google", "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gp, ok := provider.(*GoogleProvider)
	if !ok {
		t.Fatalf("expected *GoogleProvider, got %T", provider)
	}
	if gp.apiKey != "stored" {
		t.Errorf("expected stored key, got %q", gp.apiKey)
	}
}

func TestFactoryCreatesOpenAIProvider(t *testing.T) {
	isolateCredentials(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	provider, err := NewProvider(context.Background(), "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", provider.Name())
	}
}

// --- Rate limiter ---

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 60)

	resp, err := rl.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	mock := NewMockProvider("test")
	if got := NewRateLimitedProvider(mock, 0); got != Provider(mock) {
		t.Error("expected rpm 0 to return the provider unchanged")
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req := CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hello"}}}
	for i := 0; i < 2; i++ {
		if _, err := rl.Complete(ctx, req); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	if _, err := rl.Complete(ctx, req); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error from rate limiting, got %v", err)
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := &RateLimitedProvider{provider: NewMockProvider("test"), rpm: 2, window: time.Minute}
	start := time.Now()

	if d := rl.reserve(start); d != 0 {
		t.Fatalf("first call delayed %v", d)
	}
	if d := rl.reserve(start.Add(10 * time.Second)); d != 0 {
		t.Fatalf("second call delayed %v", d)
	}
	if d := rl.reserve(start.Add(20 * time.Second)); d != 40*time.Second {
		t.Errorf("expected 40s until the first call expires, got %v", d)
	}
	if d := rl.reserve(start.Add(61 * time.Second)); d != 0 {
		t.Errorf("expected a free slot after the window, got %v", d)
	}
}

// --- Usage ---

func TestEstimateCostKnownModels(t *testing.T) {
	for _, model := range []string{"gemini-3-pro-preview", "gemini-3-flash-preview", "gemini-2.5-flash", "gpt-4o"} {
		if cost := EstimateCost(model, 1000, 500); cost <= 0 {
			t.Errorf("EstimateCost(%q) = %f, expected > 0", model, cost)
		}
	}
}

func TestEstimateCostUnknownModel(t *testing.T) {
	if cost := EstimateCost("llama3.2-vision", 1000, 500); cost != 0 {
		t.Errorf("expected 0 for unknown model, got %f", cost)
	}
}

func TestEstimateCostAccuracy(t *testing.T) {
	// gemini-2.5-flash: $0.30/1M input, $2.50/1M output
	cost := EstimateCost("gemini-2.5-flash", 1_000_000, 1_000_000)
	if cost < 2.79 || cost > 2.81 {
		t.Errorf("expected cost ~$2.80, got $%.2f", cost)
	}
}

func TestMeterTotals(t *testing.T) {
	var m Meter
	if got := m.Total(); got.Calls != 0 {
		t.Fatalf("expected empty meter, got %+v", got)
	}

	m.Record("gemini-2.5-flash", &CompletionResponse{InputTokens: 1_000_000})
	m.Record("gemini-2.5-flash", &CompletionResponse{OutputTokens: 1_000_000})
	m.Record("llava", &CompletionResponse{InputTokens: 7, OutputTokens: 3})

	byModel := m.ByModel()
	if len(byModel) != 2 {
		t.Fatalf("expected 2 models, got %v", byModel)
	}
	if u := byModel["llava"]; u.Calls != 1 || u.CostUSD != 0 {
		t.Errorf("unexpected llava usage %+v", u)
	}

	total := m.Total()
	if total.Calls != 3 || total.InputTokens != 1_000_007 || total.OutputTokens != 1_000_003 {
		t.Errorf("unexpected totals %+v", total)
	}
	if total.CostUSD < 2.79 || total.CostUSD > 2.81 {
		t.Errorf("expected ~$2.80, got %f", total.CostUSD)
	}
	if !strings.Contains(total.String(), "3 calls") {
		t.Errorf("unexpected summary %q", total.String())
	}
}

// --- Google ---

func newGoogleTestServer(t *testing.T, reply string, capture *map[string]any) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "k" {
			t.Errorf("expected api key header, got %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if capture != nil {
			if err := json.Unmarshal(body, capture); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	p := NewGoogleProvider("k", "gemini-2.5-flash")
	p.baseURL = srv.URL
	return p
}

func TestGoogleSendsSchemaAndImage(t *testing.T) {
	var sent map[string]any
	p := newGoogleTestServer(t, `{
		"candidates": [{"content": {"parts": [{"text": "{\"name\":"}, {"text": "\"Panadol\"}"}]}, "finishReason": "STOP"}],
		"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 4}
	}`, &sent)

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "identify", Images: []Image{{MIMEType: "image/jpeg", Data: "QUJD"}}},
		},
		ResponseSchema: testSchema,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"name":"Panadol"}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 4 {
		t.Errorf("unexpected usage %d/%d", resp.InputTokens, resp.OutputTokens)
	}

	gen := sent["generationConfig"].(map[string]any)
	if gen["responseMimeType"] != "application/json" {
		t.Errorf("expected JSON mime type, got %v", gen["responseMimeType"])
	}
	schema, ok := gen["responseJsonSchema"].(map[string]any)
	if !ok || schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", gen["responseJsonSchema"])
	}

	contents := sent["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected image + text parts, got %d", len(parts))
	}
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	if inline["mimeType"] != "image/jpeg" || inline["data"] != "QUJD" {
		t.Errorf("unexpected inline data %v", inline)
	}
	if sent["systemInstruction"] == nil {
		t.Error("expected system instruction")
	}
}

func TestGoogleMapsGrounding(t *testing.T) {
	var sent map[string]any
	p := newGoogleTestServer(t, `{
		"candidates": [{
			"content": {"parts": [{"text": "Here are some pharmacies."}]},
			"groundingMetadata": {"groundingChunks": [
				{"maps": {"uri": "https://maps.google.com/?cid=1", "title": "City Pharmacy"}},
				{"web": {"uri": "https://example.lk", "title": "Example"}}
			]}
		}]
	}`, &sent)

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:      []Message{{Role: RoleUser, Content: "pharmacies near me"}},
		MapsGrounding: &LatLng{Latitude: 6.9271, Longitude: 79.8612},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(resp.Grounding) != 2 {
		t.Fatalf("expected 2 grounding sources, got %d", len(resp.Grounding))
	}
	if resp.Grounding[0] != (GroundingSource{Kind: "maps", Title: "City Pharmacy", URI: "https://maps.google.com/?cid=1"}) {
		t.Errorf("unexpected maps chunk %+v", resp.Grounding[0])
	}
	if resp.Grounding[1].Kind != "web" {
		t.Errorf("expected web chunk, got %+v", resp.Grounding[1])
	}

	tools := sent["tools"].([]any)
	if _, ok := tools[0].(map[string]any)["googleMaps"]; !ok {
		t.Errorf("expected googleMaps tool, got %v", tools)
	}
	latLng := sent["toolConfig"].(map[string]any)["retrievalConfig"].(map[string]any)["latLng"].(map[string]any)
	if latLng["latitude"] != 6.9271 || latLng["longitude"] != 79.8612 {
		t.Errorf("unexpected latLng %v", latLng)
	}
}

func TestGoogleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`)
	}))
	defer srv.Close()

	p := NewGoogleProvider("bad", "gemini-2.5-flash")
	p.baseURL = srv.URL
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if err == nil || !strings.Contains(err.Error(), "PERMISSION_DENIED") {
		t.Errorf("expected permission error, got %v", err)
	}
}

func TestGoogleRequiresUserContent(t *testing.T) {
	p := NewGoogleProvider("k", "gemini-2.5-flash")
	if _, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleSystem, Content: "x"}}}); err == nil {
		t.Error("expected error without user content")
	}
}

// --- Ollama ---

func TestOllamaSendsSchemaFormatAndImages(t *testing.T) {
	var sent map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &sent)
		io.WriteString(w, `{"message": {"role": "assistant", "content": "{\"name\":\"x\"}"}, "model": "llava", "done": true, "prompt_eval_count": 3, "eval_count": 2}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llava")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:       []Message{{Role: RoleUser, Content: "what is this", Images: []Image{{MIMEType: "image/png", Data: "QUJD"}}}},
		ResponseSchema: testSchema,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"name":"x"}` || resp.InputTokens != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
	if _, ok := sent["format"].(map[string]any); !ok {
		t.Errorf("expected schema object in format, got %v", sent["format"])
	}
	msg := sent["messages"].([]any)[0].(map[string]any)
	if imgs := msg["images"].([]any); len(imgs) != 1 || imgs[0] != "QUJD" {
		t.Errorf("unexpected images %v", msg["images"])
	}
}

func TestProvidersRejectMapsGrounding(t *testing.T) {
	req := CompletionRequest{
		Messages:      []Message{{Role: RoleUser, Content: "x"}},
		MapsGrounding: &LatLng{},
	}
	for _, p := range []Provider{NewOllamaProvider("http://127.0.0.1:1", "m"), NewOpenAIProvider("k", "gpt-4o")} {
		if _, err := p.Complete(context.Background(), req); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", p.Name(), err)
		}
	}
}

// --- OpenAI ---

func TestOpenAISendsJSONSchemaAndImageParts(t *testing.T) {
	var sent map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &sent)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "1", "model": "gpt-4o", "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"name\":\"x\"}"}, "finish_reason": "stop"}], "usage": {"prompt_tokens": 5, "completion_tokens": 3}}`)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("k")
	cfg.BaseURL = srv.URL
	p := NewOpenAIProviderWithConfig(cfg, "gpt-4o")

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:       []Message{{Role: RoleUser, Content: "identify", Images: []Image{{MIMEType: "image/jpeg", Data: "QUJD"}}}},
		ResponseSchema: testSchema,
		SchemaName:     "medicine_name",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"name":"x"}` || resp.OutputTokens != 3 {
		t.Errorf("unexpected response %+v", resp)
	}

	format := sent["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Errorf("expected json_schema format, got %v", format["type"])
	}
	if format["json_schema"].(map[string]any)["name"] != "medicine_name" {
		t.Errorf("unexpected schema name %v", format["json_schema"])
	}
	msg := sent["messages"].([]any)[0].(map[string]any)
	parts, ok := msg["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected multi-part content, got %v", msg["content"])
	}
	imageURL := parts[1].(map[string]any)["image_url"].(map[string]any)["url"]
	if imageURL != "data:image/jpeg;base64,QUJD" {
		t.Errorf("unexpected image url %v", imageURL)
	}
}

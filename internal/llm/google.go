package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const googleAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GoogleProvider implements Provider using the Google Gemini API via direct HTTP.
// It supports schema-constrained JSON, inline images and Google Maps grounding.
type GoogleProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGoogleProvider creates a new Google Gemini provider authenticated by API key.
func NewGoogleProvider(apiKey string, model string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: googleAPIBaseURL,
		client:  &http.Client{},
	}
}

// NewGoogleProviderWithClient creates a Gemini provider that relies on client
// for authentication, e.g. an oauth2 client.
func NewGoogleProviderWithClient(client *http.Client, model string) *GoogleProvider {
	return &GoogleProvider{
		model:   model,
		baseURL: googleAPIBaseURL,
		client:  client,
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	ToolConfig        *geminiToolConfig       `json:"toolConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens    int     `json:"maxOutputTokens,omitempty"`
	Temperature        float64 `json:"temperature"`
	ResponseMIMEType   string  `json:"responseMimeType,omitempty"`
	ResponseJSONSchema any     `json:"responseJsonSchema,omitempty"`
}

type geminiTool struct {
	GoogleMaps *struct{} `json:"googleMaps,omitempty"`
}

type geminiToolConfig struct {
	RetrievalConfig geminiRetrievalConfig `json:"retrievalConfig"`
}

type geminiRetrievalConfig struct {
	LatLng geminiLatLng `json:"latLng"`
}

type geminiLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata"`
	Error         *geminiError         `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content           *geminiContent           `json:"content"`
	FinishReason      string                   `json:"finishReason"`
	GroundingMetadata *geminiGroundingMetadata `json:"groundingMetadata,omitempty"`
}

type geminiGroundingMetadata struct {
	GroundingChunks []geminiGroundingChunk `json:"groundingChunks"`
}

type geminiGroundingChunk struct {
	Maps *geminiGroundingRef `json:"maps,omitempty"`
	Web  *geminiGroundingRef `json:"web,omitempty"`
}

type geminiGroundingRef struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	var systemParts []geminiPart
	var contents []geminiContent

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, geminiPart{Text: msg.Content})
		case RoleUser:
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: userParts(msg),
			})
		case RoleAssistant:
			contents = append(contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini request has no user content")
	}

	apiReq := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			Temperature: req.Temperature,
		},
	}

	if len(systemParts) > 0 {
		apiReq.SystemInstruction = &geminiContent{
			Parts: systemParts,
		}
	}

	if req.MaxTokens > 0 {
		apiReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}

	if req.JSONMode || req.ResponseSchema != nil {
		apiReq.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if req.ResponseSchema != nil {
		apiReq.GenerationConfig.ResponseJSONSchema = req.ResponseSchema
	}

	if req.MapsGrounding != nil {
		apiReq.Tools = []geminiTool{{GoogleMaps: &struct{}{}}}
		apiReq.ToolConfig = &geminiToolConfig{
			RetrievalConfig: geminiRetrievalConfig{
				LatLng: geminiLatLng{
					Latitude:  req.MapsGrounding.Latitude,
					Longitude: req.MapsGrounding.Longitude,
				},
			},
		}
	}

	header := http.Header{}
	if p.apiKey != "" {
		header.Set("x-goog-api-key", p.apiKey)
	}
	status, data, err := postJSON(ctx, p.client, fmt.Sprintf("%s/%s:generateContent", p.baseURL, model), header, apiReq)
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", model, err)
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("decoding gemini response (status %d): %w", status, err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("gemini API error (%s): %s", apiResp.Error.Status, apiResp.Error.Message)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d: %s", status, data)
	}

	out := &CompletionResponse{Model: model}
	if len(apiResp.Candidates) > 0 {
		cand := apiResp.Candidates[0]
		out.FinishReason = cand.FinishReason
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				out.Content += part.Text
			}
		}
		if cand.GroundingMetadata != nil {
			for _, chunk := range cand.GroundingMetadata.GroundingChunks {
				switch {
				case chunk.Maps != nil:
					out.Grounding = append(out.Grounding, GroundingSource{Kind: "maps", Title: chunk.Maps.Title, URI: chunk.Maps.URI})
				case chunk.Web != nil:
					out.Grounding = append(out.Grounding, GroundingSource{Kind: "web", Title: chunk.Web.Title, URI: chunk.Web.URI})
				}
			}
		}
	}

	if apiResp.UsageMetadata != nil {
		out.InputTokens = apiResp.UsageMetadata.PromptTokenCount
		out.OutputTokens = apiResp.UsageMetadata.CandidatesTokenCount
	}

	return out, nil
}

// userParts renders images first, then the text prompt.
func userParts(msg Message) []geminiPart {
	parts := make([]geminiPart, 0, len(msg.Images)+1)
	for _, img := range msg.Images {
		parts = append(parts, geminiPart{InlineData: &geminiBlob{MIMEType: img.MIMEType, Data: img.Data}})
	}
	if msg.Content != "" || len(parts) == 0 {
		parts = append(parts, geminiPart{Text: msg.Content})
	}
	return parts
}

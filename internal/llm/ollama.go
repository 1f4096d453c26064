package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OllamaProvider talks to a local Ollama daemon. It has no maps grounding, so
// pharmacy lookups need another provider.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{baseURL: baseURL, model: model, client: &http.Client{}}
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
	Format   any             `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	Model           string        `json:"model"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if req.MapsGrounding != nil {
		return nil, fmt.Errorf("ollama maps grounding: %w", ErrUnsupported)
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]ollamaMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = ollamaMessage{Role: string(msg.Role), Content: msg.Content}
		for _, img := range msg.Images {
			messages[i].Images = append(messages[i].Images, img.Data)
		}
	}

	ollamaReq := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Options:  ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}

	// Ollama accepts either "json" or a full JSON schema in format.
	switch {
	case req.ResponseSchema != nil:
		ollamaReq.Format = req.ResponseSchema
	case req.JSONMode:
		ollamaReq.Format = "json"
	}

	status, data, err := postJSON(ctx, p.client, p.baseURL+"/api/chat", nil, ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("ollama %s: %w", model, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", status, data)
	}

	var ollamaResp ollamaChatResponse
	if err := json.Unmarshal(data, &ollamaResp); err != nil {
		return nil, fmt.Errorf("decoding ollama response: %w", err)
	}

	return &CompletionResponse{
		Content:      ollamaResp.Message.Content,
		InputTokens:  ollamaResp.PromptEvalCount,
		OutputTokens: ollamaResp.EvalCount,
		Model:        ollamaResp.Model,
		FinishReason: ollamaResp.DoneReason,
	}, nil
}

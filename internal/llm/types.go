package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Provider is a generative model backend. Implementations make exactly one
// upstream call per Complete and leave retries to the caller.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// ErrUnsupported is returned when a provider cannot serve a request feature,
// such as maps grounding on a provider without it.
var ErrUnsupported = errors.New("llm: feature not supported by provider")

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Image is an inline image attached to a user message. Data is base64 text
// without any data URI prefix.
type Image struct {
	MIMEType string
	Data     string
}

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
	Images  []Image
}

// LatLng anchors location-grounded requests.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool

	// ResponseSchema constrains the JSON output. Implies JSONMode.
	ResponseSchema *jsonschema.Definition
	// SchemaName labels the schema for providers that require one.
	SchemaName string

	// MapsGrounding enables place grounding around the given point.
	MapsGrounding *LatLng
}

// GroundingSource is one grounding chunk returned alongside a completion.
type GroundingSource struct {
	Kind  string // "maps" or "web"
	Title string
	URI   string
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
	Grounding    []GroundingSource
}

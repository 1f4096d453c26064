package llm

import (
	"fmt"
	"sync"
)

// pricing is USD per million tokens.
type pricing struct {
	input, output float64
}

var prices = map[string]pricing{
	"gemini-3-pro-preview":   {2.00, 12.00},
	"gemini-3-flash-preview": {0.50, 3.00},
	"gemini-2.5-pro":         {1.25, 10.00},
	"gemini-2.5-flash":       {0.30, 2.50},
	"gemini-2.0-flash":       {0.10, 0.40},
	"gpt-4o":                 {2.50, 10.00},
	"gpt-4o-mini":            {0.15, 0.60},
	"gpt-4.1":                {2.00, 8.00},
}

// EstimateCost returns the USD cost of a call. Unknown and local models
// cost nothing.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := prices[model]
	if !ok {
		return 0
	}
	return (float64(inputTokens)*p.input + float64(outputTokens)*p.output) / 1_000_000
}

// Usage totals provider calls.
type Usage struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	CostUSD      float64 `json:"costUsd"`
}

func (u Usage) String() string {
	return fmt.Sprintf("%d calls, %d/%d tokens, ~$%.4f", u.Calls, u.InputTokens, u.OutputTokens, u.CostUSD)
}

// Meter accumulates usage per model. The zero value is ready to use.
type Meter struct {
	mu      sync.Mutex
	byModel map[string]Usage
}

// Record adds one completed call and returns its estimated cost.
func (m *Meter) Record(model string, resp *CompletionResponse) float64 {
	cost := EstimateCost(model, resp.InputTokens, resp.OutputTokens)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byModel == nil {
		m.byModel = make(map[string]Usage)
	}
	u := m.byModel[model]
	u.Calls++
	u.InputTokens += resp.InputTokens
	u.OutputTokens += resp.OutputTokens
	u.CostUSD += cost
	m.byModel[model] = u
	return cost
}

// ByModel returns a copy of the per-model totals.
func (m *Meter) ByModel() map[string]Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Usage, len(m.byModel))
	for k, v := range m.byModel {
		out[k] = v
	}
	return out
}

// Total sums every model.
func (m *Meter) Total() Usage {
	var t Usage
	for _, u := range m.ByModel() {
		t.Calls += u.Calls
		t.InputTokens += u.InputTokens
		t.OutputTokens += u.OutputTokens
		t.CostUSD += u.CostUSD
	}
	return t
}

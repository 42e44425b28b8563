// Package cost prices worker invocations in USD.
package cost

import (
	"sort"
	"strings"

	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/model"
)

// Pricing is a price per one million tokens.
type Pricing struct {
	InputUSDPer1M  float64 `json:"inputUsdPer1M" yaml:"inputUsdPer1M"`
	OutputUSDPer1M float64 `json:"outputUsdPer1M" yaml:"outputUsdPer1M"`
}

// Cost returns the price of the given token counts.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1_000_000*p.InputUSDPer1M +
		float64(outputTokens)/1_000_000*p.OutputUSDPer1M
}

type rule struct {
	prefix  string
	pricing Pricing
}

// Built-in prices, matched by model name prefix.
var builtin = []rule{
	{prefix: "gpt-5.2", pricing: Pricing{InputUSDPer1M: 1.75, OutputUSDPer1M: 14}},
	{prefix: "gpt-5-mini", pricing: Pricing{InputUSDPer1M: 0.25, OutputUSDPer1M: 2}},
}

// Table resolves prices for backing models. Operator overrides take
// precedence over built-in prices.
type Table struct {
	overrides []rule
}

// NewTable creates a Table with the given overrides keyed by model name or
// name prefix.
func NewTable(overrides map[string]Pricing) *Table {
	t := &Table{overrides: make([]rule, 0, len(overrides))}
	for k, p := range overrides {
		t.overrides = append(t.overrides, rule{prefix: k, pricing: p})
	}
	// Longest key first so the most specific override wins.
	sort.Slice(t.overrides, func(i, j int) bool {
		if len(t.overrides[i].prefix) != len(t.overrides[j].prefix) {
			return len(t.overrides[i].prefix) > len(t.overrides[j].prefix)
		}
		return t.overrides[i].prefix < t.overrides[j].prefix
	})
	return t
}

// Lookup returns the pricing of modelName.
func (t *Table) Lookup(modelName string) (Pricing, bool) {
	if t != nil {
		for _, r := range t.overrides {
			if modelName == r.prefix || strings.HasPrefix(modelName, r.prefix) {
				return r.pricing, true
			}
		}
	}
	for _, r := range builtin {
		if strings.HasPrefix(modelName, r.prefix) {
			return r.pricing, true
		}
	}
	return Pricing{}, false
}

// Snapshot builds the usage record of one invocation. CostUSD stays nil for
// models without a known price.
func (t *Table) Snapshot(label, modelName string, usage model.TokenUsage) core.UsageSnapshot {
	snap := core.UsageSnapshot{
		WorkerLabel:  label,
		Model:        modelName,
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		TotalTokens:  usage.Total(),
	}
	if p, ok := t.Lookup(modelName); ok {
		c := p.Cost(usage.PromptTokens, usage.CompletionTokens)
		snap.CostUSD = &c
	}
	return snap
}

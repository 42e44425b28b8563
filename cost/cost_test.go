package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentjury/model"
)

func usage(in, out int) model.TokenUsage {
	return model.TokenUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}
}

func TestSnapshot_BuiltinPricing(t *testing.T) {
	snap := NewTable(nil).Snapshot("jurorA", "gpt-5.2", usage(1000, 2000))

	assert.Equal(t, "jurorA", snap.WorkerLabel)
	assert.Equal(t, "gpt-5.2", snap.Model)
	assert.Equal(t, 3000, snap.TotalTokens)
	require.NotNil(t, snap.CostUSD)
	assert.InDelta(t, 0.02975, *snap.CostUSD, 1e-9)

	mini := NewTable(nil).Snapshot("baselineMini", "gpt-5-mini-2025", usage(1_000_000, 1_000_000))
	require.NotNil(t, mini.CostUSD)
	assert.InDelta(t, 2.25, *mini.CostUSD, 1e-9)
}

func TestSnapshot_OverrideWins(t *testing.T) {
	table := NewTable(map[string]Pricing{
		"gpt-5.2": {InputUSDPer1M: 2, OutputUSDPer1M: 20},
	})
	snap := table.Snapshot("verdict", "gpt-5.2", usage(1000, 2000))

	require.NotNil(t, snap.CostUSD)
	assert.InDelta(t, 0.042, *snap.CostUSD, 1e-9)
}

func TestLookup_MostSpecificOverride(t *testing.T) {
	table := NewTable(map[string]Pricing{
		"gpt":       {InputUSDPer1M: 1},
		"gpt-4o":    {InputUSDPer1M: 2},
		"claude-3-": {InputUSDPer1M: 3},
	})

	p, ok := table.Lookup("gpt-4o-mini")
	require.True(t, ok)
	assert.Equal(t, 2.0, p.InputUSDPer1M)

	p, ok = table.Lookup("gpt-5.2")
	require.True(t, ok)
	assert.Equal(t, 1.0, p.InputUSDPer1M)
}

func TestSnapshot_UnknownModel(t *testing.T) {
	snap := NewTable(nil).Snapshot("evaluator", "claude-sonnet-4-20250514", model.TokenUsage{PromptTokens: 10, CompletionTokens: 5})

	assert.Nil(t, snap.CostUSD)
	assert.Equal(t, 15, snap.TotalTokens)
}

func TestLookup_NilTable(t *testing.T) {
	var table *Table
	_, ok := table.Lookup("gpt-5.2")
	assert.True(t, ok)
}

package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type silentModel struct{}

func (silentModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	out := make(chan Response)
	errs := make(chan error)
	close(out)
	close(errs)
	return out, errs
}

func (silentModel) Info() Info { return Info{Name: "silent"} }

func TestCollect_MockResponse(t *testing.T) {
	m := NewMockModel("gpt-5.2")
	m.AddResponse("position", `{"stance":"support"}`)

	resp, err := Collect(context.Background(), m, Request{Label: "jurorA", Prompt: "q", Schema: &Schema{Name: "position"}})
	require.NoError(t, err)
	assert.Equal(t, `{"stance":"support"}`, resp.Text)
	assert.Equal(t, "gpt-5.2", resp.Model)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 150, resp.Usage.Total())

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "jurorA", calls[0].Label)
}

func TestCollect_HandlerError(t *testing.T) {
	m := NewMockModel("gpt-5.2")
	boom := errors.New("boom")
	m.Handle("verdict", func(Request) (string, error) { return "", boom })

	_, err := Collect(context.Background(), m, Request{Schema: &Schema{Name: "verdict"}})
	assert.ErrorIs(t, err, boom)

	_, err = Collect(context.Background(), m, Request{Schema: &Schema{Name: "unknown"}})
	assert.Error(t, err)
}

func TestCollect_NoResponse(t *testing.T) {
	_, err := Collect(context.Background(), silentModel{}, Request{})
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMockModel("gpt-5.2")
	m.AddResponse("", "{}")
	_, err := Collect(ctx, m, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenUsage_Total(t *testing.T) {
	assert.Equal(t, 30, TokenUsage{PromptTokens: 10, CompletionTokens: 20}.Total())
	assert.Equal(t, 99, TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 99}.Total())
}

func TestRegistry_LongestPrefix(t *testing.T) {
	r := NewRegistry()
	built := map[string]int{}
	r.Register("", func(name string) (Model, error) { built["fallback"]++; return NewMockModel(name), nil })
	r.Register("gpt-", func(name string) (Model, error) { built["gpt"]++; return NewMockModel(name), nil })
	r.Register("gpt-5-mini", func(name string) (Model, error) { built["mini"]++; return NewMockModel(name), nil })

	m, err := r.Resolve("gpt-5-mini")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-mini", m.Info().Name)
	_, err = r.Resolve("gpt-5.2")
	require.NoError(t, err)
	_, err = r.Resolve("gpt-5.2")
	require.NoError(t, err)
	_, err = r.Resolve("claude-sonnet-4")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"mini": 1, "gpt": 1, "fallback": 1}, built)
}

func TestRegistry_Unknown(t *testing.T) {
	r := NewRegistry()
	r.Add("gpt-5.2", NewMockModel("gpt-5.2"))

	m, err := r.Resolve("gpt-5.2")
	require.NoError(t, err)
	assert.Equal(t, "mock", m.Info().Provider)

	_, err = r.Resolve("llama")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

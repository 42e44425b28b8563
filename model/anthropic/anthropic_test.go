package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentjury/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, reply string, captured *map[string]any) *anthropic.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(captured)
		payload, _ := json.Marshal(map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-sonnet-4-20250514",
			"content":       []map[string]any{{"type": "text", "text": reply}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 30, "output_tokens": 12},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	client := anthropic.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test"), option.WithMaxRetries(0))
	return &client
}

func TestModel_GenerateStructured(t *testing.T) {
	var body map[string]any
	client := newServer(t, "Here you go:\n```json\n{\"stance\":\"oppose\",\"summary\":\"no\"}\n```", &body)
	m := NewModelFromClient(client)

	temp := 0.2
	resp, err := model.Collect(context.Background(), m, model.Request{
		Instructions: "You are a judge.",
		Prompt:       "Question",
		Temperature:  &temp,
		Schema:       &model.Schema{Name: "verdict", Definition: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stance":"oppose","summary":"no"}`, resp.Text)
	assert.Equal(t, "end_turn", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 42, resp.Usage.TotalTokens)

	system := body["system"].([]any)[0].(map[string]any)["text"].(string)
	assert.True(t, strings.HasPrefix(system, "You are a judge."))
	assert.Contains(t, system, "JSON schema (verdict)")
	assert.InDelta(t, 0.2, body["temperature"], 1e-9)
}

func TestModel_InvalidJSON(t *testing.T) {
	var body map[string]any
	client := newServer(t, "I cannot answer that.", &body)
	m := NewModelFromClient(client, func(o *Options) { o.Model = "claude-3-5-haiku-latest" })

	_, err := model.Collect(context.Background(), m, model.Request{Prompt: "q", Schema: &model.Schema{Name: "x"}})
	assert.ErrorIs(t, err, ErrInvalidJSON)
	assert.Equal(t, "claude-3-5-haiku-latest", body["model"])
	assert.NotContains(t, body, "temperature")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{`Sure! {"a":{"b":2}} hope this helps`, `{"a":{"b":2}}`, true},
		{`[1,2]`, "", false},
		{`{broken`, "", false},
	}
	for _, tt := range tests {
		got, err := extractJSON(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFactory(t *testing.T) {
	var body map[string]any
	f := Factory(newServer(t, "{}", &body))
	m, err := f("claude-opus-4-1")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Info().Provider)
	assert.Equal(t, "claude-opus-4-1", m.Info().Name)
}

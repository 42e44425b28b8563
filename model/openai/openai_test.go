package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hupe1980/agentjury/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu     sync.Mutex
	bodies map[string]map[string]any
	status int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.bodies[r.URL.Path] = body
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"unavailable","type":"server_error"}}`))
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/chat/completions"):
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-5-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"stance\":\"support\"}"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`))
	case strings.HasSuffix(r.URL.Path, "/moderations"):
		_, _ = w.Write([]byte(`{
			"id": "modr-1",
			"model": "omni-moderation-latest",
			"results": [{
				"flagged": true,
				"categories": {"violence": true, "harassment": false, "self-harm": true},
				"category_scores": {"violence": 0.9, "harassment": 0.01, "self-harm": 0.8}
			}]
		}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeAPI) body(suffix string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for path, b := range f.bodies {
		if strings.HasSuffix(path, suffix) {
			return b
		}
	}
	return nil
}

func newTestClient(t *testing.T, api *fakeAPI) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	client := openai.NewClient(
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return &client
}

func TestModel_GenerateStructured(t *testing.T) {
	api := &fakeAPI{bodies: map[string]map[string]any{}}
	m := NewModelFromClient(newTestClient(t, api), func(o *Options) { o.Model = "gpt-5-mini" })

	temp := 0.3
	resp, err := model.Collect(context.Background(), m, model.Request{
		Instructions: "be brief",
		Prompt:       "question",
		Temperature:  &temp,
		Schema: &model.Schema{
			Name:       "position",
			Definition: map[string]any{"type": "object", "properties": map[string]any{}, "additionalProperties": false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"stance":"support"}`, resp.Text)
	assert.Equal(t, "gpt-5-mini", resp.Model)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 8, resp.Usage.CompletionTokens)
	assert.Equal(t, 20, resp.Usage.TotalTokens)

	body := api.body("/chat/completions")
	require.NotNil(t, body)
	assert.Equal(t, "gpt-5-mini", body["model"])
	assert.InDelta(t, 0.3, body["temperature"], 1e-9)

	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])

	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	js := format["json_schema"].(map[string]any)
	assert.Equal(t, "position", js["name"])
	assert.Equal(t, true, js["strict"])
}

func TestModel_OmitsTemperatureWhenUnset(t *testing.T) {
	api := &fakeAPI{bodies: map[string]map[string]any{}}
	m := NewModelFromClient(newTestClient(t, api))

	_, err := model.Collect(context.Background(), m, model.Request{Prompt: "q"})
	require.NoError(t, err)

	body := api.body("/chat/completions")
	assert.NotContains(t, body, "temperature")
	assert.NotContains(t, body, "response_format")
	assert.Equal(t, "gpt-5.2", body["model"])
}

func TestModel_APIError(t *testing.T) {
	api := &fakeAPI{bodies: map[string]map[string]any{}, status: http.StatusInternalServerError}
	m := NewModelFromClient(newTestClient(t, api))

	_, err := model.Collect(context.Background(), m, model.Request{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai api error")
}

func TestFactory_BindsName(t *testing.T) {
	api := &fakeAPI{bodies: map[string]map[string]any{}}
	f := Factory(newTestClient(t, api))
	m, err := f("gpt-5-mini")
	require.NoError(t, err)
	assert.Equal(t, model.Info{Name: "gpt-5-mini", Provider: "openai"}, m.Info())
}

func TestModerator_Classify(t *testing.T) {
	api := &fakeAPI{bodies: map[string]map[string]any{}}
	mod := NewModerator(newTestClient(t, api), "")

	flagged, categories, err := mod.Classify(context.Background(), "some text")
	require.NoError(t, err)
	assert.True(t, flagged)
	assert.Equal(t, []string{"self-harm", "violence"}, categories)

	body := api.body("/moderations")
	assert.Equal(t, "omni-moderation-latest", body["model"])
	assert.Equal(t, "some text", body["input"])
}

func TestModerator_Error(t *testing.T) {
	api := &fakeAPI{bodies: map[string]map[string]any{}, status: http.StatusServiceUnavailable}
	mod := NewModerator(newTestClient(t, api), "")

	_, _, err := mod.Classify(context.Background(), "text")
	assert.Error(t, err)
}

func TestFlaggedCategories(t *testing.T) {
	got := flaggedCategories(`{"hate": false, "violence": true, "sexual/minors": true}`)
	assert.ElementsMatch(t, []string{"violence", "sexual/minors"}, got)
	assert.Empty(t, flaggedCategories(`{}`))
}

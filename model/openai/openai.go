// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API with strict JSON schema structured output, and a
// moderation classifier backed by the OpenAI Moderations API.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentjury/model"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client. The client
// reads OPENAI_API_KEY and OPENAI_BASE_URL from the environment.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               "gpt-5.2",
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Factory returns a model.Factory sharing client across backing model names.
func Factory(client *openai.Client, optFns ...func(o *Options)) model.Factory {
	return func(name string) (model.Model, error) {
		fns := append(append([]func(o *Options){}, optFns...), func(o *Options) { o.Model = name })
		return NewModelFromClient(client, fns...), nil
	}
}

// Generate implements model.Model. Structured requests are sent with a strict
// json_schema response format; the final chunk carries the JSON document and
// token usage.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(req))
		if err != nil {
			errCh <- fmt.Errorf("openai api error: %w", err)
			return
		}
		if len(resp.Choices) == 0 {
			errCh <- fmt.Errorf("no choices returned")
			return
		}
		ch0 := resp.Choices[0]
		if ch0.Message.Refusal != "" {
			errCh <- fmt.Errorf("openai refusal: %s", ch0.Message.Refusal)
			return
		}
		if ch0.Message.Content == "" {
			errCh <- fmt.Errorf("%w: empty content (finish reason %q)", model.ErrNoResponse, ch0.FinishReason)
			return
		}

		out <- model.Response{
			ID:           resp.ID,
			Partial:      false,
			Text:         ch0.Message.Content,
			FinishReason: ch0.FinishReason,
			Model:        resp.Model,
			Usage: &model.TokenUsage{
				PromptTokens:     int(resp.Usage.PromptTokens),
				CompletionTokens: int(resp.Usage.CompletionTokens),
				TotalTokens:      int(resp.Usage.TotalTokens),
			},
		}
	}()
	return out, errCh
}

// buildParams assembles the OpenAI request parameters including the response format.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    m.opts.Model,
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	maxTokens := m.opts.MaxCompletionTokens
	if req.MaxOutputTokens > 0 {
		maxTokens = req.MaxOutputTokens
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(maxTokens)
	}

	if req.Schema != nil {
		schema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   req.Schema.Name,
			Schema: req.Schema.Definition,
			Strict: openai.Bool(true),
		}
		if req.Schema.Description != "" {
			schema.Description = openai.String(req.Schema.Description)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schema},
		}
	}

	return params
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     m.opts.Model,
		Provider: "openai",
	}
}

// Package anthropic provides a model wrapper for the Anthropic Claude API.
//
// The Messages API has no native JSON schema response format, so structured
// requests carry the schema inside the system prompt and the adapter extracts
// and validates the JSON object from the text reply.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentjury/model"
	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a structured reply contains no JSON object.
var ErrInvalidJSON = errors.New("anthropic reply is not a JSON object")

// Options configures the Anthropic model adapter (model id, max tokens,
// API key, base URL). Extend via functional options to preserve stability.
type Options struct {
	Model     string
	MaxTokens int64
	APIKey    string
	BaseURL   string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 4096,
	}
}

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{
		client: client,
		opts:   opts,
	}
}

// Factory returns a model.Factory sharing client across backing model names.
func Factory(client *anthropic.Client, optFns ...func(o *Options)) model.Factory {
	return func(name string) (model.Model, error) {
		fns := append(append([]func(o *Options){}, optFns...), func(o *Options) { o.Model = name })
		return NewModelFromClient(client, fns...), nil
	}
}

// Generate implements model.Model with a single non-streaming Messages call.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params, err := m.buildParams(req)
		if err != nil {
			errCh <- err
			return
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		var text strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				text.WriteString(block.AsText().Text)
			}
		}

		reply := text.String()
		if req.Schema != nil {
			if reply, err = extractJSON(reply); err != nil {
				errCh <- err
				return
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}

		in, completion := int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens)
		out <- model.Response{
			ID:           resp.ID,
			Partial:      false,
			Text:         reply,
			FinishReason: finishReason,
			Model:        string(resp.Model),
			Usage: &model.TokenUsage{
				PromptTokens:     in,
				CompletionTokens: completion,
				TotalTokens:      in + completion,
			},
		}
	}()

	return out, errCh
}

func (m *Model) buildParams(req model.Request) (anthropic.MessageNewParams, error) {
	maxTokens := m.opts.MaxTokens
	if req.MaxOutputTokens > 0 {
		maxTokens = req.MaxOutputTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.opts.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	system := req.Instructions
	if req.Schema != nil {
		directive, err := schemaDirective(req.Schema)
		if err != nil {
			return params, err
		}
		system = strings.TrimSpace(system + "\n\n" + directive)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	return params, nil
}

func schemaDirective(s *model.Schema) (string, error) {
	raw, err := json.Marshal(s.Definition)
	if err != nil {
		return "", fmt.Errorf("encode schema %s: %w", s.Name, err)
	}
	return "Respond with a single JSON object and nothing else. " +
		"The object must conform to this JSON schema (" + s.Name + "):\n" + string(raw), nil
}

// extractJSON returns the JSON object contained in text, tolerating code
// fences and surrounding prose.
func extractJSON(text string) (string, error) {
	candidate := strings.TrimSpace(text)
	candidate = strings.TrimPrefix(candidate, "```json")
	candidate = strings.TrimPrefix(candidate, "```")
	candidate = strings.TrimSuffix(candidate, "```")
	candidate = strings.TrimSpace(candidate)

	if gjson.Valid(candidate) && gjson.Parse(candidate).IsObject() {
		return candidate, nil
	}

	start, end := strings.Index(candidate, "{"), strings.LastIndex(candidate, "}")
	if start >= 0 && end > start {
		inner := candidate[start : end+1]
		if gjson.Valid(inner) {
			return inner, nil
		}
	}

	return "", ErrInvalidJSON
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     m.opts.Model,
		Provider: "anthropic",
	}
}

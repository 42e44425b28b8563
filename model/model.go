package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNoResponse is returned by Collect when a model closed its channels
// without producing a final response.
var ErrNoResponse = errors.New("model returned no response")

// ErrUnknownModel is returned by Registry.Resolve for names no provider serves.
var ErrUnknownModel = errors.New("unknown backing model")

// Schema names the JSON schema a structured response must conform to.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Definition  map[string]any `json:"definition"`
}

// Request captures the normalized model input produced by workers.
type Request struct {
	// Label tags the request with the calling worker (e.g. "jurorA"). It is
	// never sent to the provider.
	Label        string   `json:"label,omitempty"`
	Instructions string   `json:"instructions"` // System level instructions
	Prompt       string   `json:"prompt"`       // Single user turn
	Schema       *Schema  `json:"schema,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"` // nil leaves the provider default
	// MaxOutputTokens overrides the adapter's configured limit when > 0.
	MaxOutputTokens int64 `json:"max_output_tokens,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Total returns TotalTokens, falling back to prompt + completion when the
// provider did not report a total.
func (u TokenUsage) Total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// Response is a (partial or final) chunk emitted by a model. With a Schema
// set, Text of the final chunk holds the JSON document.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Model        string      `json:"model,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required by workers to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a Generate call and returns the final (non partial) response.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	out, errs := m.Generate(ctx, req)

	var final *Response
	for out != nil || errs != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-out:
			if !ok {
				out = nil
				continue
			}
			if !r.Partial {
				final = &r
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if final == nil {
		return Response{}, ErrNoResponse
	}
	return *final, nil
}

// Factory builds a Model bound to the given backing model name.
type Factory func(name string) (Model, error)

// Registry resolves backing model names to provider adapters by longest
// matching prefix. Resolved models are cached per name.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	cache     map[string]Model
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}, cache: map[string]Model{}}
}

// Register routes every name starting with prefix to f. An empty prefix acts
// as the fallback route.
func (r *Registry) Register(prefix string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[prefix] = f
}

// Add registers a ready-made model for an exact name.
func (r *Registry) Add(name string, m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[name] = m
}

// Resolve returns the model serving name.
func (r *Registry) Resolve(name string) (Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.cache[name]; ok {
		return m, nil
	}

	prefixes := make([]string, 0, len(r.factories))
	for p := range r.factories {
		if strings.HasPrefix(name, p) {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	m, err := r.factories[prefixes[0]](name)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}
	r.cache[name] = m
	return m, nil
}

// MockHandler produces the raw response text for a request.
type MockHandler func(req Request) (string, error)

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// Responses are scripted per schema name; handlers take precedence over
// canned responses.
type MockModel struct {
	info      Info
	mu        sync.Mutex
	handlers  map[string]MockHandler
	responses map[string]string
	usage     TokenUsage
	calls     []Request
}

// NewMockModel constructs a MockModel reporting a fixed usage of 100 prompt
// and 50 completion tokens per call.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		handlers:  make(map[string]MockHandler),
		responses: make(map[string]string),
		usage:     TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}
}

// AddResponse registers a deterministic canned completion for a schema name.
func (m *MockModel) AddResponse(schema, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[schema] = response
}

// Handle registers a handler for a schema name.
func (m *MockModel) Handle(schema string, h MockHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[schema] = h
}

// SetUsage overrides the usage reported for each call.
func (m *MockModel) SetUsage(u TokenUsage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = u
}

// Calls returns a copy of every request received so far.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// Generate implements Model; emits a single final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		name := ""
		if req.Schema != nil {
			name = req.Schema.Name
		}

		m.mu.Lock()
		m.calls = append(m.calls, req)
		h, hasHandler := m.handlers[name]
		text, hasResponse := m.responses[name]
		usage := m.usage
		m.mu.Unlock()

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}

		switch {
		case hasHandler:
			out, err := h(req)
			if err != nil {
				errCh <- err
				return
			}
			text = out
		case !hasResponse:
			errCh <- fmt.Errorf("mock: no response for schema %q", name)
			return
		}

		respCh <- Response{
			Text:         text,
			FinishReason: "stop",
			Model:        m.info.Name,
			Usage:        &usage,
		}
	}()
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

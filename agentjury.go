// Package agentjury provides a high-level façade over the debate engine and
// the safety guardrail. Most applications interact with this package by:
//  1. Creating a Jury via New() with a worker factory and a guardrail
//  2. Starting debates asynchronously (Debate) or synchronously (DebateSync)
//
// Every request is validated and screened before a run starts, and every
// event a run produces passes output sanitization before it is returned.
// Orchestration itself is delegated to engine.Engine.
package agentjury

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/agentjury/agent"
	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/cost"
	"github.com/hupe1980/agentjury/engine"
	"github.com/hupe1980/agentjury/guardrail"
	"github.com/hupe1980/agentjury/logging"
)

// MaxQueryLength is the longest accepted question in characters.
const MaxQueryLength = 2000

// DefaultModelOptions lists the selectable backing models. The first entry
// is used when a request names none.
var DefaultModelOptions = []string{"gpt-5.2", "gpt-5-mini"}

// Options configures the Jury instance.
type Options struct {
	// Engine configuration (concurrency, buffers, budget)
	EngineConfig engine.Config

	// ModelOptions lists the backing models a request may select.
	ModelOptions []string

	// Alternates pairs a selected model with the model of the second
	// baseline. Defaults to engine.DefaultAlternates.
	Alternates map[string]string

	// Pricing converts token usage into cost (defaults to built-in prices)
	Pricing *cost.Table

	// Callbacks receives run lifecycle hooks. Optional.
	Callbacks *engine.CallbackManager

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Request is a debate request as received from a client.
type Request struct {
	Query  string      `json:"query"`
	Domain core.Domain `json:"domain"`
	Model  string      `json:"model,omitempty"`
}

// Jury is the high-level façade aggregating the engine and the guardrail.
type Jury struct {
	opts   Options
	engine *engine.Engine
	guard  *guardrail.Guardrail
	logger logging.Logger
}

// New creates a new Jury resolving workers through factory and screening
// traffic with guard.
func New(factory *agent.Factory, guard *guardrail.Guardrail, optFns ...func(o *Options)) *Jury {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		ModelOptions: DefaultModelOptions,
		Alternates:   engine.DefaultAlternates,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if len(opts.ModelOptions) == 0 {
		opts.ModelOptions = DefaultModelOptions
	}

	e := engine.New(factory, func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Pricing = opts.Pricing
		o.Alternates = opts.Alternates
		o.Callbacks = opts.Callbacks
		o.Logger = opts.Logger
	})

	return &Jury{opts: opts, engine: e, guard: guard, logger: opts.Logger}
}

// Validate checks req against the jury's model options and fills in the
// default model.
func (j *Jury) Validate(req *Request) error {
	return ValidateRequest(req, j.opts.ModelOptions)
}

// ValidateRequest checks req and fills in the default model, the first of
// modelOptions. It returns a *core.ValidationError describing the first
// violation.
func ValidateRequest(req *Request, modelOptions []string) error {
	if len(modelOptions) == 0 {
		modelOptions = DefaultModelOptions
	}

	switch {
	case strings.TrimSpace(req.Query) == "":
		return &core.ValidationError{Field: "query", Message: "must not be empty"}
	case utf8.RuneCountInString(req.Query) > MaxQueryLength:
		return &core.ValidationError{Field: "query", Message: fmt.Sprintf("must be at most %d characters", MaxQueryLength)}
	case !req.Domain.Valid():
		return &core.ValidationError{Field: "domain", Message: fmt.Sprintf("unknown domain %q", req.Domain)}
	}

	if req.Model == "" {
		req.Model = modelOptions[0]
	}
	if !slices.Contains(modelOptions, req.Model) {
		return &core.ValidationError{Field: "model", Message: fmt.Sprintf("unsupported model %q", req.Model)}
	}
	return nil
}

// CheckInput runs the input safety check on a question.
func (j *Jury) CheckInput(ctx context.Context, query string) error {
	return j.guard.CheckInput(ctx, query)
}

// Debate validates and screens req, then starts a debate and returns the
// sanitized event stream.
//
// Errors returned directly are raised before any event exists: a
// *core.ValidationError, a *guardrail.Rejection or an unknown backing model.
// Failures during the run arrive as a terminal error event.
func (j *Jury) Debate(ctx context.Context, req Request) (string, <-chan core.Event, error) {
	if err := j.Validate(&req); err != nil {
		return "", nil, err
	}
	if err := j.guard.CheckInput(ctx, req.Query); err != nil {
		return "", nil, err
	}
	return j.Start(ctx, req)
}

// Start runs an already validated and screened request.
func (j *Jury) Start(ctx context.Context, req Request) (string, <-chan core.Event, error) {
	runID, events, err := j.engine.Run(ctx, engine.Request{
		Query:  req.Query,
		Domain: req.Domain,
		Model:  req.Model,
	})
	if err != nil {
		return "", nil, err
	}
	return runID, j.guard.SanitizeStream(ctx, events), nil
}

// DebateSync is a synchronous helper that drains the stream and returns
// all events. A run ending with an error event yields an error wrapping
// engine.ErrRunFailed.
func (j *Jury) DebateSync(ctx context.Context, req Request) ([]core.Event, error) {
	_, events, err := j.Debate(ctx, req)
	if err != nil {
		return nil, err
	}

	var collected []core.Event
	for ev := range events {
		collected = append(collected, ev)
	}

	if err := ctx.Err(); err != nil {
		return collected, err
	}
	if n := len(collected); n > 0 {
		if ev, ok := collected[n-1].(core.ErrorEvent); ok {
			return collected, fmt.Errorf("%w: %s", engine.ErrRunFailed, ev.Message)
		}
	}
	return collected, nil
}

// StopRun cancels an active debate.
func (j *Jury) StopRun(runID string) error { return j.engine.StopRun(runID) }

// ModelOptions returns the selectable backing models.
func (j *Jury) ModelOptions() []string { return slices.Clone(j.opts.ModelOptions) }

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/internal/util"
	"github.com/hupe1980/agentjury/model"
)

// Worker is a Role bound to a backing model for the duration of a run.
type Worker struct {
	role            Role
	model           model.Model
	backing         string
	maxOutputTokens int64
}

// NewWorker binds role to m. The backing model name is taken from m.Info().
func NewWorker(role Role, m model.Model) *Worker {
	return &Worker{role: role, model: m, backing: m.Info().Name}
}

// Role returns the worker's role.
func (w *Worker) Role() Role { return w.role }

// BackingModel returns the name of the model serving the worker.
func (w *Worker) BackingModel() string { return w.backing }

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	// MaxOutputTokens caps each response when > 0.
	MaxOutputTokens int64
}

// Factory builds workers from (Role, backing model name) pairs.
type Factory struct {
	registry *model.Registry
	opts     FactoryOptions
}

// NewFactory creates a Factory resolving backing models through registry.
func NewFactory(registry *model.Registry, optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Factory{registry: registry, opts: opts}
}

// Worker returns a handle running role on backingModel.
func (f *Factory) Worker(role Role, backingModel string) (*Worker, error) {
	m, err := f.registry.Resolve(backingModel)
	if err != nil {
		return nil, err
	}
	return &Worker{role: role, model: m, backing: backingModel, maxOutputTokens: f.opts.MaxOutputTokens}, nil
}

// Result is the decoded output of a worker invocation.
type Result[T any] struct {
	Output   T
	Usage    model.TokenUsage
	Model    string
	Duration time.Duration
}

type normalizer interface{ Normalize() }

type validator interface{ Validate() error }

// Invoke runs w with prompt and decodes the structured result into T.
// label tags the request for logging and tests.
func Invoke[T any](ctx context.Context, w *Worker, dc core.DebateContext, label, prompt string) (Result[T], error) {
	var res Result[T]

	instructions, err := w.role.Instruction().Resolve(dc)
	if err != nil {
		return res, fmt.Errorf("%s: resolve instructions: %w", w.role.Name(), err)
	}

	schema := SchemaFor[T]()
	start := time.Now()
	resp, err := model.Collect(ctx, w.model, model.Request{
		Label:           label,
		Instructions:    instructions,
		Prompt:          prompt,
		Schema:          schema,
		Temperature:     SamplingFor(w.backing, w.role.Temperature()),
		MaxOutputTokens: w.maxOutputTokens,
	})
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	if strings.TrimSpace(resp.Text) == "" {
		return res, core.ErrMissingOutput
	}
	if err := json.Unmarshal([]byte(resp.Text), &res.Output); err != nil {
		return res, fmt.Errorf("decode %s output: %w", schema.Name, err)
	}
	if n, ok := any(&res.Output).(normalizer); ok {
		n.Normalize()
	}
	if v, ok := any(&res.Output).(validator); ok {
		if err := v.Validate(); err != nil {
			return res, fmt.Errorf("invalid %s output: %w", schema.Name, err)
		}
	}

	if resp.Usage != nil {
		res.Usage = *resp.Usage
	}
	res.Model = w.backing

	return res, nil
}

// SchemaFor derives the named strict JSON schema of T. The name is the snake
// cased type name, e.g. RevisedPosition becomes revised_position.
func SchemaFor[T any]() *model.Schema {
	var zero T
	t := reflect.TypeOf(zero)
	name := "output"
	if t != nil {
		name = snake(t.Name())
	}
	return &model.Schema{Name: name, Definition: util.CreateSchema(zero)}
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CritiqueList is the structured output of a critique-mode worker.
type CritiqueList struct {
	Critiques []core.Critique `json:"critiques" description:"List of critiques authored by this juror"`
}

// Normalize normalizes every critique and replaces a nil list.
func (c *CritiqueList) Normalize() {
	if c.Critiques == nil {
		c.Critiques = []core.Critique{}
	}
	for i := range c.Critiques {
		c.Critiques[i].Normalize()
	}
}

// Validate rejects critiques whose target is not a known participant.
func (c CritiqueList) Validate() error {
	for _, cr := range c.Critiques {
		if _, ok := core.ParseParticipant(string(cr.TargetParticipant)); !ok {
			return fmt.Errorf("critique targets unknown participant %q", cr.TargetParticipant)
		}
	}
	return nil
}

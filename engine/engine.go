package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/agentjury/agent"
	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/cost"
	"github.com/hupe1980/agentjury/logging"
)

// DefaultModel backs a run when a Request names no model.
const DefaultModel = "gpt-5.2"

// ErrRunFailed is returned by RunSync when a run terminated with an error
// event.
var ErrRunFailed = errors.New("debate run failed")

// Config defines tuning parameters for the Engine's operational behavior.
//
// Example:
//
//	cfg := Config{
//	    MaxConcurrentRuns: 20,
//	    EventBufferSize:   128,
//	    DeltaChunkSize:    80,
//	    MaxWorkerCalls:    16,
//	}
type Config struct {
	// MaxConcurrentRuns limits the number of debates executing at the same
	// time. Further runs wait for a free slot. Zero means unlimited.
	MaxConcurrentRuns int

	// EventBufferSize sets the buffer of the event channel returned by Run.
	EventBufferSize int

	// DeltaChunkSize is the maximum number of characters per juror_delta
	// fragment.
	DeltaChunkSize int

	// MaxWorkerCalls caps the worker invocations of a single run. Zero
	// means unlimited.
	MaxWorkerCalls int
}

// DefaultConfig provides production-ready default configuration values.
//
// Configuration values:
//   - MaxConcurrentRuns: 10
//   - EventBufferSize: 64
//   - DeltaChunkSize: 80
//   - MaxWorkerCalls: 16 (two baselines, four rounds of three, verdict, evaluation)
var DefaultConfig = Config{
	MaxConcurrentRuns: 10,
	EventBufferSize:   64,
	DeltaChunkSize:    80,
	MaxWorkerCalls:    16,
}

// DefaultAlternates pairs every selectable backing model with the model
// answering the second baseline.
var DefaultAlternates = map[string]string{
	"gpt-5.2":    "gpt-5-mini",
	"gpt-5-mini": "gpt-5.2",
}

// Options configures an Engine instance using the functional options pattern.
//
// Example:
//
//	e := New(factory,
//	    func(o *Options) { o.Logger = logger },
//	    func(o *Options) { o.Pricing = cost.NewTable(overrides) },
//	)
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Pricing converts token usage into cost. Defaults to built-in prices.
	Pricing *cost.Table

	// Alternates maps the selected backing model to the one backing the
	// second baseline. Models without an entry pair with DefaultModel.
	Alternates map[string]string

	// Callbacks receives lifecycle hooks. Optional.
	Callbacks *CallbackManager

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil.
	Logger logging.Logger
}

// Request starts a debate.
type Request struct {
	Query  string      `json:"query"`
	Domain core.Domain `json:"domain"`
	// Model is the selected backing model of jurors, verdict and evaluator.
	Model string `json:"model"`
}

// Engine runs debates.
//
// Each call to Run executes one independent debate: the engine holds no
// state shared between runs except the worker factory, the pricing table
// and the bookkeeping of active runs.
//
// Concurrency Model:
//   - Phases of a run execute strictly in sequence
//   - Workers of a phase execute concurrently; the first failure cancels the rest
//   - Runs beyond MaxConcurrentRuns wait for a free slot
//
// Example Usage:
//
//	registry := model.NewRegistry()
//	registry.Register("gpt-", openai.Factory(client))
//	e := engine.New(agent.NewFactory(registry))
//
//	runID, events, err := e.Run(ctx, engine.Request{Query: q, Domain: core.DomainFinance, Model: "gpt-5.2"})
//	if err != nil {
//	    return err
//	}
//	_ = runID
//
//	for event := range events {
//	    // the stream ends with a complete or error event
//	}
type Engine struct {
	factory    *agent.Factory
	pricing    *cost.Table
	alternates map[string]string
	callbacks  *CallbackManager
	config     Config
	logger     logging.Logger
	slots      *semaphore.Weighted

	activeRuns map[string]context.CancelFunc
	runsMu     sync.Mutex
}

// New creates a new Engine resolving workers through factory.
func New(factory *agent.Factory, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:     DefaultConfig,
		Alternates: DefaultAlternates,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Pricing == nil {
		opts.Pricing = cost.NewTable(nil)
	}
	if opts.Config.DeltaChunkSize <= 0 {
		opts.Config.DeltaChunkSize = DefaultConfig.DeltaChunkSize
	}
	if opts.Config.EventBufferSize < 0 {
		opts.Config.EventBufferSize = 0
	}

	e := &Engine{
		factory:    factory,
		pricing:    opts.Pricing,
		alternates: opts.Alternates,
		callbacks:  opts.Callbacks,
		config:     opts.Config,
		logger:     opts.Logger,
		activeRuns: make(map[string]context.CancelFunc),
	}
	if opts.Config.MaxConcurrentRuns > 0 {
		e.slots = semaphore.NewWeighted(int64(opts.Config.MaxConcurrentRuns))
	}
	return e
}

// Alternate returns the backing model of the second baseline for selected.
func (e *Engine) Alternate(selected string) string {
	if alt, ok := e.alternates[selected]; ok {
		return alt
	}
	return DefaultModel
}

// Run starts a debate and returns its event stream.
//
// Errors returned directly are raised before any event is produced: an
// invalid request (*core.ValidationError) or a backing model no provider
// serves. Failures during the run are reported as a single terminal error
// event instead. The channel is closed after the terminal event or when
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context, req Request) (string, <-chan core.Event, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", nil, &core.ValidationError{Field: "query", Message: "must not be empty"}
	}
	if !req.Domain.Valid() {
		return "", nil, &core.ValidationError{Field: "domain", Message: fmt.Sprintf("unknown domain %q", req.Domain)}
	}

	if req.Model == "" {
		req.Model = DefaultModel
	}

	c, err := e.cast(req.Model, e.Alternate(req.Model))
	if err != nil {
		return "", nil, err
	}

	runID := core.NewID()
	out := make(chan core.Event, e.config.EventBufferSize)
	runCtx, cancel := context.WithCancel(ctx)

	e.runsMu.Lock()
	e.activeRuns[runID] = cancel
	e.runsMu.Unlock()

	r := &run{
		e:      e,
		id:     runID,
		dc:     core.DebateContext{Query: req.Query, Domain: req.Domain},
		model:  req.Model,
		cast:   c,
		budget: core.NewCallBudget(e.config.MaxWorkerCalls),
		logger: e.logger.With("runId", runID),
		out:    out,
	}

	go func() {
		defer func() {
			close(out)
			e.runsMu.Lock()
			delete(e.activeRuns, runID)
			e.runsMu.Unlock()
			cancel()
		}()

		if e.slots != nil {
			if err := e.slots.Acquire(runCtx, 1); err != nil {
				return
			}
			defer e.slots.Release(1)
		}

		r.start(runCtx)
	}()

	return runID, out, nil
}

// RunSync executes a debate and returns all events. When the run ends with
// an error event, the events and an error wrapping ErrRunFailed are returned.
func (e *Engine) RunSync(ctx context.Context, req Request) ([]core.Event, error) {
	_, events, err := e.Run(ctx, req)
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
			return collected, fmt.Errorf("%w: %s", ErrRunFailed, ev.Message)
		}
	}
	return collected, nil
}

// StopRun cancels an active run. The run's channel is closed without a
// terminal event.
func (e *Engine) StopRun(runID string) error {
	e.runsMu.Lock()
	cancel, exists := e.activeRuns[runID]
	e.runsMu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()
	return nil
}

// ActiveRuns returns the number of runs in progress.
func (e *Engine) ActiveRuns() int {
	e.runsMu.Lock()
	defer e.runsMu.Unlock()
	return len(e.activeRuns)
}

// cast holds the workers of one run.
type cast struct {
	baselineFair *agent.Worker
	baselineMini *agent.Worker
	jurors       map[core.ParticipantID]*agent.Worker
	critics      map[core.ParticipantID]*agent.Worker
	rebutters    map[core.ParticipantID]*agent.Worker
	revisers     map[core.ParticipantID]*agent.Worker
	chief        *agent.Worker
	evaluator    *agent.Worker
}

func (e *Engine) cast(selected, alternate string) (*cast, error) {
	c := &cast{
		jurors:    map[core.ParticipantID]*agent.Worker{},
		critics:   map[core.ParticipantID]*agent.Worker{},
		rebutters: map[core.ParticipantID]*agent.Worker{},
		revisers:  map[core.ParticipantID]*agent.Worker{},
	}

	var err error
	worker := func(role agent.Role, backing string) *agent.Worker {
		if err != nil {
			return nil
		}
		var w *agent.Worker
		w, err = e.factory.Worker(role, backing)
		return w
	}

	c.baselineFair = worker(agent.BaselineRole(), selected)
	c.baselineMini = worker(agent.BaselineRole(), alternate)
	for _, p := range core.Participants {
		c.jurors[p] = worker(agent.JurorRole(p, agent.ModePosition), selected)
		c.critics[p] = worker(agent.JurorRole(p, agent.ModeCritique), selected)
		c.rebutters[p] = worker(agent.JurorRole(p, agent.ModeRebuttal), selected)
		c.revisers[p] = worker(agent.JurorRole(p, agent.ModeRevision), selected)
	}
	c.chief = worker(agent.ChiefJusticeRole(), selected)
	c.evaluator = worker(agent.EvaluatorRole(), selected)

	if err != nil {
		return nil, err
	}
	return c, nil
}

func since(t time.Time) int64 { return time.Since(t).Milliseconds() }

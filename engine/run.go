package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentjury/agent"
	"github.com/hupe1980/agentjury/coordination"
	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/logging"
)

// run is the state of a single debate. Result fields are written once by
// the phase producing them and read-only afterwards.
type run struct {
	e      *Engine
	id     string
	dc     core.DebateContext
	model  string
	cast   *cast
	budget *core.CallBudget
	logger logging.Logger
	out    chan<- core.Event

	phase core.Phase

	baseline  core.Baseline
	positions core.Positions
	decision  core.CoordinationDecision
	critiques core.Critiques
	rebuttals core.Rebuttals
	revisions core.Revisions
	verdict   core.Verdict
}

func (r *run) start(ctx context.Context) {
	started := time.Now()
	r.logger.Info("debate.start",
		"domain", r.dc.Domain,
		"model", r.model,
		"queryPreview", logging.Preview(r.dc.Query, 160),
	)

	if err := r.execute(ctx); err != nil {
		if ctx.Err() != nil {
			r.logger.Warn("debate.cancelled", "phase", r.phase, "durationMs", since(started))
			return
		}
		r.logger.Error("debate.failed", "phase", r.phase, "error", err.Error(), "durationMs", since(started))
		if cbErr := r.e.callbacks.ExecuteCallbacks(ctx, CallbackOnError, &CallbackContext{RunID: r.id, Phase: r.phase, Err: err}); cbErr != nil {
			r.logger.Warn("callback.failed", "type", CallbackOnError, "error", cbErr.Error())
		}
		_ = r.emit(ctx, core.ErrorEvent{Message: core.UserMessage(err, "Debate failed.")})
		return
	}

	r.logger.Info("debate.complete", "durationMs", since(started), "workerCalls", r.budget.Used())
	r.phase = ""
	_ = r.emit(ctx, core.CompleteEvent{})
}

func (r *run) execute(ctx context.Context) error {
	if err := r.step(ctx, core.PhaseBaseline, r.baselines); err != nil {
		return err
	}
	if err := r.step(ctx, core.PhasePositions, r.openingPositions); err != nil {
		return err
	}
	if err := r.coordinate(ctx); err != nil {
		return err
	}
	if err := r.step(ctx, core.PhaseCritique, r.critiqueRound); err != nil {
		return err
	}
	if err := r.reconsider(ctx); err != nil {
		return err
	}
	if r.decision.DeepDeliberation {
		if err := r.step(ctx, core.PhaseRebuttal, r.rebuttalRound); err != nil {
			return err
		}
	}
	if err := r.step(ctx, core.PhaseRevision, r.revisionRound); err != nil {
		return err
	}
	if err := r.step(ctx, core.PhaseVerdict, r.verdictRound); err != nil {
		return err
	}
	return r.evaluate(ctx)
}

// step runs one phase: callbacks, phase marker, body and timing logs.
func (r *run) step(ctx context.Context, phase core.Phase, body func(context.Context) error) error {
	r.phase = phase
	if err := r.e.callbacks.ExecuteCallbacks(ctx, CallbackBeforePhase, &CallbackContext{RunID: r.id, Phase: phase}); err != nil {
		return err
	}
	if err := r.emit(ctx, core.PhaseEvent{Phase: phase}); err != nil {
		return err
	}

	started := time.Now()
	r.logger.Info("phase.start", "phase", phase)
	if err := body(ctx); err != nil {
		return err
	}
	r.logger.Info("phase.end", "phase", phase, "durationMs", since(started))

	if err := r.e.callbacks.ExecuteCallbacks(ctx, CallbackAfterPhase, &CallbackContext{RunID: r.id, Phase: phase}); err != nil {
		r.logger.Warn("callback.failed", "type", CallbackAfterPhase, "error", err.Error())
	}
	return nil
}

// emit hands ev to the consumer. It is safe for concurrent use by the
// workers of a fan-out.
func (r *run) emit(ctx context.Context, ev core.Event) error {
	if err := r.e.callbacks.ExecuteCallbacks(ctx, CallbackOnEvent, &CallbackContext{RunID: r.id, Phase: r.phase, Event: ev}); err != nil {
		r.logger.Warn("callback.failed", "type", CallbackOnEvent, "error", err.Error())
	}
	select {
	case r.out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// invoke runs one worker, emits its usage and wraps failures into a
// *core.WorkerFailure of phase.
func invoke[T any](ctx context.Context, r *run, phase core.Phase, w *agent.Worker, scope core.UsageScope, prompt string) (T, error) {
	var zero T
	label := string(scope)

	if err := r.budget.Acquire(label); err != nil {
		return zero, &core.WorkerFailure{Phase: phase, Label: label, Err: err}
	}

	res, err := agent.Invoke[T](ctx, w, r.dc, label, prompt)
	logging.LogWorkerCall(r.logger, label, w.BackingModel(), res.Usage.Total(), res.Duration, err)
	if err != nil {
		return zero, &core.WorkerFailure{Phase: phase, Label: label, Err: err}
	}

	usage := core.UsageEvent{Scope: scope, Data: r.e.pricing.Snapshot(label, res.Model, res.Usage)}
	if err := r.emit(ctx, usage); err != nil {
		return zero, err
	}
	return res.Output, nil
}

// fanOut runs one worker per participant concurrently. The first failure
// cancels the others.
func fanOut[T any](
	ctx context.Context,
	r *run,
	phase core.Phase,
	workers map[core.ParticipantID]*agent.Worker,
	scope func(core.ParticipantID) core.UsageScope,
	prompt func(core.ParticipantID) string,
) (map[core.ParticipantID]T, error) {
	results := make([]T, len(core.Participants))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range core.Participants {
		g.Go(func() error {
			out, err := invoke[T](gctx, r, phase, workers[p], scope(p), prompt(p))
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := make(map[core.ParticipantID]T, len(results))
	for i, p := range core.Participants {
		m[p] = results[i]
	}
	return m, nil
}

func (r *run) baselines(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b, err := invoke[core.Baseline](gctx, r, core.PhaseBaseline, r.cast.baselineFair, core.ScopeBaselineFair, r.dc.Query)
		if err != nil {
			return err
		}
		r.baseline = b
		return r.emit(gctx, core.BaselineEvent{Variant: core.BaselineFair, Data: b})
	})
	g.Go(func() error {
		b, err := invoke[core.Baseline](gctx, r, core.PhaseBaseline, r.cast.baselineMini, core.ScopeBaselineMini, r.dc.Query)
		if err != nil {
			return err
		}
		return r.emit(gctx, core.BaselineEvent{Variant: core.BaselineMini, Data: b})
	})

	return g.Wait()
}

func (r *run) openingPositions(ctx context.Context) error {
	positions, err := fanOut[core.Position](ctx, r, core.PhasePositions, r.cast.jurors, core.JurorScope,
		func(core.ParticipantID) string { return r.dc.Query })
	if err != nil {
		return err
	}
	r.positions = positions

	if err := r.emit(ctx, core.PositionsCompleteEvent{Positions: positions}); err != nil {
		return err
	}

	for _, p := range core.Participants {
		text := positions[p].Summary + "\n\n" + positions[p].Reasoning
		for _, delta := range chunk(text, r.e.config.DeltaChunkSize) {
			if err := r.emit(ctx, core.JurorDeltaEvent{Participant: p, Delta: delta}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) coordinate(ctx context.Context) error {
	r.decision = coordination.Decide(r.positions)
	r.logger.Info("coordination.decision",
		"agreementScore", r.decision.AgreementScore,
		"averageConfidence", r.decision.AverageConfidence,
		"skipCritique", r.decision.SkipCritique,
		"skipRevision", r.decision.SkipRevision,
		"deepDeliberation", r.decision.DeepDeliberation,
	)
	return r.emit(ctx, core.CoordinationEvent{Data: r.decision})
}

func (r *run) critiqueRound(ctx context.Context) error {
	if r.decision.SkipCritique {
		r.critiques = core.EmptyCritiques()
		return r.emit(ctx, core.CritiquesCompleteEvent{Critiques: r.critiques})
	}

	lists, err := fanOut[agent.CritiqueList](ctx, r, core.PhaseCritique, r.cast.critics, core.CritiqueScope,
		func(p core.ParticipantID) string {
			return critiquePrompt(r.dc.Query, r.positions, r.decision.DisagreementFocus, p)
		})
	if err != nil {
		return err
	}

	critiques := make(core.Critiques, len(lists))
	for p, l := range lists {
		critiques[p] = l.Critiques
	}
	r.critiques = critiques
	return r.emit(ctx, core.CritiquesCompleteEvent{Critiques: critiques})
}

// reconsider re-evaluates the revision skip once critiques are known and
// publishes the new decision if it differs.
func (r *run) reconsider(ctx context.Context) error {
	next, changed := coordination.Revise(r.decision, r.critiques)
	if !changed {
		return nil
	}
	r.decision = next
	r.logger.Info("coordination.revised",
		"majorChallenges", r.critiques.MajorChallengeCount(),
		"skipRevision", next.SkipRevision,
	)
	return r.emit(ctx, core.CoordinationEvent{Data: next})
}

func (r *run) rebuttalRound(ctx context.Context) error {
	rebuttals, err := fanOut[core.Rebuttal](ctx, r, core.PhaseRebuttal, r.cast.rebutters, core.RebuttalScope,
		func(p core.ParticipantID) string {
			return rebuttalPrompt(r.dc.Query, r.positions[p], r.critiques.Received(p))
		})
	if err != nil {
		return err
	}
	r.rebuttals = rebuttals
	return r.emit(ctx, core.RebuttalsCompleteEvent{Rebuttals: rebuttals})
}

func (r *run) revisionRound(ctx context.Context) error {
	if r.decision.SkipRevision {
		return r.emit(ctx, core.RevisionsCompleteEvent{})
	}

	revisions, err := fanOut[core.RevisedPosition](ctx, r, core.PhaseRevision, r.cast.revisers, core.RevisionScope,
		func(p core.ParticipantID) string {
			var rebuttal *core.Rebuttal
			if rb, ok := r.rebuttals[p]; ok {
				rebuttal = &rb
			}
			return revisionPrompt(r.dc.Query, r.positions[p], r.critiques.Received(p), rebuttal)
		})
	if err != nil {
		return err
	}
	r.revisions = revisions
	return r.emit(ctx, core.RevisionsCompleteEvent{Revisions: revisions})
}

func (r *run) verdictRound(ctx context.Context) error {
	prompt := verdictPrompt(r.dc.Query, r.decision, r.positions, r.critiques, r.rebuttals, r.revisions)
	v, err := invoke[core.Verdict](ctx, r, core.PhaseVerdict, r.cast.chief, core.ScopeVerdict, prompt)
	if err != nil {
		return err
	}
	r.verdict = v
	return r.emit(ctx, core.VerdictEvent{Data: v})
}

// evaluate scores the baseline against the verdict. Failures are logged and
// swallowed; only cancellation aborts the run.
func (r *run) evaluate(ctx context.Context) error {
	r.phase = core.PhaseEvaluation
	prompt := evaluationPrompt(r.dc.Query, r.baseline, r.verdict)

	ev, err := invoke[core.Evaluation](ctx, r, core.PhaseEvaluation, r.cast.evaluator, core.ScopeEvaluator, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		r.logger.Warn("evaluation.failed", "error", err.Error())
		return nil
	}
	return r.emit(ctx, core.EvaluationEvent{Data: ev})
}

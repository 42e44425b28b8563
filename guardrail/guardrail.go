package guardrail

import (
	"context"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/logging"
)

// Redaction markers.
const (
	RedactedText  = "Content withheld due to safety policy."
	RedactedDelta = "[redacted for safety]"
)

// Reason classifies a safety rejection.
type Reason string

const (
	ReasonPromptInjection       Reason = "prompt_injection"
	ReasonUnsafeContent         Reason = "unsafe_content"
	ReasonModerationUnavailable Reason = "moderation_unavailable"
)

var messages = map[Reason]string{
	ReasonPromptInjection:       "Request looks like a prompt-injection attempt. Please rephrase the question without meta-instructions.",
	ReasonUnsafeContent:         "Request contains unsafe content and cannot be processed.",
	ReasonModerationUnavailable: "Safety check is temporarily unavailable. Please try again shortly.",
}

// Rejection is returned by CheckInput when a request is not allowed.
type Rejection struct {
	Reason  Reason   `json:"reason"`
	Message string   `json:"message"`
	Matches []string `json:"matches,omitempty"`
}

// Error implements the error interface.
func (r *Rejection) Error() string { return "request rejected: " + string(r.Reason) }

// UserMessage returns the text shown to the client.
func (r *Rejection) UserMessage() string { return r.Message }

// Retryable reports whether the rejection is a service condition rather than
// a content violation.
func (r *Rejection) Retryable() bool { return r.Reason == ReasonModerationUnavailable }

func reject(reason Reason, matches []string) *Rejection {
	return &Rejection{Reason: reason, Message: messages[reason], Matches: matches}
}

// Options configures a Guardrail.
type Options struct {
	Logger logging.Logger
}

// Guardrail screens input and sanitizes output events.
type Guardrail struct {
	moderator *Moderator
	logger    logging.Logger
}

// New creates a Guardrail backed by moderator.
func New(moderator *Moderator, optFns ...func(o *Options)) *Guardrail {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Guardrail{moderator: moderator, logger: opts.Logger}
}

// CheckInput screens an inbound question. It returns nil when the question
// may be debated and a *Rejection otherwise. Moderation is always consulted
// unless the injection detector already flagged the text.
func (g *Guardrail) CheckInput(ctx context.Context, text string) error {
	if d := DetectInjection(text); d.Flagged {
		g.logger.Warn("safety.input_blocked", "reason", ReasonPromptInjection, "matches", d.Matches)
		return reject(ReasonPromptInjection, d.Matches)
	}

	switch g.moderate(ctx, "input", text).Verdict {
	case VerdictClear:
		return nil
	case VerdictFlagged:
		g.logger.Warn("safety.input_blocked", "reason", ReasonUnsafeContent)
		return reject(ReasonUnsafeContent, nil)
	default:
		g.logger.Warn("safety.moderation_unavailable", "label", "input")
		return reject(ReasonModerationUnavailable, nil)
	}
}

func (g *Guardrail) moderate(ctx context.Context, label, text string) Result {
	if g.moderator == nil {
		return Result{Verdict: VerdictUnavailable}
	}
	return g.moderator.Moderate(ctx, label, text)
}

// allowed screens outbound text. Blank text passes without moderation.
func (g *Guardrail) allowed(ctx context.Context, label string, parts ...string) bool {
	text := strings.Join(parts, "\n")
	if d := DetectInjection(text); d.Flagged {
		g.logger.Warn("safety.output_redacted", "label", label, "reason", ReasonPromptInjection, "matches", d.Matches)
		return false
	}
	if strings.TrimSpace(text) == "" {
		return true
	}
	switch g.moderate(ctx, label, text).Verdict {
	case VerdictClear:
		return true
	case VerdictFlagged:
		g.logger.Warn("safety.output_redacted", "label", label, "reason", ReasonUnsafeContent)
	default:
		g.logger.Warn("safety.moderation_unavailable", "label", label)
		g.logger.Warn("safety.output_redacted", "label", label, "reason", ReasonModerationUnavailable)
	}
	return false
}

// SanitizeEvent returns e, or a copy of e with unsafe content redacted. The
// returned event always has the same type and structure as e.
func (g *Guardrail) SanitizeEvent(ctx context.Context, e core.Event) core.Event {
	switch ev := e.(type) {
	case core.BaselineEvent:
		if g.allowed(ctx, string(ev.Type()), ev.Data.Summary, ev.Data.Reasoning) {
			return ev
		}
		ev.Data = redactBaseline(ev.Data)
		return ev

	case core.JurorDeltaEvent:
		if d := DetectInjection(ev.Delta); d.Flagged {
			g.logger.Warn("safety.delta_redacted", "juror", ev.Participant, "matches", d.Matches)
			ev.Delta = RedactedDelta
		}
		return ev

	case core.PositionsCompleteEvent:
		ev.Positions = sanitizeMap(ev.Positions, func(p core.Position) core.Position {
			if g.allowed(ctx, "positions", positionText(p)...) {
				return p
			}
			return redactPosition(p)
		})
		return ev

	case core.CritiquesCompleteEvent:
		if ev.Critiques == nil {
			return ev
		}
		out := make(core.Critiques, len(ev.Critiques))
		for author, list := range ev.Critiques {
			out[author] = iter.Map(list, func(c *core.Critique) core.Critique {
				if g.allowed(ctx, "critiques", critiqueText(*c)...) {
					return *c
				}
				return redactCritique(*c)
			})
		}
		ev.Critiques = out
		return ev

	case core.RebuttalsCompleteEvent:
		if ev.Rebuttals == nil {
			return ev
		}
		ev.Rebuttals = sanitizeMap(ev.Rebuttals, func(r core.Rebuttal) core.Rebuttal {
			if g.allowed(ctx, "rebuttals", rebuttalText(r)...) {
				return r
			}
			return redactRebuttal(r)
		})
		return ev

	case core.RevisionsCompleteEvent:
		if ev.Revisions == nil {
			return ev
		}
		ev.Revisions = sanitizeMap(ev.Revisions, func(r core.RevisedPosition) core.RevisedPosition {
			if g.allowed(ctx, "revisions", revisionText(r)...) {
				return r
			}
			return redactRevision(r)
		})
		return ev

	case core.VerdictEvent:
		if g.allowed(ctx, "verdict", verdictText(ev.Data)...) {
			return ev
		}
		ev.Data = redactVerdict(ev.Data)
		return ev

	case core.EvaluationEvent:
		if g.allowed(ctx, "evaluation", ev.Data.Baseline.Notes, ev.Data.Jury.Notes, ev.Data.Rationale) {
			return ev
		}
		ev.Data = redactEvaluation(ev.Data)
		return ev

	default:
		return e
	}
}

// SanitizeStream sanitizes every event of in, preserving order. The returned
// channel is closed after in is closed or ctx is done.
func (g *Guardrail) SanitizeStream(ctx context.Context, in <-chan core.Event) <-chan core.Event {
	out := make(chan core.Event, cap(in))
	go func() {
		defer close(out)
		for e := range in {
			select {
			case out <- g.SanitizeEvent(ctx, e):
			case <-ctx.Done():
				// drain so the producer never blocks on a dead consumer
				for range in {
				}
				return
			}
		}
	}()
	return out
}

// sanitizeMap screens every participant's entry concurrently.
func sanitizeMap[T any](m map[core.ParticipantID]T, fn func(T) T) map[core.ParticipantID]T {
	ids := make([]core.ParticipantID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	values := iter.Map(ids, func(id *core.ParticipantID) T { return fn(m[*id]) })

	out := make(map[core.ParticipantID]T, len(m))
	for i, id := range ids {
		out[id] = values[i]
	}
	return out
}

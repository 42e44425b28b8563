package agent

import (
	"strings"

	"github.com/hupe1980/agentjury/core"
)

// Role is an immutable worker configuration. Derive variations with the
// With* methods; they return copies.
type Role struct {
	name        string
	instruction Instruction
	temperature float64
}

// NewRole creates a Role.
func NewRole(name string, instruction Instruction, temperature float64) Role {
	return Role{name: name, instruction: instruction, temperature: temperature}
}

// Name returns the display name of the role.
func (r Role) Name() string { return r.name }

// Instruction returns the role's instruction.
func (r Role) Instruction() Instruction { return r.instruction }

// Temperature returns the preferred sampling temperature.
func (r Role) Temperature() float64 { return r.temperature }

// WithName returns a copy of r with a different name.
func (r Role) WithName(name string) Role {
	r.name = name
	return r
}

// WithTemperature returns a copy of r with a different temperature.
func (r Role) WithTemperature(t float64) Role {
	r.temperature = t
	return r
}

// Mode selects the task a juror persona performs in a round.
type Mode string

const (
	ModePosition Mode = "position"
	ModeCritique Mode = "critique"
	ModeRebuttal Mode = "rebuttal"
	ModeRevision Mode = "revision"
)

var jurors = map[core.ParticipantID]Role{
	core.ParticipantA: NewRole(
		"Cautious Analyst",
		WithSafetyGuardrails(NewInstructionFromTemplate(
			"You are a rigorous, evidence-driven analyst evaluating a {{.Domain}} question.\n"+
				"You prioritize data, citations, and established research. You are skeptical of claims that lack empirical support. "+
				"Identify risks and caveats. Be concise but thorough.")),
		0.3,
	),
	core.ParticipantB: NewRole(
		"Devil's Advocate",
		WithSafetyGuardrails(NewInstructionFromTemplate(
			"You are a contrarian critical thinker evaluating a {{.Domain}} question.\n"+
				"Challenge assumptions, surface weaknesses, and test reasoning rigorously. Be provocative but fair.")),
		0.9,
	),
	core.ParticipantC: NewRole(
		"Pragmatic Expert",
		WithSafetyGuardrails(NewInstructionFromTemplate(
			"You are a domain-savvy pragmatist evaluating a {{.Domain}} question.\n"+
				"Focus on real-world applicability, feasibility, and stakeholder impact.")),
		0.6,
	),
}

// JurorRole returns the persona of participant p in the given mode. Non
// position modes reuse the persona's instruction and temperature under a
// suffixed name, e.g. "Devil's Advocate (Critique)".
func JurorRole(p core.ParticipantID, mode Mode) Role {
	r, ok := jurors[p]
	if !ok {
		r = jurors[core.ParticipantA]
	}
	if mode == ModePosition || mode == "" {
		return r
	}
	m := string(mode)
	return r.WithName(r.Name() + " (" + strings.ToUpper(m[:1]) + m[1:] + ")")
}

// BaselineRole answers the question directly without deliberation.
func BaselineRole() Role {
	return NewRole(
		"Single Model Baseline",
		NewInstructionFromTemplate(
			"Answer the {{.Domain}} question directly and concisely.\n"+
				"Provide a stance, summary, confidence, and short reasoning. Avoid speculation."),
		0.3,
	)
}

// ChiefJusticeRole synthesizes the verdict.
func ChiefJusticeRole() Role {
	return NewRole(
		"Chief Justice",
		NewInstructionFromText(
			"You are an impartial chief justice synthesizing a multi-round debate. "+
				"Identify agreements and disagreements, weigh argument quality, flag likely hallucinations, "+
				"and return a concise consensus verdict with agreement and confidence scores."),
		0.2,
	)
}

// EvaluatorRole scores the baseline against the jury verdict.
func EvaluatorRole() Role {
	return NewRole(
		"Evaluator",
		NewInstructionFromText(
			"You are a strict evaluator scoring baseline vs jury answers. "+
				"Score each on consistency, specificity, reasoning transparency, and coverage (0-10). "+
				"Provide overall scores, pick a winner, and give concise notes and rationale."),
		0.2,
	)
}

// SupportsSamplingParams reports whether backing model accepts a
// temperature. The gpt-5 family rejects it, except gpt-5.2.
func SupportsSamplingParams(backingModel string) bool {
	if strings.HasPrefix(backingModel, "gpt-5.2") {
		return true
	}
	return !strings.HasPrefix(backingModel, "gpt-5")
}

// SamplingFor returns the temperature to send to backing model, or nil.
func SamplingFor(backingModel string, temperature float64) *float64 {
	if !SupportsSamplingParams(backingModel) {
		return nil
	}
	return &temperature
}

package testutil

import "github.com/hupe1980/agentjury/core"

// PositionBuilder provides a fluent helper for constructing positions in tests.
// Example:
//
//	p := NewPosition(core.StanceSupport).Summary("yes").Confidence(0.9).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type PositionBuilder struct {
	p core.Position
}

// NewPosition creates a builder with confidence 0.7 and placeholder text.
func NewPosition(stance core.Stance) *PositionBuilder {
	return &PositionBuilder{p: core.Position{
		Stance:     stance,
		Summary:    "A " + string(stance) + " position.",
		Confidence: 0.7,
		Reasoning:  "Reasoning for a " + string(stance) + " position.",
		Evidence:   []core.Evidence{},
		Risks:      []string{},
	}}
}

// Summary sets the summary (chainable).
func (b *PositionBuilder) Summary(s string) *PositionBuilder { b.p.Summary = s; return b }

// Reasoning sets the reasoning (chainable).
func (b *PositionBuilder) Reasoning(s string) *PositionBuilder { b.p.Reasoning = s; return b }

// Confidence sets the confidence (chainable).
func (b *PositionBuilder) Confidence(c float64) *PositionBuilder { b.p.Confidence = c; return b }

// Evidence appends an evidence point (chainable).
func (b *PositionBuilder) Evidence(claim, basis string) *PositionBuilder {
	b.p.Evidence = append(b.p.Evidence, core.Evidence{Claim: claim, Basis: basis})
	return b
}

// Risk appends a risk (chainable).
func (b *PositionBuilder) Risk(r string) *PositionBuilder {
	b.p.Risks = append(b.p.Risks, r)
	return b
}

// Build returns the constructed position.
func (b *PositionBuilder) Build() core.Position { return b.p }

// Positions assembles a position set in participant order A, B, C.
func Positions(a, b, c core.Position) core.Positions {
	return core.Positions{core.ParticipantA: a, core.ParticipantB: b, core.ParticipantC: c}
}

// UniformPositions returns three positions sharing stance and confidence.
func UniformPositions(stance core.Stance, confidence float64) core.Positions {
	p := NewPosition(stance).Confidence(confidence).Build()
	return Positions(p, p, p)
}

// Critique builds a critique of target with one challenge per severity.
func Critique(target core.ParticipantID, severities ...core.Severity) core.Critique {
	c := core.Critique{
		TargetParticipant:   target,
		Agreements:          []string{"Agrees on the framing."},
		Challenges:          []core.Challenge{},
		MissingPerspectives: []string{"Long-term effects."},
		OverallAssessment:   core.AssessmentModerate,
	}
	for _, s := range severities {
		c.Challenges = append(c.Challenges, core.Challenge{
			Point:           "Juror " + string(target) + " overstates the evidence.",
			Counterargument: "The cited studies are small.",
			Severity:        s,
		})
	}
	return c
}

// RoundRobinCritiques lets every participant critique the next one (A→B,
// B→C, C→A) with the given severities.
func RoundRobinCritiques(severities ...core.Severity) core.Critiques {
	return core.Critiques{
		core.ParticipantA: {Critique(core.ParticipantB, severities...)},
		core.ParticipantB: {Critique(core.ParticipantC, severities...)},
		core.ParticipantC: {Critique(core.ParticipantA, severities...)},
	}
}

// Baseline builds a baseline answer.
func Baseline(stance core.Stance, summary string) core.Baseline {
	return core.Baseline{Stance: stance, Summary: summary, Confidence: 0.6, Reasoning: "Single pass reasoning."}
}

// Rebuttal builds a rebuttal with one concession and one defense.
func Rebuttal(stance core.Stance, summary string) core.Rebuttal {
	return core.Rebuttal{
		Concessions:    []string{"The sample size is small."},
		Defenses:       []string{"The effect is consistent."},
		RefinedStance:  stance,
		RefinedSummary: summary,
	}
}

// Revision builds a revised position moving from one stance to another.
func Revision(from, to core.Stance, summary string) core.RevisedPosition {
	return core.RevisedPosition{
		OriginalStance:  from,
		RevisedStance:   to,
		PositionChanged: from != to,
		Confidence:      0.75,
		Summary:         summary,
		Reasoning:       "Revised after critiques.",
		Concessions:     []string{},
		Rebuttals:       []string{},
	}
}

// Verdict builds a verdict with one entry in every list.
func Verdict(text string) core.Verdict {
	flag := core.HallucinationFlag{Participant: "B", Claim: "A 90% success rate.", Reason: "No source."}
	return core.Verdict{
		Verdict:            text,
		AgreementScore:     0.8,
		ConfidenceScore:    0.7,
		PositionBreakdown:  core.PositionBreakdown{Support: 2, Nuanced: 1},
		KeyAgreements:      []string{"Costs are high."},
		KeyDisagreements:   []string{"Timing."},
		KeyEvidence:        []string{"Meta-analysis 2024."},
		NextActions:        []string{"Consult a specialist."},
		ReasoningQuality:   core.ReasoningQuality{A: 8, B: 7, C: 7.5},
		HallucinationFlags: []core.HallucinationFlag{flag},
		FinalReasoning:     "Weighted the evidence from all jurors.",
	}
}

// Evaluation builds an evaluation won by winner.
func Evaluation(winner core.Winner) core.Evaluation {
	return core.Evaluation{
		Baseline:  core.EvaluationScore{Overall: 6, Consistency: 6, Specificity: 5, Reasoning: 6, Coverage: 5, Notes: "Brief."},
		Jury:      core.EvaluationScore{Overall: 8, Consistency: 8, Specificity: 8, Reasoning: 9, Coverage: 8, Notes: "Thorough."},
		Winner:    winner,
		Rationale: "The jury covered more perspectives.",
	}
}

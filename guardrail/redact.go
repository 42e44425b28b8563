package guardrail

import "github.com/hupe1980/agentjury/core"

func positionText(p core.Position) []string {
	parts := []string{p.Summary, p.Reasoning}
	for _, e := range p.Evidence {
		parts = append(parts, e.Claim+" "+e.Basis)
	}
	return append(parts, p.Risks...)
}

func critiqueText(c core.Critique) []string {
	parts := []string{string(c.TargetParticipant)}
	parts = append(parts, c.Agreements...)
	for _, ch := range c.Challenges {
		parts = append(parts, ch.Point+" "+ch.Counterargument)
	}
	parts = append(parts, c.MissingPerspectives...)
	return append(parts, string(c.OverallAssessment))
}

func rebuttalText(r core.Rebuttal) []string {
	parts := append([]string{}, r.Concessions...)
	parts = append(parts, r.Defenses...)
	return append(parts, r.RefinedSummary)
}

func revisionText(r core.RevisedPosition) []string {
	parts := []string{r.Summary, r.Reasoning}
	parts = append(parts, r.Concessions...)
	return append(parts, r.Rebuttals...)
}

func verdictText(v core.Verdict) []string {
	parts := []string{v.Verdict, v.FinalReasoning}
	parts = append(parts, v.KeyAgreements...)
	parts = append(parts, v.KeyDisagreements...)
	parts = append(parts, v.KeyEvidence...)
	parts = append(parts, v.NextActions...)
	for _, f := range v.HallucinationFlags {
		parts = append(parts, f.Participant+" "+f.Claim+" "+f.Reason)
	}
	return parts
}

func redactBaseline(b core.Baseline) core.Baseline {
	b.Summary = RedactedText
	b.Reasoning = RedactedText
	return b
}

func redactPosition(p core.Position) core.Position {
	p.Summary = RedactedText
	p.Reasoning = RedactedText
	p.Evidence = []core.Evidence{}
	p.Risks = []string{}
	return p
}

func redactCritique(c core.Critique) core.Critique {
	c.Agreements = []string{}
	c.Challenges = []core.Challenge{}
	c.MissingPerspectives = []string{}
	return c
}

func redactRebuttal(r core.Rebuttal) core.Rebuttal {
	r.Concessions = []string{}
	r.Defenses = []string{}
	r.RefinedSummary = RedactedText
	return r
}

func redactRevision(r core.RevisedPosition) core.RevisedPosition {
	r.Summary = RedactedText
	r.Reasoning = RedactedText
	r.Concessions = []string{}
	r.Rebuttals = []string{}
	return r
}

func redactVerdict(v core.Verdict) core.Verdict {
	v.Verdict = RedactedText
	v.FinalReasoning = RedactedText
	v.KeyAgreements = []string{}
	v.KeyDisagreements = []string{}
	v.KeyEvidence = []string{}
	v.NextActions = []string{}
	v.HallucinationFlags = []core.HallucinationFlag{}
	return v
}

func redactEvaluation(e core.Evaluation) core.Evaluation {
	e.Baseline.Notes = RedactedText
	e.Jury.Notes = RedactedText
	e.Rationale = RedactedText
	return e
}

package coordination

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/hupe1980/agentjury/core"
)

// Thresholds of the coordination policy.
const (
	SkipCritiqueAgreement  = 0.8
	SkipCritiqueConfidence = 0.6
	DeepAgreementBelow     = 0.4
	SkipRevisionAgreement  = 0.6
)

// Rationales attached to decisions.
const (
	RationaleFastTrack    = "High agreement and confidence; fast-tracking to verdict."
	RationaleDisagreement = "Disagreement detected; running critique and revision rounds."
	RationaleDeep         = "Low agreement detected; running deep deliberation with rebuttals."
	RationaleLowSeverity  = "Low-severity critiques; skipping revision round."
)

const (
	identicalPairScore = 1.0
	nuancedPairScore   = 0.6
	opposedPairScore   = 0.0
)

var pairs = [][2]core.ParticipantID{
	{core.ParticipantA, core.ParticipantB},
	{core.ParticipantA, core.ParticipantC},
	{core.ParticipantB, core.ParticipantC},
}

// PairScore scores the agreement of two stances: 1 when identical, 0.6 when
// either is nuanced and 0 otherwise.
func PairScore(a, b core.Stance) float64 {
	switch {
	case a == b:
		return identicalPairScore
	case a == core.StanceNuanced || b == core.StanceNuanced:
		return nuancedPairScore
	default:
		return opposedPairScore
	}
}

// AgreementScore is the mean pairwise agreement across the participants.
func AgreementScore(p core.Positions) float64 {
	scores := make(stats.Float64Data, 0, len(pairs))
	for _, pair := range pairs {
		scores = append(scores, PairScore(p[pair[0]].Stance, p[pair[1]].Stance))
	}
	mean, err := stats.Mean(scores)
	if err != nil {
		return 0
	}
	return mean
}

// AverageConfidence is the mean confidence of the participants.
func AverageConfidence(p core.Positions) float64 {
	conf := make(stats.Float64Data, 0, len(core.Participants))
	for _, id := range core.Participants {
		conf = append(conf, p[id].Confidence)
	}
	mean, err := stats.Mean(conf)
	if err != nil {
		return 0
	}
	return mean
}

// DisagreementFocus describes every pair of participants whose stances differ.
func DisagreementFocus(p core.Positions) []string {
	focus := []string{}
	for _, pair := range pairs {
		left, right := p[pair[0]], p[pair[1]]
		if left.Stance == right.Stance {
			continue
		}
		focus = append(focus, fmt.Sprintf("Juror %s (%s): %s | Juror %s (%s): %s",
			pair[0], left.Stance, left.Summary, pair[1], right.Stance, right.Summary))
	}
	return focus
}

// Decide computes the initial decision after the positions round.
func Decide(p core.Positions) core.CoordinationDecision {
	agreement := AgreementScore(p)
	confidence := AverageConfidence(p)

	skip := agreement >= SkipCritiqueAgreement && confidence >= SkipCritiqueConfidence
	deep := !skip && agreement < DeepAgreementBelow

	rationale := RationaleDisagreement
	switch {
	case skip:
		rationale = RationaleFastTrack
	case deep:
		rationale = RationaleDeep
	}

	return core.CoordinationDecision{
		AgreementScore:    agreement,
		AverageConfidence: confidence,
		SkipCritique:      skip,
		SkipRevision:      skip,
		DeepDeliberation:  deep,
		Rationale:         rationale,
		DisagreementFocus: DisagreementFocus(p),
	}
}

// Revise re-evaluates the revision skip after critiques resolved. Decisions
// that skipped critiques or entered deep deliberation are returned as is.
// The boolean reports whether the returned decision differs from d.
func Revise(d core.CoordinationDecision, c core.Critiques) (core.CoordinationDecision, bool) {
	if d.SkipCritique || d.DeepDeliberation {
		return d, false
	}

	skip := c.MajorChallengeCount() == 0 && d.AgreementScore >= SkipRevisionAgreement
	if skip == d.SkipRevision {
		return d, false
	}

	next := d
	next.SkipRevision = skip
	next.DisagreementFocus = append([]string(nil), d.DisagreementFocus...)
	if skip {
		next.Rationale = RationaleLowSeverity
	} else {
		next.Rationale = RationaleDisagreement
	}
	return next, true
}

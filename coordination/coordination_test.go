package coordination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentjury/core"
)

func positions(a, b, c core.Stance, conf float64) core.Positions {
	return core.Positions{
		core.ParticipantA: {Stance: a, Summary: "summary A", Confidence: conf},
		core.ParticipantB: {Stance: b, Summary: "summary B", Confidence: conf},
		core.ParticipantC: {Stance: c, Summary: "summary C", Confidence: conf},
	}
}

func TestPairScore(t *testing.T) {
	tests := []struct {
		a, b core.Stance
		want float64
	}{
		{core.StanceSupport, core.StanceSupport, 1},
		{core.StanceNuanced, core.StanceNuanced, 1},
		{core.StanceSupport, core.StanceNuanced, 0.6},
		{core.StanceNuanced, core.StanceOppose, 0.6},
		{core.StanceSupport, core.StanceOppose, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.a)+"_"+string(tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, PairScore(tt.a, tt.b))
			assert.Equal(t, tt.want, PairScore(tt.b, tt.a))
		})
	}
}

func TestAgreementScore_IdenticalStances(t *testing.T) {
	for _, s := range []core.Stance{core.StanceSupport, core.StanceOppose, core.StanceNuanced} {
		assert.Equal(t, 1.0, AgreementScore(positions(s, s, s, 0.5)))
	}
}

func TestAgreementScore_NuancedPairing(t *testing.T) {
	// A and B agree, C is nuanced: (1 + 0.6 + 0.6) / 3
	score := AgreementScore(positions(core.StanceSupport, core.StanceSupport, core.StanceNuanced, 0.5))
	assert.InDelta(t, 2.2/3, score, 1e-9)
}

func TestAverageConfidence(t *testing.T) {
	p := positions(core.StanceSupport, core.StanceSupport, core.StanceSupport, 0)
	p[core.ParticipantA] = core.Position{Stance: core.StanceSupport, Confidence: 0.9}
	p[core.ParticipantB] = core.Position{Stance: core.StanceSupport, Confidence: 0.6}
	p[core.ParticipantC] = core.Position{Stance: core.StanceSupport, Confidence: 0.3}
	assert.InDelta(t, 0.6, AverageConfidence(p), 1e-9)
}

func TestDisagreementFocus(t *testing.T) {
	p := positions(core.StanceSupport, core.StanceOppose, core.StanceSupport, 0.5)
	focus := DisagreementFocus(p)
	require.Len(t, focus, 2)
	assert.Equal(t, "Juror A (support): summary A | Juror B (oppose): summary B", focus[0])
	assert.Equal(t, "Juror B (oppose): summary B | Juror C (support): summary C", focus[1])

	assert.Empty(t, DisagreementFocus(positions(core.StanceOppose, core.StanceOppose, core.StanceOppose, 0.5)))
	assert.NotNil(t, DisagreementFocus(positions(core.StanceOppose, core.StanceOppose, core.StanceOppose, 0.5)))
}

func TestDecide_FastTrack(t *testing.T) {
	d := Decide(positions(core.StanceSupport, core.StanceSupport, core.StanceSupport, 0.7))

	assert.Equal(t, 1.0, d.AgreementScore)
	assert.InDelta(t, 0.7, d.AverageConfidence, 1e-9)
	assert.True(t, d.SkipCritique)
	assert.True(t, d.SkipRevision)
	assert.False(t, d.DeepDeliberation)
	assert.Equal(t, RationaleFastTrack, d.Rationale)
}

func TestDecide_LowConfidenceStillDebates(t *testing.T) {
	d := Decide(positions(core.StanceSupport, core.StanceSupport, core.StanceSupport, 0.5))

	assert.False(t, d.SkipCritique)
	assert.False(t, d.SkipRevision)
	assert.False(t, d.DeepDeliberation)
	assert.Equal(t, RationaleDisagreement, d.Rationale)
}

func TestDecide_DeepDeliberation(t *testing.T) {
	// A support, B oppose, C support: (0 + 1 + 0) / 3
	d := Decide(positions(core.StanceSupport, core.StanceOppose, core.StanceSupport, 0.9))

	assert.InDelta(t, 1.0/3, d.AgreementScore, 1e-9)
	assert.True(t, d.DeepDeliberation)
	assert.False(t, d.SkipCritique)
	assert.False(t, d.SkipRevision)
	assert.Equal(t, RationaleDeep, d.Rationale)
	assert.Len(t, d.DisagreementFocus, 2)
}

func TestDecide_DeepImpliesCritique(t *testing.T) {
	stances := []core.Stance{core.StanceSupport, core.StanceOppose, core.StanceNuanced}
	for _, a := range stances {
		for _, b := range stances {
			for _, c := range stances {
				for _, conf := range []float64{0, 0.5, 1} {
					d := Decide(positions(a, b, c, conf))
					if d.DeepDeliberation {
						assert.False(t, d.SkipCritique)
					}
					assert.Equal(t, d.SkipCritique, d.SkipRevision)
				}
			}
		}
	}
}

func critiques(severities ...core.Severity) core.Critiques {
	c := core.EmptyCritiques()
	for _, s := range severities {
		c[core.ParticipantA] = append(c[core.ParticipantA], core.Critique{
			TargetParticipant: core.ParticipantB,
			Challenges:        []core.Challenge{{Point: "p", Counterargument: "c", Severity: s}},
		})
	}
	return c
}

func TestRevise_SkipsRevisionOnLowSeverity(t *testing.T) {
	d := Decide(positions(core.StanceSupport, core.StanceSupport, core.StanceNuanced, 0.5))
	require.False(t, d.SkipCritique)
	require.False(t, d.DeepDeliberation)

	next, changed := Revise(d, critiques(core.SeverityMinor, core.SeverityModerate))
	assert.True(t, changed)
	assert.True(t, next.SkipRevision)
	assert.Equal(t, RationaleLowSeverity, next.Rationale)
	assert.Equal(t, d.AgreementScore, next.AgreementScore)

	assert.False(t, d.SkipRevision)
	assert.Equal(t, RationaleDisagreement, d.Rationale)
}

func TestRevise_MajorChallengeKeepsRevision(t *testing.T) {
	d := Decide(positions(core.StanceSupport, core.StanceSupport, core.StanceNuanced, 0.5))

	next, changed := Revise(d, critiques(core.SeverityMinor, core.SeverityMajor))
	assert.False(t, changed)
	assert.Equal(t, d, next)
}

func TestRevise_LowAgreementKeepsRevision(t *testing.T) {
	// A support, B nuanced, C oppose: (0.6 + 0 + 0.6) / 3 is below the revision threshold
	d := Decide(positions(core.StanceSupport, core.StanceNuanced, core.StanceOppose, 0.5))
	d.DeepDeliberation = false

	_, changed := Revise(d, critiques())
	assert.False(t, changed)
}

func TestRevise_IgnoresDeepAndSkipped(t *testing.T) {
	deep := core.CoordinationDecision{AgreementScore: 0.9, DeepDeliberation: true}
	next, changed := Revise(deep, critiques())
	assert.False(t, changed)
	assert.Equal(t, deep, next)

	skipped := Decide(positions(core.StanceOppose, core.StanceOppose, core.StanceOppose, 0.9))
	next, changed = Revise(skipped, core.EmptyCritiques())
	assert.False(t, changed)
	assert.Equal(t, skipped, next)
}

package core

import (
	"fmt"
	"strings"
)

// Domain classifies the subject area of a debate question.
type Domain string

const (
	// DomainFinance covers markets, valuation and regulation questions.
	DomainFinance Domain = "finance"
	// DomainHealthcare covers clinical and public health questions.
	DomainHealthcare Domain = "healthcare"
	// DomainLegal covers statutory and case-law questions.
	DomainLegal Domain = "legal"
	// DomainGeneral covers everything else.
	DomainGeneral Domain = "general"
)

// Domains lists every supported domain in display order.
var Domains = []Domain{DomainFinance, DomainHealthcare, DomainLegal, DomainGeneral}

// Valid reports whether d is one of the supported domains.
func (d Domain) Valid() bool {
	for _, v := range Domains {
		if d == v {
			return true
		}
	}
	return false
}

// Stance is a participant's categorical judgment on the question.
type Stance string

const (
	StanceSupport Stance = "support"
	StanceOppose  Stance = "oppose"
	StanceNuanced Stance = "nuanced"
)

// Valid reports whether s is a known stance.
func (s Stance) Valid() bool {
	switch s {
	case StanceSupport, StanceOppose, StanceNuanced:
		return true
	}
	return false
}

// Severity grades a single critique challenge.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

// Assessment is a critic's overall judgment of the position it reviewed.
// It is informational only and never drives control flow.
type Assessment string

const (
	AssessmentWeak     Assessment = "weak"
	AssessmentModerate Assessment = "moderate"
	AssessmentStrong   Assessment = "strong"
)

// Winner names the side preferred by the evaluator.
type Winner string

const (
	WinnerBaseline Winner = "baseline"
	WinnerJury     Winner = "jury"
	WinnerTie      Winner = "tie"
)

// ParticipantID identifies one of the three jurors.
type ParticipantID string

const (
	ParticipantA ParticipantID = "A"
	ParticipantB ParticipantID = "B"
	ParticipantC ParticipantID = "C"
)

// Participants lists the jurors in their canonical order.
var Participants = []ParticipantID{ParticipantA, ParticipantB, ParticipantC}

// ParseParticipant resolves free-form references such as "B", "juror b" or
// "Juror B" to a ParticipantID.
func ParseParticipant(s string) (ParticipantID, bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSpace(strings.TrimPrefix(v, "JUROR"))
	for _, p := range Participants {
		if v == string(p) {
			return p, true
		}
	}
	return "", false
}

// DebateContext is the immutable input shared by every worker in a run.
type DebateContext struct {
	Query  string `json:"query"`
	Domain Domain `json:"domain"`
}

// Baseline is a single-shot answer produced without deliberation.
type Baseline struct {
	Stance     Stance  `json:"stance" enum:"support,oppose,nuanced"`
	Summary    string  `json:"summary" description:"1-2 sentence summary"`
	Confidence float64 `json:"confidence" description:"Confidence between 0 and 1"`
	Reasoning  string  `json:"reasoning" description:"Short explanation"`
}

// Validate checks enum membership and the confidence range.
func (b Baseline) Validate() error {
	if !b.Stance.Valid() {
		return fmt.Errorf("baseline: unknown stance %q", b.Stance)
	}
	return checkUnit("baseline confidence", b.Confidence)
}

// Evidence is a single supporting claim with its basis.
type Evidence struct {
	Claim string `json:"claim"`
	Basis string `json:"basis" description:"Source, data, or logic"`
}

// Position is a participant's initial judgment.
type Position struct {
	Stance     Stance     `json:"stance" enum:"support,oppose,nuanced"`
	Summary    string     `json:"summary" description:"1-2 sentence position statement"`
	Confidence float64    `json:"confidence" description:"Confidence in this position between 0 and 1"`
	Reasoning  string     `json:"reasoning" description:"Detailed reasoning"`
	Evidence   []Evidence `json:"evidence" description:"Supporting evidence points"`
	Risks      []string   `json:"risks" description:"Key risks or caveats"`
}

// Validate checks enum membership and the confidence range.
func (p Position) Validate() error {
	if !p.Stance.Valid() {
		return fmt.Errorf("position: unknown stance %q", p.Stance)
	}
	return checkUnit("position confidence", p.Confidence)
}

// Normalize replaces nil lists with empty ones.
func (p *Position) Normalize() {
	p.Evidence = orEmpty(p.Evidence)
	p.Risks = orEmpty(p.Risks)
}

// Challenge disputes one point of a reviewed position.
type Challenge struct {
	Point           string   `json:"point" description:"Claim being challenged"`
	Counterargument string   `json:"counterargument" description:"Why it is wrong or incomplete"`
	Severity        Severity `json:"severity" enum:"minor,moderate,major"`
}

// Critique is one participant's review of another participant's position.
type Critique struct {
	TargetParticipant   ParticipantID `json:"targetParticipant" enum:"A,B,C" description:"Which juror is being critiqued"`
	Agreements          []string      `json:"agreements" description:"Points of agreement"`
	Challenges          []Challenge   `json:"challenges"`
	MissingPerspectives []string      `json:"missingPerspectives" description:"What was overlooked"`
	OverallAssessment   Assessment    `json:"overallAssessment" enum:"weak,moderate,strong"`
}

// Normalize canonicalizes the target reference and replaces nil lists.
func (c *Critique) Normalize() {
	if p, ok := ParseParticipant(string(c.TargetParticipant)); ok {
		c.TargetParticipant = p
	}
	c.Agreements = orEmpty(c.Agreements)
	c.Challenges = orEmpty(c.Challenges)
	c.MissingPerspectives = orEmpty(c.MissingPerspectives)
}

// Rebuttal answers the critiques a participant received. It is only produced
// during deep deliberation.
type Rebuttal struct {
	Concessions    []string `json:"concessions" description:"Points conceded after reading critiques"`
	Defenses       []string `json:"defenses" description:"Points defended against critiques"`
	RefinedStance  Stance   `json:"refinedStance" enum:"support,oppose,nuanced"`
	RefinedSummary string   `json:"refinedSummary" description:"Updated summary after rebuttal"`
}

// Validate checks enum membership.
func (r Rebuttal) Validate() error {
	if !r.RefinedStance.Valid() {
		return fmt.Errorf("rebuttal: unknown stance %q", r.RefinedStance)
	}
	return nil
}

// Normalize replaces nil lists with empty ones.
func (r *Rebuttal) Normalize() {
	r.Concessions = orEmpty(r.Concessions)
	r.Defenses = orEmpty(r.Defenses)
}

// RevisedPosition supersedes a Position after the critique round.
type RevisedPosition struct {
	OriginalStance  Stance   `json:"originalStance" enum:"support,oppose,nuanced"`
	RevisedStance   Stance   `json:"revisedStance" enum:"support,oppose,nuanced"`
	PositionChanged bool     `json:"positionChanged"`
	Confidence      float64  `json:"confidence"`
	Summary         string   `json:"summary"`
	Reasoning       string   `json:"reasoning"`
	Concessions     []string `json:"concessions"`
	Rebuttals       []string `json:"rebuttals"`
}

// Validate checks enum membership and the confidence range.
func (r RevisedPosition) Validate() error {
	if !r.OriginalStance.Valid() || !r.RevisedStance.Valid() {
		return fmt.Errorf("revision: unknown stance %q -> %q", r.OriginalStance, r.RevisedStance)
	}
	return checkUnit("revision confidence", r.Confidence)
}

// Normalize replaces nil lists with empty ones.
func (r *RevisedPosition) Normalize() {
	r.Concessions = orEmpty(r.Concessions)
	r.Rebuttals = orEmpty(r.Rebuttals)
}

// CoordinationDecision dictates which optional rounds run. Values are never
// patched in place; a re-evaluation yields a new decision.
type CoordinationDecision struct {
	AgreementScore    float64  `json:"agreementScore"`
	AverageConfidence float64  `json:"averageConfidence"`
	SkipCritique      bool     `json:"skipCritique"`
	SkipRevision      bool     `json:"skipRevision"`
	DeepDeliberation  bool     `json:"deepDeliberation"`
	Rationale         string   `json:"rationale"`
	DisagreementFocus []string `json:"disagreementFocus"`
}

// PositionBreakdown counts final stances.
type PositionBreakdown struct {
	Support int `json:"support"`
	Oppose  int `json:"oppose"`
	Nuanced int `json:"nuanced"`
}

// ReasoningQuality scores each participant's argument on a 0-10 scale.
type ReasoningQuality struct {
	A float64 `json:"A"`
	B float64 `json:"B"`
	C float64 `json:"C"`
}

// HallucinationFlag marks a claim the chief justice considers unsupported.
type HallucinationFlag struct {
	Participant string `json:"participant"`
	Claim       string `json:"claim"`
	Reason      string `json:"reason"`
}

// Verdict is the synthesized consensus of a debate.
type Verdict struct {
	Verdict            string              `json:"verdict" description:"Consensus verdict in 1-2 sentences"`
	AgreementScore     float64             `json:"agreementScore"`
	ConfidenceScore    float64             `json:"confidenceScore"`
	PositionBreakdown  PositionBreakdown   `json:"positionBreakdown"`
	KeyAgreements      []string            `json:"keyAgreements"`
	KeyDisagreements   []string            `json:"keyDisagreements"`
	KeyEvidence        []string            `json:"keyEvidence" description:"Key evidence supporting the verdict"`
	NextActions        []string            `json:"nextActions" description:"Recommended next actions tied to the verdict"`
	ReasoningQuality   ReasoningQuality    `json:"reasoningQuality"`
	HallucinationFlags []HallucinationFlag `json:"hallucinationFlags"`
	FinalReasoning     string              `json:"finalReasoning"`
}

// Validate checks the score ranges.
func (v Verdict) Validate() error {
	if err := checkUnit("verdict agreementScore", v.AgreementScore); err != nil {
		return err
	}
	if err := checkUnit("verdict confidenceScore", v.ConfidenceScore); err != nil {
		return err
	}
	for _, q := range []float64{v.ReasoningQuality.A, v.ReasoningQuality.B, v.ReasoningQuality.C} {
		if q < 0 || q > 10 {
			return fmt.Errorf("verdict reasoningQuality out of range: %v", q)
		}
	}
	return nil
}

// Normalize replaces nil lists with empty ones.
func (v *Verdict) Normalize() {
	v.KeyAgreements = orEmpty(v.KeyAgreements)
	v.KeyDisagreements = orEmpty(v.KeyDisagreements)
	v.KeyEvidence = orEmpty(v.KeyEvidence)
	v.NextActions = orEmpty(v.NextActions)
	v.HallucinationFlags = orEmpty(v.HallucinationFlags)
}

// EvaluationScore grades one answer on a 0-10 scale.
type EvaluationScore struct {
	Overall     float64 `json:"overall"`
	Consistency float64 `json:"consistency"`
	Specificity float64 `json:"specificity"`
	Reasoning   float64 `json:"reasoning"`
	Coverage    float64 `json:"coverage"`
	Notes       string  `json:"notes" description:"Short notes on answer quality"`
}

// Evaluation compares the baseline answer with the jury verdict.
type Evaluation struct {
	Baseline  EvaluationScore `json:"baseline"`
	Jury      EvaluationScore `json:"jury"`
	Winner    Winner          `json:"winner" enum:"baseline,jury,tie"`
	Rationale string          `json:"rationale" description:"1-2 sentence comparison rationale"`
}

// Validate checks the winner enum.
func (e Evaluation) Validate() error {
	switch e.Winner {
	case WinnerBaseline, WinnerJury, WinnerTie:
		return nil
	}
	return fmt.Errorf("evaluation: unknown winner %q", e.Winner)
}

// Positions holds exactly one position per participant.
type Positions map[ParticipantID]Position

// Complete reports whether every participant has a position.
func (p Positions) Complete() bool {
	for _, id := range Participants {
		if _, ok := p[id]; !ok {
			return false
		}
	}
	return true
}

// Critiques maps each author to the critiques it produced.
type Critiques map[ParticipantID][]Critique

// EmptyCritiques returns a set with an empty, non-nil list for every
// participant.
func EmptyCritiques() Critiques {
	c := make(Critiques, len(Participants))
	for _, id := range Participants {
		c[id] = []Critique{}
	}
	return c
}

// Received returns the critiques other participants addressed to target.
func (c Critiques) Received(target ParticipantID) []Critique {
	out := []Critique{}
	for _, author := range Participants {
		if author == target {
			continue
		}
		for _, cr := range c[author] {
			if cr.TargetParticipant == target {
				out = append(out, cr)
			}
		}
	}
	return out
}

// MajorChallengeCount counts challenges graded major across all critiques.
func (c Critiques) MajorChallengeCount() int {
	n := 0
	for _, list := range c {
		for _, cr := range list {
			for _, ch := range cr.Challenges {
				if ch.Severity == SeverityMajor {
					n++
				}
			}
		}
	}
	return n
}

// Rebuttals maps each participant to its rebuttal.
type Rebuttals map[ParticipantID]Rebuttal

// Revisions maps each participant to its revised position.
type Revisions map[ParticipantID]RevisedPosition

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s out of range [0,1]: %v", name, v)
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

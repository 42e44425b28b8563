package core

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Phase names a stage of the debate state machine.
type Phase string

const (
	PhaseBaseline  Phase = "baseline"
	PhasePositions Phase = "positions"
	PhaseCritique  Phase = "critique"
	PhaseRebuttal  Phase = "rebuttal"
	PhaseRevision  Phase = "revision"
	PhaseVerdict   Phase = "verdict"
	// PhaseEvaluation is used for logging only; it never appears as a phase event.
	PhaseEvaluation Phase = "evaluation"
)

// EventType is the wire discriminator of an Event.
type EventType string

const (
	EventPhase             EventType = "phase"
	EventBaselineFair      EventType = "baseline_fair"
	EventBaselineMini      EventType = "baseline_mini"
	EventJurorDelta        EventType = "juror_delta"
	EventCoordination      EventType = "coordination"
	EventPositionsComplete EventType = "positions_complete"
	EventCritiquesComplete EventType = "critiques_complete"
	EventRebuttalsComplete EventType = "rebuttals_complete"
	EventRevisionsComplete EventType = "revisions_complete"
	EventVerdict           EventType = "verdict"
	EventEvaluation        EventType = "evaluation"
	EventUsage             EventType = "usage"
	EventComplete          EventType = "complete"
	EventError             EventType = "error"
)

// Event is a single record of the debate stream. The set of implementations
// is closed: concrete types implement the unexported isEvent marker. After
// emission an Event is owned by the receiver and must not be mutated by the
// producer.
//
// Every Event marshals to a JSON object carrying a "type" field with its
// EventType plus the payload fields of the concrete case.
type Event interface {
	Type() EventType
	isEvent()
}

// PhaseEvent marks the start of a phase.
type PhaseEvent struct {
	Phase Phase `json:"phase"`
}

// BaselineVariant distinguishes the two baseline answers.
type BaselineVariant string

const (
	// BaselineFair is produced by the user-selected backing model.
	BaselineFair BaselineVariant = "fair"
	// BaselineMini is produced by the alternate backing model.
	BaselineMini BaselineVariant = "mini"
)

// BaselineEvent carries one baseline answer.
type BaselineEvent struct {
	Variant BaselineVariant `json:"-"`
	Data    Baseline        `json:"data"`
}

// JurorDeltaEvent is a bounded fragment of a participant's position text.
type JurorDeltaEvent struct {
	Participant ParticipantID `json:"juror"`
	Delta       string        `json:"delta"`
}

// CoordinationEvent publishes a coordination decision.
type CoordinationEvent struct {
	Data CoordinationDecision `json:"data"`
}

// PositionsCompleteEvent carries all three initial positions.
type PositionsCompleteEvent struct {
	Positions Positions `json:"positions"`
}

// CritiquesCompleteEvent carries every critique keyed by author. When the
// critique round is skipped every list is empty, never nil.
type CritiquesCompleteEvent struct {
	Critiques Critiques `json:"critiques"`
}

// RebuttalsCompleteEvent carries every rebuttal. Rebuttals is nil when the
// round did not run.
type RebuttalsCompleteEvent struct {
	Rebuttals Rebuttals `json:"rebuttals"`
}

// RevisionsCompleteEvent carries every revised position. Revisions is nil
// when the revision round was skipped.
type RevisionsCompleteEvent struct {
	Revisions Revisions `json:"revisions"`
}

// VerdictEvent carries the chief justice's verdict.
type VerdictEvent struct {
	Data Verdict `json:"data"`
}

// EvaluationEvent carries the baseline-versus-jury evaluation.
type EvaluationEvent struct {
	Data Evaluation `json:"data"`
}

// UsageEvent reports token usage and cost of a single worker invocation.
type UsageEvent struct {
	Scope UsageScope    `json:"scope"`
	Data  UsageSnapshot `json:"data"`
}

// CompleteEvent terminates a successful run.
type CompleteEvent struct{}

// ErrorEvent terminates a failed run.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (PhaseEvent) Type() EventType { return EventPhase }

func (e BaselineEvent) Type() EventType {
	if e.Variant == BaselineMini {
		return EventBaselineMini
	}
	return EventBaselineFair
}

func (JurorDeltaEvent) Type() EventType        { return EventJurorDelta }
func (CoordinationEvent) Type() EventType      { return EventCoordination }
func (PositionsCompleteEvent) Type() EventType { return EventPositionsComplete }
func (CritiquesCompleteEvent) Type() EventType { return EventCritiquesComplete }
func (RebuttalsCompleteEvent) Type() EventType { return EventRebuttalsComplete }
func (RevisionsCompleteEvent) Type() EventType { return EventRevisionsComplete }
func (VerdictEvent) Type() EventType           { return EventVerdict }
func (EvaluationEvent) Type() EventType        { return EventEvaluation }
func (UsageEvent) Type() EventType             { return EventUsage }
func (CompleteEvent) Type() EventType          { return EventComplete }
func (ErrorEvent) Type() EventType             { return EventError }

func (PhaseEvent) isEvent()             {}
func (BaselineEvent) isEvent()          {}
func (JurorDeltaEvent) isEvent()        {}
func (CoordinationEvent) isEvent()      {}
func (PositionsCompleteEvent) isEvent() {}
func (CritiquesCompleteEvent) isEvent() {}
func (RebuttalsCompleteEvent) isEvent() {}
func (RevisionsCompleteEvent) isEvent() {}
func (VerdictEvent) isEvent()           {}
func (EvaluationEvent) isEvent()        {}
func (UsageEvent) isEvent()             {}
func (CompleteEvent) isEvent()          {}
func (ErrorEvent) isEvent()             {}

// MarshalJSON implements json.Marshaler.
func (e PhaseEvent) MarshalJSON() ([]byte, error) {
	type payload PhaseEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e BaselineEvent) MarshalJSON() ([]byte, error) {
	type payload BaselineEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e JurorDeltaEvent) MarshalJSON() ([]byte, error) {
	type payload JurorDeltaEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e CoordinationEvent) MarshalJSON() ([]byte, error) {
	type payload CoordinationEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e PositionsCompleteEvent) MarshalJSON() ([]byte, error) {
	type payload PositionsCompleteEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e CritiquesCompleteEvent) MarshalJSON() ([]byte, error) {
	type payload CritiquesCompleteEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e RebuttalsCompleteEvent) MarshalJSON() ([]byte, error) {
	type payload RebuttalsCompleteEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e RevisionsCompleteEvent) MarshalJSON() ([]byte, error) {
	type payload RevisionsCompleteEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e VerdictEvent) MarshalJSON() ([]byte, error) {
	type payload VerdictEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e EvaluationEvent) MarshalJSON() ([]byte, error) {
	type payload EvaluationEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e UsageEvent) MarshalJSON() ([]byte, error) {
	type payload UsageEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// MarshalJSON implements json.Marshaler.
func (e CompleteEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type EventType `json:"type"`
	}{e.Type()})
}

// MarshalJSON implements json.Marshaler.
func (e ErrorEvent) MarshalJSON() ([]byte, error) {
	type payload ErrorEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

// IsTerminal reports whether no further events follow e.
func IsTerminal(e Event) bool {
	switch e.(type) {
	case CompleteEvent, ErrorEvent:
		return true
	}
	return false
}

// NewID generates a new unique identifier for runs and requests.
func NewID() string { return uuid.NewString() }

package core

// UsageScope labels the worker a usage snapshot belongs to.
type UsageScope string

const (
	ScopeBaselineFair UsageScope = "baselineFair"
	ScopeBaselineMini UsageScope = "baselineMini"
	ScopeVerdict      UsageScope = "verdict"
	ScopeEvaluator    UsageScope = "evaluator"
)

// JurorScope returns the positions-round scope of a participant (jurorA..C).
func JurorScope(p ParticipantID) UsageScope { return UsageScope("juror" + string(p)) }

// CritiqueScope returns the critique-round scope of a participant.
func CritiqueScope(p ParticipantID) UsageScope { return UsageScope("critique" + string(p)) }

// RebuttalScope returns the rebuttal-round scope of a participant.
func RebuttalScope(p ParticipantID) UsageScope { return UsageScope("rebuttal" + string(p)) }

// RevisionScope returns the revision-round scope of a participant.
func RevisionScope(p ParticipantID) UsageScope { return UsageScope("revision" + string(p)) }

// UsageSnapshot records token consumption of one worker invocation. CostUSD
// is nil when no price is known for Model.
type UsageSnapshot struct {
	WorkerLabel  string   `json:"workerLabel"`
	Model        string   `json:"model"`
	InputTokens  int      `json:"inputTokens"`
	OutputTokens int      `json:"outputTokens"`
	TotalTokens  int      `json:"totalTokens"`
	CostUSD      *float64 `json:"costUsd"`
}

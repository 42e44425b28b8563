package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentjury/core"
)

const (
	skippedHighAgreement = "Skipped due to high agreement in Round 1."
	skippedLowSeverity   = "Skipped due to low-severity critiques."
)

func critiquePrompt(query string, positions core.Positions, focus []string, author core.ParticipantID) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	for _, p := range core.Participants {
		fmt.Fprintf(&b, "Juror %s position: %s\n%s\n\n", p, positions[p].Summary, positions[p].Reasoning)
	}
	if len(focus) > 0 {
		fmt.Fprintf(&b, "Key disagreements to resolve:\n- %s\n\n", strings.Join(focus, "\n- "))
	} else {
		b.WriteString("No major disagreements detected.\n\n")
	}
	fmt.Fprintf(&b, "Provide critiques from the perspective of Juror %s. ", author)
	b.WriteString("Return an object with a 'critiques' array following the schema.")
	return b.String()
}

func rebuttalPrompt(query string, original core.Position, received []core.Critique) string {
	return fmt.Sprintf("Question: %s\n\n", query) +
		fmt.Sprintf("Your original position: %s\n%s\n\n", original.Summary, original.Reasoning) +
		fmt.Sprintf("Critiques you received: %s\n\n", toJSON(received)) +
		"Respond to the critiques. List what you concede and what you defend, then give your refined stance and summary."
}

func revisionPrompt(query string, original core.Position, received []core.Critique, rebuttal *core.Rebuttal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	fmt.Fprintf(&b, "Your original position: %s\n%s\n\n", original.Summary, original.Reasoning)
	fmt.Fprintf(&b, "Critiques you received: %s\n\n", toJSON(received))
	if rebuttal != nil {
		fmt.Fprintf(&b, "Your rebuttal: %s\n\n", toJSON(rebuttal))
	}
	b.WriteString("Revise your position if needed. Provide updated summary, confidence, concessions, and rebuttals.")
	return b.String()
}

func verdictPrompt(query string, d core.CoordinationDecision, positions core.Positions, critiques core.Critiques, rebuttals core.Rebuttals, revisions core.Revisions) string {
	critiqueSummary := skippedHighAgreement
	if !d.SkipCritique {
		critiqueSummary = toJSON(critiques)
	}

	revisionSummary := toJSON(revisions)
	if d.SkipRevision {
		revisionSummary = skippedLowSeverity
		if d.SkipCritique {
			revisionSummary = skippedHighAgreement
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	fmt.Fprintf(&b, "Round 1 positions: %s\n\n", toJSON(positions))
	fmt.Fprintf(&b, "Round 2 critiques: %s\n\n", critiqueSummary)
	if d.DeepDeliberation {
		fmt.Fprintf(&b, "Rebuttals: %s\n\n", toJSON(rebuttals))
	}
	fmt.Fprintf(&b, "Round 3 revisions: %s\n\n", revisionSummary)
	b.WriteString("Synthesize a final consensus verdict with agreement/confidence scores and hallucination flags.")
	return b.String()
}

func evaluationPrompt(query string, baseline core.Baseline, v core.Verdict) string {
	return fmt.Sprintf("Question: %s\n\n", query) +
		fmt.Sprintf("Baseline answer: %s\n", baseline.Summary) +
		fmt.Sprintf("Baseline reasoning: %s\n", baseline.Reasoning) +
		fmt.Sprintf("Baseline confidence: %v\n\n", baseline.Confidence) +
		fmt.Sprintf("Jury verdict: %s\n", v.Verdict) +
		fmt.Sprintf("Final reasoning: %s\n", v.FinalReasoning) +
		fmt.Sprintf("Agreement score: %v\n", v.AgreementScore) +
		fmt.Sprintf("Confidence score: %v\n", v.ConfidenceScore) +
		fmt.Sprintf("Key agreements: %s\n", toJSON(v.KeyAgreements)) +
		fmt.Sprintf("Key disagreements: %s\n\n", toJSON(v.KeyDisagreements)) +
		"Score baseline vs jury for consistency, specificity, reasoning transparency, and coverage. " +
		"Return strict JSON matching the schema."
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// chunk splits s into fragments of at most size runes.
func chunk(s string, size int) []string {
	if size <= 0 {
		size = DefaultConfig.DeltaChunkSize
	}
	runes := []rune(s)
	chunks := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentjury"
	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/samples"
)

func newDebateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debate",
		Short: "Run a single debate and print its events",
		RunE:  runDebate,
	}
	cmd.Flags().String("query", "", "Question to debate")
	cmd.Flags().String("sample", "", "Debate a sample question by id (e.g. finance-1)")
	cmd.Flags().String("domain", string(core.DomainGeneral), "Domain: finance, healthcare, legal or general")
	cmd.Flags().String("model", "", "Backing model (default: first configured option)")
	cmd.Flags().String("format", "text", "Output format: text or json")
	cmd.MarkFlagsMutuallyExclusive("query", "sample")
	cmd.MarkFlagsOneRequired("query", "sample")
	return cmd
}

func runDebate(cmd *cobra.Command, _ []string) error {
	query, _ := cmd.Flags().GetString("query")
	sampleID, _ := cmd.Flags().GetString("sample")
	domain, _ := cmd.Flags().GetString("domain")
	modelName, _ := cmd.Flags().GetString("model")
	format, _ := cmd.Flags().GetString("format")

	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	req := agentjury.Request{Query: query, Domain: core.Domain(domain), Model: modelName}
	if sampleID != "" {
		q, ok := samples.Lookup(sampleID)
		if !ok {
			return fmt.Errorf("unknown sample %q", sampleID)
		}
		req.Query, req.Domain = q.Prompt, q.Domain
	}

	a, err := newApp(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.jury == nil {
		return errors.New("OPENAI_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, events, err := a.jury.Debate(ctx, req)
	if err != nil {
		return fmt.Errorf("%s (%w)", core.UserMessage(err, "Debate failed."), err)
	}

	out := cmd.OutOrStdout()
	var failed string
	for ev := range events {
		if err := printEvent(out, format, ev); err != nil {
			return err
		}
		if e, ok := ev.(core.ErrorEvent); ok {
			failed = e.Message
		}
	}

	if failed != "" {
		return errors.New(failed)
	}
	return ctx.Err()
}

func printEvent(w io.Writer, format string, ev core.Event) error {
	if format == "json" {
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	line := describe(ev)
	if line == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// describe renders ev as a single human readable line. Deltas are skipped.
func describe(ev core.Event) string {
	switch e := ev.(type) {
	case core.PhaseEvent:
		return "== " + strings.ToUpper(string(e.Phase))
	case core.BaselineEvent:
		return fmt.Sprintf("baseline (%s): [%s] %s", e.Variant, e.Data.Stance, e.Data.Summary)
	case core.PositionsCompleteEvent:
		var b strings.Builder
		for i, p := range core.Participants {
			if i > 0 {
				b.WriteString("\n")
			}
			pos := e.Positions[p]
			fmt.Fprintf(&b, "juror %s: [%s %.2f] %s", p, pos.Stance, pos.Confidence, pos.Summary)
		}
		return b.String()
	case core.CoordinationEvent:
		return fmt.Sprintf("coordination: agreement=%.2f confidence=%.2f  %s",
			e.Data.AgreementScore, e.Data.AverageConfidence, e.Data.Rationale)
	case core.CritiquesCompleteEvent:
		n := 0
		for _, list := range e.Critiques {
			n += len(list)
		}
		return fmt.Sprintf("critiques: %d (major challenges: %d)", n, e.Critiques.MajorChallengeCount())
	case core.RebuttalsCompleteEvent:
		return fmt.Sprintf("rebuttals: %d", len(e.Rebuttals))
	case core.RevisionsCompleteEvent:
		if e.Revisions == nil {
			return "revisions: skipped"
		}
		return fmt.Sprintf("revisions: %d", len(e.Revisions))
	case core.VerdictEvent:
		return fmt.Sprintf("verdict: %s\n  agreement=%.2f confidence=%.2f", e.Data.Verdict, e.Data.AgreementScore, e.Data.ConfidenceScore)
	case core.EvaluationEvent:
		return fmt.Sprintf("evaluation: winner=%s baseline=%.1f jury=%.1f", e.Data.Winner, e.Data.Baseline.Overall, e.Data.Jury.Overall)
	case core.UsageEvent:
		cost := "n/a"
		if e.Data.CostUSD != nil {
			cost = fmt.Sprintf("$%.6f", *e.Data.CostUSD)
		}
		return fmt.Sprintf("usage %s: %s %d tokens %s", e.Scope, e.Data.Model, e.Data.TotalTokens, cost)
	case core.CompleteEvent:
		return "complete"
	case core.ErrorEvent:
		return "error: " + e.Message
	default:
		return ""
	}
}

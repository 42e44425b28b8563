package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/samples"
)

func newSamplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "List the curated sample questions",
		RunE:  runSamples,
	}
	cmd.Flags().String("domain", "", "Only list questions of this domain")
	cmd.Flags().Bool("json", false, "Print JSON instead of text")
	return cmd
}

func runSamples(cmd *cobra.Command, _ []string) error {
	domain, _ := cmd.Flags().GetString("domain")
	asJSON, _ := cmd.Flags().GetBool("json")

	items := samples.All()
	if domain != "" {
		if !core.Domain(domain).Valid() {
			return fmt.Errorf("unknown domain %q", domain)
		}
		items = samples.For(core.Domain(domain))
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, q := range items {
		fmt.Fprintf(out, "%-13s %s\n", q.ID, q.Prompt)
	}
	return nil
}

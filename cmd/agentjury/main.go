package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "agentjury",
		Short:         "Multi-round jury debates with safety guardrails",
		Long:          "Runs a panel of three jurors through positions, critiques, optional rebuttals and revisions, and lets a chief justice synthesize a verdict. Every question and every streamed event passes the safety guardrail.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "agentjury.yaml", "Path of the YAML configuration file")
	root.PersistentFlags().String("env-file", ".env", "Path of the dotenv file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newDebateCmd())
	root.AddCommand(newSamplesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

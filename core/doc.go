// Package core provides the foundational domain types shared by every layer of
// agentjury. It defines:
//
//   - The debate vocabulary (domains, stances, participants, severities)
//   - Structured worker outputs (baselines, positions, critiques, rebuttals,
//     revisions, verdicts, evaluations) together with their validation rules
//   - The coordination record that decides which optional rounds run
//   - Event, a closed set of stream events with a stable JSON wire form
//   - The error taxonomy used to separate rejected requests from failed runs
//   - CallBudget, a per-run cap on worker invocations
//
// The package has no knowledge of providers, transport or safety policy; it
// only describes the values that flow between those layers.
package core

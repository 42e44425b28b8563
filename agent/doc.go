// Package agent contains the reasoning worker roles of a debate and the
// plumbing that binds a role to a backing model. The package focuses on
// three concerns:
//
//  1. Role configuration – immutable records of name, instruction template
//     and sampling temperature (jurors, critique/rebuttal/revision modes,
//     baseline, chief justice, evaluator)
//  2. Worker construction – Factory binds a Role to a backing model name
//     resolved through a model.Registry, never mutating the Role
//  3. Structured invocation – Invoke[T] renders instructions, derives the JSON
//     schema of T, calls the model and decodes, normalizes and validates the
//     result
//
// Design principles:
//   - Roles are values; per-run variations are derived copies (WithName,
//     WithTemperature) so shared templates are never modified
//   - Sampling parameters are only sent to models that accept them
//   - The package knows nothing about phases or events; sequencing lives in
//     the engine package
package agent

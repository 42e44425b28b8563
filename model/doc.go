// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with reasoning models inside agentjury.
//
// Core goals:
//   - Unify providers behind a single channel based Generate interface
//   - Request structured output through a named JSON schema (Schema)
//   - Report token usage uniformly (TokenUsage)
//   - Resolve backing model names to providers (Registry)
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (agents, engine) remain decoupled from vendor SDKs.
package model

// Package coordination scores the opening positions of a debate and decides
// which optional rounds run.
//
// A decision is computed once after the positions round with Decide and may
// be re-evaluated once after critiques with Revise. Revise never mutates the
// decision it receives; it returns a new value and reports whether anything
// changed.
package coordination

// Package testutil contains fixture builders used across tests to reduce
// boilerplate when constructing debate records (positions, critiques,
// verdicts) and scripting mock models. These helpers are not intended for
// production usage.
package testutil

// Package guardrail screens debate input and output for safety policy
// violations.
//
// Inbound questions pass CheckInput before a run starts: a deterministic
// prompt-injection detector runs first, then an external moderation
// classifier. Moderation is tri-state (clear, flagged, unavailable) and an
// unavailable classifier fails closed.
//
// Outbound events pass SanitizeEvent (or SanitizeStream for a whole run).
// Sanitization never changes the shape of an event: failing text fields are
// replaced with RedactedText and failing lists are cleared. Collection events
// are screened per participant so one flagged item never taints the others.
package guardrail

package guardrail

import "regexp"

// Rule is a named prompt-injection pattern.
type Rule struct {
	ID      string
	Pattern *regexp.Regexp
}

// Rules is the fixed rule set of the injection detector. Matching is case
// insensitive and bounded by word boundaries, except for the DAN persona
// which must be upper case.
var Rules = []Rule{
	{
		ID:      "ignore_instructions",
		Pattern: regexp.MustCompile(`(?i)\bignore\s+(?:all\s+)?(?:previous|above|prior|all)\s+(?:instructions|rules|directions|messages)\b`),
	},
	{
		ID:      "reveal_system",
		Pattern: regexp.MustCompile(`(?i)\b(?:reveal|show|expose|leak)\s+(?:the\s+|your\s+)?(?:system|developer)\s+(?:prompt|message|instructions)\b`),
	},
	{
		ID:      "system_prompt",
		Pattern: regexp.MustCompile(`(?i)\b(?:system\s+prompt|developer\s+message|hidden\s+prompt|hidden\s+instructions)\b`),
	},
	{
		ID:      "override_policy",
		Pattern: regexp.MustCompile(`(?i)\b(?:override|bypass)\s+(?:the\s+|your\s+)?(?:safety|policy|policies|guardrails|filters)\b`),
	},
	{
		ID:      "prompt_injection",
		Pattern: regexp.MustCompile(`(?i:\b(?:prompt\s+injection|jailbreak(?:ing)?|do\s+anything\s+now)\b)|\bDAN\b`),
	},
}

// Detection is the result of DetectInjection.
type Detection struct {
	Flagged bool     `json:"flagged"`
	Matches []string `json:"matches"`
}

// DetectInjection matches text against Rules. It is pure and never consults
// moderation.
func DetectInjection(text string) Detection {
	d := Detection{Matches: []string{}}
	if text == "" {
		return d
	}
	for _, r := range Rules {
		if r.Pattern.MatchString(text) {
			d.Matches = append(d.Matches, r.ID)
		}
	}
	d.Flagged = len(d.Matches) > 0
	return d
}

// RuleIDs returns the identifiers of Rules in order.
func RuleIDs() []string {
	ids := make([]string, len(Rules))
	for i, r := range Rules {
		ids[i] = r.ID
	}
	return ids
}

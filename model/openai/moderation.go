package openai

import (
	"context"
	"fmt"
	"sort"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"
)

// DefaultModerationModel is the moderation model used when none is configured.
const DefaultModerationModel = "omni-moderation-latest"

// Moderator classifies text with the OpenAI Moderations API. It satisfies the
// classifier contract consumed by the guardrail package.
type Moderator struct {
	client *openai.Client
	model  string
}

// NewModerator creates a Moderator. An empty modelName selects DefaultModerationModel.
func NewModerator(client *openai.Client, modelName string) *Moderator {
	if modelName == "" {
		modelName = DefaultModerationModel
	}
	return &Moderator{client: client, model: modelName}
}

// Classify reports whether any moderation result flagged text, together with
// the sorted names of the flagged categories.
func (m *Moderator) Classify(ctx context.Context, text string) (bool, []string, error) {
	resp, err := m.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.ModerationModel(m.model),
	})
	if err != nil {
		return false, nil, fmt.Errorf("openai moderation error: %w", err)
	}
	if len(resp.Results) == 0 {
		return false, nil, fmt.Errorf("openai moderation returned no results")
	}

	flagged := false
	seen := map[string]struct{}{}
	for _, r := range resp.Results {
		if !r.Flagged {
			continue
		}
		flagged = true
		for _, c := range flaggedCategories(r.Categories.RawJSON()) {
			seen[c] = struct{}{}
		}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return flagged, categories, nil
}

// flaggedCategories lists the keys of a categories object whose value is true.
func flaggedCategories(raw string) []string {
	var out []string
	gjson.Parse(raw).ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.True {
			out = append(out, key.String())
		}
		return true
	})
	return out
}

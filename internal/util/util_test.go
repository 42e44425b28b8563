package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleChallenge struct {
	Point    string `json:"point" description:"Claim being challenged"`
	Severity string `json:"severity" enum:"minor, moderate ,major"`
}

type sampleOutput struct {
	Summary    string            `json:"summary"`
	Confidence float64           `json:"confidence"`
	Count      int               `json:"count"`
	Flag       bool              `json:"flag"`
	Tags       []string          `json:"tags"`
	Challenges []sampleChallenge `json:"challenges"`
	Note       string            `json:"note,omitempty"`
	Ignored    string            `json:"-"`
	hidden     string
}

func TestCreateSchema_Strict(t *testing.T) {
	s := CreateSchema(sampleOutput{})

	assert.Equal(t, "object", s["type"])
	assert.Equal(t, false, s["additionalProperties"])
	assert.ElementsMatch(t, []string{"summary", "confidence", "count", "flag", "tags", "challenges"}, s["required"])

	props := s["properties"].(map[string]any)
	assert.NotContains(t, props, "Ignored")
	assert.NotContains(t, props, "hidden")
	assert.Equal(t, "number", props["confidence"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["count"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["flag"].(map[string]any)["type"])

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, "string", tags["items"].(map[string]any)["type"])

	items := props["challenges"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, false, items["additionalProperties"])
	sev := items["properties"].(map[string]any)["severity"].(map[string]any)
	assert.Equal(t, []string{"minor", "moderate", "major"}, sev["enum"])
	point := items["properties"].(map[string]any)["point"].(map[string]any)
	assert.Equal(t, "Claim being challenged", point["description"])
}

func TestCreateSchema_Pointer(t *testing.T) {
	s := CreateSchema(&sampleChallenge{})
	assert.Equal(t, "object", s["type"])
	assert.Len(t, s["properties"], 2)
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate("Evaluating a {{.Domain}} question ({{upper .Domain}})", struct{ Domain string }{"legal"})
	require.NoError(t, err)
	assert.Equal(t, "Evaluating a legal question (LEGAL)", out)

	_, err = RenderTemplate("{{.Missing}}", map[string]any{})
	assert.Error(t, err)

	_, err = RenderTemplate("{{", nil)
	assert.Error(t, err)
}

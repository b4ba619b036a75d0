package llmgw

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type selection struct {
	Features []string `json:"features"`
}

// keyByPromptHead keys scripted responses by the prompt text before the
// first blank line, so the strict-JSON directive that GenerateJSON and
// GenerateJSONSchema append to the prompt does not change the key.
func keyByPromptHead(req Request) string { return strings.SplitN(req.Prompt, "\n\n", 2)[0] }

func TestGenerateJSON_StripsFencesAndParses(t *testing.T) {
	gw := NewScriptedGateway(keyByPromptHead)
	gw.Script("pick features", Response{
		Content: "```json\n{\"features\": [\"a/b\", \"c/d\"]}\n```",
		OK:      true,
	})

	var out selection
	_, err := GenerateJSON(context.Background(), gw, Request{Prompt: "pick features"}, &out)
	require.NoError(t, err)
	require.Equal(t, []string{"a/b", "c/d"}, out.Features)
}

func TestGenerateJSON_InvalidJSONErrors(t *testing.T) {
	gw := NewScriptedGateway(keyByPromptHead)
	gw.Script("bad", Response{Content: "not json at all", OK: true})

	var out selection
	_, err := GenerateJSON(context.Background(), gw, Request{Prompt: "bad"}, &out)
	require.Error(t, err)

	var parseErr *JSONParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestScriptedGateway_QueueOrderAndCallCount(t *testing.T) {
	gw := NewScriptedGateway(nil)
	gw.Script("k", Response{Content: "first"})
	gw.Script("k", Response{Content: "second"})

	r1, err := gw.Generate(context.Background(), Request{Prompt: "k"})
	require.NoError(t, err)
	require.Equal(t, "first", r1.Content)

	r2, err := gw.Generate(context.Background(), Request{Prompt: "k"})
	require.NoError(t, err)
	require.Equal(t, "second", r2.Content)

	require.Equal(t, 2, gw.CallCount())
}

func TestScriptedGateway_EmptyQueueErrors(t *testing.T) {
	gw := NewScriptedGateway(nil)
	_, err := gw.Generate(context.Background(), Request{Prompt: "missing"})
	require.Error(t, err)
}

func TestStripFences(t *testing.T) {
	require.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}

func TestGenerateJSONSchema_ValidatesShape(t *testing.T) {
	gw := NewScriptedGateway(keyByPromptHead)
	gw.ScriptJSON("pick", `{"features": ["x/y"]}`)

	schema, err := CompileSchema("selection.json", `{
		"type": "object",
		"properties": {"features": {"type": "array", "items": {"type": "string"}}},
		"required": ["features"]
	}`)
	require.NoError(t, err)

	var out selection
	_, err = GenerateJSONSchema(context.Background(), gw, Request{Prompt: "pick"}, schema, &out)
	require.NoError(t, err)
	require.Equal(t, []string{"x/y"}, out.Features)
}

func TestGenerateJSONSchema_RejectsWrongShape(t *testing.T) {
	gw := NewScriptedGateway(keyByPromptHead)
	gw.ScriptJSON("pick", `{"features": "not-an-array"}`)

	schema, err := CompileSchema("selection2.json", `{
		"type": "object",
		"properties": {"features": {"type": "array"}},
		"required": ["features"]
	}`)
	require.NoError(t, err)

	var out selection
	_, err = GenerateJSONSchema(context.Background(), gw, Request{Prompt: "pick"}, schema, &out)
	require.Error(t, err)

	var schemaErr *SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
}

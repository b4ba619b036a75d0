package llmgw

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// GenerateJSONSchema is GenerateJSON with an additional validation pass
// against a JSON Schema, so the proposal and implementation controllers
// can reject malformed LLM output before it touches the graph.
func GenerateJSONSchema(ctx context.Context, gw Gateway, req Request, schema *jsonschema.Schema, v interface{}) (Response, error) {
	req.Prompt = req.Prompt + "\n\nRespond with strict JSON only. No prose, no markdown fences."

	resp, err := gw.Generate(ctx, req)
	if err != nil {
		return resp, err
	}

	content := stripFences(resp.Content)

	var generic interface{}
	if err := json.Unmarshal([]byte(content), &generic); err != nil {
		return resp, &JSONParseError{Raw: resp.Content, Cause: err}
	}

	if schema != nil {
		if err := schema.Validate(generic); err != nil {
			return resp, &SchemaValidationError{Raw: resp.Content, Cause: err}
		}
	}

	if err := json.Unmarshal([]byte(content), v); err != nil {
		return resp, &JSONParseError{Raw: resp.Content, Cause: err}
	}
	return resp, nil
}

// CompileSchema compiles an inline JSON schema string for use with
// GenerateJSONSchema.
func CompileSchema(name, schemaJSON string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("llmgw: add schema resource: %w", err)
	}
	return compiler.Compile(name)
}

// MustCompileSchema is CompileSchema for package-level schema variables
// built from a literal schema string: it panics on a compile failure,
// the same contract regexp.MustCompile gives callers for literal patterns
// that must be correct by construction.
func MustCompileSchema(name, schemaJSON string) *jsonschema.Schema {
	schema, err := CompileSchema(name, schemaJSON)
	if err != nil {
		panic(fmt.Sprintf("llmgw: invalid schema %q: %v", name, err))
	}
	return schema
}

// SchemaValidationError is raised when the gateway's JSON response fails
// schema validation.
type SchemaValidationError struct {
	Raw   string
	Cause error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("llmgw: response failed schema validation: %v", e.Cause)
}

func (e *SchemaValidationError) Unwrap() error { return e.Cause }

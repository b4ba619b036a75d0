// Package llmgw provides the single LLM access point used by every stage
// controller: one generate operation plus strict-JSON variants (a bare
// parse-only form and a schema-validated form, see schema.go). The
// gateway never retries transient failures internally; callers decide.
package llmgw

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Usage reports token accounting for a single generate call, when the
// backend provides it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is the single generate operation's input.
type Request struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// Response is the single generate operation's output.
type Response struct {
	Content string
	Usage   Usage
	OK      bool
}

// Gateway is the single LLM access point. Implementations must not retry
// transient failures; that decision belongs to callers (the stage
// controllers and their repair loops).
type Gateway interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GenerateJSON appends a strict-JSON directive to the prompt, strips
// fenced code markers from the response, and unmarshals into v. It raises
// on parse failure rather than attempting repair; the gateway itself
// never retries.
func GenerateJSON(ctx context.Context, gw Gateway, req Request, v interface{}) (Response, error) {
	req.Prompt = req.Prompt + "\n\nRespond with strict JSON only. No prose, no markdown fences."

	resp, err := gw.Generate(ctx, req)
	if err != nil {
		return resp, err
	}

	content := stripFences(resp.Content)
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return resp, &JSONParseError{Raw: resp.Content, Cause: err}
	}
	return resp, nil
}

// JSONParseError is raised when GenerateJSON cannot parse the model's
// response as JSON after stripping code fences.
type JSONParseError struct {
	Raw   string
	Cause error
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("llmgw: failed to parse JSON response: %v", e.Cause)
}

func (e *JSONParseError) Unwrap() error { return e.Cause }

// stripFences removes a leading/trailing ``` or ```json code fence, if
// present, leaving the JSON body untouched otherwise.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(s[:nl])
		if firstLine == "" || strings.EqualFold(firstLine, "json") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

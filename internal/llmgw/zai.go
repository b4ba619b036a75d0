package llmgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zerorepo/zerorepo/internal/logging"
)

// ZAIConfig configures the HTTP-based gateway client.
type ZAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DefaultZAIConfig mirrors the Config.LLM defaults: the zai coding
// endpoint, a 60s timeout.
func DefaultZAIConfig() ZAIConfig {
	return ZAIConfig{
		BaseURL: "https://api.z.ai/api/coding/paas/v4",
		Model:   "glm-4.7",
		Timeout: 60 * time.Second,
	}
}

// ZAIGateway implements Gateway over the chat-completions HTTP API.
type ZAIGateway struct {
	cfg    ZAIConfig
	client *http.Client
}

// NewZAIGateway builds a gateway client for the given config.
func NewZAIGateway(cfg ZAIConfig) *ZAIGateway {
	return &ZAIGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type zaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type zaiRequest struct {
	Model       string       `json:"model"`
	Messages    []zaiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

type zaiChoice struct {
	Message zaiMessage `json:"message"`
}

type zaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type zaiResponse struct {
	Choices []zaiChoice `json:"choices"`
	Usage   zaiUsage    `json:"usage"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate performs a single chat-completion call against the Z.AI API.
func (g *ZAIGateway) Generate(ctx context.Context, req Request) (Response, error) {
	timer := logging.StartTimer(logging.CategoryLLM, "ZAIGateway.Generate")
	defer timer.Stop()

	messages := make([]zaiMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, zaiMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, zaiMessage{Role: "user", Content: req.Prompt})

	body := zaiRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("llmgw: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("llmgw: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	logging.LLMDebug("generate: model=%s temp=%.2f max_tokens=%d prompt_len=%d", g.cfg.Model, req.Temperature, req.MaxTokens, len(req.Prompt))

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return Response{}, &GatewayError{Cause: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, &GatewayError{Cause: fmt.Errorf("read response body: %w", err)}
	}

	if httpResp.StatusCode >= 400 {
		return Response{}, &GatewayError{Cause: fmt.Errorf("zai: status %d: %s", httpResp.StatusCode, string(raw))}
	}

	var parsed zaiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Response{}, &GatewayError{Cause: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Error != nil {
		return Response{}, &GatewayError{Cause: fmt.Errorf("zai: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return Response{}, &GatewayError{Cause: fmt.Errorf("zai: empty choices")}
	}

	logging.LLM("generate ok: completion_tokens=%d total_tokens=%d", parsed.Usage.CompletionTokens, parsed.Usage.TotalTokens)

	return Response{
		Content: parsed.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
		OK: true,
	}, nil
}

// GatewayError wraps a transient gateway failure (network, non-2xx status,
// malformed response). Callers decide whether to retry.
type GatewayError struct{ Cause error }

func (e *GatewayError) Error() string { return fmt.Sprintf("llmgw: %v", e.Cause) }
func (e *GatewayError) Unwrap() error { return e.Cause }

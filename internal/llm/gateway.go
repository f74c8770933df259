// internal/llm/gateway.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	DefaultGatewayURL   = "http://mcp-compose-http-proxy:9876"
	DefaultGatewayModel = "anthropic/claude-3.5-sonnet"
)

// GatewayClient calls the create_completion tool of an MCP HTTP proxy that
// fronts OpenRouter.
type GatewayClient struct {
	httpClient *http.Client
	proxyURL   string
	apiKey     string
	model      string
}

func NewGatewayClient(proxyURL, apiKey, model string) *GatewayClient {
	if proxyURL == "" {
		proxyURL = DefaultGatewayURL
	}
	if model == "" {
		model = DefaultGatewayModel
	}
	return &GatewayClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		proxyURL: strings.TrimRight(proxyURL, "/"),
		apiKey:   apiKey,
		model:    model,
	}
}

func (g *GatewayClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{
			"role":    string(m.Role),
			"content": m.Content,
		})
	}
	completionRequest := map[string]any{
		"model":         g.model,
		"system_prompt": req.System,
		"messages":      messages,
		"temperature":   req.Temperature,
	}
	if req.MaxTokens > 0 {
		completionRequest["max_tokens"] = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		defs := make([]map[string]any, 0, len(req.Tools))
		for _, s := range req.Tools {
			defs = append(defs, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        s.Name,
					"description": s.Description,
					"parameters":  s.Parameters,
				},
			})
		}
		completionRequest["tools"] = defs
	}

	text, err := g.callGateway(ctx, "create_completion", completionRequest)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gateway completion")
	}
	resp := parseCompletion(text)
	if resp.Text == "" && len(resp.ToolCalls) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}

func (g *GatewayClient) callGateway(ctx context.Context, toolName string, args any) (string, error) {
	url := fmt.Sprintf("%s/openrouter-gateway", g.proxyURL)

	requestData := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": args,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return "", errors.Errorf("gateway error: %s", msg.String())
	}
	text := gjson.GetBytes(body, "result.content.0.text")
	if text.Type != gjson.String {
		return "", errors.New("unexpected response format")
	}
	return text.Str, nil
}

// parseCompletion reads the gateway's completion payload. The payload is
// usually a JSON object with content and tool_calls; anything else is taken
// as plain reply text.
func parseCompletion(output string) *Response {
	output = strings.TrimSpace(output)
	if !gjson.Valid(output) || !gjson.Parse(output).IsObject() {
		return &Response{Text: output}
	}
	doc := gjson.Parse(output)
	if msg := doc.Get("choices.0.message"); msg.IsObject() {
		doc = msg
	}

	resp := &Response{Text: strings.TrimSpace(doc.Get("content").String())}
	doc.Get("tool_calls").ForEach(func(_, call gjson.Result) bool {
		name := call.Get("function.name").String()
		args := call.Get("function.arguments")
		if name == "" {
			name = call.Get("name").String()
			args = call.Get("arguments")
		}
		if name == "" {
			return true
		}
		raw := args.Raw
		// OpenAI-style arguments arrive as a JSON-encoded string.
		if args.Type == gjson.String {
			raw = args.Str
		}
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        call.Get("id").String(),
			Name:      name,
			Arguments: json.RawMessage(raw),
		})
		return true
	})
	return resp
}

// Package llm wraps the chat-completion providers behind one small
// interface: a system prompt, a message history and optional tools in, text
// and tool calls out.
package llm

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"diet-coach/internal/models"
	"diet-coach/internal/tools"
)

// ErrEmptyResponse is returned when a provider answers with neither text nor
// tool calls.
var ErrEmptyResponse = errors.New("empty model response")

type Message struct {
	Role    models.Role
	Content string
}

type Request struct {
	System      string
	Messages    []Message
	Tools       tools.CapabilitySet
	Temperature float64
	MaxTokens   int
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Invocation converts the call into the untrusted form the parser accepts.
func (c ToolCall) Invocation() tools.Invocation {
	return tools.Invocation{ID: c.ID, Name: c.Name, Arguments: c.Arguments}
}

type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Client is a chat-completion provider.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req *Request) (*Response, error)

func (f ClientFunc) Complete(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

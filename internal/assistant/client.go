// Package assistant runs the conversation loop between a chat model and the
// generic record tools. The model side is abstracted behind Client so the
// loop, the history stores, and the tests do not care which provider is
// wired; GeminiClient is the production implementation.
package assistant

import (
	"context"

	"github.com/deskclerk/deskclerk/internal/tools"
)

// Role identifies who produced a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool carries tool results back to the model
	RoleTool Role = "tool"
)

// Message is one turn of the conversation as the model sees it
type Message struct {
	Role    Role         `json:"role"`
	Text    string       `json:"text,omitempty"`
	Calls   []ToolCall   `json:"calls,omitempty"`
	Results []ToolResult `json:"results,omitempty"`
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the outcome of one executed tool call
type ToolResult struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Reply is the model's next turn: text, tool calls, or both
type Reply struct {
	Text       string
	Calls      []ToolCall
	StopReason string
}

// Client produces the next assistant turn for a conversation
type Client interface {
	Complete(ctx context.Context, system string, messages []Message, defs []tools.Definition) (*Reply, error)
}

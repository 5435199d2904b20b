// Package llm abstracts the chat model providers the research agent can
// run on. Conversations use the OpenAI wire shape; the Gemini client
// translates to and from the SDK types.
package llm

import "context"

// Role and tool-call type values used on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"

	ToolCallTypeFunction = "function"
)

// Message is one turn of a model conversation.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant" or "tool"
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Tool declares a function the model may call.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the callable half of a Tool declaration.
type ToolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// FunctionTool builds a function tool declaration.
func FunctionTool(name, description string, parameters any) Tool {
	return Tool{
		Type: ToolCallTypeFunction,
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the name and raw JSON arguments of a call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response is a single completion turn returned by a provider.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Client defines the interface for chat model operations.
type Client interface {
	// Chat sends the conversation and tool declarations and returns the
	// model's next turn.
	Chat(ctx context.Context, messages []Message, tools []Tool) (*Response, error)

	// Close releases provider resources.
	Close() error
}

// Ensure both providers implement the Client interface.
var (
	_ Client = (*GroqClient)(nil)
	_ Client = (*GeminiClient)(nil)
)

// Package llmport is the LLMClient port: every structured-output call
// the Intent Classifier (C4) and Intent Parser Router (C6) make goes through
// this single interface, so the conversation core never imports a vendor SDK
// directly.
package llmport

import "context"

// Role is a chat message's speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the chat transcript sent to the model.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string // set on RoleTool messages: which ToolCall this answers
}

// ToolParam describes one JSON-schema parameter of a Tool.
type ToolParam struct {
	Name        string
	Type        string // "string" | "integer" | "number" | "boolean" | "array"
	Description string
	Required    bool
}

// Tool is a function the model may call instead of answering directly,
// described as a vendor-neutral schema.
type Tool struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ToolCall is one invocation the model asked the caller to perform.
type ToolCall struct {
	ID        string
	ToolName  string
	Arguments map[string]any
}

// ChatRequest is one call to the LLMClient port.
type ChatRequest struct {
	Model          string
	Messages       []Message
	Tools          []Tool
	ResponseSchema map[string]any // JSON schema; nil for free-text replies
}

// ChatResponse is the model's answer: either a final structured/text payload
// or a list of tool calls the caller must execute and feed back as RoleTool
// messages in a follow-up ChatRequest.
type ChatResponse struct {
	Text      string
	JSON      map[string]any // populated when ResponseSchema was set
	ToolCalls []ToolCall
}

// Client is the LLMClient port: a single structured chat call. The caller
// (classifier, parser) bounds each call through ctx and decides retry
// policy; implementations never retry internally.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

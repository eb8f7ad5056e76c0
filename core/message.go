package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a memory entry.
type Role string

// Conversation roles understood by the runtime and the reasoning service.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the four supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Function is the concrete target of a tool call: the tool name plus its
// serialized (JSON) argument payload.
type Function struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a structured invocation request emitted by the reasoning
// service inside an assistant message.
type ToolCall struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"` // "function"
	Function Function `json:"function"`
}

// Message is one entry of an agent's Memory.
//
// Invariant: a tool-result message (Role == RoleTool) references a ToolCallID
// emitted by a strictly earlier assistant message in the same memory. Ordering
// in the log is temporal and significant.
type Message struct {
	Role        Role       `json:"role"`
	Content     string     `json:"content"`
	ToolCalls   []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID  string     `json:"tool_call_id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Base64Image string     `json:"base64_image,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewUserImageMessage creates a user-role message carrying an attached
// base64-encoded image.
func NewUserImageMessage(content, base64Image string) Message {
	m := NewUserMessage(content)
	m.Base64Image = base64Image
	return m
}

// NewAssistantMessage creates an assistant-role message with plain content
// and no tool calls.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

// NewToolCallsMessage creates an assistant-role message carrying the ordered
// tool calls requested by the reasoning service.
func NewToolCallsMessage(content string, calls []ToolCall) Message {
	m := NewAssistantMessage(content)
	m.ToolCalls = calls
	return m
}

// NewToolMessage creates a tool-result message linked back to the originating
// call via toolCallID. base64Image may be empty.
func NewToolMessage(content, toolCallID, name, base64Image string) Message {
	return Message{
		Role:        RoleTool,
		Content:     content,
		ToolCallID:  toolCallID,
		Name:        name,
		Base64Image: base64Image,
		Timestamp:   time.Now().UTC(),
	}
}

// NewID generates a unique identifier for events and tool calls.
func NewID() string { return uuid.NewString() }

package conversation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentKind discriminates the items inside a message.
type ContentKind string

const (
	ContentText       ContentKind = "text"
	ContentToolCall   ContentKind = "tool-call"
	ContentToolResult ContentKind = "tool-result"
)

// Content is one item of a message. Exactly the fields implied by Kind are
// set: Text for text items, ToolCallID/ToolName/Args for tool-calls, and
// ToolCallID/Result/Error for tool-results. Args and Result are stored as
// raw JSON and treated as immutable once committed.
type Content struct {
	Kind ContentKind `json:"kind"`

	Text string `json:"text,omitempty"`

	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`

	// At records when the item was produced; the stall detector compares
	// it against the configured timeout for unresolved tool-calls.
	At time.Time `json:"at"`
}

// Message is one entry of the conversation log.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   []Content `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage creates a message with a fresh identifier.
func NewMessage(role Role, content ...Content) Message {
	now := time.Now()
	for i := range content {
		if content[i].At.IsZero() {
			content[i].At = now
		}
	}
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
}

// TextContent builds a plain text item.
func TextContent(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// ToolCallContent builds a tool-call item. The caller owns the call ID and
// must reuse it for the matching result.
func ToolCallContent(callID, toolName string, args json.RawMessage) Content {
	return Content{Kind: ContentToolCall, ToolCallID: callID, ToolName: toolName, Args: args}
}

// ToolResultContent builds a successful tool-result item.
func ToolResultContent(callID string, result json.RawMessage) Content {
	return Content{Kind: ContentToolResult, ToolCallID: callID, Result: result}
}

// ToolErrorContent builds a failed tool-result item. A failure is still a
// result: it resolves the pending call so the turn can finish.
func ToolErrorContent(callID, errText string) Content {
	return Content{Kind: ContentToolResult, ToolCallID: callID, Error: errText}
}

// clone deep-copies a message so snapshot holders can never alias the
// state's backing storage. Raw JSON fields are shared; they are immutable
// by contract.
func (m Message) clone() Message {
	out := m
	out.Content = make([]Content, len(m.Content))
	copy(out.Content, m.Content)
	return out
}

package ai

import "context"

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents a single message in the conversation.
type Message struct {
	Role    MessageRole
	Content string
}

// Conversation is an ordered list of messages sent to the oracle in one call.
type Conversation []Message

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	Model       string
	Messages    Conversation
	Temperature float64
	MaxTokens   int // 0 leaves the provider default
}

// ChatResponse represents the response from a chat completion.
type ChatResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// Usage tracks token usage reported by the provider.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// ChatProvider sends one conversation to a hosted model.
// Implementations must report provider throttling as *RateLimitError.
type ChatProvider interface {
	Name() ProviderName
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Invoker is the contract pipeline stages depend on: one conversation in, raw text out.
type Invoker interface {
	Invoke(ctx context.Context, conv Conversation, model string, temperature float64) (string, error)
}

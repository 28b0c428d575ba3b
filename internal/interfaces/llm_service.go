package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for hosted chat-completion models.
type LLMService interface {
	// Chat generates a completion response based on the conversation history.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - messages: Conversation history in chronological order
	//
	// Returns:
	//   - string: Raw assistant response text
	//   - error: *llm.Error describing the failure kind
	Chat(ctx context.Context, messages []Message) (string, error)

	// ModelName returns "<provider>:<model>" for logging
	ModelName() string

	// Close releases provider clients
	Close() error
}

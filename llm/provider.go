// Package llm talks to the chat-completion collaborator and classifies its
// replies into conversational text and pasteable replacement candidates.
package llm

import (
	"context"
	"fmt"

	"markestedt/snipai/config"
)

// Role identifies the author of a chat turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one (role, text) pair in the conversation history
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Reply is an assistant turn. When the model wrapped replacement text in the
// enhanced-content contract, Pasteable is true and Candidate holds that text;
// Text is always the conversational body with the contract block stripped.
type Reply struct {
	Text      string
	Candidate string
	Pasteable bool
}

// Provider defines the interface for chat-completion providers
type Provider interface {
	Name() string
	SendTurn(ctx context.Context, history []Turn) (Reply, error)
}

// NewProvider creates a chat provider based on configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "groq":
		return newClient("groq", groqEndpoint, cfg), nil
	case "openai":
		return newClient("openai", openAIEndpoint, cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

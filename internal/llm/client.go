// Package llm talks to the external reasoning service that turns
// questions into SQL and result samples into prose captions.
package llm

import (
	"context"
)

// Client is the interface to the reasoning service.
type Client interface {
	// Complete sends an ordered list of role-tagged messages and returns
	// the generated text of the first choice.
	Complete(ctx context.Context, messages []Message, maxTokens int) (*Response, error)
}

// Message is a single role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Response carries the generated text plus token accounting.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Config holds construction parameters for reasoning-service clients.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout int // seconds
}

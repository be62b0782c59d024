package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the model provider port: text completion plus text embedding.
// The reply path propagates its errors to the caller; advisory paths
// (fact extraction) swallow them.
type Client interface {
	Complete(ctx context.Context, msgs []Message, temperature float64) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

package llmclient

import "context"

// LLMClient is the oracle collaborator. Generate sends one prompt and returns
// the model's raw text; callers parse it.
type LLMClient interface {
	Name() string
	Close() error
	Generate(ctx context.Context, prompt string) (string, error)
}

package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// The photo search builder depends on this interface so tests can stub the
// external reasoning service.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

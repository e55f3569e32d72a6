package llm

import (
	"context"
)

// EmbedderClient turns text into a vector. Implementations must be safe for
// concurrent use.
type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

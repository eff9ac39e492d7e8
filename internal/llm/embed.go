package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embed returns the semantic-similarity embedding of text.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	name := c.config.EmbeddingModel
	if name == "" {
		name = DefaultEmbeddingModel
	}

	em := c.client.EmbeddingModel(name)
	em.TaskType = genai.TaskTypeSemanticSimilarity

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return res.Embedding.Values, nil
}

package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder generates embeddings via the OpenAI API. Hosted providers
// fail differently than local ones (quotas, 429s) so the same breaker wraps
// the calls.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	breaker *Breaker
}

// OpenAIConfig holds OpenAI embedder configuration.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI API. Required.
	APIKey string

	// Model is the embedding model (default: text-embedding-3-small).
	Model string
}

// NewOpenAIEmbedder creates an OpenAI-backed Generator.
func NewOpenAIEmbedder(config OpenAIConfig) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai embedder requires an API key")
	}
	model := openai.EmbeddingModel(config.Model)
	if config.Model == "" {
		model = openai.SmallEmbedding3
	}

	return &OpenAIEmbedder{
		client:  openai.NewClient(config.APIKey),
		model:   model,
		breaker: NewBreaker(BreakerConfig{}),
	}, nil
}

// Model returns the configured embedding model name.
func (e *OpenAIEmbedder) Model() string {
	return string(e.model)
}

// Embed generates an embedding for text through the circuit breaker.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.breaker.Execute(ctx, func() ([]float32, error) {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: e.model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding request: %w", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, fmt.Errorf("openai returned empty embedding")
		}
		return resp.Data[0].Embedding, nil
	})
}

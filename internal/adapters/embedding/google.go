// Package embedding provides embedding adapters for the supported model
// providers. Each provider is a variant behind ports.EmbeddingService;
// adding a provider means adding a variant, not a conditional branch in
// the pipeline.
package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const googleEmbeddingModel = "text-embedding-004"

// GoogleEmbedder implements ports.EmbeddingService using the Gemini API.
// Document and query embeddings use the matching retrieval task types.
type GoogleEmbedder struct {
	client *genai.Client
}

// NewGoogleEmbedder creates a Gemini embedder for the given API key.
func NewGoogleEmbedder(apiKey string) (*GoogleEmbedder, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GoogleEmbedder{client: client}, nil
}

// EmbedDocuments generates one embedding per chunk text.
func (e *GoogleEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, googleEmbeddingModel, contents, &genai.EmbedContentConfig{
		TaskType: "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a search query.
func (e *GoogleEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Models.EmbedContent(ctx, googleEmbeddingModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{TaskType: "RETRIEVAL_QUERY"},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embeddings: empty response")
	}
	return resp.Embeddings[0].Values, nil
}

// Package usecases - chat.go handles retrieval-augmented answering.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/notelm/notelm/internal/domain/entities"
	"github.com/notelm/notelm/internal/domain/ports"
)

// FallbackAnswer is returned when the model produces empty content.
const FallbackAnswer = "No relevant information found in the documents."

// MaxMessageLength bounds the question length in runes.
const MaxMessageLength = 4000

// AnswerRequest is one chat turn. History is the caller-held transcript,
// oldest first; the server keeps no conversation state.
type AnswerRequest struct {
	Message     string
	History     []entities.ChatMessage
	UserID      string
	Credentials entities.Credentials
}

// ChatUseCase answers a question from retrieved context. Each call is a
// single-shot, stateless request-response operation: one embedding call,
// one retrieval, one completion.
type ChatUseCase struct {
	newEmbedder      ports.EmbedderFactory
	newChatModel     ports.ChatModelFactory
	store            ports.VectorStore
	topK             int
	collectionPrefix string
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
func NewChatUseCase(
	newEmbedder ports.EmbedderFactory,
	newChatModel ports.ChatModelFactory,
	store ports.VectorStore,
	topK int,
	collectionPrefix string,
) *ChatUseCase {
	if topK <= 0 {
		topK = 4
	}
	if collectionPrefix == "" {
		collectionPrefix = "notelm"
	}
	return &ChatUseCase{
		newEmbedder:      newEmbedder,
		newChatModel:     newChatModel,
		store:            store,
		topK:             topK,
		collectionPrefix: collectionPrefix,
	}
}

// Answer embeds the question, retrieves the most similar chunks from the
// caller's collection and issues one completion request. Validation
// failures return before any remote call; remote failures surface once,
// with no retry.
func (uc *ChatUseCase) Answer(ctx context.Context, req *AnswerRequest) (string, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	if req.Credentials.APIKey == "" || req.UserID == "" {
		return "", ErrMissingCredentials
	}

	embedder, err := uc.newEmbedder(req.Credentials)
	if err != nil {
		return "", err
	}
	embedding, err := embedder.EmbedQuery(ctx, message)
	if err != nil {
		return "", fmt.Errorf("embedding question: %w", err)
	}

	collection := uc.collectionPrefix + "_" + req.UserID
	results, err := uc.store.Search(ctx, collection, embedding, uc.topK)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}

	model, err := uc.newChatModel(req.Credentials)
	if err != nil {
		return "", err
	}

	messages := make([]entities.ChatMessage, 0, len(req.History)+2)
	messages = append(messages, entities.ChatMessage{
		Role:    entities.RoleSystem,
		Content: buildSystemPrompt(results),
	})
	for _, m := range req.History {
		if m.Role != entities.RoleUser && m.Role != entities.RoleAssistant {
			continue
		}
		messages = append(messages, entities.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, entities.ChatMessage{Role: entities.RoleUser, Content: message})

	answer, err := model.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		return FallbackAnswer, nil
	}
	return answer, nil
}

// buildSystemPrompt constructs the instruction constraining the model to
// the retrieved context and the conversation history. An empty result
// set still yields a valid prompt with an empty context section.
func buildSystemPrompt(results []entities.QueryResult) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant who helps resolving user queries based on the context available to you from uploaded documents.\n")
	sb.WriteString("Only answer based on the available context from relevant documents and chat history.\n\n")
	sb.WriteString("Context:\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] %s (chunk %d)\n%s\n\n", i+1, r.Chunk.Title, r.Chunk.Index, r.Chunk.Content)
	}
	return sb.String()
}

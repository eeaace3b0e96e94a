// Package llm provides the chat completion adapter. Both providers are
// reached through the OpenAI-compatible chat completions API: Google via
// Gemini's compatibility endpoint, OpenAI via its default base URL.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/notelm/notelm/internal/domain/entities"
	"github.com/notelm/notelm/internal/domain/ports"
)

// geminiBaseURL is Gemini's OpenAI-compatibility endpoint.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

const (
	googleChatModel = "gemini-2.5-flash"
	openaiChatModel = "gpt-4o-mini"
)

// ErrUnsupportedProvider is returned for provider names with no chat
// model variant.
var ErrUnsupportedProvider = errors.New("unsupported chat provider")

// Completions implements ports.ChatModel over the chat completions API.
type Completions struct {
	client openai.Client
	model  openai.ChatModel
}

// NewChatModel is a ports.ChatModelFactory dispatching on the caller's
// provider.
func NewChatModel(creds entities.Credentials) (ports.ChatModel, error) {
	if creds.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	switch creds.Provider {
	case "google", "":
		return &Completions{
			client: openai.NewClient(option.WithAPIKey(creds.APIKey), option.WithBaseURL(geminiBaseURL)),
			model:  googleChatModel,
		}, nil
	case "openai":
		return &Completions{
			client: openai.NewClient(option.WithAPIKey(creds.APIKey)),
			model:  openaiChatModel,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, creds.Provider)
	}
}

// Complete issues one completion request and returns the model's text.
// An empty choice list or empty content returns "", nil; the caller
// decides the fallback.
func (c *Completions) Complete(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toParams(messages),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toParams(messages []entities.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case entities.RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case entities.RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		case entities.RoleUser:
			params = append(params, openai.UserMessage(m.Content))
		}
	}
	return params
}

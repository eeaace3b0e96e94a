package embedding

import (
	"errors"
	"fmt"

	"github.com/notelm/notelm/internal/domain/entities"
	"github.com/notelm/notelm/internal/domain/ports"
)

// ErrUnsupportedProvider is returned for provider names with no
// embedding variant.
var ErrUnsupportedProvider = errors.New("unsupported embedding provider")

// Supported provider names. An absent provider defaults to Google,
// matching the client's default selection.
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

// NewEmbedder is a ports.EmbedderFactory dispatching on the caller's
// provider.
func NewEmbedder(creds entities.Credentials) (ports.EmbeddingService, error) {
	if creds.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	switch creds.Provider {
	case ProviderGoogle, "":
		return NewGoogleEmbedder(creds.APIKey)
	case ProviderOpenAI:
		return NewOpenAIEmbedder(creds.APIKey), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, creds.Provider)
	}
}

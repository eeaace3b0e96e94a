package embedding

import (
	"errors"
	"testing"

	"github.com/notelm/notelm/internal/domain/entities"
)

func TestNewEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbedder(entities.Credentials{Provider: ProviderGoogle})
	if err == nil {
		t.Fatal("expected an error for a missing api key")
	}
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(entities.Credentials{Provider: "cohere", APIKey: "k"})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestNewEmbedder_DispatchesOpenAI(t *testing.T) {
	svc, err := NewEmbedder(entities.Credentials{Provider: ProviderOpenAI, APIKey: "k"})
	if err != nil {
		t.Fatalf("openai dispatch failed: %v", err)
	}
	if _, ok := svc.(*OpenAIEmbedder); !ok {
		t.Errorf("expected an OpenAIEmbedder, got %T", svc)
	}
}

func TestNewEmbedder_DefaultsToGoogle(t *testing.T) {
	for _, provider := range []string{"", ProviderGoogle} {
		svc, err := NewEmbedder(entities.Credentials{Provider: provider, APIKey: "k"})
		if err != nil {
			t.Fatalf("provider %q: %v", provider, err)
		}
		if _, ok := svc.(*GoogleEmbedder); !ok {
			t.Errorf("provider %q: expected a GoogleEmbedder, got %T", provider, svc)
		}
	}
}

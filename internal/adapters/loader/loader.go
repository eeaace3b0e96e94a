// Package loader provides document loading adapters, one per source
// kind. Each implements ports.DocumentLoader: load a source into plain
// text. Parsing libraries stay behind this boundary.
package loader

import (
	"context"
	"os"

	"github.com/notelm/notelm/internal/domain/entities"
	"github.com/notelm/notelm/internal/domain/ports"
)

// TextLoader loads plain text documents from a file path.
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads the file at path and returns its contents.
func (l *TextLoader) Load(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Defaults returns the loader set used by the server, keyed by document
// type. The ingest usecase dispatches on this map instead of branching
// on type strings.
func Defaults() map[entities.DocumentType]ports.DocumentLoader {
	return map[entities.DocumentType]ports.DocumentLoader{
		entities.DocumentTypeText:    NewTextLoader(),
		entities.DocumentTypePDF:     NewPDFLoader(),
		entities.DocumentTypeWebsite: NewWebsiteLoader(),
	}
}

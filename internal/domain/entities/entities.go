// Package entities contains core business entities.
// These are pure domain objects with no knowledge of storage or external services.
package entities

import "time"

// DocumentType identifies the kind of source a document was ingested from.
type DocumentType string

const (
	DocumentTypeText    DocumentType = "text"
	DocumentTypePDF     DocumentType = "pdf"
	DocumentTypeWebsite DocumentType = "website"
)

// Valid reports whether t is one of the supported document types.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeText, DocumentTypePDF, DocumentTypeWebsite:
		return true
	}
	return false
}

// DocumentStatus tracks a document through its ingestion lifecycle.
type DocumentStatus string

const (
	StatusUploading DocumentStatus = "uploading"
	StatusReady     DocumentStatus = "ready"
	StatusError     DocumentStatus = "error"
)

// Document is the registry record for an ingested source.
// Its chunks live in the vector store; only metadata lives here.
type Document struct {
	ID        string         `json:"id"`
	UserID    string         `json:"-"`
	Type      DocumentType   `json:"type"`
	Title     string         `json:"title"`
	Size      int64          `json:"size,omitempty"`
	Status    DocumentStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Chunk is a bounded, overlapping slice of a document's text.
// It is the unit of embedding and retrieval; after ingestion only the
// vector store copy exists.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Index      int
	Title      string
	Embedding  []float32
}

// QueryResult is a retrieved chunk with its similarity score.
type QueryResult struct {
	Chunk Chunk
	Score float64
}

// ChatMessage is one turn of a conversation. Transcripts are supplied by
// the caller on every request and never persisted server-side.
type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Credentials carry the caller's model-provider selection and API key.
// They are request-scoped; the server holds no provider key of its own.
type Credentials struct {
	Provider string
	APIKey   string
}

package http

import (
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/notelm/notelm/internal/domain/entities"
	"github.com/notelm/notelm/internal/domain/usecases"
)

// maxUploadSize bounds the multipart form held in memory (10MB).
const maxUploadSize = 10 << 20

type uploadFields struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	URL      string `json:"url"`
	APIKey   string `json:"apiKey"`
	Provider string `json:"provider"`
	UserID   string `json:"userId"`
}

// handleUpload ingests one document. Uploaded bytes are spooled to a
// temp file that is removed when the request finishes, whatever the
// outcome.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var fields uploadFields
	var file multipart.File
	var fileName string

	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		fields = uploadFields{
			Type:     r.FormValue("type"),
			Title:    r.FormValue("title"),
			Content:  r.FormValue("content"),
			URL:      r.FormValue("url"),
			APIKey:   r.FormValue("apiKey"),
			Provider: r.FormValue("provider"),
			UserID:   r.FormValue("userId"),
		}
		if f, header, err := r.FormFile("file"); err == nil {
			defer f.Close()
			file = f
			fileName = header.Filename
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	docType := entities.DocumentType(fields.Type)
	if !docType.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid document type")
		return
	}

	req := usecases.IngestRequest{
		Type:   docType,
		Title:  fields.Title,
		URL:    fields.URL,
		UserID: fields.UserID,
		Credentials: entities.Credentials{
			Provider: fields.Provider,
			APIKey:   fields.APIKey,
		},
	}

	if docType != entities.DocumentTypeWebsite {
		tmpPath, size, err := spoolUpload(docType, file, fields.Content)
		if err != nil {
			writeError(w, http.StatusBadRequest, "No file found for "+string(docType))
			return
		}
		defer os.Remove(tmpPath)
		req.FilePath = tmpPath
		req.Size = size
		if req.Title == "" {
			req.Title = fileName
		}
	}
	if req.Title == "" {
		req.Title = defaultTitle(docType, fields.URL)
	}

	documentID, err := s.ingest.Ingest(r.Context(), &req)
	if err != nil {
		if usecases.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[ERROR] upload: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to process document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"documentId": documentID,
		"message":    "Document processed successfully",
	})
}

type chatRequest struct {
	Message  string                 `json:"message"`
	History  []entities.ChatMessage `json:"history"`
	APIKey   string                 `json:"apiKey"`
	Provider string                 `json:"provider"`
	UserID   string                 `json:"userId"`
}

// handleChat answers one question from the caller's documents.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	answer, err := s.chat.Answer(r.Context(), &usecases.AnswerRequest{
		Message: req.Message,
		History: req.History,
		UserID:  req.UserID,
		Credentials: entities.Credentials{
			Provider: req.Provider,
			APIKey:   req.APIKey,
		},
	})
	if err != nil {
		if usecases.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[ERROR] chat: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   answer,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleDeleteDocument removes a document's chunks and its registry
// row. Deletion is scoped to the caller's own collection, so a caller
// cannot remove another user's data even with a guessed id. Repeated
// deletes succeed.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := path.Base(r.URL.Path)
	if q := r.URL.Query().Get("id"); q != "" {
		id = q
	}
	if id == "" || id == "documents" {
		writeError(w, http.StatusBadRequest, "Document id is required")
		return
	}

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	if err := s.ingest.Delete(r.Context(), userID, id); err != nil {
		log.Printf("[ERROR] delete: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"deletedId": id,
	})
}

// handleListDocuments returns the caller's document records.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = r.URL.Query().Get("userId")
	}
	if userID == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	docs, err := s.ingest.Documents(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] documents: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []entities.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// spoolUpload writes an uploaded file or raw text content to a temp
// file and returns its path and size. The caller removes the file.
func spoolUpload(docType entities.DocumentType, file multipart.File, content string) (string, int64, error) {
	ext := ".txt"
	if docType == entities.DocumentTypePDF {
		ext = ".pdf"
	}

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", 0, err
	}
	defer tmp.Close()

	var size int64
	switch {
	case file != nil:
		size, err = io.Copy(tmp, file)
	case content != "" && docType == entities.DocumentTypeText:
		var n int
		n, err = tmp.WriteString(content)
		size = int64(n)
	default:
		err = os.ErrNotExist
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}
	return tmp.Name(), size, nil
}

func defaultTitle(docType entities.DocumentType, url string) string {
	if docType == entities.DocumentTypeWebsite && url != "" {
		return url
	}
	return "Untitled " + string(docType)
}

// Package http provides the HTTP server infrastructure: routing,
// middleware and the JSON transport for the ingestion and chat
// usecases.
package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/notelm/notelm/internal/domain/entities"
	"github.com/notelm/notelm/internal/domain/usecases"
)

// IngestService is the ingestion surface the handlers depend on.
type IngestService interface {
	Ingest(ctx context.Context, req *usecases.IngestRequest) (string, error)
	Delete(ctx context.Context, userID, documentID string) error
	Documents(ctx context.Context, userID string) ([]entities.Document, error)
}

// ChatService is the chat surface the handlers depend on.
type ChatService interface {
	Answer(ctx context.Context, req *usecases.AnswerRequest) (string, error)
}

// Server is the HTTP server for the RAG API.
type Server struct {
	ingest IngestService
	chat   ChatService
	addr   string
}

// NewServer creates a new HTTP server.
func NewServer(ingest IngestService, chat ChatService, addr string) *Server {
	return &Server{ingest: ingest, chat: chat, addr: addr}
}

// Handler builds the route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/documents", s.handleListDocuments)
	mux.HandleFunc("/documents/", s.handleDeleteDocument)
	mux.HandleFunc("/health", s.handleHealth)
	return corsMiddleware(loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // ingestion can be slow on large documents
	}

	log.Printf("[INFO] notelm server starting on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}

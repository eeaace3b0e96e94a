package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/notelm/notelm/internal/adapters/embedding"
	"github.com/notelm/notelm/internal/adapters/filewatcher"
	"github.com/notelm/notelm/internal/adapters/llm"
	"github.com/notelm/notelm/internal/adapters/loader"
	"github.com/notelm/notelm/internal/adapters/registry"
	"github.com/notelm/notelm/internal/adapters/vectordb"
	"github.com/notelm/notelm/internal/config"
	"github.com/notelm/notelm/internal/domain/entities"
	"github.com/notelm/notelm/internal/domain/ports"
	"github.com/notelm/notelm/internal/domain/usecases"
	httpserver "github.com/notelm/notelm/internal/infrastructure/http"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[ERROR] loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[ERROR] creating vector store: %v", err)
	}

	reg, err := registry.NewSQLiteRegistry(cfg.Registry.Path)
	if err != nil {
		log.Fatalf("[ERROR] opening document registry: %v", err)
	}
	defer reg.Close()

	ingestUC := usecases.NewIngestUseCase(
		loader.Defaults(),
		embedding.NewEmbedder,
		store,
		reg,
		cfg.Chunk.Size, cfg.Chunk.Overlap,
		cfg.CollectionPrefix,
	)
	chatUC := usecases.NewChatUseCase(
		embedding.NewEmbedder,
		llm.NewChatModel,
		store,
		cfg.Chat.TopK,
		cfg.CollectionPrefix,
	)

	if cfg.Watch.Dir != "" {
		go runWatcher(ctx, cfg, ingestUC)
	}

	server := httpserver.NewServer(ingestUC, chatUC, cfg.Addr)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("[ERROR] server: %v", err)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (ports.VectorStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		return vectordb.NewRedisStore(ctx, vectordb.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	case "memory":
		return vectordb.NewMemoryStore(), nil
	default:
		return vectordb.NewQdrantStore(vectordb.QdrantConfig{
			URL:    cfg.Qdrant.URL,
			APIKey: cfg.Qdrant.APIKey,
		}), nil
	}
}

// runWatcher ingests files dropped into the configured directory using
// server-side credentials. Failures are logged and skipped; the next
// drop retries naturally.
func runWatcher(ctx context.Context, cfg *config.Config, ingest *usecases.IngestUseCase) {
	apiKey := os.Getenv(cfg.Watch.APIKeyEnv)
	if apiKey == "" || cfg.Watch.UserID == "" {
		log.Printf("[INFO] drop folder watching disabled: missing %s or watch.user_id", cfg.Watch.APIKeyEnv)
		return
	}

	watcher, err := filewatcher.NewDropWatcher(nil)
	if err != nil {
		log.Printf("[ERROR] creating watcher: %v", err)
		return
	}
	defer watcher.Stop()

	paths, err := watcher.Watch(ctx, cfg.Watch.Dir)
	if err != nil {
		log.Printf("[ERROR] watching %s: %v", cfg.Watch.Dir, err)
		return
	}
	log.Printf("[INFO] watching %s for documents", cfg.Watch.Dir)

	for path := range paths {
		docType := entities.DocumentTypeText
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			docType = entities.DocumentTypePDF
		}
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}

		id, err := ingest.Ingest(ctx, &usecases.IngestRequest{
			Type:     docType,
			Title:    filepath.Base(path),
			FilePath: path,
			Size:     size,
			UserID:   cfg.Watch.UserID,
			Credentials: entities.Credentials{
				Provider: cfg.Watch.Provider,
				APIKey:   apiKey,
			},
		})
		if err != nil {
			log.Printf("[ERROR] ingesting %s: %v", path, err)
			continue
		}
		log.Printf("[INFO] ingested %s as document %s", path, id)
	}
}

// Package config loads server configuration from an optional YAML file
// with environment variable overrides. Provider API keys are never
// configured here; they arrive per-request from the caller.
package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	// Backend is one of qdrant, redis, memory.
	Backend string `yaml:"backend"`
}

// QdrantConfig contains connection details for Qdrant.
type QdrantConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// RedisConfig contains connection details for Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ChunkConfig configures how documents are split into chunks.
type ChunkConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// ChatConfig configures retrieval for the chat handler.
type ChatConfig struct {
	TopK int `yaml:"top_k"`
}

// RegistryConfig configures the document registry.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig configures the optional drop-folder ingester. Watching is
// enabled when Dir is non-empty; the API key is read from the named
// environment variable at startup.
type WatchConfig struct {
	Dir       string `yaml:"dir"`
	UserID    string `yaml:"user_id"`
	Provider  string `yaml:"provider"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Config is the root server configuration.
type Config struct {
	Addr             string         `yaml:"addr"`
	CollectionPrefix string         `yaml:"collection_prefix"`
	Store            StoreConfig    `yaml:"store"`
	Qdrant           QdrantConfig   `yaml:"qdrant"`
	Redis            RedisConfig    `yaml:"redis"`
	Chunk            ChunkConfig    `yaml:"chunk"`
	Chat             ChatConfig     `yaml:"chat"`
	Registry         RegistryConfig `yaml:"registry"`
	Watch            WatchConfig    `yaml:"watch"`
}

// Load reads the config at path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Addr:             ":8080",
		CollectionPrefix: "notelm",
		Store:            StoreConfig{Backend: "qdrant"},
		Qdrant:           QdrantConfig{URL: "http://localhost:6333"},
		Redis:            RedisConfig{Addr: "localhost:6379", PoolSize: 10},
		Chunk:            ChunkConfig{Size: 1000, Overlap: 200},
		Chat:             ChatConfig{TopK: 4},
		Registry:         RegistryConfig{Path: "./data"},
		Watch:            WatchConfig{Provider: "google", APIKeyEnv: "WATCH_API_KEY"},
	}
}

func applyEnv(cfg *Config) {
	cfg.Addr = envString("ADDR", cfg.Addr)
	cfg.Store.Backend = envString("VECTOR_STORE", cfg.Store.Backend)
	cfg.Qdrant.URL = envString("QDRANT_URL", cfg.Qdrant.URL)
	cfg.Qdrant.APIKey = envString("QDRANT_API_KEY", cfg.Qdrant.APIKey)
	cfg.Redis.Addr = envString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envInt("REDIS_DB", cfg.Redis.DB)
	cfg.Chunk.Size = envInt("CHUNK_SIZE", cfg.Chunk.Size)
	cfg.Chunk.Overlap = envInt("CHUNK_OVERLAP", cfg.Chunk.Overlap)
	cfg.Chat.TopK = envInt("CHAT_TOP_K", cfg.Chat.TopK)
	cfg.Registry.Path = envString("REGISTRY_PATH", cfg.Registry.Path)
	cfg.Watch.Dir = envString("WATCH_DIR", cfg.Watch.Dir)
	cfg.Watch.UserID = envString("WATCH_USER_ID", cfg.Watch.UserID)
	cfg.Watch.Provider = envString("WATCH_PROVIDER", cfg.Watch.Provider)
}

func applyDefaults(cfg *Config) {
	if cfg.Chunk.Size <= 0 {
		cfg.Chunk.Size = 1000
	}
	if cfg.Chunk.Overlap < 0 {
		cfg.Chunk.Overlap = 200
	}
	if cfg.Chat.TopK <= 0 {
		cfg.Chat.TopK = 4
	}
	if cfg.CollectionPrefix == "" {
		cfg.CollectionPrefix = "notelm"
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

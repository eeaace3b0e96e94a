package vectordb

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/notelm/notelm/internal/domain/entities"
)

const (
	// HNSW index construction parameters.
	redisEFConstruction = 200
	redisM              = 16

	// deletePageSize bounds one FT.SEARCH page while collecting a
	// document's keys for deletion.
	deletePageSize = 1000

	// Field names in the per-chunk hash.
	fieldText       = "text"
	fieldVector     = "vector"
	fieldDocumentID = "document_id"
	fieldTitle      = "title"
	fieldChunkIndex = "chunk_index"
)

// RedisStore implements ports.VectorStore on Redis with RediSearch
// vector indexes. Each collection maps to its own index over a key
// prefix, so user partitions stay disjoint.
type RedisStore struct {
	client *redis.Client

	mu      sync.Mutex
	indexed map[string]bool
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewRedisStore creates a Redis-backed vector store and verifies the
// connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(redisOptions(cfg))
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisStore{client: client, indexed: make(map[string]bool)}, nil
}

func redisOptions(cfg RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
		// RESP2 keeps raw FT.SEARCH replies in the flat array shape
		// parseSearchReply decodes; RESP3 returns maps.
		Protocol: 2,
	}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func keyPrefix(collection string) string {
	return "vec:" + collection + ":"
}

// Upsert writes chunks into the collection's hashes, creating the
// vector index first if needed.
func (s *RedisStore) Upsert(ctx context.Context, collection string, chunks []entities.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensureIndex(ctx, collection, len(chunks[0].Embedding)); err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, c := range chunks {
		pipe.HSet(ctx, keyPrefix(collection)+c.ID,
			fieldText, c.Content,
			fieldVector, encodeVector(c.Embedding),
			fieldDocumentID, c.DocumentID,
			fieldTitle, c.Title,
			fieldChunkIndex, c.Index,
		)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("inserting chunks: %w", err)
	}
	return nil
}

// Search runs a KNN query against the collection's index. A collection
// that was never written to has no index and yields no results.
func (s *RedisStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]entities.QueryResult, error) {
	if topK <= 0 {
		topK = 4
	}

	query := fmt.Sprintf("*=>[KNN %d @%s $query_vector AS dist]", topK, fieldVector)
	result, err := s.client.Do(ctx, "FT.SEARCH", collection, query,
		"PARAMS", "2", "query_vector", encodeVector(embedding),
		"RETURN", "5", fieldText, fieldDocumentID, fieldTitle, fieldChunkIndex, "dist",
		"SORTBY", "dist",
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	).Result()
	if err != nil {
		if isMissingIndex(err) {
			// No index means no documents for this user yet.
			return nil, nil
		}
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	return parseSearchReply(collection, result)
}

// DeleteDocument finds the chunks tagged with documentID and deletes
// their keys, paging until none remain. Missing indexes and unknown ids
// are no-ops.
func (s *RedisStore) DeleteDocument(ctx context.Context, collection, documentID string) error {
	query := fmt.Sprintf("@%s:{%s}", fieldDocumentID, escapeTag(documentID))
	for {
		result, err := s.client.Do(ctx, "FT.SEARCH", collection, query,
			"NOCONTENT",
			"LIMIT", "0", strconv.Itoa(deletePageSize),
		).Result()
		if err != nil {
			if isMissingIndex(err) {
				return nil
			}
			return fmt.Errorf("finding chunks: %w", err)
		}

		keys := replyKeys(result)
		if len(keys) == 0 {
			return nil
		}
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("deleting chunks: %w", err)
		}
		if len(keys) < deletePageSize {
			return nil
		}
	}
}

// replyKeys extracts the key names from an FT.SEARCH NOCONTENT reply:
// a count followed by one key per match.
func replyKeys(reply interface{}) []string {
	values, ok := reply.([]interface{})
	if !ok || len(values) < 2 {
		return nil
	}
	var keys []string
	for i := 1; i < len(values); i++ {
		if key, ok := values[i].(string); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// isMissingIndex reports whether err is the reply for a collection that
// was never indexed. RediSearch versions word the error differently.
func isMissingIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such index") || strings.Contains(msg, "unknown index")
}

func (s *RedisStore) ensureIndex(ctx context.Context, collection string, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed[collection] {
		return nil
	}

	if _, err := s.client.Do(ctx, "FT.INFO", collection).Result(); err == nil {
		s.indexed[collection] = true
		return nil
	}

	_, err := s.client.Do(ctx, "FT.CREATE", collection,
		"ON", "HASH",
		"PREFIX", "1", keyPrefix(collection),
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(redisEFConstruction),
		"M", strconv.Itoa(redisM),
		fieldText, "TEXT",
		fieldDocumentID, "TAG",
		fieldTitle, "TEXT",
		fieldChunkIndex, "NUMERIC",
	).Result()
	if err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	s.indexed[collection] = true
	return nil
}

// parseSearchReply decodes an FT.SEARCH array reply: a count followed by
// alternating key and field-list entries.
func parseSearchReply(collection string, reply interface{}) ([]entities.QueryResult, error) {
	values, ok := reply.([]interface{})
	if !ok || len(values) < 1 {
		return nil, nil
	}

	prefix := keyPrefix(collection)
	var results []entities.QueryResult
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]interface{})
		if !ok {
			continue
		}

		chunk := entities.Chunk{ID: key[len(prefix):]}
		score := 0.0
		for j := 0; j+1 < len(fields); j += 2 {
			name, ok := fields[j].(string)
			if !ok {
				continue
			}
			switch name {
			case fieldText:
				chunk.Content, _ = fields[j+1].(string)
			case fieldDocumentID:
				chunk.DocumentID, _ = fields[j+1].(string)
			case fieldTitle:
				chunk.Title, _ = fields[j+1].(string)
			case fieldChunkIndex:
				if v, ok := fields[j+1].(string); ok {
					chunk.Index, _ = strconv.Atoi(v)
				}
			case "dist":
				if v, ok := fields[j+1].(string); ok {
					if dist, err := strconv.ParseFloat(v, 64); err == nil {
						score = 1 - dist // cosine distance to similarity
					}
				}
			}
		}
		results = append(results, entities.QueryResult{Chunk: chunk, Score: score})
	}
	return results, nil
}

// encodeVector packs a float32 vector into the little-endian byte layout
// RediSearch expects for FLOAT32 vector fields.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// escapeTag escapes TAG separator characters in a query value.
func escapeTag(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ',', '.', '<', '>', '{', '}', '[', ']', '"', '\'', ':', ';', '!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '-', '+', '=', '~', ' ', '|', '/', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

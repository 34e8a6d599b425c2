package vector

import (
	"context"
	"fmt"
	"log/slog"
)

// Store combines an embedder, an embedding cache, and the Qdrant index
// behind content-level Add and Search operations.
type Store struct {
	embedder Embedder
	client   *QdrantClient
	cache    *EmbeddingCache
	logger   *slog.Logger
}

func NewStore(embedder Embedder, client *QdrantClient, cache *EmbeddingCache, logger *slog.Logger) *Store {
	return &Store{
		embedder: embedder,
		client:   client,
		cache:    cache,
		logger:   logger.With("system", "vector"),
	}
}

// Add embeds content and indexes it with the given payload metadata.
func (s *Store) Add(ctx context.Context, content string, metadata map[string]any) error {
	vec, err := s.embed(ctx, content)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	payload["content"] = content

	if err := s.client.Upsert(ctx, vec, payload); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	s.logger.Debug("content indexed", "bytes", len(content))
	return nil
}

// Search embeds content and returns up to limit similar neighbors.
func (s *Store) Search(ctx context.Context, content string, limit int) ([]Neighbor, error) {
	vec, err := s.embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	neighbors, err := s.client.Search(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return neighbors, nil
}

func (s *Store) embed(ctx context.Context, content string) ([]float32, error) {
	if s.cache != nil {
		if vec, ok := s.cache.Get(content); ok {
			return vec, nil
		}
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(content, vec)
	}

	return vec, nil
}

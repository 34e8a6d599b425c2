package vector

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// maxKeyInput bounds how much text feeds the cache key hash.
const maxKeyInput = 8000

// EmbeddingCache is a bounded FIFO cache of computed embeddings keyed
// by a short hash of the input text.
type EmbeddingCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string][]float32
	order   []string
}

func NewEmbeddingCache(maxSize int) *EmbeddingCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &EmbeddingCache{
		maxSize: maxSize,
		entries: make(map[string][]float32),
	}
}

// Get returns the cached embedding for text, if present.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vec, ok := c.entries[cacheKey(text)]
	return vec, ok
}

// Put stores an embedding, evicting the oldest entry when full.
func (c *EmbeddingCache) Put(text string, vec []float32) {
	key := cacheKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = vec
		return
	}

	if len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = vec
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(text string) string {
	if len(text) > maxKeyInput {
		text = text[:maxKeyInput]
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

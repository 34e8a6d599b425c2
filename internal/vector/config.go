package vector

import (
	"fmt"
	"os"
	"time"
)

// Config holds vector index and embedding endpoint settings.
type Config struct {
	QdrantURL  string `toml:"qdrant_url"`
	Collection string `toml:"collection"`
	EmbedURL   string `toml:"embed_url"`
	EmbedModel string `toml:"embed_model"`
	CacheSize  int    `toml:"cache_size"`
	Timeout    string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	QdrantURL  string
	Collection string
	EmbedURL   string
	EmbedModel string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults and environment variable overrides.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.QdrantURL != "" {
		c.QdrantURL = overlay.QdrantURL
	}
	if overlay.Collection != "" {
		c.Collection = overlay.Collection
	}
	if overlay.EmbedURL != "" {
		c.EmbedURL = overlay.EmbedURL
	}
	if overlay.EmbedModel != "" {
		c.EmbedModel = overlay.EmbedModel
	}
	if overlay.CacheSize != 0 {
		c.CacheSize = overlay.CacheSize
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.QdrantURL == "" {
		c.QdrantURL = "http://localhost:6333"
	}
	if c.Collection == "" {
		c.Collection = "documents"
	}
	if c.EmbedURL == "" {
		c.EmbedURL = "http://localhost:11434"
	}
	if c.EmbedModel == "" {
		c.EmbedModel = "nomic-embed-text"
	}
	if c.CacheSize == 0 {
		c.CacheSize = 256
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(envVar string, field *string) {
		if envVar == "" {
			return
		}
		if v := os.Getenv(envVar); v != "" {
			*field = v
		}
	}

	set(env.QdrantURL, &c.QdrantURL)
	set(env.Collection, &c.Collection)
	set(env.EmbedURL, &c.EmbedURL)
	set(env.EmbedModel, &c.EmbedModel)
}

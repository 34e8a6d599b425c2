package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/srimichael20/AutoClose-AI/pkg/formatting"
	"github.com/srimichael20/AutoClose-AI/pkg/middleware"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "AUTOCLOSE_CORS_ENABLED",
	Origins:          "AUTOCLOSE_CORS_ORIGINS",
	AllowedMethods:   "AUTOCLOSE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "AUTOCLOSE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "AUTOCLOSE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "AUTOCLOSE_CORS_MAX_AGE",
}

// APIConfig holds API routing, upload, and CORS settings.
type APIConfig struct {
	BasePath         string                `toml:"base_path"`
	MaxUploadSize    string                `toml:"max_upload_size"`
	BatchConcurrency int                   `toml:"batch_concurrency"`
	CORS             middleware.CORSConfig `toml:"cors"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if c.BatchConcurrency < 1 {
		return fmt.Errorf("invalid batch_concurrency: %d", c.BatchConcurrency)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.BatchConcurrency != 0 {
		c.BatchConcurrency = overlay.BatchConcurrency
	}

	c.CORS.Merge(&overlay.CORS)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
	if c.BatchConcurrency == 0 {
		c.BatchConcurrency = 4
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("AUTOCLOSE_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("AUTOCLOSE_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv("AUTOCLOSE_API_BATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchConcurrency = n
		}
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/srimichael20/AutoClose-AI/internal/notify"
	"github.com/srimichael20/AutoClose-AI/internal/resilience"
	"github.com/srimichael20/AutoClose-AI/internal/storage"
	"github.com/srimichael20/AutoClose-AI/internal/vector"
	"github.com/srimichael20/AutoClose-AI/pkg/database"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAutocloseEnv             = "AUTOCLOSE_ENV"
	EnvAutocloseShutdownTimeout = "AUTOCLOSE_SHUTDOWN_TIMEOUT"
	EnvAutocloseVersion         = "AUTOCLOSE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "AUTOCLOSE_DB_HOST",
	Port:            "AUTOCLOSE_DB_PORT",
	Name:            "AUTOCLOSE_DB_NAME",
	User:            "AUTOCLOSE_DB_USER",
	Password:        "AUTOCLOSE_DB_PASSWORD",
	SSLMode:         "AUTOCLOSE_DB_SSL_MODE",
	ConnMaxLifetime: "AUTOCLOSE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "AUTOCLOSE_DB_CONN_TIMEOUT",
}

var vectorEnv = &vector.Env{
	QdrantURL:  "AUTOCLOSE_QDRANT_URL",
	Collection: "AUTOCLOSE_QDRANT_COLLECTION",
	EmbedURL:   "AUTOCLOSE_EMBED_URL",
	EmbedModel: "AUTOCLOSE_EMBED_MODEL",
}

var notifyEnv = &notify.Env{
	ERPURL:     "AUTOCLOSE_ERP_URL",
	WebhookURL: "AUTOCLOSE_WEBHOOK_URL",
}

// Config is the root configuration for the AutoClose service.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	Storage         storage.Config       `toml:"storage"`
	Vector          vector.Config        `toml:"vector"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	VisionAgent     gaconfig.AgentConfig `toml:"vision_agent"`
	Integration     notify.Config        `toml:"integration"`
	Resilience      resilience.Config    `toml:"resilience"`
	API             APIConfig            `toml:"api"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the AUTOCLOSE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAutocloseEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and
// environment variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Vector.Merge(&overlay.Vector)
	c.Agent.Merge(&overlay.Agent)
	c.VisionAgent.Merge(&overlay.VisionAgent)
	c.Integration.Merge(&overlay.Integration)
	c.Resilience.Merge(&overlay.Resilience)
	c.API.Merge(&overlay.API)
}

// Finalize applies defaults, environment variable overrides, and validation
// across the root config and all sub-configs.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Vector.Finalize(vectorEnv); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if err := FinalizeAgent(&c.Agent, agentEnv); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := FinalizeAgent(&c.VisionAgent, visionAgentEnv); err != nil {
		return fmt.Errorf("vision_agent: %w", err)
	}
	if err := c.Integration.Finalize(notifyEnv); err != nil {
		return fmt.Errorf("integration: %w", err)
	}
	if err := c.Resilience.Finalize(); err != nil {
		return fmt.Errorf("resilience: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAutocloseShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAutocloseVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv("AUTOCLOSE_STORAGE_UPLOAD_DIR"); v != "" {
		c.Storage.UploadDir = v
	}
	if v := os.Getenv("AUTOCLOSE_STORAGE_PROCESSED_DIR"); v != "" {
		c.Storage.ProcessedDir = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAutocloseEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

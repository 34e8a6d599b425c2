// Package infrastructure provides core service initialization for
// application startup. It assembles the shared dependencies (logging,
// database, storage, vector index, model clients) that the pipeline and
// its domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/srimichael20/AutoClose-AI/internal/config"
	"github.com/srimichael20/AutoClose-AI/internal/ledger"
	"github.com/srimichael20/AutoClose-AI/internal/llm"
	"github.com/srimichael20/AutoClose-AI/internal/metrics"
	"github.com/srimichael20/AutoClose-AI/internal/notify"
	"github.com/srimichael20/AutoClose-AI/internal/ocr"
	"github.com/srimichael20/AutoClose-AI/internal/resilience"
	"github.com/srimichael20/AutoClose-AI/internal/storage"
	"github.com/srimichael20/AutoClose-AI/internal/vector"
	"github.com/srimichael20/AutoClose-AI/internal/workflow"
	"github.com/srimichael20/AutoClose-AI/pkg/database"
	"github.com/srimichael20/AutoClose-AI/pkg/lifecycle"
)

// Infrastructure holds the core systems required by the pipeline and the
// domain modules. It provides a single point of initialization for
// lifecycle coordination, logging, persistence, and external clients.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Files      *storage.Files
	Vector     *vector.Store
	Ledger     ledger.Store
	LLM        llm.Client
	OCR        ocr.Engine
	Notifier   *notify.Notifier
	Resilience *resilience.Executor
	Metrics    *metrics.Metrics
}

// New creates an Infrastructure from the application configuration. It
// initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	files, err := storage.NewFiles(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	exec := resilience.NewExecutor(&cfg.Resilience, logger)

	store := vector.NewStore(
		vector.NewEmbedder(cfg.Vector.EmbedURL, cfg.Vector.EmbedModel, cfg.Vector.TimeoutDuration()),
		vector.NewQdrantClient(cfg.Vector.QdrantURL, cfg.Vector.Collection, cfg.Vector.TimeoutDuration()),
		vector.NewEmbeddingCache(cfg.Vector.CacheSize),
		logger,
	)

	return &Infrastructure{
		Lifecycle:  lc,
		Logger:     logger,
		Database:   db,
		Files:      files,
		Vector:     store,
		Ledger:     ledger.New(db.Connection(), logger),
		LLM:        llm.WithResilience(llm.NewClient(&cfg.Agent), exec),
		OCR:        ocr.NewVisionEngine(&cfg.VisionAgent),
		Notifier:   notify.New(&cfg.Integration, exec, logger),
		Resilience: exec,
		Metrics:    metrics.New(),
	}, nil
}

// Start registers the infrastructure systems that participate in lifecycle
// coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	return nil
}

// Runtime assembles the workflow runtime over the initialized systems.
func (i *Infrastructure) Runtime() *workflow.Runtime {
	return &workflow.Runtime{
		LLM:       i.LLM,
		OCR:       i.OCR,
		Extractor: workflow.FileExtractor{},
		Vector:    i.Vector,
		Ledger:    i.Ledger,
		Archive:   i.Files,
		Notifier:  i.Notifier,
		Logger:    i.Logger,
		Metrics:   i.Metrics,
	}
}

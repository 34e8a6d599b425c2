// Package api assembles the API module: the job system, its routes, and
// the module-level middleware stack.
package api

import (
	"net/http"

	"github.com/srimichael20/AutoClose-AI/internal/config"
	"github.com/srimichael20/AutoClose-AI/internal/infrastructure"
	"github.com/srimichael20/AutoClose-AI/internal/jobs"
	"github.com/srimichael20/AutoClose-AI/pkg/middleware"
	"github.com/srimichael20/AutoClose-AI/pkg/module"
	"github.com/srimichael20/AutoClose-AI/pkg/routes"
)

// NewModule creates the API module with the job system and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	logger := infra.Logger.With("module", "api")

	sys := jobs.New(
		infra.Runtime(),
		infra.Files,
		infra.Ledger,
		logger,
		cfg.API.BatchConcurrency,
	)

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(cfg.API.MaxUploadSizeBytes()).Routes())

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(logger))

	return m, nil
}

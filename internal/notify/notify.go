// Package notify delivers classified transactions to the ERP endpoint and
// completion events to the configured webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/srimichael20/AutoClose-AI/internal/resilience"
)

// Config holds outbound integration endpoints.
type Config struct {
	ERPURL     string `toml:"erp_url"`
	WebhookURL string `toml:"webhook_url"`
	Timeout    string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ERPURL     string
	WebhookURL string
}

// Finalize applies defaults and environment variable overrides. Empty
// endpoint URLs are valid and mean the integration is skipped.
func (c *Config) Finalize(env *Env) error {
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if env != nil {
		if env.ERPURL != "" {
			if v := os.Getenv(env.ERPURL); v != "" {
				c.ERPURL = v
			}
		}
		if env.WebhookURL != "" {
			if v := os.Getenv(env.WebhookURL); v != "" {
				c.WebhookURL = v
			}
		}
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ERPURL != "" {
		c.ERPURL = overlay.ERPURL
	}
	if overlay.WebhookURL != "" {
		c.WebhookURL = overlay.WebhookURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Transaction is the classified transaction payload posted to the ERP.
type Transaction struct {
	DocumentID  string  `json:"document_id"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Completion is the workflow completion event sent to the webhook.
type Completion struct {
	Event          string `json:"event"`
	JobID          string `json:"job_id"`
	DocumentID     string `json:"document_id"`
	Status         string `json:"status"`
	Vision         any    `json:"vision,omitempty"`
	Classification any    `json:"classification,omitempty"`
	Error          string `json:"error,omitempty"`
}

// PostResult reports the outcome of an ERP post.
type PostResult struct {
	Success    bool
	StatusCode int
	Error      string
}

// Notifier posts to external endpoints with retry and breaker protection.
type Notifier struct {
	config     *Config
	exec       *resilience.Executor
	logger     *slog.Logger
	httpClient *http.Client
}

func New(config *Config, exec *resilience.Executor, logger *slog.Logger) *Notifier {
	return &Notifier{
		config:     config,
		exec:       exec,
		logger:     logger.With("system", "notify"),
		httpClient: &http.Client{Timeout: config.TimeoutDuration()},
	}
}

// ERPConfigured reports whether an ERP endpoint is set.
func (n *Notifier) ERPConfigured() bool {
	return n.config.ERPURL != ""
}

// WebhookConfigured reports whether a webhook endpoint is set.
func (n *Notifier) WebhookConfigured() bool {
	return n.config.WebhookURL != ""
}

// PostTransaction sends a classified transaction to the ERP endpoint.
// Delivery failures are reported in the result, never as an error.
func (n *Notifier) PostTransaction(ctx context.Context, tx Transaction) PostResult {
	if !n.ERPConfigured() {
		return PostResult{Success: false, Error: "erp endpoint not configured"}
	}

	var status int
	err := n.exec.Execute(ctx, "notify.erp", func(ctx context.Context) error {
		code, err := n.post(ctx, n.config.ERPURL, tx)
		status = code
		return err
	})
	if err != nil {
		n.logger.Warn("erp post failed", "document_id", tx.DocumentID, "error", err)
		return PostResult{Success: false, StatusCode: status, Error: err.Error()}
	}

	return PostResult{Success: true, StatusCode: status}
}

// NotifyComplete sends a completion event to the webhook. Returns false
// when the webhook is unset or delivery fails.
func (n *Notifier) NotifyComplete(ctx context.Context, event Completion) bool {
	if !n.WebhookConfigured() {
		return false
	}

	if event.Event == "" {
		event.Event = "workflow_complete"
	}

	err := n.exec.Execute(ctx, "notify.webhook", func(ctx context.Context) error {
		_, err := n.post(ctx, n.config.WebhookURL, event)
		return err
	})
	if err != nil {
		n.logger.Warn("webhook delivery failed", "job_id", event.JobID, "error", err)
		return false
	}

	return true
}

func (n *Notifier) post(ctx context.Context, url string, payload any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("post status: %s", resp.Status)
	}

	return resp.StatusCode, nil
}

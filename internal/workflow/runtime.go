package workflow

import (
	"context"
	"log/slog"

	"github.com/srimichael20/AutoClose-AI/internal/extract"
	"github.com/srimichael20/AutoClose-AI/internal/ledger"
	"github.com/srimichael20/AutoClose-AI/internal/metrics"
	"github.com/srimichael20/AutoClose-AI/internal/notify"
	"github.com/srimichael20/AutoClose-AI/internal/ocr"
	"github.com/srimichael20/AutoClose-AI/internal/vector"
)

// ModelClient produces completions for text prompts.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OCREngine reads text lines from a document or image file.
type OCREngine interface {
	Read(ctx context.Context, path string) ([]ocr.Line, error)
}

// Extractor pulls text out of PDF and plain text files.
type Extractor interface {
	PDF(path string) (string, map[string]any, error)
	TextFile(path string) (string, error)
}

// VectorIndex stores and searches document content embeddings.
type VectorIndex interface {
	Add(ctx context.Context, content string, metadata map[string]any) error
	Search(ctx context.Context, content string, limit int) ([]vector.Neighbor, error)
}

// LedgerStore persists documents and classified transactions.
type LedgerStore interface {
	UpsertDocument(ctx context.Context, doc ledger.Document) error
	InsertTransaction(ctx context.Context, tx ledger.Transaction) (*ledger.Transaction, error)
}

// ResultArchive writes durable JSON snapshots of run output.
type ResultArchive interface {
	StoreResult(documentID string, vision, classification any, metadata map[string]any) (string, error)
}

// Notifier delivers transactions to the ERP and completion events to the
// webhook.
type Notifier interface {
	PostTransaction(ctx context.Context, tx notify.Transaction) notify.PostResult
	NotifyComplete(ctx context.Context, event notify.Completion) bool
	WebhookConfigured() bool
}

// Runtime bundles the dependencies that workflow stages require. It is
// constructed by higher-level composition code from infrastructure systems.
type Runtime struct {
	LLM       ModelClient
	OCR       OCREngine
	Extractor Extractor
	Vector    VectorIndex
	Ledger    LedgerStore
	Archive   ResultArchive
	Notifier  Notifier
	Logger    *slog.Logger
	Metrics   *metrics.Metrics

	// Checkpoint, when set, receives the Record after every stage for
	// log or audit correlation. It must not block.
	Checkpoint func(Record)
}

// FileExtractor is the production Extractor over local files.
type FileExtractor struct{}

func (FileExtractor) PDF(path string) (string, map[string]any, error) {
	return extract.PDF(path)
}

func (FileExtractor) TextFile(path string) (string, error) {
	return extract.TextFile(path)
}

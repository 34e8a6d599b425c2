package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/srimichael20/AutoClose-AI/internal/ledger"
	"github.com/srimichael20/AutoClose-AI/internal/notify"
	"github.com/srimichael20/AutoClose-AI/internal/ocr"
	"github.com/srimichael20/AutoClose-AI/internal/vector"
	"github.com/srimichael20/AutoClose-AI/internal/workflow"
)

// stubLLM returns queued responses in order, then repeats the last one.
type stubLLM struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("no stub response")
	}
	idx := s.calls - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

type stubOCR struct {
	lines []ocr.Line
	err   error
}

func (s *stubOCR) Read(ctx context.Context, path string) ([]ocr.Line, error) {
	return s.lines, s.err
}

type stubExtractor struct {
	text string
	meta map[string]any
	err  error
}

func (s *stubExtractor) PDF(path string) (string, map[string]any, error) {
	return s.text, s.meta, s.err
}

func (s *stubExtractor) TextFile(path string) (string, error) {
	return s.text, s.err
}

type stubVector struct {
	neighbors []vector.Neighbor
	searchErr error
	addErr    error
	added     []string
}

func (s *stubVector) Add(ctx context.Context, content string, metadata map[string]any) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, content)
	return nil
}

func (s *stubVector) Search(ctx context.Context, content string, limit int) ([]vector.Neighbor, error) {
	return s.neighbors, s.searchErr
}

type stubLedger struct {
	upsertErr error
	insertErr error
	documents []ledger.Document
	inserted  []ledger.Transaction
}

func (s *stubLedger) UpsertDocument(ctx context.Context, doc ledger.Document) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.documents = append(s.documents, doc)
	return nil
}

func (s *stubLedger) InsertTransaction(ctx context.Context, tx ledger.Transaction) (*ledger.Transaction, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	tx.ID = int64(len(s.inserted) + 1)
	s.inserted = append(s.inserted, tx)
	return &tx, nil
}

type stubArchive struct {
	err   error
	paths []string
}

func (s *stubArchive) StoreResult(documentID string, vision, classification any, metadata map[string]any) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	path := "/tmp/" + documentID + ".json"
	s.paths = append(s.paths, path)
	return path, nil
}

type stubNotifier struct {
	postResult notify.PostResult
	webhookSet bool
	webhookOK  bool
	posted     []notify.Transaction
	notified   []notify.Completion
}

func (s *stubNotifier) PostTransaction(ctx context.Context, tx notify.Transaction) notify.PostResult {
	s.posted = append(s.posted, tx)
	return s.postResult
}

func (s *stubNotifier) NotifyComplete(ctx context.Context, event notify.Completion) bool {
	s.notified = append(s.notified, event)
	return s.webhookSet && s.webhookOK
}

func (s *stubNotifier) WebhookConfigured() bool { return s.webhookSet }

func receiptLines() []ocr.Line {
	return []ocr.Line{
		{Text: "RECEIPT", Confidence: 0.9},
		{Text: "Total: $42.00", Confidence: 0.7},
	}
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRuntime() *workflow.Runtime {
	return &workflow.Runtime{
		LLM:       &stubLLM{responses: []string{"{}"}},
		OCR:       &stubOCR{},
		Extractor: &stubExtractor{},
		Vector:    &stubVector{},
		Ledger:    &stubLedger{},
		Archive:   &stubArchive{},
		Notifier:  &stubNotifier{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

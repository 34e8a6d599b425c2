package jobs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/srimichael20/AutoClose-AI/internal/jobs"
	"github.com/srimichael20/AutoClose-AI/internal/ledger"
	"github.com/srimichael20/AutoClose-AI/internal/notify"
	"github.com/srimichael20/AutoClose-AI/internal/ocr"
	"github.com/srimichael20/AutoClose-AI/internal/storage"
	"github.com/srimichael20/AutoClose-AI/internal/vector"
	"github.com/srimichael20/AutoClose-AI/internal/workflow"
	"github.com/srimichael20/AutoClose-AI/pkg/routes"
)

// fakeLLM keys its response on the prompt so the concurrent runs the
// batch upload test triggers stay deterministic.
type fakeLLM struct{}

func (fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.HasPrefix(prompt, "Classify") || strings.HasPrefix(prompt, "Confirm") {
		return classifyResponse, nil
	}
	if strings.HasPrefix(prompt, "Extract") {
		return `{"amount":150.0,"category_hint":"expense"}`, nil
	}
	return "Summary text.", nil
}

type fakeOCR struct{}

func (fakeOCR) Read(ctx context.Context, path string) ([]ocr.Line, error) {
	return []ocr.Line{{Text: "scanned", Confidence: 0.8}}, nil
}

type fakeExtractor struct{}

func (fakeExtractor) PDF(path string) (string, map[string]any, error) {
	return "", nil, errors.New("no extractable text")
}

func (fakeExtractor) TextFile(path string) (string, error) {
	return "text file content", nil
}

type fakeVector struct{}

func (fakeVector) Add(ctx context.Context, content string, metadata map[string]any) error {
	return nil
}

func (fakeVector) Search(ctx context.Context, content string, limit int) ([]vector.Neighbor, error) {
	return nil, nil
}

type fakeLedger struct{}

func (fakeLedger) UpsertDocument(ctx context.Context, doc ledger.Document) error { return nil }

func (fakeLedger) InsertTransaction(ctx context.Context, tx ledger.Transaction) (*ledger.Transaction, error) {
	out := tx
	out.ID = 1
	return &out, nil
}

type fakeArchive struct{}

func (fakeArchive) StoreResult(documentID string, vision, classification any, metadata map[string]any) (string, error) {
	return "/tmp/" + documentID + ".json", nil
}

type fakeNotifier struct{}

func (fakeNotifier) PostTransaction(ctx context.Context, tx notify.Transaction) notify.PostResult {
	return notify.PostResult{Success: false, Error: "erp endpoint not configured"}
}

func (fakeNotifier) NotifyComplete(ctx context.Context, event notify.Completion) bool { return false }

func (fakeNotifier) WebhookConfigured() bool { return false }

type fakeHistory struct {
	document     *ledger.Document
	transactions []ledger.Transaction
}

func (f *fakeHistory) FindDocument(ctx context.Context, id string) (*ledger.Document, error) {
	if f.document == nil || f.document.ID != id {
		return nil, ledger.ErrNotFound
	}
	return f.document, nil
}

func (f *fakeHistory) ListTransactions(ctx context.Context, documentID string) ([]ledger.Transaction, error) {
	return f.transactions, nil
}

const classifyResponse = `{"category":"expense","subcategory":"office_supplies","amount":150.0,"description":"Office supplies","confidence":0.9,"reasoning":"supply vendor"}`

func newTestSystem(t *testing.T, history jobs.History) jobs.System {
	t.Helper()

	dir := t.TempDir()
	files, err := storage.NewFiles(&storage.Config{
		UploadDir:    filepath.Join(dir, "uploads"),
		ProcessedDir: filepath.Join(dir, "processed"),
	})
	if err != nil {
		t.Fatal(err)
	}

	rt := &workflow.Runtime{
		LLM:       fakeLLM{},
		OCR:       fakeOCR{},
		Extractor: fakeExtractor{},
		Vector:    fakeVector{},
		Ledger:    fakeLedger{},
		Archive:   fakeArchive{},
		Notifier:  fakeNotifier{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return jobs.New(rt, files, history, logger, 2)
}

func newTestServer(t *testing.T, history jobs.History) *httptest.Server {
	t.Helper()

	sys := newTestSystem(t, history)
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(8<<20).Routes())

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestInferDocumentType(t *testing.T) {
	tests := []struct {
		filename string
		want     workflow.DocumentType
	}{
		{"invoice.pdf", workflow.TypePDF},
		{"invoice.PDF", workflow.TypePDF},
		{"receipt.png", workflow.TypeImage},
		{"receipt.jpeg", workflow.TypeImage},
		{"scan.webp", workflow.TypeImage},
		{"note.txt", workflow.TypeText},
		{"README", workflow.TypeText},
	}

	for _, tt := range tests {
		if got := jobs.InferDocumentType(tt.filename); got != tt.want {
			t.Errorf("InferDocumentType(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestSubmitValidation(t *testing.T) {
	sys := newTestSystem(t, &fakeHistory{})

	tests := []struct {
		name string
		req  jobs.SubmitRequest
		want error
	}{
		{"no input", jobs.SubmitRequest{}, jobs.ErrMissingInput},
		{"missing file", jobs.SubmitRequest{FilePath: "/nonexistent/invoice.pdf"}, jobs.ErrFileMissing},
		{"bad type", jobs.SubmitRequest{Content: "x", DocumentType: "spreadsheet"}, jobs.ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.Submit(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Submit() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubmitInlineContent(t *testing.T) {
	sys := newTestSystem(t, &fakeHistory{})

	rec, err := sys.Submit(context.Background(), jobs.SubmitRequest{
		Content: "Invoice from Staples: Office supplies $150.00.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.DocumentID == "" || rec.JobID == "" {
		t.Error("identifiers not assigned")
	}
	if rec.Status != workflow.StatusCompleted {
		t.Errorf("status = %q", rec.Status)
	}
	if rec.Classification == nil || rec.Classification.Category != workflow.CategoryExpense {
		t.Error("classification missing")
	}
}

func TestHandlerSubmit(t *testing.T) {
	server := newTestServer(t, &fakeHistory{})

	body, _ := json.Marshal(jobs.SubmitRequest{Content: "Invoice from Staples: $150.00"})
	resp, err := http.Post(server.URL+"/jobs/submit", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var rec workflow.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.Status != workflow.StatusCompleted {
		t.Errorf("record status = %q", rec.Status)
	}
}

func TestHandlerSubmitRejectsEmptyRequest(t *testing.T) {
	server := newTestServer(t, &fakeHistory{})

	resp, err := http.Post(server.URL+"/jobs/submit", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func multipartBody(t *testing.T, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, name := range filenames {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte("file body for " + name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, writer.FormDataContentType()
}

func TestHandlerUploadSingleFile(t *testing.T) {
	server := newTestServer(t, &fakeHistory{})

	body, contentType := multipartBody(t, "note.txt")
	resp, err := http.Post(server.URL+"/jobs/upload", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var rec workflow.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.Status != workflow.StatusCompleted {
		t.Errorf("record status = %q", rec.Status)
	}
	if rec.FilePath == "" {
		t.Error("stored file path missing from record")
	}
}

func TestHandlerUploadBatch(t *testing.T) {
	server := newTestServer(t, &fakeHistory{})

	body, contentType := multipartBody(t, "a.txt", "b.txt", "c.txt")
	resp, err := http.Post(server.URL+"/jobs/upload", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var outcomes []jobs.UploadOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcomes); err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}
	for _, outcome := range outcomes {
		if outcome.Error != "" {
			t.Errorf("%s: error = %q", outcome.Filename, outcome.Error)
		}
		if outcome.Record == nil || outcome.Record.Status != workflow.StatusCompleted {
			t.Errorf("%s: record missing or incomplete", outcome.Filename)
		}
	}
}

func TestHandlerUploadNoFiles(t *testing.T) {
	server := newTestServer(t, &fakeHistory{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("note", "no file attached")
	writer.Close()

	resp, err := http.Post(server.URL+"/jobs/upload", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandlerTransactions(t *testing.T) {
	amount := 150.0
	history := &fakeHistory{
		document: &ledger.Document{ID: "doc-1", DocumentType: "text"},
		transactions: []ledger.Transaction{
			{ID: 1, DocumentID: "doc-1", Category: "expense", Amount: &amount},
		},
	}
	server := newTestServer(t, history)

	resp, err := http.Get(server.URL + "/jobs/transactions?document_id=doc-1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var transactions []ledger.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&transactions); err != nil {
		t.Fatal(err)
	}
	if len(transactions) != 1 || transactions[0].Category != "expense" {
		t.Errorf("transactions = %v", transactions)
	}
}

func TestHandlerTransactionsUnknownDocument(t *testing.T) {
	server := newTestServer(t, &fakeHistory{})

	resp, err := http.Get(server.URL + "/jobs/transactions?document_id=missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandlerTransactionsMissingParam(t *testing.T) {
	server := newTestServer(t, &fakeHistory{})

	resp, err := http.Get(server.URL + "/jobs/transactions")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

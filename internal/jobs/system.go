package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/srimichael20/AutoClose-AI/internal/ledger"
	"github.com/srimichael20/AutoClose-AI/internal/workflow"
)

// SubmitRequest is the JSON body of a submit call. DocumentID is optional;
// a fresh UUID is assigned when absent. Exactly one of Content or FilePath
// must be present (both is allowed, the file wins).
type SubmitRequest struct {
	DocumentID   string `json:"document_id"`
	DocumentType string `json:"document_type"`
	Content      string `json:"content"`
	FilePath     string `json:"file_path"`
	UserPrompt   string `json:"user_prompt"`
}

// Upload is one file received through the upload endpoint.
type Upload struct {
	Filename string
	Data     []byte
}

// UploadOutcome is the per-file result of a batch upload.
type UploadOutcome struct {
	Filename   string           `json:"filename"`
	DocumentID string           `json:"document_id"`
	StoredPath string           `json:"stored_path,omitempty"`
	Error      string           `json:"error,omitempty"`
	Record     *workflow.Record `json:"record,omitempty"`
}

// UploadStore persists raw uploads before a run starts.
type UploadStore interface {
	StoreUpload(documentID string, data []byte, ext string) (string, error)
}

// History reads persisted documents and their classified transactions.
type History interface {
	FindDocument(ctx context.Context, id string) (*ledger.Document, error)
	ListTransactions(ctx context.Context, documentID string) ([]ledger.Transaction, error)
}

// System defines the public contract for job operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Submit(ctx context.Context, req SubmitRequest) (workflow.Record, error)
	Process(ctx context.Context, uploads []Upload) ([]UploadOutcome, error)
	Transactions(ctx context.Context, documentID string) ([]ledger.Transaction, error)
}

type system struct {
	rt         *workflow.Runtime
	uploads    UploadStore
	history    History
	logger     *slog.Logger
	batchLimit int
}

// New creates the job system. batchLimit bounds concurrent pipeline runs
// during batch uploads; values below 1 are treated as 1.
func New(
	rt *workflow.Runtime,
	uploads UploadStore,
	history History,
	logger *slog.Logger,
	batchLimit int,
) System {
	if batchLimit < 1 {
		batchLimit = 1
	}

	return &system{
		rt:         rt,
		uploads:    uploads,
		history:    history,
		logger:     logger.With("system", "jobs"),
		batchLimit: batchLimit,
	}
}

func (s *system) Handler(maxUploadSize int64) *Handler {
	return NewHandler(s, s.logger, maxUploadSize)
}

func (s *system) Submit(ctx context.Context, req SubmitRequest) (workflow.Record, error) {
	if req.Content == "" && req.FilePath == "" {
		return workflow.Record{}, ErrMissingInput
	}
	if req.FilePath != "" {
		if _, err := os.Stat(req.FilePath); err != nil {
			return workflow.Record{}, fmt.Errorf("%w: %s", ErrFileMissing, req.FilePath)
		}
	}

	docType, err := parseDocumentType(req.DocumentType)
	if err != nil {
		return workflow.Record{}, err
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	rec := workflow.Record{
		JobID:        uuid.NewString(),
		DocumentID:   documentID,
		FilePath:     req.FilePath,
		RawContent:   req.Content,
		DocumentType: docType,
		UserPrompt:   req.UserPrompt,
		Status:       workflow.StatusPending,
		CurrentStep:  workflow.StepIntake,
	}

	return s.run(ctx, rec), nil
}

func (s *system) Process(ctx context.Context, uploads []Upload) ([]UploadOutcome, error) {
	if len(uploads) == 0 {
		return nil, ErrInvalidFile
	}

	outcomes := make([]UploadOutcome, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)

	for i, upload := range uploads {
		g.Go(func() error {
			outcomes[i] = s.processOne(gctx, upload)
			return nil
		})
	}

	// workers never return errors; failures land in the outcome rows
	_ = g.Wait()

	return outcomes, nil
}

func (s *system) processOne(ctx context.Context, upload Upload) UploadOutcome {
	documentID := uuid.NewString()
	outcome := UploadOutcome{Filename: upload.Filename, DocumentID: documentID}

	path, err := s.uploads.StoreUpload(documentID, upload.Data, filepath.Ext(upload.Filename))
	if err != nil {
		s.logger.Error("upload store failed", "filename", upload.Filename, "error", err)
		outcome.Error = err.Error()
		return outcome
	}
	outcome.StoredPath = path
	s.rt.Metrics.UploadAccepted()

	rec := workflow.Record{
		JobID:        uuid.NewString(),
		DocumentID:   documentID,
		FilePath:     path,
		DocumentType: InferDocumentType(upload.Filename),
		Status:       workflow.StatusPending,
		CurrentStep:  workflow.StepIntake,
	}

	final := s.run(ctx, rec)
	outcome.Record = &final
	return outcome
}

func (s *system) Transactions(ctx context.Context, documentID string) ([]ledger.Transaction, error) {
	if _, err := s.history.FindDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.history.ListTransactions(ctx, documentID)
}

// run executes the graph pipeline for one record. An unexpected graph
// fault still yields a terminal record, marked failed, so callers always
// get a snapshot to report.
func (s *system) run(ctx context.Context, rec workflow.Record) workflow.Record {
	s.rt.Metrics.RunStarted()

	final, err := workflow.Execute(ctx, s.rt, rec)
	if err != nil {
		s.logger.Error("pipeline run failed",
			"job_id", rec.JobID,
			"document_id", rec.DocumentID,
			"error", err,
		)
		failed := workflow.StatusFailed
		msg := err.Error()
		final = rec.Apply(workflow.Update{Status: &failed, Error: &msg})
	}

	s.rt.Metrics.RunFinished(string(final.Status))
	return final
}

func parseDocumentType(raw string) (workflow.DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text":
		return workflow.TypeText, nil
	case "pdf":
		return workflow.TypePDF, nil
	case "image":
		return workflow.TypeImage, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidType, raw)
	}
}

// InferDocumentType maps an uploaded filename to a pipeline document type
// by extension.
func InferDocumentType(filename string) workflow.DocumentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return workflow.TypePDF
	case ".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tiff", ".webp":
		return workflow.TypeImage
	default:
		return workflow.TypeText
	}
}

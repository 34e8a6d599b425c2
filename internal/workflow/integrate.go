package workflow

import (
	"context"

	"github.com/srimichael20/AutoClose-AI/internal/ledger"
	"github.com/srimichael20/AutoClose-AI/internal/notify"
)

type integrateStage struct {
	rt *Runtime
}

// NewIntegrateStage creates the integration stage: a sequence of
// independent best-effort side effects (ledger writes, ERP post, result
// archive, completion webhook). No sub-effect failure aborts the others or
// the run.
func NewIntegrateStage(rt *Runtime) Stage {
	return &integrateStage{rt: rt}
}

func (s *integrateStage) Step() Step { return StepIntegration }

func (s *integrateStage) Process(ctx context.Context, rec Record) (Update, error) {
	details := map[string]any{}
	dbOK := false
	fileOK := false
	apiOK := false

	if rec.Intake != nil {
		dbOK = s.recordDocument(ctx, rec)
		if dbOK {
			details["db"] = "ok"
		} else {
			details["db"] = "fail"
		}
	}

	if rec.Classification != nil {
		txOK := s.recordTransaction(ctx, rec)
		dbOK = dbOK || txOK

		postResult := s.rt.Notifier.PostTransaction(ctx, notify.Transaction{
			DocumentID:  rec.DocumentID,
			Category:    string(rec.Classification.Category),
			Subcategory: rec.Classification.Subcategory,
			Amount:      amountOrZero(rec.Classification.Amount),
			Description: rec.Classification.Description,
			Confidence:  rec.Classification.Confidence,
		})
		apiOK = postResult.Success
		details["api"] = map[string]any{
			"success": postResult.Success,
			"status":  postResult.StatusCode,
			"error":   postResult.Error,
		}
	}

	if rec.Vision != nil || rec.Classification != nil {
		if path, err := s.rt.Archive.StoreResult(rec.DocumentID, rec.Vision, rec.Classification, map[string]any{
			"job_id": rec.JobID,
		}); err != nil {
			s.rt.Logger.Warn("result archive failed", "document_id", rec.DocumentID, "error", err)
			details["file"] = "fail"
		} else {
			fileOK = true
			details["file"] = path
		}
	}

	notifyOK := s.rt.Notifier.NotifyComplete(ctx, notify.Completion{
		JobID:          rec.JobID,
		DocumentID:     rec.DocumentID,
		Status:         string(rec.Status),
		Vision:         rec.Vision,
		Classification: rec.Classification,
		Error:          rec.Error,
	})
	if notifyOK {
		details["notify"] = "sent"
	} else {
		details["notify"] = "skip"
	}

	result := &IntegrationResult{
		DocumentID:       rec.DocumentID,
		DatabaseRecorded: dbOK,
		FileStored:       fileOK,
		APICalled:        apiOK,
		NotificationSent: notifyOK,
		Details:          details,
	}

	return Update{
		Integration: result,
		CurrentStep: stepPtr(StepSummary),
		Status:      statusPtr(StatusInProgress),
		Messages:    []string{"Integration done"},
	}, nil
}

func (s *integrateStage) recordDocument(ctx context.Context, rec Record) bool {
	rawContent := ""
	if rec.Intake.RawContent != nil {
		rawContent = *rec.Intake.RawContent
	}

	err := s.rt.Ledger.UpsertDocument(ctx, ledger.Document{
		ID:           rec.DocumentID,
		DocumentType: string(rec.Intake.DocumentType),
		RawContent:   rawContent,
		FilePath:     rec.Intake.FilePath,
	})
	if err != nil {
		s.rt.Logger.Warn("document upsert failed", "document_id", rec.DocumentID, "error", err)
		return false
	}
	return true
}

func (s *integrateStage) recordTransaction(ctx context.Context, rec Record) bool {
	c := rec.Classification
	_, err := s.rt.Ledger.InsertTransaction(ctx, ledger.Transaction{
		DocumentID:  rec.DocumentID,
		Category:    string(c.Category),
		Subcategory: c.Subcategory,
		Amount:      c.Amount,
		Description: c.Description,
		Confidence:  c.Confidence,
		Reasoning:   c.Reasoning,
	})
	if err != nil {
		s.rt.Logger.Warn("transaction insert failed", "document_id", rec.DocumentID, "error", err)
		return false
	}
	return true
}

func amountOrZero(amount *float64) float64 {
	if amount == nil {
		return 0
	}
	return *amount
}

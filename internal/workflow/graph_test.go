package workflow_test

import (
	"context"
	"testing"

	"github.com/srimichael20/AutoClose-AI/internal/workflow"
)

func TestExecuteGraphEndToEnd(t *testing.T) {
	rt := newTestRuntime()
	rt.LLM = &stubLLM{responses: []string{
		`{"category":"expense","subcategory":"office_supplies","amount":150.0,"description":"Office supplies","confidence":0.9,"reasoning":"supply vendor"}`,
		"Recorded a $150.00 office supplies expense.",
	}}

	var checkpoints []workflow.Step
	rt.Checkpoint = func(rec workflow.Record) {
		checkpoints = append(checkpoints, rec.CurrentStep)
	}

	rec := workflow.Record{
		JobID:        "job-1",
		DocumentID:   "doc-1",
		RawContent:   "Invoice from Staples: Office supplies $150.00.",
		DocumentType: workflow.TypeText,
		Status:       workflow.StatusPending,
		CurrentStep:  workflow.StepIntake,
	}

	final, err := workflow.Execute(context.Background(), rt, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if final.Status != workflow.StatusCompleted {
		t.Errorf("status = %q", final.Status)
	}
	if final.CurrentStep != workflow.StepEnd {
		t.Errorf("current step = %q", final.CurrentStep)
	}
	if final.Vision != nil {
		t.Error("vision ran for plain text input")
	}
	if final.Classification == nil || final.Classification.Category != workflow.CategoryExpense {
		t.Fatal("classification missing or wrong category")
	}
	if final.Summary == nil {
		t.Fatal("summary missing")
	}

	// one checkpoint per executed stage, vision skipped
	if len(checkpoints) != 4 {
		t.Errorf("checkpoints = %v", checkpoints)
	}
}

func TestExecuteGraphVisionBranch(t *testing.T) {
	rt := newTestRuntime()
	rt.Extractor = &stubExtractor{} // empty text forces vision fallback
	rt.OCR = &stubOCR{lines: receiptLines()}
	rt.LLM = &stubLLM{responses: []string{
		`{"amount":42.0,"category_hint":"expense"}`,
		`{"category":"expense","amount":42.0,"confidence":0.8}`,
		"Recorded a $42.00 expense.",
	}}

	dir := t.TempDir()
	path := writeTestFile(t, dir, "scan.pdf", "%PDF-1.4")

	rec := workflow.Record{
		JobID:        "job-2",
		DocumentID:   "doc-2",
		FilePath:     path,
		DocumentType: workflow.TypePDF,
		Status:       workflow.StatusPending,
		CurrentStep:  workflow.StepIntake,
	}

	final, err := workflow.Execute(context.Background(), rt, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if final.Vision == nil {
		t.Fatal("vision result missing")
	}
	if final.Vision.ExtractedText != "RECEIPT\nTotal: $42.00" {
		t.Errorf("extracted text = %q", final.Vision.ExtractedText)
	}
	if final.Status != workflow.StatusCompleted {
		t.Errorf("status = %q", final.Status)
	}
}

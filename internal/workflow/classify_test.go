package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/srimichael20/AutoClose-AI/internal/vector"
	"github.com/srimichael20/AutoClose-AI/internal/workflow"
)

func TestParseAmount(t *testing.T) {
	ptr := func(f float64) *float64 { return &f }

	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"nil", nil, nil},
		{"float", 42.5, ptr(42.5)},
		{"int", 42, ptr(42.0)},
		{"string with commas", "1,234.50", ptr(1234.5)},
		{"string with currency", "$150.00", ptr(150.0)},
		{"string without digits", "N/A", nil},
		{"empty string", "", nil},
		{"bool", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := workflow.ParseAmount(tt.in)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("ParseAmount(%v) = %v, want nil", tt.in, *got)
			case tt.want != nil && got == nil:
				t.Errorf("ParseAmount(%v) = nil, want %v", tt.in, *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("ParseAmount(%v) = %v, want %v", tt.in, *got, *tt.want)
			}
		})
	}
}

func TestClassifySuccess(t *testing.T) {
	rt := newTestRuntime()
	llm := &stubLLM{responses: []string{
		`{"category":"expense","subcategory":"office_supplies","amount":150.0,"description":"Office supplies","confidence":0.92,"reasoning":"vendor sells supplies"}`,
	}}
	vec := &stubVector{}
	rt.LLM = llm
	rt.Vector = vec
	stage := workflow.NewClassifyStage(rt)

	rec := workflow.Record{
		DocumentID: "doc-1",
		Context:    "Invoice from Staples: Office supplies $150.00.",
		Status:     workflow.StatusInProgress,
	}

	update, err := stage.Process(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := rec.Apply(update)
	c := next.Classification
	if c == nil {
		t.Fatal("classification result missing")
	}
	if c.Category != workflow.CategoryExpense {
		t.Errorf("category = %q", c.Category)
	}
	if c.Amount == nil || *c.Amount != 150.0 {
		t.Error("amount not parsed")
	}
	if c.Confidence != 0.92 {
		t.Errorf("confidence = %v", c.Confidence)
	}
	if !c.EmbeddingsAdded {
		t.Error("content should have been indexed")
	}
	if len(vec.added) != 1 || !strings.Contains(vec.added[0], "Staples") {
		t.Errorf("indexed content = %v", vec.added)
	}
	if next.CurrentStep != workflow.StepIntegration {
		t.Errorf("current step = %q", next.CurrentStep)
	}
}

func TestClassifyDegradesOnModelFailure(t *testing.T) {
	rt := newTestRuntime()
	rt.LLM = &stubLLM{err: errors.New("model offline")}
	stage := workflow.NewClassifyStage(rt)

	rec := workflow.Record{
		DocumentID: "doc-1",
		Context:    "Unreadable scan fragment",
		Status:     workflow.StatusInProgress,
	}

	update, err := stage.Process(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := rec.Apply(update)
	c := next.Classification
	if c == nil {
		t.Fatal("classification result missing")
	}
	if c.Category != workflow.CategoryUnknown {
		t.Errorf("category = %q, want unknown", c.Category)
	}
	if c.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", c.Confidence)
	}
	if c.Reasoning != "parse error" {
		t.Errorf("reasoning = %q", c.Reasoning)
	}
	if c.Description != "Unreadable scan fragment" {
		t.Errorf("description = %q", c.Description)
	}
	if next.Status == workflow.StatusFailed {
		t.Error("degraded classification should not fail the run")
	}
}

func TestClassifyDefaultConfidence(t *testing.T) {
	rt := newTestRuntime()
	rt.LLM = &stubLLM{responses: []string{`{"category":"revenue","description":"Consulting fee"}`}}
	stage := workflow.NewClassifyStage(rt)

	rec := workflow.Record{DocumentID: "doc-1", Context: "Consulting fee received"}
	update, err := stage.Process(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := rec.Apply(update)
	if next.Classification.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5 default", next.Classification.Confidence)
	}
}

func TestClassifyUsesHintPrompt(t *testing.T) {
	rt := newTestRuntime()
	llm := &stubLLM{responses: []string{`{"category":"expense","confidence":0.9}`}}
	rt.LLM = llm
	stage := workflow.NewClassifyStage(rt)

	amount := 99.0
	hint := "expense"
	rec := workflow.Record{
		DocumentID: "doc-1",
		Vision: &workflow.VisionResult{
			DocumentID:    "doc-1",
			ExtractedText: "Receipt total $99.00",
			StructuredData: workflow.VisionFields{
				Amount:       &amount,
				CategoryHint: &hint,
			},
		},
	}

	if _, err := stage.Process(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(llm.prompts) != 1 {
		t.Fatalf("calls = %d", len(llm.prompts))
	}
	if !strings.Contains(llm.prompts[0], "Confirm classification") {
		t.Error("hint prompt not used when hint and amount are present")
	}
	if !strings.Contains(llm.prompts[0], "Receipt total $99.00") {
		t.Error("vision text not used as content")
	}
}

func TestClassifySimilarContextInPrompt(t *testing.T) {
	rt := newTestRuntime()
	llm := &stubLLM{responses: []string{`{"category":"expense"}`}}
	rt.LLM = llm
	rt.Vector = &stubVector{neighbors: []vector.Neighbor{
		{Content: "Previous office supply invoice", Metadata: map[string]any{"category": "expense", "amount": 120.0}},
		{Content: "Rent payment", Metadata: map[string]any{"category": "expense"}},
	}}
	stage := workflow.NewClassifyStage(rt)

	rec := workflow.Record{DocumentID: "doc-1", Context: "Invoice from Staples"}
	if _, err := stage.Process(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "cat=expense amt=120 | Previous office supply invoice") {
		t.Errorf("prompt missing formatted neighbor:\n%s", prompt)
	}
	if !strings.Contains(prompt, "cat=expense amt=? | Rent payment") {
		t.Errorf("prompt missing placeholder for absent amount:\n%s", prompt)
	}
}

func TestClassifySearchFailureDegrades(t *testing.T) {
	rt := newTestRuntime()
	rt.LLM = &stubLLM{responses: []string{`{"category":"expense"}`}}
	rt.Vector = &stubVector{searchErr: errors.New("qdrant down")}
	stage := workflow.NewClassifyStage(rt)

	rec := workflow.Record{DocumentID: "doc-1", Context: "Invoice from Staples"}
	update, err := stage.Process(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := rec.Apply(update)
	if next.Classification == nil || next.Classification.Category != workflow.CategoryExpense {
		t.Error("classification should proceed without similarity context")
	}
}

func TestClassifyIndexFailureLeavesEmbeddingsUnset(t *testing.T) {
	rt := newTestRuntime()
	rt.LLM = &stubLLM{responses: []string{`{"category":"expense"}`}}
	rt.Vector = &stubVector{addErr: errors.New("qdrant down")}
	stage := workflow.NewClassifyStage(rt)

	rec := workflow.Record{DocumentID: "doc-1", Context: "Invoice from Staples"}
	update, err := stage.Process(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := rec.Apply(update)
	if next.Classification.EmbeddingsAdded {
		t.Error("embeddings flag set despite index failure")
	}
}

package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/srimichael20/AutoClose-AI/pkg/formatting"
)

const summaryPrompt = `Generate a concise financial summary for this processed document.
Include: transaction category, amount (if any), brief description, and any accounting notes.
1-3 sentences. Professional tone.`

const (
	summaryPreviewLimit = 1500
	summaryContextLimit = 6000
)

type summarizeStage struct {
	rt *Runtime
}

// NewSummarizeStage creates the terminal summary stage. The run always
// reaches completed status here, even when the summary itself degraded.
func NewSummarizeStage(rt *Runtime) Stage {
	return &summarizeStage{rt: rt}
}

func (s *summarizeStage) Step() Step { return StepSummary }

func (s *summarizeStage) Process(ctx context.Context, rec Record) (Update, error) {
	summary := s.generate(ctx, buildSummaryContext(rec))

	result := &SummaryResult{
		DocumentID:       rec.DocumentID,
		FinancialSummary: summary,
		UserPrompt:       rec.UserPrompt,
		Metadata:         map[string]any{"steps_completed": len(rec.Messages)},
	}

	return Update{
		Summary:     result,
		CurrentStep: stepPtr(StepEnd),
		Status:      statusPtr(StatusCompleted),
		Messages:    []string{"Summary done"},
	}, nil
}

func (s *summarizeStage) generate(ctx context.Context, contextText string) string {
	prompt := summaryPrompt + "\n\n" + formatting.Preview(contextText, summaryContextLimit)

	summary, err := s.rt.LLM.Complete(ctx, prompt)
	if err != nil {
		return fmt.Sprintf("Summary unavailable: %v", err)
	}

	return strings.TrimSpace(summary)
}

func buildSummaryContext(rec Record) string {
	var parts []string

	if rec.Intake != nil {
		parts = append(parts, fmt.Sprintf("Document type: %s", rec.Intake.DocumentType))
		if rec.Intake.RawContent != nil && *rec.Intake.RawContent != "" {
			parts = append(parts, fmt.Sprintf("Content preview: %s", formatting.Preview(*rec.Intake.RawContent, summaryPreviewLimit)))
		}
	}
	if rec.Vision != nil {
		parts = append(parts, fmt.Sprintf("Extracted: %s", formatting.Preview(rec.Vision.ExtractedText, summaryPreviewLimit)))
	}
	if rec.Classification != nil {
		description := rec.Classification.Description
		if description == "" {
			description = "N/A"
		}
		parts = append(parts, fmt.Sprintf(
			"Classified: %s | Amount: %s | Description: %s",
			rec.Classification.Category,
			formatAmount(rec.Classification.Amount),
			description,
		))
	}

	contextText := strings.Join(parts, "\n")
	if contextText == "" {
		contextText = "No document content."
	}

	if rec.UserPrompt != "" {
		contextText = fmt.Sprintf("User request: %s\n\n%s", rec.UserPrompt, contextText)
	}

	return contextText
}

func formatAmount(amount *float64) string {
	if amount == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *amount)
}

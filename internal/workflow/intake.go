package workflow

import (
	"context"
	"fmt"
	"os"
)

// Stage is one pipeline step consuming the current Record and producing a
// partial Update. Expected external failures become failed-status or
// degraded Updates; only unexpected internal faults return an error.
type Stage interface {
	Step() Step
	Process(ctx context.Context, rec Record) (Update, error)
}

// NextAfterIntake implements the branch rule: a failed intake routes
// directly to classification so a downstream record is still produced;
// otherwise vision runs iff intake flagged it as required.
func NextAfterIntake(rec Record) Step {
	if rec.Status == StatusFailed {
		return StepClassification
	}
	if rec.Intake != nil && rec.Intake.RequiresVision {
		return StepVision
	}
	return StepClassification
}

type intakeStage struct {
	rt *Runtime
}

// NewIntakeStage creates the intake stage: reads the document source and
// extracts raw text, flagging OCR when extraction is impossible.
func NewIntakeStage(rt *Runtime) Stage {
	return &intakeStage{rt: rt}
}

func (s *intakeStage) Step() Step { return StepIntake }

func (s *intakeStage) Process(ctx context.Context, rec Record) (Update, error) {
	if rec.FilePath == "" && rec.RawContent == "" {
		return failedUpdate(ErrNoInput.Error(), "Intake failed"), nil
	}

	requiresVision := false
	var extracted *string
	metadata := map[string]any{}

	switch {
	case rec.FilePath != "":
		if _, err := os.Stat(rec.FilePath); err != nil {
			msg := fmt.Sprintf("%s: %s", ErrFileNotFound.Error(), rec.FilePath)
			return failedUpdate(msg, "Intake failed"), nil
		}

		switch rec.DocumentType {
		case TypePDF:
			text, meta, err := s.rt.Extractor.PDF(rec.FilePath)
			for k, v := range meta {
				metadata[k] = v
			}
			if err != nil || text == "" {
				requiresVision = true
				metadata["fallback_vision"] = true
			} else {
				extracted = &text
			}
		case TypeImage:
			requiresVision = true
			metadata["requires_ocr"] = true
		default:
			text, err := s.rt.Extractor.TextFile(rec.FilePath)
			if err != nil {
				return Update{}, fmt.Errorf("intake: %w", err)
			}
			extracted = &text
		}

	default:
		// Inline content, no file. Passed through unchanged.
		content := rec.RawContent
		extracted = &content
	}

	result := &IntakeResult{
		DocumentID:     rec.DocumentID,
		DocumentType:   rec.DocumentType,
		RawContent:     extracted,
		FilePath:       rec.FilePath,
		Metadata:       metadata,
		RequiresVision: requiresVision,
	}

	contextText := ""
	if extracted != nil {
		contextText = *extracted
	}
	if contextText == "" {
		contextText = fmt.Sprintf("[Vision required: %s]", rec.DocumentType)
	}

	next := StepClassification
	if requiresVision {
		next = StepVision
	}

	return Update{
		Intake:      result,
		CurrentStep: stepPtr(next),
		Context:     strPtr(contextText),
		Status:      statusPtr(StatusInProgress),
		Messages:    []string{"Intake done"},
	}, nil
}

// failedUpdate builds the terminal failed-status Update stages use for
// expected fatal conditions.
func failedUpdate(errMsg, message string) Update {
	return Update{
		Status:   statusPtr(StatusFailed),
		Error:    strPtr(errMsg),
		Messages: []string{message},
	}
}

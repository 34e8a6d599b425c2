package workflow

import (
	"context"
	"github.com/srimichael20/AutoClose-AI/internal/ocr"
	"github.com/srimichael20/AutoClose-AI/pkg/formatting"
)

const extractPrompt = `Extract accounting data. JSON only: {"amount":number|null,"date":str|null,"vendor":str|null,"description":str|null,"category_hint":str|null}
Text:
`

const extractInputLimit = 4000

type visionStage struct {
	rt *Runtime
}

// NewVisionStage creates the vision stage: OCR for scanned documents
// followed by a structured-extraction model call.
func NewVisionStage(rt *Runtime) Stage {
	return &visionStage{rt: rt}
}

func (s *visionStage) Step() Step { return StepVision }

func (s *visionStage) Process(ctx context.Context, rec Record) (Update, error) {
	intake := rec.Intake
	if intake == nil {
		return failedUpdate(ErrNoIntakeResult.Error(), "Vision failed"), nil
	}

	text := ""
	if intake.RawContent != nil {
		text = *intake.RawContent
	}

	confidence := 1.0
	if intake.RequiresVision && intake.FilePath != "" {
		text, confidence = s.runOCR(ctx, intake.FilePath)
	}

	if text == "" {
		return failedUpdate(ErrNoContent.Error(), "Vision failed"), nil
	}

	result := &VisionResult{
		DocumentID:      rec.DocumentID,
		ExtractedText:   text,
		StructuredData:  s.extractFields(ctx, text),
		ConfidenceScore: confidence,
		Metadata:        map[string]any{"requires_vision": intake.RequiresVision},
	}

	return Update{
		Vision:      result,
		CurrentStep: stepPtr(StepClassification),
		Context:     strPtr(text),
		Status:      statusPtr(StatusInProgress),
		Messages:    []string{"Vision done"},
	}, nil
}

// runOCR reads the document with the OCR engine. Any failure degrades to
// empty text and zero confidence; the caller decides whether that is fatal.
func (s *visionStage) runOCR(ctx context.Context, path string) (string, float64) {
	lines, err := s.rt.OCR.Read(ctx, path)
	if err != nil {
		s.rt.Logger.Warn("ocr failed", "path", path, "error", err)
		return "", 0.0
	}
	return ocr.JoinLines(lines), ocr.MeanConfidence(lines)
}

// extractFields asks the model for structured accounting fields. A
// malformed response degrades to a raw content preview instead of failing.
func (s *visionStage) extractFields(ctx context.Context, text string) VisionFields {
	prompt := extractPrompt + formatting.Preview(text, extractInputLimit)

	content, err := s.rt.LLM.Complete(ctx, prompt)
	if err != nil {
		s.rt.Logger.Warn("vision extraction call failed", "error", err)
		return VisionFields{Raw: formatting.Preview(text, 300)}
	}

	fields, err := formatting.Parse[VisionFields](content)
	if err != nil {
		s.rt.Logger.Warn("vision extraction parse failed", "error", err)
		return VisionFields{Raw: formatting.Preview(text, 300)}
	}

	return fields
}

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/srimichael20/AutoClose-AI/pkg/formatting"
)

const classifyFullPrompt = `Classify SMB transaction. JSON: {"category":"revenue|expense|asset|liability|equity","subcategory":str,"amount":float|null,"description":str,"confidence":0-1,"reasoning":str}
Content:
`

// classifyHintPrompt is used when vision produced both a category hint and
// an amount; confirming is cheaper than classifying from scratch.
const classifyHintPrompt = `Confirm classification. Hint: %s. JSON: {"category":"...","subcategory":"...","amount":number|null,"description":"...","confidence":0-1,"reasoning":"brief"}
Content:
`

const (
	classifyContentLimit = 3000
	classifySimilarLimit = 500
	classifyQueryLimit   = 500
	indexContentLimit    = 4000
	similarNeighbors     = 3
)

type classifyResponse struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Amount      any      `json:"amount"`
	Description string   `json:"description"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
}

type classifyStage struct {
	rt *Runtime
}

// NewClassifyStage creates the classification stage: similarity lookup,
// one model call, category normalization, and content indexing.
func NewClassifyStage(rt *Runtime) Stage {
	return &classifyStage{rt: rt}
}

func (s *classifyStage) Step() Step { return StepClassification }

func (s *classifyStage) Process(ctx context.Context, rec Record) (Update, error) {
	content := rec.Context
	var hint VisionFields
	if rec.Vision != nil {
		content = rec.Vision.ExtractedText
		hint = rec.Vision.StructuredData
	}

	similar := s.findSimilar(ctx, rec.DocumentID, content)
	result := s.classify(ctx, rec.DocumentID, content, hint, similar)

	if content != "" {
		if err := s.rt.Vector.Add(ctx, formatting.Preview(content, indexContentLimit), map[string]any{
			"category":    string(result.Category),
			"amount":      result.Amount,
			"document_id": rec.DocumentID,
		}); err != nil {
			s.rt.Logger.Warn("vector index add failed", "document_id", rec.DocumentID, "error", err)
		} else {
			result.EmbeddingsAdded = true
		}
	}

	return Update{
		Classification: result,
		CurrentStep:    stepPtr(StepIntegration),
		Status:         statusPtr(StatusInProgress),
		Messages:       []string{"Classification done"},
	}, nil
}

// findSimilar formats up to three prior classified documents as few-shot
// context. Lookup failure degrades to no context.
func (s *classifyStage) findSimilar(ctx context.Context, documentID, content string) string {
	query := formatting.Preview(content, classifyQueryLimit)
	if query == "" {
		query = documentID
	}

	neighbors, err := s.rt.Vector.Search(ctx, query, similarNeighbors)
	if err != nil {
		s.rt.Logger.Warn("similarity lookup failed", "document_id", documentID, "error", err)
		return ""
	}

	parts := make([]string, 0, len(neighbors))
	for i, n := range neighbors {
		if i >= similarNeighbors {
			break
		}
		category := payloadValue(n.Metadata, "category")
		amount := payloadValue(n.Metadata, "amount")
		parts = append(parts, fmt.Sprintf("cat=%s amt=%s | %s", category, amount, formatting.Preview(n.Content, 200)))
	}

	return strings.Join(parts, "\n")
}

func (s *classifyStage) classify(ctx context.Context, documentID, content string, hint VisionFields, similar string) *ClassificationResult {
	prompt := classifyFullPrompt
	if hint.CategoryHint != nil && hint.Amount != nil {
		hintJSON, _ := json.Marshal(hint)
		prompt = fmt.Sprintf(classifyHintPrompt, formatting.Preview(string(hintJSON), 200))
	}

	full := prompt + formatting.Preview(content, classifyContentLimit) +
		"\n\nSimilar:\n" + formatting.Preview(similar, classifySimilarLimit)

	parsed, err := s.complete(ctx, full)
	if err != nil {
		s.rt.Logger.Warn("classification degraded", "document_id", documentID, "error", err)
		return &ClassificationResult{
			DocumentID:  documentID,
			Category:    CategoryUnknown,
			Description: formatting.Preview(content, 150),
			Confidence:  0,
			Reasoning:   "parse error",
		}
	}

	confidence := 0.5
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}

	return &ClassificationResult{
		DocumentID:  documentID,
		Category:    ParseCategory(parsed.Category),
		Subcategory: parsed.Subcategory,
		Amount:      ParseAmount(parsed.Amount),
		Description: parsed.Description,
		Confidence:  confidence,
		Reasoning:   parsed.Reasoning,
	}
}

func (s *classifyStage) complete(ctx context.Context, prompt string) (classifyResponse, error) {
	content, err := s.rt.LLM.Complete(ctx, prompt)
	if err != nil {
		return classifyResponse{}, fmt.Errorf("model call: %w", err)
	}
	return formatting.Parse[classifyResponse](content)
}

var amountPattern = regexp.MustCompile(`\d+\.?\d*`)

// ParseAmount normalizes a model-provided amount: numeric values pass
// through, strings are scanned for the first numeric substring after
// comma-stripping, everything else parses to nil.
func ParseAmount(v any) *float64 {
	switch amt := v.(type) {
	case nil:
		return nil
	case float64:
		return &amt
	case int:
		f := float64(amt)
		return &f
	case json.Number:
		if f, err := amt.Float64(); err == nil {
			return &f
		}
		return nil
	case string:
		stripped := strings.ReplaceAll(amt, ",", "")
		match := amountPattern.FindString(stripped)
		if match == "" {
			return nil
		}
		f, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func payloadValue(metadata map[string]any, key string) string {
	v, ok := metadata[key]
	if !ok || v == nil {
		return "?"
	}
	return fmt.Sprintf("%v", v)
}

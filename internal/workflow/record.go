// Package workflow implements the document processing pipeline: intake,
// optional vision, classification, integration, and summary. A Record
// threads through the stages, each returning a partial Update merged back
// into it.
package workflow

import (
	"slices"
	"strings"
)

// Step names a pipeline stage or the terminal marker.
type Step string

const (
	StepIntake         Step = "intake"
	StepVision         Step = "vision"
	StepClassification Step = "classification"
	StepIntegration    Step = "integration"
	StepSummary        Step = "summary"
	StepEnd            Step = "end"
)

// Status is the run-level processing state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DocumentType tags the input document format. Fixed at creation.
type DocumentType string

const (
	TypePDF   DocumentType = "pdf"
	TypeImage DocumentType = "image"
	TypeText  DocumentType = "text"
)

// Category is one of the fixed accounting categories.
type Category string

const (
	CategoryRevenue   Category = "revenue"
	CategoryExpense   Category = "expense"
	CategoryAsset     Category = "asset"
	CategoryLiability Category = "liability"
	CategoryEquity    Category = "equity"
	CategoryUnknown   Category = "unknown"
)

// ParseCategory matches s case-insensitively against the fixed category
// set, mapping anything unrecognized to unknown.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryRevenue:
		return CategoryRevenue
	case CategoryExpense:
		return CategoryExpense
	case CategoryAsset:
		return CategoryAsset
	case CategoryLiability:
		return CategoryLiability
	case CategoryEquity:
		return CategoryEquity
	default:
		return CategoryUnknown
	}
}

// IntakeResult is produced by the intake stage.
type IntakeResult struct {
	DocumentID     string         `json:"document_id"`
	DocumentType   DocumentType   `json:"document_type"`
	RawContent     *string        `json:"raw_content"`
	FilePath       string         `json:"file_path,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	RequiresVision bool           `json:"requires_vision"`
}

// VisionFields is the structured data recovered by the vision stage's
// extraction call. Raw carries a content preview when the model response
// could not be parsed.
type VisionFields struct {
	Amount       *float64 `json:"amount,omitempty"`
	Date         *string  `json:"date,omitempty"`
	Vendor       *string  `json:"vendor,omitempty"`
	Description  *string  `json:"description,omitempty"`
	CategoryHint *string  `json:"category_hint,omitempty"`
	Raw          string   `json:"raw,omitempty"`
}

// VisionResult is produced by the vision stage.
type VisionResult struct {
	DocumentID      string         `json:"document_id"`
	ExtractedText   string         `json:"extracted_text"`
	StructuredData  VisionFields   `json:"structured_data"`
	ConfidenceScore float64        `json:"confidence_score"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// ClassificationResult is produced by the classification stage.
type ClassificationResult struct {
	DocumentID      string   `json:"document_id"`
	Category        Category `json:"category"`
	Subcategory     string   `json:"subcategory,omitempty"`
	Amount          *float64 `json:"amount"`
	Description     string   `json:"description,omitempty"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning,omitempty"`
	EmbeddingsAdded bool     `json:"embeddings_added"`
}

// IntegrationResult aggregates the integration stage's best-effort
// side-effect outcomes.
type IntegrationResult struct {
	DocumentID       string         `json:"document_id"`
	DatabaseRecorded bool           `json:"database_recorded"`
	FileStored       bool           `json:"file_stored"`
	APICalled        bool           `json:"api_called"`
	NotificationSent bool           `json:"notification_sent"`
	Details          map[string]any `json:"details,omitempty"`
}

// SummaryResult is produced by the terminal summary stage.
type SummaryResult struct {
	DocumentID       string         `json:"document_id"`
	FinancialSummary string         `json:"financial_summary"`
	UserPrompt       string         `json:"user_prompt,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Record is the per-run state threaded through the pipeline. Each stage
// receives the current Record and returns an Update; the Record itself is
// replaced, never mutated in place.
type Record struct {
	JobID          string                `json:"job_id"`
	DocumentID     string                `json:"document_id"`
	FilePath       string                `json:"file_path,omitempty"`
	RawContent     string                `json:"raw_content,omitempty"`
	DocumentType   DocumentType          `json:"document_type"`
	UserPrompt     string                `json:"user_prompt,omitempty"`
	Intake         *IntakeResult         `json:"intake_result"`
	Vision         *VisionResult         `json:"vision_result"`
	Classification *ClassificationResult `json:"classification_result"`
	Integration    *IntegrationResult    `json:"integration_result"`
	Summary        *SummaryResult        `json:"summary_result"`
	CurrentStep    Step                  `json:"current_step"`
	Status         Status                `json:"status"`
	Error          string                `json:"error,omitempty"`
	Messages       []string              `json:"messages"`
	Context        string                `json:"context_for_next_agent,omitempty"`
}

// Update is a stage's partial output. Nil fields leave the corresponding
// Record field untouched; Messages are appended to the audit log.
type Update struct {
	Intake         *IntakeResult
	Vision         *VisionResult
	Classification *ClassificationResult
	Integration    *IntegrationResult
	Summary        *SummaryResult
	CurrentStep    *Step
	Status         *Status
	Error          *string
	Context        *string
	Messages       []string
}

// Apply merges an Update onto the Record, returning the new Record. Result
// slots are write-once: a slot already set is never overwritten. A failed
// status is sticky; later non-failed status updates are ignored so a
// downstream stage cannot mask an earlier fatal failure.
func (r Record) Apply(u Update) Record {
	next := r
	next.Messages = slices.Clone(r.Messages)

	if u.Intake != nil && next.Intake == nil {
		next.Intake = u.Intake
	}
	if u.Vision != nil && next.Vision == nil {
		next.Vision = u.Vision
	}
	if u.Classification != nil && next.Classification == nil {
		next.Classification = u.Classification
	}
	if u.Integration != nil && next.Integration == nil {
		next.Integration = u.Integration
	}
	if u.Summary != nil && next.Summary == nil {
		next.Summary = u.Summary
	}

	if u.CurrentStep != nil {
		next.CurrentStep = *u.CurrentStep
	}
	if u.Status != nil && (next.Status != StatusFailed || *u.Status == StatusFailed) {
		next.Status = *u.Status
	}
	if u.Error != nil {
		next.Error = *u.Error
	}
	if u.Context != nil {
		next.Context = *u.Context
	}

	next.Messages = append(next.Messages, u.Messages...)
	return next
}

func stepPtr(s Step) *Step       { return &s }
func statusPtr(s Status) *Status { return &s }
func strPtr(s string) *string    { return &s }

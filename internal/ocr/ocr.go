// Package ocr recovers text from scanned documents and images using a
// vision-capable model.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dcconfig "github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"github.com/JaimeStill/document-context/pkg/image"
	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/srimichael20/AutoClose-AI/pkg/formatting"
)

// Line is a single recognized text line with the model's confidence in it.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Engine reads text lines from a document or image file.
type Engine interface {
	Read(ctx context.Context, path string) ([]Line, error)
}

const readPrompt = `Transcribe every line of text visible in this image, in reading order.
For each line include a confidence between 0.0 and 1.0.
Respond with JSON only, in the form:
{"lines": [{"text": "...", "confidence": 0.95}]}`

type readResponse struct {
	Lines []Line `json:"lines"`
}

type visionEngine struct {
	config *gaconfig.AgentConfig
}

// NewVisionEngine creates an Engine that sends rendered pages to the
// configured vision model. PDFs have their first page rasterized;
// image files are sent directly.
func NewVisionEngine(config *gaconfig.AgentConfig) Engine {
	return &visionEngine{config: config}
}

func (e *visionEngine) Read(ctx context.Context, path string) ([]Line, error) {
	dataURI, err := encodeDocument(path)
	if err != nil {
		return nil, err
	}

	a, err := agent.New(e.config)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	resp, err := a.Vision(ctx, readPrompt, []string{dataURI})
	if err != nil {
		return nil, fmt.Errorf("vision call: %w", err)
	}

	parsed, err := formatting.Parse[readResponse](resp.Content())
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return parsed.Lines, nil
}

func encodeDocument(path string) (string, error) {
	var (
		data   []byte
		format document.ImageFormat
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		data, err = renderFirstPage(path)
		format = document.PNG
	case ".jpg", ".jpeg":
		data, err = os.ReadFile(path)
		format = document.JPEG
	default:
		data, err = os.ReadFile(path)
		format = document.PNG
	}
	if err != nil {
		return "", err
	}

	dataURI, err := encoding.EncodeImageDataURI(data, format)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	return dataURI, nil
}

func renderFirstPage(path string) ([]byte, error) {
	pdfDoc, err := document.OpenPDF(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer pdfDoc.Close()

	page, err := pdfDoc.ExtractPage(1)
	if err != nil {
		return nil, fmt.Errorf("extract page 1: %w", err)
	}

	renderer, err := image.NewImageMagickRenderer(dcconfig.ImageConfig{
		Format: "png",
		DPI:    300,
		Options: map[string]any{
			"background": "white",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	data, err := page.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("render page 1: %w", err)
	}

	return data, nil
}

// MeanConfidence averages line confidences, returning 0 for no lines.
func MeanConfidence(lines []Line) float64 {
	if len(lines) == 0 {
		return 0
	}
	var sum float64
	for _, line := range lines {
		sum += line.Confidence
	}
	return sum / float64(len(lines))
}

// JoinLines concatenates line text with newlines.
func JoinLines(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, line.Text)
	}
	return strings.Join(parts, "\n")
}

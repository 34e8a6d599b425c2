// Package extract pulls text content out of PDF and plain text documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	ledongpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNoText indicates a PDF yielded no extractable text, typically
// because it is scanned or image-only.
var ErrNoText = errors.New("no extractable text")

// PDF extracts text from the PDF at path, page by page. The returned
// metadata always includes the page count when it could be determined.
// Layout-aware row extraction is attempted first; when it produces
// nothing, plain text extraction is tried as a fallback. Both failing
// returns ErrNoText so callers can route the document to OCR.
func PDF(path string) (string, map[string]any, error) {
	meta := map[string]any{}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", meta, fmt.Errorf("read pdf: %w", err)
	}

	if count, err := api.PageCount(bytes.NewReader(data), nil); err == nil {
		meta["pages"] = count
	}

	text, err := byRows(path)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			meta["row_extraction_error"] = err.Error()
		}
		text, err = plain(path)
		if err != nil {
			meta["extraction_error"] = err.Error()
			return "", meta, fmt.Errorf("%w: %v", ErrNoText, err)
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", meta, ErrNoText
	}

	return text, meta, nil
}

// TextFile reads a plain text document, replacing any invalid UTF-8
// sequences rather than failing on them.
func TextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// byRows walks each page's text rows in layout order. The parser panics
// on some malformed documents, so recover converts that to an error.
func byRows(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, reader, err := ledongpdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}

		var sb strings.Builder
		for _, row := range rows {
			for w, word := range row.Content {
				if w > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}

		if content := strings.TrimSpace(sb.String()); content != "" {
			pages = append(pages, content)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

func plain(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, reader, err := ledongpdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("plain text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("read plain text: %w", err)
	}

	return buf.String(), nil
}

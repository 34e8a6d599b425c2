// Package storage archives uploaded documents and processing results on
// local disk.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds local storage directory settings.
type Config struct {
	UploadDir    string `toml:"upload_dir"`
	ProcessedDir string `toml:"processed_dir"`
}

// Finalize applies defaults.
func (c *Config) Finalize() error {
	if c.UploadDir == "" {
		c.UploadDir = "storage/uploads"
	}
	if c.ProcessedDir == "" {
		c.ProcessedDir = "storage/processed"
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.UploadDir != "" {
		c.UploadDir = overlay.UploadDir
	}
	if overlay.ProcessedDir != "" {
		c.ProcessedDir = overlay.ProcessedDir
	}
}

// Files stores uploads and result snapshots under configured directories.
type Files struct {
	uploadDir    string
	processedDir string
}

func NewFiles(cfg *Config) (*Files, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.ProcessedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &Files{
		uploadDir:    cfg.UploadDir,
		processedDir: cfg.ProcessedDir,
	}, nil
}

// StoreUpload writes an uploaded document to the upload directory and
// returns its path. Unknown extensions are stored as .bin.
func (f *Files) StoreUpload(documentID string, data []byte, ext string) (string, error) {
	ext = normalizeExt(ext)
	name := fmt.Sprintf("%s_%s%s", documentID, time.Now().Format("20060102_150405"), ext)
	path := filepath.Join(f.uploadDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	return path, nil
}

// StoreResult writes a JSON snapshot of a run's vision and classification
// output to the processed directory and returns its path.
func (f *Files) StoreResult(documentID string, vision, classification any, metadata map[string]any) (string, error) {
	snapshot := map[string]any{
		"document_id":    documentID,
		"vision":         vision,
		"classification": classification,
		"metadata":       metadata,
		"stored_at":      time.Now().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", documentID, time.Now().Format("20060102_150405"))
	path := filepath.Join(f.processedDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store result: %w", err)
	}

	return path, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg", ".txt":
		return ext
	case "":
		return ".bin"
	default:
		if strings.HasPrefix(ext, ".") {
			return ext
		}
		return ".bin"
	}
}

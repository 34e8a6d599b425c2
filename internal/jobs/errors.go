package jobs

import (
	"errors"
	"net/http"

	"github.com/srimichael20/AutoClose-AI/internal/ledger"
)

// Domain errors for job operations.
var (
	ErrMissingInput = errors.New("content or file_path required")
	ErrFileMissing  = errors.New("file path does not exist")
	ErrInvalidType  = errors.New("invalid document type")
	ErrInvalidFile  = errors.New("invalid file")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps job domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrMissingInput) ||
		errors.Is(err, ErrFileMissing) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidFile) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ledger.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

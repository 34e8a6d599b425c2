package jobs

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/srimichael20/AutoClose-AI/pkg/handlers"
	"github.com/srimichael20/AutoClose-AI/pkg/routes"
)

// Handler provides HTTP endpoints for job operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload
// size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "jobs"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for job endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/jobs",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/submit", Handler: h.Submit},
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "GET", Pattern: "/transactions", Handler: h.Transactions},
		},
	}
}

// Submit runs the pipeline for inline content or an existing file path and
// returns the final record snapshot.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	rec, err := h.sys.Submit(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Upload stores one or more multipart files and runs the pipeline for each.
// A single file responds with its record; multiple files respond with the
// per-file outcome list.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	uploads, err := readUploads(r.MultipartForm)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	outcomes, err := h.sys.Process(r.Context(), uploads)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if len(outcomes) == 1 && outcomes[0].Record != nil {
		handlers.RespondJSON(w, http.StatusOK, outcomes[0].Record)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcomes)
}

// Transactions returns the persisted transaction rows for one document.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	documentID := r.URL.Query().Get("document_id")
	if documentID == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	transactions, err := h.sys.Transactions(r.Context(), documentID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, transactions)
}

func readUploads(form *multipart.Form) ([]Upload, error) {
	if form == nil {
		return nil, ErrInvalidFile
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return nil, ErrInvalidFile
	}

	uploads := make([]Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, ErrInvalidFile
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, ErrInvalidFile
		}

		uploads = append(uploads, Upload{Filename: header.Filename, Data: data})
	}

	return uploads, nil
}

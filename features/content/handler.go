package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"docnest/internal/credits"
	"docnest/internal/middleware"
	"docnest/internal/video"
	"docnest/internal/web"
)

var mimeByExt = map[string]string{
	".pdf": "application/pdf",
	".txt": "text/plain",
	".md":  "text/markdown",
}

type Handler struct {
	service        *Service
	uploadDir      string
	maxUploadBytes int64
}

func NewHandler(service *Service, uploadDir string, maxUploadMB int) *Handler {
	return &Handler{
		service:        service,
		uploadDir:      uploadDir,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

func (h *Handler) AddText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotebookID string `json:"notebookId"`
		Title      string `json:"title"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.NotebookID == "" || req.Title == "" || req.Text == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Notebook ID, title, and text are required", http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserID(r.Context())
	outcome, err := h.service.AddText(r.Context(), userID, req.NotebookID, req.Title, req.Text)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeCreated(w, outcome)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.writeError(r.Context(), w, "BAD_REQUEST", "File too large", http.StatusBadRequest)
		return
	}

	notebookID := r.FormValue("notebookId")
	if notebookID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Notebook ID is required", http.StatusBadRequest)
		return
	}
	title := r.FormValue("title")

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(r.Context(), w, "BAD_REQUEST", "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	mimeType, ok := mimeByExt[ext]
	if !ok || !h.service.SupportsUpload(mimeType) {
		h.writeError(r.Context(), w, "BAD_REQUEST", fmt.Sprintf("Unsupported file type: %s", ext), http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		slog.Error("failed to create upload directory", "error", err, "path", h.uploadDir)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to create upload directory", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(header.Filename))
	path := filepath.Clean(filepath.Join(h.uploadDir, filename))

	dst, err := os.Create(path) // #nosec G304 -- path is UUID-based inside the configured upload dir
	if err != nil {
		slog.Error("failed to create file", "error", err, "path", path)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to save file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to write file", http.StatusInternalServerError)
		return
	}

	userID := middleware.GetUserID(r.Context())
	outcome, err := h.service.UploadFile(r.Context(), userID, notebookID, title, path, header.Filename, mimeType)
	if err != nil {
		// Keep failed-record uploads on disk for inspection; anything that
		// never made a record gets cleaned up.
		var pe *ProcessingError
		if !errors.As(err, &pe) {
			if removeErr := os.Remove(path); removeErr != nil {
				slog.Warn("failed to clean up uploaded file", "error", removeErr, "path", path)
			}
		}
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeCreated(w, outcome)
}

func (h *Handler) AddURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotebookID string `json:"notebookId"`
		Title      string `json:"title"`
		URL        string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.NotebookID == "" || req.URL == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Notebook ID and URL are required", http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserID(r.Context())
	outcome, err := h.service.AddURL(r.Context(), userID, req.NotebookID, req.Title, req.URL)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeCreated(w, outcome)
}

func (h *Handler) AddYouTube(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotebookID string `json:"notebookId"`
		Title      string `json:"title"`
		URL        string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.NotebookID == "" || req.URL == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Notebook ID and YouTube URL are required", http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserID(r.Context())
	outcome, err := h.service.AddYouTube(r.Context(), userID, req.NotebookID, req.Title, req.URL)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeCreated(w, outcome)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	notebookID := r.URL.Query().Get("notebook_id")
	if notebookID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "notebook_id is required", http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserID(r.Context())
	contents, err := h.service.List(r.Context(), userID, notebookID)
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if contents == nil {
		contents = []Content{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": contents,
		"meta": map[string]int{"count": len(contents)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := middleware.GetUserID(r.Context())

	detail, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Content not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": detail}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := middleware.GetUserID(r.Context())

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Content not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeCreated(w http.ResponseWriter, outcome *IngestOutcome) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": outcome}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeServiceError maps ingestion errors onto the response envelope. A
// ProcessingError carries the failed record back to the caller.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		ice *credits.InsufficientCreditsError
		sle *credits.SourceLimitError
		pe  *ProcessingError
	)

	switch {
	case errors.Is(err, ErrNotebookNotFound):
		h.writeError(ctx, w, "NOT_FOUND", "Notebook not found", http.StatusNotFound)
	case errors.Is(err, ErrTextTooShort):
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	case errors.Is(err, video.ErrInvalidURL):
		h.writeError(ctx, w, "VALIDATION_ERROR", "Invalid YouTube URL format", http.StatusBadRequest)
	case errors.Is(err, web.ErrSchemeNotSupported):
		h.writeError(ctx, w, "VALIDATION_ERROR", "Invalid URL format", http.StatusBadRequest)
	case errors.As(err, &ice):
		h.writeEnvelope(ctx, w, http.StatusBadRequest, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "INSUFFICIENT_CREDITS",
				"message": ice.Error(),
				"details": map[string]float64{
					"needed":    ice.Needed,
					"available": ice.Available,
				},
			},
		})
	case errors.As(err, &sle):
		h.writeError(ctx, w, "SOURCE_LIMIT_REACHED", sle.Error(), http.StatusBadRequest)
	case errors.As(err, &pe):
		h.writeEnvelope(ctx, w, http.StatusBadRequest, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "PROCESSING_FAILED",
				"message": pe.Error(),
			},
			"data": pe.Content,
		})
	default:
		slog.ErrorContext(ctx, "ingestion failed", "error", err)
		h.writeError(ctx, w, "BAD_REQUEST", err.Error(), http.StatusBadRequest)
	}
}

func (h *Handler) writeEnvelope(ctx context.Context, w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body["correlationId"] = middleware.GetCorrelationID(ctx)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	h.writeEnvelope(ctx, w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"docnest/internal/middleware"
)

type ContentRepo interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
	TotalChunks(ctx context.Context) (int, error)
}

type JobRepo interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	contentRepo ContentRepo
	jobRepo     JobRepo
}

func NewHandler(c ContentRepo, j JobRepo) *Handler {
	return &Handler{contentRepo: c, jobRepo: j}
}

type StatsResponse struct {
	Contents   map[string]int `json:"contents"`
	Chunks     int            `json:"chunks"`
	FailedJobs int            `json:"failed_jobs"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	byStatus, err := h.contentRepo.CountByStatus(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count contents", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count contents", http.StatusInternalServerError)
		return
	}

	chunks, err := h.contentRepo.TotalChunks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	jCount, err := h.jobRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count failed jobs", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count failed jobs", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Contents:   byStatus,
		Chunks:     chunks,
		FailedJobs: jCount,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

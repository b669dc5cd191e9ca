package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"docnest/internal/chat"
	"docnest/internal/credits"
	"docnest/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotebookID string   `json:"notebookId"`
		Query      string   `json:"query"`
		ContentIDs []string `json:"contentIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.NotebookID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Notebook ID is required", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Query is required", http.StatusBadRequest)
		return
	}
	if len(req.ContentIDs) == 0 {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "At least one content must be selected", http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserID(r.Context())
	result, err := h.service.Ask(r.Context(), userID, req.NotebookID, req.Query, req.ContentIDs)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": result}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		ice *credits.InsufficientCreditsError
		qe  *chat.QueryError
	)

	switch {
	case errors.Is(err, ErrNotebookNotFound):
		h.writeError(ctx, w, "NOT_FOUND", "Notebook not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidSelection):
		h.writeError(ctx, w, "VALIDATION_ERROR", "Some selected contents are invalid or not processed", http.StatusBadRequest)
	case errors.Is(err, chat.ErrEmptyQuery), errors.Is(err, chat.ErrNoSources):
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	case errors.As(err, &ice):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		body := map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "INSUFFICIENT_CREDITS",
				"message": ice.Error(),
				"details": map[string]float64{
					"needed":    ice.Needed,
					"available": ice.Available,
				},
			},
			"correlationId": middleware.GetCorrelationID(ctx),
		}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode error response", "error", err)
		}
	case errors.As(err, &qe):
		slog.ErrorContext(ctx, "query pipeline failed", "error", qe.Err)
		h.writeError(ctx, w, "QUERY_FAILED", qe.Error(), http.StatusInternalServerError)
	default:
		slog.ErrorContext(ctx, "chat request failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
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

package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"docnest/internal/middleware"
)

// FailureRecorder persists failed-ingestion audit records.
type FailureRecorder interface {
	Record(ctx context.Context, contentID, stage string, payload json.RawMessage, errMsg string) error
}

// LifecycleConsumer tails the content lifecycle topic and keeps an audit
// trail of failed ingestions. Completed events are logged and dropped.
type LifecycleConsumer struct {
	recorder FailureRecorder
}

func NewLifecycleConsumer(recorder FailureRecorder) *LifecycleConsumer {
	return &LifecycleConsumer{recorder: recorder}
}

func (h *LifecycleConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var event LifecycleEvent
	err := json.Unmarshal(m.Body, &event)

	correlationID := event.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	if err != nil {
		slog.ErrorContext(ctx, "invalid lifecycle message, dropping", "error", err)
		return nil
	}
	if event.ContentID == "" {
		slog.ErrorContext(ctx, "lifecycle event missing content id, dropping")
		return nil
	}

	if event.Status != "failed" {
		slog.DebugContext(ctx, "content lifecycle event",
			"content_id", event.ContentID, "status", event.Status)
		return nil
	}

	// Returning the error lets NSQ requeue; the audit record matters.
	if err := h.recorder.Record(ctx, event.ContentID, event.Stage, json.RawMessage(m.Body), event.Error); err != nil {
		slog.ErrorContext(ctx, "failed to record ingestion failure",
			"content_id", event.ContentID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "recorded ingestion failure",
		"content_id", event.ContentID, "stage", event.Stage)
	return nil
}

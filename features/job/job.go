package job

import (
	"encoding/json"
	"time"
)

// Job is a persisted record of one failed ingestion, captured off the
// lifecycle topic for later inspection.
type Job struct {
	ID        string          `json:"id"`
	ContentID string          `json:"content_id"`
	Stage     string          `json:"stage"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	CreatedAt time.Time       `json:"created_at"`
}

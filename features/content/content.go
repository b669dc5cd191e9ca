package content

import (
	"encoding/json"
	"time"
)

// Status lifecycle: every source starts processing and lands on exactly one
// terminal state. Failed records stay queryable so the user sees why.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const (
	TypeFile    = "file"
	TypeText    = "text"
	TypeURL     = "url"
	TypeYouTube = "youtube"
)

type Content struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	NotebookID     string          `json:"notebookId"`
	Title          string          `json:"title"`
	SourceType     string          `json:"sourceType"`
	SourceData     json.RawMessage `json:"sourceData"`
	ExtractedText  string          `json:"-"`
	Status         string          `json:"status"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	CollectionName string          `json:"collectionName,omitempty"`
	ChunkCount     int             `json:"chunkCount"`
	TokensUsed     int             `json:"tokensUsed"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

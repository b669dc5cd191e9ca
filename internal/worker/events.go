package worker

// LifecycleEvent is published on every terminal ingestion transition.
type LifecycleEvent struct {
	ContentID     string `json:"content_id"`
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	Stage         string `json:"stage,omitempty"`
	Error         string `json:"error,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

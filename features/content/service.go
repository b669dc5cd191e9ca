package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"docnest/internal/config"
	"docnest/internal/credits"
	"docnest/internal/embedding"
	"docnest/internal/middleware"
	"docnest/internal/text"
	"docnest/internal/video"
	"docnest/internal/web"
	"docnest/internal/worker"
)

var (
	ErrNotebookNotFound = errors.New("notebook not found")
	ErrTextTooShort     = errors.New("text is too short (minimum 10 characters)")
	ErrNotFound         = errors.New("content not found")
)

const minTextLength = 10

// ProcessingError means a content record exists in the failed state; the
// record rides along so handlers can return it to the caller.
type ProcessingError struct {
	Content *Content
	Stage   string
	Err     error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed at %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

type Repository interface {
	Create(ctx context.Context, c *Content) error
	Get(ctx context.Context, id, userID string) (*Content, error)
	ListByNotebook(ctx context.Context, notebookID, userID string) ([]Content, error)
	MarkCompleted(ctx context.Context, id, collection string, chunkCount, tokensUsed int) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	Delete(ctx context.Context, id string) error
}

type Ledger interface {
	AuthorizeIngest(ctx context.Context, userID string, estimatedCredits float64) error
	Settle(ctx context.Context, userID string, actualCredits float64) (float64, error)
	AddSource(ctx context.Context, userID string) error
	RemoveSource(ctx context.Context, userID string) error
}

type Gateway interface {
	Index(ctx context.Context, sourceID string, chunks []string, meta embedding.Meta) (*embedding.IndexResult, error)
	DeleteCollection(ctx context.Context, sourceID string) bool
}

type NotebookChecker interface {
	BelongsToUser(ctx context.Context, notebookID, userID string) (bool, error)
}

type Extractor interface {
	Supports(mimeType string) bool
	Extract(path, mimeType string) (string, error)
}

type WebLoader interface {
	Load(ctx context.Context, url string) (*web.Page, error)
}

type VideoLoader interface {
	Load(ctx context.Context, url string) (*video.Video, error)
}

type ChunkCounter interface {
	CountChunks(ctx context.Context, collection string) (int, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// IngestOutcome reports what one successful ingestion cost.
type IngestOutcome struct {
	Content         *Content `json:"content"`
	TokensUsed      int      `json:"tokensUsed"`
	ChunksCreated   int      `json:"chunksCreated"`
	CreditsDeducted float64  `json:"creditsDeducted"`
	CreditsBalance  float64  `json:"creditsRemaining"`
}

type Service struct {
	repo        Repository
	notebooks   NotebookChecker
	ledger      Ledger
	gateway     Gateway
	extractor   Extractor
	webLoader   WebLoader
	videoLoader VideoLoader
	counter     ChunkCounter
	pub         EventPublisher
	estimator   credits.Estimator
	chunkOpts   text.Options
}

func NewService(
	repo Repository,
	notebooks NotebookChecker,
	ledger Ledger,
	gateway Gateway,
	extractor Extractor,
	webLoader WebLoader,
	videoLoader VideoLoader,
	counter ChunkCounter,
	pub EventPublisher,
	estimator credits.Estimator,
	chunkOpts text.Options,
) *Service {
	return &Service{
		repo:        repo,
		notebooks:   notebooks,
		ledger:      ledger,
		gateway:     gateway,
		extractor:   extractor,
		webLoader:   webLoader,
		videoLoader: videoLoader,
		counter:     counter,
		pub:         pub,
		estimator:   estimator,
		chunkOpts:   chunkOpts,
	}
}

// AddText ingests pasted text verbatim.
func (s *Service) AddText(ctx context.Context, userID, notebookID, title, body string) (*IngestOutcome, error) {
	if len(body) < minTextLength {
		return nil, ErrTextTooShort
	}

	sourceData, _ := json.Marshal(map[string]interface{}{"text": body})
	return s.ingest(ctx, ingestInput{
		userID:     userID,
		notebookID: notebookID,
		title:      title,
		sourceType: TypeText,
		sourceData: sourceData,
		text:       body,
		meta:       embedding.TextMeta{Title: title},
	})
}

// SupportsUpload reports whether the extractor can read the MIME type.
func (s *Service) SupportsUpload(mimeType string) bool {
	return s.extractor.Supports(mimeType)
}

// UploadFile ingests a stored upload. Extraction runs before any record is
// created, so unreadable files leave nothing behind.
func (s *Service) UploadFile(ctx context.Context, userID, notebookID, title, path, originalName, mimeType string) (*IngestOutcome, error) {
	extracted, err := s.extractor.Extract(path, mimeType)
	if err != nil {
		return nil, fmt.Errorf("error processing document: %w", err)
	}

	if title == "" {
		title = originalName
	}

	sourceData, _ := json.Marshal(map[string]interface{}{
		"filename":     originalName,
		"filePath":     path,
		"originalName": originalName,
	})
	return s.ingest(ctx, ingestInput{
		userID:     userID,
		notebookID: notebookID,
		title:      title,
		sourceType: TypeFile,
		sourceData: sourceData,
		text:       extracted,
		meta:       embedding.FileMeta{Title: title, Filename: originalName},
	})
}

// AddURL scrapes a webpage and ingests its readable text.
func (s *Service) AddURL(ctx context.Context, userID, notebookID, title, url string) (*IngestOutcome, error) {
	page, err := s.webLoader.Load(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("error loading webpage: %w", err)
	}

	if title == "" {
		title = page.Title
	}

	sourceData, _ := json.Marshal(map[string]interface{}{
		"url":       url,
		"domain":    page.Domain,
		"scrapedAt": time.Now().UTC(),
	})
	return s.ingest(ctx, ingestInput{
		userID:     userID,
		notebookID: notebookID,
		title:      title,
		sourceType: TypeURL,
		sourceData: sourceData,
		text:       page.Content,
		meta:       embedding.URLMeta{Title: title, URL: url, Domain: page.Domain},
	})
}

// AddYouTube ingests a video transcript.
func (s *Service) AddYouTube(ctx context.Context, userID, notebookID, title, url string) (*IngestOutcome, error) {
	v, err := s.videoLoader.Load(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("error loading YouTube video: %w", err)
	}

	if title == "" {
		title = v.Title
	}

	sourceData, _ := json.Marshal(map[string]interface{}{
		"url":     v.VideoURL,
		"videoId": v.VideoID,
		"author":  v.Author,
	})
	return s.ingest(ctx, ingestInput{
		userID:     userID,
		notebookID: notebookID,
		title:      title,
		sourceType: TypeYouTube,
		sourceData: sourceData,
		text:       v.Transcript,
		meta:       embedding.VideoMeta{Title: title, VideoID: v.VideoID, VideoURL: v.VideoURL, Author: v.Author},
	})
}

type ingestInput struct {
	userID     string
	notebookID string
	title      string
	sourceType string
	sourceData json.RawMessage
	text       string
	meta       embedding.Meta
}

func (s *Service) ingest(ctx context.Context, in ingestInput) (*IngestOutcome, error) {
	owned, err := s.notebooks.BelongsToUser(ctx, in.notebookID, in.userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrNotebookNotFound
	}

	tokens := s.estimator.EstimateTokens(in.text)
	creditsNeeded := s.estimator.CalculateCredits(tokens)
	if err := s.ledger.AuthorizeIngest(ctx, in.userID, creditsNeeded); err != nil {
		return nil, err
	}

	c := &Content{
		UserID:        in.userID,
		NotebookID:    in.notebookID,
		Title:         in.title,
		SourceType:    in.sourceType,
		SourceData:    in.sourceData,
		ExtractedText: in.text,
		Status:        StatusProcessing,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	chunks, err := text.Split(in.text, s.chunkOpts)
	if err != nil {
		return nil, s.fail(ctx, c, "chunking", err)
	}

	res, err := s.gateway.Index(ctx, c.ID, chunks, in.meta)
	if err != nil {
		return nil, s.fail(ctx, c, "embedding", err)
	}

	if err := s.repo.MarkCompleted(ctx, c.ID, res.Collection, res.ChunkCount, tokens); err != nil {
		return nil, s.fail(ctx, c, "finalizing", err)
	}
	c.Status = StatusCompleted
	c.CollectionName = res.Collection
	c.ChunkCount = res.ChunkCount
	c.TokensUsed = tokens

	// The completed transition is only reported once billing lands: if
	// settlement or the counter increment fails, the record flips to failed
	// and the balance and counter end up unchanged.
	balance, err := s.ledger.Settle(ctx, in.userID, creditsNeeded)
	if err != nil {
		return nil, s.fail(ctx, c, "settlement", err)
	}
	if err := s.ledger.AddSource(ctx, in.userID); err != nil {
		if _, refundErr := s.ledger.Settle(ctx, in.userID, -creditsNeeded); refundErr != nil {
			slog.ErrorContext(ctx, "refund after counter failure also failed",
				"content_id", c.ID, "credits", creditsNeeded, "error", refundErr)
		}
		return nil, s.fail(ctx, c, "settlement", err)
	}

	s.publish(ctx, c, "completed", "")

	slog.InfoContext(ctx, "content ingested",
		"content_id", c.ID,
		"source_type", c.SourceType,
		"chunks", res.ChunkCount,
		"tokens", tokens,
		"credits", creditsNeeded)

	return &IngestOutcome{
		Content:         c,
		TokensUsed:      tokens,
		ChunksCreated:   res.ChunkCount,
		CreditsDeducted: creditsNeeded,
		CreditsBalance:  balance,
	}, nil
}

// fail marks the record failed with the cause verbatim and publishes the
// terminal event. A failed record never leaves a net charge or counter
// change behind.
func (s *Service) fail(ctx context.Context, c *Content, stage string, cause error) error {
	if err := s.repo.MarkFailed(ctx, c.ID, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to mark content as failed",
			"content_id", c.ID, "error", err)
	}
	c.Status = StatusFailed
	c.ErrorMessage = cause.Error()

	s.publish(ctx, c, "failed", stage)

	return &ProcessingError{Content: c, Stage: stage, Err: cause}
}

func (s *Service) publish(ctx context.Context, c *Content, status, stage string) {
	if s.pub == nil {
		return
	}
	payload, _ := json.Marshal(worker.LifecycleEvent{
		ContentID:     c.ID,
		UserID:        c.UserID,
		Status:        status,
		Stage:         stage,
		Error:         c.ErrorMessage,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicContentLifecycle, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish lifecycle event",
			"content_id", c.ID, "status", status, "error", err)
	}
}

// Detail is a content record plus the live object count from its collection.
type Detail struct {
	Content
	LiveChunks int `json:"liveChunks"`
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Detail, error) {
	c, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Content: *c, LiveChunks: c.ChunkCount}
	if c.Status == StatusCompleted && c.CollectionName != "" {
		if n, err := s.counter.CountChunks(ctx, c.CollectionName); err != nil {
			slog.WarnContext(ctx, "live chunk count unavailable",
				"content_id", id, "collection", c.CollectionName, "error", err)
		} else {
			detail.LiveChunks = n
		}
	}
	return detail, nil
}

func (s *Service) List(ctx context.Context, userID, notebookID string) ([]Content, error) {
	return s.repo.ListByNotebook(ctx, notebookID, userID)
}

// Delete runs a best-effort cleanup sequence: collection, backing file,
// record, counter. Individual failures are logged and the flow continues so
// a half-deleted source does not wedge.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	c, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if c.CollectionName != "" {
		s.gateway.DeleteCollection(ctx, c.ID)
	}

	if c.SourceType == TypeFile {
		var data struct {
			FilePath string `json:"filePath"`
		}
		if err := json.Unmarshal(c.SourceData, &data); err == nil && data.FilePath != "" {
			if err := os.Remove(data.FilePath); err != nil {
				slog.WarnContext(ctx, "upload file already deleted or missing",
					"content_id", id, "error", err)
			}
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.ledger.RemoveSource(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "source counter decrement failed",
			"content_id", id, "error", err)
	}

	return nil
}

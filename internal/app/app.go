package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"docnest/features/account"
	featchat "docnest/features/chat"
	"docnest/features/content"
	"docnest/features/job"
	"docnest/features/notebook"
	"docnest/features/stats"
	"docnest/internal/chat"
	"docnest/internal/config"
	"docnest/internal/credits"
	"docnest/internal/embedding"
	"docnest/internal/extract"
	"docnest/internal/middleware"
	"docnest/internal/retrieval"
	"docnest/internal/text"
	"docnest/internal/video"
	"docnest/internal/web"
	"docnest/internal/worker"
)

// Embedder and LLM are the model-side ports; the Gemini adapters satisfy
// them in production and mocks stand in for tests.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorStore is everything the app needs from the chunk store. The
// Weaviate adapter satisfies it.
type VectorStore interface {
	EnsureCollection(ctx context.Context, collection string) error
	UpsertObjects(ctx context.Context, collection string, objects []embedding.Object) error
	DeleteCollection(ctx context.Context, collection string) error
	SimilaritySearch(ctx context.Context, collection string, vector []float32, limit int) ([]retrieval.Result, error)
	CountChunks(ctx context.Context, collection string) (int, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler           http.Handler
	ContentService    *content.Service
	LifecycleConsumer *worker.LifecycleConsumer

	port int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	store VectorStore,
	embedder Embedder,
	llm LLM,
	pub EventPublisher,
) (*App, error) {
	estimator := credits.NewEstimator(cfg.CharsPerToken, cfg.TokensPerCredit)

	// Feature: Account (billing view + ledger backing)
	accountRepo := account.NewPostgresRepo(db)
	accountHandler := account.NewHandler(accountRepo)
	ledger := credits.NewLedger(accountRepo, cfg.MaxDataSources)

	// Feature: Notebook
	notebookRepo := notebook.NewPostgresRepo(db)
	notebookHandler := notebook.NewHandler(notebookRepo)

	// Feature: Content
	gateway := embedding.NewGateway(embedder, store)
	contentRepo := content.NewPostgresRepo(db)
	contentService := content.NewService(
		contentRepo, notebookRepo, ledger, gateway,
		extract.NewExtractor(), web.NewLoader(), video.NewLoader(),
		store, pub, estimator,
		text.Options{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap},
	)
	contentHandler := content.NewHandler(contentService, cfg.UploadDir, int(cfg.MaxUploadSizeMB))

	// Feature: Chat
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(embedder, store, queryLogger)
	composer := chat.NewComposer(retrievalService, llm, estimator, cfg.SearchLimitPerSource, cfg.SearchGlobalLimit)
	chatService := featchat.NewService(composer, contentRepo, notebookRepo, ledger, estimator)
	chatHandler := featchat.NewHandler(chatService)

	// Feature: Job + Stats
	jobRepo := job.NewPostgresRepo(db)
	jobHandler := job.NewHandler(jobRepo)
	statsHandler := stats.NewHandler(contentRepo, jobRepo)

	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Every route runs under correlation-id + identity middleware.
	route := func(h http.HandlerFunc) http.Handler {
		return middleware.CorrelationID(middleware.Identity(enableCORS(h)))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /notebooks", route(notebookHandler.Create))
	mux.Handle("GET /notebooks", route(notebookHandler.List))

	mux.Handle("POST /contents/text", route(contentHandler.AddText))
	mux.Handle("POST /contents/upload", route(contentHandler.Upload))
	mux.Handle("POST /contents/url", route(contentHandler.AddURL))
	mux.Handle("POST /contents/youtube", route(contentHandler.AddYouTube))
	mux.Handle("GET /contents", route(contentHandler.List))
	mux.Handle("GET /contents/{id}", route(contentHandler.Get))
	mux.Handle("DELETE /contents/{id}", route(contentHandler.Delete))

	mux.Handle("POST /chat", route(chatHandler.Ask))

	mux.Handle("GET /account", route(accountHandler.Get))

	mux.Handle("GET /jobs/failed", route(jobHandler.List))
	mux.Handle("DELETE /jobs/failed/{id}", route(jobHandler.Dismiss))

	mux.Handle("GET /stats", route(statsHandler.GetStats))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:           mux,
		ContentService:    contentService,
		LifecycleConsumer: worker.NewLifecycleConsumer(jobRepo),
		port:              cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

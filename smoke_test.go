//go:build integration

package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	wstore "docnest/internal/adapter/weaviate"
	"docnest/internal/app"
	"docnest/internal/config"
	"docnest/internal/testutils"
)

type smokeEmbedder struct{}

func (smokeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type smokeLLM struct{}

func (smokeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return "smoke answer", nil
}

// TestSmoke_Startup wires the app against real Postgres, Weaviate, and NSQ
// containers and verifies it comes up healthy.
func TestSmoke_Startup(t *testing.T) {
	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	cfg := &config.Config{
		ChunkSize:            1000,
		ChunkOverlap:         200,
		CharsPerToken:        4,
		TokensPerCredit:      1000,
		MaxDataSources:       20,
		SearchLimitPerSource: 5,
		SearchGlobalLimit:    5,
		ServerPort:           8099,
		QueryLogPath:         t.TempDir() + "/query.log",
		UploadDir:            t.TempDir(),
		MaxUploadSizeMB:      50,
	}

	a, err := app.New(cfg, suite.DB, wstore.NewStore(suite.Weaviate), smokeEmbedder{}, smokeLLM{}, suite.NSQ)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := a.Run(ctx); err != nil {
			t.Logf("app run exited: %v", err)
		}
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://localhost:8099/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 250*time.Millisecond)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBHost)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.CharsPerToken)
	assert.Equal(t, 1000, cfg.TokensPerCredit)
	assert.Equal(t, 20, cfg.MaxDataSources)
	assert.Equal(t, 8081, cfg.ServerPort)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "512")
	t.Setenv("TOKENS_PER_CREDIT", "500")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, 500, cfg.TokensPerCredit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Valid", func(c *Config) {}, false},
		{"Missing DBHost", func(c *Config) { c.DBHost = "" }, true},
		{"Missing DBUser", func(c *Config) { c.DBUser = "" }, true},
		{"Missing DBName", func(c *Config) { c.DBName = "" }, true},
		{"Zero ChunkSize", func(c *Config) { c.ChunkSize = 0 }, true},
		{"Overlap Exceeds Size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, true},
		{"Negative Overlap", func(c *Config) { c.ChunkOverlap = -1 }, true},
		{"Zero TokensPerCredit", func(c *Config) { c.TokensPerCredit = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			assert.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingRequired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

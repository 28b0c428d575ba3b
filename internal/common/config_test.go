package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ragbot.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 500, config.Chunking.Size)
	assert.Equal(t, 50, config.Chunking.Overlap)
	assert.Equal(t, 4, config.Retrieval.TopK)
	assert.Equal(t, "vectorstore", config.Index.Path)
	assert.Equal(t, LLMProviderGemini, config.LLM.Provider)
	require.NoError(t, config.Validate())
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	first := writeConfig(t, `
[server]
port = 6000

[retrieval]
top_k = 6
`)
	second := writeConfig(t, `
[retrieval]
top_k = 8

[embedding]
provider = "hashing"
dimension = 256
`)

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)

	assert.Equal(t, 6000, config.Server.Port)
	assert.Equal(t, 8, config.Retrieval.TopK)
	assert.Equal(t, "hashing", config.Embedding.Provider)
	assert.Equal(t, 256, config.Embedding.Dimension)
	assert.Equal(t, 500, config.Chunking.Size)
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 6000
`)
	t.Setenv("RAGBOT_SERVER_PORT", "7000")
	t.Setenv("RAGBOT_TOP_K", "2")
	t.Setenv("RAGBOT_LOG_OUTPUT", "stdout,file")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, config.Server.Port)
	assert.Equal(t, 2, config.Retrieval.TopK)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
}

func TestLoadFromFiles_Errors(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFromFiles(writeConfig(t, "[server\nport ="))
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 5000, config.Server.Port)

	ApplyFlagOverrides(config, 9000, "0.0.0.0")
	ApplyPathOverrides(config, "other.txt", "other-index")
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, "other.txt", config.Corpus.Path)
	assert.Equal(t, "other-index", config.Index.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"overlap not smaller than size", func(c *Config) { c.Chunking.Overlap = 500 }},
		{"unknown chunk strategy", func(c *Config) { c.Chunking.Strategy = "sentences" }},
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "cohere" }},
		{"unknown llm provider", func(c *Config) { c.LLM.Provider = "mistral" }},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bad timeout", func(c *Config) { c.LLM.Timeout = "soon" }},
		{"bad rate limit", func(c *Config) { c.Embedding.RateLimit = "fast" }},
		{"bad schedule", func(c *Config) { c.Index.Schedule = "every tuesday" }},
		{"empty index path", func(c *Config) { c.Index.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}

	config := NewDefaultConfig()
	config.Index.Schedule = "0 3 * * *"
	assert.NoError(t, config.Validate())
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, Duration("5s", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("nonsense", time.Minute))
}

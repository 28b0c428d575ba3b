package common

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor/models"
)

func TestNewIndexID(t *testing.T) {
	a, b := NewIndexID(), NewIndexID()
	assert.True(t, strings.HasPrefix(a, "idx_"))
	assert.Len(t, a, len("idx_")+36)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(NewRequestID(), "req_"))
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	InstallCrashHandler(t.TempDir())
	defer func() { CrashLogDir = "./logs" }()

	done := make(chan struct{})
	SafeGo(NewSilentLogger(), "panicker", func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine did not run")
	}

	require.Eventually(t, func() bool {
		entries, _ := os.ReadDir(CrashLogDir)
		return len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entries, err := os.ReadDir(CrashLogDir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(CrashLogDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "RAGBOT CRASH REPORT")
	assert.Contains(t, string(data), "boom")
}

func TestConfigPaths(t *testing.T) {
	var paths ConfigPaths
	require.NoError(t, paths.Set("a.toml"))
	require.NoError(t, paths.Set("b.toml"))
	assert.Equal(t, []string{"a.toml", "b.toml"}, DiscoverConfigFiles(paths))
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("RAGBOT_CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	key, err := ResolveAPIKey("claude", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	t.Setenv("ANTHROPIC_API_KEY", "")
	key, err = ResolveAPIKey("claude", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	_, err = ResolveAPIKey("claude", "")
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestNewSilentLogger(t *testing.T) {
	logger := NewSilentLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Info().Str("corpus", "data/corpus.txt").Msg("dropped")
		logger.Error().Err(errors.New("boom")).Msg("dropped")
	})
}

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, models.OutputFormatJSON, outputFormat("json"))
	assert.Equal(t, models.OutputFormatLogfmt, outputFormat("text"))
	assert.Equal(t, models.OutputFormatLogfmt, outputFormat(""))
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mineclover/depgraph/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("DEPGRAPH_STORAGE_ENGINE", "badger")
	t.Setenv("DEPGRAPH_STORAGE_DATA_DIR", "/tmp/depgraph")
	t.Setenv("DEPGRAPH_LOG_LEVEL", "debug")

	cfg := config.LoadFromEnv()
	assert.Equal(t, "badger", cfg.Storage.Engine)
	assert.Equal(t, "/tmp/depgraph", cfg.Storage.DataDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadgerWithoutDataDir(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Engine = "badger"
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsUnknownEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Engine = "sqlite"
	require.Error(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "depgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  engine: memory\nlogging:\n  level: warn\n"), 0o644))

	cfg, err := config.LoadFromYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Engine)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
	assert.Contains(t, cfg.Companies, "NVDA")
	assert.Len(t, cfg.RequiredMetrics, 3)
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: 500\ntop_k: 3\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 200, cfg.ChunkOverlap, "unset fields keep their defaults")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: [not an int"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFilingsDirCreatesDirectory(t *testing.T) {
	cfg := Default()
	cfg.DataDir = t.TempDir()

	dir, err := cfg.FilingsDir()
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

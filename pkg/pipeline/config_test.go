package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "musixtex", cfg.Typesetter)
	assert.Equal(t, "bibtex", cfg.Bibliography)
	assert.Equal(t, "main", cfg.Main)
	assert.Equal(t, "singleDev", cfg.Single)
	assert.Equal(t, "out.pdf", cfg.Output)
	assert.Equal(t, "content", cfg.Content)
	assert.Contains(t, cfg.CleanGlobs, "*.aux")
	assert.Contains(t, cfg.CleanGlobs, "*.mx1")
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`
typesetter: pdflatex
output: songbook.pdf
`), 0660))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "pdflatex", cfg.Typesetter)
	assert.Equal(t, "songbook.pdf", cfg.Output)
	// omitted keys keep their defaults
	assert.Equal(t, "bibtex", cfg.Bibliography)
	assert.Equal(t, "main", cfg.Main)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0660))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

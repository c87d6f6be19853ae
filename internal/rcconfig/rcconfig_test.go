package rcconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.jsonc"))
	require.NoError(t, err)
	assert.Equal(t, defaultHistoryLimit, cfg.HistoryLimit)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultHistoryLimit, cfg.HistoryLimit)
}

func TestLoadParsesJSONWithComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rillrc.jsonc")
	content := `{
  // seed environment for new shells
  "env": {"EDITOR": "vi"},
  "aliases": {"ll": "ls -la"},
  "prompt": "rill> ",
  "historyLimit": 50
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vi", cfg.Env["EDITOR"])
	assert.Equal(t, "ls -la", cfg.Aliases["ll"])
	assert.Equal(t, "rill> ", cfg.Prompt)
	assert.Equal(t, 50, cfg.HistoryLimit)
}

func TestLoadMalformedFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rillrc.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{ not json"), 0o600))

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, defaultHistoryLimit, cfg.HistoryLimit, "a malformed rc file still yields usable defaults")
}

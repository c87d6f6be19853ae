package builtin

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEcho(t *testing.T) {
	var out bytes.Buffer
	code := RunChildSafe("echo", []string{"hello", "world"}, nil, &out, nil)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello world\n", out.String())
}

func TestRunPwd(t *testing.T) {
	var out, errOut bytes.Buffer
	code := RunChildSafe("pwd", nil, nil, &out, &errOut)
	require.Equal(t, 0, code)
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd+"\n", out.String())
}

func TestRunCatConcatenatesFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("one\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("two\n"), 0o600))

	var out bytes.Buffer
	code := RunChildSafe("cat", []string{a, b}, nil, &out, &bytes.Buffer{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "one\ntwo\n", out.String())
}

func TestRunCatFromStdinWhenNoArgs(t *testing.T) {
	var out bytes.Buffer
	code := RunChildSafe("cat", nil, strings.NewReader("piped\n"), &out, &bytes.Buffer{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "piped\n", out.String())
}

func TestRunLsFiltersWithIgnorePattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.go"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.tmp"), nil, 0o600))

	var out bytes.Buffer
	code := RunChildSafe("ls", []string{"-I", "*.tmp", dir}, nil, &out, &bytes.Buffer{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "keep.go\n", out.String())
}

func TestRunLsMissingIgnorePatternErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	code := RunChildSafe("ls", []string{"-I"}, nil, &out, &errOut)
	assert.Equal(t, 1, code)
}

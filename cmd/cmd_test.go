package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "reactus")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized reactus project")

	_, err = os.Stat(filepath.Join(dir, ".reactus.yml"))
	assert.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, ".reactus", "client"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInitCommand_ExistingConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".reactus.yml"), []byte("mode: production\n"), 0o644))

	_, err := execute(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestBuildCommand_RequiresEntries(t *testing.T) {
	_, err := execute(t, "build")
	require.Error(t, err)
}

func TestBuildCommand_WithoutBundlerRuntime(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))

	_, err := execute(t, "build", "--cwd", dir, "@/pages/home.tsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entries failed")
}

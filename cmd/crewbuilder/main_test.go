package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewbuilder/internal/pipeline"
)

func run(t *testing.T, cmdArgs ...string) (string, error) {
	t.Helper()
	t.Setenv("ORACLE_PROVIDER", "none")
	t.Setenv("BUNDLE_STORE", "")
	cmd := newSynthesizeCommand()
	switch cmdArgs[0] {
	case "catalog":
		cmd = newCatalogCommand()
	case "show":
		cmd = newShowCommand()
	}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(cmdArgs[1:])
	err := cmd.Execute()
	return out.String(), err
}

func TestSynthesizeAndShow(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "synthesize", "--out", dir, "--json", "Write weekly blog posts")
	require.NoError(t, err)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, pipeline.StatusCompleted, res.Status)
	assert.FileExists(t, filepath.Join(dir, res.RunID, "crew", "main.py"))

	listing, err := run(t, "show", "--out", dir, res.RunID)
	require.NoError(t, err)
	assert.Contains(t, listing, "crew/main.py")
	assert.Contains(t, listing, "file://")

	readme, err := run(t, "show", "--out", dir, res.RunID, "docs/README.md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(readme, "# "))
}

func TestSynthesizeFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "req.txt")
	require.NoError(t, os.WriteFile(path, []byte("Answer customer support tickets"), 0o644))
	out, err := run(t, "synthesize", "--store", "memory", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, ": completed (assembled)")
	assert.Contains(t, out, "Integration order:")
}

func TestSynthesizeRejectsBlank(t *testing.T) {
	out, err := run(t, "synthesize", "--store", "memory", "--text", "   ")
	require.Error(t, err)
	assert.Contains(t, out, "failed")

	_, err = run(t, "synthesize", "--store", "memory")
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	out, err := run(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "catalog 2024.06")
	assert.Contains(t, out, "Tavily Search API")
}

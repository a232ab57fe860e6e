package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_BundledContent(t *testing.T) {
	var out bytes.Buffer
	root := filepath.Join("..", "..", "content")
	require.NoError(t, check(&out, filepath.Join(root, "tiers.yaml"), filepath.Join(root, "arena.yaml")))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "level 1: recruit"))
	assert.True(t, strings.HasPrefix(lines[5], "arena warehouse"))
}

func TestCheck_InvalidTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers:\n  - id: x\n    turn_rate: 0\n"), 0644))
	err := check(&bytes.Buffer{}, path, filepath.Join("..", "..", "content", "arena.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turn_rate")
}

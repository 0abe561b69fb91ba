package planner_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crucible-build/crucible/planner"
)

func TestStageDependenciesCopiesIncludeTree(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "util"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "util", "util.h"), []byte("#pragma once\n"), 0o644))

	sandboxRoot := t.TempDir()
	dest, err := planner.StageDependencies(sandboxRoot, "core", []string{src})
	require.NoError(t, err)

	staged := filepath.Join(dest, filepath.Base(src), "util", "util.h")
	data, err := os.ReadFile(staged)
	require.NoError(t, err)
	require.Equal(t, "#pragma once\n", string(data))
}

func TestStageDependenciesClearsStaleCopy(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "new.h"), []byte("new\n"), 0o644))

	sandboxRoot := t.TempDir()
	stalePath := filepath.Join(sandboxRoot, "core", "include", filepath.Base(src), "stale.h")
	require.NoError(t, os.MkdirAll(filepath.Dir(stalePath), 0o755))
	require.NoError(t, os.WriteFile(stalePath, []byte("stale\n"), 0o644))

	_, err := planner.StageDependencies(sandboxRoot, "core", []string{src})
	require.NoError(t, err)

	_, statErr := os.Stat(stalePath)
	require.True(t, os.IsNotExist(statErr), "stale file should have been removed before restaging")
}

package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-build/crucible/manifest"
)

func writeProjectManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crucible.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadProjectManifestValid(t *testing.T) {
	path := writeProjectManifest(t, `{
		"name": "widgets",
		"dependencies": ["libc@1.0.0", "core@2.0.0"],
		"source_dirs": ["src", "lib"]
	}`)

	m, err := manifest.LoadProjectManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "widgets", m.Name)
	assert.Equal(t, []string{"libc@1.0.0", "core@2.0.0"}, m.Dependencies)
	assert.Equal(t, []string{"src", "lib"}, m.SourceDirs)
}

func TestLoadProjectManifestMissingFile(t *testing.T) {
	_, err := manifest.LoadProjectManifest(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadProjectManifestInvalidJSON(t *testing.T) {
	path := writeProjectManifest(t, `{ not json`)
	_, err := manifest.LoadProjectManifest(path)
	assert.Error(t, err)
}

func TestLoadProjectManifestMissingNameAndSourceDirs(t *testing.T) {
	path := writeProjectManifest(t, `{"dependencies": []}`)
	_, err := manifest.LoadProjectManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "source_dirs")
}

func TestLoadProjectManifestEmptyDependencyEntry(t *testing.T) {
	path := writeProjectManifest(t, `{
		"name": "widgets",
		"dependencies": ["libc@1.0.0", ""],
		"source_dirs": ["src"]
	}`)
	_, err := manifest.LoadProjectManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependencies[1]")
}

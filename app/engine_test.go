package app_test

import (
	"archive/tar"
	"compress/gzip"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-build/crucible/app"
	"github.com/crucible-build/crucible/cache"
	"github.com/crucible-build/crucible/db"
	"github.com/crucible-build/crucible/index"
	"github.com/crucible-build/crucible/model"
	"github.com/crucible-build/crucible/toolchain"
)

// buildSdistForEngine tars srcDir's tree into a gzip'd archive, the
// same shape repo-import consumes, for Resolve's end-to-end test.
func buildSdistForEngine(t *testing.T, srcDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sdist.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	require.NoError(t, filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		body, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := tw.WriteHeader(&tar.Header{Name: rel, Mode: 0o644, Size: int64(len(body))}); err != nil {
			return err
		}
		_, err = tw.Write(body)
		return err
	}))
	return path
}

func testToolchain() *toolchain.Toolchain {
	return toolchain.Realize(toolchain.Prep{
		CCompile:        []string{"gcc"},
		ObjectSuffix:    ".o",
		ArchivePrefix:   "lib",
		ArchiveSuffix:   ".a",
		DepsMode:        toolchain.DepsGNUMakefile,
		SourceTypeFlags: map[toolchain.LanguageKind][]string{},
	}, func(string) (string, bool) { return "", false })
}

// newTestEngine builds an Engine by hand (bypassing app.New and
// Engine.Open, which would require a toolchain file on disk) with a fresh fingerprint
// store, candidate cache, and package index all rooted under t.TempDir.
func newTestEngine(t *testing.T) *app.Engine {
	t.Helper()

	store, err := db.Open(filepath.Join(t.TempDir(), "fingerprint.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	candidateCache, err := cache.Open(filepath.Join(t.TempDir(), "candidates.bbolt"))
	require.NoError(t, err)
	t.Cleanup(func() { candidateCache.Close() })

	idx, err := index.Init(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)

	return &app.Engine{
		Options: app.Options{
			OutputDir: filepath.Join(t.TempDir(), "out"),
		},
		Toolchain: testToolchain(),
		Registry:  model.NewRegistry(),
		Index:     idx,
		Store:     store,
		Cache:     candidateCache,
	}
}

func writeProjectManifest(t *testing.T, dir string, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "crucible.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func writeLocalPackage(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "include"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.yml"), []byte(`
name: app
version: 1.0.0
libraries:
  - name: core
    namespace: app
    include_roots:
      - include
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "include", "core.h"), []byte("#pragma once\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "core.c"), []byte("int core(void) { return 0; }\n"), 0o644))
}

func TestLoadProjectRegistersLocalPackages(t *testing.T) {
	e := newTestEngine(t)
	root := t.TempDir()

	pkgDir := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	writeLocalPackage(t, pkgDir)

	manifestPath := writeProjectManifest(t, root, `{"name": "demo", "source_dirs": ["app"]}`)
	e.Options.ProjectManifest = manifestPath

	require.NoError(t, e.LoadProject())
	require.Len(t, e.Registry.LocalPackages(), 1)
	assert.Equal(t, "app", e.Registry.LocalPackages()[0].Identity.Name)
}

func TestLoadProjectRejectsMissingManifest(t *testing.T) {
	e := newTestEngine(t)
	e.Options.ProjectManifest = filepath.Join(t.TempDir(), "missing.json")
	assert.Error(t, e.LoadProject())
}

func TestResolveRegistersPinnedRemotePackages(t *testing.T) {
	e := newTestEngine(t)
	root := t.TempDir()

	libDir := filepath.Join(root, "libc-src")
	require.NoError(t, os.MkdirAll(filepath.Join(libDir, "include"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "package.yml"), []byte(`
name: libc
version: 1.2.0
libraries:
  - name: libc
    namespace: libc
    include_roots:
      - include
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "include", "libc.h"), []byte("#pragma once\n"), 0o644))

	sdist := buildSdistForEngine(t, libDir)
	_, err := e.Index.Import(sdist)
	require.NoError(t, err)

	pkgDir := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	writeLocalPackage(t, pkgDir)

	manifestPath := writeProjectManifest(t, root, `{"name": "demo", "dependencies": ["libc@1.2.0"], "source_dirs": ["app"]}`)
	e.Options.ProjectManifest = manifestPath
	require.NoError(t, e.LoadProject())

	pinned, err := e.Resolve()
	require.NoError(t, err)
	require.Contains(t, pinned, "libc")
	assert.Equal(t, "1.2.0", pinned["libc"].ID.Version.String())
	assert.Len(t, e.Registry.RemotePackages(), 1)
}

func TestPlanProducesNonEmptyBuildPlan(t *testing.T) {
	e := newTestEngine(t)
	root := t.TempDir()

	pkgDir := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	writeLocalPackage(t, pkgDir)

	manifestPath := writeProjectManifest(t, root, `{"name": "demo", "source_dirs": ["app"]}`)
	e.Options.ProjectManifest = manifestPath
	require.NoError(t, e.LoadProject())

	plan, diags, err := e.Plan(nil)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, plan.Packages, 1)
	assert.NotEmpty(t, plan.Packages[0].Libraries)
}

func TestEmitCompileCommandsBeforePlanFails(t *testing.T) {
	e := newTestEngine(t)
	err := e.EmitCompileCommands(nil, filepath.Join(t.TempDir(), "compile_commands.json"))
	assert.Error(t, err)
}

package model_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-build/crucible/model"
)

const examplePackageYML = `
name: widgets
version: 1.4.0
revision: 2
license:
  - LICENSE
libraries:
  - name: core
    namespace: widgets
    include_roots:
      - include
    link_inputs:
      - lib/libcore.a
  - name: gui
    namespace: widgets
    include_roots:
      - gui/include
    uses:
      - widgets/core
`

func TestLoadPackageDirectory(t *testing.T) {
	dir, err := ioutil.TempDir("", "crucible-pkg")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "package.yml"), []byte(examplePackageYML), 0o644))

	pkg, err := model.LoadPackageDirectory(dir)
	require.NoError(t, err)

	assert.Equal(t, "widgets", pkg.Identity.Name)
	assert.Equal(t, "1.4.0", pkg.Identity.Version.String())
	assert.Equal(t, 2, pkg.Identity.Revision)
	require.Len(t, pkg.Libraries, 2)

	core := pkg.Libraries[0]
	assert.Equal(t, "widgets", core.Identity.Namespace)
	assert.Equal(t, filepath.Join(dir, "include"), core.Usage.IncludeRoots[0])

	gui := pkg.Libraries[1]
	require.Len(t, gui.Usage.Uses, 1)
	assert.Equal(t, "core", gui.Usage.Uses[0].Name)
}

func TestLoadPackageDirectoryMissingManifest(t *testing.T) {
	dir, err := ioutil.TempDir("", "crucible-pkg-empty")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	_, err = model.LoadPackageDirectory(dir)
	assert.Error(t, err)
}

const packageYMLWithSourceRoot = `
name: widgets
version: 1.0.0
libraries:
  - name: core
    namespace: widgets
    include_roots:
      - src/include
    source_root: src
`

func TestLoadPackageDirectoryScansSourceRoot(t *testing.T) {
	dir, err := ioutil.TempDir("", "crucible-pkg-src")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "package.yml"), []byte(packageYMLWithSourceRoot), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "include"), 0o755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "src", "include", "core.h"), []byte("#pragma once\n"), 0o644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "src", "core.c"), []byte("int x;\n"), 0o644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "src", "core.test.c"), []byte("int main(){}\n"), 0o644))

	pkg, err := model.LoadPackageDirectory(dir)
	require.NoError(t, err)
	require.Len(t, pkg.Libraries, 1)

	sources := pkg.Libraries[0].Sources
	require.Len(t, sources, 3)

	byBasis := map[string]model.SourceKind{}
	for _, s := range sources {
		byBasis[s.BasisPath] = s.Kind
	}
	assert.Equal(t, model.KindHeader, byBasis["include/core.h"])
	assert.Equal(t, model.KindSource, byBasis["core.c"])
	assert.Equal(t, model.KindTest, byBasis["core.test.c"])
}

func TestLoadPackageDirectoryWithoutSourceRootLeavesSourcesEmpty(t *testing.T) {
	dir, err := ioutil.TempDir("", "crucible-pkg-headeronly")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "package.yml"), []byte(examplePackageYML), 0o644))

	pkg, err := model.LoadPackageDirectory(dir)
	require.NoError(t, err)
	assert.Empty(t, pkg.Libraries[0].Sources)
}

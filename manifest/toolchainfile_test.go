package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-build/crucible/manifest"
	"github.com/crucible-build/crucible/toolchain"
)

const sampleToolchainTOML = `
c_compile = ["cc", "-c", "<SRC>", "-o", "<OUT>"]
cxx_compile = ["c++", "-c", "<SRC>", "-o", "<OUT>"]

include_template = ["-I<PATH>"]
external_include_template = ["-isystem", "<PATH>"]
define_template = ["-D<DEF>"]

link_archive_template = ["ar", "rcs", "<OUT>", "<OBJS>"]
link_exe_template = ["cc", "<OBJS>", "-o", "<OUT>"]

warning_flags = ["-Wall", "-Wextra"]
tty_flags = ["-fdiagnostics-color=always"]
syntax_only_flags = ["-fsyntax-only"]

object_prefix = ""
object_suffix = ".o"
archive_prefix = "lib"
archive_suffix = ".a"
exe_prefix = ""
exe_suffix = ""

deps_mode = "gnu-makefile"
consider_envs = ["CC", "CFLAGS"]

[source_type_flags]
c = ["-std=c11"]
cxx = ["-std=c++17"]
`

func writeToolchainFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "default.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadToolchainFileRealizesPrep(t *testing.T) {
	path := writeToolchainFile(t, sampleToolchainTOML)

	t.Setenv("CC", "clang")
	tc, err := manifest.LoadToolchainFile(path)
	require.NoError(t, err)

	assert.Equal(t, toolchain.DepsGNUMakefile, tc.DepsMode())
	assert.Equal(t, "lib"+"core"+".a", tc.ArchivePath("core"))
	assert.Equal(t, ".a", tc.ArchiveSuffix())
	assert.NotZero(t, tc.Hash())
}

func TestLoadToolchainFileHashChangesWithConsideredEnv(t *testing.T) {
	path := writeToolchainFile(t, sampleToolchainTOML)

	t.Setenv("CC", "gcc")
	first, err := manifest.LoadToolchainFile(path)
	require.NoError(t, err)

	t.Setenv("CC", "clang")
	second, err := manifest.LoadToolchainFile(path)
	require.NoError(t, err)

	assert.NotEqual(t, first.Hash(), second.Hash())
}

func TestLoadToolchainFileDefaultsDepsModeToNone(t *testing.T) {
	path := writeToolchainFile(t, `
c_compile = ["cc", "-c", "<SRC>", "-o", "<OUT>"]
object_suffix = ".o"
`)
	tc, err := manifest.LoadToolchainFile(path)
	require.NoError(t, err)
	assert.Equal(t, toolchain.DepsNone, tc.DepsMode())
}

func TestLoadToolchainFileRejectsUnknownDepsMode(t *testing.T) {
	path := writeToolchainFile(t, `deps_mode = "bogus"`)
	_, err := manifest.LoadToolchainFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deps_mode")
}

func TestLoadToolchainFileRejectsUnknownSourceTypeLanguage(t *testing.T) {
	path := writeToolchainFile(t, `
[source_type_flags]
fortran = ["-ffree-form"]
`)
	_, err := manifest.LoadToolchainFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fortran")
}

func TestLoadToolchainFileMissingFile(t *testing.T) {
	_, err := manifest.LoadToolchainFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

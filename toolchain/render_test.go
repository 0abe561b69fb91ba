package toolchain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crucible-build/crucible/toolchain"
)

func gccPrep() toolchain.Prep {
	return toolchain.Prep{
		CCompile:                []string{"gcc", "-c"},
		CxxCompile:              []string{"g++", "-std=c++17", "-c"},
		IncludeTemplate:         []string{"-I<PATH>"},
		ExternalIncludeTemplate: []string{"-isystem", "<PATH>"},
		DefineTemplate:          []string{"-D<DEF>"},
		WarningFlags:            []string{"-Wall"},
		SourceTypeFlags: map[toolchain.LanguageKind][]string{
			toolchain.LanguageCXX: {"-x", "c++"},
		},
		SyntaxOnlyFlags: []string{"-fsyntax-only"},
		LinkArchiveTemplate: []string{"ar", "rcs"},
		LinkExeTemplate:     []string{"g++", "-o"},
	}
}

func TestRenderCompileBasic(t *testing.T) {
	tc := toolchain.Realize(gccPrep(), func(string) (string, bool) { return "", false })
	cmd := tc.RenderCompile(toolchain.CompileRequest{
		Source:       "a.c",
		IncludeRoots: []string{"/inc"},
		Defines:      map[string]string{"FOO": "1"},
		Language:     toolchain.LanguageC,
		ObjectPath:   "a.o",
	})
	assert.Equal(t, []string{"gcc", "-c", "-I/inc", "-DFOO=1", "a.c", "a.o"}, cmd)
}

func TestRenderCompileCXXWithWarningsAndSyntaxOnly(t *testing.T) {
	tc := toolchain.Realize(gccPrep(), func(string) (string, bool) { return "", false })
	cmd := tc.RenderCompile(toolchain.CompileRequest{
		Source:     "a.cpp",
		Language:   toolchain.LanguageCXX,
		WarningsOn: true,
		SyntaxOnly: true,
		ObjectPath: "a.o",
	})
	assert.Equal(t, []string{"g++", "-std=c++17", "-c", "-Wall", "-x", "c++", "-fsyntax-only", "a.cpp", "a.o"}, cmd)
}

func TestRenderArchive(t *testing.T) {
	tc := toolchain.Realize(gccPrep(), func(string) (string, bool) { return "", false })
	cmd := tc.RenderArchive(toolchain.ArchiveRequest{ObjectPaths: []string{"a.o", "b.o"}, OutputPath: "libx.a"})
	assert.Equal(t, []string{"ar", "rcs", "libx.a", "a.o", "b.o"}, cmd)
}

func TestRenderLink(t *testing.T) {
	tc := toolchain.Realize(gccPrep(), func(string) (string, bool) { return "", false })
	cmd := tc.RenderLink(toolchain.LinkRequest{
		EntryObject:   "main.o",
		ArchiveInputs: []string{"libx.a"},
		RuntimeInputs: []string{"-lpthread"},
		OutputPath:    "app",
	})
	assert.Equal(t, []string{"g++", "-o", "main.o", "libx.a", "-lpthread", "app"}, cmd)
}

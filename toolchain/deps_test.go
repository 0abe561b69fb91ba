package toolchain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crucible-build/crucible/toolchain"
)

func TestParseGNUMakefileReport(t *testing.T) {
	raw := "foo.o: bar.c \\\n baz.c"
	report := toolchain.ParseDependencyReport(toolchain.DepsGNUMakefile, "foo.c", raw, "")
	assert.Equal(t, "foo.o", report.Target)
	assert.Equal(t, []string{"bar.c", "baz.c"}, report.Inputs)
}

func TestParseGNUMakefileMalformed(t *testing.T) {
	report := toolchain.ParseDependencyReport(toolchain.DepsGNUMakefile, "foo.c", "foo.c", "")
	assert.Empty(t, report.Target)
	assert.Empty(t, report.Inputs)
}

func TestParseMSVCPrefix(t *testing.T) {
	raw := "Note: including file: C:\\inc\\a.h\nsome other output\nNote: including file:  C:\\inc\\b.h\n"
	report := toolchain.ParseDependencyReport(toolchain.DepsMSVCPrefix, "foo.cpp", raw, "Note: including file:")
	assert.Equal(t, []string{`C:\inc\a.h`, `C:\inc\b.h`}, report.Inputs)
	assert.Contains(t, report.CleanedOutput, "some other output")
	assert.NotContains(t, report.CleanedOutput, "including file")
}

func TestParseNoneModeRecordsSourceOnly(t *testing.T) {
	report := toolchain.ParseDependencyReport(toolchain.DepsNone, "foo.cpp", "anything", "")
	assert.Equal(t, []string{"foo.cpp"}, report.Inputs)
}

package manifest

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/crucible-build/crucible/errctx"
	"github.com/crucible-build/crucible/toolchain"
)

// toolchainFile is the on-disk TOML shape of a per-user toolchain
// definition under ~/.crucible/toolchains/*.toml. Field names mirror
// toolchain.Prep directly; the source_type_flags table is keyed by
// language ("c", "cxx").
type toolchainFile struct {
	CCompile   []string `toml:"c_compile"`
	CxxCompile []string `toml:"cxx_compile"`

	IncludeTemplate         []string `toml:"include_template"`
	ExternalIncludeTemplate []string `toml:"external_include_template"`
	DefineTemplate          []string `toml:"define_template"`

	LinkArchiveTemplate []string `toml:"link_archive_template"`
	LinkExeTemplate     []string `toml:"link_exe_template"`

	WarningFlags    []string            `toml:"warning_flags"`
	TTYFlags        []string            `toml:"tty_flags"`
	SourceTypeFlags map[string][]string `toml:"source_type_flags"`
	SyntaxOnlyFlags []string            `toml:"syntax_only_flags"`

	ObjectPrefix  string `toml:"object_prefix"`
	ObjectSuffix  string `toml:"object_suffix"`
	ArchivePrefix string `toml:"archive_prefix"`
	ArchiveSuffix string `toml:"archive_suffix"`
	ExePrefix     string `toml:"exe_prefix"`
	ExeSuffix     string `toml:"exe_suffix"`

	DepsMode       string `toml:"deps_mode"`
	MSVCDepsPrefix string `toml:"msvc_deps_prefix"`

	ConsiderEnvs []string `toml:"consider_envs"`
}

// LoadToolchainFile parses path as a toolchain definition and realizes
// it against the current process environment. Toolchain objects are
// constructed once per invocation.
func LoadToolchainFile(path string) (*toolchain.Toolchain, error) {
	prep, err := loadToolchainPrep(path)
	if err != nil {
		return nil, err
	}
	return toolchain.Realize(*prep, os.LookupEnv), nil
}

func loadToolchainPrep(path string) (*toolchain.Prep, error) {
	var f toolchainFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, errctx.With(fmt.Errorf("manifest: parsing toolchain file: %w", err), "file", path)
	}

	mode, err := parseDepsMode(f.DepsMode)
	if err != nil {
		return nil, errctx.With(err, "file", path)
	}

	sourceTypeFlags := make(map[toolchain.LanguageKind][]string, len(f.SourceTypeFlags))
	for lang, flags := range f.SourceTypeFlags {
		kind, err := parseLanguageKind(lang)
		if err != nil {
			return nil, errctx.With(err, "file", path)
		}
		sourceTypeFlags[kind] = flags
	}

	return &toolchain.Prep{
		CCompile:   f.CCompile,
		CxxCompile: f.CxxCompile,

		IncludeTemplate:         f.IncludeTemplate,
		ExternalIncludeTemplate: f.ExternalIncludeTemplate,
		DefineTemplate:          f.DefineTemplate,

		LinkArchiveTemplate: f.LinkArchiveTemplate,
		LinkExeTemplate:     f.LinkExeTemplate,

		WarningFlags:    f.WarningFlags,
		TTYFlags:        f.TTYFlags,
		SourceTypeFlags: sourceTypeFlags,
		SyntaxOnlyFlags: f.SyntaxOnlyFlags,

		ObjectPrefix:  f.ObjectPrefix,
		ObjectSuffix:  f.ObjectSuffix,
		ArchivePrefix: f.ArchivePrefix,
		ArchiveSuffix: f.ArchiveSuffix,
		ExePrefix:     f.ExePrefix,
		ExeSuffix:     f.ExeSuffix,

		DepsMode:       mode,
		MSVCDepsPrefix: f.MSVCDepsPrefix,

		ConsiderEnvs: f.ConsiderEnvs,
	}, nil
}

func parseDepsMode(s string) (toolchain.DepsMode, error) {
	switch toolchain.DepsMode(s) {
	case "", toolchain.DepsNone:
		return toolchain.DepsNone, nil
	case toolchain.DepsMSVCPrefix:
		return toolchain.DepsMSVCPrefix, nil
	case toolchain.DepsGNUMakefile:
		return toolchain.DepsGNUMakefile, nil
	default:
		return "", fmt.Errorf("manifest: unknown deps_mode %q", s)
	}
}

func parseLanguageKind(s string) (toolchain.LanguageKind, error) {
	switch toolchain.LanguageKind(s) {
	case toolchain.LanguageC:
		return toolchain.LanguageC, nil
	case toolchain.LanguageCXX:
		return toolchain.LanguageCXX, nil
	default:
		return "", fmt.Errorf("manifest: unknown source_type_flags language %q", s)
	}
}

// Package toolchain implements the toolchain abstraction component:
// command-vector rendering for compile/archive/link steps, and the
// ABI fingerprint used to invalidate cached compilation results when
// the active toolchain's observable configuration changes.
//
// Grounded on original_source's src/bpt/toolchain/prep.cpp
// (toolchain_prep::compute_hash, the cosmetic-flag pruning list, the
// canonical JSON document, and the SipHash keys (42, 1729)) and
// src/bpt/util/siphash.hpp (the reference SipHash-2-4 implementation).
// Command-vector rendering follows the template-substitution shape
// used by other_examples' please_cc/cctool tool-identification code
// (plain token replacement, no shell quoting at this layer).
package toolchain

// DepsMode selects how a compiler's dependency report is produced and
// parsed.
type DepsMode string

const (
	DepsNone        DepsMode = "none"
	DepsMSVCPrefix  DepsMode = "msvc-prefix"
	DepsGNUMakefile DepsMode = "gnu-makefile"
)

// LanguageKind selects which compile template a compile-request uses.
type LanguageKind string

const (
	LanguageC   LanguageKind = "c"
	LanguageCXX LanguageKind = "cxx"
)

// Prep is the preparation value a toolchain is realized from: argument
// template seeds and the list of environment variables whose values
// are ABI-relevant.
type Prep struct {
	CCompile   []string
	CxxCompile []string

	IncludeTemplate         []string // token <PATH>
	ExternalIncludeTemplate []string // token <PATH>
	DefineTemplate          []string // token <DEF>

	LinkArchiveTemplate []string
	LinkExeTemplate     []string

	WarningFlags    []string
	TTYFlags        []string
	SourceTypeFlags map[LanguageKind][]string
	SyntaxOnlyFlags []string

	ObjectPrefix, ObjectSuffix   string
	ArchivePrefix, ArchiveSuffix string
	ExePrefix, ExeSuffix         string

	DepsMode       DepsMode
	MSVCDepsPrefix string // e.g. "Note: including file:"

	ConsiderEnvs []string
}

// Toolchain is the realized, read-only value a Prep produces. Once
// constructed it never mutates: toolchain objects are constructed once
// per invocation, read-only thereafter.
type Toolchain struct {
	prep Prep
	hash uint64
	env  map[string]string
}

// Realize captures prep plus the current process environment's values
// for prep.ConsiderEnvs, and precomputes the ABI fingerprint.
func Realize(prep Prep, getenv func(string) (string, bool)) *Toolchain {
	env := make(map[string]string, len(prep.ConsiderEnvs))
	for _, name := range prep.ConsiderEnvs {
		if v, ok := getenv(name); ok {
			env[name] = v
		}
	}
	tc := &Toolchain{prep: prep, env: env}
	tc.hash = computeHash(prep, env)
	return tc
}

// Hash returns the toolchain's precomputed 64-bit ABI fingerprint.
func (t *Toolchain) Hash() uint64 { return t.hash }

// DepsMode returns the toolchain's dependency-report mode.
func (t *Toolchain) DepsMode() DepsMode { return t.prep.DepsMode }

// MSVCDepsPrefix returns the configured msvc-prefix line marker.
func (t *Toolchain) MSVCDepsPrefix() string { return t.prep.MSVCDepsPrefix }

// ObjectPath renders the object-file path affixes around stem.
func (t *Toolchain) ObjectPath(stem string) string {
	return t.prep.ObjectPrefix + stem + t.prep.ObjectSuffix
}

// ArchivePath renders the archive-file path affixes around stem.
func (t *Toolchain) ArchivePath(stem string) string {
	return t.prep.ArchivePrefix + stem + t.prep.ArchiveSuffix
}

// ExePath renders the executable-file path affixes around stem.
func (t *Toolchain) ExePath(stem string) string {
	return t.prep.ExePrefix + stem + t.prep.ExeSuffix
}

// ArchiveSuffix returns the configured archive filename suffix (e.g.
// ".a"), used by the build planner to tell archive link-inputs apart
// from bare runtime flags when composing a link task.
func (t *Toolchain) ArchiveSuffix() string { return t.prep.ArchiveSuffix }

package toolchain

import (
	"sort"
	"strings"
)

// CompileRequest describes one translation unit to compile, the input
// to Toolchain.RenderCompile.
type CompileRequest struct {
	Source               string
	IncludeRoots         []string
	ExternalIncludeRoots []string
	Defines              map[string]string
	Language             LanguageKind
	WarningsOn           bool
	SyntaxOnly           bool
	ObjectPath           string
}

// RenderCompile renders an ordered command vector for req, following a
// five-step procedure.
func (t *Toolchain) RenderCompile(req CompileRequest) []string {
	var cmd []string

	// 1. choose base template by language-kind.
	switch req.Language {
	case LanguageCXX:
		cmd = append(cmd, t.prep.CxxCompile...)
	default:
		cmd = append(cmd, t.prep.CCompile...)
	}

	// 2. include roots.
	for _, dir := range req.IncludeRoots {
		cmd = append(cmd, expandTemplate(t.prep.IncludeTemplate, "<PATH>", dir)...)
	}

	// 3. external include roots.
	for _, dir := range req.ExternalIncludeRoots {
		cmd = append(cmd, expandTemplate(t.prep.ExternalIncludeTemplate, "<PATH>", dir)...)
	}

	// 4. defines.
	for _, name := range sortedKeys(req.Defines) {
		def := name
		if v := req.Defines[name]; v != "" {
			def = name + "=" + v
		}
		cmd = append(cmd, expandTemplate(t.prep.DefineTemplate, "<DEF>", def)...)
	}

	if req.WarningsOn {
		cmd = append(cmd, t.prep.WarningFlags...)
	}

	// 5. source-type flag and syntax-only flag.
	cmd = append(cmd, t.prep.SourceTypeFlags[req.Language]...)
	if req.SyntaxOnly {
		cmd = append(cmd, t.prep.SyntaxOnlyFlags...)
	}

	cmd = append(cmd, req.Source)

	// 6. object-path as positional output.
	cmd = append(cmd, req.ObjectPath)

	return cmd
}

// ArchiveRequest describes an archive (static library) step.
type ArchiveRequest struct {
	ObjectPaths []string
	OutputPath  string
}

// RenderArchive renders an archive command vector by substituting
// <PATH> for each object and the archive output: archive and link
// commands are rendered analogously with their templates.
func (t *Toolchain) RenderArchive(req ArchiveRequest) []string {
	var cmd []string
	cmd = append(cmd, t.prep.LinkArchiveTemplate...)
	cmd = append(cmd, req.OutputPath)
	cmd = append(cmd, req.ObjectPaths...)
	return cmd
}

// LinkRequest describes a link (executable) step.
type LinkRequest struct {
	EntryObject   string
	ArchiveInputs []string
	RuntimeInputs []string
	OutputPath    string
}

// RenderLink renders a link command vector.
func (t *Toolchain) RenderLink(req LinkRequest) []string {
	var cmd []string
	cmd = append(cmd, t.prep.LinkExeTemplate...)
	cmd = append(cmd, req.EntryObject)
	cmd = append(cmd, req.ArchiveInputs...)
	cmd = append(cmd, req.RuntimeInputs...)
	cmd = append(cmd, req.OutputPath)
	return cmd
}

// expandTemplate substitutes token for its placeholder in every
// element of tmpl, returning the expanded vector. No shell quoting is
// performed here — quoting, if any, is the process runner's job (§6).
func expandTemplate(tmpl []string, token, value string) []string {
	out := make([]string, len(tmpl))
	for i, t := range tmpl {
		out[i] = strings.ReplaceAll(t, token, value)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

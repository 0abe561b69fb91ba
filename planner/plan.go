// Package planner implements the build planner component: it lowers a
// resolved set of packages plus their local source trees into a
// compile/archive/link task graph, propagating usage requirements
// (include roots, link inputs) through each library's transitive
// `uses` edges.
//
// Grounded on compilator.go's gatherPackagesFromInstanceGroups for the
// walk-and-collect traversal idiom (generalized from "instance groups
// select releases" to "resolved packages select compile units") and on
// model/release.go's sort.Interface-based deterministic ordering for
// the planner's package/library iteration order.
package planner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/crucible-build/crucible/model"
	"github.com/crucible-build/crucible/toolchain"
)

// CompileTask is one translation-unit compile.
type CompileTask struct {
	Library              model.LibraryIdentity
	Source               model.SourceFile
	IncludeRoots         []string
	ExternalIncludeRoots []string
	Defines              map[string]string
	Language             toolchain.LanguageKind
	OutputPath           string
	DepsReportPath       string // empty when the toolchain's deps_mode needs none
}

// ArchiveTask is one library's static-archive step.
type ArchiveTask struct {
	Library     model.LibraryIdentity
	ObjectPaths []string
	OutputPath  string
}

// LinkTask is one executable link step.
type LinkTask struct {
	Library       model.LibraryIdentity
	EntryObject   string
	ArchiveInputs []string
	RuntimeInputs []string
	OutputPath    string
}

// LibraryPlan is one library's lowered task set: its compile tasks,
// optional archive task (absent for header-only libraries), and zero
// or more executables seeded by `.test.*`/`.main.*` sources.
type LibraryPlan struct {
	Identity    model.LibraryIdentity
	Compiles    []CompileTask
	Archive     *ArchiveTask
	Executables []LinkTask
}

// PackagePlan is one package's owned libraries.
type PackagePlan struct {
	Identity  model.PackageIdentity
	Libraries []LibraryPlan
}

// BuildPlan is the planner's output: an ordered sequence of packages.
type BuildPlan struct {
	Packages []PackagePlan
}

// Diagnostic is a non-fatal planning note — today, only the "file
// under include/ is not a header" exclusion.
type Diagnostic struct {
	Path    string
	Message string
}

// Planner lowers resolved packages into a BuildPlan against one
// realized Toolchain and output root.
type Planner struct {
	Registry   *model.Registry
	Toolchain  *toolchain.Toolchain
	OutputRoot string
	// Env seeds every compile task's Defines map; a single `env` value
	// threads through plan()/compile_all() uniformly rather than
	// per-task configuration, so the planner applies it flat.
	Env        map[string]string
	WarningsOn bool
}

// New returns a Planner targeting outputRoot with toolchain tc,
// resolving usage requirements through reg.
func New(reg *model.Registry, tc *toolchain.Toolchain, outputRoot string) *Planner {
	return &Planner{Registry: reg, Toolchain: tc, OutputRoot: outputRoot}
}

// Plan walks packages (in the given order — callers pass local
// packages before remote, matching "local overrides remote"
// registration precedence) and lowers each into compile/archive/link
// tasks.
func (p *Planner) Plan(packages []*model.Package) (*BuildPlan, []Diagnostic, error) {
	ownerLocal := make(map[model.LibraryIdentity]bool)
	for _, pkg := range packages {
		for i := range pkg.Libraries {
			ownerLocal[pkg.Libraries[i].Identity] = pkg.Local
		}
	}

	plan := &BuildPlan{}
	var diags []Diagnostic

	for _, pkg := range packages {
		pkgPlan := PackagePlan{Identity: pkg.Identity}
		for li := range pkg.Libraries {
			lib := &pkg.Libraries[li]
			libPlan, libDiags, err := p.planLibrary(pkg, lib, ownerLocal)
			diags = append(diags, libDiags...)
			if err != nil {
				return nil, diags, fmt.Errorf("planner: package %s library %s: %w", pkg.Identity, lib.Identity, err)
			}
			pkgPlan.Libraries = append(pkgPlan.Libraries, *libPlan)
		}
		plan.Packages = append(plan.Packages, pkgPlan)
	}

	return plan, diags, nil
}

func (p *Planner) planLibrary(pkg *model.Package, lib *model.Library, ownerLocal map[model.LibraryIdentity]bool) (*LibraryPlan, []Diagnostic, error) {
	var diags []Diagnostic

	localRoots, externalRoots, err := p.classifyIncludeRoots(lib.Identity, ownerLocal)
	if err != nil {
		return nil, diags, err
	}

	linkPaths, err := p.Registry.LinkPaths(lib.Identity)
	if err != nil {
		return nil, diags, err
	}
	archiveInputs, runtimeInputs := splitLinkPaths(linkPaths, p.Toolchain.ArchiveSuffix())

	libPlan := &LibraryPlan{Identity: lib.Identity}
	outDir := filepath.Join(p.OutputRoot, pkg.Identity.Name, lib.Identity.Namespace, lib.Identity.Name)

	var objectPaths []string
	for _, src := range lib.Sources {
		if strings.HasPrefix(src.BasisPath, "include/") && !src.Kind.IsHeaderLike() {
			diags = append(diags, Diagnostic{
				Path:    src.AbsPath,
				Message: fmt.Sprintf("file under include/ is not a header (kind %s); excluded", src.Kind),
			})
			continue
		}

		switch src.Kind {
		case model.KindSource, model.KindTest, model.KindApp:
			stem := trimExt(src.BasisPath)
			objPath := filepath.Join(outDir, p.Toolchain.ObjectPath(stem))
			task := CompileTask{
				Library:              lib.Identity,
				Source:               src,
				IncludeRoots:         localRoots,
				ExternalIncludeRoots: externalRoots,
				Defines:              p.Env,
				Language:             languageFor(src.BasisPath),
				OutputPath:           objPath,
				DepsReportPath:       depsReportPath(p.Toolchain, objPath),
			}
			libPlan.Compiles = append(libPlan.Compiles, task)

			switch src.Kind {
			case model.KindSource:
				objectPaths = append(objectPaths, objPath)
			case model.KindTest, model.KindApp:
				exeStem := trimEntryStemSuffix(stem)
				exePath := filepath.Join(outDir, p.Toolchain.ExePath(exeStem))
				libPlan.Executables = append(libPlan.Executables, LinkTask{
					Library:       lib.Identity,
					EntryObject:   objPath,
					RuntimeInputs: runtimeInputs,
					OutputPath:    exePath,
				})
			}
		default:
			// Header-like kinds contribute no compile or link task.
		}
	}

	if len(objectPaths) > 0 {
		archivePath := filepath.Join(outDir, p.Toolchain.ArchivePath(lib.Identity.Name))
		libPlan.Archive = &ArchiveTask{Library: lib.Identity, ObjectPaths: objectPaths, OutputPath: archivePath}
		lib.Archive = archivePath
	}

	// Entry-object link tasks' archive inputs are the library's own
	// archive (if any) followed by upstream archive link-paths, per
	// §4.5's "whose archive input is the [owning library's] own
	// archive (if any)".
	for i := range libPlan.Executables {
		if lib.Archive != "" {
			libPlan.Executables[i].ArchiveInputs = append([]string{lib.Archive}, archiveInputs...)
		} else {
			libPlan.Executables[i].ArchiveInputs = archiveInputs
		}
	}

	return libPlan, diags, nil
}

// classifyIncludeRoots composes id's effective include roots by
// walking its transitive `uses` edges (the same traversal
// model.Registry.IncludePaths performs) but splits the result by
// whether the contributing library's owning package is local or
// remote: external include roots come from resolved upstream
// packages.
func (p *Planner) classifyIncludeRoots(id model.LibraryIdentity, ownerLocal map[model.LibraryIdentity]bool) (local, external []string, err error) {
	seenLib := map[model.LibraryIdentity]bool{}
	seenPath := map[string]bool{}

	var walk func(model.LibraryIdentity) error
	walk = func(cur model.LibraryIdentity) error {
		if seenLib[cur] {
			return nil
		}
		seenLib[cur] = true

		usage, err := p.Registry.ResolveUsage(cur)
		if err != nil {
			return err
		}
		isLocal := ownerLocal[cur]
		for _, root := range usage.IncludeRoots {
			if seenPath[root] {
				continue
			}
			seenPath[root] = true
			if isLocal {
				local = append(local, root)
			} else {
				external = append(external, root)
			}
		}
		for _, use := range usage.Uses {
			if err := walk(use); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(id); err != nil {
		return nil, nil, err
	}
	return local, external, nil
}

// splitLinkPaths separates a library's composed link-input list into
// archive paths (ending in the toolchain's archive suffix) and bare
// runtime inputs (system link flags, shared-object paths, and
// anything else) — a link task keeps its archive inputs and runtime
// link inputs separate.
func splitLinkPaths(paths []string, archiveSuffix string) (archives, runtime []string) {
	for _, p := range paths {
		if archiveSuffix != "" && strings.HasSuffix(p, archiveSuffix) {
			archives = append(archives, p)
		} else {
			runtime = append(runtime, p)
		}
	}
	return archives, runtime
}

func trimExt(basisPath string) string {
	ext := filepath.Ext(basisPath)
	return strings.TrimSuffix(basisPath, ext)
}

// trimEntryStemSuffix strips the ".test"/".main" secondary stem a
// KindTest/KindApp source carries, so "ping.test" lowers to the
// executable stem "ping".
func trimEntryStemSuffix(stem string) string {
	if s := strings.TrimSuffix(stem, ".test"); s != stem {
		return s
	}
	if s := strings.TrimSuffix(stem, ".main"); s != stem {
		return s
	}
	return stem
}

func languageFor(basisPath string) toolchain.LanguageKind {
	switch filepath.Ext(basisPath) {
	case ".cc", ".cpp", ".cxx":
		return toolchain.LanguageCXX
	default:
		return toolchain.LanguageC
	}
}

// depsReportPath decides where a compile task's dependency report
// lands: gnu-makefile toolchains emit it to a sidecar file next to the
// object; msvc-prefix toolchains interleave it into captured stdout
// (no sidecar path); none records no report at all.
func depsReportPath(tc *toolchain.Toolchain, objectPath string) string {
	if tc.DepsMode() == toolchain.DepsGNUMakefile {
		return objectPath + ".d"
	}
	return ""
}

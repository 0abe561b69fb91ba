// Package app implements the Engine orchestrator: it wires the
// version/range algebra, package/usage model, toolchain abstraction,
// resolver, planner, and incremental execution engine components
// together behind a handful of entry points (`plan`,
// `compile_all`/`archive_all`/`link_all`, `emit_compile_commands`).
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SUSE/stampy"
	"github.com/SUSE/termui"
	"github.com/fatih/color"

	"github.com/crucible-build/crucible/cache"
	"github.com/crucible-build/crucible/compilator"
	"github.com/crucible-build/crucible/db"
	"github.com/crucible-build/crucible/index"
	"github.com/crucible-build/crucible/manifest"
	"github.com/crucible-build/crucible/model"
	"github.com/crucible-build/crucible/planner"
	"github.com/crucible-build/crucible/resolver"
	"github.com/crucible-build/crucible/semver"
	"github.com/crucible-build/crucible/toolchain"
)

// Options carries every value the CLI layer (cmd/) collects from
// flags, env, and config file before constructing an Engine.
type Options struct {
	ProjectManifest string // path to crucible.json
	ToolchainFile   string // path to a ~/.crucible/toolchains/*.toml file
	OutputDir       string // build-output root
	IndexDir        string // local package-index root (resolver.PackageSource)
	CacheDir        string // holds fingerprint.db and candidates.bbolt
	Jobs            int    // worker count; 0 means hardware_concurrency + 2
	WarningsOn      bool
	Verbose         bool
	Metrics         string // optional CSV metrics path, per stampy
}

// Engine is the orchestrator wiring every core component behind one
// project's build, resolve, and compile-command lifecycle.
type Engine struct {
	Options Options
	UI      *termui.UI

	Manifest  *manifest.ProjectManifest
	Toolchain *toolchain.Toolchain
	Registry  *model.Registry
	Index     *index.LocalIndex
	Store     *db.Store
	Cache     *cache.Cache
	Cancel    *SignalCancellation

	compile     *compilator.Engine
	lastPlanner *planner.Planner
}

// New returns an unopened Engine carrying only ui: the CLI layer
// (cmd/) fills in Options from flags/env/config in cobra's
// PersistentPreRunE before any subcommand's RunE calls Open, a
// two-phase construction that lets the CLI populate configuration
// before any resource is opened.
func New(ui *termui.UI) *Engine {
	return &Engine{UI: ui, Registry: model.NewRegistry()}
}

// Open realizes the Engine's resources from its already-populated
// Options: the configured toolchain file, the fingerprint store and
// candidate cache under CacheDir, and the package index at IndexDir
// (created if it does not yet exist). Call once, after Options is
// fully populated, before LoadProject/Resolve/Plan.
func (e *Engine) Open() error {
	tc, err := manifest.LoadToolchainFile(e.Options.ToolchainFile)
	if err != nil {
		return fmt.Errorf("app: loading toolchain file: %w", err)
	}

	store, err := db.Open(filepath.Join(e.Options.CacheDir, "fingerprint.db"))
	if err != nil {
		return fmt.Errorf("app: opening fingerprint store: %w", err)
	}

	candidateCache, err := cache.Open(filepath.Join(e.Options.CacheDir, "candidates.bbolt"))
	if err != nil {
		store.Close()
		return fmt.Errorf("app: opening candidate cache: %w", err)
	}

	idx, err := index.Init(e.Options.IndexDir)
	if err != nil {
		store.Close()
		candidateCache.Close()
		return fmt.Errorf("app: opening package index: %w", err)
	}

	cancel := NewSignalCancellation(os.Interrupt)

	e.Toolchain = tc
	e.Index = idx
	e.Store = store
	e.Cache = candidateCache
	e.Cancel = cancel
	e.compile = compilator.New(ExecRunner{}, store, cancel, tc)
	return nil
}

// Close releases the Engine's held resources (database, cache,
// signal subscription).
func (e *Engine) Close() error {
	e.Cancel.Stop()
	if err := e.Cache.Close(); err != nil {
		e.Store.Close()
		return err
	}
	return e.Store.Close()
}

// LoadProject reads the project manifest and every package.yml under
// its declared source_dirs, registering each as a local package.
func (e *Engine) LoadProject() error {
	m, err := manifest.LoadProjectManifest(e.Options.ProjectManifest)
	if err != nil {
		return err
	}
	e.Manifest = m

	projectRoot := filepath.Dir(e.Options.ProjectManifest)
	for _, dir := range m.SourceDirs {
		pkgDir := dir
		if !filepath.IsAbs(pkgDir) {
			pkgDir = filepath.Join(projectRoot, dir)
		}
		pkg, err := model.LoadPackageDirectory(pkgDir)
		if err != nil {
			return fmt.Errorf("app: loading local package at %s: %w", pkgDir, err)
		}
		if err := e.Registry.AddLocal(pkg); err != nil {
			return err
		}
	}
	return e.Registry.VerifyAcyclic()
}

// packageSource wraps the Engine's index behind the candidate cache:
// the cache decorates the source and never lives inside the resolver.
func (e *Engine) packageSource() resolver.PackageSource {
	return &cache.Source{
		Upstream: e.Index,
		Cache:    e.Cache,
		RevisionOf: func(name string) (string, error) {
			// The local index has no separate revision concept of its
			// own today; every Candidates() observation is authoritative
			// for its own call, so caching is opportunistic only within
			// a single resolve (the resolver re-queries per package
			// name at most once absent backtracking across runs).
			return "local", nil
		},
	}
}

// parseDependencyRanges converts a project manifest's raw
// dependency-range strings into resolver.Dependency values, defaulting
// each to UsesAll since the project manifest (unlike a library's
// usage declaration) never names a subset of libraries it uses.
func parseDependencyRanges(raw []string) ([]resolver.Dependency, error) {
	deps := make([]resolver.Dependency, 0, len(raw))
	for _, s := range raw {
		r, err := semver.ParseRange(s)
		if err != nil {
			return nil, fmt.Errorf("app: parsing dependency %q: %w", s, err)
		}
		deps = append(deps, resolver.Dependency{Name: r.Name, Versions: r.Versions, Uses: resolver.UsesAll()})
	}
	return deps, nil
}

// Resolve parses the project manifest's direct dependency declarations
// and runs the resolver against the package index (through the
// candidate cache), registering the resulting pinned closure's
// packages into the Registry as remote.
func (e *Engine) Resolve() (resolver.PinnedSet, error) {
	rootDeps, err := parseDependencyRanges(e.Manifest.Dependencies)
	if err != nil {
		return nil, err
	}

	r := resolver.New(e.packageSource())
	pinned, err := r.Resolve(rootDeps)
	if err != nil {
		return nil, err
	}

	for name, pin := range pinned {
		pkg, err := e.Index.Fetch(pin.ID)
		if err != nil {
			return nil, fmt.Errorf("app: fetching resolved package %s: %w", name, err)
		}
		if err := e.Registry.AddRemote(pkg); err != nil {
			return nil, err
		}
	}
	return pinned, nil
}

// Plan lowers every registered package (local packages first, so they
// win "local overrides remote" name collisions) into a BuildPlan.
func (e *Engine) Plan(env map[string]string) (*planner.BuildPlan, []planner.Diagnostic, error) {
	p := planner.New(e.Registry, e.Toolchain, e.Options.OutputDir)
	p.Env = env
	p.WarningsOn = e.Options.WarningsOn

	var packages []*model.Package
	packages = append(packages, e.Registry.LocalPackages()...)
	packages = append(packages, e.Registry.RemotePackages()...)

	if e.compile != nil {
		e.compile.WarningsOn = e.Options.WarningsOn
		e.compile.WorkerCount = e.Options.Jobs
	}

	e.lastPlanner = p
	return p.Plan(packages)
}

// CompileAll, ArchiveAll, and LinkAll run the incremental execution
// engine's three build phases in order,
// stamping per-phase timing into the configured metrics CSV.
func (e *Engine) CompileAll(plan *planner.BuildPlan) (*compilator.PhaseResult, error) {
	return e.runPhase("compile", func() (*compilator.PhaseResult, error) { return e.compile.CompileAll(plan) })
}

func (e *Engine) ArchiveAll(plan *planner.BuildPlan, compiled *compilator.PhaseResult) (*compilator.PhaseResult, error) {
	return e.runPhase("archive", func() (*compilator.PhaseResult, error) { return e.compile.ArchiveAll(plan, compiled) })
}

func (e *Engine) LinkAll(plan *planner.BuildPlan, compiled, archived *compilator.PhaseResult) (*compilator.PhaseResult, error) {
	return e.runPhase("link", func() (*compilator.PhaseResult, error) { return e.compile.LinkAll(plan, compiled, archived) })
}

func (e *Engine) runPhase(name string, run func() (*compilator.PhaseResult, error)) (*compilator.PhaseResult, error) {
	if e.Options.Metrics != "" {
		stampy.Stamp(e.Options.Metrics, "crucible", name, "start")
		defer stampy.Stamp(e.Options.Metrics, "crucible", name, "done")
	}
	result, err := run()
	if e.UI == nil {
		return result, err
	}
	if err != nil {
		e.UI.Println(color.RedString("%s phase failed", name))
		return result, err
	}
	e.UI.Println(color.GreenString("%s phase complete (%d task(s))", name, len(result.Succeeded)))
	return result, nil
}

// EmitCompileCommands writes plan's compile-command database to
// outPath.
func (e *Engine) EmitCompileCommands(plan *planner.BuildPlan, outPath string) error {
	if e.lastPlanner == nil {
		return fmt.Errorf("app: emit_compile_commands called before plan")
	}
	return e.lastPlanner.EmitCompileCommands(plan, outPath)
}

// Package index implements a local directory-backed package source:
// the on-disk repository `repo-init` seeds and `repo-import` ingests
// sdists into, and the resolver.PackageSource the CLI wires up for
// `pkg-search`/`pkg-get`/dependency resolution. A real deployment
// would point this at a networked transport instead, but the storage
// and resolver-facing shape stay the same either way.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"code.cloudfoundry.org/archiver/extractor"
	"github.com/pborman/uuid"
	"github.com/termie/go-shutil"

	"github.com/crucible-build/crucible/model"
	"github.com/crucible-build/crucible/resolver"
	"github.com/crucible-build/crucible/semver"
	"github.com/crucible-build/crucible/util"
)

// LocalIndex is a directory tree of imported package sdists, laid out
// as <root>/<name>/<version>[~<revision>]/package.yml (plus whatever
// sources and license files the sdist carried). It implements
// resolver.PackageSource directly.
type LocalIndex struct {
	Root string
}

// Init creates (or reuses) root as an empty local index, backing the
// `repo-init` command.
func Init(root string) (*LocalIndex, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("index: creating %s: %w", root, err)
	}
	return &LocalIndex{Root: root}, nil
}

// Open wraps an existing index directory without creating it.
func Open(root string) (*LocalIndex, error) {
	if err := util.ValidatePath(root, true, "package index"); err != nil {
		return nil, err
	}
	return &LocalIndex{Root: root}, nil
}

// Import extracts the tar.gz sdist at sdistPath, reads its package.yml
// to learn the package's identity, and copies it into the index under
// its (name, version, revision) slot, backing the `repo-import`
// command. Returns the imported package's identity.
func (idx *LocalIndex) Import(sdistPath string) (model.PackageIdentity, error) {
	staging := filepath.Join(os.TempDir(), fmt.Sprintf("crucible-import-%s", uuid.New()))
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return model.PackageIdentity{}, fmt.Errorf("index: staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := extractor.NewTgz().Extract(sdistPath, staging); err != nil {
		return model.PackageIdentity{}, fmt.Errorf("index: extracting %s: %w", sdistPath, err)
	}

	pkg, err := model.LoadRemotePackageDirectory(staging)
	if err != nil {
		return model.PackageIdentity{}, fmt.Errorf("index: reading imported package manifest: %w", err)
	}

	dest := idx.slotDir(pkg.Identity)
	if err := os.RemoveAll(dest); err != nil {
		return model.PackageIdentity{}, fmt.Errorf("index: clearing existing slot %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return model.PackageIdentity{}, fmt.Errorf("index: creating %s: %w", filepath.Dir(dest), err)
	}

	if err := shutil.CopyTree(staging, dest, &shutil.CopyTreeOptions{
		Symlinks:               true,
		Ignore:                 nil,
		CopyFunction:           shutil.Copy,
		IgnoreDanglingSymlinks: false,
	}); err != nil {
		return model.PackageIdentity{}, fmt.Errorf("index: copying into %s: %w", dest, err)
	}

	return pkg.Identity, nil
}

func (idx *LocalIndex) slotDir(id model.PackageIdentity) string {
	return filepath.Join(idx.Root, id.Name, slotName(id))
}

func slotName(id model.PackageIdentity) string {
	if id.Revision == 0 {
		return id.Version.String()
	}
	return fmt.Sprintf("%s~%d", id.Version, id.Revision)
}

// Candidates implements resolver.PackageSource: every imported version
// of name, in directory-listing order rather than sorted (the resolver
// re-sorts by its own tie-break rule, so order here is immaterial).
func (idx *LocalIndex) Candidates(name string) ([]resolver.Candidate, error) {
	versionDirs, err := idx.listSlots(name)
	if err != nil {
		return nil, err
	}

	out := make([]resolver.Candidate, 0, len(versionDirs))
	for _, dir := range versionDirs {
		pkg, err := model.LoadRemotePackageDirectory(dir)
		if err != nil {
			return nil, fmt.Errorf("index: %s: %w", dir, err)
		}
		deps, err := parseDependencies(pkg.Dependencies)
		if err != nil {
			return nil, fmt.Errorf("index: %s: %w", dir, err)
		}
		out = append(out, resolver.Candidate{ID: pkg.Identity, Dependencies: deps})
	}
	return out, nil
}

// parseDependencies lowers a package's raw dependency-range strings
// into resolver.Dependency values. A package-level dependency always
// carries UsesAll, since package.yml does not distinguish a
// named-subset `uses` for cross-package dependencies the way a
// library's own Usage.Uses edges do.
func parseDependencies(raw []string) ([]resolver.Dependency, error) {
	out := make([]resolver.Dependency, 0, len(raw))
	for _, s := range raw {
		r, err := semver.ParseRange(s)
		if err != nil {
			return nil, err
		}
		out = append(out, resolver.Dependency{Name: r.Name, Versions: r.Versions, Uses: resolver.UsesAll()})
	}
	return out, nil
}

func (idx *LocalIndex) listSlots(name string) ([]string, error) {
	nameDir := filepath.Join(idx.Root, name)
	entries, err := os.ReadDir(nameDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: listing %s: %w", nameDir, err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(nameDir, e.Name()))
		}
	}
	return dirs, nil
}

// Search lists every package name present in the index matching query
// as a substring, falling back to a "did you mean" suggestion (via
// util.DidYouMean) when nothing matches.
func (idx *LocalIndex) Search(query string) (matches []string, suggestion string, err error) {
	names, err := idx.allNames()
	if err != nil {
		return nil, "", err
	}

	for _, n := range names {
		if query == "" || strings.Contains(strings.ToLower(n), strings.ToLower(query)) {
			matches = append(matches, n)
		}
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		suggestion = util.DidYouMean(query, names)
	}
	return matches, suggestion, nil
}

// Fetch loads the concrete Package for id, backing the `pkg-get`
// command.
func (idx *LocalIndex) Fetch(id model.PackageIdentity) (*model.Package, error) {
	dir := idx.slotDir(id)
	pkg, err := model.LoadRemotePackageDirectory(dir)
	if err != nil {
		return nil, &model.NotFoundError{Kind: "package", Name: id.String(), Suggestion: idx.suggestName(id.Name)}
	}
	return pkg, nil
}

func (idx *LocalIndex) suggestName(name string) string {
	names, err := idx.allNames()
	if err != nil {
		return ""
	}
	return util.DidYouMean(name, names)
}

func (idx *LocalIndex) allNames() ([]string, error) {
	entries, err := os.ReadDir(idx.Root)
	if err != nil {
		return nil, fmt.Errorf("index: listing %s: %w", idx.Root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

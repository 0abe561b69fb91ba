package model

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"

	"github.com/crucible-build/crucible/semver"
	"github.com/crucible-build/crucible/util"
)

const packageManifestFile = "package.yml"

// packageManifest is the on-disk shape of a local source package's
// metadata file. Grounded on model/release.go's manifest struct and
// model/job.go's spec-loading idiom: a plain YAML-tagged struct
// unmarshaled with gopkg.in/yaml.v2, then lowered into the domain
// Package/Library types.
type packageManifest struct {
	Name         string                   `yaml:"name"`
	Version      string                   `yaml:"version"`
	Revision     int                      `yaml:"revision"`
	License      []string                 `yaml:"license"`
	Dependencies []string                 `yaml:"dependencies"`
	Libraries    []packageManifestLibrary `yaml:"libraries"`
}

type packageManifestLibrary struct {
	Name         string   `yaml:"name"`
	Namespace    string   `yaml:"namespace"`
	IncludeRoots []string `yaml:"include_roots"`
	LinkInputs   []string `yaml:"link_inputs"`
	Uses         []string `yaml:"uses"`
	Links        []string `yaml:"links"`

	// SourceRoot, when given, is walked recursively to populate the
	// library's Sources (§3's source-file classification), relative to
	// the package directory unless absolute. Left unset, the library
	// carries no local sources of its own (e.g. a header-only library
	// whose include_roots are all this manifest declares).
	SourceRoot string `yaml:"source_root"`
}

// LoadPackageDirectory reads dir's package.yml and returns the
// Package it describes, with Path set to dir, Local set true. A
// library's Sources are populated by walking its declared
// source_root, classifying each file per §3; a library with no
// source_root carries no Sources (the header-only case).
func LoadPackageDirectory(dir string) (*Package, error) {
	return loadPackageDirectory(dir, true)
}

// LoadRemotePackageDirectory is LoadPackageDirectory for a package
// materialized from a package-source candidate (index.LocalIndex)
// rather than the current project's own source tree: the returned
// Package has Local false, so the build planner classifies its
// include roots as external per §4.5.
func LoadRemotePackageDirectory(dir string) (*Package, error) {
	return loadPackageDirectory(dir, false)
}

func loadPackageDirectory(dir string, local bool) (*Package, error) {
	manifestPath := filepath.Join(dir, packageManifestFile)
	if err := util.ValidatePath(manifestPath, false, "package manifest"); err != nil {
		return nil, err
	}

	raw, err := ioutil.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("model: reading %s: %w", manifestPath, err)
	}

	var m packageManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("model: parsing %s: %w", manifestPath, err)
	}

	return manifestToPackage(dir, manifestPath, &m, local)
}

func manifestToPackage(dir, manifestPath string, m *packageManifest, local bool) (*Package, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("model: %s: package name is required", manifestPath)
	}

	v, err := parsePackageVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("model: %s: %w", manifestPath, err)
	}

	pkg := &Package{
		Identity:     PackageIdentity{Name: m.Name, Version: v, Revision: m.Revision},
		Path:         dir,
		License:      m.License,
		Local:        local,
		Dependencies: m.Dependencies,
	}

	for _, lm := range m.Libraries {
		if lm.Name == "" {
			return nil, fmt.Errorf("model: %s: library with empty name", manifestPath)
		}
		lib := Library{
			Identity: LibraryIdentity{Namespace: lm.Namespace, Name: lm.Name},
			Usage: UsageRequirement{
				IncludeRoots: resolveRoots(dir, lm.IncludeRoots),
				LinkInputs:   lm.LinkInputs,
				Uses:         toIdentities(lm.Uses),
				Links:        toIdentities(lm.Links),
			},
		}

		if lm.SourceRoot != "" {
			root := resolveRoots(dir, []string{lm.SourceRoot})[0]
			sources, err := scanSourceTree(root)
			if err != nil {
				return nil, fmt.Errorf("model: %s: library %s: %w", manifestPath, lm.Name, err)
			}
			lib.Sources = sources
		}

		pkg.Libraries = append(pkg.Libraries, lib)
	}

	return pkg, nil
}

// scanSourceTree walks root recursively, classifying every regular
// file per ClassifySourceFile with a basis path relative to root.
// The planner would otherwise walk source directories and classify
// each file itself; doing it once here at load time instead of
// per-plan is safe since a local package's source tree does not
// change within one invocation.
func scanSourceTree(root string) ([]SourceFile, error) {
	var out []SourceFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		out = append(out, SourceFile{AbsPath: path, BasisPath: rel, Kind: ClassifySourceFile(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning source root %s: %w", root, err)
	}
	return out, nil
}

func resolveRoots(base string, roots []string) []string {
	out := make([]string, len(roots))
	for i, r := range roots {
		if filepath.IsAbs(r) {
			out[i] = r
		} else {
			out[i] = filepath.Join(base, r)
		}
	}
	return out
}

// toIdentities parses "namespace/name" edge declarations into
// LibraryIdentity values; an edge with no '/' is given an empty
// namespace, matching a package referring to one of its own libraries.
func toIdentities(names []string) []LibraryIdentity {
	out := make([]LibraryIdentity, 0, len(names))
	for _, n := range names {
		out = append(out, parseIdentity(n))
	}
	return out
}

func parseIdentity(n string) LibraryIdentity {
	for i := 0; i < len(n); i++ {
		if n[i] == '/' {
			return LibraryIdentity{Namespace: n[:i], Name: n[i+1:]}
		}
	}
	return LibraryIdentity{Name: n}
}

func parsePackageVersion(s string) (semver.Version, error) {
	return semver.Parse(s)
}

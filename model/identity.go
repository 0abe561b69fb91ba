// Package model implements the package & usage model component:
// package identities, library identities, usage requirements, and the
// local/remote package registries the build planner and resolver
// consult.
//
// Grounded on model/release.go (Release/Releases,
// LookupPackage/LookupJob) and model/job.go (Job/Jobs, dependency
// pointers), generalized: a Release becomes a Package, a Job becomes a
// Library, and the Release.Packages/Job.Packages pointer style becomes
// LibraryIdentity-keyed edges resolved through a Registry map —
// identifier edges, not shared pointers.
package model

import (
	"fmt"

	"github.com/crucible-build/crucible/semver"
)

// PackageIdentity is the triple (name, version, revision) naming one
// concrete, immutable package release.
type PackageIdentity struct {
	Name     string
	Version  semver.Version
	Revision int
}

// String renders the package-ID grammar: name '@' semver [ '~' revision ].
func (id PackageIdentity) String() string {
	if id.Revision == 0 {
		return fmt.Sprintf("%s@%s", id.Name, id.Version)
	}
	return fmt.Sprintf("%s@%s~%d", id.Name, id.Version, id.Revision)
}

// Compare orders identities: by name, then version, then revision —
// used by the resolver's tie-break rule (highest version, then highest
// revision) when comparing two candidates for the same package name.
func (id PackageIdentity) Compare(other PackageIdentity) int {
	if id.Name != other.Name {
		if id.Name < other.Name {
			return -1
		}
		return 1
	}
	if c := id.Version.Compare(other.Version); c != 0 {
		return c
	}
	switch {
	case id.Revision < other.Revision:
		return -1
	case id.Revision > other.Revision:
		return 1
	default:
		return 0
	}
}

// LibraryIdentity is the pair (namespace, name) that participates in
// usage edges — the unit of usage.
type LibraryIdentity struct {
	Namespace string
	Name      string
}

// String renders a library identity as "namespace/name".
func (id LibraryIdentity) String() string {
	return fmt.Sprintf("%s/%s", id.Namespace, id.Name)
}

// ParsePackageID parses the package-ID string grammar
// `name '@' semver [ '~' revision ]`.
func ParsePackageID(s string) (PackageIdentity, error) {
	name, rest, ok := cutByte(s, '@')
	if !ok {
		return PackageIdentity{}, fmt.Errorf("model: invalid package id %q: missing '@'", s)
	}
	if name == "" {
		return PackageIdentity{}, fmt.Errorf("model: invalid package id %q: empty name", s)
	}

	versionPart := rest
	revision := 0
	if verStr, revStr, ok := cutByte(rest, '~'); ok {
		versionPart = verStr
		n, err := parseRevision(revStr)
		if err != nil {
			return PackageIdentity{}, fmt.Errorf("model: invalid package id %q: %w", s, err)
		}
		revision = n
	}

	v, err := semver.Parse(versionPart)
	if err != nil {
		return PackageIdentity{}, fmt.Errorf("model: invalid package id %q: %w", s, err)
	}

	return PackageIdentity{Name: name, Version: v, Revision: revision}, nil
}

func cutByte(s string, b byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func parseRevision(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty revision")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric revision %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

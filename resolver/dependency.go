// Package resolver implements the dependency resolver component: a
// PubGrub-style solver that turns a root manifest's direct dependency
// list plus a package-source collaborator into a consistent
// version-pinned closure.
//
// Grounded on original_source's src/dds/crs/dependency.hpp
// (`dependency`, `version_range_set = pubgrub::interval_set<...>`, the
// implicit-all/explicit-list `dependency_uses` variant) for the shape
// of a dependency declaration, and on model/resolver/resolver.go (a
// Resolver struct wrapping a narrow
// collaborator interface, `Resolve()` returning either the enriched
// value or a structured error) for the Go idiom.
package resolver

import (
	"github.com/crucible-build/crucible/model"
	"github.com/crucible-build/crucible/semver"
)

// Uses mirrors original_source's dependency_uses variant: a dependency
// either pulls in every library a package provides (UsesAll) or an
// explicit named subset (Names).
type Uses struct {
	All   bool
	Names []string
}

// UsesAll returns the "implicit_uses_all" variant.
func UsesAll() Uses { return Uses{All: true} }

// UsesList returns the "explicit_uses_list" variant.
func UsesList(names ...string) Uses { return Uses{Names: names} }

// Merge combines two Uses requirements for the same dependency edge,
// widening toward "use everything" if either side does.
func (u Uses) Merge(other Uses) Uses {
	if u.All || other.All {
		return UsesAll()
	}
	seen := map[string]bool{}
	var merged []string
	for _, list := range [][]string{u.Names, other.Names} {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				merged = append(merged, n)
			}
		}
	}
	return Uses{Names: merged}
}

// Dependency is one (name, interval-set, uses) declaration, either
// from the root manifest or from a candidate package.
type Dependency struct {
	Name     string
	Versions semver.IntervalSet
	Uses     Uses
}

// Candidate is one concrete package a PackageSource can offer for a
// name: its identity and its own dependency list.
type Candidate struct {
	ID           model.PackageIdentity
	Dependencies []Dependency
}

// PackageSource answers candidate queries for a package name, sorted
// by version descending (ties broken by revision descending), as a
// `candidates(name) -> [(id, [dep])]` contract. It must be
// deterministic for a given remote revision.
type PackageSource interface {
	Candidates(name string) ([]Candidate, error)
}

// Pin is one resolved package in the pinned closure: its chosen
// identity and the union of uses-requirements placed on it by the
// packages that depend on it.
type Pin struct {
	ID   model.PackageIdentity
	Uses Uses
}

// PinnedSet is the resolver's successful output: a finite map from
// package name to a concrete pin.
type PinnedSet map[string]Pin

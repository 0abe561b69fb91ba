package model

// UsageRequirement is the set of compile/link obligations a library
// contributes to its consumers: public include roots, linker inputs,
// transitive uses-edges, and direct (non-transitive) links-edges.
type UsageRequirement struct {
	IncludeRoots []string
	LinkInputs   []string
	Uses         []LibraryIdentity
	Links        []LibraryIdentity
}

// Library is the unit of usage: a named, namespaced artifact a
// Package provides, carrying its own usage requirement. Grounded on
// the Job type (model/job.go), generalized from "a BOSH job with
// packages/templates/properties" to "a named library with an
// include/link/uses/links contract".
type Library struct {
	Identity LibraryIdentity
	Usage    UsageRequirement
	Sources  []SourceFile

	// Archive is the library's own static-archive output path, set by
	// the build planner once a compile task graph exists for it. Empty
	// for header-only libraries.
	Archive string
}

// Package is a named, versioned, revisioned artifact owning one or
// more Libraries plus license metadata. Grounded on the Release type
// (model/release.go), generalized from "a BOSH release owning jobs and
// packages" to "a package owning libraries".
type Package struct {
	Identity  PackageIdentity
	Path      string
	Libraries []Library
	License   []string // license file paths, relative to Path

	// Local is true for packages materialized from the current
	// project's local source directories (§3.2) rather than fetched
	// from a remote package-source candidate.
	Local bool

	// Dependencies lists this package's own cross-package requirements
	// in the dependency-range grammar, exactly as declared in its
	// manifest's top-level dependencies list. A
	// package-source implementation (index.LocalIndex) parses these
	// into resolver.Dependency values when answering Candidates.
	Dependencies []string
}

// LookupLibrary finds a library within the package by name, mirroring
// Release.LookupJob.
func (p *Package) LookupLibrary(name string) (*Library, error) {
	for i := range p.Libraries {
		if p.Libraries[i].Identity.Name == name {
			return &p.Libraries[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "library", Name: name, Container: p.Identity.Name}
}

// NotFoundError reports a failed lookup of a named entity within a
// container (package, registry), the shape user-input error reporting
// (§7) attaches a "did you mean" suggestion to.
type NotFoundError struct {
	Kind       string
	Name       string
	Container  string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	msg := e.Kind + " " + e.Name + " not found"
	if e.Container != "" {
		msg += " in " + e.Container
	}
	if e.Suggestion != "" {
		msg += " (did you mean " + e.Suggestion + "?)"
	}
	return msg
}

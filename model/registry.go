package model

import (
	"fmt"
	"strings"

	"github.com/crucible-build/crucible/util"
)

// Registry holds two maps — local packages (from the current project)
// and remote packages (from the resolved closure) — and answers usage
// queries across both. Libraries register into a
// single namespace regardless of which map their owning package came
// from. A local registration replaces any library already registered
// under the same identity; a remote registration of an identity that
// is already present fails with a duplicate-identity error.
type Registry struct {
	local  []*Package
	remote []*Package
	byID   map[LibraryIdentity]*Library
	order  []LibraryIdentity // registration order, for deterministic cycle tie-break
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[LibraryIdentity]*Library)}
}

// AddLocal registers a locally-sourced package and its libraries.
func (r *Registry) AddLocal(pkg *Package) error {
	return r.add(pkg, true)
}

// AddRemote registers a package materialized from a resolved remote
// closure.
func (r *Registry) AddRemote(pkg *Package) error {
	return r.add(pkg, false)
}

func (r *Registry) add(pkg *Package, local bool) error {
	if local {
		r.local = append(r.local, pkg)
	} else {
		r.remote = append(r.remote, pkg)
	}
	for i := range pkg.Libraries {
		lib := &pkg.Libraries[i]
		if _, exists := r.byID[lib.Identity]; exists && !local {
			return fmt.Errorf("model: duplicate library identity %s", lib.Identity)
		}
		r.byID[lib.Identity] = lib
		r.order = append(r.order, lib.Identity)
	}
	return nil
}

// LocalPackages returns the registered local packages, in registration order.
func (r *Registry) LocalPackages() []*Package { return r.local }

// RemotePackages returns the registered remote packages, in registration order.
func (r *Registry) RemotePackages() []*Package { return r.remote }

// ResolveUsage looks up a library's usage requirement by identity.
func (r *Registry) ResolveUsage(id LibraryIdentity) (*UsageRequirement, error) {
	lib, ok := r.byID[id]
	if !ok {
		return nil, r.notFound(id)
	}
	return &lib.Usage, nil
}

func (r *Registry) notFound(id LibraryIdentity) error {
	names := make([]string, 0, len(r.order))
	for _, o := range r.order {
		names = append(names, o.String())
	}
	suggestion := util.DidYouMean(id.String(), names)
	return &NotFoundError{Kind: "library", Name: id.String(), Suggestion: suggestion}
}

// IncludePaths returns id's effective include roots: its own roots
// plus, transitively through uses-edges, every upstream library's
// roots — per §4.5's usage-requirement propagation rule. Paths are
// returned in a deterministic depth-first-through-uses order with
// duplicates removed (first occurrence wins).
func (r *Registry) IncludePaths(id LibraryIdentity) ([]string, error) {
	var out []string
	seenLib := map[LibraryIdentity]bool{}
	seenPath := map[string]bool{}

	var walk func(LibraryIdentity) error
	walk = func(cur LibraryIdentity) error {
		if seenLib[cur] {
			return nil
		}
		seenLib[cur] = true
		lib, ok := r.byID[cur]
		if !ok {
			return r.notFound(cur)
		}
		for _, p := range lib.Usage.IncludeRoots {
			if !seenPath[p] {
				seenPath[p] = true
				out = append(out, p)
			}
		}
		for _, use := range lib.Usage.Uses {
			if err := walk(use); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(id); err != nil {
		return nil, err
	}
	return out, nil
}

// LinkPaths returns id's effective link inputs: the transitive closure
// over uses-edges plus id's own direct links-edges, per §4.5
// ("link inputs are the transitive closure over uses plus the direct
// links-edges for executables").
func (r *Registry) LinkPaths(id LibraryIdentity) ([]string, error) {
	var out []string
	seenLib := map[LibraryIdentity]bool{}
	seenPath := map[string]bool{}
	addPath := func(p string) {
		if !seenPath[p] {
			seenPath[p] = true
			out = append(out, p)
		}
	}

	var walkUses func(LibraryIdentity) error
	walkUses = func(cur LibraryIdentity) error {
		if seenLib[cur] {
			return nil
		}
		seenLib[cur] = true
		lib, ok := r.byID[cur]
		if !ok {
			return r.notFound(cur)
		}
		for _, p := range lib.Usage.LinkInputs {
			addPath(p)
		}
		for _, use := range lib.Usage.Uses {
			if err := walkUses(use); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walkUses(id); err != nil {
		return nil, err
	}

	root, ok := r.byID[id]
	if !ok {
		return nil, r.notFound(id)
	}
	for _, link := range root.Usage.Links {
		linkLib, ok := r.byID[link]
		if !ok {
			return nil, r.notFound(link)
		}
		for _, p := range linkLib.Usage.LinkInputs {
			addPath(p)
		}
		if err := walkUses(link); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// CycleError reports a usage-edge cycle, carrying the ordered chain of
// identities that closes the loop.
type CycleError struct {
	Chain []LibraryIdentity
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Chain))
	for i, id := range e.Chain {
		names[i] = id.String()
	}
	return fmt.Sprintf("cyclic usage: %s", strings.Join(names, " -> "))
}

// VerifyAcyclic runs a DFS over the uses-edge graph in registration
// order and reports the first back-edge encountered as a cycle, per
// §4.2's deterministic tie-break rule ("the first cycle found in a DFS
// that visits libraries in the order they were registered").
func (r *Registry) VerifyAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[LibraryIdentity]int, len(r.order))
	var stack []LibraryIdentity

	var visit func(LibraryIdentity) error
	visit = func(id LibraryIdentity) error {
		color[id] = gray
		stack = append(stack, id)

		lib := r.byID[id]
		for _, use := range lib.Usage.Uses {
			switch color[use] {
			case white:
				if err := visit(use); err != nil {
					return err
				}
			case gray:
				chain := append([]LibraryIdentity(nil), stack...)
				chain = append(chain, use)
				return &CycleError{Chain: trimChainTo(chain, use)}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range r.order {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// trimChainTo drops any chain prefix before the first occurrence of
// target, so the reported cycle starts and ends at the same identity.
func trimChainTo(chain []LibraryIdentity, target LibraryIdentity) []LibraryIdentity {
	for i, id := range chain {
		if id == target {
			return chain[i:]
		}
	}
	return chain
}

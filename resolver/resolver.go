package resolver

import (
	"fmt"
	"sort"

	"github.com/crucible-build/crucible/semver"
)

// Resolver wraps one or more PackageSources and produces a pinned
// closure from a root dependency list. Sources are tried in order for
// a given name; a transport failure is recoverable only when a later
// source offers the same name.
type Resolver struct {
	sources []PackageSource
}

// New returns a Resolver consulting sources in order.
func New(sources ...PackageSource) *Resolver {
	return &Resolver{sources: sources}
}

// pendingRequirement is one unsatisfied dependency edge waiting to be
// folded into the solver's running state.
type pendingRequirement struct {
	dep        Dependency
	requiredBy string
}

// decisionPoint records enough state to backtrack a package-version
// choice and try the next candidate, implementing a "decision level":
// each commitment to a candidate is one level, and a conflict unwinds
// to the most recent level with untried alternatives.
type decisionPoint struct {
	name            string
	remaining       []Candidate // candidates not yet tried, highest-priority first
	snapshotState   solverState
	snapshotQueue   []pendingRequirement
	incompatibility Incompatibility
}

// solverState is the mutable assignment the solver builds up:
// per-package accumulated constraints, committed decisions, and the
// union of uses-requirements seen so far.
type solverState struct {
	constraints map[string]semver.IntervalSet
	decisions   map[string]Candidate
	uses        map[string]Uses
}

func newSolverState() solverState {
	return solverState{
		constraints: map[string]semver.IntervalSet{},
		decisions:   map[string]Candidate{},
		uses:        map[string]Uses{},
	}
}

func (s solverState) clone() solverState {
	c := newSolverState()
	for k, v := range s.constraints {
		c.constraints[k] = v
	}
	for k, v := range s.decisions {
		c.decisions[k] = v
	}
	for k, v := range s.uses {
		c.uses[k] = v
	}
	return c
}

// Resolve runs the solver over rootDeps and returns the pinned
// closure, or a *ConflictError describing the minimal failure chain.
func (r *Resolver) Resolve(rootDeps []Dependency) (PinnedSet, error) {
	state := newSolverState()
	queue := make([]pendingRequirement, 0, len(rootDeps))
	for _, d := range rootDeps {
		queue = append(queue, pendingRequirement{dep: d, requiredBy: "<root>"})
	}

	var decisionStack []decisionPoint
	var chain []Incompatibility

	for {
		if len(queue) == 0 {
			return pinnedSetFrom(state), nil
		}

		req := queue[0]
		queue = queue[1:]

		newConstraint := req.dep.Versions
		if existing, ok := state.constraints[req.dep.Name]; ok {
			newConstraint = existing.Intersect(newConstraint)
		}
		state.constraints[req.dep.Name] = newConstraint
		if existingUses, ok := state.uses[req.dep.Name]; ok {
			state.uses[req.dep.Name] = existingUses.Merge(req.dep.Uses)
		} else {
			state.uses[req.dep.Name] = req.dep.Uses
		}

		if decision, ok := state.decisions[req.dep.Name]; ok {
			if newConstraint.Contains(decision.ID.Version) {
				continue
			}
			inc := Incompatibility{
				Package:    req.dep.Name,
				RequiredBy: req.requiredBy,
				Kind:       ConstraintConflictsWithDecision,
				Detail:     fmt.Sprintf("already chose %s", decision.ID),
			}
			var ok2 bool
			state, queue, decisionStack, chain, ok2 = backtrack(decisionStack, chain, inc)
			if !ok2 {
				return nil, &ConflictError{Chain: chain}
			}
			continue
		}

		candidates, err := r.candidatesFor(req.dep.Name)
		if err != nil {
			inc := Incompatibility{
				Package:    req.dep.Name,
				RequiredBy: req.requiredBy,
				Kind:       TransportFailure,
				Detail:     err.Error(),
			}
			var ok2 bool
			state, queue, decisionStack, chain, ok2 = backtrack(decisionStack, chain, inc)
			if !ok2 {
				return nil, &ConflictError{Chain: chain}
			}
			continue
		}

		matching := filterAndSortCandidates(candidates, newConstraint)
		if len(matching) == 0 {
			inc := Incompatibility{
				Package:    req.dep.Name,
				RequiredBy: req.requiredBy,
				Kind:       NoCandidateSatisfies,
				Detail:     "no version in range",
			}
			var ok2 bool
			state, queue, decisionStack, chain, ok2 = backtrack(decisionStack, chain, inc)
			if !ok2 {
				return nil, &ConflictError{Chain: chain}
			}
			continue
		}

		chosen := matching[0]
		decisionStack = append(decisionStack, decisionPoint{
			name:            req.dep.Name,
			remaining:       matching[1:],
			snapshotState:   state.clone(),
			snapshotQueue:   append([]pendingRequirement(nil), queue...),
			incompatibility: Incompatibility{Package: req.dep.Name, RequiredBy: req.requiredBy, Kind: NoCandidateSatisfies},
		})
		state.decisions[req.dep.Name] = chosen
		queue = append(queue, expandCandidateDeps(chosen)...)
	}
}

func expandCandidateDeps(c Candidate) []pendingRequirement {
	out := make([]pendingRequirement, len(c.Dependencies))
	for i, d := range c.Dependencies {
		out[i] = pendingRequirement{dep: d, requiredBy: c.ID.String()}
	}
	return out
}

// backtrack unwinds the decision stack to the most recent point with
// an untried candidate, resuming the search from there with the
// conflicting candidate excluded. It returns ok=false once the stack
// is exhausted, meaning the conflict is unrecoverable.
func backtrack(stack []decisionPoint, chain []Incompatibility, reason Incompatibility) (solverState, []pendingRequirement, []decisionPoint, []Incompatibility, bool) {
	chain = append(chain, reason)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(top.remaining) == 0 {
			continue
		}
		next := top.remaining[0]
		rest := top.remaining[1:]
		state := top.snapshotState.clone()
		queue := append([]pendingRequirement(nil), top.snapshotQueue...)
		state.decisions[top.name] = next
		queue = append(queue, expandCandidateDeps(next)...)
		stack = append(stack, decisionPoint{
			name:            top.name,
			remaining:       rest,
			snapshotState:   top.snapshotState,
			snapshotQueue:   top.snapshotQueue,
			incompatibility: top.incompatibility,
		})
		return state, queue, stack, chain, true
	}
	return solverState{}, nil, nil, chain, false
}

func (r *Resolver) candidatesFor(name string) ([]Candidate, error) {
	var lastErr error
	for _, src := range r.sources {
		cands, err := src.Candidates(name)
		if err == nil {
			return cands, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no package source configured")
	}
	return nil, lastErr
}

// filterAndSortCandidates keeps candidates whose version satisfies
// constraint and sorts by the tie-break rule: highest version, then
// highest revision.
func filterAndSortCandidates(cands []Candidate, constraint semver.IntervalSet) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if constraint.Contains(c.ID.Version) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID.Compare(out[j].ID) > 0
	})
	return out
}

func pinnedSetFrom(state solverState) PinnedSet {
	pinned := make(PinnedSet, len(state.decisions))
	for name, c := range state.decisions {
		pinned[name] = Pin{ID: c.ID, Uses: state.uses[name]}
	}
	return pinned
}

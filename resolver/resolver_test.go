package resolver_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-build/crucible/model"
	"github.com/crucible-build/crucible/resolver"
	"github.com/crucible-build/crucible/semver"
)

// fakeSource is an in-memory PackageSource for testing, keyed by name
// with pre-seeded candidates sorted caller-side however it likes; the
// resolver re-sorts internally so input order does not matter.
type fakeSource struct {
	candidates map[string][]resolver.Candidate
}

func (f *fakeSource) Candidates(name string) ([]resolver.Candidate, error) {
	cands, ok := f.candidates[name]
	if !ok {
		return nil, nil
	}
	return cands, nil
}

func cand(name, version string, deps ...resolver.Dependency) resolver.Candidate {
	return resolver.Candidate{
		ID:           model.PackageIdentity{Name: name, Version: semver.MustParse(version)},
		Dependencies: deps,
	}
}

func rangeOf(s string) semver.IntervalSet {
	r, err := semver.ParseRange("x" + s)
	if err != nil {
		panic(err)
	}
	return r.Versions
}

func dep(name, rangeStr string) resolver.Dependency {
	return resolver.Dependency{Name: name, Versions: rangeOf(rangeStr), Uses: resolver.UsesAll()}
}

func TestResolveSimpleChain(t *testing.T) {
	src := &fakeSource{candidates: map[string][]resolver.Candidate{
		"a": {cand("a", "1.0.0", dep("b", "@1.0.0"))},
		"b": {cand("b", "1.0.0"), cand("b", "1.5.0")},
	}}
	r := resolver.New(src)

	pinned, err := r.Resolve([]resolver.Dependency{dep("a", "@1.0.0")})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", pinned["a"].ID.Version.String())
	// "b" candidate highest within [1.0.0,2.0.0) is 1.5.0.
	assert.Equal(t, "1.5.0", pinned["b"].ID.Version.String())
}

func TestResolvePicksHighestVersionThenRevision(t *testing.T) {
	higherRev := model.PackageIdentity{Name: "b", Version: semver.MustParse("1.0.0"), Revision: 2}
	lowerRev := model.PackageIdentity{Name: "b", Version: semver.MustParse("1.0.0"), Revision: 1}
	src := &fakeSource{candidates: map[string][]resolver.Candidate{
		"b": {{ID: lowerRev}, {ID: higherRev}},
	}}
	r := resolver.New(src)

	pinned, err := r.Resolve([]resolver.Dependency{dep("b", "@1.0.0")})
	require.NoError(t, err)
	assert.Equal(t, 2, pinned["b"].ID.Revision)
}

func TestResolveBacktracksOnConflict(t *testing.T) {
	// a requires b@2.0.0 (only 2.x satisfies); c requires b~1.0.0.
	// With only one candidate for a (forcing b into 2.x) and b having
	// both a 1.x and a 2.x candidate, the solver must prefer the
	// combination that satisfies both constraints: none does, so this
	// should fail; but if a instead has two candidates (one requiring
	// b@1.0.0), backtracking to the alternate a candidate succeeds.
	src := &fakeSource{candidates: map[string][]resolver.Candidate{
		"a": {
			cand("a", "2.0.0", dep("b", "@2.0.0")),
			cand("a", "1.0.0", dep("b", "@1.0.0")),
		},
		"b": {cand("b", "1.0.0"), cand("b", "2.0.0")},
		"c": {cand("c", "1.0.0", dep("b", "~1.0.0"))},
	}}
	r := resolver.New(src)

	pinned, err := r.Resolve([]resolver.Dependency{
		dep("a", "@[(>=1.0.0 <3.0.0)]"),
		dep("c", "@1.0.0"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", pinned["a"].ID.Version.String())
	assert.Equal(t, "1.0.0", pinned["b"].ID.Version.String())
}

func TestResolveReportsConflictWhenUnsatisfiable(t *testing.T) {
	src := &fakeSource{candidates: map[string][]resolver.Candidate{
		"a": {cand("a", "1.0.0", dep("b", "@2.0.0"))},
		"c": {cand("c", "1.0.0", dep("b", "@1.0.0"))},
		"b": {cand("b", "1.0.0"), cand("b", "2.0.0")},
	}}
	r := resolver.New(src)

	_, err := r.Resolve([]resolver.Dependency{dep("a", "@1.0.0"), dep("c", "@1.0.0")})
	require.Error(t, err)
	var conflictErr *resolver.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.NotEmpty(t, conflictErr.Chain)
}

func TestResolveTransportFailureFallsBackToNextSource(t *testing.T) {
	failing := sourceFunc(func(string) ([]resolver.Candidate, error) {
		return nil, fmt.Errorf("network unreachable")
	})
	working := &fakeSource{candidates: map[string][]resolver.Candidate{
		"a": {cand("a", "1.0.0")},
	}}
	r := resolver.New(failing, working)

	pinned, err := r.Resolve([]resolver.Dependency{dep("a", "@1.0.0")})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", pinned["a"].ID.Version.String())
}

type sourceFunc func(string) ([]resolver.Candidate, error)

func (f sourceFunc) Candidates(name string) ([]resolver.Candidate, error) { return f(name) }

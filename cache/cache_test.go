package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-build/crucible/cache"
	"github.com/crucible-build/crucible/model"
	"github.com/crucible-build/crucible/resolver"
	"github.com/crucible-build/crucible/semver"
)

func openTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open(filepath.Join(t.TempDir(), "candidates.bbolt"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleCandidates(t *testing.T) []resolver.Candidate {
	t.Helper()
	id, err := model.ParsePackageID("util@1.2.0")
	require.NoError(t, err)
	rng, err := semver.ParseRange("libc@1.0.0")
	require.NoError(t, err)
	return []resolver.Candidate{{
		ID: id,
		Dependencies: []resolver.Dependency{
			{Name: rng.Name, Versions: rng.Versions, Uses: resolver.UsesList("core")},
		},
	}}
}

func TestLookupMissReportsFalse(t *testing.T) {
	c := openTestCache(t)
	_, ok, err := c.Lookup("util", "rev1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreThenLookupRoundTrips(t *testing.T) {
	c := openTestCache(t)
	want := sampleCandidates(t)

	require.NoError(t, c.Store("util", "rev1", want))

	got, ok, err := c.Lookup("util", "rev1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].ID, got[0].ID)
	require.Len(t, got[0].Dependencies, 1)
	assert.Equal(t, "libc", got[0].Dependencies[0].Name)
	assert.True(t, got[0].Dependencies[0].Uses.Names[0] == "core")
}

func TestLookupRevisionMismatchMisses(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Store("util", "rev1", sampleCandidates(t)))

	_, ok, err := c.Lookup("util", "rev2")
	require.NoError(t, err)
	assert.False(t, ok)
}

type fakeSource struct {
	calls int
	resp  []resolver.Candidate
}

func (f *fakeSource) Candidates(name string) ([]resolver.Candidate, error) {
	f.calls++
	return f.resp, nil
}

func TestSourceCachesAcrossCallsAtSameRevision(t *testing.T) {
	c := openTestCache(t)
	upstream := &fakeSource{resp: sampleCandidates(t)}
	src := &cache.Source{
		Upstream:   upstream,
		Cache:      c,
		RevisionOf: func(string) (string, error) { return "rev1", nil },
	}

	_, err := src.Candidates("util")
	require.NoError(t, err)
	_, err = src.Candidates("util")
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.calls, "second call should be served from cache")
}

func TestSourceRefetchesOnRevisionChange(t *testing.T) {
	c := openTestCache(t)
	upstream := &fakeSource{resp: sampleCandidates(t)}
	rev := "rev1"
	src := &cache.Source{
		Upstream:   upstream,
		Cache:      c,
		RevisionOf: func(string) (string, error) { return rev, nil },
	}

	_, err := src.Candidates("util")
	require.NoError(t, err)
	rev = "rev2"
	_, err = src.Candidates("util")
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.calls)
}

func TestSourceBypassesCacheWhenRevisionEmpty(t *testing.T) {
	c := openTestCache(t)
	upstream := &fakeSource{resp: sampleCandidates(t)}
	src := &cache.Source{
		Upstream:   upstream,
		Cache:      c,
		RevisionOf: func(string) (string, error) { return "", nil },
	}

	_, err := src.Candidates("util")
	require.NoError(t, err)
	_, err = src.Candidates("util")
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.calls)
}

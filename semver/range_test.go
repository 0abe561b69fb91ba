package semver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-build/crucible/semver"
)

func TestParseRangeAtOperator(t *testing.T) {
	// "foo@1.2.3" yields interval [1.2.3, 2.0.0)
	r, err := semver.ParseRange("foo@1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "foo", r.Name)
	require.Len(t, r.Versions.Intervals(), 1)
	iv := r.Versions.Intervals()[0]
	assert.Equal(t, "1.2.3", iv.Lo.String())
	assert.Equal(t, "2.0.0", iv.Hi.String())
	assert.False(t, iv.HiInclusive)
}

func TestParseRangeTildeOperator(t *testing.T) {
	// "foo~1.2.3" yields interval [1.2.3, 1.3.0)
	r, err := semver.ParseRange("foo~1.2.3")
	require.NoError(t, err)
	iv := r.Versions.Intervals()[0]
	assert.Equal(t, "1.2.3", iv.Lo.String())
	assert.Equal(t, "1.3.0", iv.Hi.String())
}

func TestParseRangeCaretEquivalentToAt(t *testing.T) {
	at, err := semver.ParseRange("foo@1.2.3")
	require.NoError(t, err)
	caret, err := semver.ParseRange("foo^1.2.3")
	require.NoError(t, err)
	assert.Equal(t, at.Versions.Intervals(), caret.Versions.Intervals())
}

func TestParseRangeEqualsOperator(t *testing.T) {
	r, err := semver.ParseRange("foo=1.2.3")
	require.NoError(t, err)
	iv := r.Versions.Intervals()[0]
	assert.True(t, iv.Contains(semver.MustParse("1.2.3")))
	assert.False(t, iv.Contains(semver.MustParse("1.2.4")))
}

func TestParseRangeBracketedUnion(t *testing.T) {
	r, err := semver.ParseRange("foo@[(>=1.0.0 <2.0.0) || (>=3.0.0 <4.0.0)]")
	require.NoError(t, err)
	assert.Equal(t, "foo", r.Name)
	assert.True(t, r.Versions.Contains(semver.MustParse("1.5.0")))
	assert.True(t, r.Versions.Contains(semver.MustParse("3.5.0")))
	assert.False(t, r.Versions.Contains(semver.MustParse("2.5.0")))
}

func TestParseRangeRejectsMissingOperator(t *testing.T) {
	_, err := semver.ParseRange("foo1.2.3")
	assert.Error(t, err)
}

func TestRangeStringRoundTripsCanonicalForms(t *testing.T) {
	for _, s := range []string{"foo@1.2.3", "foo~1.2.3", "foo=1.2.3"} {
		r, err := semver.ParseRange(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, r.String(), s)
	}
}

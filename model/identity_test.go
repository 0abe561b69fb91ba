package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-build/crucible/model"
)

func TestParsePackageIDRoundTrip(t *testing.T) {
	id, err := model.ParsePackageID("foo@1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "foo", id.Name)
	assert.Equal(t, "1.2.3", id.Version.String())
	assert.Equal(t, 0, id.Revision)
	assert.Equal(t, "foo@1.2.3", id.String())
}

func TestParsePackageIDWithRevision(t *testing.T) {
	id, err := model.ParsePackageID("foo@1.2.3~4")
	require.NoError(t, err)
	assert.Equal(t, 4, id.Revision)
	assert.Equal(t, "foo@1.2.3~4", id.String())
}

func TestParsePackageIDRejectsMissingAt(t *testing.T) {
	_, err := model.ParsePackageID("foo1.2.3")
	assert.Error(t, err)
}

func TestPackageIdentityCompareTieBreak(t *testing.T) {
	a, _ := model.ParsePackageID("foo@1.2.3~1")
	b, _ := model.ParsePackageID("foo@1.2.3~2")
	c, _ := model.ParsePackageID("foo@1.3.0~1")

	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Negative(t, b.Compare(c))
}

package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crucible-build/crucible/model"
)

func TestClassifySourceFile(t *testing.T) {
	cases := map[string]model.SourceKind{
		"widget.h":        model.KindHeader,
		"widget.hpp":      model.KindHeader,
		"widget.inl":      model.KindHeaderImpl,
		"widget.tpp":      model.KindHeaderTemplate,
		"widget.cpp":      model.KindSource,
		"widget.c":        model.KindSource,
		"widget.test.cpp": model.KindTest,
		"widget.main.cpp": model.KindApp,
	}
	for path, want := range cases {
		assert.Equal(t, want, model.ClassifySourceFile(path), path)
	}
}

func TestIsHeaderLike(t *testing.T) {
	assert.True(t, model.KindHeader.IsHeaderLike())
	assert.True(t, model.KindHeaderImpl.IsHeaderLike())
	assert.False(t, model.KindSource.IsHeaderLike())
	assert.False(t, model.KindTest.IsHeaderLike())
}

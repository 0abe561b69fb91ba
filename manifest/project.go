// Package manifest implements the two external-collaborator manifest
// formats: the root project manifest (`crucible.json`, plain JSON) and
// per-user toolchain-file definitions
// (`~/.crucible/toolchains/*.toml`). Local source-package metadata
// (`package.yml`) is instead owned by model.LoadPackageDirectory,
// since it builds model.Package values directly rather than an
// intermediate manifest shape this package would otherwise duplicate.
//
// The CLI-facing pieces follow cmd/root.go's viper-backed flag/env/file
// layering.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/crucible-build/crucible/errctx"
	"github.com/crucible-build/crucible/validation"
)

// ProjectManifest is crucible.json's parsed shape: a project name, its
// direct dependency declarations in the version-range grammar, and the
// local source directories to scan for packages.
type ProjectManifest struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
	SourceDirs   []string `json:"source_dirs"`
}

// LoadProjectManifest reads and validates path as a ProjectManifest.
func LoadProjectManifest(path string) (*ProjectManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errctx.With(err, "file", path)
	}

	var m ProjectManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errctx.With(fmt.Errorf("manifest: parsing project manifest: %w", err), "file", path)
	}

	if errs := m.validate(); len(errs) > 0 {
		return nil, errctx.With(errs.ToAggregate(), "file", path)
	}

	return &m, nil
}

// validate collects every independent problem with m rather than
// stopping at the first, using the validation.ErrorList convention.
func (m *ProjectManifest) validate() validation.ErrorList {
	var errs validation.ErrorList

	if m.Name == "" {
		errs = append(errs, validation.Required("name", "project manifest must declare a name"))
	}
	for i, dep := range m.Dependencies {
		if dep == "" {
			errs = append(errs, validation.Invalid(fmt.Sprintf("dependencies[%d]", i), dep, "dependency declaration is empty"))
		}
	}
	if len(m.SourceDirs) == 0 {
		errs = append(errs, validation.Required("source_dirs", "at least one local source directory is required"))
	}

	return errs
}

package planner

import (
	"fmt"
	"os"
	"path/filepath"

	shutil "github.com/termie/go-shutil"
)

// StageDependencies copies each of includeRoots into a per-library
// sandbox directory under sandboxRoot/libName/include, so a downstream
// compile sees a single staged include tree rather than scattered
// upstream source directories.
//
// Grounded line-for-line on compilator.go's copyDependencies: clear any
// stale copy of the destination first, then shutil.CopyTree with
// symlinks preserved, retargeted from "copy a compiled BOSH package
// into a container mount" to "copy a library's public include tree
// into a downstream compile sandbox".
func StageDependencies(sandboxRoot, libName string, includeRoots []string) (string, error) {
	dest := filepath.Join(sandboxRoot, libName, "include")

	for _, root := range includeRoots {
		target := filepath.Join(dest, filepath.Base(root))

		if err := os.RemoveAll(target); err != nil {
			return "", fmt.Errorf("planner: clearing stage target %s: %w", target, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", fmt.Errorf("planner: creating stage dir for %s: %w", target, err)
		}

		if err := shutil.CopyTree(
			root,
			target,
			&shutil.CopyTreeOptions{
				Symlinks:               true,
				Ignore:                 nil,
				CopyFunction:           shutil.Copy,
				IgnoreDanglingSymlinks: false,
			},
		); err != nil {
			return "", fmt.Errorf("planner: staging %s into %s: %w", root, target, err)
		}
	}

	return dest, nil
}

package util

import (
	"fmt"
	"io"
	"os"
)

// ValidatePath checks that path exists and is a directory (if
// shouldBeDir) or a regular file (otherwise). It mirrors the check the
// teacher performs before trusting a release directory or manifest
// file, generalized to any path/description pair.
func ValidatePath(path string, shouldBeDir bool, description string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("invalid %s %s: %v", description, path, err)
	}

	if info.IsDir() && !shouldBeDir {
		return fmt.Errorf("path %s (%s) points to a directory, expected a file", path, description)
	}
	if !info.IsDir() && shouldBeDir {
		return fmt.Errorf("path %s (%s) points to a file, expected a directory", path, description)
	}

	return nil
}

// PathExists reports whether path exists, distinguishing "does not
// exist" from other stat failures.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsDirEmpty reports whether the directory at path has no entries.
func IsDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return true, err
	}
	defer f.Close()

	_, err = f.Readdir(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Collaborator is the storage interface consumed by the scenario resolver.
// The resolver never touches the filesystem directly, which keeps stale-entry
// and copy behavior testable with stubs.
type Collaborator interface {
	// Exists reports whether the artifact at the given location is present.
	Exists(location string) bool
	// Copy duplicates the artifact into destDir and returns the new location.
	Copy(location, destDir string) (string, error)
}

// Local is the production Collaborator backed by the local filesystem.
type Local struct {
	// Verified enables SHA-256 + size verification on every copy.
	Verified bool
}

// Exists reports whether location names an existing regular file.
func (l *Local) Exists(location string) bool {
	info, err := os.Stat(location)
	return err == nil && info.Mode().IsRegular()
}

// Copy places the artifact into destDir, keeping its base name.
func (l *Local) Copy(location, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create destination directory: %w", err)
	}
	dest := filepath.Join(destDir, filepath.Base(location))
	if l.Verified {
		if err := copyFileVerified(location, dest); err != nil {
			return "", err
		}
		return dest, nil
	}
	if err := copyFile(location, dest); err != nil {
		return "", err
	}
	return dest, nil
}

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appName = "confsync"

// StateDir returns the directory holding manifests, the lock file and
// default backups, creating it if necessary.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".local", "state", appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	return dir, nil
}

// LocalManifestPath returns where the producer-side manifest is stored
func LocalManifestPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "manifest.local"), nil
}

// RemoteManifestCachePath returns where a fetched remote manifest is cached
func RemoteManifestCachePath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "manifest.remote"), nil
}

// LockPath returns the sync lock file path
func LockPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sync.lock"), nil
}

// DefaultBackupDir returns the default snapshot directory
func DefaultBackupDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backups"), nil
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

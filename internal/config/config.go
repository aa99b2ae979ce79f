// Package config handles the extraction store layout and global settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	StoreDir        = ".citx"
	ExtractionsFile = "extractions.jsonl"
	CacheDir        = "cache"
	DBFile          = "citations.db"
)

// StorePath returns the path to the .citx directory from a root path.
func StorePath(root string) string {
	return filepath.Join(root, StoreDir)
}

// ExtractionsPath returns the path to extractions.jsonl from a root path.
func ExtractionsPath(root string) string {
	return filepath.Join(root, StoreDir, ExtractionsFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, StoreDir, CacheDir)
}

// DBPath returns the path to citations.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, StoreDir, CacheDir, DBFile)
}

// IsStore checks if the given path contains an extraction store.
func IsStore(root string) bool {
	info, err := os.Stat(StorePath(root))
	return err == nil && info.IsDir()
}

// FindStore walks up from the given path to find an extraction store.
// Returns the store root path or an error if not found.
func FindStore(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsStore(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a citx store (no %s directory found; run 'citx init')", StoreDir)
		}
		abs = parent
	}
}

// InitStore creates the store directories under root. It is safe to call
// on an existing store.
func InitStore(root string) error {
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	f, err := os.OpenFile(ExtractionsPath(root), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("creating extractions file: %w", err)
	}
	return f.Close()
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

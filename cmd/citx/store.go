package main

import (
	"fmt"
	"os"

	"github.com/matsen/citextract/internal/config"
	"github.com/matsen/citextract/internal/storage"
)

// workingRoot returns CITX_ROOT if set, else the current directory.
func workingRoot() (string, error) {
	if root := os.Getenv(config.EnvRoot); root != "" {
		return root, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

// requireStore returns the enclosing store root, or exits with a config
// error if there is none.
func requireStore() string {
	start, err := workingRoot()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	root, err := config.FindStore(start)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return root
}

// openStoreDB opens the query database of the store at root.
func openStoreDB(root string) (*storage.DB, error) {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// saveExtractions records exts in the store. A record whose document
// content was saved before replaces the earlier record and takes over its
// ID; others are appended. IDs in exts are updated in place. It returns the
// number of records replaced.
func saveExtractions(root string, exts []storage.Extraction) (int, error) {
	path := config.ExtractionsPath(root)
	existing, err := storage.ReadAll(path)
	if err != nil {
		return 0, err
	}

	all := existing
	updated := 0
	for i := range exts {
		if idx, found := storage.FindBySHA(all, exts[i].SHA256); found {
			exts[i].ID = all[idx].ID
			all[idx] = exts[i]
			updated++
			continue
		}
		all = append(all, exts[i])
	}

	if updated > 0 {
		err = storage.WriteAll(path, all)
	} else {
		for _, e := range exts {
			if err = storage.Append(path, e); err != nil {
				break
			}
		}
	}
	if err != nil {
		return 0, err
	}

	db, err := openStoreDB(root)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	for _, e := range exts {
		if err := db.Insert(e); err != nil {
			return 0, fmt.Errorf("indexing extraction: %w", err)
		}
	}
	return updated, nil
}

// lookupExtraction finds a saved extraction by ID. The query database is
// consulted first; the JSONL file covers records it has not indexed yet.
func lookupExtraction(root, id string) (*storage.Extraction, error) {
	db, err := openStoreDB(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	e, err := db.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	if e != nil {
		return e, nil
	}

	exts, err := storage.ReadAll(config.ExtractionsPath(root))
	if err != nil {
		return nil, err
	}
	if idx, found := storage.FindByID(exts, id); found {
		return &exts[idx], nil
	}
	return nil, nil
}

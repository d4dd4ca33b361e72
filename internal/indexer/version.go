package indexer

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/glsld/glsld/internal/errors"
)

// IndexVersion is the on-disk layout version of the declaration cache.
// Bump it whenever glsl.UnitDecls or the record schema changes shape.
const IndexVersion = 2

const versionFileName = "index_version"

// CheckAndMigrateCache clears cacheDir when its version marker is missing,
// unreadable or stale. It reports whether the cache was reset.
func CheckAndMigrateCache(cacheDir string) (bool, error) {
	versionFile := filepath.Join(cacheDir, versionFileName)

	data, err := os.ReadFile(versionFile)
	switch {
	case os.IsNotExist(err):
		return true, resetCache(cacheDir)
	case err != nil:
		return false, errors.Wrap(err, "failed to read cache version")
	}

	stored, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || stored != IndexVersion {
		return true, resetCache(cacheDir)
	}
	return false, nil
}

func resetCache(cacheDir string) error {
	if err := clearCacheDir(cacheDir); err != nil {
		return errors.Wrap(err, "failed to clear cache")
	}
	versionFile := filepath.Join(cacheDir, versionFileName)
	if err := os.WriteFile(versionFile, []byte(strconv.Itoa(IndexVersion)), 0o644); err != nil {
		return errors.Wrap(err, "failed to write cache version")
	}
	return nil
}

// clearCacheDir empties cacheDir, creating it when absent.
func clearCacheDir(cacheDir string) error {
	entries, err := os.ReadDir(cacheDir)
	if os.IsNotExist(err) {
		return os.MkdirAll(cacheDir, 0o755)
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(cacheDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return errors.Wrapf(err, "failed to remove %s", path)
		}
	}
	return nil
}

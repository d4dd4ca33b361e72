// Package indexer keeps per-file records of the workspace's shader sources
// up to date. FileScanner finds changed files, parses them and hands the
// result to every registered Indexer.
package indexer

import "github.com/glsld/glsld/internal/glsl"

// Indexer consumes parsed workspace files. Index may be called from several
// scanner workers at once.
type Indexer interface {
	ID() string
	Index(path string, unit *glsl.Unit, content []byte) error
	RemovedFiles(paths []string) error
	Close() error
	Clear() error
}

package workspace

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/glsld/glsld/internal/config"
	"github.com/glsld/glsld/internal/errors"
	"github.com/glsld/glsld/internal/indexer"
	"github.com/glsld/glsld/internal/logger"
)

// Project bundles the index state of one workspace root.
type Project struct {
	Root    string
	Config  *config.Config
	Decls   *DeclIndexer
	Scanner *indexer.FileScanner
}

// OpenProject prepares the cache folder of root and opens its indexes.
// Nothing is scanned until the caller runs the scanner.
func OpenProject(root string, cfg *config.Config) (*Project, error) {
	log := logger.ComponentLogger("workspace")

	cleared, err := indexer.CheckAndMigrateCache(cfg.CacheDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare cache folder")
	}
	if cleared {
		log.Infow("Cache cleared for new index version", logger.FieldPath, cfg.CacheDir)
	}

	decls, err := NewDeclIndexer(cfg.CacheDir, cfg.IncludeDirs)
	if err != nil {
		return nil, err
	}

	scanner, err := indexer.NewFileScanner(root, filepath.Join(cfg.CacheDir, "scanner.db"), indexer.ScannerOptions{
		Extensions: cfg.Extensions,
		Debounce:   indexer.DefaultDebounce,
	})
	if err != nil {
		return nil, errors.CombineErrors(err, decls.Close())
	}
	scanner.AddIndexer(decls)

	return &Project{
		Root:    root,
		Config:  cfg,
		Decls:   decls,
		Scanner: scanner,
	}, nil
}

// Close stops the watcher and closes every index.
func (p *Project) Close() error {
	return p.Scanner.Close()
}

// WorkspaceSymbols returns the indexed global declarations whose name
// contains query, case-insensitively. Results are sorted by name.
func (p *Project) WorkspaceSymbols(query string) ([]SymbolLocation, error) {
	names, err := p.Decls.SymbolNames("")
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)

	var out []SymbolLocation
	for _, name := range names {
		if !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		locs, err := p.Decls.FindSymbol(name)
		if err != nil {
			return nil, err
		}
		out = append(out, locs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

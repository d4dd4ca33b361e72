// Package workspace stores the global declarations of every shader file in
// the workspace and resolves #include directives against them.
package workspace

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/glsld/glsld/internal/errors"
	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/indexer"
	"github.com/glsld/glsld/internal/logger"
	"go.uber.org/zap"
)

const unitKey = "unit"

// SymbolLocation is the index record for one global declaration.
type SymbolLocation struct {
	Name   string
	URI    string
	Line   int
	Column int
	Kind   glsl.SymbolKind
	IsType bool
	Detail string
}

// Overlay supplies units for documents open in the editor so includes see
// unsaved edits.
type Overlay interface {
	OpenUnit(uri string) (*glsl.Unit, bool)
}

// DeclIndexer implements indexer.Indexer and glsl.IncludeSource.
type DeclIndexer struct {
	units       *indexer.DataIndexer[glsl.UnitDecls]
	symbols     *indexer.DataIndexer[SymbolLocation]
	includeDirs []string
	overlay     Overlay
	log         *zap.SugaredLogger

	mu      sync.Mutex
	decoded map[string]*glsl.Unit
}

var (
	_ indexer.Indexer    = (*DeclIndexer)(nil)
	_ glsl.IncludeSource = (*DeclIndexer)(nil)
)

// NewDeclIndexer opens the declaration databases under cacheDir.
func NewDeclIndexer(cacheDir string, includeDirs []string) (*DeclIndexer, error) {
	units, err := indexer.NewDataIndexer[glsl.UnitDecls](filepath.Join(cacheDir, "decls.db"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open declaration index")
	}
	symbols, err := indexer.NewDataIndexer[SymbolLocation](filepath.Join(cacheDir, "symbols.db"))
	if err != nil {
		_ = units.Close()
		return nil, errors.Wrap(err, "failed to open symbol index")
	}
	return &DeclIndexer{
		units:       units,
		symbols:     symbols,
		includeDirs: includeDirs,
		log:         logger.ComponentLogger("workspace"),
		decoded:     make(map[string]*glsl.Unit),
	}, nil
}

// SetOverlay registers the source of open-document units.
func (d *DeclIndexer) SetOverlay(o Overlay) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overlay = o
}

func (d *DeclIndexer) ID() string {
	return "glsl.decls"
}

// Index stores the global declarations of unit under path.
func (d *DeclIndexer) Index(path string, unit *glsl.Unit, _ []byte) error {
	if err := d.units.ReplaceFile(path, map[string]glsl.UnitDecls{unitKey: glsl.EncodeUnit(unit)}); err != nil {
		return err
	}

	locations := make(map[string]SymbolLocation)
	for _, sym := range unit.Global.Symbols {
		if _, dup := locations[sym.Name]; dup {
			continue
		}
		locations[sym.Name] = SymbolLocation{
			Name:   sym.Name,
			URI:    unit.URI,
			Line:   sym.Loc.Pos.Line,
			Column: sym.Loc.Pos.Column,
			Kind:   sym.Kind,
			Detail: symbolDetail(sym),
		}
	}
	for _, ts := range unit.Types {
		if _, dup := locations[ts.Name]; dup {
			continue
		}
		locations[ts.Name] = SymbolLocation{
			Name:   ts.Name,
			URI:    unit.URI,
			Line:   ts.Loc.Pos.Line,
			Column: ts.Loc.Pos.Column,
			IsType: true,
			Detail: typeDetail(ts),
		}
	}
	if err := d.symbols.ReplaceFile(path, locations); err != nil {
		return err
	}

	d.forget(path)
	return nil
}

func symbolDetail(sym *glsl.Symbol) string {
	if sym.Kind == glsl.SymbolFunction {
		return sym.Signature()
	}
	return glsl.TypeString(sym.Type)
}

func typeDetail(ts glsl.TypeSymbol) string {
	if _, ok := ts.Type.(*glsl.ReferenceType); ok {
		return "buffer_reference " + ts.Name
	}
	return "struct " + ts.Name
}

func (d *DeclIndexer) RemovedFiles(paths []string) error {
	if err := d.units.DeleteFiles(paths); err != nil {
		return err
	}
	if err := d.symbols.DeleteFiles(paths); err != nil {
		return err
	}
	d.forget(paths...)
	return nil
}

func (d *DeclIndexer) Clear() error {
	d.mu.Lock()
	d.decoded = make(map[string]*glsl.Unit)
	d.mu.Unlock()
	return errors.CombineErrors(d.units.Clear(), d.symbols.Clear())
}

func (d *DeclIndexer) Close() error {
	return errors.CombineErrors(d.units.Close(), d.symbols.Close())
}

func (d *DeclIndexer) forget(paths ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, path := range paths {
		delete(d.decoded, path)
	}
}

// Unit returns the indexed declarations of path.
func (d *DeclIndexer) Unit(path string) (*glsl.Unit, bool) {
	d.mu.Lock()
	unit, ok := d.decoded[path]
	d.mu.Unlock()
	if ok {
		return unit, true
	}

	decls, ok, err := d.units.Get(path, unitKey)
	if err != nil {
		d.log.Warnw("Failed to read declarations", logger.FieldPath, path, logger.FieldError, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	unit = glsl.DecodeUnit(decls)

	d.mu.Lock()
	d.decoded[path] = unit
	d.mu.Unlock()
	return unit, true
}

// Resolve finds the unit an #include refers to. Relative paths are tried
// next to the including file first, then under each include directory. Open
// documents win over the index, and the index wins over the disk.
func (d *DeclIndexer) Resolve(fromURI, include string) (*glsl.Unit, bool) {
	d.mu.Lock()
	overlay := d.overlay
	d.mu.Unlock()

	for _, path := range d.candidates(fromURI, include) {
		if overlay != nil {
			if unit, ok := overlay.OpenUnit(glsl.PathToURI(path)); ok {
				return unit, true
			}
		}
		if unit, ok := d.Unit(path); ok {
			return unit, true
		}
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return glsl.ParseWithOptions(string(content), glsl.ParseOptions{URI: glsl.PathToURI(path)}), true
	}
	d.log.Debugw("Unresolved include", logger.FieldURI, fromURI, logger.FieldPath, include)
	return nil, false
}

func (d *DeclIndexer) candidates(fromURI, include string) []string {
	if filepath.IsAbs(include) {
		return []string{filepath.Clean(include)}
	}
	var out []string
	if fromURI != "" {
		out = append(out, filepath.Join(filepath.Dir(glsl.URIToPath(fromURI)), include))
	}
	for _, dir := range d.includeDirs {
		out = append(out, filepath.Join(dir, include))
	}
	return out
}

// FindSymbol returns every indexed global declaration named name.
func (d *DeclIndexer) FindSymbol(name string) ([]SymbolLocation, error) {
	return d.symbols.GetValues(name)
}

// SymbolNames returns the indexed global names starting with prefix.
func (d *DeclIndexer) SymbolNames(prefix string) ([]string, error) {
	return d.symbols.GetKeysByPrefix(prefix)
}

// Files lists the indexed file paths.
func (d *DeclIndexer) Files() ([]string, error) {
	return d.units.FilePaths()
}

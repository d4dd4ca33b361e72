package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glsld/glsld/internal/glsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lightingSource = `struct Light { vec3 dir; vec3 color; };
uniform Light sun;
vec3 shade(Light l, vec3 n) { return l.color; }
`

func newTestIndexer(t *testing.T, includeDirs ...string) *DeclIndexer {
	t.Helper()
	d, err := NewDeclIndexer(t.TempDir(), includeDirs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func indexSource(t *testing.T, d *DeclIndexer, path, source string) {
	t.Helper()
	unit := glsl.ParseWithOptions(source, glsl.ParseOptions{URI: glsl.PathToURI(path)})
	require.NoError(t, d.Index(path, unit, []byte(source)))
}

func TestDeclIndexerStoresUnits(t *testing.T) {
	d := newTestIndexer(t)
	path := filepath.Join(t.TempDir(), "lighting.glsl")
	indexSource(t, d, path, lightingSource)

	unit, ok := d.Unit(path)
	require.True(t, ok)
	_, ok = unit.LookupType("Light")
	assert.True(t, ok)
	sun, ok := unit.Global.Lookup("sun")
	require.True(t, ok)
	assert.Equal(t, "Light", glsl.TypeString(sun.Type))

	again, ok := d.Unit(path)
	require.True(t, ok)
	assert.Same(t, unit, again, "decoded units are cached")

	files, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestDeclIndexerSymbols(t *testing.T) {
	d := newTestIndexer(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.glsl")
	b := filepath.Join(dir, "b.glsl")
	indexSource(t, d, a, lightingSource)
	indexSource(t, d, b, "vec3 shade(vec3 n) { return n; }\nfloat shadowBias;\n")

	locs, err := d.FindSymbol("shade")
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, glsl.PathToURI(a), locs[0].URI)
	assert.Equal(t, 2, locs[0].Line)
	assert.Equal(t, glsl.SymbolFunction, locs[0].Kind)
	assert.Equal(t, "vec3 shade(Light l, vec3 n)", locs[0].Detail)

	names, err := d.SymbolNames("sha")
	require.NoError(t, err)
	assert.Equal(t, []string{"shade", "shadowBias"}, names)

	locs, err = d.FindSymbol("Light")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "struct Light", locs[0].Detail)

	require.NoError(t, d.RemovedFiles([]string{a}))
	locs, err = d.FindSymbol("shade")
	require.NoError(t, err)
	assert.Len(t, locs, 1)
	_, ok := d.Unit(a)
	assert.False(t, ok)
}

func TestDeclIndexerReindexInvalidatesCache(t *testing.T) {
	d := newTestIndexer(t)
	path := filepath.Join(t.TempDir(), "a.glsl")
	indexSource(t, d, path, "float before;\n")
	_, ok := d.Unit(path)
	require.True(t, ok)

	indexSource(t, d, path, "float after;\n")
	unit, ok := d.Unit(path)
	require.True(t, ok)
	_, ok = unit.Global.Lookup("after")
	assert.True(t, ok)
	_, ok = unit.Global.Lookup("before")
	assert.False(t, ok)

	require.NoError(t, d.Clear())
	_, ok = d.Unit(path)
	assert.False(t, ok)
}

type mapOverlay map[string]*glsl.Unit

func (m mapOverlay) OpenUnit(uri string) (*glsl.Unit, bool) {
	u, ok := m[uri]
	return u, ok
}

func TestResolveIncludeOrder(t *testing.T) {
	root := t.TempDir()
	shaders := filepath.Join(root, "shaders")
	libDir := filepath.Join(root, "lib")
	require.NoError(t, os.MkdirAll(shaders, 0o755))
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "noise.glsl"), []byte("float noise(vec2 p) { return 0.0; }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(shaders, "local.glsl"), []byte("float fromDisk;\n"), 0o644))

	d := newTestIndexer(t, libDir)
	from := glsl.PathToURI(filepath.Join(shaders, "main.frag"))

	unit, ok := d.Resolve(from, "noise.glsl")
	require.True(t, ok, "include directories are searched")
	_, ok = unit.Global.Lookup("noise")
	assert.True(t, ok)

	unit, ok = d.Resolve(from, "local.glsl")
	require.True(t, ok, "disk fallback next to the document")
	_, ok = unit.Global.Lookup("fromDisk")
	assert.True(t, ok)

	localPath := filepath.Join(shaders, "local.glsl")
	indexSource(t, d, localPath, "float fromIndex;\n")
	unit, ok = d.Resolve(from, "local.glsl")
	require.True(t, ok)
	_, ok = unit.Global.Lookup("fromIndex")
	assert.True(t, ok, "index wins over disk")

	open := glsl.ParseWithOptions("float fromEditor;\n", glsl.ParseOptions{URI: glsl.PathToURI(localPath)})
	d.SetOverlay(mapOverlay{glsl.PathToURI(localPath): open})
	unit, ok = d.Resolve(from, "local.glsl")
	require.True(t, ok)
	assert.Same(t, open, unit, "open documents win over the index")

	_, ok = d.Resolve(from, "missing.glsl")
	assert.False(t, ok)
}

func TestSnapshotUsesIndexedIncludes(t *testing.T) {
	dir := t.TempDir()
	d := newTestIndexer(t)
	indexSource(t, d, filepath.Join(dir, "lighting.glsl"), lightingSource)

	snap := glsl.NewSnapshot("#include \"lighting.glsl\"\nvoid main() { }\n", glsl.SnapshotOptions{
		URI:      glsl.PathToURI(filepath.Join(dir, "main.frag")),
		Stage:    glsl.StageFragment,
		Includes: d,
	})
	require.Len(t, snap.Included, 1)
	sun, ok := snap.LookupByName(nil, "sun")
	require.True(t, ok)
	st, ok := glsl.Deref(sun.Type).(*glsl.StructType)
	require.True(t, ok)
	assert.Equal(t, "Light", st.Name)
}

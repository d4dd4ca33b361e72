package glsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapIncludes resolves includes from in-memory sources keyed by path.
type mapIncludes map[string]string

func (m mapIncludes) Resolve(_ string, include string) (*Unit, bool) {
	src, ok := m[include]
	if !ok {
		return nil, false
	}
	return ParseWithOptions(src, ParseOptions{URI: "file:///lib/" + include}), true
}

func symbolNames(symbols []*Symbol) []string {
	names := make([]string, len(symbols))
	for i, sym := range symbols {
		names[i] = sym.Name
	}
	return names
}

func TestSnapshotLookupByPrefixShadowing(t *testing.T) {
	snap := NewSnapshot(`
float value;
float valueScale;
float other;
void main() {
	int value;
	{
		vec2 valueInner;
	}
}
`, SnapshotOptions{URI: "file:///a.frag", Stage: StageFragment})

	inner := snap.ScopeAt(Position{Line: 7, Column: 8})
	got := snap.LookupByPrefix(inner, "val")
	assert.Equal(t, []string{"valueInner", "value", "valueScale"}, symbolNames(got))
	assert.Equal(t, ScalarType{Kind: ScalarInt}, got[1].Type, "inner declaration hides the global")

	global := snap.LookupByPrefix(nil, "")
	assert.Equal(t, []string{"value", "valueScale", "other", "main"}, symbolNames(global))
}

func TestSnapshotLookupByPrefixListsOverloads(t *testing.T) {
	snap := NewSnapshot(`
float blend(float a, float b) { return a; }
vec3 blend(vec3 a, vec3 b) { return a; }
`, SnapshotOptions{})
	got := snap.LookupByPrefix(nil, "bl")
	require.Len(t, got, 2)
	assert.Equal(t, "vec3 blend(vec3 a, vec3 b)", got[1].Signature())
}

func TestSnapshotLookupByName(t *testing.T) {
	snap := NewSnapshot("struct S { int a; };\nS s;\nvoid main() { float s; }\n", SnapshotOptions{})

	sym, ok := snap.LookupByName(nil, "s")
	require.True(t, ok)
	assert.IsType(t, &StructType{}, sym.Type)

	local, ok := snap.LookupByName(snap.ScopeAt(Position{Line: 2, Column: 20}), "s")
	require.True(t, ok)
	assert.Equal(t, ScalarType{Kind: ScalarFloat}, local.Type)

	_, ok = snap.LookupByName(nil, "missing")
	assert.False(t, ok)
}

func TestSnapshotIncludes(t *testing.T) {
	includes := mapIncludes{
		"lighting.glsl": "#include \"types.glsl\"\nvec3 lit(Surface s);\n",
		"types.glsl":    "struct Surface { vec3 normal; };\nbuffer Globals { float time; };\n",
	}
	snap := NewSnapshot(`#include "lighting.glsl"
void main() {
	Surface s;
}
`, SnapshotOptions{URI: "file:///a.frag", Includes: includes})

	require.Len(t, snap.Included, 2)
	assert.Equal(t, "file:///lib/types.glsl", snap.Included[0].URI)

	local, ok := snap.LookupByName(snap.ScopeAt(Position{Line: 2, Column: 5}), "s")
	require.True(t, ok)
	surface, ok := local.Type.(*StructType)
	require.True(t, ok, "included struct resolves as a type")
	assert.Equal(t, "Surface", surface.Name)

	lit, ok := snap.LookupByName(nil, "lit")
	require.True(t, ok)
	assert.Equal(t, "file:///lib/lighting.glsl", lit.Loc.URI)

	types := snap.UserDefinedTypes()
	require.Len(t, types, 1)
	assert.Equal(t, "Surface", types[0].Name)

	require.Len(t, snap.GlobalAggregates(), 1)
	assert.Equal(t, "Globals", snap.GlobalAggregates()[0].Name)
}

func TestSnapshotIncludeCycle(t *testing.T) {
	includes := mapIncludes{
		"a.glsl": "#include \"b.glsl\"\nfloat fromA;\n",
		"b.glsl": "#include \"a.glsl\"\nfloat fromB;\n",
	}
	snap := NewSnapshot("#include \"a.glsl\"\n", SnapshotOptions{Includes: includes})
	assert.Len(t, snap.Included, 2)
	_, ok := snap.LookupByName(nil, "fromB")
	assert.True(t, ok)
}

func TestSnapshotBuiltins(t *testing.T) {
	snap := NewSnapshot("void main() {}", SnapshotOptions{Stage: StageVertex})

	pos, ok := snap.LookupBuiltinByName("gl_Position")
	require.True(t, ok)
	assert.True(t, pos.Builtin)
	assert.Equal(t, VectorType{Size: 4, Scalar: ScalarFloat}, pos.Type)

	_, ok = snap.LookupBuiltinByName("gl_FragCoord")
	assert.False(t, ok, "fragment builtins are not visible in a vertex shader")

	for _, sym := range snap.LookupBuiltinByPrefix("gl_Vert") {
		assert.Contains(t, sym.Name, "gl_Vert")
	}
	assert.NotEmpty(t, snap.LookupBuiltinByPrefix("gl_Vert"))
}

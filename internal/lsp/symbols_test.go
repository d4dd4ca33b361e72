package lsp

import (
	"testing"

	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/lsp/protocol"
	"github.com/glsld/glsld/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const symbolSource = `struct Light {
	vec3 color;
	float intensity;
};
uniform Light light;
buffer Shared { vec2 offset; };
float shade(float x) { return x; }
`

func TestDocumentSymbols(t *testing.T) {
	snap := glsl.NewSnapshot(symbolSource, glsl.SnapshotOptions{URI: "file:///a.frag"})
	require.Empty(t, snap.Errors())

	symbols := DocumentSymbols(snap)
	names := make([]string, len(symbols))
	for i, sym := range symbols {
		names[i] = sym.Name
	}
	require.Equal(t, []string{"Light", "light", "offset", "shade"}, names)

	light := symbols[0]
	assert.Equal(t, protocol.SymbolKindStruct, light.Kind)
	require.Len(t, light.Children, 2)
	assert.Equal(t, "color", light.Children[0].Name)
	assert.Equal(t, protocol.SymbolKindField, light.Children[0].Kind)
	assert.Equal(t, "vec3", *light.Children[0].Detail)
	assert.Equal(t, glsl.Position{Line: 1, Column: 6}, protocol.ToPosition(light.Children[0].Range.Start))

	assert.Equal(t, protocol.SymbolKindVariable, symbols[1].Kind)
	assert.Equal(t, protocol.SymbolKindVariable, symbols[2].Kind)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[3].Kind)
	assert.Equal(t, "float shade(float x)", *symbols[3].Detail)
	assert.Equal(t, glsl.Position{Line: 6, Column: 6}, protocol.ToPosition(symbols[3].SelectionRange.Start))
	assert.Equal(t, glsl.Position{Line: 6, Column: 11}, protocol.ToPosition(symbols[3].SelectionRange.End))
}

func TestDocumentSymbolsSkipsIncludes(t *testing.T) {
	lib := glsl.ParseWithOptions("float shared;", glsl.ParseOptions{URI: "file:///common.glsl"})
	snap := glsl.NewSnapshot("#include \"common.glsl\"\nfloat own;\n", glsl.SnapshotOptions{
		URI:      "file:///a.frag",
		Includes: mapIncludes{"common.glsl": lib},
	})
	symbols := DocumentSymbols(snap)
	require.Len(t, symbols, 1)
	assert.Equal(t, "own", symbols[0].Name)

	assert.Empty(t, DocumentSymbols(nil))
}

func TestSymbolKind(t *testing.T) {
	assert.Equal(t, protocol.SymbolKindStruct, symbolKind(workspace.SymbolLocation{IsType: true}))
	assert.Equal(t, protocol.SymbolKindFunction, symbolKind(workspace.SymbolLocation{Kind: glsl.SymbolFunction}))
	assert.Equal(t, protocol.SymbolKindVariable, symbolKind(workspace.SymbolLocation{Kind: glsl.SymbolVariable}))
}

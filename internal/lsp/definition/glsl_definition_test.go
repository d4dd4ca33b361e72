package definition

import (
	"context"
	"errors"
	"testing"

	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/lsp/protocol"
	"github.com/glsld/glsld/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = `struct Light {
	vec3 color;
};
uniform Light light;
buffer Shared { vec2 offset; };
float shade(float x) {
	float k = x * 2.0;
	return k;
}
void main() {
	float v = shade(light.color.x) + offset.x + remote;
	Light l;
}
`

const docURI = "file:///shader.frag"

type fakeFinder struct {
	symbols map[string][]workspace.SymbolLocation
	err     error
}

func (f *fakeFinder) FindSymbol(name string) ([]workspace.SymbolLocation, error) {
	return f.symbols[name], f.err
}

func definitionAt(t *testing.T, finder SymbolFinder, line, column int) []protocol.Location {
	t.Helper()
	snap := glsl.NewSnapshot(source, glsl.SnapshotOptions{URI: docURI, Stage: glsl.StageFragment})
	require.Empty(t, snap.Errors())
	params := &protocol.DefinitionParams{DocumentContent: source, Snapshot: snap}
	params.Position = protocol.FromPosition(glsl.Position{Line: line, Column: column})
	return NewGLSLDefinitionProvider(finder).GetDefinition(context.Background(), params)
}

func start(loc protocol.Location) glsl.Position {
	return protocol.ToPosition(loc.Range.Start)
}

func TestDefinitionLocalVariable(t *testing.T) {
	locs := definitionAt(t, nil, 7, 8)
	require.Len(t, locs, 1)
	assert.Equal(t, docURI, string(locs[0].URI))
	assert.Equal(t, glsl.Position{Line: 6, Column: 7}, start(locs[0]))
	assert.Equal(t, glsl.Position{Line: 6, Column: 8}, protocol.ToPosition(locs[0].Range.End))
}

func TestDefinitionFunctionAndGlobal(t *testing.T) {
	locs := definitionAt(t, nil, 10, 13)
	require.Len(t, locs, 1)
	assert.Equal(t, glsl.Position{Line: 5, Column: 6}, start(locs[0]))

	locs = definitionAt(t, nil, 10, 19)
	require.Len(t, locs, 1)
	assert.Equal(t, glsl.Position{Line: 3, Column: 14}, start(locs[0]))
}

func TestDefinitionStructType(t *testing.T) {
	locs := definitionAt(t, nil, 11, 2)
	require.Len(t, locs, 1)
	assert.Equal(t, glsl.Position{Line: 0, Column: 7}, start(locs[0]))
}

func TestDefinitionAnonymousBlockMember(t *testing.T) {
	// "offset" in "+ offset.x".
	locs := definitionAt(t, nil, 10, 36)
	require.Len(t, locs, 1)
	assert.Equal(t, glsl.Position{Line: 4, Column: 21}, start(locs[0]))
}

func TestDefinitionMemberAccessHasNone(t *testing.T) {
	// "color" in "light.color".
	assert.Empty(t, definitionAt(t, nil, 10, 25))
}

func TestDefinitionBuiltinHasNone(t *testing.T) {
	finder := &fakeFinder{symbols: map[string][]workspace.SymbolLocation{
		"main": {{Name: "main", URI: "file:///other.frag"}},
	}}
	snap := glsl.NewSnapshot("void main() { float d = dot(vec3(1.0), vec3(0.0)); }", glsl.SnapshotOptions{URI: docURI})
	params := &protocol.DefinitionParams{DocumentContent: "void main() { float d = dot(vec3(1.0), vec3(0.0)); }", Snapshot: snap}
	params.Position = protocol.FromPosition(glsl.Position{Line: 0, Column: 25})
	assert.Empty(t, NewGLSLDefinitionProvider(finder).GetDefinition(context.Background(), params))
}

func TestDefinitionFallsBackToWorkspace(t *testing.T) {
	finder := &fakeFinder{symbols: map[string][]workspace.SymbolLocation{
		"remote": {{Name: "remote", URI: "file:///lib/common.glsl", Line: 3, Column: 6}},
	}}
	// "remote" at the end of line 10.
	locs := definitionAt(t, finder, 10, 46)
	require.Len(t, locs, 1)
	assert.Equal(t, "file:///lib/common.glsl", string(locs[0].URI))
	assert.Equal(t, glsl.Position{Line: 3, Column: 6}, start(locs[0]))

	assert.Empty(t, definitionAt(t, nil, 10, 46))
	assert.Empty(t, definitionAt(t, &fakeFinder{err: errors.New("closed")}, 10, 46))
}

func TestDefinitionWithoutSnapshot(t *testing.T) {
	params := &protocol.DefinitionParams{DocumentContent: source}
	assert.Empty(t, NewGLSLDefinitionProvider(nil).GetDefinition(context.Background(), params))
}

package completion

import (
	"context"
	"testing"

	engine "github.com/glsld/glsld/internal/completion"
	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/lsp/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lightSource = `struct Light {
	vec3 color;
	float intensity;
};
uniform Light light;
void main() {
	vec3 c = light.color;
}
`

func TestPartialExpression(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", ""},
		{"\tvec3 n = a.b", "a.b"},
		{"x = arr[i + 1].c.", "arr[i + 1].c."},
		{"f(lights[i.", "i."},
		{"foo(", ""},
		{"a]", ""},
		{"return grid[1][2].", "grid[1][2]."},
		{"gl_Position.xy", "gl_Position.xy"},
		{"y = x +v.", "v."},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, PartialExpression(tt.prefix))
		})
	}
}

func TestToCompletionItems(t *testing.T) {
	items := ToCompletionItems([]engine.Candidate{
		{Label: "color", Kind: engine.KindField, Detail: "vec3", InsertText: "color"},
		{Label: "mix", Kind: engine.KindFunction, Documentation: "Built-in", InsertText: "mix(${1:x})", InsertFormat: engine.InsertSnippet},
		{Label: "Light", Kind: engine.KindStruct, InsertText: "Light"},
		{Label: "T", Kind: engine.KindTypeName, InsertText: "T"},
	})
	require.Len(t, items, 4)

	assert.Equal(t, "color", items[0].Label)
	assert.Equal(t, protocol.CompletionItemKindField, *items[0].Kind)
	assert.Equal(t, "vec3", *items[0].Detail)
	assert.Equal(t, protocol.InsertTextFormatPlainText, *items[0].InsertTextFormat)
	assert.Nil(t, items[0].Documentation)

	assert.Equal(t, protocol.CompletionItemKindFunction, *items[1].Kind)
	assert.Equal(t, protocol.InsertTextFormatSnippet, *items[1].InsertTextFormat)
	assert.Equal(t, "mix(${1:x})", *items[1].InsertText)
	assert.Nil(t, items[1].Detail)
	assert.Equal(t, protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: "Built-in"}, items[1].Documentation)

	assert.Equal(t, protocol.CompletionItemKindStruct, *items[2].Kind)
	assert.Equal(t, protocol.CompletionItemKindTypeParameter, *items[3].Kind)

	for i := 1; i < len(items); i++ {
		assert.Less(t, *items[i-1].SortText, *items[i].SortText, "sort text keeps engine order")
	}
}

func completionAt(t *testing.T, source string, stage glsl.Stage, line, column int) []protocol.CompletionItem {
	t.Helper()
	snap := glsl.NewSnapshot(source, glsl.SnapshotOptions{URI: "file:///test.glsl", Stage: stage})
	params := &protocol.CompletionParams{DocumentContent: source, Snapshot: snap}
	params.Position = protocol.FromPosition(glsl.Position{Line: line, Column: column})
	return NewGLSLCompletionProvider().GetCompletions(context.Background(), params)
}

func itemLabels(items []protocol.CompletionItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Label
	}
	return out
}

func TestGetCompletionsStructMembers(t *testing.T) {
	// Cursor right after "light." on line 6.
	items := completionAt(t, lightSource, glsl.StageFragment, 6, 16)
	assert.ElementsMatch(t, []string{"color", "intensity"}, itemLabels(items))
	for _, item := range items {
		assert.Equal(t, protocol.CompletionItemKindField, *item.Kind)
	}
}

func TestGetCompletionsBuiltinVector(t *testing.T) {
	source := "void main() {\n\tgl_Position.x = 1.0;\n}\n"
	items := completionAt(t, source, glsl.StageVertex, 1, 13)
	assert.Equal(t, []string{"x", "y", "z", "w"}, itemLabels(items))
}

func TestGetCompletionsEmptyTerm(t *testing.T) {
	assert.Empty(t, completionAt(t, lightSource, glsl.StageFragment, 6, 0))
	assert.Empty(t, completionAt(t, lightSource, glsl.StageFragment, 40, 3), "position past the end")
}

func TestGetCompletionsWithoutSnapshot(t *testing.T) {
	items := NewGLSLCompletionProvider().GetCompletions(context.Background(), &protocol.CompletionParams{DocumentContent: "a."})
	assert.Empty(t, items)
	assert.Equal(t, []string{"."}, NewGLSLCompletionProvider().GetTriggerCharacters())
}

package completion

import (
	"testing"

	"github.com/glsld/glsld/internal/errors"
	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `struct Foo { int x; float y; };
struct A { int b; Foo c; };
A a;
A arr[4];
A grid[2][3];
vec3 v;
Foo foos[2];
float f;
layout(buffer_reference) buffer NodeRef { vec4 data; NodeRef next; };
uniform Globals { NodeRef head; } g;
buffer Shared { vec2 offset; int counter; };
void apply(float amount, vec3 dir) {}
void main() {
	vec4 color;

}
`

func fixtureContext(t *testing.T) DocumentContext {
	t.Helper()
	snap := glsl.NewSnapshot(fixture, glsl.SnapshotOptions{URI: "file:///fixture.glsl"})
	require.Empty(t, snap.Errors())
	return DocumentContext{Resolver: snap, Scope: snap.ScopeAt(glsl.Position{Line: 14, Column: 1})}
}

func labels(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Label
	}
	return out
}

func TestResolveBarePrefix(t *testing.T) {
	ctx := fixtureContext(t)

	got := Resolve(ctx, "co")
	assert.Equal(t, []string{"color", "counter", "cos", "cosh"}, labels(got))
	assert.Equal(t, KindVariable, got[0].Kind)
	assert.Equal(t, "vec4", got[0].Detail)
	assert.Equal(t, KindVariable, got[1].Kind)
	assert.Equal(t, "int", got[1].Detail)
	assert.Equal(t, KindFunction, got[2].Kind)
	assert.Equal(t, "Built-in", got[2].Documentation)
}

func TestResolveBarePrefixMatchesEverySource(t *testing.T) {
	ctx := fixtureContext(t)
	snap := ctx.Resolver.(*glsl.Snapshot)

	got := Resolve(ctx, "a")
	want := []string{"a", "arr", "apply"}
	for _, sym := range snap.LookupBuiltinByPrefix("a") {
		want = append(want, sym.Name)
	}
	assert.Equal(t, want, labels(got))
	for _, c := range got {
		assert.True(t, c.Label[0] == 'a', "%s does not match the prefix", c.Label)
	}
}

func TestResolveUserTypes(t *testing.T) {
	ctx := fixtureContext(t)

	got := Resolve(ctx, "F")
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{Label: "Foo", Kind: KindStruct, Detail: "struct Foo", InsertText: "Foo"}, got[0])

	got = Resolve(ctx, "Node")
	require.Len(t, got, 1)
	assert.Equal(t, KindTypeName, got[0].Kind)
}

func TestResolveFunctionSnippet(t *testing.T) {
	got := Resolve(fixtureContext(t), "ap")
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{
		Label:        "apply",
		Kind:         KindFunction,
		Detail:       "void apply(float amount, vec3 dir)",
		InsertText:   "apply(${1:amount}, ${2:dir})",
		InsertFormat: InsertSnippet,
	}, got[0])
}

func TestResolveStructMembers(t *testing.T) {
	ctx := fixtureContext(t)

	got := Resolve(ctx, "a.")
	assert.Equal(t, []string{"b", "c"}, labels(got))
	for _, c := range got {
		assert.Equal(t, KindField, c.Kind)
		assert.Equal(t, InsertPlainText, c.InsertFormat)
	}
	assert.Equal(t, "Foo", got[1].Detail)

	assert.Equal(t, []string{"x", "y"}, labels(Resolve(ctx, "a.c.")))
	assert.Equal(t, []string{"y"}, labels(Resolve(ctx, "a.c.y")))
	assert.Equal(t, []string{"c"}, labels(Resolve(ctx, "a.c")))
	assert.Empty(t, Resolve(ctx, "a.c.z"))
	assert.Empty(t, Resolve(ctx, "a.missing."))
}

func TestResolveVectorSwizzles(t *testing.T) {
	ctx := fixtureContext(t)

	assert.Equal(t, []string{"x", "y", "z"}, labels(Resolve(ctx, "v.")))
	assert.Equal(t, []string{"x", "y", "z", "w"}, labels(Resolve(ctx, "color.")))
	assert.Equal(t, []string{"x"}, labels(Resolve(ctx, "v.x")))
	assert.Equal(t, []string{"x", "y"}, labels(Resolve(ctx, "v.xy.")))
	assert.Equal(t, []string{"x", "y", "z"}, labels(Resolve(ctx, "color.bgr.")))
	assert.Empty(t, Resolve(ctx, "v.x."), "single component is a scalar")
	assert.Empty(t, Resolve(ctx, "v.q."), "q is out of range for a vec3")
	assert.Empty(t, Resolve(ctx, "v.xg."), "mixed component sets")
}

func TestResolveArrays(t *testing.T) {
	ctx := fixtureContext(t)

	assert.Equal(t, []string{"b", "c"}, labels(Resolve(ctx, "arr[0].")))
	assert.Equal(t, []string{"x", "y"}, labels(Resolve(ctx, "arr[i + 1].c.")))
	assert.Equal(t, []string{"x", "y"}, labels(Resolve(ctx, "foos[1].")))
	assert.Equal(t, []string{"b", "c"}, labels(Resolve(ctx, "grid[1][2].")))

	assert.NotPanics(t, func() {
		assert.Empty(t, Resolve(ctx, "arr[0][0]."))
	})
	assert.Empty(t, Resolve(ctx, "grid[1]."), "partially subscripted array has no fields")
	assert.Empty(t, Resolve(ctx, "grid[0][1][2]."))
	assert.Empty(t, Resolve(ctx, "arr[0]"), "complete operand is not a completion context")
}

func TestResolveUnterminatedSubscript(t *testing.T) {
	ctx := fixtureContext(t)
	assert.Empty(t, Resolve(ctx, "arr["))
	assert.Empty(t, Resolve(ctx, "arr[0"))
	assert.Empty(t, Resolve(ctx, "arr[foos[0]]."))
}

func TestResolveReferencesAndAggregates(t *testing.T) {
	ctx := fixtureContext(t)

	assert.Equal(t, []string{"data", "next"}, labels(Resolve(ctx, "g.head.")))
	assert.Equal(t, []string{"next"}, labels(Resolve(ctx, "g.head.next.next.n")))
	assert.Equal(t, []string{"x", "y"}, labels(Resolve(ctx, "offset.")))
}

func TestResolveBuiltinOperands(t *testing.T) {
	vert := glsl.NewSnapshot("void main() {}", glsl.SnapshotOptions{Stage: glsl.StageVertex})
	assert.Equal(t, []string{"x", "y", "z", "w"}, labels(Resolve(DocumentContext{Resolver: vert}, "gl_Position.")))

	tesc := glsl.NewSnapshot("void main() {}", glsl.SnapshotOptions{Stage: glsl.StageTessControl})
	ctx := DocumentContext{Resolver: tesc}
	assert.Empty(t, Resolve(ctx, "gl_Position."), "per-vertex outputs are only reachable through gl_out")
	assert.Equal(t, []string{"gl_Position", "gl_PointSize"}, labels(Resolve(ctx, "gl_in[gl_InvocationID].gl_P")))
}

func TestResolveRejectsMalformedInput(t *testing.T) {
	ctx := fixtureContext(t)
	for _, input := range []string{"", "1.", ".x", "a..", "a.[", "f.", "apply.", "a b", "v[0]", "a.b c"} {
		t.Run(input, func(t *testing.T) {
			assert.Empty(t, Resolve(ctx, input))
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	ctx := fixtureContext(t)
	for _, input := range []string{"a", "a.", "arr[0].c.", "v.x", "co"} {
		assert.Equal(t, Resolve(ctx, input), Resolve(ctx, input), input)
	}
}

func TestResolveWithoutResolver(t *testing.T) {
	assert.Empty(t, Resolve(DocumentContext{}, "a."))
}

func runMachine(ctx DocumentContext, input string) (*machine, error) {
	m := &machine{ctx: ctx, src: NewTokenSource(input), log: logger.ComponentLogger("completion")}
	return m, m.run()
}

func TestMachineErrorKinds(t *testing.T) {
	ctx := fixtureContext(t)
	tests := []struct {
		input string
		want  error
	}{
		{"[", errMalformed},
		{"arr[", errMalformed},
		{"arr[0[", errMalformed},
		{"nothing.", errUnresolved},
		{"a.nothing.", errUnresolved},
		{"f.", errShape},
		{"a[", errShape},
		{"arr[0][0]", errShape},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := runMachine(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMachineFinalStacks(t *testing.T) {
	ctx := fixtureContext(t)

	m, err := runMachine(ctx, "arr[2].c")
	require.NoError(t, err)
	require.Equal(t, 3, m.stack.len())
	base, _ := m.stack.peek(2)
	assert.IsType(t, StructRef{}, base)

	m, err = runMachine(ctx, "grid[1]")
	require.NoError(t, err)
	top, _ := m.stack.peek(0)
	require.IsType(t, ArrayRef{}, top)
	assert.Equal(t, 1, top.(ArrayRef).Consumed)
}

package glsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	light := &StructType{Name: "Light"}
	tests := []struct {
		typ      Type
		expected string
	}{
		{ScalarType{Kind: ScalarFloat}, "float"},
		{VectorType{Size: 3, Scalar: ScalarUint}, "uvec3"},
		{MatrixType{Columns: 4, Rows: 4, Scalar: ScalarFloat}, "mat4"},
		{MatrixType{Columns: 2, Rows: 3, Scalar: ScalarDouble}, "dmat2x3"},
		{ArrayType{Elem: light, Dims: []int{4, 0}}, "Light[4][]"},
		{&StructType{}, "struct"},
		{&ReferenceType{Name: "NodeRef"}, "NodeRef"},
		{OpaqueType{Name: "sampler2D"}, "sampler2D"},
		{nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, TypeString(tt.typ))
		})
	}
}

func TestNewArrayFlattens(t *testing.T) {
	inner := NewArray(ScalarType{Kind: ScalarInt}, []int{3})
	outer := NewArray(inner, []int{2})
	assert.Equal(t, ArrayType{Elem: ScalarType{Kind: ScalarInt}, Dims: []int{2, 3}}, outer)
	assert.Equal(t, ScalarType{Kind: ScalarInt}, NewArray(ScalarType{Kind: ScalarInt}, nil))
}

func TestDeref(t *testing.T) {
	block := &StructType{Name: "Node"}
	assert.Same(t, block, Deref(&ReferenceType{Name: "Node", Referent: block}))

	dangling := &ReferenceType{Name: "Forward"}
	assert.Same(t, dangling, Deref(dangling))
	assert.Equal(t, ScalarType{Kind: ScalarBool}, Deref(ScalarType{Kind: ScalarBool}))
}

func TestLookupBuiltinType(t *testing.T) {
	typ, ok := LookupBuiltinType("ivec2")
	require.True(t, ok)
	assert.Equal(t, VectorType{Size: 2, Scalar: ScalarInt}, typ)

	typ, ok = LookupBuiltinType("mat3x2")
	require.True(t, ok)
	assert.Equal(t, MatrixType{Columns: 3, Rows: 2, Scalar: ScalarFloat}, typ)

	_, ok = LookupBuiltinType("image2D")
	assert.True(t, ok)
	_, ok = LookupBuiltinType("genType")
	assert.False(t, ok)
}

func TestSymbolSignature(t *testing.T) {
	fn := &Symbol{
		Name: "sample",
		Kind: SymbolFunction,
		Type: VectorType{Size: 4, Scalar: ScalarFloat},
		Params: []Param{
			{Name: "tex", Type: OpaqueType{Name: "sampler2D"}},
			{Type: VectorType{Size: 2, Scalar: ScalarFloat}},
		},
	}
	assert.Equal(t, "vec4 sample(sampler2D tex, vec2)", fn.Signature())

	v := &Symbol{Name: "v", Kind: SymbolVariable, Type: ArrayType{Elem: ScalarType{Kind: ScalarFloat}, Dims: []int{2}}}
	assert.Equal(t, "float[2]", v.Signature())
}

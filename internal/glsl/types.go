package glsl

import (
	"strconv"
	"strings"
)

// Type is a GLSL type. The set of implementations is closed: ScalarType,
// VectorType, MatrixType, ArrayType, *StructType, *ReferenceType and
// OpaqueType.
type Type interface {
	isType()
}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarVoid ScalarKind = iota
	ScalarBool
	ScalarInt
	ScalarUint
	ScalarFloat
	ScalarDouble
)

// ScalarType represents void, bool, int, uint, float and double.
type ScalarType struct {
	Kind ScalarKind
}

func (ScalarType) isType() {}

// VectorType represents vecN, ivecN, uvecN, bvecN and dvecN.
type VectorType struct {
	Size   int
	Scalar ScalarKind
}

func (VectorType) isType() {}

// MatrixType represents matCxR and dmatCxR.
type MatrixType struct {
	Columns int
	Rows    int
	Scalar  ScalarKind
}

func (MatrixType) isType() {}

// ArrayType is a possibly multi-dimensional array. Dims lists the declared
// sizes outermost first; 0 marks an unsized or non-constant dimension. Elem
// is never itself an ArrayType.
type ArrayType struct {
	Elem Type
	Dims []int
}

func (ArrayType) isType() {}

// StructType is a user struct or the member list of an interface block.
type StructType struct {
	Name    string
	Members []Member
	Pos     Position
}

func (*StructType) isType() {}

// Member is one field of a StructType.
type Member struct {
	Name string
	Type Type
	Pos  Position
}

// Member returns the first member called name.
func (s *StructType) Member(name string) (Member, bool) {
	for _, m := range s.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// ReferenceType is a GL_EXT_buffer_reference type: a named handle whose
// referent is the block it was declared with.
type ReferenceType struct {
	Name     string
	Referent *StructType
}

func (*ReferenceType) isType() {}

// OpaqueType covers samplers, images, atomic counters and the generic
// placeholder types used by builtin prototypes (genType, gvec4, ...).
type OpaqueType struct {
	Name string
}

func (OpaqueType) isType() {}

// NewArray wraps elem in the given dimensions, flattening nested arrays so
// the result keeps the outermost-first ordering.
func NewArray(elem Type, dims []int) Type {
	if len(dims) == 0 {
		return elem
	}
	if inner, ok := elem.(ArrayType); ok {
		combined := make([]int, 0, len(dims)+len(inner.Dims))
		combined = append(combined, dims...)
		combined = append(combined, inner.Dims...)
		return ArrayType{Elem: inner.Elem, Dims: combined}
	}
	return ArrayType{Elem: elem, Dims: append([]int(nil), dims...)}
}

// Deref follows a reference type to its referent block.
func Deref(t Type) Type {
	if ref, ok := t.(*ReferenceType); ok && ref.Referent != nil {
		return ref.Referent
	}
	return t
}

var scalarNames = map[ScalarKind]string{
	ScalarVoid:   "void",
	ScalarBool:   "bool",
	ScalarInt:    "int",
	ScalarUint:   "uint",
	ScalarFloat:  "float",
	ScalarDouble: "double",
}

var vectorPrefixes = map[ScalarKind]string{
	ScalarBool:   "bvec",
	ScalarInt:    "ivec",
	ScalarUint:   "uvec",
	ScalarFloat:  "vec",
	ScalarDouble: "dvec",
}

// TypeString renders t the way it would be written in a declaration.
func TypeString(t Type) string {
	switch t := t.(type) {
	case nil:
		return ""
	case ScalarType:
		return scalarNames[t.Kind]
	case VectorType:
		return vectorPrefixes[t.Scalar] + strconv.Itoa(t.Size)
	case MatrixType:
		prefix := "mat"
		if t.Scalar == ScalarDouble {
			prefix = "dmat"
		}
		if t.Columns == t.Rows {
			return prefix + strconv.Itoa(t.Columns)
		}
		return prefix + strconv.Itoa(t.Columns) + "x" + strconv.Itoa(t.Rows)
	case ArrayType:
		var b strings.Builder
		b.WriteString(TypeString(t.Elem))
		for _, d := range t.Dims {
			b.WriteByte('[')
			if d > 0 {
				b.WriteString(strconv.Itoa(d))
			}
			b.WriteByte(']')
		}
		return b.String()
	case *StructType:
		if t.Name == "" {
			return "struct"
		}
		return t.Name
	case *ReferenceType:
		return t.Name
	case OpaqueType:
		return t.Name
	default:
		return "?"
	}
}

var builtinTypes = map[string]Type{}

func init() {
	for kind, name := range scalarNames {
		builtinTypes[name] = ScalarType{Kind: kind}
	}
	for kind, prefix := range vectorPrefixes {
		for size := 2; size <= 4; size++ {
			builtinTypes[prefix+strconv.Itoa(size)] = VectorType{Size: size, Scalar: kind}
		}
	}
	for _, scalar := range []ScalarKind{ScalarFloat, ScalarDouble} {
		prefix := "mat"
		if scalar == ScalarDouble {
			prefix = "dmat"
		}
		for c := 2; c <= 4; c++ {
			builtinTypes[prefix+strconv.Itoa(c)] = MatrixType{Columns: c, Rows: c, Scalar: scalar}
			for r := 2; r <= 4; r++ {
				name := prefix + strconv.Itoa(c) + "x" + strconv.Itoa(r)
				builtinTypes[name] = MatrixType{Columns: c, Rows: r, Scalar: scalar}
			}
		}
	}
	for _, name := range opaqueTypeNames {
		builtinTypes[name] = OpaqueType{Name: name}
	}
}

var opaqueTypeNames = []string{
	"atomic_uint",
	"sampler", "samplerShadow",
	"sampler1D", "sampler2D", "sampler3D", "samplerCube", "sampler2DRect",
	"sampler1DShadow", "sampler2DShadow", "samplerCubeShadow", "sampler2DRectShadow",
	"sampler1DArray", "sampler2DArray", "sampler1DArrayShadow", "sampler2DArrayShadow",
	"samplerCubeArray", "samplerCubeArrayShadow", "samplerBuffer", "sampler2DMS", "sampler2DMSArray",
	"isampler1D", "isampler2D", "isampler3D", "isamplerCube", "isampler2DRect",
	"isampler1DArray", "isampler2DArray", "isamplerCubeArray", "isamplerBuffer",
	"isampler2DMS", "isampler2DMSArray",
	"usampler1D", "usampler2D", "usampler3D", "usamplerCube", "usampler2DRect",
	"usampler1DArray", "usampler2DArray", "usamplerCubeArray", "usamplerBuffer",
	"usampler2DMS", "usampler2DMSArray",
	"texture1D", "texture2D", "texture3D", "textureCube", "texture2DArray",
	"image1D", "image2D", "image3D", "imageCube", "image2DRect",
	"image1DArray", "image2DArray", "imageCubeArray", "imageBuffer", "image2DMS", "image2DMSArray",
	"iimage1D", "iimage2D", "iimage3D", "iimageCube", "iimage2DArray", "iimageBuffer",
	"uimage1D", "uimage2D", "uimage3D", "uimageCube", "uimage2DArray", "uimageBuffer",
	"subpassInput", "subpassInputMS",
	"accelerationStructureEXT",
}

// LookupBuiltinType returns the language-defined type called name.
func LookupBuiltinType(name string) (Type, bool) {
	t, ok := builtinTypes[name]
	return t, ok
}

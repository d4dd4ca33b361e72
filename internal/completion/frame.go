package completion

import "github.com/glsld/glsld/internal/glsl"

// Frame is one element of the context stack. The set of implementations is
// closed: Pending, StructRef, VectorRef, ArrayRef and ScalarRef.
type Frame interface {
	isFrame()
}

// Pending is a token not yet reduced to a typed value: an identifier, a
// '.', a '[' or a token of an index expression.
type Pending struct {
	Token Token
}

// StructRef is a value of struct or interface block type.
type StructRef struct {
	Type *glsl.StructType
}

// VectorRef is a vector value; '.' selects swizzles.
type VectorRef struct {
	Type glsl.VectorType
}

// ArrayRef is an array value with Consumed of its dimensions subscripted.
// Consumed is always below len(Type.Dims).
type ArrayRef struct {
	Type     glsl.ArrayType
	Consumed int
}

// ScalarRef is a value that supports neither '.' nor '[]' here: scalars,
// matrices and opaque types.
type ScalarRef struct {
	Type glsl.Type
}

func (Pending) isFrame()   {}
func (StructRef) isFrame() {}
func (VectorRef) isFrame() {}
func (ArrayRef) isFrame()  {}
func (ScalarRef) isFrame() {}

// classify wraps a value of type t in the frame matching its shape.
// Reference types are followed to their referent first.
func classify(t glsl.Type) Frame {
	switch t := glsl.Deref(t).(type) {
	case glsl.ArrayType:
		return ArrayRef{Type: t}
	case *glsl.StructType:
		return StructRef{Type: t}
	case glsl.VectorType:
		return VectorRef{Type: t}
	default:
		return ScalarRef{Type: t}
	}
}

func isPending(f Frame, kind TokenKind) (Token, bool) {
	p, ok := f.(Pending)
	if !ok || p.Token.Kind != kind {
		return Token{}, false
	}
	return p.Token, true
}

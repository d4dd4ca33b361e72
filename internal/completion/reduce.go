package completion

import (
	"strings"

	"github.com/glsld/glsld/internal/errors"
	"github.com/glsld/glsld/internal/glsl"
)

// lookup resolves an identifier at the start of an expression: scoped
// symbols first, then builtins, then members of anonymous blocks.
func (m *machine) lookup(name string) (glsl.Type, error) {
	r := m.ctx.Resolver
	if sym, ok := r.LookupByName(m.ctx.Scope, name); ok {
		return sym.Type, nil
	}
	if sym, ok := r.LookupBuiltinByName(name); ok {
		return sym.Type, nil
	}
	for _, block := range r.GlobalAggregates() {
		if member, ok := block.Member(name); ok {
			return member.Type, nil
		}
	}
	return nil, errors.Wrapf(errUnresolved, "%q", name)
}

// structResolve prepares the top frame for a '.'.
func (m *machine) structResolve() error {
	top, _ := m.stack.peek(0)
	switch f := top.(type) {
	case StructRef, VectorRef:
		return nil
	case Pending:
		if f.Token.Kind != TokenIdentifier {
			return errors.Wrapf(errMalformed, "'.' after %s", f.Token.Kind)
		}
		typ, err := m.lookup(f.Token.Text)
		if err != nil {
			return err
		}
		switch frame := classify(typ).(type) {
		case StructRef, VectorRef:
			m.stack.replace(1, frame)
			return nil
		default:
			return errors.Wrapf(errShape, "%q of type %s has no fields", f.Token.Text, glsl.TypeString(typ))
		}
	case ArrayRef:
		return errors.Wrapf(errShape, "'.' on array %s", glsl.TypeString(f.Type))
	case ScalarRef:
		return errors.Wrapf(errShape, "'.' on %s", glsl.TypeString(f.Type))
	default:
		return errors.Wrap(errMalformed, "'.' on empty stack")
	}
}

// arrayResolve prepares the top frame for a '['.
func (m *machine) arrayResolve() error {
	top, _ := m.stack.peek(0)
	switch f := top.(type) {
	case ArrayRef:
		return nil
	case Pending:
		if f.Token.Kind != TokenIdentifier {
			return errors.Wrapf(errMalformed, "'[' after %s", f.Token.Kind)
		}
		typ, err := m.lookup(f.Token.Text)
		if err != nil {
			return err
		}
		arr, ok := glsl.Deref(typ).(glsl.ArrayType)
		if !ok {
			return errors.Wrapf(errShape, "%q of type %s is not an array", f.Token.Text, glsl.TypeString(typ))
		}
		m.stack.replace(1, ArrayRef{Type: arr})
		return nil
	case StructRef:
		return errors.Wrapf(errShape, "'[' on struct %s", glsl.TypeString(f.Type))
	case VectorRef:
		return errors.Wrapf(errShape, "'[' on vector %s", glsl.TypeString(f.Type))
	case ScalarRef:
		return errors.Wrapf(errShape, "'[' on %s", glsl.TypeString(f.Type))
	default:
		return errors.Wrap(errMalformed, "'[' on empty stack")
	}
}

// fieldReduce replaces {StructRef|VectorRef, '.', ident} with the frame of
// the selected field.
func (m *machine) fieldReduce() error {
	if m.stack.len() < 3 {
		return errors.Wrap(errMalformed, "field access without operand")
	}
	base, _ := m.stack.peek(2)
	if dot, _ := m.stack.peek(1); !isDot(dot) {
		return errors.Wrap(errMalformed, "field access without '.'")
	}
	top, _ := m.stack.peek(0)
	name, ok := isPending(top, TokenIdentifier)
	if !ok {
		return errors.Wrap(errMalformed, "field access without name")
	}

	switch b := base.(type) {
	case StructRef:
		member, ok := b.Type.Member(name.Text)
		if !ok {
			return errors.Wrapf(errUnresolved, "%s has no member %q", glsl.TypeString(b.Type), name.Text)
		}
		m.stack.replace(3, classify(member.Type))
		return nil
	case VectorRef:
		typ, ok := swizzle(b.Type, name.Text)
		if !ok {
			return errors.Wrapf(errUnresolved, "invalid swizzle %q on %s", name.Text, glsl.TypeString(b.Type))
		}
		m.stack.replace(3, classify(typ))
		return nil
	default:
		return errors.Wrap(errShape, "field access on a value without fields")
	}
}

func isDot(f Frame) bool {
	_, ok := isPending(f, TokenDot)
	return ok
}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

// swizzle types a component selection on v. All components must come from
// one set and lie within the vector's arity.
func swizzle(v glsl.VectorType, name string) (glsl.Type, bool) {
	if len(name) == 0 || len(name) > 4 {
		return nil, false
	}
	for _, set := range swizzleSets {
		valid := true
		for i := 0; i < len(name); i++ {
			idx := strings.IndexByte(set, name[i])
			if idx < 0 || idx >= v.Size {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		if len(name) == 1 {
			return glsl.ScalarType{Kind: v.Scalar}, true
		}
		return glsl.VectorType{Size: len(name), Scalar: v.Scalar}, true
	}
	return nil, false
}

// subscriptReduce closes a '[' ... ']' subscript: it discards the index
// expression and counts one dimension against the array beneath it.
func (m *machine) subscriptReduce() error {
	for {
		f, ok := m.stack.pop()
		if !ok {
			return errors.Wrap(errMalformed, "']' without '['")
		}
		if _, open := isPending(f, TokenLeftBracket); open {
			break
		}
	}

	top, _ := m.stack.peek(0)
	arr, ok := top.(ArrayRef)
	if !ok {
		return errors.Wrap(errShape, "subscript on a non-array value")
	}
	consumed := arr.Consumed + 1
	switch {
	case consumed > len(arr.Type.Dims):
		return errors.Wrapf(errShape, "too many subscripts for %s", glsl.TypeString(arr.Type))
	case consumed == len(arr.Type.Dims):
		m.stack.replace(1, classify(arr.Type.Elem))
	default:
		m.stack.replace(1, ArrayRef{Type: arr.Type, Consumed: consumed})
	}
	return nil
}

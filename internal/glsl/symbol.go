package glsl

import "strings"

// SymbolKind classifies a declared symbol.
type SymbolKind uint8

const (
	SymbolVariable SymbolKind = iota
	SymbolParameter
	SymbolFunction
)

// Symbol is a declared variable, parameter or function. For functions Type
// is the return type.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Type       Type
	Params     []Param
	Qualifiers []string
	Builtin    bool
	Loc        Location
}

// Param is one function parameter. Name may be empty in prototypes.
type Param struct {
	Name string
	Type Type
	Pos  Position
}

// Location points at a declaration. URI is empty for builtins.
type Location struct {
	URI string
	Pos Position
}

// TypeSymbol is a user-declared type name: a struct or a buffer reference.
type TypeSymbol struct {
	Name string
	Type Type
	Loc  Location
}

// Signature renders a function symbol as "ret name(type param, ...)".
func (s *Symbol) Signature() string {
	if s.Kind != SymbolFunction {
		return TypeString(s.Type)
	}
	var b strings.Builder
	b.WriteString(TypeString(s.Type))
	b.WriteByte(' ')
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(TypeString(p.Type))
		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
	}
	b.WriteByte(')')
	return b.String()
}

package completion

import (
	"strconv"
	"strings"

	"github.com/glsld/glsld/internal/glsl"
)

// CandidateKind classifies a candidate for the client's icon.
type CandidateKind uint8

const (
	KindVariable CandidateKind = iota
	KindField
	KindFunction
	KindStruct
	KindTypeName
)

func (k CandidateKind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindField:
		return "field"
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindTypeName:
		return "type"
	default:
		return "unknown"
	}
}

// InsertFormat tells the client how to read InsertText.
type InsertFormat uint8

const (
	InsertPlainText InsertFormat = iota
	InsertSnippet
)

// Candidate is one completion proposal.
type Candidate struct {
	Label         string
	Kind          CandidateKind
	Detail        string
	Documentation string
	InsertText    string
	InsertFormat  InsertFormat
}

func symbolCandidate(sym *glsl.Symbol) Candidate {
	c := Candidate{
		Label:         sym.Name,
		Kind:          KindVariable,
		Detail:        glsl.TypeString(sym.Type),
		Documentation: documentation(sym),
		InsertText:    sym.Name,
	}
	if sym.Kind == glsl.SymbolFunction {
		c.Kind = KindFunction
		c.Detail = sym.Signature()
		c.InsertText = callSnippet(sym)
		c.InsertFormat = InsertSnippet
	}
	return c
}

func documentation(sym *glsl.Symbol) string {
	if sym.Builtin {
		return "Built-in"
	}
	return strings.Join(sym.Qualifiers, " ")
}

// callSnippet renders "name(${1:a}, ${2:b})" with a tab stop per parameter.
func callSnippet(sym *glsl.Symbol) string {
	var b strings.Builder
	b.WriteString(sym.Name)
	b.WriteByte('(')
	for i, p := range sym.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		label := p.Name
		if label == "" {
			label = glsl.TypeString(p.Type)
		}
		b.WriteString("${")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte(':')
		b.WriteString(label)
		b.WriteByte('}')
	}
	b.WriteByte(')')
	return b.String()
}

func memberCandidate(name string, typ glsl.Type) Candidate {
	return Candidate{
		Label:      name,
		Kind:       KindField,
		Detail:     glsl.TypeString(typ),
		InsertText: name,
	}
}

func typeCandidate(ts glsl.TypeSymbol) Candidate {
	c := Candidate{
		Label:      ts.Name,
		Kind:       KindStruct,
		Detail:     "struct " + ts.Name,
		InsertText: ts.Name,
	}
	if _, ok := ts.Type.(*glsl.ReferenceType); ok {
		c.Kind = KindTypeName
		c.Detail = "buffer_reference " + ts.Name
	}
	return c
}

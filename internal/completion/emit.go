package completion

import (
	"strings"

	"github.com/glsld/glsld/internal/glsl"
)

var vectorComponents = []string{"x", "y", "z", "w"}

// emit inspects the final stack. Only three shapes produce candidates: a
// lone identifier, a member prefix after '.', and a trailing '.'.
func (m *machine) emit() []Candidate {
	top, ok := m.stack.peek(0)
	if !ok {
		return nil
	}
	if _, pending := top.(Pending); !pending {
		return nil
	}

	if isDot(top) {
		base, _ := m.stack.peek(1)
		return members(base, "")
	}

	name, ok := isPending(top, TokenIdentifier)
	if !ok {
		return nil
	}
	if m.stack.len() == 1 {
		m.stack.pop()
		return m.barePrefix(name.Text)
	}
	if dot, _ := m.stack.peek(1); isDot(dot) {
		base, _ := m.stack.peek(2)
		return members(base, name.Text)
	}
	return nil
}

// barePrefix lists everything an identifier starting with prefix could
// name: visible symbols, anonymous block members, user types, builtins.
func (m *machine) barePrefix(prefix string) []Candidate {
	r := m.ctx.Resolver
	var out []Candidate

	for _, sym := range r.LookupByPrefix(m.ctx.Scope, prefix) {
		out = append(out, symbolCandidate(sym))
	}
	for _, block := range r.GlobalAggregates() {
		for _, member := range block.Members {
			if strings.HasPrefix(member.Name, prefix) {
				c := memberCandidate(member.Name, member.Type)
				c.Kind = KindVariable
				c.Documentation = glsl.TypeString(block)
				out = append(out, c)
			}
		}
	}
	for _, ts := range r.UserDefinedTypes() {
		if strings.HasPrefix(ts.Name, prefix) {
			out = append(out, typeCandidate(ts))
		}
	}
	for _, sym := range r.LookupBuiltinByPrefix(prefix) {
		out = append(out, symbolCandidate(sym))
	}
	return out
}

// members enumerates the fields of a struct or the components of a
// vector that start with prefix.
func members(base Frame, prefix string) []Candidate {
	var out []Candidate
	switch b := base.(type) {
	case StructRef:
		for _, member := range b.Type.Members {
			if strings.HasPrefix(member.Name, prefix) {
				out = append(out, memberCandidate(member.Name, member.Type))
			}
		}
	case VectorRef:
		scalar := glsl.ScalarType{Kind: b.Type.Scalar}
		for _, comp := range vectorComponents[:min(b.Type.Size, len(vectorComponents))] {
			if strings.HasPrefix(comp, prefix) {
				out = append(out, memberCandidate(comp, scalar))
			}
		}
	}
	return out
}

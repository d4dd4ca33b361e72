package glsl

// Scope is one lexical scope. The global scope has no bounds; nested scopes
// span from their opening token to their closing brace.
type Scope struct {
	Parent   *Scope
	Start    Position
	End      Position
	Symbols  []*Symbol
	Children []*Scope
	bounded  bool
}

// NewGlobalScope creates an unbounded root scope.
func NewGlobalScope() *Scope {
	return &Scope{}
}

func (s *Scope) openChild(start Position) *Scope {
	child := &Scope{Parent: s, Start: start, bounded: true}
	s.Children = append(s.Children, child)
	return child
}

// Declare appends sym to the scope in declaration order.
func (s *Scope) Declare(sym *Symbol) {
	s.Symbols = append(s.Symbols, sym)
}

// Contains reports whether a cursor at pos is inside the scope.
func (s *Scope) Contains(pos Position) bool {
	if !s.bounded {
		return true
	}
	return s.Start.Before(pos) && !s.End.Before(pos)
}

// Innermost returns the deepest scope containing pos.
func (s *Scope) Innermost(pos Position) *Scope {
	for _, child := range s.Children {
		if child.Contains(pos) {
			return child.Innermost(pos)
		}
	}
	return s
}

// Lookup finds name among this scope's own symbols.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for _, sym := range s.Symbols {
		if sym.Name == name {
			return sym, true
		}
	}
	return nil, false
}

// Resolve finds name in this scope or the nearest enclosing one.
func (s *Scope) Resolve(name string) (*Symbol, bool) {
	for scope := s; scope != nil; scope = scope.Parent {
		if sym, ok := scope.Lookup(name); ok {
			return sym, true
		}
	}
	return nil, false
}

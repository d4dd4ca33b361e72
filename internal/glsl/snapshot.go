package glsl

import "strings"

// maxIncludeDepth bounds nested #include resolution.
const maxIncludeDepth = 8

// IncludeSource resolves an #include path seen in fromURI to a parsed unit.
type IncludeSource interface {
	Resolve(fromURI, include string) (*Unit, bool)
}

// SnapshotOptions configures NewSnapshot.
type SnapshotOptions struct {
	URI      string
	Version  int
	Stage    Stage
	Includes IncludeSource
}

// Snapshot is the immutable per-document view the completion engine reads:
// the parsed unit, its transitive includes and the stage builtins. Callers
// replace snapshots wholesale instead of mutating them.
type Snapshot struct {
	URI      string
	Version  int
	Stage    Stage
	Unit     *Unit
	Included []*Unit

	builtins   *BuiltinTable
	types      []TypeSymbol
	aggregates []*StructType
}

// NewSnapshot parses source and links it with its includes and builtins.
func NewSnapshot(source string, opts SnapshotOptions) *Snapshot {
	included := collectIncludes(opts.URI, ScanIncludes(source), opts.Includes)

	external := make(map[string]Type)
	includeScope := NewGlobalScope()
	var types []TypeSymbol
	var aggregates []*StructType
	for _, inc := range included {
		for _, ts := range inc.Types {
			external[ts.Name] = ts.Type
			types = append(types, ts)
		}
		aggregates = append(aggregates, inc.Aggregates...)
		includeScope.Symbols = append(includeScope.Symbols, inc.Global.Symbols...)
	}

	unit := ParseWithOptions(source, ParseOptions{URI: opts.URI, Types: external})
	unit.Global.Parent = includeScope

	return &Snapshot{
		URI:        opts.URI,
		Version:    opts.Version,
		Stage:      opts.Stage,
		Unit:       unit,
		Included:   included,
		builtins:   Builtins(opts.Stage),
		types:      append(append([]TypeSymbol(nil), unit.Types...), types...),
		aggregates: append(append([]*StructType(nil), unit.Aggregates...), aggregates...),
	}
}

// collectIncludes resolves includes depth first, visiting each unit once.
func collectIncludes(fromURI string, includes []Include, src IncludeSource) []*Unit {
	if src == nil || len(includes) == 0 {
		return nil
	}
	var units []*Unit
	visited := map[string]bool{fromURI: true}

	var walk func(from string, incs []Include, depth int)
	walk = func(from string, incs []Include, depth int) {
		if depth > maxIncludeDepth {
			return
		}
		for _, inc := range incs {
			unit, ok := src.Resolve(from, inc.Path)
			if !ok || visited[unit.URI] {
				continue
			}
			visited[unit.URI] = true
			walk(unit.URI, unit.Includes, depth+1)
			units = append(units, unit)
		}
	}
	walk(fromURI, includes, 1)
	return units
}

// ScopeAt returns the innermost scope enclosing pos.
func (s *Snapshot) ScopeAt(pos Position) *Scope {
	return s.Unit.Global.Innermost(pos)
}

// Builtins returns the builtin table the snapshot was built with.
func (s *Snapshot) Builtins() *BuiltinTable {
	return s.builtins
}

func (s *Snapshot) scope(scope *Scope) *Scope {
	if scope == nil {
		return s.Unit.Global
	}
	return scope
}

// LookupByName resolves name in scope and its enclosing scopes, ending with
// the declarations of included files.
func (s *Snapshot) LookupByName(scope *Scope, name string) (*Symbol, bool) {
	return s.scope(scope).Resolve(name)
}

// LookupByPrefix lists symbols visible from scope whose names start with
// prefix. A name declared in an inner scope hides the same name further
// out; overloads within one scope are all listed.
func (s *Snapshot) LookupByPrefix(scope *Scope, prefix string) []*Symbol {
	var out []*Symbol
	hidden := make(map[string]bool)
	for sc := s.scope(scope); sc != nil; sc = sc.Parent {
		var declared []string
		for _, sym := range sc.Symbols {
			if hidden[sym.Name] || !strings.HasPrefix(sym.Name, prefix) {
				continue
			}
			out = append(out, sym)
			declared = append(declared, sym.Name)
		}
		for _, name := range declared {
			hidden[name] = true
		}
	}
	return out
}

// LookupBuiltinByName returns the first builtin called name.
func (s *Snapshot) LookupBuiltinByName(name string) (*Symbol, bool) {
	return s.builtins.Lookup(name)
}

// LookupBuiltinByPrefix lists builtins starting with prefix.
func (s *Snapshot) LookupBuiltinByPrefix(prefix string) []*Symbol {
	return s.builtins.Prefix(prefix)
}

// UserDefinedTypes lists struct and buffer reference types declared by the
// document and its includes.
func (s *Snapshot) UserDefinedTypes() []TypeSymbol {
	return s.types
}

// GlobalAggregates lists the anonymous interface blocks whose members are
// visible as globals.
func (s *Snapshot) GlobalAggregates() []*StructType {
	return s.aggregates
}

// Errors returns the document's parse errors.
func (s *Snapshot) Errors() []ParseError {
	return s.Unit.Errors
}

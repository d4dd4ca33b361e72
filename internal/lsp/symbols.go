package lsp

import (
	"sort"

	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/lsp/protocol"
	"github.com/glsld/glsld/internal/workspace"
)

// DocumentSymbols lists the global declarations of a snapshot's own unit
// in source order. Structs carry their members as children; members of
// anonymous blocks are listed as globals.
func DocumentSymbols(snap *glsl.Snapshot) []protocol.DocumentSymbol {
	if snap == nil {
		return []protocol.DocumentSymbol{}
	}
	unit := snap.Unit

	type entry struct {
		pos glsl.Position
		sym protocol.DocumentSymbol
	}
	var entries []entry
	add := func(sym protocol.DocumentSymbol, pos glsl.Position) {
		entries = append(entries, entry{pos: pos, sym: sym})
	}

	seen := make(map[string]bool)
	for _, sym := range unit.Global.Symbols {
		kind := protocol.SymbolKindVariable
		if sym.Kind == glsl.SymbolFunction {
			kind = protocol.SymbolKindFunction
		}
		signature := sym.Signature()
		// A prototype and its definition show up once.
		if sym.Kind == glsl.SymbolFunction && seen[signature] {
			continue
		}
		seen[signature] = true
		add(newDocumentSymbol(sym.Name, signature, kind, sym.Loc.Pos), sym.Loc.Pos)
	}

	for _, ts := range unit.Types {
		st, ok := glsl.Deref(ts.Type).(*glsl.StructType)
		if !ok {
			continue
		}
		sym := newDocumentSymbol(ts.Name, glsl.TypeString(ts.Type), protocol.SymbolKindStruct, ts.Loc.Pos)
		sym.Children = memberSymbols(st, protocol.SymbolKindField)
		add(sym, ts.Loc.Pos)
	}

	for _, block := range unit.Aggregates {
		for i, member := range memberSymbols(block, protocol.SymbolKindVariable) {
			add(member, block.Members[i].Pos)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].pos.Before(entries[j].pos) })
	symbols := make([]protocol.DocumentSymbol, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.sym)
	}
	return symbols
}

func memberSymbols(st *glsl.StructType, kind protocol.SymbolKind) []protocol.DocumentSymbol {
	children := make([]protocol.DocumentSymbol, 0, len(st.Members))
	for _, m := range st.Members {
		children = append(children, newDocumentSymbol(m.Name, glsl.TypeString(m.Type), kind, m.Pos))
	}
	return children
}

func newDocumentSymbol(name, detail string, kind protocol.SymbolKind, pos glsl.Position) protocol.DocumentSymbol {
	end := pos
	end.Column += len(name)
	rng := protocol.Range{Start: protocol.FromPosition(pos), End: protocol.FromPosition(end)}
	sym := protocol.DocumentSymbol{
		Name:           name,
		Kind:           kind,
		Range:          rng,
		SelectionRange: rng,
	}
	if detail != "" {
		sym.Detail = &detail
	}
	return sym
}

func (s *Server) documentSymbols(uri string) []protocol.DocumentSymbol {
	doc, ok := s.documentManager.GetDocument(uri)
	if !ok {
		return []protocol.DocumentSymbol{}
	}
	return DocumentSymbols(doc.Snapshot)
}

func (s *Server) workspaceSymbols(query string) ([]protocol.SymbolInformation, error) {
	out := []protocol.SymbolInformation{}
	project := s.Project()
	if project == nil {
		return out, nil
	}
	found, err := project.WorkspaceSymbols(query)
	if err != nil {
		return nil, err
	}
	for _, loc := range found {
		out = append(out, protocol.SymbolInformation{
			Name:     loc.Name,
			Kind:     symbolKind(loc),
			Location: protocol.NewLocation(loc.URI, glsl.Position{Line: loc.Line, Column: loc.Column}, len(loc.Name)),
		})
	}
	return out, nil
}

func symbolKind(loc workspace.SymbolLocation) protocol.SymbolKind {
	switch {
	case loc.IsType:
		return protocol.SymbolKindStruct
	case loc.Kind == glsl.SymbolFunction:
		return protocol.SymbolKindFunction
	default:
		return protocol.SymbolKindVariable
	}
}

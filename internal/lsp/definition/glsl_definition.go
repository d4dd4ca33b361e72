package definition

import (
	"context"

	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/logger"
	"github.com/glsld/glsld/internal/lsp"
	"github.com/glsld/glsld/internal/lsp/protocol"
	"github.com/glsld/glsld/internal/workspace"
)

// SymbolFinder looks up global declarations across the workspace.
type SymbolFinder interface {
	FindSymbol(name string) ([]workspace.SymbolLocation, error)
}

// GLSLDefinitionProvider resolves the identifier under the cursor through
// the document's scopes, its includes and finally the workspace index.
type GLSLDefinitionProvider struct {
	finder SymbolFinder
}

// NewGLSLDefinitionProvider creates the provider. finder may be nil.
func NewGLSLDefinitionProvider(finder SymbolFinder) *GLSLDefinitionProvider {
	return &GLSLDefinitionProvider{finder: finder}
}

func (p *GLSLDefinitionProvider) GetDefinition(ctx context.Context, params *protocol.DefinitionParams) []protocol.Location {
	snap := params.Snapshot
	if snap == nil {
		return []protocol.Location{}
	}
	pos := protocol.ToPosition(params.Position)
	word, isMember := lsp.WordAt(params.DocumentContent, pos)
	if word == "" || isMember {
		return []protocol.Location{}
	}

	if sym, ok := snap.LookupByName(snap.ScopeAt(pos), word); ok {
		if sym.Builtin || sym.Loc.URI == "" {
			return []protocol.Location{}
		}
		return []protocol.Location{protocol.NewLocation(sym.Loc.URI, sym.Loc.Pos, len(word))}
	}
	if _, ok := snap.LookupBuiltinByName(word); ok {
		return []protocol.Location{}
	}

	for _, ts := range snap.UserDefinedTypes() {
		if ts.Name == word && ts.Loc.URI != "" {
			return []protocol.Location{protocol.NewLocation(ts.Loc.URI, ts.Loc.Pos, len(word))}
		}
	}

	for _, unit := range append([]*glsl.Unit{snap.Unit}, snap.Included...) {
		for _, block := range unit.Aggregates {
			if member, ok := block.Member(word); ok {
				return []protocol.Location{protocol.NewLocation(unit.URI, member.Pos, len(word))}
			}
		}
	}

	return p.workspaceDefinition(word)
}

func (p *GLSLDefinitionProvider) workspaceDefinition(word string) []protocol.Location {
	if p.finder == nil {
		return []protocol.Location{}
	}
	found, err := p.finder.FindSymbol(word)
	if err != nil {
		logger.ComponentLogger("lsp.definition").Warnw("Workspace lookup failed", logger.FieldTerm, word, logger.FieldError, err)
		return []protocol.Location{}
	}
	locations := make([]protocol.Location, 0, len(found))
	for _, loc := range found {
		locations = append(locations, protocol.NewLocation(loc.URI, glsl.Position{Line: loc.Line, Column: loc.Column}, len(word)))
	}
	return locations
}

package lsp

import (
	"context"

	"github.com/glsld/glsld/internal/lsp/protocol"
)

// definition handles textDocument/definition requests
func (s *Server) definition(ctx context.Context, params *protocol.DefinitionParams) []protocol.Location {
	locations := []protocol.Location{}
	doc, ok := s.documentManager.GetDocument(params.TextDocument.URI)
	if !ok {
		return locations
	}
	params.DocumentContent = doc.Text
	params.Snapshot = doc.Snapshot

	for _, provider := range s.definitionProviders {
		locations = append(locations, provider.GetDefinition(ctx, params)...)
	}
	return locations
}

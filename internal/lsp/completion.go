package lsp

import (
	"context"
	"runtime/debug"

	"github.com/glsld/glsld/internal/logger"
	"github.com/glsld/glsld/internal/lsp/protocol"
)

// completion handles textDocument/completion requests
func (s *Server) completion(ctx context.Context, params *protocol.CompletionParams) *protocol.CompletionList {
	doc, ok := s.documentManager.GetDocument(params.TextDocument.URI)
	if !ok {
		return &protocol.CompletionList{Items: []protocol.CompletionItem{}}
	}
	params.DocumentContent = doc.Text
	params.Snapshot = doc.Snapshot

	// Collect completion items from all providers
	items := []protocol.CompletionItem{}
	for _, provider := range s.completionProviders {
		items = append(items, s.safeCompletions(ctx, provider, params)...)
	}

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}
}

func (s *Server) safeCompletions(ctx context.Context, provider CompletionProvider, params *protocol.CompletionParams) (items []protocol.CompletionItem) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("Completion provider panicked",
				logger.FieldURI, params.TextDocument.URI,
				logger.FieldLine, params.Position.Line,
				logger.FieldColumn, params.Position.Character,
				logger.FieldError, r,
				"stack", string(debug.Stack()))
			items = nil
		}
	}()
	return provider.GetCompletions(ctx, params)
}

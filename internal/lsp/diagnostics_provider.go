package lsp

import (
	"context"

	"github.com/glsld/glsld/internal/logger"
	"github.com/glsld/glsld/internal/lsp/protocol"
)

// collectDiagnostics runs every diagnostics provider over doc.
func (s *Server) collectDiagnostics(ctx context.Context, doc *TextDocument) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	for _, provider := range s.diagnosticsProviders {
		found, err := provider.GetDiagnostics(ctx, doc.URI, doc.Snapshot, []byte(doc.Text))
		if err != nil {
			s.log.Warnw("Diagnostics provider failed", logger.FieldURI, doc.URI, logger.FieldError, err)
			continue
		}
		diags = append(diags, found...)
	}
	return diags
}

// publishDiagnostics sends the diagnostics of doc to the client. An empty
// list is still sent so stale markers disappear.
func (s *Server) publishDiagnostics(ctx context.Context, doc *TextDocument) {
	if doc == nil {
		return
	}
	s.publish(ctx, doc.URI, doc.Version, s.collectDiagnostics(ctx, doc))
}

func (s *Server) publish(ctx context.Context, uri string, version int, diags []protocol.Diagnostic) {
	s.notify(ctx, "textDocument/publishDiagnostics", protocol.NewPublishDiagnosticsParams(uri, version, diags))
}

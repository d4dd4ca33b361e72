package lsp

import (
	"context"

	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/lsp/protocol"
)

// CompletionProvider is an interface for providing completion items
type CompletionProvider interface {
	// GetCompletions returns completion items for the given parameters
	GetCompletions(ctx context.Context, params *protocol.CompletionParams) []protocol.CompletionItem
	// GetTriggerCharacters returns the characters that trigger this completion provider
	GetTriggerCharacters() []string
}

// GotoDefinitionProvider is an interface for providing definition locations
type GotoDefinitionProvider interface {
	GetDefinition(ctx context.Context, params *protocol.DefinitionParams) []protocol.Location
}

// DiagnosticsProvider is an interface for providing diagnostics for a document
type DiagnosticsProvider interface {
	// GetDiagnostics returns diagnostics for a document
	GetDiagnostics(ctx context.Context, uri string, snap *glsl.Snapshot, content []byte) ([]protocol.Diagnostic, error)
}


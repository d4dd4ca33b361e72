package lsp

import (
	"context"
	"encoding/json"

	"github.com/glsld/glsld/internal/lsp/diagnostics"
	"github.com/glsld/glsld/internal/lsp/protocol"
	"github.com/sourcegraph/jsonrpc2"
)

// executeCommand handles workspace/executeCommand requests
func (s *Server) executeCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	switch params.Command {
	case protocol.CommandValidatorLog:
		var args protocol.ValidatorLogArgs
		if err := decodeArgument(params.Arguments, &args); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"published": s.publishValidatorLog(ctx, args),
		}, nil

	case protocol.CommandDocumentSymbols:
		var uri string
		if err := decodeArgument(params.Arguments, &uri); err != nil {
			return nil, err
		}
		return s.documentSymbols(uri), nil

	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "Unknown command: " + params.Command}
	}
}

// publishValidatorLog publishes the errors of a compiler info log next to
// the parser diagnostics of each affected document. The document named in
// args is always republished so fixed errors disappear. It returns the
// number of documents published.
func (s *Server) publishValidatorLog(ctx context.Context, args protocol.ValidatorLogArgs) int {
	byURI := diagnostics.ParseInfoLog(args.Log)
	if args.URI != "" {
		if _, ok := byURI[args.URI]; !ok {
			byURI[args.URI] = nil
		}
	}

	for uri, found := range byURI {
		version := 0
		var diags []protocol.Diagnostic
		if doc, ok := s.documentManager.GetDocument(uri); ok {
			version = doc.Version
			diags = s.collectDiagnostics(ctx, doc)
		}
		s.publish(ctx, uri, version, append(diags, found...))
	}
	return len(byURI)
}

func decodeArgument(args []interface{}, v interface{}) error {
	if len(args) == 0 {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing command argument"}
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

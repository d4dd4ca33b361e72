package protocol

import glspproto "github.com/tliron/glsp/protocol_3_16"

type (
	DidOpenTextDocumentParams   = glspproto.DidOpenTextDocumentParams
	DidSaveTextDocumentParams   = glspproto.DidSaveTextDocumentParams
	DidCloseTextDocumentParams  = glspproto.DidCloseTextDocumentParams
	DidChangeWatchedFilesParams = glspproto.DidChangeWatchedFilesParams
	FileEvent                   = glspproto.FileEvent
	FileChangeType              = glspproto.UInteger
)

const (
	FileChangeTypeCreated = glspproto.FileChangeTypeCreated
	FileChangeTypeChanged = glspproto.FileChangeTypeChanged
	FileChangeTypeDeleted = glspproto.FileChangeTypeDeleted
)

// InitializeParams represents the parts of the initialize request the
// server reads.
type InitializeParams struct {
	RootPath         string            `json:"rootPath,omitempty"`
	RootURI          string            `json:"rootUri,omitempty"`
	WorkspaceFolders []WorkspaceFolder `json:"workspaceFolders,omitempty"`
}

// WorkspaceFolder represents a workspace folder.
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// DidChangeTextDocumentParams carries full-text changes only; the server
// advertises full sync.
type DidChangeTextDocumentParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Version int    `json:"version"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

// DocumentSymbolParams represents the parameters for textDocument/documentSymbol.
type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// WorkspaceSymbolParams represents the parameters for workspace/symbol.
type WorkspaceSymbolParams struct {
	Query string `json:"query"`
}


package protocol

import glspproto "github.com/tliron/glsp/protocol_3_16"

type (
	DocumentSymbol    = glspproto.DocumentSymbol
	SymbolInformation = glspproto.SymbolInformation
	SymbolKind        = glspproto.SymbolKind
)

const (
	SymbolKindFunction = glspproto.SymbolKindFunction
	SymbolKindVariable = glspproto.SymbolKindVariable
	SymbolKindStruct   = glspproto.SymbolKindStruct
	SymbolKindField    = glspproto.SymbolKindField
)

// Commands accepted by workspace/executeCommand.
const (
	CommandValidatorLog    = "glsld/validatorLog"
	CommandDocumentSymbols = "glsld/documentSymbols"
)

// Server-to-client notifications and custom requests.
const (
	MethodForceReindex      = "glsld/forceReindex"
	MethodIndexingStarted   = "glsld/indexingStarted"
	MethodIndexingCompleted = "glsld/indexingCompleted"
)

// ExecuteCommandParams represents the parameters for workspace/executeCommand.
// Each command decodes its own argument shape.
type ExecuteCommandParams struct {
	Command   string        `json:"command"`
	Arguments []interface{} `json:"arguments,omitempty"`
}

// ValidatorLogArgs is the argument of glsld/validatorLog: the info log a
// client-side validator produced for a document.
type ValidatorLogArgs struct {
	URI string `json:"uri"`
	Log string `json:"log"`
}

// IndexingCompletedParams is sent once a workspace indexing pass ends.
type IndexingCompletedParams struct {
	Message       string  `json:"message"`
	Files         int     `json:"files"`
	TimeInSeconds float64 `json:"timeInSeconds"`
}

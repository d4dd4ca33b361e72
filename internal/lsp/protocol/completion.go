// Package protocol holds the LSP wire types the server exchanges. Result
// types alias github.com/tliron/glsp/protocol_3_16; request parameters are
// local structs that also carry the parsed document to providers.
package protocol

import (
	"github.com/glsld/glsld/internal/glsl"
	glspproto "github.com/tliron/glsp/protocol_3_16"
)

type (
	CompletionItem     = glspproto.CompletionItem
	CompletionItemKind = glspproto.CompletionItemKind
	CompletionList     = glspproto.CompletionList
	InsertTextFormat   = glspproto.InsertTextFormat
	MarkupContent      = glspproto.MarkupContent
)

const (
	CompletionItemKindFunction      = glspproto.CompletionItemKindFunction
	CompletionItemKindField         = glspproto.CompletionItemKindField
	CompletionItemKindVariable      = glspproto.CompletionItemKindVariable
	CompletionItemKindStruct        = glspproto.CompletionItemKindStruct
	CompletionItemKindTypeParameter = glspproto.CompletionItemKindTypeParameter

	InsertTextFormatPlainText = glspproto.InsertTextFormatPlainText
	InsertTextFormatSnippet   = glspproto.InsertTextFormatSnippet

	MarkupKindPlainText = glspproto.MarkupKindPlainText
)

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentPositionParams is the common shape of position requests.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// CompletionParams represents the parameters for a completion request.
type CompletionParams struct {
	TextDocumentPositionParams
	Context *struct {
		TriggerKind      int     `json:"triggerKind"`
		TriggerCharacter *string `json:"triggerCharacter,omitempty"`
	} `json:"context,omitempty"`

	// Filled by the server before providers run.
	DocumentContent string         `json:"-"`
	Snapshot        *glsl.Snapshot `json:"-"`
}

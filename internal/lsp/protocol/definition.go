package protocol

import (
	"github.com/glsld/glsld/internal/glsl"
	glspproto "github.com/tliron/glsp/protocol_3_16"
)

type (
	Location = glspproto.Location
	Range    = glspproto.Range
	Position = glspproto.Position
)

// DefinitionParams represents the parameters for a definition request.
type DefinitionParams struct {
	TextDocumentPositionParams

	DocumentContent string         `json:"-"`
	Snapshot        *glsl.Snapshot `json:"-"`
}

// FromPosition converts a parser position to an LSP position.
func FromPosition(pos glsl.Position) Position {
	return Position{
		Line:      glspproto.UInteger(max(pos.Line, 0)),
		Character: glspproto.UInteger(max(pos.Column, 0)),
	}
}

// ToPosition converts an LSP position to a parser position.
func ToPosition(pos Position) glsl.Position {
	return glsl.Position{Line: int(pos.Line), Column: int(pos.Character)}
}

// NewLocation builds a location spanning length columns from pos.
func NewLocation(uri string, pos glsl.Position, length int) Location {
	end := pos
	end.Column += length
	return Location{
		URI:   glspproto.DocumentUri(uri),
		Range: Range{Start: FromPosition(pos), End: FromPosition(end)},
	}
}

package protocol

import (
	"github.com/glsld/glsld/internal/glsl"
	glspproto "github.com/tliron/glsp/protocol_3_16"
)

type (
	Diagnostic               = glspproto.Diagnostic
	DiagnosticSeverity       = glspproto.DiagnosticSeverity
	PublishDiagnosticsParams = glspproto.PublishDiagnosticsParams
)

const (
	DiagnosticSeverityError   = glspproto.DiagnosticSeverityError
	DiagnosticSeverityWarning = glspproto.DiagnosticSeverityWarning
)

// DiagnosticSource tags every diagnostic the server produces.
const DiagnosticSource = "glsld"

// NewDiagnostic builds a diagnostic covering length columns from pos.
func NewDiagnostic(severity DiagnosticSeverity, pos glsl.Position, length int, message string) Diagnostic {
	end := pos
	end.Column += max(length, 1)
	source := DiagnosticSource
	return Diagnostic{
		Range:    Range{Start: FromPosition(pos), End: FromPosition(end)},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}
}

// NewPublishDiagnosticsParams builds a publish notification. Diagnostics is
// never nil so an empty list clears the client's markers.
func NewPublishDiagnosticsParams(uri string, version int, diags []Diagnostic) PublishDiagnosticsParams {
	if diags == nil {
		diags = []Diagnostic{}
	}
	v := glspproto.UInteger(max(version, 0))
	return PublishDiagnosticsParams{
		URI:         glspproto.DocumentUri(uri),
		Version:     &v,
		Diagnostics: diags,
	}
}

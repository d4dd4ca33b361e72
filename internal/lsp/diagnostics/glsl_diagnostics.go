package diagnostics

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/lsp/protocol"
)

var infoLogError = regexp.MustCompile(`^ERROR: (file:///.*):([0-9]+): (.*)$`)

// GLSLDiagnosticsProvider reports the parser errors of a document.
type GLSLDiagnosticsProvider struct{}

func NewGLSLDiagnosticsProvider() *GLSLDiagnosticsProvider {
	return &GLSLDiagnosticsProvider{}
}

func (p *GLSLDiagnosticsProvider) GetDiagnostics(ctx context.Context, uri string, snap *glsl.Snapshot, content []byte) ([]protocol.Diagnostic, error) {
	if snap == nil {
		return []protocol.Diagnostic{}, nil
	}
	errs := snap.Errors()
	diags := make([]protocol.Diagnostic, 0, len(errs))
	for _, e := range errs {
		diags = append(diags, protocol.NewDiagnostic(protocol.DiagnosticSeverityError, e.Token.Pos, len(e.Token.Lexeme), e.Message))
	}
	return diags, nil
}

// ParseInfoLog turns a compiler info log into diagnostics grouped by URI.
// Only lines of the form "ERROR: <uri>:<line>: <message>" are recognised;
// line numbers in the log are 1-based.
func ParseInfoLog(log string) map[string][]protocol.Diagnostic {
	out := make(map[string][]protocol.Diagnostic)
	for _, line := range strings.Split(log, "\n") {
		m := infoLogError.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		pos := glsl.Position{Line: max(n-1, 0)}
		out[m[1]] = append(out[m[1]], protocol.NewDiagnostic(protocol.DiagnosticSeverityError, pos, 0, strings.TrimSpace(m[3])))
	}
	return out
}

package completion

import (
	"context"
	"fmt"

	engine "github.com/glsld/glsld/internal/completion"
	"github.com/glsld/glsld/internal/lsp"
	"github.com/glsld/glsld/internal/lsp/protocol"
)

var kinds = map[engine.CandidateKind]protocol.CompletionItemKind{
	engine.KindVariable: protocol.CompletionItemKindVariable,
	engine.KindField:    protocol.CompletionItemKindField,
	engine.KindFunction: protocol.CompletionItemKindFunction,
	engine.KindStruct:   protocol.CompletionItemKindStruct,
	engine.KindTypeName: protocol.CompletionItemKindTypeParameter,
}

// GLSLCompletionProvider completes identifiers and member accesses with the
// context-resolving completion engine.
type GLSLCompletionProvider struct{}

func NewGLSLCompletionProvider() *GLSLCompletionProvider {
	return &GLSLCompletionProvider{}
}

func (p *GLSLCompletionProvider) GetTriggerCharacters() []string {
	return []string{"."}
}

func (p *GLSLCompletionProvider) GetCompletions(ctx context.Context, params *protocol.CompletionParams) []protocol.CompletionItem {
	if params.Snapshot == nil {
		return []protocol.CompletionItem{}
	}

	pos := protocol.ToPosition(params.Position)
	term := PartialExpression(lsp.LinePrefix(params.DocumentContent, pos))
	if term == "" {
		return []protocol.CompletionItem{}
	}

	candidates := engine.Resolve(engine.DocumentContext{
		Resolver: params.Snapshot,
		Scope:    params.Snapshot.ScopeAt(pos),
	}, term)
	return ToCompletionItems(candidates)
}

// ToCompletionItems maps engine candidates to LSP items. Sort text keeps
// the engine's order.
func ToCompletionItems(candidates []engine.Candidate) []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, 0, len(candidates))
	for i, c := range candidates {
		kind := kinds[c.Kind]
		format := protocol.InsertTextFormatPlainText
		if c.InsertFormat == engine.InsertSnippet {
			format = protocol.InsertTextFormatSnippet
		}
		item := protocol.CompletionItem{
			Label:            c.Label,
			Kind:             &kind,
			SortText:         ptr(fmt.Sprintf("%05d", i)),
			InsertText:       ptr(c.InsertText),
			InsertTextFormat: &format,
		}
		if c.Detail != "" {
			item.Detail = ptr(c.Detail)
		}
		if c.Documentation != "" {
			item.Documentation = protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: c.Documentation}
		}
		items = append(items, item)
	}
	return items
}

// PartialExpression returns the member-access chain that ends the line
// prefix: identifiers, dots and bracketed subscripts. Anything may appear
// inside balanced brackets. An unbalanced '[' starts a new expression, so
// "lights[i." completes "i.".
func PartialExpression(prefix string) string {
	depth := 0
	start := len(prefix)
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		switch {
		case c == ']':
			depth++
		case c == '[':
			if depth == 0 {
				return prefix[i+1:]
			}
			depth--
		case depth > 0:
		case isIdentChar(c) || c == '.':
		default:
			return prefix[start:]
		}
		start = i
	}
	if depth > 0 {
		return ""
	}
	return prefix[start:]
}

func isIdentChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func ptr[T any](v T) *T {
	return &v
}

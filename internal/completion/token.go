// Package completion resolves the partial expression in front of the cursor
// to a semantic context and produces completion candidates for it.
//
// The walk is a small pushdown automaton over a coarse token stream: each
// token either pushes an unresolved frame or reduces the frames on top of
// the stack to a typed value, consulting a Resolver for declared types.
// Incomplete input is the normal case, so every failure ends the walk with
// an empty result instead of an error.
package completion

import "github.com/glsld/glsld/internal/glsl"

// TokenKind is the coarse classification the machine dispatches on.
type TokenKind uint8

const (
	TokenIdentifier TokenKind = iota
	TokenDot
	TokenLeftBracket
	TokenRightBracket
	TokenIntLiteral
	TokenOther
	TokenEnd
)

func (k TokenKind) String() string {
	switch k {
	case TokenIdentifier:
		return "identifier"
	case TokenDot:
		return "'.'"
	case TokenLeftBracket:
		return "'['"
	case TokenRightBracket:
		return "']'"
	case TokenIntLiteral:
		return "integer"
	case TokenOther:
		return "other"
	case TokenEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Token is one lexeme of the partial expression.
type Token struct {
	Kind TokenKind
	Text string
}

// TokenSource yields the tokens of a partial expression. Once TokenEnd is
// returned every further call returns TokenEnd again.
type TokenSource interface {
	Next() Token
}

type sliceSource struct {
	tokens []Token
	pos    int
}

// NewTokenSource tokenizes text with the GLSL lexer.
func NewTokenSource(text string) TokenSource {
	lexed := glsl.Tokenize(text)
	tokens := make([]Token, 0, len(lexed))
	for _, tok := range lexed {
		if tok.Kind == glsl.TokenEOF {
			break
		}
		tokens = append(tokens, Token{Kind: coarseKind(tok.Kind), Text: tok.Lexeme})
	}
	return &sliceSource{tokens: tokens}
}

// NewSliceSource replays tokens, appending the end marker.
func NewSliceSource(tokens []Token) TokenSource {
	return &sliceSource{tokens: tokens}
}

func (s *sliceSource) Next() Token {
	for s.pos < len(s.tokens) {
		tok := s.tokens[s.pos]
		s.pos++
		if tok.Kind != TokenEnd {
			return tok
		}
		s.pos = len(s.tokens)
	}
	return Token{Kind: TokenEnd}
}

func coarseKind(kind glsl.TokenKind) TokenKind {
	switch kind {
	case glsl.TokenIdent:
		return TokenIdentifier
	case glsl.TokenDot:
		return TokenDot
	case glsl.TokenLeftBracket:
		return TokenLeftBracket
	case glsl.TokenRightBracket:
		return TokenRightBracket
	case glsl.TokenIntLiteral:
		return TokenIntLiteral
	default:
		return TokenOther
	}
}

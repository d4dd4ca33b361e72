// Package glsl is a declaration-level GLSL front end: a lexer, a tolerant
// parser that records scopes and symbols, the builtin symbol table and the
// per-document snapshot the completion engine resolves types against.
package glsl

import "fmt"

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral

	// TokenDirective holds a whole preprocessor line, including the '#'.
	TokenDirective

	TokenDot          // .
	TokenComma        // ,
	TokenSemicolon    // ;
	TokenColon        // :
	TokenQuestion     // ?
	TokenEqual        // =
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// TokenOperator covers every other operator; the lexeme tells which.
	TokenOperator
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "Error"
	case TokenIdent:
		return "Ident"
	case TokenIntLiteral:
		return "IntLiteral"
	case TokenFloatLiteral:
		return "FloatLiteral"
	case TokenDirective:
		return "Directive"
	case TokenDot:
		return "."
	case TokenComma:
		return ","
	case TokenSemicolon:
		return ";"
	case TokenColon:
		return ":"
	case TokenQuestion:
		return "?"
	case TokenEqual:
		return "="
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenLeftBrace:
		return "{"
	case TokenRightBrace:
		return "}"
	case TokenLeftBracket:
		return "["
	case TokenRightBracket:
		return "]"
	case TokenOperator:
		return "Operator"
	default:
		return "Unknown"
	}
}

// Position is a zero-based line/column pair, matching LSP positions.
type Position struct {
	Line   int
	Column int
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Pos    Position
}

// End returns the position just past the token on its starting line.
func (t Token) End() Position {
	return Position{Line: t.Pos.Line, Column: t.Pos.Column + len(t.Lexeme)}
}

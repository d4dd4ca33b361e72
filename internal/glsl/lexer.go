package glsl

// Lexer tokenizes GLSL source code. It never fails: unknown characters
// become TokenError tokens and the parser decides what to do with them.
type Lexer struct {
	source   string
	pos      int
	line     int
	column   int
	start    int
	startPos Position
	tokens   []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	estTokens := len(source) / 5
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source, terminated by TokenEOF.
func (l *Lexer) Tokenize() []Token {
	for {
		l.skipWhitespaceAndComments()
		if l.isAtEnd() {
			break
		}
		l.start = l.pos
		l.startPos = Position{Line: l.line, Column: l.column}
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Kind: TokenEOF,
		Pos:  Position{Line: l.line, Column: l.column},
	})
	return l.tokens
}

// Tokenize is shorthand for NewLexer(source).Tokenize().
func Tokenize(source string) []Token {
	return NewLexer(source).Tokenize()
}

func (l *Lexer) scanToken() {
	r := l.advance()

	switch r {
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ',':
		l.addToken(TokenComma)
	case ';':
		l.addToken(TokenSemicolon)
	case ':':
		l.addToken(TokenColon)
	case '?':
		l.addToken(TokenQuestion)
	case '~':
		l.addToken(TokenOperator)
	case '#':
		l.directive()
	case '.':
		if isDigit(l.peek()) {
			l.fraction()
			return
		}
		l.addToken(TokenDot)
	case '=':
		if l.match('=') {
			l.addToken(TokenOperator)
		} else {
			l.addToken(TokenEqual)
		}
	case '+', '-', '&', '|':
		// ++ -- && || and their compound assignments
		if !l.match(r) {
			l.match('=')
		}
		l.addToken(TokenOperator)
	case '*', '/', '%', '^', '!':
		l.match('=')
		l.addToken(TokenOperator)
	case '<', '>':
		l.match(r)
		l.match('=')
		l.addToken(TokenOperator)
	default:
		switch {
		case isDigit(r):
			l.number()
		case isAlpha(r) || r == '_':
			l.identifier()
		default:
			l.addToken(TokenError)
		}
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		switch c := l.peek(); {
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.advance()
		case c == '\n':
			l.advance()
		case c == '\\' && l.peekNext() == '\n':
			l.advance()
			l.advance()
		case c == '/' && l.peekNext() == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekNext() == '*':
			l.advance()
			l.advance()
			for !l.isAtEnd() && !(l.peek() == '*' && l.peekNext() == '/') {
				l.advance()
			}
			if !l.isAtEnd() {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

// directive consumes a preprocessor line, honouring backslash continuations.
func (l *Lexer) directive() {
	for !l.isAtEnd() {
		c := l.peek()
		if c == '\\' && l.peekNext() == '\n' {
			l.advance()
			l.advance()
			continue
		}
		if c == '\n' {
			break
		}
		if c == '/' && l.peekNext() == '/' {
			break
		}
		l.advance()
	}
	l.addToken(TokenDirective)
}

func (l *Lexer) number() {
	if l.source[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		if l.peek() == 'u' || l.peek() == 'U' {
			l.advance()
		}
		l.addToken(TokenIntLiteral)
		return
	}

	for isDigit(l.peek()) {
		l.advance()
	}

	// "1." and "1.5" are floats, "1.x" is not valid GLSL and lexes as int + dot.
	if l.peek() == '.' && !isAlpha(l.peekNext()) && l.peekNext() != '_' {
		l.advance()
		l.fraction()
		return
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		l.exponent()
		l.floatSuffix()
		l.addToken(TokenFloatLiteral)
		return
	}

	if l.peek() == 'u' || l.peek() == 'U' {
		l.advance()
	} else if l.peek() == 'f' || l.peek() == 'F' {
		l.advance()
		l.addToken(TokenFloatLiteral)
		return
	}
	l.addToken(TokenIntLiteral)
}

// fraction finishes a float literal whose '.' was already consumed.
func (l *Lexer) fraction() {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		l.exponent()
	}
	l.floatSuffix()
	l.addToken(TokenFloatLiteral)
}

func (l *Lexer) exponent() {
	l.advance()
	if l.peek() == '+' || l.peek() == '-' {
		l.advance()
	}
	for isDigit(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) floatSuffix() {
	switch {
	case l.peek() == 'f' || l.peek() == 'F':
		l.advance()
	case (l.peek() == 'l' && l.peekNext() == 'f') || (l.peek() == 'L' && l.peekNext() == 'F'):
		l.advance()
		l.advance()
	}
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	l.addToken(TokenIdent)
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Pos:    l.startPos,
	})
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

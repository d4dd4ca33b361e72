package glsl

import (
	"fmt"
	"strconv"
	"strings"
)

// maxErrors bounds how many diagnostics a single parse records.
const maxErrors = 64

// ParseError represents a parsing error.
type ParseError struct {
	Message string
	Token   Token
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Token.Pos.Line+1, e.Token.Pos.Column+1, e.Message)
}

// Include is one #include directive.
type Include struct {
	Path string
	Pos  Position
}

// Unit is the declaration-level view of one source file.
type Unit struct {
	URI        string
	Version    int
	Profile    string
	Global     *Scope
	Types      []TypeSymbol
	Aggregates []*StructType
	Includes   []Include
	Errors     []ParseError
}

// LookupType returns the type the unit declares under name.
func (u *Unit) LookupType(name string) (TypeSymbol, bool) {
	for _, ts := range u.Types {
		if ts.Name == name {
			return ts, true
		}
	}
	return TypeSymbol{}, false
}

// ParseOptions configures a parse.
type ParseOptions struct {
	// URI is stamped on every symbol location.
	URI string
	// Types supplies type names declared outside the source, such as the
	// structs of included files.
	Types map[string]Type
	// Builtin marks every declared symbol as a builtin.
	Builtin bool
}

// Parse parses source with default options.
func Parse(source string) *Unit {
	return ParseWithOptions(source, ParseOptions{})
}

// ParseWithOptions parses source into a Unit. It never fails: malformed
// declarations are recorded in Unit.Errors and skipped.
func ParseWithOptions(source string, opts ParseOptions) *Unit {
	p := NewParser(Tokenize(source), opts)
	return p.Parse()
}

// Parser builds a Unit from a token stream.
type Parser struct {
	tokens  []Token
	current int
	opts    ParseOptions
	unit    *Unit
	types   map[string]Type
}

// NewParser creates a new parser for the given tokens. Directives are pulled
// out of the stream up front since they may appear between any two tokens.
func NewParser(tokens []Token, opts ParseOptions) *Parser {
	p := &Parser{
		opts:  opts,
		unit:  &Unit{URI: opts.URI, Global: NewGlobalScope()},
		types: make(map[string]Type),
	}
	for _, tok := range tokens {
		if tok.Kind == TokenDirective {
			p.directive(tok)
			continue
		}
		p.tokens = append(p.tokens, tok)
	}
	if len(p.tokens) == 0 || p.tokens[len(p.tokens)-1].Kind != TokenEOF {
		p.tokens = append(p.tokens, Token{Kind: TokenEOF})
	}
	return p
}

// Parse parses every external declaration.
func (p *Parser) Parse() *Unit {
	for !p.isAtEnd() {
		start := p.current
		if err := p.declaration(); err != nil {
			p.report(*err)
			p.synchronize()
		}
		if p.current == start {
			p.advance()
		}
	}
	return p.unit
}

func (p *Parser) report(err ParseError) {
	if len(p.unit.Errors) < maxErrors {
		p.unit.Errors = append(p.unit.Errors, err)
	}
}

func (p *Parser) directive(tok Token) {
	text := strings.TrimSpace(strings.TrimPrefix(tok.Lexeme, "#"))
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "version":
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				p.unit.Version = v
			}
		}
		if len(fields) > 2 {
			p.unit.Profile = fields[2]
		}
	case "include":
		if path, ok := includePath(strings.TrimSpace(strings.TrimPrefix(text, "include"))); ok {
			p.unit.Includes = append(p.unit.Includes, Include{Path: path, Pos: tok.Pos})
		}
	}
}

func includePath(arg string) (string, bool) {
	if len(arg) < 2 {
		return "", false
	}
	switch {
	case arg[0] == '"':
		if end := strings.IndexByte(arg[1:], '"'); end >= 0 {
			return arg[1 : end+1], true
		}
	case arg[0] == '<':
		if end := strings.IndexByte(arg, '>'); end > 0 {
			return arg[1:end], true
		}
	}
	return "", false
}

// ScanIncludes lists the #include directives of source without parsing it.
func ScanIncludes(source string) []Include {
	var includes []Include
	for _, tok := range Tokenize(source) {
		if tok.Kind != TokenDirective {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(tok.Lexeme, "#"))
		if !strings.HasPrefix(text, "include") {
			continue
		}
		if path, ok := includePath(strings.TrimSpace(strings.TrimPrefix(text, "include"))); ok {
			includes = append(includes, Include{Path: path, Pos: tok.Pos})
		}
	}
	return includes
}

// declaration parses one external declaration.
func (p *Parser) declaration() *ParseError {
	if p.match(TokenSemicolon) {
		return nil
	}
	if p.checkIdent("precision") {
		p.skipStatement()
		return nil
	}

	quals := p.qualifiers()
	if p.match(TokenSemicolon) {
		// layout(local_size_x = 8) in;
		return nil
	}

	if quals.has("buffer_reference") && p.check(TokenIdent) && p.peekAt(1).Kind == TokenSemicolon {
		p.referenceType(p.advance())
		p.advance()
		return nil
	}
	if quals.storage() && p.check(TokenIdent) && p.peekAt(1).Kind == TokenLeftBrace {
		return p.interfaceBlock(quals)
	}

	typ, err := p.typeSpecifier()
	if err != nil {
		return err
	}
	if !p.check(TokenIdent) {
		if _, ok := typ.(*StructType); ok && p.match(TokenSemicolon) {
			return nil
		}
		return p.errorf(p.peek(), "expected identifier after %s", TypeString(typ))
	}
	if p.peekAt(1).Kind == TokenLeftParen {
		return p.function(typ)
	}
	return p.declaratorList(p.unit.Global, typ, quals)
}

var qualifierWords = map[string]bool{
	"const": true, "in": true, "out": true, "inout": true, "uniform": true, "buffer": true,
	"shared": true, "attribute": true, "varying": true, "patch": true, "sample": true,
	"centroid": true, "flat": true, "smooth": true, "noperspective": true, "invariant": true,
	"precise": true, "coherent": true, "volatile": true, "restrict": true, "readonly": true,
	"writeonly": true, "highp": true, "mediump": true, "lowp": true,
	"rayPayloadEXT": true, "rayPayloadInEXT": true, "hitAttributeEXT": true,
	"callableDataEXT": true, "callableDataInEXT": true, "shaderRecordEXT": true,
}

var storageWords = map[string]bool{
	"in": true, "out": true, "uniform": true, "buffer": true, "shared": true,
	"rayPayloadEXT": true, "rayPayloadInEXT": true, "hitAttributeEXT": true, "shaderRecordEXT": true,
}

type qualifierSet struct {
	words  []string
	layout map[string]bool
}

func (q qualifierSet) has(layoutID string) bool {
	return q.layout[layoutID]
}

func (q qualifierSet) storage() bool {
	for _, w := range q.words {
		if storageWords[w] {
			return true
		}
	}
	return false
}

// qualifiers collects storage, precision and layout qualifiers.
func (p *Parser) qualifiers() qualifierSet {
	var q qualifierSet
	for p.check(TokenIdent) {
		word := p.peek().Lexeme
		switch {
		case word == "layout":
			p.advance()
			p.layoutQualifier(&q)
		case qualifierWords[word]:
			p.advance()
			q.words = append(q.words, word)
		default:
			return q
		}
	}
	return q
}

func (p *Parser) layoutQualifier(q *qualifierSet) {
	if !p.match(TokenLeftParen) {
		return
	}
	if q.layout == nil {
		q.layout = make(map[string]bool)
	}
	depth := 1
	expectID := true
	for depth > 0 && !p.isAtEnd() {
		tok := p.advance()
		switch tok.Kind {
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			depth--
		case TokenComma:
			if depth == 1 {
				expectID = true
			}
		case TokenIdent:
			if expectID && depth == 1 {
				q.layout[tok.Lexeme] = true
				expectID = false
			}
		default:
			expectID = false
		}
	}
}

// typeSpecifier parses a type name with optional array dimensions. Unknown
// names are kept as opaque types so later lookups still find the symbol.
func (p *Parser) typeSpecifier() (Type, *ParseError) {
	if p.checkIdent("struct") {
		return p.structSpecifier()
	}
	if !p.check(TokenIdent) {
		return nil, p.errorf(p.peek(), "unexpected %s, expected type", describe(p.peek()))
	}
	name := p.advance().Lexeme
	typ, ok := p.lookupType(name)
	if !ok {
		typ = OpaqueType{Name: name}
	}
	return NewArray(typ, p.arrayDims()), nil
}

func (p *Parser) lookupType(name string) (Type, bool) {
	if t, ok := p.types[name]; ok {
		return t, true
	}
	if t, ok := p.opts.Types[name]; ok {
		return t, true
	}
	return LookupBuiltinType(name)
}

func (p *Parser) defineType(name string, typ Type, pos Position) {
	p.types[name] = typ
	for i, ts := range p.unit.Types {
		if ts.Name == name {
			p.unit.Types[i].Type = typ
			return
		}
	}
	p.unit.Types = append(p.unit.Types, TypeSymbol{
		Name: name,
		Type: typ,
		Loc:  Location{URI: p.opts.URI, Pos: pos},
	})
}

func (p *Parser) structSpecifier() (Type, *ParseError) {
	kw := p.advance()
	st := &StructType{Pos: kw.Pos}
	if p.check(TokenIdent) {
		name := p.advance()
		st.Name = name.Lexeme
		st.Pos = name.Pos
	}
	if err := p.memberList(st); err != nil {
		return nil, err
	}
	if st.Name != "" {
		p.defineType(st.Name, st, st.Pos)
	}
	return NewArray(st, p.arrayDims()), nil
}

// memberList parses "{ member; ... }" into st.
func (p *Parser) memberList(st *StructType) *ParseError {
	if !p.match(TokenLeftBrace) {
		return p.errorf(p.peek(), "expected '{', got %s", describe(p.peek()))
	}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		start := p.current
		if err := p.member(st); err != nil {
			p.report(*err)
			p.skipMember()
		}
		if p.current == start {
			p.advance()
		}
	}
	if !p.match(TokenRightBrace) {
		return p.errorf(p.peek(), "expected '}' to close %s", TypeString(st))
	}
	return nil
}

func (p *Parser) member(st *StructType) *ParseError {
	p.qualifiers()
	typ, err := p.typeSpecifier()
	if err != nil {
		return err
	}
	for {
		if !p.check(TokenIdent) {
			return p.errorf(p.peek(), "expected member name, got %s", describe(p.peek()))
		}
		name := p.advance()
		st.Members = append(st.Members, Member{
			Name: name.Lexeme,
			Type: NewArray(typ, p.arrayDims()),
			Pos:  name.Pos,
		})
		if !p.match(TokenComma) {
			break
		}
	}
	if !p.match(TokenSemicolon) {
		return p.errorf(p.peek(), "expected ';' after member, got %s", describe(p.peek()))
	}
	return nil
}

func (p *Parser) skipMember() {
	for !p.isAtEnd() && !p.check(TokenRightBrace) {
		if p.advance().Kind == TokenSemicolon {
			return
		}
	}
}

// arrayDims parses any number of "[n]" suffixes. Sizes that are not plain
// integer literals are recorded as 0.
func (p *Parser) arrayDims() []int {
	var dims []int
	for p.match(TokenLeftBracket) {
		size := 0
		if p.check(TokenIntLiteral) && p.peekAt(1).Kind == TokenRightBracket {
			size = parseIntLiteral(p.advance().Lexeme)
		}
		depth := 1
		for !p.isAtEnd() {
			tok := p.advance()
			if tok.Kind == TokenLeftBracket {
				depth++
			} else if tok.Kind == TokenRightBracket {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		dims = append(dims, size)
	}
	return dims
}

func parseIntLiteral(lexeme string) int {
	v, err := strconv.ParseInt(strings.TrimRight(lexeme, "uU"), 0, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(v)
}

func (p *Parser) referenceType(name Token) *ReferenceType {
	if existing, ok := p.types[name.Lexeme].(*ReferenceType); ok {
		return existing
	}
	ref := &ReferenceType{Name: name.Lexeme}
	p.defineType(name.Lexeme, ref, name.Pos)
	return ref
}

// interfaceBlock parses "qualifiers Name { members } [instance[dims]];".
func (p *Parser) interfaceBlock(quals qualifierSet) *ParseError {
	name := p.advance()
	st := &StructType{Name: name.Lexeme, Pos: name.Pos}

	var ref *ReferenceType
	if quals.has("buffer_reference") {
		ref = p.referenceType(name)
	}
	if err := p.memberList(st); err != nil {
		return err
	}
	if ref != nil {
		ref.Referent = st
	}

	if p.check(TokenIdent) {
		inst := p.advance()
		var typ Type = st
		if ref != nil {
			typ = ref
		}
		p.declare(p.unit.Global, &Symbol{
			Name:       inst.Lexeme,
			Kind:       SymbolVariable,
			Type:       NewArray(typ, p.arrayDims()),
			Qualifiers: quals.words,
			Loc:        Location{URI: p.opts.URI, Pos: inst.Pos},
		})
	} else if ref == nil {
		p.unit.Aggregates = append(p.unit.Aggregates, st)
	}

	if !p.match(TokenSemicolon) {
		return p.errorf(p.peek(), "expected ';' after block %s", name.Lexeme)
	}
	return nil
}

// function parses a prototype or definition whose return type is already
// consumed.
func (p *Parser) function(ret Type) *ParseError {
	name := p.advance()
	p.advance() // (

	var params []Param
	if p.checkIdent("void") && p.peekAt(1).Kind == TokenRightParen {
		p.advance()
	}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		p.qualifiers()
		typ, err := p.typeSpecifier()
		if err != nil {
			return err
		}
		param := Param{Type: typ, Pos: p.peek().Pos}
		if p.check(TokenIdent) {
			tok := p.advance()
			param.Name = tok.Lexeme
			param.Pos = tok.Pos
			param.Type = NewArray(typ, p.arrayDims())
		}
		params = append(params, param)
		if !p.match(TokenComma) {
			break
		}
	}
	if !p.match(TokenRightParen) {
		return p.errorf(p.peek(), "expected ')' after parameters of %s", name.Lexeme)
	}

	sym := &Symbol{
		Name:   name.Lexeme,
		Kind:   SymbolFunction,
		Type:   ret,
		Params: params,
		Loc:    Location{URI: p.opts.URI, Pos: name.Pos},
	}
	if !p.hasOverload(sym) {
		p.declare(p.unit.Global, sym)
	}

	if p.check(TokenLeftBrace) {
		p.compoundStatement(p.unit.Global, params)
		return nil
	}
	if !p.match(TokenSemicolon) {
		return p.errorf(p.peek(), "expected ';' or function body after %s", name.Lexeme)
	}
	return nil
}

// hasOverload reports whether a prototype with the same signature was
// already declared, so a later definition does not list it twice.
func (p *Parser) hasOverload(sym *Symbol) bool {
	for _, existing := range p.unit.Global.Symbols {
		if existing.Kind != SymbolFunction || existing.Name != sym.Name {
			continue
		}
		if paramTypes(existing) == paramTypes(sym) {
			return true
		}
	}
	return false
}

func paramTypes(sym *Symbol) string {
	parts := make([]string, len(sym.Params))
	for i, prm := range sym.Params {
		parts[i] = TypeString(prm.Type)
	}
	return strings.Join(parts, ",")
}

func (p *Parser) declare(scope *Scope, sym *Symbol) {
	sym.Builtin = p.opts.Builtin
	scope.Declare(sym)
}

// declaratorList parses "name[dims] = init, name2 ...;" after the type.
func (p *Parser) declaratorList(scope *Scope, typ Type, quals qualifierSet) *ParseError {
	for {
		if !p.check(TokenIdent) {
			return p.errorf(p.peek(), "expected identifier, got %s", describe(p.peek()))
		}
		name := p.advance()
		p.declare(scope, &Symbol{
			Name:       name.Lexeme,
			Kind:       SymbolVariable,
			Type:       NewArray(typ, p.arrayDims()),
			Qualifiers: quals.words,
			Loc:        Location{URI: p.opts.URI, Pos: name.Pos},
		})
		if p.match(TokenEqual) {
			p.skipInitializer()
		}
		if !p.match(TokenComma) {
			break
		}
	}
	if !p.match(TokenSemicolon) {
		return p.errorf(p.peek(), "expected ';' after declaration, got %s", describe(p.peek()))
	}
	return nil
}

// skipInitializer skips to the ',' or ';' ending the initializer.
func (p *Parser) skipInitializer() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case TokenLeftParen, TokenLeftBracket, TokenLeftBrace:
			depth++
		case TokenRightParen, TokenRightBracket:
			depth--
		case TokenRightBrace:
			if depth == 0 {
				return
			}
			depth--
		case TokenComma, TokenSemicolon:
			if depth <= 0 {
				return
			}
		}
		p.advance()
	}
}

// compoundStatement parses a braced block as a new scope. params are
// declared in it before any statement.
func (p *Parser) compoundStatement(parent *Scope, params []Param) {
	open := p.advance()
	scope := parent.openChild(open.Pos)
	for _, prm := range params {
		if prm.Name == "" {
			continue
		}
		p.declare(scope, &Symbol{
			Name: prm.Name,
			Kind: SymbolParameter,
			Type: prm.Type,
			Loc:  Location{URI: p.opts.URI, Pos: prm.Pos},
		})
	}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		start := p.current
		p.statement(scope)
		if p.current == start {
			p.advance()
		}
	}
	scope.End = p.peek().Pos
	if !p.match(TokenRightBrace) {
		p.report(ParseError{Message: "expected '}' before end of file", Token: p.peek()})
	}
}

var headerKeywords = map[string]bool{"if": true, "while": true, "switch": true}

var jumpKeywords = map[string]bool{"return": true, "break": true, "continue": true, "discard": true}

func (p *Parser) statement(scope *Scope) {
	tok := p.peek()
	switch {
	case tok.Kind == TokenLeftBrace:
		p.compoundStatement(scope, nil)
	case tok.Kind == TokenSemicolon:
		p.advance()
	case tok.Kind != TokenIdent:
		p.skipStatement()
	case tok.Lexeme == "for":
		p.forStatement(scope)
	case headerKeywords[tok.Lexeme]:
		p.advance()
		p.skipParens()
	case tok.Lexeme == "else" || tok.Lexeme == "do":
		p.advance()
	case tok.Lexeme == "case" || tok.Lexeme == "default":
		for !p.isAtEnd() && !p.check(TokenRightBrace) {
			if p.advance().Kind == TokenColon {
				return
			}
		}
	case jumpKeywords[tok.Lexeme]:
		p.skipStatement()
	case p.startsDeclaration():
		if err := p.localDeclaration(scope); err != nil {
			p.report(*err)
			p.skipStatement()
		}
	default:
		p.skipStatement()
	}
}

// startsDeclaration decides whether the statement at the cursor declares
// variables: a qualifier, a struct, or a known type followed by a name.
func (p *Parser) startsDeclaration() bool {
	tok := p.peek()
	if qualifierWords[tok.Lexeme] || tok.Lexeme == "layout" || tok.Lexeme == "struct" {
		return true
	}
	if _, ok := p.lookupType(tok.Lexeme); !ok {
		return false
	}
	next := p.peekAt(1).Kind
	return next == TokenIdent || next == TokenLeftBracket
}

func (p *Parser) localDeclaration(scope *Scope) *ParseError {
	quals := p.qualifiers()
	typ, err := p.typeSpecifier()
	if err != nil {
		return err
	}
	if _, ok := typ.(*StructType); ok && p.match(TokenSemicolon) {
		return nil
	}
	return p.declaratorList(scope, typ, quals)
}

// forStatement opens a scope covering the loop header and body so the
// induction variable is visible only inside the loop.
func (p *Parser) forStatement(scope *Scope) {
	kw := p.advance()
	loop := scope.openChild(kw.Pos)
	if p.match(TokenLeftParen) {
		if p.check(TokenIdent) && p.startsDeclaration() {
			if err := p.localDeclaration(loop); err != nil {
				p.report(*err)
			}
		}
		depth := 1
		for depth > 0 && !p.isAtEnd() && !p.check(TokenLeftBrace) {
			switch p.advance().Kind {
			case TokenLeftParen:
				depth++
			case TokenRightParen:
				depth--
			}
		}
	}
	if !p.isAtEnd() {
		p.statement(loop)
	}
	loop.End = p.previous().Pos
}

func (p *Parser) skipParens() {
	if !p.match(TokenLeftParen) {
		return
	}
	depth := 1
	for depth > 0 && !p.isAtEnd() {
		switch p.peek().Kind {
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			depth--
		case TokenLeftBrace, TokenRightBrace, TokenSemicolon:
			return
		}
		p.advance()
	}
}

// skipStatement skips to just past the next top-level ';'. It stops in
// front of braces so blocks stay balanced.
func (p *Parser) skipStatement() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case TokenLeftParen, TokenLeftBracket:
			depth++
		case TokenRightParen, TokenRightBracket:
			if depth > 0 {
				depth--
			}
		case TokenLeftBrace, TokenRightBrace:
			return
		case TokenSemicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// synchronize recovers from a malformed external declaration by skipping
// past the next ';' or balanced block.
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		tok := p.advance()
		switch tok.Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			depth--
			if depth <= 0 {
				return
			}
		case TokenSemicolon:
			if depth == 0 {
				return
			}
		}
	}
}

func (p *Parser) errorf(tok Token, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Token: tok}
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenEOF:
		return "end of file"
	case TokenIdent, TokenIntLiteral, TokenFloatLiteral, TokenOperator:
		return fmt.Sprintf("%q", tok.Lexeme)
	default:
		return fmt.Sprintf("'%s'", tok.Kind)
	}
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) checkIdent(word string) bool {
	return p.check(TokenIdent) && p.peek().Lexeme == word
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

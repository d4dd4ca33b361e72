package completion

import (
	"github.com/glsld/glsld/internal/errors"
	"github.com/glsld/glsld/internal/logger"
	"go.uber.org/zap"
)

// Walk failures. None of them reach the caller: they end the walk and are
// logged at debug level so empty completion lists can be explained.
var (
	errMalformed  = errors.New("malformed expression")
	errUnresolved = errors.New("unresolved reference")
	errShape      = errors.New("shape mismatch")
)

type state uint8

const (
	stateStart state = iota
	stateExpectDotOrBracket
	stateExpectIdentifier
	stateExpectRightBracket
)

// machine walks one partial expression. It is built per request.
type machine struct {
	ctx       DocumentContext
	src       TokenSource
	stack     stack
	lookahead *Token
	log       *zap.SugaredLogger
}

// Resolve returns the completion candidates for the partial expression
// typed before the cursor. It never fails; input it cannot make sense of
// yields no candidates.
func Resolve(ctx DocumentContext, partial string) []Candidate {
	return ResolveTokens(ctx, NewTokenSource(partial))
}

// ResolveTokens is Resolve over an already tokenized expression.
func ResolveTokens(ctx DocumentContext, src TokenSource) []Candidate {
	if ctx.Resolver == nil {
		return nil
	}
	m := &machine{
		ctx: ctx,
		src: src,
		log: logger.ComponentLogger("completion"),
	}
	if err := m.run(); err != nil {
		m.log.Debugw("Completion walk stopped", logger.FieldError, err, "depth", m.stack.len())
		return nil
	}
	return m.emit()
}

func (m *machine) next() Token {
	if m.lookahead != nil {
		tok := *m.lookahead
		m.lookahead = nil
		return tok
	}
	return m.src.Next()
}

func (m *machine) peek() Token {
	if m.lookahead == nil {
		tok := m.src.Next()
		m.lookahead = &tok
	}
	return *m.lookahead
}

// run drives the state machine until the end marker. A nil return means
// the stack is ready for the emitter.
func (m *machine) run() error {
	st := stateStart
	for {
		tok := m.next()
		switch st {
		case stateStart:
			if tok.Kind != TokenIdentifier {
				return errors.Wrapf(errMalformed, "expression starts with %s", tok.Kind)
			}
			m.stack.push(Pending{Token: tok})
			st = stateExpectDotOrBracket

		case stateExpectDotOrBracket:
			switch tok.Kind {
			case TokenDot:
				if err := m.structResolve(); err != nil {
					return err
				}
				m.stack.push(Pending{Token: tok})
				st = stateExpectIdentifier
			case TokenLeftBracket:
				if err := m.arrayResolve(); err != nil {
					return err
				}
				m.stack.push(Pending{Token: tok})
				st = stateExpectRightBracket
			case TokenEnd:
				return nil
			default:
				return errors.Wrapf(errMalformed, "unexpected %s %q after operand", tok.Kind, tok.Text)
			}

		case stateExpectIdentifier:
			switch tok.Kind {
			case TokenIdentifier:
				m.stack.push(Pending{Token: tok})
				switch m.peek().Kind {
				case TokenEnd:
					return nil
				case TokenDot, TokenLeftBracket:
					if err := m.fieldReduce(); err != nil {
						return err
					}
					st = stateExpectDotOrBracket
				default:
					return errors.Wrapf(errMalformed, "unexpected %s after field %q", m.peek().Kind, tok.Text)
				}
			case TokenEnd:
				return nil
			default:
				return errors.Wrapf(errMalformed, "expected field name, got %s", tok.Kind)
			}

		case stateExpectRightBracket:
			switch tok.Kind {
			case TokenRightBracket:
				if err := m.subscriptReduce(); err != nil {
					return err
				}
				st = stateExpectDotOrBracket
			case TokenLeftBracket:
				return errors.Wrap(errMalformed, "nested subscript")
			case TokenEnd:
				return errors.Wrap(errMalformed, "unterminated subscript")
			default:
				m.stack.push(Pending{Token: tok})
			}
		}
	}
}

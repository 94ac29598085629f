package syntax

import (
	"bufio"
	"errors"
	"io"

	"github.com/fenix-project/arx/ast"
	"github.com/fenix-project/arx/report"
)

// NOTE: All parsing functions (that are not utility/API functions) are
// commented with the EBNF notation of the grammar they parse.

// Parser is a recursive descent parser for Arx source text.  All parsing
// functions assume that they begin with the parser centered on the first token
// of their production and must consume all tokens (including the last) of
// their production, leaving the parser on the next token.
type Parser struct {
	// lexer is the Lexer this parser is using to lex the source text.
	lexer *Lexer

	// tok is the current token the parser is positioned on.
	tok *Token

	// ops is the binary operator precedence table.  It is shared with the
	// caller so user-defined operators survive across parsers.
	ops OpTable
}

// NewParser creates a new parser reading from r using the given operator
// table.  If ops is nil, a fresh table of built-in operators is used.
func NewParser(r io.Reader, ops OpTable) *Parser {
	if ops == nil {
		ops = NewOpTable()
	}

	return &Parser{
		lexer: NewLexer(bufio.NewReader(r)),
		ops:   ops,
	}
}

// unexpectedEOFMsg is the message of every error caused by input ending in the
// middle of a top-level item.
const unexpectedEOFMsg = "unexpected end of input"

// IsIncomplete returns whether err was caused by the input ending before the
// current top-level item was complete.  The shell uses this to decide whether
// to ask for a continuation line.
func IsIncomplete(err error) bool {
	var lce *report.LocalCompileError
	return errors.As(err, &lce) && lce.Message == unexpectedEOFMsg
}

// ParseTopLevel parses the next top-level item.  It returns nil and no error
// at the end of input.
//
// top_level := definition | extern | expr [';'] ;
func (p *Parser) ParseTopLevel() (ast.Node, error) {
	if p.tok == nil {
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	for p.got(TOK_SEMI) {
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	switch p.tok.Kind {
	case TOK_EOF:
		return nil, nil
	case TOK_FUNCTION:
		return p.parseDefinition()
	case TOK_EXTERN:
		return p.parseExtern()
	default:
		return p.parseTopLevelExpr()
	}
}

// ParseAll parses every top-level item of the input.  Errors do not stop
// parsing: the parser resynchronizes on the next top-level item and continues.
func (p *Parser) ParseAll() ([]ast.Node, []*report.LocalCompileError) {
	var nodes []ast.Node
	errs := p.ParseEach(func(node ast.Node) {
		nodes = append(nodes, node)
	})

	return nodes, errs
}

// ParseEach is ParseAll that hands each item to visit as soon as it is parsed
// so that its outcome can affect how the rest of the input parses.
func (p *Parser) ParseEach(visit func(ast.Node)) []*report.LocalCompileError {
	var errs []*report.LocalCompileError

	for {
		node, err := p.ParseTopLevel()
		if err != nil {
			var lce *report.LocalCompileError
			if !errors.As(err, &lce) {
				lce = &report.LocalCompileError{Message: err.Error()}
				return append(errs, lce)
			}

			errs = append(errs, lce)
			if IsIncomplete(err) || !p.Synchronize() {
				return errs
			}

			continue
		} else if node == nil {
			return errs
		}

		visit(node)
	}
}

// Synchronize skips tokens until the parser is positioned at the start of a
// plausible top-level item.  It returns false if input ended or could not be
// read.
func (p *Parser) Synchronize() bool {
	for {
		if p.tok == nil {
			if p.next() != nil {
				return false
			}
		}

		switch p.tok.Kind {
		case TOK_EOF:
			return false
		case TOK_FUNCTION, TOK_EXTERN:
			return true
		case TOK_SEMI:
			return p.next() == nil
		}

		if p.next() != nil {
			return false
		}
	}
}

// -----------------------------------------------------------------------------

// next moves the parser forward one token.  On a lexical error, the current
// token is cleared so that a later resynchronization reads a fresh token.
func (p *Parser) next() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		p.tok = nil
		return err
	}

	p.tok = tok
	return nil
}

// got returns true if the parser is on a token of a given kind.
func (p *Parser) got(kind int) bool {
	return p.tok.Kind == kind
}

// gotOper returns true if the parser is on the given operator.
func (p *Parser) gotOper(op string) bool {
	return p.tok.Kind == TOK_OPER && p.tok.Value == op
}

// assert checks that the parser is on a token of a given kind and rejects the
// token if not.
func (p *Parser) assert(kind int, expected string) error {
	if p.got(kind) {
		return nil
	}

	return p.reject(expected)
}

// assertAndNext performs an assert operation and moves the parser forward.
func (p *Parser) assertAndNext(kind int, expected string) error {
	if err := p.assert(kind, expected); err != nil {
		return err
	}

	return p.next()
}

// reject produces an error for the current token.
func (p *Parser) reject(expected string) error {
	if p.got(TOK_EOF) {
		return report.Raise(p.tok.Span, unexpectedEOFMsg)
	}

	return report.Raise(p.tok.Span, "expected %s but got `%s`", expected, p.tok.Value)
}

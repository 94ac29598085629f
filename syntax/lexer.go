package syntax

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/fenix-project/arx/report"
)

// Lexer is responsible for tokenizing Arx source text.
type Lexer struct {
	file    *bufio.Reader
	tokBuff *strings.Builder

	line, col           int
	startLine, startCol int
}

// NewLexer creates a new lexer for the given source reader.
func NewLexer(file *bufio.Reader) *Lexer {
	return &Lexer{
		file:    file,
		tokBuff: &strings.Builder{},
	}
}

// NextToken retrieves the next token from the input. If the input has ended,
// this will be an EOF token.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if c == -1 {
			break
		}

		switch {
		case c == '\n' || c == '\t' || c == ' ' || c == '\r' || c == '\v' || c == '\f':
			l.skip()
		case c == '#':
			if err := l.skipLineComment(); err != nil {
				return nil, err
			}
		case isDecimalDigit(c) || c == '.':
			return l.lexNumericLit()
		case isFirstIdentChar(c):
			return l.lexIdentOrKeyword()
		default:
			return l.lexPunctOrOper()
		}
	}

	l.mark()
	return l.makeToken(TOK_EOF), nil
}

// -----------------------------------------------------------------------------

// skipLineComment skips a `#` comment up to and including the end of its line.
func (l *Lexer) skipLineComment() error {
	for {
		c, err := l.skip()
		if err != nil {
			return err
		} else if c == -1 || c == '\n' {
			return nil
		}
	}
}

// lexPunctOrOper lexes punctuation or, failing that, a one-rune operator.
func (l *Lexer) lexPunctOrOper() (*Token, error) {
	l.mark()
	c, err := l.eat()
	if err != nil {
		return nil, err
	}

	if kind, ok := punctPatterns[c]; ok {
		return l.makeToken(kind), nil
	}

	if c > unicode.MaxASCII || !unicode.IsPrint(c) {
		l.tokBuff.Reset()
		return nil, report.Raise(l.getSpan(), "unknown rune: %q", c)
	}

	return l.makeToken(TOK_OPER), nil
}

// lexIdentOrKeyword lexes a word, which is a keyword if it is reserved.
func (l *Lexer) lexIdentOrKeyword() (*Token, error) {
	l.mark()
	l.eat()

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if !isFirstIdentChar(c) && !isDecimalDigit(c) {
			break
		}

		l.eat()
	}

	kind := TOK_IDENT
	if _kind, ok := keywordPatterns[l.tokBuff.String()]; ok {
		kind = _kind
	}

	return l.makeToken(kind), nil
}

// lexNumericLit lexes a numeric literal: digits with an optional fraction and
// an optional exponent.
func (l *Lexer) lexNumericLit() (*Token, error) {
	l.mark()

	var hasExp, expectSign bool

numLexLoop:
	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		switch {
		case isDecimalDigit(c):
			expectSign = false
		case c == '_':
			l.skip()
			continue
		case c == '.':
			// misplaced dots are caught by the final conversion
			expectSign = false
		case (c == 'e' || c == 'E') && !hasExp:
			hasExp = true
			expectSign = true
		case (c == '-' || c == '+') && expectSign:
			expectSign = false
		default:
			break numLexLoop
		}

		l.eat()
	}

	if _, err := strconv.ParseFloat(l.tokBuff.String(), 64); err != nil {
		value := l.tokBuff.String()
		l.tokBuff.Reset()
		return nil, report.Raise(l.getSpan(), "malformed number literal: `%s`", value)
	}

	return l.makeToken(TOK_NUMBER), nil
}

// -----------------------------------------------------------------------------

// mark records the current position as the start of the next token.
func (l *Lexer) mark() {
	l.startLine = l.line
	l.startCol = l.col
}

// makeToken builds a token of kind from the buffered runes and clears the
// buffer.
func (l *Lexer) makeToken(kind int) *Token {
	value := l.tokBuff.String()
	l.tokBuff.Reset()

	return &Token{
		Kind:  kind,
		Value: value,
		Span:  l.getSpan(),
	}
}

// getSpan returns the span from the mark to the current position.
func (l *Lexer) getSpan() *report.TextSpan {
	return &report.TextSpan{
		StartLine: l.startLine,
		StartCol:  l.startCol,
		EndLine:   l.line,
		EndCol:    l.col,
	}
}

// -----------------------------------------------------------------------------

// eat consumes a rune into the token buffer.  It returns -1 at the end of input.
func (l *Lexer) eat() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	l.updatePos(c)
	l.tokBuff.WriteRune(c)

	return c, nil
}

// skip consumes a rune without buffering it.  It returns -1 at the end of
// input.
func (l *Lexer) skip() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	l.updatePos(c)

	return c, nil
}

// peek returns the next rune without consuming it, or -1 at the end of input.
func (l *Lexer) peek() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	if err = l.file.UnreadRune(); err != nil {
		return 0, err
	}

	return c, nil
}

// updatePos advances the line and column past c.
func (l *Lexer) updatePos(c rune) {
	switch c {
	case '\n':
		l.line++
		l.col = 0
	case '\t':
		l.col += 4
	default:
		l.col++
	}
}

// -----------------------------------------------------------------------------

// isDecimalDigit reports whether c is 0 through 9.
func isDecimalDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// isFirstIdentChar reports whether c can start an identifier.
func isFirstIdentChar(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

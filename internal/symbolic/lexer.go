package symbolic

import (
	"fmt"
	"unicode/utf8"
)

// tokenType identifies a lexical token.
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenError
	tokenNumber
	tokenName
	tokenPlus
	tokenMinus
	tokenMult
	tokenDiv
	tokenPow
	tokenParenOpen
	tokenParenClose
	tokenComma
	tokenEqual
)

var tokenNames = map[tokenType]string{
	tokenEOF:        "end of input",
	tokenError:      "error",
	tokenNumber:     "number",
	tokenName:       "name",
	tokenPlus:       "'+'",
	tokenMinus:      "'-'",
	tokenMult:       "'*'",
	tokenDiv:        "'/'",
	tokenPow:        "'**'",
	tokenParenOpen:  "'('",
	tokenParenClose: "')'",
	tokenComma:      "','",
	tokenEqual:      "'='",
}

func (t tokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type token struct {
	typ   tokenType
	value string
	pos   int
}

const eof = -1

// lexer splits an expression into tokens, in the style of Rob Pike's
// "Lexical Scanning in Go".
type lexer struct {
	input   string
	start   int
	current int
	width   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) next() token {
	l.skipWhitespace()
	l.start = l.current

	ch := l.nextRune()
	switch {
	case ch == eof:
		return token{typ: tokenEOF, pos: l.start}
	case isDigit(ch) || (ch == '.' && isDigit(l.peek())):
		l.current = l.start
		return l.scanNumber()
	case isNameStart(ch):
		for isNameChar(l.peek()) {
			l.nextRune()
		}
		return l.emit(tokenName)
	}

	switch ch {
	case '+':
		return l.emit(tokenPlus)
	case '-':
		return l.emit(tokenMinus)
	case '*':
		if l.peek() == '*' {
			l.nextRune()
			return l.emit(tokenPow)
		}
		return l.emit(tokenMult)
	case '^':
		return l.emit(tokenPow)
	case '/':
		return l.emit(tokenDiv)
	case '(':
		return l.emit(tokenParenOpen)
	case ')':
		return l.emit(tokenParenClose)
	case ',':
		return l.emit(tokenComma)
	case '=':
		return l.emit(tokenEqual)
	}
	return token{typ: tokenError, value: string(ch), pos: l.start}
}

// scanNumber accepts digits, an optional fraction and an optional exponent.
// An "e" is only an exponent when digits follow, so "2e" lexes as 2 then e.
func (l *lexer) scanNumber() token {
	l.acceptDigits()
	if l.peek() == '.' {
		l.nextRune()
		l.acceptDigits()
	}
	if p := l.peek(); p == 'e' || p == 'E' {
		mark := l.current
		l.nextRune()
		if s := l.peek(); s == '+' || s == '-' {
			l.nextRune()
		}
		if !isDigit(l.peek()) {
			l.current = mark
		} else {
			l.acceptDigits()
		}
	}
	return l.emit(tokenNumber)
}

func (l *lexer) acceptDigits() {
	for isDigit(l.peek()) {
		l.nextRune()
	}
}

func (l *lexer) emit(t tokenType) token {
	return token{typ: t, value: l.input[l.start:l.current], pos: l.start}
}

func (l *lexer) nextRune() rune {
	if l.current >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *lexer) backup() {
	l.current -= l.width
}

func (l *lexer) peek() rune {
	r := l.nextRune()
	if r != eof {
		l.backup()
	}
	return r
}

func (l *lexer) skipWhitespace() {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.nextRune()
		default:
			return
		}
	}
}

func isDigit(r rune) bool     { return r >= '0' && r <= '9' }
func isNameStart(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isNameChar(r rune) bool  { return isNameStart(r) || isDigit(r) }

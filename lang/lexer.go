package lang

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Lex splits src into tokens. Whitespace and comments ('#' or '//' through end
// of line) are discarded.
func Lex(src string) ([]Token, error) {
	l := &lexer{input: src, line: 1, col: 1}

	return l.run()
}

type lexer struct {
	input string
	pos   int
	line  int
	col   int
	toks  []Token
}

func (l *lexer) run() ([]Token, error) {
	for {
		l.skipWhitespaceAndComments()

		if l.eof() {
			return l.toks, nil
		}

		pos := l.position()
		ch := l.peek()

		switch {
		case isDigit(ch):
			l.lexNumber(pos)

		case isIdentStart(ch):
			l.lexWord(pos)

		case ch == '"' || ch == '\'':
			if err := l.lexString(pos, ch); err != nil {
				return nil, err
			}

		default:
			if err := l.lexPunct(pos); err != nil {
				return nil, err
			}
		}
	}
}

func (l *lexer) emit(k Kind, text string, pos Position) {
	l.toks = append(l.toks, Token{Kind: k, Text: text, Pos: pos})
}

func (l *lexer) lexNumber(pos Position) {
	start := l.pos
	kind := KindInt

	for !l.eof() && (isDigit(l.peek()) || l.peek() == '.') {
		if l.peek() == '.' {
			kind = KindFloat
		}

		l.advance()
	}

	l.emit(kind, l.input[start:l.pos], pos)
}

func (l *lexer) lexWord(pos Position) {
	start := l.pos

	for !l.eof() && (isIdentStart(l.peek()) || isDigit(l.peek())) {
		l.advance()
	}

	word := l.input[start:l.pos]

	if k, ok := reserved[word]; ok {
		l.emit(k, word, pos)

		return
	}

	l.emit(KindVar, word, pos)
}

func (l *lexer) lexString(pos Position, q byte) error {
	l.advance() // opening quote

	var sb strings.Builder

	for {
		if l.eof() || l.peek() == '\n' {
			return ErrUnterminatedString.WithPosition(pos)
		}

		ch := l.peek()

		if ch == q {
			l.advance()
			l.emit(KindStr, sb.String(), pos)

			return nil
		}

		if ch != '\\' {
			sb.WriteByte(ch)
			l.advance()

			continue
		}

		esc := l.position()
		l.advance() // backslash

		if l.eof() {
			return ErrUnterminatedString.WithPosition(pos)
		}

		switch c := l.peek(); c {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '"', '\'':
			sb.WriteByte(c)
		default:
			r, _ := utf8.DecodeRuneInString(l.input[l.pos:])

			return ErrInvalidEscape.WithPosition(esc).
				With(slog.String("escape", `\`+string(r)))
		}

		l.advance()
	}
}

func (l *lexer) lexPunct(pos Position) error {
	ch := l.peek()
	two := l.peekN(2)

	switch two {
	case "==", "!=", "<=", ">=":
		l.advance()
		l.advance()
		l.emit(KindOp, two, pos)

		return nil
	}

	var kind Kind

	switch ch {
	case '+', '-', '*', '/', '=', '<', '>', '(', ')', '.', ';':
		kind = KindOp
	case '!':
		kind = KindBoolOp
	case '[':
		kind = KindLBracket
	case ']':
		kind = KindRBracket
	case '{', '}':
		kind = KindBrace
	case ',':
		kind = KindComma
	case ':':
		kind = KindColon
	default:
		r, _ := utf8.DecodeRuneInString(l.input[l.pos:])

		return ErrUnknownCharacter.WithPosition(pos).
			With(slog.String("char", string(r)))
	}

	l.advance()
	l.emit(kind, string(ch), pos)

	return nil
}

func (l *lexer) peek() byte {
	if l.eof() {
		return 0
	}

	return l.input[l.pos]
}

func (l *lexer) peekN(n int) string {
	if l.pos+n > len(l.input) {
		return l.input[l.pos:]
	}

	return l.input[l.pos : l.pos+n]
}

func (l *lexer) advance() {
	if l.eof() {
		return
	}

	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	l.pos++
}

func (l *lexer) eof() bool { return l.pos >= len(l.input) }

func (l *lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *lexer) skipWhitespaceAndComments() {
	for !l.eof() {
		switch ch := l.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			l.advance()

		case ch == '#', ch == '/' && l.peekN(2) == "//":
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}

		default:
			return
		}
	}
}

// Character classification

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

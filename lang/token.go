package lang

import (
	"log/slog"
	"strconv"
)

// Kind classifies a [Token].
type Kind int

// Token kinds.
const (
	KindInt      Kind = iota // integer literal
	KindFloat                // float literal, digit/dot run containing '.'
	KindBool                 // true, false
	KindStr                  // string literal; Text holds decoded contents
	KindVar                  // identifier
	KindOp                   // + - * / = == != < > <= >= ( ) . ;
	KindBoolOp               // and or not !
	KindDecl                 // let
	KindKeyword              // if else while print delete
	KindLBracket             // [
	KindRBracket             // ]
	KindBrace                // { }
	KindComma                // ,
	KindColon                // :
)

var kindNames = [...]string{
	KindInt:      "int",
	KindFloat:    "flt",
	KindBool:     "bool_val",
	KindStr:      "str",
	KindVar:      "var",
	KindOp:       "op",
	KindBoolOp:   "bool_op",
	KindDecl:     "decl",
	KindKeyword:  "kw",
	KindLBracket: "lbracket",
	KindRBracket: "rbracket",
	KindBrace:    "brace",
	KindComma:    "comma",
	KindColon:    "colon",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}

	return kindNames[k]
}

// Token is a classified lexeme.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

// Is reports whether t has kind k and, if text is non-empty, the given text.
func (t Token) Is(k Kind, text string) bool {
	return t.Kind == k && (text == "" || t.Text == text)
}

// String returns the token text in a form suitable for diagnostics.
func (t Token) String() string {
	if t.Kind == KindStr {
		return quote(t.Text)
	}

	return t.Text
}

// LogValue implements slog.LogValuer.
func (t Token) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", t.Kind.String()),
		slog.String("text", t.Text),
		slog.String("pos", t.Pos.String()),
	)
}

var reserved = map[string]Kind{
	"true":   KindBool,
	"false":  KindBool,
	"and":    KindBoolOp,
	"or":     KindBoolOp,
	"not":    KindBoolOp,
	"let":    KindDecl,
	"if":     KindKeyword,
	"else":   KindKeyword,
	"while":  KindKeyword,
	"print":  KindKeyword,
	"delete": KindKeyword,
}

// Keywords returns every reserved word of the language.
func Keywords() []string {
	return []string{
		"and", "delete", "else", "false", "if", "let",
		"not", "or", "print", "true", "while",
	}
}

// IsIdentifier reports whether s is a valid, unreserved variable name.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}

	if _, ok := reserved[s]; ok {
		return false
	}

	for i := range len(s) {
		c := s[i]
		if !isIdentStart(c) && (i == 0 || !isDigit(c)) {
			return false
		}
	}

	return true
}

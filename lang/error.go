package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Error families. Every sentinel below belongs to exactly one of these, and
// [errors.Is] reports true when matching an error against its family.
var (
	ErrLex     = NewError("lex error")
	ErrParse   = NewError("parse error")
	ErrRuntime = NewError("runtime error")
)

// Lexer errors.
var (
	ErrUnknownCharacter   = newFamilyError(ErrLex, "unknown character")
	ErrUnterminatedString = newFamilyError(ErrLex, "unterminated string")
	ErrInvalidEscape      = newFamilyError(ErrLex, "invalid escape sequence")
)

// Parser errors.
var (
	ErrUnexpectedToken         = newFamilyError(ErrParse, "unexpected token")
	ErrMissingClosingDelimiter = newFamilyError(ErrParse, "missing closing delimiter")
	ErrExpectedVariable        = newFamilyError(ErrParse, "expected variable")
	ErrInvalidAssignmentTarget = newFamilyError(ErrParse, "invalid assignment target")
	ErrChainedAssignment       = newFamilyError(ErrParse, "chained assignment not supported")
	ErrUnexpectedEOF           = newFamilyError(ErrParse, "unexpected end of input")
	ErrUnterminatedLiteral     = newFamilyError(ErrParse, "unterminated literal")
	ErrMaxDepthExceeded        = newFamilyError(ErrParse, "maximum nesting depth exceeded")
	ErrMalformedAST            = newFamilyError(ErrParse, "malformed syntax tree")
)

// Evaluator errors.
var (
	ErrType                = newFamilyError(ErrRuntime, "type error")
	ErrUndefinedVariable   = newFamilyError(ErrRuntime, "undefined variable")
	ErrDivisionByZero      = newFamilyError(ErrRuntime, "division by zero")
	ErrIndexOutOfBounds    = newFamilyError(ErrRuntime, "index out of bounds")
	ErrKeyNotFound         = newFamilyError(ErrRuntime, "key not found")
	ErrUnknownMethod       = newFamilyError(ErrRuntime, "unknown method")
	ErrInvalidDeleteTarget = newFamilyError(ErrRuntime, "invalid delete target")
	ErrInvalidLiteral      = newFamilyError(ErrRuntime, "invalid literal")
	ErrEmptyContainer      = newFamilyError(ErrRuntime, "empty container")
	ErrInterrupted         = newFamilyError(ErrRuntime, "interrupted")
)

// ErrReadInput is returned when reading source input fails.
var ErrReadInput = NewError("failed to read input")

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
//
// Errors derived from a sentinel with [Error.With], [Error.Wrap] or
// [Error.WithPosition] remain identifiable as that sentinel through
// [errors.Is].
type Error struct {
	msg    string
	err    error       // Wrapped error (for errors.Unwrap)
	attrs  []slog.Attr // Attributes for structured logging
	base   *Error      // sentinel this error was derived from
	family *Error
	pos    *Position
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func newFamilyError(family *Error, msg string) *Error {
	return &Error{msg: msg, family: family}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg> at <pos>: <err>"
	//   2. "<msg>: <err>"
	//   3. "<msg>"
	//   4. "<err>"
	part := make([]string, 0, 2)

	if e.msg != "" {
		msg := e.msg
		if e.pos != nil {
			msg += " at " + e.pos.String()
		}

		part = append(part, msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel (or family) e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if e.root() == t.root() {
		return true
	}

	return e.family != nil && e.family == t.root()
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// Family returns the family sentinel of e: [ErrLex], [ErrParse] or
// [ErrRuntime]. It returns nil for errors outside the language core.
func (e *Error) Family() *Error { return e.family }

// Position returns the source position attached to e, if any.
func (e *Error) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}

	return *e.pos, true
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.family != nil {
		attrs = append(attrs, slog.String("family", e.family.msg))
	}

	if e.pos != nil {
		attrs = append(attrs, slog.String("position", e.pos.String()))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

func (e *Error) derive() *Error {
	return &Error{
		msg:    e.msg,
		err:    e.err,
		attrs:  e.attrs, // Share attrs
		base:   e.root(),
		family: e.family,
		pos:    e.pos,
	}
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	d := e.derive()
	d.err = err

	return d
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	d := e.derive()
	d.attrs = newAttrs

	return d
}

// WithPosition attaches a source position to the error.
func (e *Error) WithPosition(pos Position) *Error {
	d := e.derive()
	d.pos = &pos

	return d
}

// Position identifies a location in source text.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether p refers to a real source location.
func (p Position) IsValid() bool { return p.Line > 0 }

func (e *Error) attr(key string) (slog.Value, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return slog.Value{}, false
}

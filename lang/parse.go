package lang

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ardnew/kay/log"
)

// DefaultMaxDepth bounds expression and block nesting during parsing.
const DefaultMaxDepth = 256

// ParseString lexes and parses src.
func ParseString(ctx context.Context, src string, opts ...Option) (Program, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, toks, opts...)
}

// Parse builds the statement list for toks. It either returns every
// statement or an error; no partial program is returned.
func Parse(ctx context.Context, toks []Token, opts ...Option) (Program, error) {
	cfg := makeOptions(opts...)

	p := &parser{
		toks:     toks,
		maxDepth: cfg.maxDepth,
		logger:   cfg.logger,
	}

	prog := make(Program, 0)

	for !p.eof() {
		stmt, err := p.parseStatement()
		if err != nil {
			p.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

			return nil, err
		}

		prog = append(prog, stmt)
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.Int("tokens", len(toks)),
		slog.Int("statements", len(prog)))

	return prog, nil
}

// parser holds the parser state.
type parser struct {
	toks     []Token
	pos      int
	depth    int
	maxDepth int
	logger   log.Logger
}

// parseStatement parses one statement and its optional ';' terminator.
func (p *parser) parseStatement() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	var (
		stmt Node
		err  error
	)

	tok := p.peek()

	switch {
	case tok.Is(KindKeyword, "delete"):
		stmt, err = p.parseDelete()
	case tok.Is(KindKeyword, "if"):
		stmt, err = p.parseIf()
	case tok.Is(KindKeyword, "while"):
		stmt, err = p.parseWhile()
	case tok.Is(KindKeyword, "print"):
		stmt, err = p.parsePrint()
	case tok.Is(KindDecl, "let"):
		stmt, err = p.parseLet()
	default:
		stmt, err = p.parseAssignOrExpr()
	}

	if err != nil {
		return nil, err
	}

	p.accept(KindOp, ";")

	return stmt, nil
}

func (p *parser) parseDelete() (Node, error) {
	at := p.next().Pos

	target, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &Delete{Target: target, At: at}, nil
}

// parseIf parses: if expr block (else (block | if-stmt))?.
func (p *parser) parseIf() (Node, error) {
	at := p.next().Pos

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	n := &If{Cond: cond, Then: then, At: at}

	if !p.accept(KindKeyword, "else") {
		return n, nil
	}

	if p.peek().Is(KindKeyword, "if") {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()

		elif, err := p.parseIf()
		if err != nil {
			return nil, err
		}

		n.Else = []Node{elif}

		return n, nil
	}

	n.Else, err = p.parseBlock()
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (p *parser) parseWhile() (Node, error) {
	at := p.next().Pos

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &While{Cond: cond, Body: body, At: at}, nil
}

func (p *parser) parsePrint() (Node, error) {
	at := p.next().Pos

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &Print{Expr: expr, At: at}, nil
}

// parseLet parses: let var-target = expr.
func (p *parser) parseLet() (Node, error) {
	at := p.next().Pos

	if p.eof() {
		return nil, ErrUnexpectedEOF.WithPosition(p.endPosition()).
			With(slog.String("expected", "variable"))
	}

	if tok := p.peek(); tok.Kind != KindVar {
		return nil, ErrExpectedVariable.WithPosition(tok.Pos).
			With(slog.Any("found", tok))
	}

	target, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	if !p.peek().Is(KindOp, "=") {
		return nil, p.unexpected("=")
	}

	return p.finishAssign(target, at)
}

// parseAssignOrExpr parses a full expression, then inspects the next token
// for '=' to decide whether it was an assignment target.
func (p *parser) parseAssignOrExpr() (Node, error) {
	at := p.peek().Pos

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if !p.peek().Is(KindOp, "=") {
		return expr, nil
	}

	return p.finishAssign(expr, at)
}

func (p *parser) finishAssign(target Node, at Position) (Node, error) {
	eq := p.next()

	switch target.(type) {
	case *Variable, *IndexAccess:
	default:
		return nil, ErrInvalidAssignmentTarget.WithPosition(eq.Pos).
			With(slog.String("target", target.String()))
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Is(KindOp, "=") {
		return nil, ErrChainedAssignment.WithPosition(tok.Pos)
	}

	return &Assign{Target: target, Value: value, At: at}, nil
}

// parseBlock parses: '{' statement* '}'.
func (p *parser) parseBlock() ([]Node, error) {
	if p.eof() {
		return nil, ErrUnexpectedEOF.WithPosition(p.endPosition()).
			With(slog.String("expected", "{"))
	}

	if !p.accept(KindBrace, "{") {
		return nil, p.unexpected("{")
	}

	open := p.toks[p.pos-1].Pos
	stmts := make([]Node, 0)

	for {
		if p.eof() {
			return nil, ErrMissingClosingDelimiter.WithPosition(open).
				With(slog.String("expected", "}"))
		}

		if p.accept(KindBrace, "}") {
			return stmts, nil
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, stmt)
	}
}

// parseExpression parses: boolean_expr.
func (p *parser) parseExpression() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	return p.parseBoolean()
}

// parseBoolean parses: comparison (("and"|"or") comparison)*.
func (p *parser) parseBoolean() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if !tok.Is(KindBoolOp, "and") && !tok.Is(KindBoolOp, "or") {
			return left, nil
		}

		p.next()

		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		left = &Binary{Left: left, Op: tok.Text, Right: right, At: tok.Pos}
	}
}

// parseComparison parses: arithmetic (cmp-op boolean_expr)?.
//
// The right operand is a full boolean_expr, so "a < b and c" groups as
// "a < (b and c)".
func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseArithmetic()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.Kind != KindOp || !isComparison(tok.Text) {
		return left, nil
	}

	p.next()

	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &Binary{Left: left, Op: tok.Text, Right: right, At: tok.Pos}, nil
}

// parseArithmetic parses: term (("+"|"-") term)*.
func (p *parser) parseArithmetic() (Node, error) {
	return p.parseLeftAssoc(p.parseTerm, "+", "-")
}

// parseTerm parses: postfix (("*"|"/") postfix)*.
func (p *parser) parseTerm() (Node, error) {
	return p.parseLeftAssoc(p.parsePostfix, "*", "/")
}

func (p *parser) parseLeftAssoc(
	operand func() (Node, error),
	ops ...string,
) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Kind != KindOp || (tok.Text != ops[0] && tok.Text != ops[1]) {
			return left, nil
		}

		p.next()

		right, err := operand()
		if err != nil {
			return nil, err
		}

		left = &Binary{Left: left, Op: tok.Text, Right: right, At: tok.Pos}
	}
}

// parsePostfix parses: factor ( "[" expr "]" | "." ident "(" args ")" )*.
func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()

		switch {
		case tok.Kind == KindLBracket:
			p.next()

			key, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			if err := p.close(KindRBracket, "]", tok.Pos); err != nil {
				return nil, err
			}

			n = &IndexAccess{Container: n, Key: key, At: tok.Pos}

		case tok.Is(KindOp, "."):
			p.next()

			n, err = p.parseMethodCall(n, tok.Pos)
			if err != nil {
				return nil, err
			}

		default:
			return n, nil
		}
	}
}

func (p *parser) parseMethodCall(recv Node, at Position) (Node, error) {
	if p.eof() {
		return nil, ErrUnexpectedEOF.WithPosition(p.endPosition()).
			With(slog.String("expected", "method name"))
	}

	name := p.peek()
	if name.Kind != KindVar {
		return nil, p.unexpected("method name")
	}

	p.next()

	if p.eof() {
		return nil, ErrUnexpectedEOF.WithPosition(p.endPosition()).
			With(slog.String("expected", "("))
	}

	open := p.peek()
	if !p.accept(KindOp, "(") {
		return nil, p.unexpected("(")
	}

	args := make([]Node, 0)

	for !p.peek().Is(KindOp, ")") {
		if p.eof() {
			break
		}

		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		if !p.accept(KindComma, "") {
			break
		}
	}

	if err := p.close(KindOp, ")", open.Pos); err != nil {
		return nil, err
	}

	return &MethodCall{Receiver: recv, Method: name.Text, Args: args, At: at}, nil
}

// parseFactor parses the highest-precedence forms.
func (p *parser) parseFactor() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.eof() {
		return nil, ErrUnexpectedEOF.WithPosition(p.endPosition()).
			With(slog.String("expected", "expression"))
	}

	tok := p.peek()

	switch tok.Kind {
	case KindInt, KindFloat, KindBool, KindStr:
		p.next()

		return &Literal{Kind: tok.Kind, Text: tok.Text, At: tok.Pos}, nil

	case KindVar:
		p.next()

		return &Variable{Name: tok.Text, At: tok.Pos}, nil

	case KindBoolOp:
		if tok.Text == "not" || tok.Text == "!" {
			p.next()

			operand, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}

			return &Unary{Op: "not", Operand: operand, At: tok.Pos}, nil
		}

	case KindOp:
		switch tok.Text {
		case "-":
			p.next()

			operand, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}

			return &Unary{Op: "-", Operand: operand, At: tok.Pos}, nil

		case "(":
			p.next()

			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			if err := p.close(KindOp, ")", tok.Pos); err != nil {
				return nil, err
			}

			return inner, nil
		}

	case KindLBracket:
		return p.parseList()

	case KindBrace:
		if tok.Text == "{" {
			return p.parseDict()
		}
	}

	return nil, p.unexpected("expression")
}

// parseList parses: '[' (expr (',' expr)* ','?)? ']'.
func (p *parser) parseList() (Node, error) {
	open := p.next()
	elems := make([]Node, 0)

	for {
		if p.accept(KindRBracket, "") {
			return &ListLiteral{Elems: elems, At: open.Pos}, nil
		}

		if p.eof() {
			return nil, p.unterminated(open, "]")
		}

		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		elems = append(elems, elem)

		if !p.accept(KindComma, "") && !p.peek().Is(KindRBracket, "") {
			return nil, p.unterminated(open, "]")
		}
	}
}

// parseDict parses: '{' (key ':' expr (',' key ':' expr)* ','?)? '}'.
func (p *parser) parseDict() (Node, error) {
	open := p.next()
	pairs := make([]Pair, 0)

	for {
		if p.accept(KindBrace, "}") {
			return &DictLiteral{Pairs: pairs, At: open.Pos}, nil
		}

		if p.eof() {
			return nil, p.unterminated(open, "}")
		}

		key, err := p.parseDictKey()
		if err != nil {
			return nil, err
		}

		if !p.accept(KindColon, "") {
			if p.eof() {
				return nil, p.unterminated(open, "}")
			}

			return nil, p.unexpected(":")
		}

		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		pairs = append(pairs, Pair{Key: key, Value: value})

		if !p.accept(KindComma, "") && !p.peek().Is(KindBrace, "}") {
			return nil, p.unterminated(open, "}")
		}
	}
}

// parseDictKey reads a bare identifier followed by ':' as a string key and
// anything else as an expression.
func (p *parser) parseDictKey() (Node, error) {
	tok := p.peek()

	if tok.Kind == KindVar && p.peekAt(1).Kind == KindColon {
		p.next()

		return &Literal{Kind: KindStr, Text: tok.Text, At: tok.Pos}, nil
	}

	return p.parseExpression()
}

// Helper methods

func (p *parser) eof() bool { return p.pos >= len(p.toks) }

// peek returns the current token. Past the end of input it returns a token
// with an invalid kind, which never matches.
func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return Token{Kind: -1}
	}

	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	tok := p.peek()
	if !p.eof() {
		p.pos++
	}

	return tok
}

// accept consumes the current token if it has kind k and, when text is
// non-empty, the given text.
func (p *parser) accept(k Kind, text string) bool {
	if p.eof() || !p.peek().Is(k, text) {
		return false
	}

	p.pos++

	return true
}

// close consumes a closing delimiter opened at open.
func (p *parser) close(k Kind, text string, open Position) error {
	if p.accept(k, text) {
		return nil
	}

	attrs := []slog.Attr{slog.String("expected", text)}
	if !p.eof() {
		attrs = append(attrs, slog.Any("found", p.peek()))
	}

	return ErrMissingClosingDelimiter.WithPosition(open).With(attrs...)
}

func (p *parser) unterminated(open Token, closer string) error {
	attrs := []slog.Attr{slog.String("expected", closer)}
	if !p.eof() {
		attrs = append(attrs, slog.Any("found", p.peek()))
	}

	return ErrUnterminatedLiteral.WithPosition(open.Pos).With(attrs...)
}

func (p *parser) unexpected(expected string) error {
	if p.eof() {
		return ErrUnexpectedEOF.WithPosition(p.endPosition()).
			With(slog.String("expected", expected))
	}

	tok := p.peek()

	return ErrUnexpectedToken.WithPosition(tok.Pos).With(
		slog.String("expected", expected),
		slog.Any("found", tok),
	)
}

// endPosition returns the position just past the last token.
func (p *parser) endPosition() Position {
	if len(p.toks) == 0 {
		return Position{Line: 1, Column: 1}
	}

	last := p.toks[len(p.toks)-1]

	return Position{
		Offset: last.Pos.Offset + len(last.Text),
		Line:   last.Pos.Line,
		Column: last.Pos.Column + len(last.Text),
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return ErrMaxDepthExceeded.WithPosition(p.peek().Pos).
			With(slog.Int("max_depth", p.maxDepth))
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

func isComparison(op string) bool {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	}

	return false
}

// Incomplete reports whether err is a parse error caused by input ending
// before a statement, block or literal was closed. A line-oriented shell uses
// it to keep reading.
func Incomplete(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch {
	case errors.Is(e, ErrUnexpectedEOF):
		return true
	case errors.Is(e, ErrMissingClosingDelimiter), errors.Is(e, ErrUnterminatedLiteral):
		_, found := e.attr("found")

		return !found
	}

	return false
}

package lang

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Tags of the compound wire forms. A leading string element equal to one of
// these selects a fixed-arity compound node.
const (
	tagPrint       = "print"
	tagIf          = "if"
	tagWhile       = "while"
	tagDelete      = "delete"
	tagList        = "list_literal"
	tagDict        = "dict_literal"
	tagIndexAccess = "index_access"
	tagMethodCall  = "method_call"
	tagVar         = "var"
)

// Encode returns the wire form of the program: a slice holding the wire form
// of each statement.
func (p Program) Encode() []any {
	return encodeList(p)
}

// MarshalJSON implements json.Marshaler using the wire form.
func (p Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Encode())
}

// MarshalProgram returns the JSON wire form of p.
func MarshalProgram(p Program) ([]byte, error) {
	return json.Marshal(p.Encode())
}

// Encode returns the wire form of n as nested slices of strings. The only
// non-string leaf is the nil standing in for an absent else branch.
func Encode(n Node) any {
	switch n := n.(type) {
	case *Literal:
		return []any{n.Kind.String(), n.Text}
	case *Variable:
		return []any{tagVar, n.Name}
	case *Unary:
		return []any{n.Op, Encode(n.Operand)}
	case *Binary:
		return []any{Encode(n.Left), n.Op, Encode(n.Right)}
	case *Assign:
		return []any{Encode(n.Target), "=", Encode(n.Value)}
	case *Print:
		return []any{tagPrint, Encode(n.Expr)}
	case *If:
		var els any
		if n.Else != nil {
			els = encodeList(n.Else)
		}

		return []any{tagIf, Encode(n.Cond), encodeList(n.Then), els}
	case *While:
		return []any{tagWhile, Encode(n.Cond), encodeList(n.Body)}
	case *Delete:
		return []any{tagDelete, Encode(n.Target)}
	case *ListLiteral:
		return []any{tagList, encodeList(n.Elems)}
	case *DictLiteral:
		pairs := make([]any, len(n.Pairs))
		for i, p := range n.Pairs {
			pairs[i] = []any{Encode(p.Key), Encode(p.Value)}
		}

		return []any{tagDict, pairs}
	case *IndexAccess:
		return []any{tagIndexAccess, Encode(n.Container), Encode(n.Key)}
	case *MethodCall:
		return []any{tagMethodCall, Encode(n.Receiver), n.Method, encodeList(n.Args)}
	}

	return nil
}

func encodeList(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = Encode(n)
	}

	return out
}

// DecodeProgram reads the wire form of a program. data may be the JSON
// rendering or any YAML rendering of the same tree. Only [WithMaxDepth] and
// [WithLogger] are consulted.
func DecodeProgram(ctx context.Context, data []byte, opts ...Option) (Program, error) {
	cfg := makeOptions(opts...)

	var raw any
	if err := yaml.UnmarshalContext(ctx, data, &raw); err != nil {
		return nil, ErrMalformedAST.Wrap(err)
	}

	if raw == nil {
		return Program{}, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, ErrMalformedAST.With(slog.String("reason", "program is not a list"))
	}

	d := &decoder{maxDepth: cfg.maxDepth}

	prog, err := d.statements(list)
	if err != nil {
		return nil, err
	}

	cfg.logger.TraceContext(ctx, "decode complete", slog.Int("statements", len(prog)))

	return prog, nil
}

type decoder struct {
	depth    int
	maxDepth int
}

func (d *decoder) statements(raw []any) ([]Node, error) {
	out := make([]Node, 0, len(raw))

	for _, r := range raw {
		n, err := d.node(r, true)
		if err != nil {
			return nil, err
		}

		out = append(out, n)
	}

	return out, nil
}

func (d *decoder) expressions(raw any) ([]Node, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, malformed("expected list", raw)
	}

	out := make([]Node, 0, len(list))

	for _, r := range list {
		n, err := d.expr(r)
		if err != nil {
			return nil, err
		}

		out = append(out, n)
	}

	return out, nil
}

func (d *decoder) expr(raw any) (Node, error) { return d.node(raw, false) }

// node decodes one wire form. Statement-only forms are accepted only when
// stmt is set.
func (d *decoder) node(raw any, stmt bool) (Node, error) {
	d.depth++
	defer func() { d.depth-- }()

	if d.maxDepth > 0 && d.depth > d.maxDepth {
		return nil, ErrMaxDepthExceeded.With(slog.Int("max_depth", d.maxDepth))
	}

	form, ok := raw.([]any)
	if !ok || len(form) < 2 {
		return nil, malformed("expected a list of at least 2 elements", raw)
	}

	tag, isTag := scalarText(form[0])

	if isTag {
		if n, ok, err := d.tagged(tag, form, stmt); ok {
			return n, err
		}
	}

	if len(form) != 3 {
		return nil, malformed("unrecognized form", raw)
	}

	op, ok := scalarText(form[1])
	if !ok {
		return nil, malformed("operator must be a string", raw)
	}

	left, err := d.expr(form[0])
	if err != nil {
		return nil, err
	}

	right, err := d.expr(form[2])
	if err != nil {
		return nil, err
	}

	if op == "=" {
		if !stmt {
			return nil, malformed("assignment in expression position", raw)
		}

		switch left.(type) {
		case *Variable, *IndexAccess:
		default:
			return nil, ErrInvalidAssignmentTarget.
				With(slog.String("target", left.String()))
		}

		return &Assign{Target: left, Value: right}, nil
	}

	if !isBinaryOp(op) {
		return nil, malformed("unknown operator "+strconv.Quote(op), raw)
	}

	return &Binary{Left: left, Op: op, Right: right}, nil
}

// tagged decodes forms led by a tag. It reports false when tag does not
// select a tagged form.
func (d *decoder) tagged(tag string, form []any, stmt bool) (Node, bool, error) {
	arity := func(n int) error {
		if len(form) != n {
			return malformed(tag+" takes "+strconv.Itoa(n-1)+" operands", form)
		}

		return nil
	}

	statement := func() error {
		if !stmt {
			return malformed(tag+" in expression position", form)
		}

		return arity(map[string]int{
			tagPrint: 2, tagDelete: 2, tagWhile: 3, tagIf: 4,
		}[tag])
	}

	switch tag {
	case "int", "flt", "bool_val", "str":
		if err := arity(2); err != nil {
			return nil, true, err
		}

		text, ok := scalarText(form[1])
		if !ok {
			return nil, true, malformed("literal text must be a scalar", form)
		}

		kind := map[string]Kind{
			"int": KindInt, "flt": KindFloat, "bool_val": KindBool, "str": KindStr,
		}[tag]

		if !lexesAs(kind, text) {
			return nil, true, malformed("literal text does not match its kind", form)
		}

		return &Literal{Kind: kind, Text: text}, true, nil

	case tagVar:
		if err := arity(2); err != nil {
			return nil, true, err
		}

		name, ok := scalarText(form[1])
		if !ok || !IsIdentifier(name) {
			return nil, true, malformed("invalid variable name", form)
		}

		return &Variable{Name: name}, true, nil

	case "-", "not", "!":
		if len(form) != 2 {
			return nil, false, nil
		}

		operand, err := d.expr(form[1])
		if err != nil {
			return nil, true, err
		}

		op := tag
		if op == "!" {
			op = "not"
		}

		return &Unary{Op: op, Operand: operand}, true, nil

	case tagPrint:
		if err := statement(); err != nil {
			return nil, true, err
		}

		e, err := d.expr(form[1])
		if err != nil {
			return nil, true, err
		}

		return &Print{Expr: e}, true, nil

	case tagDelete:
		if err := statement(); err != nil {
			return nil, true, err
		}

		t, err := d.expr(form[1])
		if err != nil {
			return nil, true, err
		}

		return &Delete{Target: t}, true, nil

	case tagWhile:
		if err := statement(); err != nil {
			return nil, true, err
		}

		cond, err := d.expr(form[1])
		if err != nil {
			return nil, true, err
		}

		body, err := d.block(form[2])
		if err != nil {
			return nil, true, err
		}

		return &While{Cond: cond, Body: body}, true, nil

	case tagIf:
		if err := statement(); err != nil {
			return nil, true, err
		}

		cond, err := d.expr(form[1])
		if err != nil {
			return nil, true, err
		}

		then, err := d.block(form[2])
		if err != nil {
			return nil, true, err
		}

		n := &If{Cond: cond, Then: then}

		if form[3] != nil {
			if n.Else, err = d.block(form[3]); err != nil {
				return nil, true, err
			}
		}

		return n, true, nil

	case tagList:
		if err := arity(2); err != nil {
			return nil, true, err
		}

		elems, err := d.expressions(form[1])
		if err != nil {
			return nil, true, err
		}

		return &ListLiteral{Elems: elems}, true, nil

	case tagDict:
		if err := arity(2); err != nil {
			return nil, true, err
		}

		n, err := d.dict(form[1])

		return n, true, err

	case tagIndexAccess:
		if err := arity(3); err != nil {
			return nil, true, err
		}

		c, err := d.expr(form[1])
		if err != nil {
			return nil, true, err
		}

		k, err := d.expr(form[2])
		if err != nil {
			return nil, true, err
		}

		return &IndexAccess{Container: c, Key: k}, true, nil

	case tagMethodCall:
		if err := arity(4); err != nil {
			return nil, true, err
		}

		r, err := d.expr(form[1])
		if err != nil {
			return nil, true, err
		}

		name, ok := scalarText(form[2])
		if !ok || !IsIdentifier(name) {
			return nil, true, malformed("invalid method name", form)
		}

		args, err := d.expressions(form[3])
		if err != nil {
			return nil, true, err
		}

		return &MethodCall{Receiver: r, Method: name, Args: args}, true, nil
	}

	return nil, false, nil
}

func (d *decoder) block(raw any) ([]Node, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, malformed("expected statement list", raw)
	}

	return d.statements(list)
}

func (d *decoder) dict(raw any) (Node, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, malformed("expected pair list", raw)
	}

	n := &DictLiteral{Pairs: make([]Pair, 0, len(list))}

	for _, r := range list {
		pair, ok := r.([]any)
		if !ok || len(pair) != 2 {
			return nil, malformed("dict entry must be a [key, value] pair", r)
		}

		k, err := d.expr(pair[0])
		if err != nil {
			return nil, err
		}

		v, err := d.expr(pair[1])
		if err != nil {
			return nil, err
		}

		n.Pairs = append(n.Pairs, Pair{Key: k, Value: v})
	}

	return n, nil
}

func malformed(reason string, raw any) error {
	return ErrMalformedAST.With(
		slog.String("reason", reason),
		slog.Any("form", raw))
}

// scalarText returns the text of a scalar YAML or JSON value. YAML decoders
// may type unquoted scalars, so numbers and booleans are converted back.
func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return "", false
		}

		return formatFloat(x, true), true
	}

	return "", false
}

func isBinaryOp(op string) bool {
	switch op {
	case "+", "-", "*", "/", "and", "or":
		return true
	}

	return isComparison(op)
}

// lexesAs reports whether text is the text of a single token of kind k.
func lexesAs(k Kind, text string) bool {
	switch k {
	case KindInt:
		if text == "" {
			return false
		}

		for i := range len(text) {
			if !isDigit(text[i]) {
				return false
			}
		}

		return true
	case KindFloat:
		if text == "" || !isDigit(text[0]) {
			return false
		}

		for i := range len(text) {
			if !isDigit(text[i]) && text[i] != '.' {
				return false
			}
		}

		return strings.IndexByte(text, '.') >= 0
	case KindBool:
		return text == "true" || text == "false"
	}

	return true
}

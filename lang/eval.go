package lang

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/ardnew/kay/log"
)

// Evaluator walks syntax trees and applies them to an [Environment].
type Evaluator struct {
	out    io.Writer
	logger log.Logger
}

// NewEvaluator returns an evaluator configured by opts. Only [WithOutput] and
// [WithLogger] are consulted.
func NewEvaluator(opts ...Option) *Evaluator {
	cfg := makeOptions(opts...)

	return &Evaluator{out: cfg.out, logger: cfg.logger}
}

// Evaluate evaluates n against env. Sub-expressions are evaluated left to
// right before the operator that consumes them.
func (e *Evaluator) Evaluate(ctx context.Context, n Node, env Environment) (Value, error) {
	return e.eval(ctx, n, env)
}

func (e *Evaluator) eval(ctx context.Context, n Node, env Environment) (Value, error) {
	switch n := n.(type) {
	case *Literal:
		return literalValue(n)

	case *Variable:
		v, ok := env.Read(n.Name)
		if !ok {
			return nil, ErrUndefinedVariable.WithPosition(n.At).
				With(slog.String("name", n.Name))
		}

		return v, nil

	case *Unary:
		v, err := e.eval(ctx, n.Operand, env)
		if err != nil {
			return nil, err
		}

		return unary(n, v)

	case *Binary:
		l, err := e.eval(ctx, n.Left, env)
		if err != nil {
			return nil, err
		}

		r, err := e.eval(ctx, n.Right, env)
		if err != nil {
			return nil, err
		}

		return binary(n, l, r)

	case *Assign:
		return e.evalAssign(ctx, n, env)

	case *Print:
		v, err := e.eval(ctx, n.Expr, env)
		if err != nil {
			return nil, err
		}

		if _, err := io.WriteString(e.out, Display(v)+"\n"); err != nil {
			return nil, ErrRuntime.Wrap(err).WithPosition(n.At)
		}

		return Unit{}, nil

	case *If:
		c, err := e.eval(ctx, n.Cond, env)
		if err != nil {
			return nil, err
		}

		if Truthy(c) {
			return e.evalBlock(ctx, n.Then, env)
		}

		return e.evalBlock(ctx, n.Else, env)

	case *While:
		for {
			if err := ctx.Err(); err != nil {
				return nil, ErrInterrupted.WithPosition(n.At).Wrap(err)
			}

			c, err := e.eval(ctx, n.Cond, env)
			if err != nil {
				return nil, err
			}

			if !Truthy(c) {
				return Unit{}, nil
			}

			if _, err := e.evalBlock(ctx, n.Body, env); err != nil {
				return nil, err
			}
		}

	case *Delete:
		return e.evalDelete(ctx, n, env)

	case *ListLiteral:
		l := &List{Elems: make([]Value, 0, len(n.Elems))}

		for _, elem := range n.Elems {
			v, err := e.eval(ctx, elem, env)
			if err != nil {
				return nil, err
			}

			l.Elems = append(l.Elems, v)
		}

		return l, nil

	case *DictLiteral:
		d := NewDict()

		for _, p := range n.Pairs {
			k, err := e.eval(ctx, p.Key, env)
			if err != nil {
				return nil, err
			}

			v, err := e.eval(ctx, p.Value, env)
			if err != nil {
				return nil, err
			}

			if !IsKey(k) {
				return nil, ErrType.WithPosition(p.Key.Pos()).
					With(slog.String("reason", "unhashable key"),
						slog.String("type", k.Type()))
			}

			d.Set(k, v)
		}

		return d, nil

	case *IndexAccess:
		c, k, err := e.evalIndex(ctx, n, env)
		if err != nil {
			return nil, err
		}

		return index(n, c, k)

	case *MethodCall:
		return e.evalMethod(ctx, n, env)
	}

	return nil, ErrMalformedAST.With(slog.String("node", resultTypeName(n)))
}

// evalBlock runs stmts in order and returns the value of the last one, or
// [Unit] if there are none.
func (e *Evaluator) evalBlock(ctx context.Context, stmts []Node, env Environment) (Value, error) {
	var result Value = Unit{}

	for _, stmt := range stmts {
		v, err := e.eval(ctx, stmt, env)
		if err != nil {
			return nil, err
		}

		result = v
	}

	return result, nil
}

func (e *Evaluator) evalIndex(
	ctx context.Context,
	n *IndexAccess,
	env Environment,
) (Value, Value, error) {
	c, err := e.eval(ctx, n.Container, env)
	if err != nil {
		return nil, nil, err
	}

	k, err := e.eval(ctx, n.Key, env)
	if err != nil {
		return nil, nil, err
	}

	return c, k, nil
}

func (e *Evaluator) evalAssign(ctx context.Context, n *Assign, env Environment) (Value, error) {
	v, err := e.eval(ctx, n.Value, env)
	if err != nil {
		return nil, err
	}

	switch t := n.Target.(type) {
	case *Variable:
		env.Write(t.Name, v)
		e.logger.TraceContext(ctx, "write",
			slog.String("name", t.Name),
			slog.String("type", v.Type()))

		return v, nil

	case *IndexAccess:
		c, k, err := e.evalIndex(ctx, t, env)
		if err != nil {
			return nil, err
		}

		switch c := c.(type) {
		case *List:
			i, err := listIndex(t, c, k)
			if err != nil {
				return nil, err
			}

			c.Elems[i] = v

		case *Dict:
			if !IsKey(k) {
				return nil, ErrType.WithPosition(t.Key.Pos()).
					With(slog.String("reason", "unhashable key"),
						slog.String("type", k.Type()))
			}

			c.Set(k, v)

		default:
			return nil, ErrType.WithPosition(t.At).
				With(slog.String("reason", "not subscriptable"),
					slog.String("type", c.Type()))
		}

		return v, nil
	}

	return nil, ErrMalformedAST.WithPosition(n.At).
		With(slog.String("target", resultTypeName(n.Target)))
}

func (e *Evaluator) evalDelete(ctx context.Context, n *Delete, env Environment) (Value, error) {
	t, ok := n.Target.(*IndexAccess)
	if !ok {
		return nil, ErrInvalidDeleteTarget.WithPosition(n.At).
			With(slog.String("target", n.Target.String()))
	}

	c, k, err := e.evalIndex(ctx, t, env)
	if err != nil {
		return nil, err
	}

	switch c := c.(type) {
	case *List:
		i, err := listIndex(t, c, k)
		if err != nil {
			return nil, err
		}

		c.Elems = append(c.Elems[:i], c.Elems[i+1:]...)

	case *Dict:
		if !IsKey(k) {
			return nil, ErrType.WithPosition(t.Key.Pos()).
				With(slog.String("reason", "unhashable key"),
					slog.String("type", k.Type()))
		}

		if !c.Delete(k) {
			return nil, ErrKeyNotFound.WithPosition(t.At).
				With(slog.String("key", Repr(k)))
		}

	default:
		return nil, ErrInvalidDeleteTarget.WithPosition(n.At).
			With(slog.String("type", c.Type()))
	}

	return Unit{}, nil
}

func (e *Evaluator) evalMethod(ctx context.Context, n *MethodCall, env Environment) (Value, error) {
	recv, err := e.eval(ctx, n.Receiver, env)
	if err != nil {
		return nil, err
	}

	args := make([]Value, 0, len(n.Args))

	for _, a := range n.Args {
		v, err := e.eval(ctx, a, env)
		if err != nil {
			return nil, err
		}

		args = append(args, v)
	}

	l, ok := recv.(*List)
	if !ok {
		return nil, ErrType.WithPosition(n.At).With(
			slog.String("reason", "methods require a list receiver"),
			slog.String("method", n.Method),
			slog.String("type", recv.Type()))
	}

	switch n.Method {
	case "push":
		l.Elems = append(l.Elems, args...)

		return l, nil

	case "pop":
		if len(args) > 1 {
			return nil, ErrType.WithPosition(n.At).With(
				slog.String("reason", "pop takes at most one argument"),
				slog.Int("args", len(args)))
		}

		if len(l.Elems) == 0 {
			return nil, ErrEmptyContainer.WithPosition(n.At).
				With(slog.String("method", "pop"))
		}

		i := len(l.Elems) - 1

		if len(args) == 1 {
			idx, ok := args[0].(Int)
			if !ok {
				return nil, ErrType.WithPosition(n.Args[0].Pos()).With(
					slog.String("reason", "list index must be int"),
					slog.String("type", args[0].Type()))
			}

			if idx < 0 || int64(idx) >= int64(len(l.Elems)) {
				return nil, ErrIndexOutOfBounds.WithPosition(n.Args[0].Pos()).
					With(slog.Int64("index", int64(idx)), slog.Int("len", len(l.Elems)))
			}

			i = int(idx)
		}

		v := l.Elems[i]
		l.Elems = append(l.Elems[:i], l.Elems[i+1:]...)

		return v, nil
	}

	return nil, ErrUnknownMethod.WithPosition(n.At).
		With(slog.String("method", n.Method))
}

func literalValue(n *Literal) (Value, error) {
	switch n.Kind {
	case KindInt:
		i, err := strconv.ParseInt(n.Text, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			// Too large for an Int; promote like overflowing arithmetic.
			if f, ferr := strconv.ParseFloat(n.Text, 64); ferr == nil {
				return Float(f), nil
			}
		}

		if err != nil {
			return nil, ErrInvalidLiteral.WithPosition(n.At).Wrap(err).
				With(slog.String("text", n.Text))
		}

		return Int(i), nil

	case KindFloat:
		if !isFloatText(n.Text) {
			return nil, ErrInvalidLiteral.WithPosition(n.At).
				With(slog.String("text", n.Text))
		}

		f, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return nil, ErrInvalidLiteral.WithPosition(n.At).Wrap(err).
				With(slog.String("text", n.Text))
		}

		return Float(f), nil

	case KindBool:
		switch n.Text {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}

	case KindStr:
		return Str(n.Text), nil
	}

	return nil, ErrInvalidLiteral.WithPosition(n.At).With(
		slog.String("kind", n.Kind.String()),
		slog.String("text", n.Text))
}

// isFloatText reports whether s is digits with exactly one '.' and at least
// one digit.
func isFloatText(s string) bool {
	dots, digits := 0, 0

	for i := range len(s) {
		switch {
		case s[i] == '.':
			dots++
		case isDigit(s[i]):
			digits++
		default:
			return false
		}
	}

	return dots == 1 && digits > 0
}

func unary(n *Unary, v Value) (Value, error) {
	switch n.Op {
	case "-":
		switch x := v.(type) {
		case Int:
			if x == math.MinInt64 {
				return Normalize(-float64(x)), nil
			}

			return -x, nil
		case Float:
			return Normalize(-float64(x)), nil
		}

		return nil, ErrType.WithPosition(n.At).With(
			slog.String("op", "-"),
			slog.String("operand", v.Type()))

	case "not":
		return Bool(!Truthy(v)), nil
	}

	return nil, ErrMalformedAST.WithPosition(n.At).With(slog.String("op", n.Op))
}

func binary(n *Binary, l, r Value) (Value, error) {
	switch n.Op {
	case "+", "-", "*", "/":
		return arithmetic(n, l, r)

	case "==":
		return Bool(Equals(l, r)), nil

	case "!=":
		return Bool(!Equals(l, r)), nil

	case "<", ">", "<=", ">=":
		c, err := compare(l, r)
		if err != nil {
			return nil, typeError(n, l, r)
		}

		switch n.Op {
		case "<":
			return Bool(c < 0), nil
		case ">":
			return Bool(c > 0), nil
		case "<=":
			return Bool(c <= 0), nil
		}

		return Bool(c >= 0), nil

	case "and":
		return Bool(Truthy(l) && Truthy(r)), nil

	case "or":
		return Bool(Truthy(l) || Truthy(r)), nil
	}

	return nil, ErrMalformedAST.WithPosition(n.At).With(slog.String("op", n.Op))
}

func arithmetic(n *Binary, l, r Value) (Value, error) {
	if n.Op == "+" {
		switch x := l.(type) {
		case Str:
			if y, ok := r.(Str); ok {
				return x + y, nil
			}
		case *List:
			if y, ok := r.(*List); ok {
				out := make([]Value, 0, len(x.Elems)+len(y.Elems))

				return &List{Elems: append(append(out, x.Elems...), y.Elems...)}, nil
			}
		}
	}

	if a, ok := l.(Int); ok {
		if b, ok := r.(Int); ok {
			if v, ok := intArithmetic(n.Op, a, b); ok {
				return v, nil
			}
		}
	}

	x, y, ok := numeric(l, r)
	if !ok {
		return nil, typeError(n, l, r)
	}

	switch n.Op {
	case "+":
		return Normalize(x + y), nil
	case "-":
		return Normalize(x - y), nil
	case "*":
		return Normalize(x * y), nil
	}

	if y == 0 {
		return nil, ErrDivisionByZero.WithPosition(n.At).
			With(slog.String("dividend", Repr(l)))
	}

	return Normalize(x / y), nil
}

// intArithmetic computes exact integer results. It reports false for
// division and on overflow, leaving those to floating point.
func intArithmetic(op string, a, b Int) (Value, bool) {
	switch op {
	case "+":
		s := a + b
		if (a^s)&(b^s) < 0 {
			return nil, false
		}

		return s, true
	case "-":
		d := a - b
		if (a^b)&(a^d) < 0 {
			return nil, false
		}

		return d, true
	case "*":
		if a == 0 || b == 0 {
			return Int(0), true
		}

		p := a * b
		if p/b != a || (a == -1 && b == math.MinInt64) ||
			(b == -1 && a == math.MinInt64) {
			return nil, false
		}

		return p, true
	}

	return nil, false
}

// compare orders two numbers, two strings or two lists. It returns an error
// for any other combination.
func compare(l, r Value) (int, error) {
	return compareSeen(l, r, nil)
}

// compareSeen orders l and r. List pairs already on the path in seen compare
// as equal, which bounds the walk over cyclic lists.
func compareSeen(l, r Value, seen map[[2]*List]bool) (int, error) {
	if c, ok := compareNumbers(l, r); ok {
		return c, nil
	}

	switch a := l.(type) {
	case Str:
		if b, ok := r.(Str); ok {
			return cmp3(a, b), nil
		}
	case *List:
		b, ok := r.(*List)
		if !ok {
			break
		}

		if seen[[2]*List{a, b}] {
			return 0, nil
		}

		if seen == nil {
			seen = make(map[[2]*List]bool)
		}

		seen[[2]*List{a, b}] = true
		defer delete(seen, [2]*List{a, b})

		for i := range min(len(a.Elems), len(b.Elems)) {
			if Equals(a.Elems[i], b.Elems[i]) {
				continue
			}

			c, err := compareSeen(a.Elems[i], b.Elems[i], seen)
			if err != nil || c != 0 {
				return c, err
			}
		}

		return cmp3(len(a.Elems), len(b.Elems)), nil
	}

	return 0, ErrType
}

func cmp3[T Int | Float | float64 | Str | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

func typeError(n *Binary, l, r Value) error {
	return ErrType.WithPosition(n.At).With(
		slog.String("op", n.Op),
		slog.String("left", l.Type()),
		slog.String("right", r.Type()))
}

func index(n *IndexAccess, c, k Value) (Value, error) {
	switch c := c.(type) {
	case *List:
		i, err := listIndex(n, c, k)
		if err != nil {
			return nil, err
		}

		return c.Elems[i], nil

	case *Dict:
		if !IsKey(k) {
			return nil, ErrType.WithPosition(n.Key.Pos()).
				With(slog.String("reason", "unhashable key"),
					slog.String("type", k.Type()))
		}

		v, ok := c.Get(k)
		if !ok {
			return nil, ErrKeyNotFound.WithPosition(n.At).
				With(slog.String("key", Repr(k)))
		}

		return v, nil
	}

	return nil, ErrType.WithPosition(n.At).
		With(slog.String("reason", "not subscriptable"),
			slog.String("type", c.Type()))
}

// listIndex validates k as an in-range index of l.
func listIndex(n *IndexAccess, l *List, k Value) (int, error) {
	i, ok := k.(Int)
	if !ok {
		return 0, ErrType.WithPosition(n.Key.Pos()).
			With(slog.String("reason", "list index must be int"),
				slog.String("type", k.Type()))
	}

	if i < 0 || int64(i) >= int64(len(l.Elems)) {
		return 0, ErrIndexOutOfBounds.WithPosition(n.At).
			With(slog.Int64("index", int64(i)), slog.Int("len", len(l.Elems)))
	}

	return int(i), nil
}

package lang

import (
	"context"
	"log/slog"
	"strconv"
)

// ParseValue reads a value from literal source text as produced by
// [FormatLiteral]. Only literals, negated numbers and list or dict literals
// built from them are accepted. Float literals keep their type, so "-2.0"
// reads back as a Float.
func ParseValue(ctx context.Context, text string) (Value, error) {
	prog, err := ParseString(ctx, text)
	if err != nil {
		return nil, err
	}

	if len(prog) != 1 {
		return nil, ErrInvalidLiteral.With(
			slog.String("reason", "expected exactly one value"),
			slog.Int("statements", len(prog)))
	}

	return constant(prog[0])
}

func constant(n Node) (Value, error) {
	switch n := n.(type) {
	case *Literal:
		return literalValue(n)

	case *Unary:
		lit, ok := n.Operand.(*Literal)
		if !ok || n.Op != "-" {
			break
		}

		switch lit.Kind {
		case KindInt:
			i, err := strconv.ParseInt("-"+lit.Text, 10, 64)
			if err != nil {
				return nil, ErrInvalidLiteral.WithPosition(lit.At).Wrap(err)
			}

			return Int(i), nil

		case KindFloat:
			v, err := literalValue(lit)
			if err != nil {
				return nil, err
			}

			return -v.(Float), nil
		}

	case *ListLiteral:
		l := &List{Elems: make([]Value, 0, len(n.Elems))}

		for _, e := range n.Elems {
			v, err := constant(e)
			if err != nil {
				return nil, err
			}

			l.Elems = append(l.Elems, v)
		}

		return l, nil

	case *DictLiteral:
		d := NewDict()

		for _, p := range n.Pairs {
			k, err := constant(p.Key)
			if err != nil {
				return nil, err
			}

			if !IsKey(k) {
				return nil, ErrType.WithPosition(p.Key.Pos()).
					With(slog.String("reason", "unhashable key"))
			}

			v, err := constant(p.Value)
			if err != nil {
				return nil, err
			}

			d.Set(k, v)
		}

		return d, nil
	}

	return nil, ErrInvalidLiteral.WithPosition(n.Pos()).
		With(slog.String("source", n.String()))
}

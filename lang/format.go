package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the program as source text. With indent > 0 the bodies of
// if and while statements are broken across indented lines.
func (p Program) Format(_ context.Context, w io.Writer, indent int) error {
	if indent <= 0 {
		_, err := io.WriteString(w, p.String())

		return err
	}

	var sb strings.Builder

	for _, n := range p {
		formatStatement(&sb, n, indent, 0)
		sb.WriteString(";\n")
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

func formatStatement(sb *strings.Builder, n Node, indent, depth int) {
	switch n := n.(type) {
	case *If:
		sb.WriteString("if " + n.Cond.String() + " ")
		formatBlock(sb, n.Then, indent, depth)

		if n.Else != nil {
			sb.WriteString(" else ")
			formatBlock(sb, n.Else, indent, depth)
		}
	case *While:
		sb.WriteString("while " + n.Cond.String() + " ")
		formatBlock(sb, n.Body, indent, depth)
	default:
		sb.WriteString(n.String())
	}
}

func formatBlock(sb *strings.Builder, stmts []Node, indent, depth int) {
	if len(stmts) == 0 {
		sb.WriteString("{}")

		return
	}

	sb.WriteString("{\n")

	pad := strings.Repeat(" ", indent*(depth+1))
	for _, s := range stmts {
		sb.WriteString(pad)
		formatStatement(sb, s, indent, depth+1)
		sb.WriteString(";\n")
	}

	sb.WriteString(strings.Repeat(" ", indent*depth) + "}")
}

// FormatJSON writes the wire form of the program as JSON.
func (p Program) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(p.Encode(), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(p.Encode())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the wire form of the program as YAML.
func (p Program) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, p.Encode(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// Display returns the form print writes: strings at the top level appear
// without quotes, everything else as in [Repr].
func Display(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}

	return Repr(v)
}

// Repr renders v as literal text. Containers that contain themselves render
// the repeated reference as "[...]" or "{...}", and [Unit] renders as "none";
// use [FormatLiteral] where the text must parse back.
func Repr(v Value) string {
	var sb strings.Builder

	_ = writeRepr(&sb, v, nil, false)

	return sb.String()
}

// FormatLiteral renders v as source text that [ParseValue] reads back to an
// equal value. It fails for [Unit], non-finite floats and cyclic containers.
func FormatLiteral(v Value) (string, error) {
	var sb strings.Builder

	if err := writeRepr(&sb, v, nil, true); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func writeRepr(sb *strings.Builder, v Value, stack []any, strict bool) error {
	switch x := v.(type) {
	case Int:
		sb.WriteString(strconv.FormatInt(int64(x), 10))

	case Float:
		if strict && (math.IsInf(float64(x), 0) || math.IsNaN(float64(x))) {
			return ErrInvalidLiteral.With(slog.String("value", formatFloat(float64(x), false)))
		}

		sb.WriteString(formatFloat(float64(x), strict))

	case Bool:
		sb.WriteString(strconv.FormatBool(bool(x)))

	case Str:
		sb.WriteString(quote(string(x)))

	case *List:
		if contains(stack, x) {
			if strict {
				return ErrInvalidLiteral.With(slog.String("reason", "cyclic list"))
			}

			sb.WriteString("[...]")

			return nil
		}

		sb.WriteByte('[')

		for i, e := range x.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}

			if err := writeRepr(sb, e, append(stack, x), strict); err != nil {
				return err
			}
		}

		sb.WriteByte(']')

	case *Dict:
		if contains(stack, x) {
			if strict {
				return ErrInvalidLiteral.With(slog.String("reason", "cyclic dict"))
			}

			sb.WriteString("{...}")

			return nil
		}

		sb.WriteByte('{')

		i := 0
		for k, e := range x.All() {
			if i > 0 {
				sb.WriteString(", ")
			}

			i++

			if err := writeRepr(sb, k, nil, strict); err != nil {
				return err
			}

			sb.WriteString(": ")

			if err := writeRepr(sb, e, append(stack, x), strict); err != nil {
				return err
			}
		}

		sb.WriteByte('}')

	default:
		if strict {
			return ErrInvalidLiteral.With(slog.String("type", v.Type()))
		}

		sb.WriteString("none")
	}

	return nil
}

func contains(stack []any, c any) bool {
	for _, s := range stack {
		if s == c {
			return true
		}
	}

	return false
}

// formatFloat renders f with at least one fractional digit. Unless plain is
// set, very large and very small magnitudes use exponent notation.
func formatFloat(f float64, plain bool) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	if !plain && f != 0 {
		if exp := math.Floor(math.Log10(math.Abs(f))); exp < -4 || exp >= 16 {
			return strconv.FormatFloat(f, 'e', -1, 64)
		}
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}

	return s
}

// quote renders s as a string literal the lexer accepts. Single quotes are
// preferred unless s contains one and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}

	var sb strings.Builder

	sb.Grow(len(s) + 2)
	sb.WriteByte(q)

	for i := range len(s) {
		switch c := s[i]; c {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		case '\\':
			sb.WriteString(`\\`)
		case q:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}

	sb.WriteByte(q)

	return sb.String()
}

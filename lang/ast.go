package lang

import (
	"strings"
)

// Node is a syntax tree node produced by [Parse] or [DecodeProgram].
//
// The set of implementations is closed. String renders canonical source text:
// every compound expression is parenthesized, so the result parses back to an
// equal tree.
type Node interface {
	Pos() Position
	String() string

	node()
}

// Program is the ordered statement list of one parse call.
type Program []Node

// String renders the program as source, one statement per line.
func (p Program) String() string {
	var sb strings.Builder

	for _, n := range p {
		sb.WriteString(n.String())
		sb.WriteString(";\n")
	}

	return sb.String()
}

// Literal is an int, flt, bool_val or str token appearing as a value.
type Literal struct {
	Kind Kind
	Text string
	At   Position
}

// Variable references a name in the [Environment].
type Variable struct {
	Name string
	At   Position
}

// Unary is the pair form: Op is "-" or "not".
type Unary struct {
	Op      string
	Operand Node
	At      Position
}

// Binary is the triple form for arithmetic, comparison and boolean operators.
type Binary struct {
	Left  Node
	Op    string
	Right Node
	At    Position
}

// Assign binds Value to Target, which is a [*Variable] or an [*IndexAccess].
type Assign struct {
	Target Node
	Value  Node
	At     Position
}

// Print writes the display form of Expr.
type Print struct {
	Expr Node
	At   Position
}

// If runs Then when Cond is truthy, otherwise Else. A nil Else means the
// statement had no else branch.
type If struct {
	Cond Node
	Then []Node
	Else []Node
	At   Position
}

// While runs Body as long as Cond is truthy.
type While struct {
	Cond Node
	Body []Node
	At   Position
}

// ListLiteral constructs a new list.
type ListLiteral struct {
	Elems []Node
	At    Position
}

// Pair is one key/value entry of a [DictLiteral].
type Pair struct {
	Key   Node
	Value Node
}

// DictLiteral constructs a new dict.
type DictLiteral struct {
	Pairs []Pair
	At    Position
}

// IndexAccess reads Container[Key].
type IndexAccess struct {
	Container Node
	Key       Node
	At        Position
}

// MethodCall invokes a builtin method on a list.
type MethodCall struct {
	Receiver Node
	Method   string
	Args     []Node
	At       Position
}

// Delete removes an element addressed by an [IndexAccess].
type Delete struct {
	Target Node
	At     Position
}

func (n *Literal) Pos() Position     { return n.At }
func (n *Variable) Pos() Position    { return n.At }
func (n *Unary) Pos() Position       { return n.At }
func (n *Binary) Pos() Position      { return n.At }
func (n *Assign) Pos() Position      { return n.At }
func (n *Print) Pos() Position       { return n.At }
func (n *If) Pos() Position          { return n.At }
func (n *While) Pos() Position       { return n.At }
func (n *ListLiteral) Pos() Position { return n.At }
func (n *DictLiteral) Pos() Position { return n.At }
func (n *IndexAccess) Pos() Position { return n.At }
func (n *MethodCall) Pos() Position  { return n.At }
func (n *Delete) Pos() Position      { return n.At }

func (*Literal) node()     {}
func (*Variable) node()    {}
func (*Unary) node()       {}
func (*Binary) node()      {}
func (*Assign) node()      {}
func (*Print) node()       {}
func (*If) node()          {}
func (*While) node()       {}
func (*ListLiteral) node() {}
func (*DictLiteral) node() {}
func (*IndexAccess) node() {}
func (*MethodCall) node()  {}
func (*Delete) node()      {}

func (n *Literal) String() string {
	if n.Kind == KindStr {
		return quote(n.Text)
	}

	return n.Text
}

func (n *Variable) String() string { return n.Name }

func (n *Unary) String() string {
	if n.Op == "-" {
		return "(-" + n.Operand.String() + ")"
	}

	return "(" + n.Op + " " + n.Operand.String() + ")"
}

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op + " " + n.Right.String() + ")"
}

func (n *Assign) String() string {
	return n.Target.String() + " = " + n.Value.String()
}

func (n *Print) String() string { return "print " + n.Expr.String() }

func (n *If) String() string {
	s := "if " + n.Cond.String() + " " + block(n.Then)
	if n.Else != nil {
		s += " else " + block(n.Else)
	}

	return s
}

func (n *While) String() string {
	return "while " + n.Cond.String() + " " + block(n.Body)
}

func (n *ListLiteral) String() string {
	parts := make([]string, len(n.Elems))
	for i, e := range n.Elems {
		parts[i] = e.String()
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func (n *DictLiteral) String() string {
	parts := make([]string, len(n.Pairs))

	for i, p := range n.Pairs {
		key := p.Key.String()
		// A bare identifier before ':' is read back as a string key.
		if _, ok := p.Key.(*Variable); ok {
			key = "(" + key + ")"
		}

		parts[i] = key + ": " + p.Value.String()
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

func (n *IndexAccess) String() string {
	return operand(n.Container) + "[" + n.Key.String() + "]"
}

func (n *MethodCall) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}

	return operand(n.Receiver) + "." + n.Method +
		"(" + strings.Join(args, ", ") + ")"
}

func (n *Delete) String() string { return "delete " + n.Target.String() }

// operand renders n as the left side of a postfix operator. Number literals
// are parenthesized so a following '.' is not lexed into the number.
func operand(n Node) string {
	if lit, ok := n.(*Literal); ok && (lit.Kind == KindInt || lit.Kind == KindFloat) {
		return "(" + lit.Text + ")"
	}

	return n.String()
}

func block(stmts []Node) string {
	if len(stmts) == 0 {
		return "{}"
	}

	var sb strings.Builder

	sb.WriteString("{ ")

	for _, s := range stmts {
		sb.WriteString(s.String())
		sb.WriteString("; ")
	}

	sb.WriteString("}")

	return sb.String()
}

// Equal reports whether a and b are structurally identical, ignoring source
// positions.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Literal:
		y, ok := b.(*Literal)

		return ok && x.Kind == y.Kind && x.Text == y.Text
	case *Variable:
		y, ok := b.(*Variable)

		return ok && x.Name == y.Name
	case *Unary:
		y, ok := b.(*Unary)

		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *Binary:
		y, ok := b.(*Binary)

		return ok && x.Op == y.Op && Equal(x.Left, y.Left) &&
			Equal(x.Right, y.Right)
	case *Assign:
		y, ok := b.(*Assign)

		return ok && Equal(x.Target, y.Target) && Equal(x.Value, y.Value)
	case *Print:
		y, ok := b.(*Print)

		return ok && Equal(x.Expr, y.Expr)
	case *If:
		y, ok := b.(*If)

		return ok && Equal(x.Cond, y.Cond) && equalList(x.Then, y.Then) &&
			(x.Else == nil) == (y.Else == nil) && equalList(x.Else, y.Else)
	case *While:
		y, ok := b.(*While)

		return ok && Equal(x.Cond, y.Cond) && equalList(x.Body, y.Body)
	case *ListLiteral:
		y, ok := b.(*ListLiteral)

		return ok && equalList(x.Elems, y.Elems)
	case *DictLiteral:
		y, ok := b.(*DictLiteral)
		if !ok || len(x.Pairs) != len(y.Pairs) {
			return false
		}

		for i := range x.Pairs {
			if !Equal(x.Pairs[i].Key, y.Pairs[i].Key) ||
				!Equal(x.Pairs[i].Value, y.Pairs[i].Value) {
				return false
			}
		}

		return true
	case *IndexAccess:
		y, ok := b.(*IndexAccess)

		return ok && Equal(x.Container, y.Container) && Equal(x.Key, y.Key)
	case *MethodCall:
		y, ok := b.(*MethodCall)

		return ok && x.Method == y.Method && Equal(x.Receiver, y.Receiver) &&
			equalList(x.Args, y.Args)
	case *Delete:
		y, ok := b.(*Delete)

		return ok && Equal(x.Target, y.Target)
	case nil:
		return b == nil
	}

	return false
}

func equalList(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}

	return true
}

// Equal reports whether p and q hold equal statements in the same order.
func (p Program) Equal(q Program) bool { return equalList(p, q) }

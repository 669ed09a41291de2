package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// signature describes a list method for the hint line.
type signature struct {
	name   string
	params []string // a "..." prefix marks a variadic parameter
}

var signatures = map[string]signature{
	"push": {"push", []string{"...values"}},
	"pop":  {"pop", []string{"index?"}},
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// methodCall is the method call enclosing the cursor, if any.
type methodCall struct {
	name     string
	argIndex int
	inCall   bool
}

// detectMethodCall finds the innermost unclosed "(" before cursor and reports
// it when it opens the argument list of a method call such as "xs.push(".
// Parentheses used for grouping are ignored.
func detectMethodCall(input string, cursor int) methodCall {
	cursor = min(cursor, len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')', ']', '}':
			depth++
		case '(', '[', '{':
			if depth == 0 {
				if input[i] != '(' {
					return methodCall{}
				}

				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return methodCall{}
	}

	name, start, _ := wordBounds(input, open)
	if name == "" || !isMethodPosition(input, start) {
		return methodCall{}
	}

	call := methodCall{name: name, inCall: true}

	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				call.argIndex++
			}
		}
	}

	return call
}

// String returns the plain signature, for example "push(...values)".
func (s signature) String() string {
	return s.name + "(" + strings.Join(s.params, ", ") + ")"
}

// render styles the signature with the parameter at argIndex highlighted. A
// variadic parameter stays highlighted for every later argument.
func (s signature) render(argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(s.name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range s.params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")

		if argIndex == i || variadic && argIndex > i {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}

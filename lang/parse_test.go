package lang_test

import (
	"errors"
	"testing"

	"github.com/ardnew/kay/lang"
)

func TestParse_Structure(t *testing.T) {
	t.Parallel()

	// Each input is a single statement; want is its canonical source form.
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"precedence_mul_over_add", `1 + 2 * 3`, `(1 + (2 * 3))`},
		{"left_assoc_sub", `10 - 4 - 3`, `((10 - 4) - 3)`},
		{"left_assoc_div", `8 / 4 / 2`, `((8 / 4) / 2)`},
		{"parens", `(1 + 2) * 3`, `((1 + 2) * 3)`},
		{"unary_minus_binds_postfix", `-a[0]`, `(-a[0])`},
		{"unary_minus_in_term", `-a * b`, `((-a) * b)`},
		{"not_and_bang", `!x or not y`, `((not x) or (not y))`},
		{"comparison_rhs_is_boolean_expr", `a < b and c`, `(a < (b and c))`},
		{"boolean_left_assoc", `a and b or c`, `((a and b) or c)`},
		{"comparison_after_boolean", `a and b == c or d`, `(a and (b == (c or d)))`},
		{"postfix_chain", `a[0].push(1)[2]`, `a[0].push(1)[2]`},
		{"method_on_literal", `[1, 2].pop()`, `[1, 2].pop()`},
		{"method_on_number", `(5).push(1)`, `(5).push(1)`},
		{"list_trailing_comma", `[1, 2,]`, `[1, 2]`},
		{"empty_list", `[]`, `[]`},
		{"dict_bare_key", `{a: 1, "b": 2, 3: x}`, `{'a': 1, 'b': 2, 3: x}`},
		{"dict_expression_key", `{(k): 1, k + "x": 2,}`, `{(k): 1, (k + 'x'): 2}`},
		{"empty_dict", `{}`, `{}`},
		{"let", `let x = 5`, `x = 5`},
		{"bare_assign", `x = y + 1`, `x = (y + 1)`},
		{"index_assign", `let m["k"] = [1]`, `m['k'] = [1]`},
		{"print_parenthesized", `print(1)`, `print 1`},
		{"delete", `delete d["a"]`, `delete d['a']`},
		{"if_else", `if x < 1 { print 1 } else { print 2 }`, `if (x < 1) { print 1; } else { print 2; }`},
		{"if_no_else", `if x { y = 1; z = 2 }`, `if x { y = 1; z = 2; }`},
		{"else_if", `if a { 1 } else if b { 2 } else { 3 }`, `if a { 1; } else { if b { 2; } else { 3; }; }`},
		{"while", `while i < 3 { i = i + 1 }`, `while (i < 3) { i = (i + 1); }`},
		{"empty_blocks", `if x {} else {}`, `if x {} else {}`},
		{"string_quoting", `"it's"`, `"it's"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prog, err := lang.ParseString(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("ParseString() error = %v", err)
			}

			if len(prog) != 1 {
				t.Fatalf("ParseString() = %d statements, want 1", len(prog))
			}

			if got := prog[0].String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse_Nodes(t *testing.T) {
	t.Parallel()

	prog, err := lang.ParseString(t.Context(), `let l = [1]; l.push(2); l.pop()`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if len(prog) != 3 {
		t.Fatalf("ParseString() = %d statements, want 3", len(prog))
	}

	as, ok := prog[0].(*lang.Assign)
	if !ok {
		t.Fatalf("statement 0 = %T, want *lang.Assign", prog[0])
	}

	if v, ok := as.Target.(*lang.Variable); !ok || v.Name != "l" {
		t.Errorf("assign target = %#v, want variable l", as.Target)
	}

	mc, ok := prog[1].(*lang.MethodCall)
	if !ok || mc.Method != "push" || len(mc.Args) != 1 {
		t.Fatalf("statement 1 = %#v, want push call with one argument", prog[1])
	}

	if mc, ok := prog[2].(*lang.MethodCall); !ok || mc.Method != "pop" || len(mc.Args) != 0 {
		t.Errorf("statement 2 = %#v, want pop call without arguments", prog[2])
	}

	// A method call is positioned at its '.'.
	if got := prog[1].Pos(); got.Line != 1 || got.Column != 15 {
		t.Errorf("statement 1 position = %v, want 1:15", got)
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "   ", "# comment only\n// another"} {
		prog, err := lang.ParseString(t.Context(), input)
		if err != nil {
			t.Errorf("ParseString(%q) error = %v", input, err)
		}

		if len(prog) != 0 {
			t.Errorf("ParseString(%q) = %d statements, want 0", input, len(prog))
		}
	}
}

func TestParse_OptionalSemicolons(t *testing.T) {
	t.Parallel()

	prog, err := lang.ParseString(t.Context(), "let a = 1\nlet b = 2; print a")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if len(prog) != 3 {
		t.Errorf("ParseString() = %d statements, want 3", len(prog))
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unexpected_token", `)`, lang.ErrUnexpectedToken},
		{"unexpected_operator", `1 + * 2`, lang.ErrUnexpectedToken},
		{"stray_semicolon", `;`, lang.ErrUnexpectedToken},
		{"unexpected_eof_operand", `1 +`, lang.ErrUnexpectedEOF},
		{"unexpected_eof_print", `print`, lang.ErrUnexpectedEOF},
		{"unexpected_eof_if_block", `if x`, lang.ErrUnexpectedEOF},
		{"unexpected_eof_let", `let`, lang.ErrUnexpectedEOF},
		{"unexpected_eof_method", `a.`, lang.ErrUnexpectedEOF},
		{"method_name_missing", `a.5`, lang.ErrUnexpectedToken},
		{"method_without_parens", `a.push 1`, lang.ErrUnexpectedToken},
		{"if_without_block", `if x print 1`, lang.ErrUnexpectedToken},
		{"missing_paren", `(1 + 2`, lang.ErrMissingClosingDelimiter},
		{"missing_paren_found_other", `(1 + 2 ]`, lang.ErrMissingClosingDelimiter},
		{"missing_bracket", `a[0`, lang.ErrMissingClosingDelimiter},
		{"missing_call_paren", `a.push(1, 2`, lang.ErrMissingClosingDelimiter},
		{"missing_brace", `while x { x = 0`, lang.ErrMissingClosingDelimiter},
		{"let_number", `let 5 = 3`, lang.ErrExpectedVariable},
		{"let_paren", `let (x) = 3`, lang.ErrExpectedVariable},
		{"let_without_assign", `let x 5`, lang.ErrUnexpectedToken},
		{"assign_to_literal", `5 = 3`, lang.ErrInvalidAssignmentTarget},
		{"assign_to_binary", `a + b = 3`, lang.ErrInvalidAssignmentTarget},
		{"assign_to_call", `let a.pop() = 3`, lang.ErrInvalidAssignmentTarget},
		{"chained_assign", `a = b = 5`, lang.ErrChainedAssignment},
		{"chained_let", `let a = b = 5`, lang.ErrChainedAssignment},
		{"unterminated_list", `[1, 2`, lang.ErrUnterminatedLiteral},
		{"unterminated_list_missing_comma", `[1 2]`, lang.ErrUnterminatedLiteral},
		{"unterminated_dict", `{a: 1`, lang.ErrUnterminatedLiteral},
		{"unterminated_dict_missing_comma", `{a: 1 b: 2}`, lang.ErrUnterminatedLiteral},
		{"dict_missing_colon", `{a 1}`, lang.ErrUnexpectedToken},
		{"lex_error_surfaces", `x = $`, lang.ErrUnknownCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prog, err := lang.ParseString(t.Context(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParseString() error = %v, want %v", err, tt.want)
			}

			if prog != nil {
				t.Errorf("ParseString() returned a partial program: %v", prog)
			}

			if errors.Is(tt.want, lang.ErrParse) && !errors.Is(err, lang.ErrParse) {
				t.Errorf("ParseString() error = %v is not in the parse family", err)
			}
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	t.Parallel()

	_, err := lang.ParseString(t.Context(), "let a = 1\nlet b = (2 + 3")

	var perr *lang.Error
	if !errors.As(err, &perr) {
		t.Fatalf("ParseString() error = %v, want *lang.Error", err)
	}

	pos, ok := perr.Position()
	if !ok {
		t.Fatal("error has no position")
	}

	if pos.Line != 2 || pos.Column != 9 {
		t.Errorf("error position = %v, want 2:9", pos)
	}
}

func TestParse_MaxDepth(t *testing.T) {
	t.Parallel()

	deep := ""
	for range 100 {
		deep += "("
	}

	deep += "1"

	for range 100 {
		deep += ")"
	}

	if _, err := lang.ParseString(t.Context(), deep); err != nil {
		t.Fatalf("ParseString() with default depth error = %v", err)
	}

	_, err := lang.ParseString(t.Context(), deep, lang.WithMaxDepth(50))
	if !errors.Is(err, lang.ErrMaxDepthExceeded) {
		t.Errorf("ParseString() error = %v, want %v", err, lang.ErrMaxDepthExceeded)
	}
}

func TestParse_ElseBranchPresence(t *testing.T) {
	t.Parallel()

	prog, err := lang.ParseString(t.Context(), `if x {} if x {} else {}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if n := prog[0].(*lang.If); n.Else != nil {
		t.Errorf("if without else has Else = %v, want nil", n.Else)
	}

	if n := prog[1].(*lang.If); n.Else == nil || len(n.Else) != 0 {
		t.Errorf("if with empty else has Else = %#v, want empty", n.Else)
	}
}

func TestIncomplete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want bool
	}{
		{"x = ", true},
		{"if x {", true},
		{"while i < 3 { i = i + 1", true},
		{"xs = [1, 2", true},
		{"d = {'a': 1", true},
		{"(1 + 2", true},
		{"1 + * 2", false},
		{"xs = [1, 2 3]", false},
		{"(1 + 2]", false},
		{"let = 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			_, err := lang.ParseString(t.Context(), tt.src)
			if err == nil {
				t.Fatal("ParseString() succeeded")
			}

			if got := lang.Incomplete(err); got != tt.want {
				t.Errorf("Incomplete(%v) = %v, want %v", err, got, tt.want)
			}
		})
	}

	if lang.Incomplete(errors.New("other")) || lang.Incomplete(nil) {
		t.Error("Incomplete accepted a foreign error")
	}
}

package lang_test

import (
	"errors"
	"testing"

	"github.com/ardnew/kay/lang"
)

func TestMarshalProgram(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"literal", `5`, `[["int","5"]]`},
		{"float_text_kept", `2.50`, `[["flt","2.50"]]`},
		{"bool", `true`, `[["bool_val","true"]]`},
		{"binary", `1 + x`, `[[["int","1"],"+",["var","x"]]]`},
		{"unary", `-x`, `[["-",["var","x"]]]`},
		{"not", `!x`, `[["not",["var","x"]]]`},
		{"assign", `let x = 'a'`, `[[["var","x"],"=",["str","a"]]]`},
		{"print", `print x`, `[["print",["var","x"]]]`},
		{"if_without_else", `if x { 1 }`, `[["if",["var","x"],[["int","1"]],null]]`},
		{"if_with_empty_else", `if x {} else {}`, `[["if",["var","x"],[],[]]]`},
		{"while", `while x {}`, `[["while",["var","x"],[]]]`},
		{"delete", `delete x[0]`, `[["delete",["index_access",["var","x"],["int","0"]]]]`},
		{"list", `[1, "b"]`, `[["list_literal",[["int","1"],["str","b"]]]]`},
		{"dict", `{a: 1}`, `[["dict_literal",[[["str","a"],["int","1"]]]]]`},
		{"method", `x.pop()`, `[["method_call",["var","x"],"pop",[]]]`},
		{"empty", ``, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prog, err := lang.ParseString(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("ParseString() error = %v", err)
			}

			data, err := lang.MarshalProgram(prog)
			if err != nil {
				t.Fatalf("MarshalProgram() error = %v", err)
			}

			if string(data) != tt.want {
				t.Errorf("MarshalProgram() = %s, want %s", data, tt.want)
			}

			got, err := lang.DecodeProgram(t.Context(), data)
			if err != nil {
				t.Fatalf("DecodeProgram() error = %v", err)
			}

			if !got.Equal(prog) {
				t.Errorf("DecodeProgram() = %s, want %s", got, prog)
			}
		})
	}
}

func TestDecodeProgram_YAML(t *testing.T) {
	t.Parallel()

	src := `
- - [var, l]
  - "="
  - [list_literal, [[int, "1"]]]
- [method_call, [var, l], push, [[int, "2"]]]
- [method_call, [var, l], pop, []]
`

	prog, err := lang.DecodeProgram(t.Context(), []byte(src))
	if err != nil {
		t.Fatalf("DecodeProgram() error = %v", err)
	}

	want, err := lang.ParseString(t.Context(), `let l = [1]; l.push(2); l.pop()`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if !prog.Equal(want) {
		t.Errorf("DecodeProgram() = %s, want %s", prog, want)
	}

	// Unquoted YAML numbers decode to the same literal text.
	unquoted, err := lang.DecodeProgram(t.Context(), []byte(`[[int, 7]]`))
	if err != nil {
		t.Fatalf("DecodeProgram() error = %v", err)
	}

	if got := unquoted.String(); got != "7;\n" {
		t.Errorf("DecodeProgram() = %q, want %q", got, "7;\n")
	}
}

func TestDecodeProgram_Empty(t *testing.T) {
	t.Parallel()

	for _, data := range []string{"", "[]", "null"} {
		prog, err := lang.DecodeProgram(t.Context(), []byte(data))
		if err != nil {
			t.Errorf("DecodeProgram(%q) error = %v", data, err)
		}

		if len(prog) != 0 {
			t.Errorf("DecodeProgram(%q) = %d statements, want 0", data, len(prog))
		}
	}
}

func TestDecodeProgram_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{"not_a_list", `{"a": 1}`, lang.ErrMalformedAST},
		{"scalar_statement", `["x"]`, lang.ErrMalformedAST},
		{"short_form", `[["int"]]`, lang.ErrMalformedAST},
		{"unknown_operator", `[[["int","1"],"%",["int","2"]]]`, lang.ErrMalformedAST},
		{"literal_text_mismatch", `[["int","1.5"]]`, lang.ErrMalformedAST},
		{"invalid_variable", `[["var","let"]]`, lang.ErrMalformedAST},
		{"nested_assignment", `[["print",[["var","x"],"=",["int","1"]]]]`, lang.ErrMalformedAST},
		{"statement_in_expression", `[[["int","1"],"+",["print",["int","2"]]]]`, lang.ErrMalformedAST},
		{"if_arity", `[["if",["var","x"],[]]]`, lang.ErrMalformedAST},
		{"dict_entry", `[["dict_literal",[["str","a"]]]]`, lang.ErrMalformedAST},
		{"method_name", `[["method_call",["var","x"],"1x",[]]]`, lang.ErrMalformedAST},
		{"assign_target", `[[["int","1"],"=",["int","2"]]]`, lang.ErrInvalidAssignmentTarget},
		{"invalid_yaml", `[[`, lang.ErrMalformedAST},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prog, err := lang.DecodeProgram(t.Context(), []byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("DecodeProgram() error = %v, want %v", err, tt.want)
			}

			if prog != nil {
				t.Errorf("DecodeProgram() = %v, want nil", prog)
			}
		})
	}
}

func TestDecodeProgram_MaxDepth(t *testing.T) {
	t.Parallel()

	data := `["int","1"]`
	for range 20 {
		data = `["-",` + data + `]`
	}

	data = "[" + data + "]"

	if _, err := lang.DecodeProgram(t.Context(), []byte(data)); err != nil {
		t.Fatalf("DecodeProgram() error = %v", err)
	}

	_, err := lang.DecodeProgram(t.Context(), []byte(data), lang.WithMaxDepth(10))
	if !errors.Is(err, lang.ErrMaxDepthExceeded) {
		t.Errorf("DecodeProgram() error = %v, want %v", err, lang.ErrMaxDepthExceeded)
	}
}

package lang_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardnew/kay/lang"
)

// exec runs src against a fresh environment and returns the final value,
// everything printed, and the environment.
func exec(t *testing.T, src string) (lang.Value, string, *lang.Memory, error) {
	t.Helper()

	var out bytes.Buffer

	env := lang.NewMemory()
	it := lang.New(lang.WithEnvironment(env), lang.WithOutput(&out))

	v, err := it.Exec(t.Context(), src)

	return v, out.String(), env, err
}

func TestEvaluate_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  lang.Value
	}{
		// Arithmetic and normalization.
		{"int_add", `1 + 2`, lang.Int(3)},
		{"exact_division_normalizes", `4 / 2`, lang.Int(2)},
		{"true_division", `1 / 2`, lang.Float(0.5)},
		{"float_sum_normalizes", `1.5 + 1.5`, lang.Int(3)},
		{"float_product", `2.5 * 3`, lang.Float(7.5)},
		{"mixed_sub", `5 - 0.5`, lang.Float(4.5)},
		{"literal_float_stays", `2.0`, lang.Float(2)},
		{"negated_float_normalizes", `-2.0`, lang.Int(-2)},
		{"negated_int", `-(3 * 4)`, lang.Int(-12)},
		{"int_overflow_promotes", `9223372036854775807 + 1`, lang.Float(9223372036854775808)},
		{"int_literal_overflow_promotes", `99999999999999999999`, lang.Float(1e20)},
		{"precedence", `2 + 3 * 4 - 6 / 3`, lang.Int(12)},

		// Strings and lists.
		{"string_concat", `"ab" + "cd"`, lang.Str("abcd")},
		{"list_index", `[1, 2, 3][1]`, lang.Int(2)},
		{"list_concat_index", `([1] + [2, 3])[2]`, lang.Int(3)},
		{"dict_index", `{"a": 1, "b": 2}["a"]`, lang.Int(1)},
		{"dict_bare_key", `{a: 1}["a"]`, lang.Int(1)},
		{"dict_numeric_key_unified", `{1: "x"}[1.0]`, lang.Str("x")},
		{"dict_last_duplicate_wins", `{"k": 1, "k": 2}["k"]`, lang.Int(2)},
		{"nested_index", `[[1, [2, 3]]][0][1][0]`, lang.Int(2)},

		// Comparison.
		{"eq_cross_numeric", `1 == 1.0`, lang.Bool(true)},
		{"ne_bool_int", `true != 1`, lang.Bool(true)},
		{"eq_lists_deep", `[1, [2]] == [1, [2]]`, lang.Bool(true)},
		{"eq_dicts_order_free", `{"a": 1, "b": 2} == {"b": 2, "a": 1}`, lang.Bool(true)},
		{"lt_strings", `"abc" < "abd"`, lang.Bool(true)},
		{"lt_lists", `[1, 2] < [1, 3]`, lang.Bool(true)},
		{"lt_list_prefix", `[1] < [1, 0]`, lang.Bool(true)},
		{"ge_numbers", `2.5 >= 2`, lang.Bool(true)},
		{"eq_different_kinds", `"1" == 1`, lang.Bool(false)},
		{"eq_large_ints_exact", `9007199254740993 == 9007199254740992`, lang.Bool(false)},
		{"ne_large_ints_exact", `9007199254740993 != 9007199254740992`, lang.Bool(true)},
		{"gt_large_ints_exact", `9007199254740993 > 9007199254740992`, lang.Bool(true)},
		{"eq_large_int_float", `9007199254740993 == 9007199254740992.0`, lang.Bool(false)},
		{"gt_large_int_float", `9007199254740993 > 9007199254740992.0`, lang.Bool(true)},
		{"lt_max_int_float", `9223372036854775807 < 9223372036854775808.0`, lang.Bool(true)},
		{"eq_large_int_lists", `[9007199254740993] == [9007199254740992]`, lang.Bool(false)},
		{"lt_large_int_lists", `[9007199254740992] < [9007199254740993]`, lang.Bool(true)},
		{"dict_large_int_keys", `let d = {9007199254740993: 1, 9007199254740992: 2}; d[9007199254740993]`, lang.Int(1)},

		// Boolean operators return Bool.
		{"and_truthiness", `1 and "x"`, lang.Bool(true)},
		{"or_truthiness", `0 or ""`, lang.Bool(false)},
		{"not_empty_list", `not []`, lang.Bool(true)},
		{"bang_dict", `!{"a": 1}`, lang.Bool(false)},

		// Statements.
		{"if_returns_branch_value", `if 1 < 2 { 10 } else { 20 }`, lang.Int(10)},
		{"if_else_branch", `if 0 { 10 } else { 20 }`, lang.Int(20)},
		{"if_absent_else", `if false { 10 }`, lang.Unit{}},
		{"if_empty_block", `if true {}`, lang.Unit{}},
		{"else_if", `let x = 2; if x == 1 { "one" } else if x == 2 { "two" } else { "many" }`, lang.Str("two")},
		{"assign_returns_value", `let x = 5`, lang.Int(5)},
		{"print_returns_unit", `print 1`, lang.Unit{}},
		{"while_returns_unit", `let i = 0; while i < 3 { i = i + 1 }`, lang.Unit{}},
		{"delete_returns_unit", `let l = [1]; delete l[0]`, lang.Unit{}},
		{"push_returns_list_len", `let l = []; l.push(1, 2)[1]`, lang.Int(2)},
		{"pop_last", `let l = [1]; l.push(2); l.pop()`, lang.Int(2)},
		{"pop_index", `let l = [1, 2, 3]; l.pop(0)`, lang.Int(1)},
		{"empty_program", ``, lang.Unit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, _, _, err := exec(t, tt.input)
			if err != nil {
				t.Fatalf("Exec() error = %v", err)
			}

			if got.Type() != tt.want.Type() || !lang.Equals(got, tt.want) {
				t.Errorf("Exec() = %s %s, want %s %s",
					got.Type(), lang.Repr(got), tt.want.Type(), lang.Repr(tt.want))
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"division_by_zero", `5 / 0`, lang.ErrDivisionByZero},
		{"division_by_float_zero", `5 / 0.0`, lang.ErrDivisionByZero},
		{"string_plus_int", `"a" + 1`, lang.ErrType},
		{"list_minus_list", `[1] - [1]`, lang.ErrType},
		{"string_times_int", `"a" * 3`, lang.ErrType},
		{"negate_string", `-"a"`, lang.ErrType},
		{"order_bool", `true < false`, lang.ErrType},
		{"order_mixed", `1 < "a"`, lang.ErrType},
		{"order_list_elements", `[1] < ["a"]`, lang.ErrType},
		{"comparison_rhs_groups", `1 < 2 and 3`, lang.ErrType},
		{"undefined_variable", `y + 1`, lang.ErrUndefinedVariable},
		{"index_out_of_bounds", `[1, 2, 3][5]`, lang.ErrIndexOutOfBounds},
		{"negative_index", `[1, 2, 3][-1]`, lang.ErrIndexOutOfBounds},
		{"list_float_index", `[1, 2][0.0]`, lang.ErrType},
		{"index_int", `5[0]`, lang.ErrType},
		{"dict_missing_key", `{"a": 1}["b"]`, lang.ErrKeyNotFound},
		{"dict_list_key", `{"a": 1}[[1]]`, lang.ErrType},
		{"dict_literal_list_key", `{[1]: 2}`, lang.ErrType},
		{"assign_out_of_range", `let l = [1]; l[1] = 2`, lang.ErrIndexOutOfBounds},
		{"assign_string_index", `let s = "abc"; s[0] = "x"`, lang.ErrType},
		{"delete_variable", `let x = 1; delete x`, lang.ErrInvalidDeleteTarget},
		{"delete_string_element", `let s = "abc"; delete s[0]`, lang.ErrInvalidDeleteTarget},
		{"delete_missing_key", `let d = {"a": 1}; delete d["b"]`, lang.ErrKeyNotFound},
		{"delete_out_of_range", `let l = []; delete l[0]`, lang.ErrIndexOutOfBounds},
		{"method_on_dict", `{}.push(1)`, lang.ErrType},
		{"unknown_method", `[].append(1)`, lang.ErrUnknownMethod},
		{"pop_empty", `[].pop()`, lang.ErrEmptyContainer},
		{"pop_out_of_range", `[1].pop(3)`, lang.ErrIndexOutOfBounds},
		{"pop_non_int", `[1].pop("0")`, lang.ErrType},
		{"pop_too_many_args", `[1].pop(0, 0)`, lang.ErrType},
		{"invalid_float_literal", `1.2.3`, lang.ErrInvalidLiteral},
		{"error_inside_while", `let i = 0; while i < 5 { i = i + 1; if i == 3 { 1 / 0 } }`, lang.ErrDivisionByZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, _, err := exec(t, tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Exec() error = %v, want %v", err, tt.want)
			}

			if !errors.Is(err, lang.ErrRuntime) {
				t.Errorf("Exec() error = %v is not in the runtime family", err)
			}
		})
	}
}

func TestEvaluate_Print(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"if_true_branch", `if (1 < 2) { print(1) } else { print(2) }`, "1\n"},
		{"if_false_branch", `if (2 < 1) { print(1) } else { print(2) }`, "2\n"},
		{"string_raw", `print "hi there"`, "hi there\n"},
		{"float", `print 2.0; print 0.1 + 0.2`, "2.0\n0.30000000000000004\n"},
		{"normalized", `print 4 / 2`, "2\n"},
		{"bool", `print 1 == 1`, "true\n"},
		{"list", `print [1, "a", 2.5, [true]]`, "[1, 'a', 2.5, [true]]\n"},
		{"dict_insertion_order", `print {"b": 1, "a": [2]}`, "{'b': 1, 'a': [2]}\n"},
		{"while_counter", `let i = 0; while i < 3 { print i; i = i + 1 }`, "0\n1\n2\n"},
		{"cyclic_list", `let l = [1]; l.push(l); print l`, "[1, [...]]\n"},
		{"small_float", `print 0.00001`, "1e-05\n"},
		{"large_float", `print 100000000000000000000.0`, "1e+20\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, out, _, err := exec(t, tt.input)
			if err != nil {
				t.Fatalf("Exec() error = %v", err)
			}

			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestEvaluate_Environment(t *testing.T) {
	t.Parallel()

	t.Run("let_then_read", func(t *testing.T) {
		t.Parallel()

		v, _, env, err := exec(t, `let x = 5; x + 1`)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}

		if !lang.Equals(v, lang.Int(6)) {
			t.Errorf("x + 1 = %s, want 6", lang.Repr(v))
		}

		if x, _ := env.Read("x"); !lang.Equals(x, lang.Int(5)) {
			t.Errorf("x = %s, want 5", lang.Repr(x))
		}
	})

	t.Run("bare_assignment_creates_binding", func(t *testing.T) {
		t.Parallel()

		_, _, env, err := exec(t, `a = 5`)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}

		if a, ok := env.Read("a"); !ok || !lang.Equals(a, lang.Int(5)) {
			t.Errorf("a = %v, %v; want 5", a, ok)
		}
	})

	t.Run("aliasing", func(t *testing.T) {
		t.Parallel()

		_, _, env, err := exec(t, `let a = [1]; let b = a; b.push(2); let d = {"k": a}; d["k"][0] = 9`)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}

		a, _ := env.Read("a")
		if got := lang.Repr(a); got != "[9, 2]" {
			t.Errorf("a = %s, want [9, 2]", got)
		}
	})

	t.Run("push_pop_mutates", func(t *testing.T) {
		t.Parallel()

		v, _, env, err := exec(t, `let l = [1]; l.push(2); l.pop()`)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}

		if !lang.Equals(v, lang.Int(2)) {
			t.Errorf("pop() = %s, want 2", lang.Repr(v))
		}

		if l, _ := env.Read("l"); lang.Repr(l) != "[1]" {
			t.Errorf("l = %s, want [1]", lang.Repr(l))
		}
	})

	t.Run("delete_then_read", func(t *testing.T) {
		t.Parallel()

		_, _, env, err := exec(t, `let d = {"a": 1, "b": 2}; delete d["a"]`)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}

		it := lang.New(lang.WithEnvironment(env))

		_, err = it.Exec(t.Context(), `d["a"]`)
		if !errors.Is(err, lang.ErrKeyNotFound) {
			t.Errorf("d[\"a\"] error = %v, want %v", err, lang.ErrKeyNotFound)
		}

		if d, _ := env.Read("d"); lang.Repr(d) != "{'b': 2}" {
			t.Errorf("d = %s, want {'b': 2}", lang.Repr(d))
		}
	})

	t.Run("dict_assign_inserts", func(t *testing.T) {
		t.Parallel()

		_, _, env, err := exec(t, `let d = {}; d["x"] = 1; d[2] = "y"; d["x"] = 3`)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}

		if d, _ := env.Read("d"); lang.Repr(d) != "{'x': 3, 2: 'y'}" {
			t.Errorf("d = %s, want {'x': 3, 2: 'y'}", lang.Repr(d))
		}
	})

	t.Run("while_terminates_on_guard", func(t *testing.T) {
		t.Parallel()

		v, _, env, err := exec(t, `let n = 0; while n < 10 { n = n + 3 }`)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}

		if _, ok := v.(lang.Unit); !ok {
			t.Errorf("while = %s, want none", lang.Repr(v))
		}

		if n, _ := env.Read("n"); !lang.Equals(n, lang.Int(12)) {
			t.Errorf("n = %s, want 12", lang.Repr(n))
		}
	})

	t.Run("no_short_circuit", func(t *testing.T) {
		t.Parallel()

		_, _, _, err := exec(t, `false and missing`)
		if !errors.Is(err, lang.ErrUndefinedVariable) {
			t.Errorf("Exec() error = %v, want %v", err, lang.ErrUndefinedVariable)
		}
	})

	t.Run("runtime_error_stops_input", func(t *testing.T) {
		t.Parallel()

		_, _, env, err := exec(t, `let a = 1; let b = 1 / 0; let c = 3`)
		if !errors.Is(err, lang.ErrDivisionByZero) {
			t.Fatalf("Exec() error = %v, want %v", err, lang.ErrDivisionByZero)
		}

		if _, ok := env.Read("a"); !ok {
			t.Error("a was not bound before the failing statement")
		}

		if _, ok := env.Read("c"); ok {
			t.Error("c was bound after the failing statement")
		}
	})

	t.Run("parse_error_runs_nothing", func(t *testing.T) {
		t.Parallel()

		_, _, env, err := exec(t, `let a = 1; let b = (`)
		if !errors.Is(err, lang.ErrParse) {
			t.Fatalf("Exec() error = %v, want parse error", err)
		}

		if env.Len() != 0 {
			t.Errorf("environment has %d bindings, want 0", env.Len())
		}
	})
}

func TestEvaluate_ErrorAttributes(t *testing.T) {
	t.Parallel()

	_, _, _, err := exec(t, "let x = 1\nx + \"s\"")

	var lerr *lang.Error
	if !errors.As(err, &lerr) {
		t.Fatalf("Exec() error = %v, want *lang.Error", err)
	}

	if lerr.Family() != lang.ErrRuntime {
		t.Errorf("Family() = %v, want %v", lerr.Family(), lang.ErrRuntime)
	}

	if pos, ok := lerr.Position(); !ok || pos.Line != 2 {
		t.Errorf("Position() = %v, %v; want line 2", pos, ok)
	}
}

func TestEvaluate_Interrupted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	env := lang.NewMemory()
	it := lang.New(lang.WithEnvironment(env), lang.WithOutput(&bytes.Buffer{}))

	_, err := it.Exec(ctx, "n = 0; while true { n = n + 1 }")
	if !errors.Is(err, lang.ErrInterrupted) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Exec() error = %v, want ErrInterrupted wrapping the deadline", err)
	}

	if !errors.Is(err, lang.ErrRuntime) {
		t.Error("ErrInterrupted is not a runtime error")
	}

	if n, _ := env.Read("n"); !lang.Truthy(n) {
		t.Errorf("loop body never ran: n = %s", lang.Repr(n))
	}
}

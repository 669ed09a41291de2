// Package lang implements the kay scripting language: a lexer, a
// recursive-descent parser producing a syntax tree, and a tree-walking
// evaluator that applies statements to a flat [Environment].
//
// # Grammar
//
// Informal EBNF, lowest precedence first:
//
//	program     → statement*
//	statement   → "let" postfix "=" expression
//	            | postfix "=" expression
//	            | "print" expression
//	            | "delete" postfix
//	            | "if" expression block ("else" (if | block))?
//	            | "while" expression block
//	            | expression
//	block       → "{" statement* "}"
//	expression  → boolean
//	boolean     → comparison (("and" | "or") comparison)*
//	comparison  → arithmetic (("=="|"!="|"<"|">"|"<="|">=") expression)?
//	arithmetic  → term (("+" | "-") term)*
//	term        → postfix (("*" | "/") postfix)*
//	postfix     → factor ("[" expression "]" | "." name "(" args? ")")*
//	factor      → number | string | bool | name | "(" expression ")"
//	            | ("-" | "not" | "!") postfix | list | dict
//
// Statements may be separated by ';'. The right operand of a comparison is a
// full expression, so "a < b and c" groups as "a < (b and c)".
//
// # Values
//
// Values are [Int], [Float], [Bool], [Str], [*List], [*Dict] and [Unit].
// Lists and dicts are shared by reference: assigning one to a second name
// aliases it. Arithmetic on numbers produces an [Int] whenever the result is
// integral and fits in 64 bits, so 4 / 2 is 2 and 1 / 2 is 0.5.
//
// # Example
//
//	let squares = []
//	let i = 0
//	while i < 5 {
//	  squares.push(i * i)
//	  i = i + 1
//	}
//	print squares # [0, 1, 4, 9, 16]
//
// # Errors
//
// Every error returned by this package is an [*Error] belonging to one of
// three families, [ErrLex], [ErrParse] and [ErrRuntime]; match either the
// family or a specific sentinel with [errors.Is].
//
// # Wire form
//
// A parsed [Program] can be written as nested lists (see [Encode]) in JSON or
// YAML and read back with [DecodeProgram].
package lang

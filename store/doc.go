// Package store persists a kay environment in a SQLite database.
//
// Each binding is one row holding the variable name and the value rendered
// as literal source text ([lang.FormatLiteral]), so the database stays
// readable with the sqlite3 shell:
//
//	sqlite> SELECT * FROM bindings;
//	xs|[1, 2, 3]
//	greeting|'hello'
//
// Values without a literal form (none, non-finite floats, containers that
// contain themselves) are skipped when saving. Aliasing between variables is
// not preserved: two names bound to one list load as two equal lists.
package store

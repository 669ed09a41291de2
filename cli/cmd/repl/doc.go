// Package repl implements the interactive shell.
//
// [Run] starts a full-screen terminal interface with separate eval and
// command modes, fuzzy completion and method signature hints. [RunLine]
// starts a plain line editor that also works when stdin is not a terminal.
// Both evaluate input against a [Session] and persist it after every input.
package repl

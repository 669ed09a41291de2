package repl

import "github.com/ardnew/kay/lang"

// Sentinel errors.
var (
	ErrOutOfBounds  = lang.NewError("history index out of range")
	ErrEditDeclined = lang.NewError("edit declined")
	ErrReadLine     = lang.NewError("failed to read input line")
)

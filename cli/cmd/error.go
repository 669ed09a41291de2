package cmd

import "github.com/ardnew/kay/lang"

var (
	ErrOpenSource     = lang.NewError("open source input")
	ErrScriptNotFound = lang.NewError("script not found")
	ErrNoStore        = lang.NewError("no store configured (use --store)")
	ErrMarshal        = lang.NewError("marshal output")
	ErrWriteConfig    = lang.NewError("write configuration file")
	ErrFileExists     = lang.NewError("file exists (use --force to overwrite)")
)

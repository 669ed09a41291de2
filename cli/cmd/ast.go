package cmd

import (
	"context"
	"io"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
)

// AST parses a script and prints its syntax tree without evaluating it.
type AST struct {
	File   string `arg:"" default:"-"      help:"Script file, '-' reads stdin"  optional:""`
	Format string `default:"source"        enum:"source,json,yaml"              help:"Output format (${enum})" short:"f"`
	Indent int    `default:"2"             help:"Spaces per indentation level"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context, g *Globals, out io.Writer) error {
	r, err := openSource(a.File)
	if err != nil {
		return err
	}
	defer r.Close()

	prog, err := lang.ParseReader(ctx, r, g.options(log.Default())...)
	if err != nil {
		return err
	}

	switch a.Format {
	case "json":
		err = prog.FormatJSON(ctx, out, a.Indent)
	case "yaml":
		err = prog.FormatYAML(ctx, out, a.Indent)
	default:
		err = prog.Format(ctx, out, a.Indent)
	}

	if err != nil {
		return ErrMarshal.Wrap(err)
	}

	return nil
}

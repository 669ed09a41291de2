package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
)

// Exec evaluates a syntax tree previously written by the ast command in the
// json or yaml format.
type Exec struct {
	File string `arg:"" default:"-" help:"Syntax tree file, '-' reads stdin" optional:""`
}

// Run executes the exec command.
func (e *Exec) Run(ctx context.Context, g *Globals, out io.Writer) (err error) {
	r, err := openSource(e.File)
	if err != nil {
		return err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return ErrOpenSource.With(slog.String("file", e.File)).Wrap(err)
	}

	prog, err := lang.DecodeProgram(ctx, data, g.options(log.Default())...)
	if err != nil {
		return err
	}

	sess, err := g.Open(ctx, out)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.Close(context.WithoutCancel(ctx))) }()

	_, err = sess.Run(ctx, nil, prog)

	return err
}

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/kay/cli/cmd/repl"
	"github.com/ardnew/kay/log"
)

// Repl starts an interactive session. On a terminal it runs the full screen
// editor with completion, otherwise a plain line reader.
type Repl struct {
	Plain bool `help:"Use the plain line reader even on a terminal"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, g *Globals, out io.Writer) (err error) {
	sess, err := g.Open(ctx, out)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.Close(context.WithoutCancel(ctx))) }()

	if !r.Plain && interactive() {
		return repl.Run(ctx, sess, g.Cache, log.Default())
	}

	return repl.RunLine(ctx, sess, g.Cache, out, log.Default())
}

func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

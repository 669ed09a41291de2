package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/ardnew/kay/log"
)

// Run executes script files in order against one environment.
type Run struct {
	Files []string `arg:"" help:"Script files, '-' reads stdin" name:"file"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context, g *Globals, out io.Writer) (err error) {
	sess, err := g.Open(ctx, out)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.Close(context.WithoutCancel(ctx))) }()

	for _, file := range r.Files {
		if _, err := sess.RunFile(ctx, nil, file); err != nil {
			return err
		}

		log.DebugContext(ctx, "script complete", slog.String("file", file))
	}

	return nil
}

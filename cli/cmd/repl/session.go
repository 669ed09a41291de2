package repl

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
)

// Session is the environment and interpreter a REPL drives. Calls are never
// concurrent.
type Session interface {
	// Exec runs the statements in src. Print output goes to w.
	Exec(ctx context.Context, w io.Writer, src string) (lang.Value, error)
	// RunFile runs the script named path. Print output goes to w.
	RunFile(ctx context.Context, w io.Writer, path string) (lang.Value, error)
	// Bindings iterates over the environment in binding order.
	Bindings() iter.Seq2[string, lang.Value]
	// Flush persists the environment, if the session has a store.
	Flush(ctx context.Context) error
}

var runCommand = regexp.MustCompile(`^run\s+(\S+)$`)

// outcome is the result of one REPL input.
type outcome struct {
	value lang.Value
	err   error
	names []string
}

// evaluate runs one input line, either "run <file>" or a statement sequence,
// and flushes the session afterwards even when the input failed.
func evaluate(
	ctx context.Context,
	sess Session,
	w io.Writer,
	input string,
	logger log.Logger,
) outcome {
	input = strings.TrimSpace(input)

	var res outcome

	if m := runCommand.FindStringSubmatch(input); m != nil {
		logger.DebugContext(ctx, "repl run", slog.String("file", m[1]))
		res.value, res.err = sess.RunFile(ctx, w, m[1])
	} else {
		res.value, res.err = sess.Exec(ctx, w, input)
	}

	if err := sess.Flush(context.WithoutCancel(ctx)); err != nil {
		res.err = errors.Join(res.err, err)
	}

	if res.err != nil {
		logger.DebugContext(ctx, "repl input failed", slog.Any("error", res.err))
	}

	for name := range sess.Bindings() {
		res.names = append(res.names, name)
	}

	return res
}

// result is the text shown for a successful input, empty when the input
// produced no value.
func (o outcome) result() string {
	if o.err != nil || o.value == nil {
		return ""
	}

	if _, ok := o.value.(lang.Unit); ok {
		return ""
	}

	return lang.Repr(o.value)
}

package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
)

const (
	linePrompt = "KayLang: "
	morePrompt = "     ... "
)

// prompter reads input lines. [liner.State] implements it.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// lineREPL is the line-oriented shell.
type lineREPL struct {
	sess    Session
	in      prompter
	out     io.Writer
	history *History
	logger  log.Logger
	names   []string
}

// RunLine starts the line-oriented REPL on stdin, writing to out. Input that
// ends inside an open block or literal continues on the next line.
func RunLine(
	ctx context.Context,
	sess Session,
	cacheDir string,
	out io.Writer,
	logger log.Logger,
) error {
	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "history not loaded", slog.Any("error", err))
	}

	state := liner.NewLiner()
	defer state.Close()

	state.SetCtrlCAborts(true)

	for _, line := range history.Lines(modeEval) {
		state.AppendHistory(line)
	}

	r := &lineREPL{sess: sess, in: state, out: out, history: history, logger: logger}
	for name := range sess.Bindings() {
		r.names = append(r.names, name)
	}

	state.SetCompleter(r.complete)

	return r.loop(ctx)
}

func (r *lineREPL) loop(ctx context.Context) error {
	var pending strings.Builder

	for ctx.Err() == nil {
		prompt := linePrompt
		if pending.Len() > 0 {
			prompt = morePrompt
		}

		line, err := r.in.Prompt(prompt)

		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)

			return nil

		case errors.Is(err, liner.ErrPromptAborted):
			pending.Reset()

			continue

		case err != nil:
			return ErrReadLine.Wrap(err)
		}

		if pending.Len() == 0 && strings.TrimSpace(line) == "" {
			continue
		}

		if pending.Len() > 0 {
			pending.WriteByte('\n')
		}

		pending.WriteString(line)

		input := pending.String()

		// An empty line ends a continuation even when the input is incomplete.
		if strings.TrimSpace(line) != "" && !runCommand.MatchString(strings.TrimSpace(input)) {
			if _, err := lang.ParseString(ctx, input); lang.Incomplete(err) {
				continue
			}
		}

		pending.Reset()
		r.in.AppendHistory(strings.Join(strings.Fields(input), " "))

		if err := r.history.Add(input, modeEval); err != nil {
			r.logger.WarnContext(ctx, "history not saved", slog.Any("error", err))
		}

		r.exec(ctx, input)
	}

	return nil
}

// exec evaluates one input. An interrupt signal cancels the evaluation but
// not the REPL.
func (r *lineREPL) exec(ctx context.Context, input string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	res := evaluate(ctx, r.sess, r.out, input, r.logger)
	r.names = res.names

	switch {
	case res.err != nil:
		fmt.Fprintln(r.out, "error:", res.err)
	case res.result() != "":
		fmt.Fprintln(r.out, res.result())
	}
}

// complete returns the lines formed by completing the last word of line with
// each candidate it prefixes.
func (r *lineREPL) complete(line string) []string {
	word, start, _ := wordBounds(line, len(line))
	if word == "" && !isMethodPosition(line, start) {
		return nil
	}

	var out []string

	for _, c := range candidates(r.names, line, start) {
		if strings.HasPrefix(c, word) {
			out = append(out, line[:start]+c)
		}
	}

	return slices.Clip(out)
}

package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand]. It opens the scratch buffer in
// $EDITOR and checks that the saved text parses, offering to re-edit when it
// does not.
type editCommand struct {
	ctx     context.Context
	scratch string
	logger  log.Logger
	editor  string

	// source is the saved program, empty when the buffer was cleared.
	source string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. It returns [ErrEditDeclined] when the saved
// text does not parse and the user chose not to re-edit.
func (c *editCommand) Run() error {
	f, err := os.CreateTemp("", "kay-scratch-*.kay")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.scratch
	answers := bufio.NewScanner(c.stdin)

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		if err := c.runEditor(path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		content = string(data)
		if strings.TrimSpace(content) == "" {
			return nil
		}

		_, perr := lang.ParseString(c.ctx, content)
		c.logger.TraceContext(c.ctx, "scratch parsed",
			slog.Int("bytes", len(data)),
			slog.Bool("ok", perr == nil))

		if perr == nil {
			c.source = content

			return nil
		}

		fmt.Fprintf(c.stderr, "\nparse error: %s\n", perr)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		if !answers.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(answers.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

func (c *editCommand) runEditor(path string) error {
	editor := c.editor
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}

	if editor == "" {
		editor = defaultEditor
	}

	args := strings.Fields(editor)

	cmd := exec.CommandContext(c.ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	return cmd.Run()
}

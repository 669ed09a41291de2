package repl

import (
	"context"
	"io"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/peterh/liner"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
)

// testSession runs input against one in-memory environment.
type testSession struct {
	env      *lang.Memory
	flushes  int
	flushErr error
}

func newTestSession() *testSession {
	return &testSession{env: lang.NewMemory()}
}

func (s *testSession) interp(w io.Writer) *lang.Interpreter {
	return lang.New(lang.WithEnvironment(s.env), lang.WithOutput(w))
}

func (s *testSession) Exec(ctx context.Context, w io.Writer, src string) (lang.Value, error) {
	return s.interp(w).Exec(ctx, src)
}

func (s *testSession) RunFile(ctx context.Context, w io.Writer, path string) (lang.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return s.interp(w).ExecReader(ctx, f)
}

func (s *testSession) Bindings() iter.Seq2[string, lang.Value] { return s.env.All() }

func (s *testSession) Flush(context.Context) error {
	s.flushes++

	return s.flushErr
}

// script feeds canned lines to a lineREPL. "^C" aborts the prompt.
type script struct {
	lines   []string
	prompts []string
	history []string
}

func (p *script) Prompt(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)

	if len(p.lines) == 0 {
		return "", io.EOF
	}

	line := p.lines[0]
	p.lines = p.lines[1:]

	if line == "^C" {
		return "", liner.ErrPromptAborted
	}

	return line, nil
}

func (p *script) AppendHistory(item string) { p.history = append(p.history, item) }

func tempHistory(t *testing.T) *History {
	t.Helper()

	return NewHistory(filepath.Join(t.TempDir(), baseHistory))
}

func newTestModel(t *testing.T, sess Session, history *History) model {
	t.Helper()

	if history == nil {
		history = tempHistory(t)
	}

	return newModel(t.Context(), sess, history, log.Logger{})
}

func writeScript(t *testing.T, name, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

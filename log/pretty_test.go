package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type secret string

func (secret) LogValue() slog.Value { return slog.StringValue("***") }

func TestPretty_Line(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	// A buffer is not a terminal, so no escape sequences are written.
	logger := Make(&buf, WithTimeLayout("none"), WithPretty(true))
	logger.With(slog.String("cmd", "repl")).Info("ready",
		slog.Int("n", 2),
		slog.Float64("f", 0.5),
		slog.Bool("ok", true),
		slog.Duration("d", 1500*time.Millisecond),
		slog.Any("err", errors.New("boom")),
		slog.Any("token", secret("hunter2")))

	want := "level=INFO msg=ready cmd=repl n=2 f=0.5 ok=true d=1.5s err=boom token=***\n"
	if got := buf.String(); got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestPretty_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := Make(&buf, WithTimeLayout("none"))
	h := logger.Handler().WithGroup("store").WithAttrs([]slog.Attr{slog.String("path", "kay.db")})

	slog.New(h).Warn("skipped", slog.Group("binding", slog.String("name", "f")))

	want := "level=WARN msg=skipped store.path=kay.db store.binding.name=f\n"
	if got := buf.String(); got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestPretty_Multiline(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := Make(&buf, WithTimeLayout("none"), WithFormat(FormatJSON))
	logger.Error("failed", slog.String("file", "a.kay"))

	want := "{\n  level: ERROR,\n  msg: failed,\n  file: a.kay\n}\n"
	if got := buf.String(); got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestPretty_Filtering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelWarn))
	logger.Info("hidden")
	logger.Debug("hidden")

	if buf.Len() != 0 {
		t.Errorf("wrote %q", buf.String())
	}

	logger.Error("shown")

	if !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("got %q", buf.String())
	}
}

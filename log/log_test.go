package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func plain(buf *bytes.Buffer, opts ...Option) Logger {
	return Make(buf, append([]Option{WithTimeLayout("none"), WithPretty(false)}, opts...)...)
}

func TestMake_Defaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := Make(&buf)

	if got := logger.Level(); got != DefaultLevel {
		t.Errorf("Level() = %v, want %v", got, DefaultLevel)
	}

	if got := logger.Format(); got != DefaultFormat {
		t.Errorf("Format() = %v, want %v", got, DefaultFormat)
	}

	if logger.caller != DefaultCaller || logger.pretty != DefaultPretty {
		t.Errorf("caller=%v pretty=%v", logger.caller, logger.pretty)
	}
}

func TestLogger_Zero(t *testing.T) {
	t.Parallel()

	var logger Logger

	// Must not panic.
	logger.Info("dropped")
	logger.With(slog.Int("n", 1)).Error("dropped")

	if logger.Enabled(t.Context(), LevelError) {
		t.Error("zero logger enabled")
	}

	if got := logger.Level(); got != DefaultLevel {
		t.Errorf("Level() = %v", got)
	}

	var buf bytes.Buffer

	logger.Wrap(WithOutput(&buf), WithPretty(false), WithTimeLayout("none")).Info("hello")

	if got := buf.String(); got != "level=INFO msg=hello\n" {
		t.Errorf("wrapped zero logger wrote %q", got)
	}
}

func TestLogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level Level
		log   func(Logger)
		want  string
	}{
		{"trace_shown", LevelTrace, func(l Logger) { l.Trace("t") }, "level=TRACE msg=t\n"},
		{"trace_hidden", LevelDebug, func(l Logger) { l.Trace("t") }, ""},
		{"debug", LevelDebug, func(l Logger) { l.Debug("d") }, "level=DEBUG msg=d\n"},
		{"info_hidden", LevelWarn, func(l Logger) { l.Info("i") }, ""},
		{"warn", LevelWarn, func(l Logger) { l.Warn("w") }, "level=WARN msg=w\n"},
		{"error", LevelWarn, func(l Logger) { l.Error("e") }, "level=ERROR msg=e\n"},
		{"context", LevelInfo, func(l Logger) { l.InfoContext(t.Context(), "c") }, "level=INFO msg=c\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			tt.log(plain(&buf, WithLevel(tt.level)))

			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := plain(&buf, WithFormat(FormatJSON)).With(slog.String("cmd", "run"))
	logger.Info("loaded", slog.Int("bindings", 3), slog.Group("store", slog.String("path", "kay.db")))

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if got["level"] != "INFO" || got["msg"] != "loaded" || got["cmd"] != "run" {
		t.Errorf("record = %v", got)
	}

	if got["bindings"] != float64(3) {
		t.Errorf("bindings = %v", got["bindings"])
	}

	if store, _ := got["store"].(map[string]any); store["path"] != "kay.db" {
		t.Errorf("store = %v", got["store"])
	}

	if _, ok := got["time"]; ok {
		t.Error("time present with layout none")
	}
}

func TestLogger_Caller(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	plain(&buf, WithCaller(true)).Info("here")

	if !strings.Contains(buf.String(), "log_test.go:") {
		t.Errorf("caller not recorded: %q", buf.String())
	}
}

func TestLogger_Wrap(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer

	orig := plain(&a, WithLevel(LevelError))
	wrapped := orig.Wrap(WithOutput(&b), WithLevel(LevelDebug))

	orig.Info("hidden")
	wrapped.Debug("shown")

	if a.Len() != 0 {
		t.Errorf("original wrote %q", a.String())
	}

	if got := b.String(); got != "level=DEBUG msg=shown\n" {
		t.Errorf("wrapped wrote %q", got)
	}

	if orig.Level() != LevelError {
		t.Errorf("original level changed to %v", orig.Level())
	}
}

func TestLogger_Concurrent(t *testing.T) {
	t.Parallel()

	var (
		buf bytes.Buffer
		wg  sync.WaitGroup
	)

	logger := plain(&buf)

	for i := range 16 {
		wg.Go(func() {
			logger.Info("tick", slog.Int("i", i))
		})
	}

	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 16 {
		t.Errorf("got %d lines, want 16", got)
	}
}

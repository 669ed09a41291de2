package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of one output. Colors are dropped automatically
// when the output is not a terminal.
type palette struct {
	key, str, num, yes, no, time, dur lipgloss.Style
	levels                            map[slog.Level]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return &palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		yes:  fg("2"),
		no:   fg("1"),
		time: fg("4"),
		dur:  fg("5"),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("4"),
			slog.LevelDebug:        fg("4"),
			slog.LevelInfo:         fg("2").Bold(true),
			slog.LevelWarn:         fg("3").Bold(true),
			slog.LevelError:        fg("1").Bold(true),
		},
	}
}

func (p *palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.levels[slog.LevelError]
	case l >= slog.LevelWarn:
		return p.levels[slog.LevelWarn]
	case l >= slog.LevelInfo:
		return p.levels[slog.LevelInfo]
	case l >= slog.LevelDebug:
		return p.levels[slog.LevelDebug]
	}

	return p.levels[slog.Level(LevelTrace)]
}

type field struct {
	key string
	val slog.Value
}

// prettyHandler writes colorized records, either as one line of key=value
// pairs or, in multiline mode, as an indented block resembling JSON.
type prettyHandler struct {
	opts      slog.HandlerOptions
	mu        *sync.Mutex
	w         io.Writer
	pal       *palette
	multiline bool
	groups    []string
	fields    []field
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, multiline bool) *prettyHandler {
	return &prettyHandler{
		opts:      *opts,
		mu:        &sync.Mutex{},
		w:         w,
		pal:       newPalette(w),
		multiline: multiline,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, 4+len(h.fields)+r.NumAttrs())

	head := []slog.Attr{slog.Time(slog.TimeKey, r.Time), slog.Any(slog.LevelKey, r.Level)}
	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			head = append(head, slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	head = append(head, slog.String(slog.MessageKey, r.Message))

	for _, a := range head {
		if a.Key == slog.TimeKey && r.Time.IsZero() {
			continue
		}

		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			fields = append(fields, field{a.Key, a.Value})
		}
	}

	fields = append(fields, h.fields...)

	r.Attrs(func(a slog.Attr) bool {
		fields = h.flatten(fields, h.groups, a)

		return true
	})

	buf := new(bytes.Buffer)
	h.write(buf, fields, r.Level)

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.fields = append([]field(nil), h.fields...)

	for _, a := range attrs {
		c.fields = h.flatten(c.fields, h.groups, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &c
}

// flatten appends a to fields, expanding groups into dotted keys.
func (h *prettyHandler) flatten(fields []field, groups []string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}

		for _, g := range a.Value.Group() {
			fields = h.flatten(fields, groups, g)
		}

		return fields
	}

	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(groups, a)
	}

	if a.Equal(slog.Attr{}) {
		return fields
	}

	key := a.Key
	for i := len(groups) - 1; i >= 0; i-- {
		key = groups[i] + "." + key
	}

	return append(fields, field{key, a.Value})
}

func (h *prettyHandler) write(buf *bytes.Buffer, fields []field, level slog.Level) {
	if h.multiline {
		buf.WriteString("{\n")
	}

	for i, f := range fields {
		switch {
		case h.multiline && i > 0:
			buf.WriteString(",\n  ")
		case h.multiline:
			buf.WriteString("  ")
		case i > 0:
			buf.WriteByte(' ')
		}

		buf.WriteString(h.pal.key.Render(f.key))

		if h.multiline {
			buf.WriteString(": ")
		} else {
			buf.WriteByte('=')
		}

		if f.key == slog.LevelKey {
			buf.WriteString(h.pal.level(level).Render(f.val.String()))

			continue
		}

		buf.WriteString(h.value(f.val))
	}

	if h.multiline {
		buf.WriteString("\n}")
	}

	buf.WriteByte('\n')
}

func (h *prettyHandler) value(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return h.pal.str.Render(v.String())
	case slog.KindInt64:
		return h.pal.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return h.pal.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return h.pal.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return h.pal.yes.Render("true")
		}

		return h.pal.no.Render("false")
	case slog.KindDuration:
		return h.pal.dur.Render(v.Duration().String())
	case slog.KindTime:
		return h.pal.time.Render(v.Time().Format(DefaultTimeLayout))
	}

	if err, ok := v.Any().(error); ok {
		return h.pal.no.Render(err.Error())
	}

	return h.pal.str.Render(v.String())
}

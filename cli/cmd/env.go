package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
	"github.com/ardnew/kay/store"
)

// Env prints the bindings kept in the store.
type Env struct {
	Format string `default:"source" enum:"source,yaml,json" help:"Output format (${enum})" short:"f"`
}

// Run executes the env command.
func (e *Env) Run(ctx context.Context, g *Globals, out io.Writer) error {
	if g.Store == "" {
		return ErrNoStore
	}

	st, err := store.Open(ctx, g.Store, store.WithLogger(log.Default()))
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.Entries(ctx)
	if err != nil {
		return err
	}

	switch e.Format {
	case "yaml":
		return writeYAML(ctx, out, entries)
	case "json":
		return writeJSON(ctx, out, entries)
	}

	for _, entry := range entries {
		if _, err := fmt.Fprintf(out, "%s = %s\n", entry.Name, entry.Value); err != nil {
			return err
		}
	}

	return nil
}

func writeYAML(ctx context.Context, out io.Writer, entries []store.Entry) error {
	doc := make(yaml.MapSlice, 0, len(entries))

	for _, entry := range entries {
		v, err := lang.ParseValue(ctx, entry.Value)
		if err != nil {
			return err
		}

		doc = append(doc, yaml.MapItem{Key: entry.Name, Value: yamlValue(v)})
	}

	if len(doc) == 0 {
		_, err := io.WriteString(out, "{}\n")

		return err
	}

	data, err := yaml.MarshalContext(ctx, doc, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return ErrMarshal.Wrap(err)
	}

	_, err = out.Write(data)

	return err
}

func writeJSON(ctx context.Context, out io.Writer, entries []store.Entry) error {
	type binding struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}

	doc := make([]binding, 0, len(entries))

	for _, entry := range entries {
		v, err := lang.ParseValue(ctx, entry.Value)
		if err != nil {
			return err
		}

		doc = append(doc, binding{Name: entry.Name, Value: jsonValue(v)})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return ErrMarshal.With(slog.String("format", "json")).Wrap(err)
	}

	return nil
}

// yamlValue converts v to a native value keeping the entry order of dicts.
func yamlValue(v lang.Value) any {
	switch v := v.(type) {
	case *lang.List:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = yamlValue(e)
		}

		return out

	case *lang.Dict:
		out := make(yaml.MapSlice, 0, v.Len())
		for k, e := range v.All() {
			out = append(out, yaml.MapItem{Key: yamlValue(k), Value: yamlValue(e)})
		}

		return out
	}

	return scalar(v)
}

// jsonValue converts v to a native value. Dict keys become their display
// text since JSON object keys are strings.
func jsonValue(v lang.Value) any {
	switch v := v.(type) {
	case *lang.List:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = jsonValue(e)
		}

		return out

	case *lang.Dict:
		out := make(map[string]any, v.Len())
		for k, e := range v.All() {
			out[lang.Display(k)] = jsonValue(e)
		}

		return out
	}

	return scalar(v)
}

func scalar(v lang.Value) any {
	switch v := v.(type) {
	case lang.Int:
		return int64(v)
	case lang.Float:
		return float64(v)
	case lang.Bool:
		return bool(v)
	case lang.Str:
		return string(v)
	}

	return nil
}

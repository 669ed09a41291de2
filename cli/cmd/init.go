package cmd

import (
	"context"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/kay/log"
)

// defaultConfigIndent is the indentation of the generated configuration file.
const defaultConfigIndent = 2

// ignorePrefix lists flag name prefixes left out of the configuration file.
var ignorePrefix = []string{"help", "version", "pprof-"}

// Init generates a configuration file holding the current flag values.
type Init struct {
	Force bool `help:"Overwrite an existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalContext(ctx, flagValues(ktx), yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file", slog.String("path", confPath))

	return nil
}

// flagValues returns the configurable flags and their values in declaration
// order. Hidden flags and empty values are skipped.
func flagValues(ktx *kong.Context) yaml.MapSlice {
	var out yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || hasAnyPrefix(flag.Name, ignorePrefix) {
			continue
		}

		val := ktx.FlagValue(flag)
		if val == nil {
			continue
		}

		rv := reflect.ValueOf(val)
		switch rv.Kind() {
		case reflect.String, reflect.Slice, reflect.Map:
			if rv.Len() == 0 {
				continue
			}

			if rv.Kind() == reflect.String {
				val = rv.String()
			}
		}

		out = append(out, yaml.MapItem{Key: flag.Name, Value: val})
	}

	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}

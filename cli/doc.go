// Package cli contains the command line interface for kay.
//
// # Usage
//
//	kay [flags] [repl]            interactive session (default)
//	kay run FILE...               run scripts against one environment
//	kay ast [FILE]                print the syntax tree of a script
//	kay exec [FILE]               evaluate a syntax tree written by ast
//	kay env                       print the bindings kept in the store
//	kay init                      write the configuration file
//
// With --store FILE the environment is loaded from a SQLite database before
// the command runs and saved after it. Scripts named without a directory are
// searched in the working directory, the --path directories and $KAY_PATH.
//
// # Configuration
//
// Flag defaults are read from config.yaml and config.json in the user
// configuration directory, for example ~/.config/kay. Keys are flag names,
// and nested YAML mappings join their keys with "-":
//
//	store: ~/.local/share/kay/env.db
//	log:
//	  level: debug
//	  format: json
//
// Command-line flags override configuration values. kay init writes the
// current flag values as config.yaml.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: output format (text, json)
//   - --log-time-layout: timestamp layout, a Go time constant name or "none"
//   - --log-caller: include caller information
//   - --log-pretty: colorize text output on a terminal
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o kay .
//
//   - --pprof-mode: profile to record (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: profile output directory (default ~/.cache/kay/pprof)
package cli

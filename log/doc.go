// Package log is a small leveled logger over [log/slog].
//
// A [Logger] is built with [Make] and functional options, and reconfigured
// with [Logger.Wrap]. The zero Logger discards everything.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("kitchen"),
//		log.WithPretty(false))
//
//	logger.Info("session started", slog.String("store", path))
//
// Attributes are typed [slog.Attr] values; [Logger.With] attaches them to
// every subsequent message.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-statement
// interpreter tracing. Level names are printed upper-case ("TRACE").
//
// # Output
//
// [FormatText] (the default) writes key=value lines and [FormatJSON] writes
// one object per line. With [WithPretty] the same records are colorized;
// in JSON format they are spread over several lines. Colors are omitted
// automatically when the output is not a terminal.
//
// The package-level functions ([Info], [Debug], ...) write through
// [Default], which [Config] reconfigures.
package log

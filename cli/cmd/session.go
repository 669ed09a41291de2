package cmd

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
	"github.com/ardnew/kay/pkg"
	"github.com/ardnew/kay/store"
)

// Globals are the flags shared by every command.
type Globals struct {
	Store    string   `help:"SQLite file keeping the environment between runs"          placeholder:"FILE" type:"path"`
	MaxDepth int      `help:"Maximum parser nesting depth, 0 disables the check"        default:"${maxDepth}"`
	Path     []string `help:"Directories searched for scripts before ${pathEnv}"        placeholder:"DIR"  type:"path"`
	Cache    string   `help:"Directory for the REPL history"                            default:"${cache}" hidden:""   type:"path"`
}

// options returns the interpreter options selected by the flags.
func (g *Globals) options(logger log.Logger) []lang.Option {
	return []lang.Option{lang.WithMaxDepth(g.MaxDepth), lang.WithLogger(logger)}
}

// Session is one environment and the interpreter bound to it.
type Session struct {
	env    *lang.Memory
	interp *lang.Interpreter
	out    *redirect
	store  *store.Store
	path   []string
	logger log.Logger
}

// redirect forwards print output to the writer of the current call.
type redirect struct{ io.Writer }

// Open returns a session printing to out. With a store configured the
// environment is loaded from it.
func (g *Globals) Open(ctx context.Context, out io.Writer) (*Session, error) {
	logger := log.Default()

	s := &Session{
		env:    lang.NewMemory(),
		out:    &redirect{Writer: out},
		path:   g.Path,
		logger: logger,
	}

	s.interp = lang.New(append(g.options(logger),
		lang.WithEnvironment(s.env),
		lang.WithOutput(s.out))...)

	if g.Store == "" {
		return s, nil
	}

	st, err := store.Open(ctx, g.Store, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	n, err := st.Load(ctx, s.env)
	if err != nil {
		_ = st.Close()

		return nil, err
	}

	logger.DebugContext(ctx, "environment loaded",
		slog.String("store", st.Path()),
		slog.Int("bindings", n))

	s.store = st

	return s, nil
}

// to sends print output to w until the returned function is called. A nil w
// keeps the current writer.
func (s *Session) to(w io.Writer) func() {
	if w == nil {
		return func() {}
	}

	prev := s.out.Writer
	s.out.Writer = w

	return func() { s.out.Writer = prev }
}

// Exec runs the statements in src.
func (s *Session) Exec(ctx context.Context, w io.Writer, src string) (lang.Value, error) {
	defer s.to(w)()

	return s.interp.Exec(ctx, src)
}

// Run evaluates an already parsed program.
func (s *Session) Run(ctx context.Context, w io.Writer, prog lang.Program) (lang.Value, error) {
	defer s.to(w)()

	return s.interp.Run(ctx, prog)
}

// RunFile runs a script. Names without a directory are looked up in the
// working directory, then in the --path directories and $KAY_PATH.
func (s *Session) RunFile(ctx context.Context, w io.Writer, name string) (lang.Value, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	r, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s.logger.DebugContext(ctx, "run script", slog.String("file", path))

	defer s.to(w)()

	return s.interp.ExecReader(ctx, r)
}

func (s *Session) resolve(name string) (string, error) {
	if name == stdinSource || filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name, nil
	}

	if isFile(name) {
		return name, nil
	}

	dirs := s.searchPath()
	for _, dir := range dirs {
		if path := filepath.Join(dir, name); isFile(path) {
			return path, nil
		}
	}

	return "", ErrScriptNotFound.With(
		slog.String("file", name),
		slog.Any("path", dirs))
}

// searchPath returns the --path directories followed by those in $KAY_PATH.
func (s *Session) searchPath() []string {
	list := mung.Make(
		mung.WithSubjectItems(filepath.SplitList(os.Getenv(pkg.EnvVar("path")))...),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(s.path...),
	).String()

	return filepath.SplitList(list)
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// Bindings iterates over the environment in binding order.
func (s *Session) Bindings() iter.Seq2[string, lang.Value] { return s.env.All() }

// Flush saves the environment to the store, if any.
func (s *Session) Flush(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	return s.store.Save(ctx, s.env.All())
}

// Close flushes and releases the store.
func (s *Session) Close(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	err := s.Flush(ctx)
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}

	return err
}
